package bus

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"relaybot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestPublishSubscribe(t *testing.T) {
	b := New(10, testLogger())
	defer b.Close()

	ev := domain.InboundEvent{ID: "1", Gateway: "discord", Tenant: "Acme", Content: "hello"}
	b.Publish(ev)

	select {
	case got := <-b.Subscribe():
		if got.ID != "1" || got.Content != "hello" {
			t.Errorf("unexpected event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublishAfterClose(t *testing.T) {
	b := New(10, testLogger())
	b.Close()

	// Must not panic.
	b.Publish(domain.InboundEvent{ID: "1"})
}

func TestCloseTwice(t *testing.T) {
	b := New(10, testLogger())
	b.Close()
	b.Close()
}

func TestPublishPreservesOrder(t *testing.T) {
	b := New(10, testLogger())
	defer b.Close()

	for _, id := range []string{"a", "b", "c"} {
		b.Publish(domain.InboundEvent{ID: id})
	}

	for _, want := range []string{"a", "b", "c"} {
		select {
		case got := <-b.Subscribe():
			if got.ID != want {
				t.Errorf("expected %s, got %s", want, got.ID)
			}
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}
