package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"relaybot/internal/domain"
)

func testDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	return NewDispatcher(DispatcherConfig{
		Format: TimestampFormat{Locale: "nb-NO", Pattern: "dd.MM.yyyy HH:mm:ss"},
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	})
}

func sampleNotification() domain.Notification {
	return domain.Notification{
		ID:         "ev-1",
		Type:       "Default",
		ServerName: "Acme",
		Channel:    "general",
		ChannelID:  "5",
		Author:     "jdoe",
		Content:    "hello",
		Timestamp:  time.Date(2024, 3, 7, 18, 45, 9, 0, time.UTC),
	}
}

func TestSendSuccess(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("body is not JSON: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	d := testDispatcher(t)
	resp, err := d.Send(context.Background(), sampleNotification(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("status = %d", resp.Status)
	}
	if string(resp.Body) != "ok" {
		t.Errorf("body = %q", resp.Body)
	}
	if received["serverName"] != "Acme" {
		t.Errorf("serverName = %v", received["serverName"])
	}
	if received["formattedTimestamp"] != "07.03.2024 18:45:09" {
		t.Errorf("formattedTimestamp = %v", received["formattedTimestamp"])
	}
}

func TestSendNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	d := testDispatcher(t)
	_, err := d.Send(context.Background(), sampleNotification(), srv.URL)

	var de *domain.DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
	if de.Status != http.StatusForbidden {
		t.Errorf("status = %d", de.Status)
	}
}

func TestSendCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server watches the connection; otherwise it
		// never observes the client disconnect and r.Context() never fires.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	d := testDispatcher(t)
	_, err := d.Send(ctx, sampleNotification(), srv.URL)
	if !errors.Is(err, domain.ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
}

func TestSendConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	d := testDispatcher(t)
	_, err := d.Send(context.Background(), sampleNotification(), url)

	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Errorf("expected TransportError, got %v", err)
	}
}
