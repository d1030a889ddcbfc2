package channel

import (
	"log/slog"
	"os"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"relaybot/internal/domain"
)

func newTestTelegram() *Telegram {
	return NewTelegram(TelegramConfig{
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	})
}

func TestTelegramGroupMessage(t *testing.T) {
	tg := newTestTelegram()
	ev := tg.toEvent(&tgbotapi.Message{
		MessageID: 101,
		Date:      1709834700,
		Text:      "hello @alice",
		Chat:      &tgbotapi.Chat{ID: -100500, Type: "supergroup", Title: "Acme Chat"},
		From:      &tgbotapi.User{ID: 42, UserName: "jdoe", FirstName: "John"},
		Entities:  []tgbotapi.MessageEntity{{Type: "mention", Offset: 6, Length: 6}},
	})

	if ev.Tenant != "Acme Chat" {
		t.Errorf("tenant = %q", ev.Tenant)
	}
	if ev.ChannelID != "-100500" {
		t.Errorf("channel id = %q", ev.ChannelID)
	}
	if ev.Author != "jdoe" || ev.GlobalName != "John" {
		t.Errorf("author = %q/%q", ev.Author, ev.GlobalName)
	}
	if len(ev.Mentions) != 1 || ev.Mentions[0] != "@alice" {
		t.Errorf("mentions = %v", ev.Mentions)
	}
	if ev.Kind != "Default" {
		t.Errorf("kind = %q", ev.Kind)
	}
}

func TestTelegramMentionOffsetsAreUTF16(t *testing.T) {
	tg := newTestTelegram()
	// "🚀" is one rune but two UTF-16 units and four bytes.
	ev := tg.toEvent(&tgbotapi.Message{
		MessageID: 103,
		Date:      1709834700,
		Text:      "🚀 hi @alice",
		Chat:      &tgbotapi.Chat{ID: -100500, Type: "supergroup", Title: "Acme Chat"},
		From:      &tgbotapi.User{ID: 42, UserName: "jdoe"},
		Entities:  []tgbotapi.MessageEntity{{Type: "mention", Offset: 6, Length: 6}},
	})

	if len(ev.Mentions) != 1 || ev.Mentions[0] != "@alice" {
		t.Errorf("mentions = %v", ev.Mentions)
	}
}

func TestTelegramPrivateChatIsDirectMessage(t *testing.T) {
	tg := newTestTelegram()
	ev := tg.toEvent(&tgbotapi.Message{
		MessageID: 102,
		Date:      1709834700,
		Text:      "psst",
		Chat:      &tgbotapi.Chat{ID: 42, Type: "private"},
		From:      &tgbotapi.User{ID: 42, UserName: "jdoe"},
	})

	if ev.Tenant != domain.DirectMessageTenant {
		t.Errorf("tenant = %q", ev.Tenant)
	}
}
