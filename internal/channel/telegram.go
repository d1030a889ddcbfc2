package channel

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"relaybot/internal/domain"
)

// Telegram implements domain.Gateway for Telegram Bot.
type Telegram struct {
	token  string
	bot    *tgbotapi.BotAPI
	logger *slog.Logger
}

type TelegramConfig struct {
	Token  string
	Logger *slog.Logger
}

func NewTelegram(cfg TelegramConfig) *Telegram {
	return &Telegram{
		token:  cfg.Token,
		logger: cfg.Logger,
	}
}

func (t *Telegram) Name() string { return "telegram" }

// Start connects to Telegram and begins polling for updates.
func (t *Telegram) Start(ctx context.Context, bus domain.EventBus) error {
	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return fmt.Errorf("telegram bot init: %w", err)
	}
	t.bot = bot
	t.logger.Info("telegram gateway connected",
		"username", bot.Self.UserName,
		"id", bot.Self.ID,
	)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	t.logger.Info("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telegram gateway stopping")
			bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			bus.Publish(t.toEvent(update.Message))
		}
	}
}

// toEvent converts a Telegram message into an inbound event. Group and
// channel chats use the chat title as the tenant; private chats land in
// the synthetic direct message tenant.
func (t *Telegram) toEvent(m *tgbotapi.Message) domain.InboundEvent {
	tenant := domain.DirectMessageTenant
	if !m.Chat.IsPrivate() && m.Chat.Title != "" {
		tenant = m.Chat.Title
	}

	ev := domain.InboundEvent{
		ID:          strconv.Itoa(m.MessageID),
		Gateway:     "telegram",
		Tenant:      tenant,
		ChannelID:   strconv.FormatInt(m.Chat.ID, 10),
		ChannelName: m.Chat.Title,
		Kind:        "Default",
		Content:     m.Text,
		Timestamp:   time.Unix(int64(m.Date), 0).UTC(),
	}
	if m.From != nil {
		ev.AuthorID = strconv.FormatInt(m.From.ID, 10)
		ev.Author = m.From.UserName
		ev.GlobalName = m.From.FirstName
		ev.Bot = m.From.IsBot
	}
	if m.Caption != "" && ev.Content == "" {
		ev.Content = m.Caption
	}
	for _, e := range m.Entities {
		if e.Type == "mention" {
			if mention := entityText(m.Text, e.Offset, e.Length); mention != "" {
				ev.Mentions = append(ev.Mentions, mention)
			}
		}
	}
	if m.Document != nil {
		ev.Attachments = append(ev.Attachments, m.Document.FileName)
	}
	if len(m.Photo) > 0 {
		ev.Attachments = append(ev.Attachments, "photo:"+m.Photo[len(m.Photo)-1].FileID)
	}
	return ev
}

// entityText extracts an entity's text. Telegram entity offsets and
// lengths count UTF-16 code units, not bytes.
func entityText(text string, offset, length int) string {
	units := utf16.Encode([]rune(text))
	if offset < 0 || length < 0 || offset+length > len(units) {
		return ""
	}
	return string(utf16.Decode(units[offset : offset+length]))
}
