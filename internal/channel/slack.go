package channel

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"relaybot/internal/domain"
)

// Slack implements domain.Gateway using Socket Mode.
type Slack struct {
	botToken string
	appToken string
	client   *slack.Client
	socket   *socketmode.Client
	logger   *slog.Logger

	botUID   string // the bot's own user ID, to avoid relaying itself
	teamName string

	mu       sync.Mutex
	channels map[string]string // channel ID -> name
	users    map[string]string // user ID -> name
}

// SlackConfig configures the Slack gateway.
type SlackConfig struct {
	BotToken string
	AppToken string
	Logger   *slog.Logger
}

// NewSlack creates a new Slack gateway.
func NewSlack(cfg SlackConfig) *Slack {
	return &Slack{
		botToken: cfg.BotToken,
		appToken: cfg.AppToken,
		logger:   cfg.Logger,
		channels: make(map[string]string),
		users:    make(map[string]string),
	}
}

func (s *Slack) Name() string { return "slack" }

// Start connects to Slack via Socket Mode and begins listening for events.
func (s *Slack) Start(ctx context.Context, bus domain.EventBus) error {
	api := slack.New(
		s.botToken,
		slack.OptionAppLevelToken(s.appToken),
	)
	s.client = api

	authResp, err := api.AuthTest()
	if err != nil {
		return fmt.Errorf("slack auth: %w", err)
	}
	s.botUID = authResp.UserID
	s.teamName = authResp.Team
	s.logger.Info("slack gateway connected",
		"user", authResp.User,
		"team", authResp.Team,
	)

	socketClient := socketmode.New(api)
	s.socket = socketClient

	go func() {
		for evt := range socketClient.Events {
			switch evt.Type {
			case socketmode.EventTypeEventsAPI:
				eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok {
					continue
				}
				socketClient.Ack(*evt.Request)
				s.handleEventsAPI(eventsAPIEvent, bus)

			default:
				// Acknowledge unknown events to prevent Socket Mode disconnection.
				if evt.Request != nil {
					socketClient.Ack(*evt.Request)
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- socketClient.RunContext(ctx)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("slack gateway disconnecting")
		return nil
	case err := <-errCh:
		return fmt.Errorf("slack socket mode: %w", err)
	}
}

func (s *Slack) handleEventsAPI(event slackevents.EventsAPIEvent, bus domain.EventBus) {
	if event.Type != slackevents.CallbackEvent {
		return
	}
	ev, ok := event.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		return
	}
	// Ignore the bot's own messages and message_changed subtypes.
	if ev.User == s.botUID || ev.User == "" {
		return
	}
	if ev.SubType != "" {
		return
	}

	tenant := s.teamName
	channelName := s.channelName(ev.Channel)
	if ev.ChannelType == "im" {
		tenant = domain.DirectMessageTenant
		channelName = ""
	}

	inbound := domain.InboundEvent{
		ID:          ev.TimeStamp,
		Gateway:     "slack",
		Tenant:      tenant,
		ChannelID:   ev.Channel,
		ChannelName: channelName,
		AuthorID:    ev.User,
		Author:      s.userName(ev.User),
		Bot:         ev.BotID != "",
		Content:     ev.Text,
		Kind:        "Default",
		Timestamp:   slackTimestamp(ev.TimeStamp),
	}
	s.logger.Info("slack message received",
		"tenant", inbound.Tenant,
		"channel", inbound.ChannelName,
		"author", inbound.Author,
	)
	bus.Publish(inbound)
}

func (s *Slack) channelName(channelID string) string {
	s.mu.Lock()
	if name, ok := s.channels[channelID]; ok {
		s.mu.Unlock()
		return name
	}
	s.mu.Unlock()

	name := ""
	info, err := s.client.GetConversationInfo(&slack.GetConversationInfoInput{ChannelID: channelID})
	if err != nil {
		s.logger.Warn("channel lookup failed", "channel_id", channelID, "err", err)
	} else {
		name = info.Name
	}

	s.mu.Lock()
	s.channels[channelID] = name
	s.mu.Unlock()
	return name
}

func (s *Slack) userName(userID string) string {
	s.mu.Lock()
	if name, ok := s.users[userID]; ok {
		s.mu.Unlock()
		return name
	}
	s.mu.Unlock()

	name := userID
	if u, err := s.client.GetUserInfo(userID); err == nil && u.Name != "" {
		name = u.Name
	}

	s.mu.Lock()
	s.users[userID] = name
	s.mu.Unlock()
	return name
}

// slackTimestamp parses Slack's "seconds.fraction" event timestamps.
func slackTimestamp(ts string) time.Time {
	secs, _, _ := strings.Cut(ts, ".")
	n, err := strconv.ParseInt(secs, 10, 64)
	if err != nil {
		return time.Now().UTC()
	}
	return time.Unix(n, 0).UTC()
}
