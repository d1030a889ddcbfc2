// Package channel holds the gateway adapters that turn platform
// messages into inbound events on the bus.
package channel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"relaybot/internal/domain"
)

// Discord implements domain.Gateway for Discord.
type Discord struct {
	token            string
	guildID          string
	registerCommands bool
	session          *discordgo.Session
	logger           *slog.Logger

	mu       sync.Mutex
	guilds   map[string]string // guild ID -> name
	channels map[string]string // channel ID -> name
}

// DiscordConfig configures the Discord gateway.
type DiscordConfig struct {
	Token            string
	GuildID          string
	RegisterCommands bool
	Logger           *slog.Logger
}

// NewDiscord creates a new Discord gateway.
func NewDiscord(cfg DiscordConfig) *Discord {
	return &Discord{
		token:            cfg.Token,
		guildID:          cfg.GuildID,
		registerCommands: cfg.RegisterCommands,
		logger:           cfg.Logger,
		guilds:           make(map[string]string),
		channels:         make(map[string]string),
	}
}

func (d *Discord) Name() string { return "discord" }

// Start connects to Discord using a bot token and begins listening.
func (d *Discord) Start(ctx context.Context, bus domain.EventBus) error {
	session, err := discordgo.New("Bot " + d.token)
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	d.session = session

	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		// Ignore the bot's own messages.
		if m.Author.ID == s.State.User.ID {
			return
		}
		if d.guildID != "" && m.GuildID != "" && m.GuildID != d.guildID {
			return
		}

		ev := d.toEvent(s, m)
		d.logger.Info("discord message received",
			"tenant", ev.Tenant,
			"channel", ev.ChannelName,
			"author", ev.Author,
			"content_len", len(ev.Content),
		)
		bus.Publish(ev)
	})

	session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}
		d.handleCommand(s, i, bus)
	})

	if err := session.Open(); err != nil {
		return fmt.Errorf("discord connect: %w", err)
	}

	d.logger.Info("discord gateway connected", "user", session.State.User.Username)

	if d.registerCommands {
		d.registerSlashCommands()
	}

	// Wait for context cancellation.
	<-ctx.Done()
	d.logger.Info("discord gateway disconnecting")
	return session.Close()
}

// toEvent converts a Discord message into an inbound event. Direct
// messages carry no guild, so they land in the synthetic tenant that no
// routing table matches unless explicitly configured.
func (d *Discord) toEvent(s *discordgo.Session, m *discordgo.MessageCreate) domain.InboundEvent {
	tenant := domain.DirectMessageTenant
	if m.GuildID != "" {
		tenant = d.guildName(s, m.GuildID)
	}

	ev := domain.InboundEvent{
		ID:          m.ID,
		Gateway:     "discord",
		Tenant:      tenant,
		ChannelID:   m.ChannelID,
		ChannelName: d.channelName(s, m.ChannelID),
		AuthorID:    m.Author.ID,
		Author:      m.Author.Username,
		GlobalName:  m.Author.GlobalName,
		Bot:         m.Author.Bot,
		Content:     m.Content,
		Kind:        "Default",
		Timestamp:   m.Timestamp,
	}
	for _, a := range m.Attachments {
		ev.Attachments = append(ev.Attachments, a.URL)
	}
	for _, e := range m.Embeds {
		if e.Title != "" {
			ev.Embeds = append(ev.Embeds, e.Title)
		} else if e.URL != "" {
			ev.Embeds = append(ev.Embeds, e.URL)
		}
	}
	for _, u := range m.Mentions {
		ev.Mentions = append(ev.Mentions, u.Username)
	}
	return ev
}

func (d *Discord) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate, bus domain.EventBus) {
	data := i.ApplicationCommandData()
	if data.Name != "verbose" {
		return
	}

	enabled := false
	for _, opt := range data.Options {
		if opt.Name == "enabled" && opt.Type == discordgo.ApplicationCommandOptionBoolean {
			enabled = opt.BoolValue()
		}
	}

	reply := "Verbose mode disabled."
	if enabled {
		reply = "Verbose mode enabled."
	}
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: reply,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}); err != nil {
		d.logger.Error("interaction respond failed", "err", err)
	}

	author := ""
	authorID := ""
	if i.Member != nil && i.Member.User != nil {
		author = i.Member.User.Username
		authorID = i.Member.User.ID
	} else if i.User != nil {
		author = i.User.Username
		authorID = i.User.ID
	}

	tenant := domain.DirectMessageTenant
	if i.GuildID != "" {
		tenant = d.guildName(s, i.GuildID)
	}

	bus.Publish(domain.InboundEvent{
		ID:          i.ID,
		Gateway:     "discord",
		Tenant:      tenant,
		ChannelID:   i.ChannelID,
		ChannelName: d.channelName(s, i.ChannelID),
		AuthorID:    authorID,
		Author:      author,
		Content:     fmt.Sprintf(`{"verbose":%t}`, enabled),
		Kind:        "VerboseCommand",
		Timestamp:   time.Now(),
	})
}

func (d *Discord) registerSlashCommands() {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "verbose",
			Description: "Toggle verbose relay logging",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "enabled",
					Description: "Enable or disable verbose logging",
					Required:    true,
				},
			},
		},
	}

	guildID := d.guildID // empty = global commands
	for _, cmd := range commands {
		_, err := d.session.ApplicationCommandCreate(d.session.State.User.ID, guildID, cmd)
		if err != nil {
			d.logger.Warn("failed to register slash command", "command", cmd.Name, "err", err)
		}
	}
}

// guildName resolves a guild ID to its name, preferring session state and
// falling back to the REST API. Results are cached for the session.
func (d *Discord) guildName(s *discordgo.Session, guildID string) string {
	d.mu.Lock()
	if name, ok := d.guilds[guildID]; ok {
		d.mu.Unlock()
		return name
	}
	d.mu.Unlock()

	name := guildID
	if g, err := s.State.Guild(guildID); err == nil && g.Name != "" {
		name = g.Name
	} else if g, err := s.Guild(guildID); err == nil && g.Name != "" {
		name = g.Name
	}

	d.mu.Lock()
	d.guilds[guildID] = name
	d.mu.Unlock()
	return name
}

func (d *Discord) channelName(s *discordgo.Session, channelID string) string {
	d.mu.Lock()
	if name, ok := d.channels[channelID]; ok {
		d.mu.Unlock()
		return name
	}
	d.mu.Unlock()

	name := ""
	if ch, err := s.State.Channel(channelID); err == nil {
		name = ch.Name
	} else if ch, err := s.Channel(channelID); err == nil {
		name = ch.Name
	}

	d.mu.Lock()
	d.channels[channelID] = name
	d.mu.Unlock()
	return name
}
