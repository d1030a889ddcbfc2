package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"relaybot/internal/ath"
	"relaybot/internal/bus"
	"relaybot/internal/channel"
	"relaybot/internal/config"
	"relaybot/internal/dispatch"
	"relaybot/internal/domain"
	"relaybot/internal/parser"
	"relaybot/internal/pricefeed"
	"relaybot/internal/transcript"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "relaybot",
		Short: "Relaybot: chat event relay and ATH monitor",
		Long:  "Relaybot relays chat messages from Discord, Telegram, and Slack to webhook endpoints, and monitors crypto assets for new all-time highs.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default: ~/.relaybot/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(relayCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(daemonCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize config directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists: %s", cfgPath)
			}
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

func relayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Connect gateways and relay events until interrupted",
		RunE:  runRelay,
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func loadConfig() (*config.Config, error) {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	return cfg, nil
}

func setLogLevel(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func runRelay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setLogLevel(cfg.General.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventBus := bus.New(cfg.General.BusBuffer, logger)
	defer eventBus.Close()

	dispatcher := dispatch.NewDispatcher(dispatch.DispatcherConfig{
		Format: dispatch.TimestampFormat{
			Locale:       cfg.Dispatch.Locale,
			Pattern:      cfg.Dispatch.DateFormat,
			UseLocalTime: cfg.Dispatch.UseLocalTime,
		},
		Timeout: time.Duration(cfg.Dispatch.TimeoutSeconds) * time.Second,
		Logger:  logger,
	})

	var pipelines []*parser.Pipeline
	for category, pc := range cfg.Parsers {
		pipelines = append(pipelines, parser.NewPipeline(parser.PipelineConfig{
			Rules:    parser.RulesFor(category),
			Policies: pc.Tenants,
			Resolver: dispatch.NewResolver(category, pc.Endpoint, pc.Tenants),
			Sender:   dispatcher,
			Logger:   logger,
		}))
		logger.Info("parser registered", "category", category, "tenants", len(pc.Tenants))
	}

	var recorder parser.Recorder
	if cfg.Transcript.Enabled {
		store, err := transcript.NewStore(config.ExpandPath(cfg.Transcript.DBPath), logger)
		if err != nil {
			return fmt.Errorf("open transcript store: %w", err)
		}
		defer store.Close()
		recorder = store
	}

	engine := parser.NewEngine(parser.EngineConfig{
		Pipelines: pipelines,
		Recorder:  recorder,
		Logger:    logger,
	})
	go engine.Run(ctx, eventBus)

	if cfg.Ath.Enabled {
		stopSched, err := startAthMonitor(ctx, cfg)
		if err != nil {
			return err
		}
		defer stopSched()
	}

	gateways := buildGateways(cfg)
	if len(gateways) == 0 {
		return fmt.Errorf("no gateways enabled")
	}
	for _, gw := range gateways {
		go func(gw domain.Gateway) {
			if err := gw.Start(ctx, eventBus); err != nil {
				logger.Error("gateway stopped", "gateway", gw.Name(), "error", err)
				stop()
			}
		}(gw)
		logger.Info("gateway starting", "gateway", gw.Name())
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

func buildGateways(cfg *config.Config) []domain.Gateway {
	var gateways []domain.Gateway
	if cfg.Gateways.Discord.Enabled && cfg.Gateways.Discord.Token != "" {
		gateways = append(gateways, channel.NewDiscord(channel.DiscordConfig{
			Token:            cfg.Gateways.Discord.Token,
			GuildID:          cfg.Gateways.Discord.GuildID,
			RegisterCommands: cfg.Gateways.Discord.RegisterCommands,
			Logger:           logger,
		}))
	}
	if cfg.Gateways.Telegram.Enabled && cfg.Gateways.Telegram.Token != "" {
		gateways = append(gateways, channel.NewTelegram(channel.TelegramConfig{
			Token:  cfg.Gateways.Telegram.Token,
			Logger: logger,
		}))
	}
	if cfg.Gateways.Slack.Enabled && cfg.Gateways.Slack.BotToken != "" {
		gateways = append(gateways, channel.NewSlack(channel.SlackConfig{
			BotToken: cfg.Gateways.Slack.BotToken,
			AppToken: cfg.Gateways.Slack.AppToken,
			Logger:   logger,
		}))
	}
	return gateways
}

func newMonitor(cfg *config.Config) (*ath.Monitor, error) {
	feed := pricefeed.NewCoinGecko(cfg.Ath.APIBase, 30*time.Second, logger)
	sender := dispatch.NewDispatcher(dispatch.DispatcherConfig{
		Format: dispatch.TimestampFormat{
			Locale:       cfg.Dispatch.Locale,
			Pattern:      cfg.Dispatch.DateFormat,
			UseLocalTime: cfg.Dispatch.UseLocalTime,
		},
		Timeout: time.Duration(cfg.Dispatch.TimeoutSeconds) * time.Second,
		Logger:  logger,
	})
	store := ath.NewStore(config.ExpandPath(cfg.Ath.DataFile), logger)

	return ath.NewMonitor(ath.MonitorConfig{
		Source:   feed,
		Sender:   sender,
		Endpoint: cfg.Ath.Endpoint,
		Store:    store,
		Assets:   cfg.Ath.TrackedAssets,
		Cooldown: time.Duration(cfg.Ath.CooldownMinutes) * time.Minute,
		Logger:   logger,
	})
}

// startAthMonitor schedules periodic ATH checks. Overlapping runs are
// skipped rather than queued. Returns a stop function.
func startAthMonitor(ctx context.Context, cfg *config.Config) (func(), error) {
	monitor, err := newMonitor(cfg)
	if err != nil {
		return nil, err
	}

	sched := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	_, err = sched.AddFunc(cfg.Ath.CheckSchedule, func() {
		if err := monitor.RunCycle(ctx); err != nil {
			logger.Error("ath cycle failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("bad check schedule %q: %w", cfg.Ath.CheckSchedule, err)
	}
	sched.Start()
	logger.Info("ath monitor scheduled",
		"schedule", cfg.Ath.CheckSchedule,
		"assets", cfg.Ath.TrackedAssets,
	)
	return func() { sched.Stop() }, nil
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run one ATH check cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			setLogLevel(cfg.General.LogLevel)
			if !cfg.Ath.Enabled {
				return fmt.Errorf("ath monitor is disabled in config")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			monitor, err := newMonitor(cfg)
			if err != nil {
				return err
			}
			return monitor.RunCycle(ctx)
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				logger.Info("config", "path", cfgPath, "loaded", false)
				return err
			}
			logger.Info("config", "path", cfgPath, "loaded", true, "version", version)

			summary := map[string]any{
				"gateways": map[string]bool{
					"discord":  cfg.Gateways.Discord.Enabled,
					"telegram": cfg.Gateways.Telegram.Enabled,
					"slack":    cfg.Gateways.Slack.Enabled,
				},
				"parsers":    len(cfg.Parsers),
				"ath":        cfg.Ath.Enabled,
				"transcript": cfg.Transcript.Enabled,
			}
			data, _ := json.MarshalIndent(summary, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	}
}
