package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"relaybot/internal/domain"
)

// Config is the root configuration for relaybot.
type Config struct {
	General    GeneralConfig           `json:"general" yaml:"general"`
	Gateways   GatewaysConfig          `json:"gateways" yaml:"gateways"`
	Parsers    map[string]ParserConfig `json:"parsers" yaml:"parsers"`
	Dispatch   DispatchConfig          `json:"dispatch" yaml:"dispatch"`
	Ath        AthConfig               `json:"ath" yaml:"ath"`
	Transcript TranscriptConfig        `json:"transcript" yaml:"transcript"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel" yaml:"logLevel"`
	// BusBuffer is the inbound event bus capacity.
	BusBuffer int `json:"busBuffer,omitempty" yaml:"busBuffer,omitempty"`
}

type GatewaysConfig struct {
	Discord  DiscordConfig  `json:"discord" yaml:"discord"`
	Telegram TelegramConfig `json:"telegram,omitempty" yaml:"telegram,omitempty"`
	Slack    SlackConfig    `json:"slack,omitempty" yaml:"slack,omitempty"`
}

type DiscordConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Token   string `json:"token" yaml:"token"`
	// GuildID optionally restricts the adapter to one guild.
	GuildID string `json:"guildId,omitempty" yaml:"guildId,omitempty"`
	// RegisterCommands controls slash-command registration at startup.
	RegisterCommands bool `json:"registerCommands,omitempty" yaml:"registerCommands,omitempty"`
}

type TelegramConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Token   string `json:"token" yaml:"token"`
}

type SlackConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	BotToken string `json:"botToken" yaml:"botToken"`
	AppToken string `json:"appToken" yaml:"appToken"` // required for Socket Mode
}

// ParserConfig is one category's section: its default webhook endpoint plus
// the tenant allow-list (tenant display name -> policy).
type ParserConfig struct {
	Endpoint string           `json:"endpoint" yaml:"endpoint"`
	Tenants  domain.PolicyMap `json:"tenants" yaml:"tenants"`
}

// DispatchConfig controls outbound webhook calls and the derived
// formattedTimestamp field.
type DispatchConfig struct {
	Locale         string `json:"locale" yaml:"locale"`
	DateFormat     string `json:"dateFormat" yaml:"dateFormat"` // .NET-style tokens, e.g. "dd.MM.yyyy HH:mm:ss"
	UseLocalTime   bool   `json:"useLocalTime" yaml:"useLocalTime"`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"`
}

// AthConfig controls the all-time-high monitor.
type AthConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Endpoint is the webhook URL for CoinAthUpdate notifications.
	// Required when the monitor is enabled.
	Endpoint        string   `json:"endpoint" yaml:"endpoint"`
	APIBase         string   `json:"apiBase,omitempty" yaml:"apiBase,omitempty"`
	CooldownMinutes int      `json:"cooldownMinutes" yaml:"cooldownMinutes"`
	TrackedAssets   []string `json:"trackedAssets" yaml:"trackedAssets"`
	DataFile        string   `json:"dataFile" yaml:"dataFile"`
	// CheckSchedule is a cron spec (e.g. "@every 5m").
	CheckSchedule string `json:"checkSchedule" yaml:"checkSchedule"`
}

type TranscriptConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	DBPath  string `json:"dbPath" yaml:"dbPath"`
}

// DefaultConfigDir returns the default config directory (~/.relaybot).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".relaybot"
	}
	return filepath.Join(home, ".relaybot")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// Load reads a config file. Files ending in .yaml/.yml are parsed as YAML,
// anything else as JSON. Environment variables in the form ${VAR} and
// ${VAR:-default} are expanded before parsing.
func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	}

	cfg.Ath.DataFile = ExpandPath(cfg.Ath.DataFile)
	cfg.Transcript.DBPath = ExpandPath(cfg.Transcript.DBPath)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values. A failure here is the
// only error class that halts startup.
func Validate(cfg *Config) error {
	if cfg.Ath.Enabled && strings.TrimSpace(cfg.Ath.Endpoint) == "" {
		return &domain.ConfigError{Key: "ath.endpoint", Reason: "required when ath monitor is enabled"}
	}
	if cfg.Ath.CooldownMinutes < 1 {
		return &domain.ConfigError{Key: "ath.cooldownMinutes", Reason: "must be >= 1"}
	}
	if cfg.Dispatch.DateFormat == "" {
		return &domain.ConfigError{Key: "dispatch.dateFormat", Reason: "must not be empty"}
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
