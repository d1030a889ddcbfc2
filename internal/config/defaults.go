package config

import (
	"path/filepath"

	"relaybot/internal/domain"
)

// CategoryDefault and CategorySpotify are the two parser categories that
// exist out of the box. Any additional key under "parsers" becomes a
// category with default-rule behavior.
const (
	CategoryDefault = "Default"
	CategorySpotify = "Spotify"
)

// Defaults returns a config with sensible defaults. The parser sections are
// present but empty: until tenants are configured, every event is filtered
// out (fail closed).
func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:  "info",
			BusBuffer: 100,
		},
		Gateways: GatewaysConfig{
			Discord: DiscordConfig{
				Enabled:          true,
				RegisterCommands: true,
			},
		},
		Parsers: map[string]ParserConfig{
			CategoryDefault: {Tenants: domain.PolicyMap{}},
			CategorySpotify: {Tenants: domain.PolicyMap{}},
		},
		Dispatch: DispatchConfig{
			Locale:         "nb-NO",
			DateFormat:     "dd.MM.yyyy HH:mm:ss",
			UseLocalTime:   true,
			TimeoutSeconds: 30,
		},
		Ath: AthConfig{
			Enabled:         false,
			APIBase:         "https://api.coingecko.com/api/v3",
			CooldownMinutes: 60,
			TrackedAssets:   []string{"bitcoin", "ethereum", "solana"},
			DataFile:        filepath.Join(DefaultConfigDir(), "coin_ath_data.json"),
			CheckSchedule:   "@every 5m",
		},
		Transcript: TranscriptConfig{
			Enabled: false,
			DBPath:  filepath.Join(DefaultConfigDir(), "transcript.db"),
		},
	}
}
