package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v0.3.0"

// Current version of the config files.
const (
	CurrentCommonVersion = 1
	CurrentBotVersion    = 1
)

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig
	Bot    BotConfig
}

// CommonConfig contains configuration shared by every binary.
type CommonConfig struct {
	// Version of the common config.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Redis      Redis      `koanf:"redis"`
}

// BotConfig contains Discord bot specific configuration.
type BotConfig struct {
	// Version of the bot config.
	Version int `koanf:"version"`
	// Discord configuration.
	Discord Discord `koanf:"discord"`
	// Antispam and enforcement configuration.
	Moderation Moderation `koanf:"moderation"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
	// Enable the Prometheus metrics endpoint.
	EnableMetrics bool `koanf:"enable_metrics"`
	// Metrics server port.
	MetricsPort int `koanf:"metrics_port"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
}

// Discord contains Discord bot configuration.
type Discord struct {
	// Discord bot token for authentication.
	Token string `koanf:"token"`
	// Maximum number of messages handled concurrently.
	WorkerCount int `koanf:"worker_count"`
}

// Moderation contains the fixed antispam configuration surface.
type Moderation struct {
	// Role that exempts members from every antispam rule.
	BypassRoleID uint64 `koanf:"bypass_role_id"`
	// Channel receiving fallback notices and mute summaries.
	ModChannelID uint64 `koanf:"mod_channel_id"`
	// Channel receiving deleted-message audit entries.
	LogChannelID uint64 `koanf:"log_channel_id"`
	// Role applied to muted members.
	MuteRoleID uint64 `koanf:"mute_role_id"`
	// Embed color for mute summaries.
	MuteEmbedColor int `koanf:"mute_embed_color"`
	// Embed color for audit entries.
	WarnEmbedColor int `koanf:"warn_embed_color"`
	// Pattern detecting invite links.
	InvitePattern string `koanf:"invite_pattern"`
	// Pattern extracting the invite code from an invite match (first capture group).
	InviteCodePattern string `koanf:"invite_code_pattern"`
	// Pattern detecting Twitch links.
	TwitchPattern string `koanf:"twitch_pattern"`
	// Substrings that exempt a Twitch link.
	TwitchWhitelist []string `koanf:"twitch_whitelist"`
	// Number of mentions that counts as mass mention spam.
	MassMentionThreshold int `koanf:"mass_mention_threshold"`
	// Occurrence count that triggers the slow-down notice.
	RepetitionWarnThreshold int `koanf:"repetition_warn_threshold"`
	// Messages closer together than this (in milliseconds) belong to the same burst.
	BurstWindow int `koanf:"burst_window"`
	// Mute duration in minutes.
	MuteDuration int `koanf:"mute_duration"`
	// Lifetime of the public slow-down notice in milliseconds.
	NoticeLifetime int `koanf:"notice_lifetime"`
	// Idle time in minutes after which repetition state is dropped (negative keeps it forever).
	TrackerIdleTTL int `koanf:"tracker_idle_ttl"`
	// Interval in seconds between expired mute sweeps.
	MuteSweepInterval int `koanf:"mute_sweep_interval"`
}

// LoadConfig loads the configuration files from the first matching search path.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	k := koanf.New(".")

	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	// List search paths
	configPaths := []string{
		".sweeper",
		homeDir + "/.sweeper/config",
		"/etc/sweeper/config",
		"/app/config",
		"config",
		".",
	}

	// Load all config files
	var usedConfigPath string

	configFiles := []string{"common", "bot"}
	for _, configName := range configFiles {
		configLoaded := false

		for _, path := range configPaths {
			configPath := fmt.Sprintf("%s/%s.toml", path, configName)
			if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
				configLoaded = true

				if usedConfigPath == "" {
					usedConfigPath = path
				}

				break
			}
		}

		if !configLoaded {
			return nil, "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, configName)
		}
	}

	config, err := unmarshal(k)
	if err != nil {
		return nil, "", err
	}

	return config, usedConfigPath, nil
}

// LoadFiles loads the common and bot config from explicit paths.
func LoadFiles(commonPath, botPath string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range []string{commonPath, botPath} {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	return unmarshal(k)
}

// unmarshal decodes the loaded files, applies defaults and checks versions.
func unmarshal(k *koanf.Koanf) (*Config, error) {
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	config.Bot.Moderation.applyDefaults()

	// Check versions for each config file
	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, err
	}

	if err := checkConfigVersion("bot", config.Bot.Version, CurrentBotVersion); err != nil {
		return nil, err
	}

	return &config, nil
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s.toml (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/robalyx/sweeper/tree/%s/config/%s.toml",
			ErrConfigVersionMismatch,
			name,
			current,
			expected,
			RepositoryVersion,
			name,
		)
	}

	return nil
}
