package moderation

import (
	"fmt"
	"regexp"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/sweeper/internal/setup/config"
)

// Settings is the compiled, immutable antispam configuration.
type Settings struct {
	BypassRoleID snowflake.ID
	ModChannelID snowflake.ID
	LogChannelID snowflake.ID
	MuteRoleID   snowflake.ID

	MuteEmbedColor int
	WarnEmbedColor int

	InvitePattern     *regexp.Regexp
	InviteCodePattern *regexp.Regexp
	TwitchPattern     *regexp.Regexp
	TwitchWhitelist   []string

	MassMentionThreshold    int
	RepetitionWarnThreshold int
	BurstWindow             time.Duration
	MuteDuration            time.Duration
	NoticeLifetime          time.Duration
	TrackerIdleTTL          time.Duration // Zero disables eviction
	MuteSweepInterval       time.Duration
}

// NewSettings compiles the moderation config.
func NewSettings(cfg *config.Moderation) (*Settings, error) {
	invite, err := compile("invite", cfg.InvitePattern)
	if err != nil {
		return nil, err
	}

	inviteCode, err := compile("invite code", cfg.InviteCodePattern)
	if err != nil {
		return nil, err
	}

	if inviteCode.NumSubexp() < 1 {
		return nil, fmt.Errorf("%w: invite code pattern needs a capture group", ErrInvalidPattern)
	}

	twitch, err := compile("twitch", cfg.TwitchPattern)
	if err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	var idleTTL time.Duration
	if cfg.TrackerIdleTTL > 0 {
		idleTTL = time.Duration(cfg.TrackerIdleTTL) * time.Minute
	}

	return &Settings{
		BypassRoleID:            snowflake.ID(cfg.BypassRoleID),
		ModChannelID:            snowflake.ID(cfg.ModChannelID),
		LogChannelID:            snowflake.ID(cfg.LogChannelID),
		MuteRoleID:              snowflake.ID(cfg.MuteRoleID),
		MuteEmbedColor:          cfg.MuteEmbedColor,
		WarnEmbedColor:          cfg.WarnEmbedColor,
		InvitePattern:           invite,
		InviteCodePattern:       inviteCode,
		TwitchPattern:           twitch,
		TwitchWhitelist:         append([]string(nil), cfg.TwitchWhitelist...),
		MassMentionThreshold:    cfg.MassMentionThreshold,
		RepetitionWarnThreshold: cfg.RepetitionWarnThreshold,
		BurstWindow:             time.Duration(cfg.BurstWindow) * time.Millisecond,
		MuteDuration:            time.Duration(cfg.MuteDuration) * time.Minute,
		NoticeLifetime:          time.Duration(cfg.NoticeLifetime) * time.Millisecond,
		TrackerIdleTTL:          idleTTL,
		MuteSweepInterval:       time.Duration(cfg.MuteSweepInterval) * time.Second,
	}, nil
}

// validate rejects values that would make every mute fail or stop the mute sweeper.
func validate(cfg *config.Moderation) error {
	switch {
	case cfg.MuteRoleID == 0:
		return fmt.Errorf("%w: mute_role_id must be set", ErrInvalidSettings)
	case cfg.MuteDuration <= 0:
		return fmt.Errorf("%w: mute_duration must be positive, got %d", ErrInvalidSettings, cfg.MuteDuration)
	case cfg.MuteSweepInterval <= 0:
		return fmt.Errorf("%w: mute_sweep_interval must be positive, got %d", ErrInvalidSettings, cfg.MuteSweepInterval)
	}

	return nil
}

func compile(name, pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %s pattern: %w", ErrInvalidPattern, name, err)
	}

	return re, nil
}
