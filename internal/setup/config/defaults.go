package config

// Default antispam values used when bot.toml leaves a field unset.
const (
	DefaultInvitePattern     = `(?i)(?:https?://)?(?:www\.)?(?:discord(?:app)?\.com[/\\]+invite|discord\.(?:gg|io|me|li))[/\\]+[a-z0-9-]+`
	DefaultInviteCodePattern = `(?i)(?:invite|discord\.(?:gg|io|me|li))[/\\]+([a-z0-9-]+)`
	DefaultTwitchPattern     = `(?i)(?:https?://)?(?:[a-z0-9-]+\.)?twitch\.tv[/\\]+\S*`

	DefaultMassMentionThreshold    = 6
	DefaultRepetitionWarnThreshold = 3
	DefaultBurstWindow             = 1000 // milliseconds
	DefaultMuteDuration            = 20   // minutes
	DefaultNoticeLifetime          = 2000 // milliseconds
	DefaultTrackerIdleTTL          = 60   // minutes
	DefaultMuteSweepInterval       = 30   // seconds

	DefaultMuteEmbedColor = 0xE74C3C
	DefaultWarnEmbedColor = 0xF1C40F
)

// DefaultTwitchWhitelist lists the approved Twitch substrings, including the escaped slash variant.
func DefaultTwitchWhitelist() []string {
	return []string{"twitch.tv/bungie", `twitch.tv\bungie`, "clips.twitch.tv"}
}

// applyDefaults fills unset moderation fields.
func (m *Moderation) applyDefaults() {
	if m.InvitePattern == "" {
		m.InvitePattern = DefaultInvitePattern
	}

	if m.InviteCodePattern == "" {
		m.InviteCodePattern = DefaultInviteCodePattern
	}

	if m.TwitchPattern == "" {
		m.TwitchPattern = DefaultTwitchPattern
	}

	if m.TwitchWhitelist == nil {
		m.TwitchWhitelist = DefaultTwitchWhitelist()
	}

	if m.MassMentionThreshold == 0 {
		m.MassMentionThreshold = DefaultMassMentionThreshold
	}

	if m.RepetitionWarnThreshold == 0 {
		m.RepetitionWarnThreshold = DefaultRepetitionWarnThreshold
	}

	if m.BurstWindow == 0 {
		m.BurstWindow = DefaultBurstWindow
	}

	if m.MuteDuration == 0 {
		m.MuteDuration = DefaultMuteDuration
	}

	if m.NoticeLifetime == 0 {
		m.NoticeLifetime = DefaultNoticeLifetime
	}

	if m.TrackerIdleTTL == 0 {
		m.TrackerIdleTTL = DefaultTrackerIdleTTL
	}

	if m.MuteSweepInterval == 0 {
		m.MuteSweepInterval = DefaultMuteSweepInterval
	}

	if m.MuteEmbedColor == 0 {
		m.MuteEmbedColor = DefaultMuteEmbedColor
	}

	if m.WarnEmbedColor == 0 {
		m.WarnEmbedColor = DefaultWarnEmbedColor
	}
}
