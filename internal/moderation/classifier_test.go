package moderation

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/sweeper/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClassifyInviteLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		active  []string
		want    []Verdict
	}{
		{
			name:    "foreign invite",
			content: "join us https://discord.gg/abc123 now",
			active:  []string{"other"},
			want:    []Verdict{DiscordInviteVerdict("https://discord.gg/abc123", "abc123")},
		},
		{
			name:    "own invite",
			content: "join us https://discord.gg/abc123 now",
			active:  []string{"abc123"},
			want:    nil,
		},
		{
			name:    "long form invite",
			content: "discord.com/invite/Xyz-9",
			want:    []Verdict{DiscordInviteVerdict("discord.com/invite/Xyz-9", "Xyz-9")},
		},
		{
			name:    "escaped slash",
			content: `discord.gg\abc`,
			want:    []Verdict{DiscordInviteVerdict(`discord.gg\abc`, "abc")},
		},
		{
			name:    "no invite",
			content: "hello discord fans",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			codes := make(map[string]struct{})
			for _, code := range tt.active {
				codes[code] = struct{}{}
			}

			classifier := NewClassifier(newTestSettings(t), &fakeInvites{codes: codes}, zap.NewNop())

			verdicts, err := classifier.Classify(t.Context(), newTestMessage(1, tt.content, time.Now()))
			require.NoError(t, err)
			assert.Equal(t, tt.want, verdicts)
		})
	}
}

func TestClassifyTwitchLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    []Verdict
	}{
		{
			name:    "approved channel",
			content: "watch https://twitch.tv/bungie live",
			want:    nil,
		},
		{
			name:    "approved channel escaped slash",
			content: `watch twitch.tv\bungie live`,
			want:    nil,
		},
		{
			name:    "approved clip subdomain",
			content: "https://clips.twitch.tv/FunnyClip",
			want:    nil,
		},
		{
			name:    "other channel",
			content: "watch https://www.twitch.tv/someone",
			want:    []Verdict{TwitchLinkVerdict("https://www.twitch.tv/someone")},
		},
		{
			name:    "whitelist is substring containment",
			content: "twitch.tv/someone and twitch.tv/bungie",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			classifier := NewClassifier(newTestSettings(t), &fakeInvites{}, zap.NewNop())

			verdicts, err := classifier.Classify(t.Context(), newTestMessage(1, tt.content, time.Now()))
			require.NoError(t, err)
			assert.Equal(t, tt.want, verdicts)
		})
	}
}

func TestClassifyMassMention(t *testing.T) {
	t.Parallel()

	classifier := NewClassifier(newTestSettings(t), &fakeInvites{}, zap.NewNop())

	msg := newTestMessage(1, "hey all", time.Now())
	msg.MentionCount = 5

	verdicts, err := classifier.Classify(t.Context(), msg)
	require.NoError(t, err)
	assert.Empty(t, verdicts)

	msg.MentionCount = 6

	verdicts, err = classifier.Classify(t.Context(), msg)
	require.NoError(t, err)
	assert.Equal(t, []Verdict{MassMentionVerdict(6)}, verdicts)
	assert.Equal(t, "6 mentions", verdicts[0].Evidence())
}

func TestClassifyBypassSkipsEveryRule(t *testing.T) {
	t.Parallel()

	invites := &fakeInvites{}
	classifier := NewClassifier(newTestSettings(t), invites, zap.NewNop())

	msg := newTestMessage(1, "discord.gg/abc twitch.tv/someone", time.Now())
	msg.MentionCount = 20
	msg.AuthorHasBypass = true

	verdicts, err := classifier.Classify(t.Context(), msg)
	require.NoError(t, err)
	assert.Empty(t, verdicts)
	assert.Zero(t, invites.calls)
}

func TestClassifyIgnoresBotAuthors(t *testing.T) {
	t.Parallel()

	invites := &fakeInvites{}
	classifier := NewClassifier(newTestSettings(t), invites, zap.NewNop())

	msg := newTestMessage(1, "discord.gg/abc twitch.tv/someone", time.Now())
	msg.MentionCount = 20
	msg.AuthorIsBot = true

	verdicts, err := classifier.Classify(t.Context(), msg)
	require.NoError(t, err)
	assert.Empty(t, verdicts)
	assert.Zero(t, invites.calls)
}

func TestClassifyPriorityOrder(t *testing.T) {
	t.Parallel()

	classifier := NewClassifier(newTestSettings(t), &fakeInvites{}, zap.NewNop())

	msg := newTestMessage(1, "twitch.tv/someone discord.gg/abc", time.Now())
	msg.MentionCount = 7

	verdicts, err := classifier.Classify(t.Context(), msg)
	require.NoError(t, err)
	require.Len(t, verdicts, 3)
	assert.Equal(t, VerdictDiscordInvite, verdicts[0].Kind)
	assert.Equal(t, VerdictMassMention, verdicts[1].Kind)
	assert.Equal(t, VerdictTwitchLink, verdicts[2].Kind)
}

func TestClassifyRuleErrorsAreIsolated(t *testing.T) {
	t.Parallel()

	t.Run("malformed match", func(t *testing.T) {
		t.Parallel()

		settings := newTestSettings(t)
		settings.InviteCodePattern = regexp.MustCompile(`never-(\d+)`)
		classifier := NewClassifier(settings, &fakeInvites{}, zap.NewNop())

		verdicts, err := classifier.Classify(t.Context(), newTestMessage(1, "discord.gg/abc twitch.tv/x", time.Now()))
		require.ErrorIs(t, err, ErrMalformedMatch)

		var ruleErr *RuleError
		require.ErrorAs(t, err, &ruleErr)
		assert.Equal(t, VerdictDiscordInvite, ruleErr.Kind)
		assert.Equal(t, []Verdict{TwitchLinkVerdict("twitch.tv/x")}, verdicts)
	})

	t.Run("invite fetch failure", func(t *testing.T) {
		t.Parallel()

		fetchErr := errors.New("missing access")
		classifier := NewClassifier(newTestSettings(t), &fakeInvites{err: fetchErr}, zap.NewNop())

		msg := newTestMessage(1, "discord.gg/abc", time.Now())
		msg.MentionCount = 8

		verdicts, err := classifier.Classify(t.Context(), msg)
		require.ErrorIs(t, err, fetchErr)
		assert.Equal(t, []Verdict{MassMentionVerdict(8)}, verdicts)
	})
}

func TestNewSettingsRejectsUnusableMuteSettings(t *testing.T) {
	t.Parallel()

	valid := func() config.Moderation {
		return config.Moderation{
			InvitePattern:     config.DefaultInvitePattern,
			InviteCodePattern: config.DefaultInviteCodePattern,
			TwitchPattern:     config.DefaultTwitchPattern,
			MuteRoleID:        800,
			MuteDuration:      config.DefaultMuteDuration,
			MuteSweepInterval: config.DefaultMuteSweepInterval,
		}
	}

	tests := []struct {
		name   string
		modify func(*config.Moderation)
	}{
		{name: "missing mute role", modify: func(c *config.Moderation) { c.MuteRoleID = 0 }},
		{name: "negative sweep interval", modify: func(c *config.Moderation) { c.MuteSweepInterval = -5 }},
		{name: "zero sweep interval", modify: func(c *config.Moderation) { c.MuteSweepInterval = 0 }},
		{name: "negative mute duration", modify: func(c *config.Moderation) { c.MuteDuration = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.modify(&cfg)

			_, err := NewSettings(&cfg)
			require.ErrorIs(t, err, ErrInvalidSettings)
		})
	}

	cfg := valid()
	settings, err := NewSettings(&cfg)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(800), settings.MuteRoleID)
	assert.Equal(t, 30*time.Second, settings.MuteSweepInterval)
}

func TestNewSettingsRejectsInvalidPatterns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.Moderation
	}{
		{
			name: "invite pattern does not compile",
			cfg:  config.Moderation{InvitePattern: "(", InviteCodePattern: `a(b)`, TwitchPattern: "x"},
		},
		{
			name: "invite code pattern without capture group",
			cfg:  config.Moderation{InvitePattern: "a", InviteCodePattern: "nogroup", TwitchPattern: "x"},
		},
		{
			name: "twitch pattern does not compile",
			cfg:  config.Moderation{InvitePattern: "a", InviteCodePattern: `a(b)`, TwitchPattern: "[x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewSettings(&tt.cfg)
			require.ErrorIs(t, err, ErrInvalidPattern)
		})
	}
}
