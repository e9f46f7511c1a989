package moderation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/sweeper/internal/setup/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

const (
	testGuildID      snowflake.ID = 100
	testChannelID    snowflake.ID = 200
	testUserID       snowflake.ID = 300
	testBotID        snowflake.ID = 400
	testModChannelID snowflake.ID = 500
	testLogChannelID snowflake.ID = 600
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestSettings(t *testing.T) *Settings {
	t.Helper()

	settings, err := NewSettings(&config.Moderation{
		BypassRoleID:            700,
		ModChannelID:            uint64(testModChannelID),
		LogChannelID:            uint64(testLogChannelID),
		MuteRoleID:              800,
		MuteEmbedColor:          config.DefaultMuteEmbedColor,
		WarnEmbedColor:          config.DefaultWarnEmbedColor,
		InvitePattern:           config.DefaultInvitePattern,
		InviteCodePattern:       config.DefaultInviteCodePattern,
		TwitchPattern:           config.DefaultTwitchPattern,
		TwitchWhitelist:         config.DefaultTwitchWhitelist(),
		MassMentionThreshold:    config.DefaultMassMentionThreshold,
		RepetitionWarnThreshold: config.DefaultRepetitionWarnThreshold,
		BurstWindow:             config.DefaultBurstWindow,
		MuteDuration:            config.DefaultMuteDuration,
		NoticeLifetime:          config.DefaultNoticeLifetime,
		TrackerIdleTTL:          config.DefaultTrackerIdleTTL,
		MuteSweepInterval:       config.DefaultMuteSweepInterval,
	})
	require.NoError(t, err)

	return settings
}

var testBot = Identity{UserID: testBotID, Tag: "Sweeper#0001", AvatarURL: "https://cdn.example/bot.png"}

// newTestMessage builds a message from the default test user.
func newTestMessage(id snowflake.ID, content string, at time.Time) *Message {
	return &Message{
		ID:                id,
		AuthorID:          testUserID,
		ChannelID:         testChannelID,
		GuildID:           testGuildID,
		RawContent:        content,
		CleanContent:      content,
		NormalizedContent: NormalizeContent(content),
		CreatedAt:         at,
		AuthorTag:         "spammer",
		AuthorAvatarURL:   "https://cdn.example/user.png",
		GuildName:         "Test Guild",
		ChannelName:       "general",
	}
}

type fakeInvites struct {
	codes map[string]struct{}
	err   error
	calls int
}

func (f *fakeInvites) ActiveInviteCodes(_ context.Context, _ snowflake.ID) (map[string]struct{}, error) {
	f.calls++
	return f.codes, f.err
}

type deletion struct {
	channelID snowflake.ID
	messageID snowflake.ID
	delay     time.Duration
}

type directMessage struct {
	userID  snowflake.ID
	content string
}

type channelMessage struct {
	channelID snowflake.ID
	message   discord.MessageCreate
}

type fakeMessenger struct {
	mu         sync.Mutex
	deletions  []deletion
	dms        []directMessage
	posts      []channelMessage
	deleteErr  error
	dmErr      error
	channelErr map[snowflake.ID]error
	nextID     snowflake.ID
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{channelErr: make(map[snowflake.ID]error), nextID: 9000}
}

func (f *fakeMessenger) DeleteMessage(_ context.Context, channelID, messageID snowflake.ID, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deletions = append(f.deletions, deletion{channelID: channelID, messageID: messageID, delay: delay})

	return f.deleteErr
}

func (f *fakeMessenger) SendDirectMessage(_ context.Context, userID snowflake.ID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.dmErr != nil {
		return f.dmErr
	}

	f.dms = append(f.dms, directMessage{userID: userID, content: content})

	return nil
}

func (f *fakeMessenger) SendChannelMessage(
	_ context.Context, channelID snowflake.ID, message discord.MessageCreate,
) (snowflake.ID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.channelErr[channelID]; err != nil {
		return 0, err
	}

	f.posts = append(f.posts, channelMessage{channelID: channelID, message: message})
	f.nextID++

	return f.nextID, nil
}

// postsTo returns the messages posted to a channel.
func (f *fakeMessenger) postsTo(channelID snowflake.ID) []discord.MessageCreate {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []discord.MessageCreate
	for _, post := range f.posts {
		if post.channelID == channelID {
			result = append(result, post.message)
		}
	}

	return result
}

// deletedIDs returns the ids of every deleted message.
func (f *fakeMessenger) deletedIDs() []snowflake.ID {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]snowflake.ID, 0, len(f.deletions))
	for _, d := range f.deletions {
		ids = append(ids, d.messageID)
	}

	return ids
}

type warning struct {
	guildID     snowflake.ID
	moderatorID snowflake.ID
	userID      snowflake.ID
	reason      string
}

type fakeLedger struct {
	mu       sync.Mutex
	warnings []warning
	err      error
}

func (f *fakeLedger) RecordWarning(_ context.Context, guildID, moderatorID, userID snowflake.ID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.warnings = append(f.warnings, warning{guildID: guildID, moderatorID: moderatorID, userID: userID, reason: reason})

	return f.err
}

type mute struct {
	userID   snowflake.ID
	duration time.Duration
	reason   string
}

// fakeMutes reports a member as muted once ApplyMute has been called for them.
type fakeMutes struct {
	mu       sync.Mutex
	muted    map[snowflake.ID]bool
	applied  []mute
	checkErr error
	applyErr error
}

func newFakeMutes() *fakeMutes {
	return &fakeMutes{muted: make(map[snowflake.ID]bool)}
}

func (f *fakeMutes) IsMuted(_ context.Context, _, userID snowflake.ID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.muted[userID], f.checkErr
}

func (f *fakeMutes) ApplyMute(_ context.Context, _, userID snowflake.ID, duration time.Duration, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.applyErr != nil {
		return f.applyErr
	}

	f.muted[userID] = true
	f.applied = append(f.applied, mute{userID: userID, duration: duration, reason: reason})

	return nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	actions []*Action
}

func (f *fakeRecorder) RecordAction(_ context.Context, action *Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.actions = append(f.actions, action)

	return nil
}

type testHarness struct {
	settings  *Settings
	invites   *fakeInvites
	messenger *fakeMessenger
	ledger    *fakeLedger
	mutes     *fakeMutes
	recorder  *fakeRecorder
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	return &testHarness{
		settings:  newTestSettings(t),
		invites:   &fakeInvites{codes: map[string]struct{}{}},
		messenger: newFakeMessenger(),
		ledger:    &fakeLedger{},
		mutes:     newFakeMutes(),
		recorder:  &fakeRecorder{},
	}
}

func (h *testHarness) pipeline() *Pipeline {
	audit := NewAuditLogger(h.settings, h.messenger, zap.NewNop())
	return NewPipeline(h.settings, testBot, h.messenger, h.ledger, h.mutes, h.recorder, audit, zap.NewNop())
}

func (h *testHarness) moderator() *Moderator {
	return NewModerator(h.settings, testBot, Dependencies{
		Invites:   h.invites,
		Messenger: h.messenger,
		Ledger:    h.ledger,
		Mutes:     h.mutes,
		Recorder:  h.recorder,
	}, zap.NewNop())
}
