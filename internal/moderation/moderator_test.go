package moderation

import (
	"errors"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleRepeatedMessagesEscalateOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	moderator := h.moderator()

	for i := range 5 {
		msg := newTestMessage(snowflake.ID(i+1), "free nitro", trackerEpoch.Add(time.Duration(i)*100*time.Millisecond))
		require.NoError(t, moderator.Handle(t.Context(), msg))
	}

	// Third message: slow down notice, fourth: warning and mute, fifth: restarts the count
	assert.Equal(t, []snowflake.ID{3, 4}, filterIDs(h.messenger.deletedIDs(), 1, 5))
	require.Len(t, h.mutes.applied, 1)
	assert.Len(t, h.messenger.postsTo(testModChannelID), 1)
	assert.Len(t, h.messenger.postsTo(testChannelID), 1)
	assert.Len(t, h.messenger.postsTo(testLogChannelID), 1)
	assert.Len(t, h.messenger.dms, 1)
	assert.Len(t, h.ledger.warnings, 1)

	require.Len(t, h.recorder.actions, 1)
	assert.Equal(t, ActionDeleteWarnAndMute, h.recorder.actions[0].Kind)

	state, ok := moderator.Tracker().State(UserKey{GuildID: testGuildID, UserID: testUserID})
	require.True(t, ok)
	assert.Equal(t, 1, state.OccurrenceCount)
}

func TestHandleMutedUserIsNotMutedAgain(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.mutes.muted[testUserID] = true
	moderator := h.moderator()

	for i := range 5 {
		msg := newTestMessage(snowflake.ID(i+1), "free nitro", trackerEpoch)
		require.NoError(t, moderator.Handle(t.Context(), msg))
	}

	assert.Empty(t, h.mutes.applied)
	assert.Empty(t, h.messenger.postsTo(testModChannelID))
	assert.Equal(t, []snowflake.ID{3, 4, 5}, filterIDs(h.messenger.deletedIDs(), 1, 5))

	// Fourth and fifth messages are still warned and audited
	assert.Len(t, h.messenger.dms, 2)
	assert.Len(t, h.messenger.postsTo(testLogChannelID), 2)
	assert.Len(t, h.ledger.warnings, 2)

	require.Len(t, h.recorder.actions, 2)
	for _, action := range h.recorder.actions {
		assert.Equal(t, ActionDeleteAndWarn, action.Kind)
		assert.Equal(t, VerdictRepeatedMessage, action.Verdict)
	}

	state, ok := moderator.Tracker().State(UserKey{GuildID: testGuildID, UserID: testUserID})
	require.True(t, ok)
	assert.Equal(t, 5, state.OccurrenceCount)
}

func TestHandleEnforcesOneActionPerMessage(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	moderator := h.moderator()

	// Every message is a twitch link, so the repetition signals must not act a second time
	for i := range 4 {
		msg := newTestMessage(snowflake.ID(i+1), "twitch.tv/someone", trackerEpoch)
		require.NoError(t, moderator.Handle(t.Context(), msg))
	}

	assert.Equal(t, []snowflake.ID{1, 2, 3, 4}, h.messenger.deletedIDs())
	assert.Len(t, h.messenger.dms, 4)
	assert.Empty(t, h.mutes.applied)
	assert.Empty(t, h.messenger.postsTo(testChannelID))

	state, ok := moderator.Tracker().State(UserKey{GuildID: testGuildID, UserID: testUserID})
	require.True(t, ok)
	assert.Equal(t, 4, state.OccurrenceCount)
}

func TestHandleMultipleRulesUsesHighestPriority(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	msg := newTestMessage(1, "discord.gg/abc twitch.tv/someone", trackerEpoch)
	msg.MentionCount = 10
	require.NoError(t, h.moderator().Handle(t.Context(), msg))

	require.Len(t, h.recorder.actions, 1)
	assert.Equal(t, VerdictDiscordInvite, h.recorder.actions[0].Verdict)
	assert.Len(t, h.messenger.dms, 1)
	assert.Len(t, h.messenger.deletions, 1)
}

func TestHandleReturnsNotifyFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.messenger.dmErr = errors.New("closed")

	msg := newTestMessage(1, "twitch.tv/someone", trackerEpoch)

	var notifyErr *NotifyFailure
	require.ErrorAs(t, h.moderator().Handle(t.Context(), msg), &notifyErr)
	assert.Len(t, h.messenger.postsTo(testModChannelID), 1)
}

func TestHandleReturnsNotifyFailureOnEscalation(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.messenger.dmErr = errors.New("closed")
	moderator := h.moderator()

	var err error
	for i := range 4 {
		err = moderator.Handle(t.Context(), newTestMessage(snowflake.ID(i+1), "free nitro", trackerEpoch))
	}

	var notifyErr *NotifyFailure
	require.ErrorAs(t, err, &notifyErr)
	assert.Equal(t, VerdictRepeatedMessage, notifyErr.Kind)
	assert.Len(t, h.mutes.applied, 1)
}

func TestHandleBypassProducesNothing(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	moderator := h.moderator()

	for i := range 6 {
		msg := newTestMessage(snowflake.ID(i+1), "discord.gg/abc", trackerEpoch)
		msg.AuthorHasBypass = true
		msg.MentionCount = 10
		require.NoError(t, moderator.Handle(t.Context(), msg))
	}

	assert.Empty(t, h.messenger.deletions)
	assert.Empty(t, h.messenger.posts)
	assert.Empty(t, h.recorder.actions)
	assert.Zero(t, moderator.Tracker().Len())
}

func TestHandleInviteFetchFailureStillTracks(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.invites.err = errors.New("missing access")
	moderator := h.moderator()

	msg := newTestMessage(1, "discord.gg/abc", trackerEpoch)
	require.NoError(t, moderator.Handle(t.Context(), msg))

	assert.Empty(t, h.messenger.deletions)

	_, ok := moderator.Tracker().State(UserKey{GuildID: testGuildID, UserID: testUserID})
	assert.True(t, ok)
}

// filterIDs keeps the ids within [low, high], skipping ids of notices posted by the bot.
func filterIDs(ids []snowflake.ID, low, high snowflake.ID) []snowflake.ID {
	var result []snowflake.ID
	for _, id := range ids {
		if id >= low && id <= high {
			result = append(result, id)
		}
	}

	return result
}
