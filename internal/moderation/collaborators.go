package moderation

import (
	"context"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
)

// Permissions answers the bypass questions about a guild member.
type Permissions interface {
	HasManageMessages(ctx context.Context, guildID, userID snowflake.ID) (bool, error)
	HasBypassRole(ctx context.Context, guildID, userID snowflake.ID) (bool, error)
}

// InviteSource lists the invite codes currently active for a guild.
type InviteSource interface {
	ActiveInviteCodes(ctx context.Context, guildID snowflake.ID) (map[string]struct{}, error)
}

// Messenger performs the chat platform side effects of enforcement.
type Messenger interface {
	// DeleteMessage removes a message, after the given delay when it is positive.
	DeleteMessage(ctx context.Context, channelID, messageID snowflake.ID, delay time.Duration) error
	SendDirectMessage(ctx context.Context, userID snowflake.ID, content string) error
	SendChannelMessage(ctx context.Context, channelID snowflake.ID, message discord.MessageCreate) (snowflake.ID, error)
}

// WarningLedger durably records warnings issued to members.
type WarningLedger interface {
	RecordWarning(ctx context.Context, guildID, moderatorID, userID snowflake.ID, reason string) error
}

// MuteService applies and reports timed mutes.
type MuteService interface {
	IsMuted(ctx context.Context, guildID, userID snowflake.ID) (bool, error)
	ApplyMute(ctx context.Context, guildID, userID snowflake.ID, duration time.Duration, reason string) error
}

// ActionRecorder persists enforcement actions for later review.
type ActionRecorder interface {
	RecordAction(ctx context.Context, action *Action) error
}
