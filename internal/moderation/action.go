package moderation

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// ActionKind is the class of enforcement taken against a message.
type ActionKind int

const (
	// ActionDeleteAndWarn deletes the message and warns the author.
	ActionDeleteAndWarn ActionKind = iota
	// ActionDeleteWarnAndMute deletes the message, warns the author and mutes them.
	ActionDeleteWarnAndMute
)

// String returns the stored name of the action kind.
func (k ActionKind) String() string {
	switch k {
	case ActionDeleteAndWarn:
		return "delete_and_warn"
	case ActionDeleteWarnAndMute:
		return "delete_warn_and_mute"
	default:
		return "unknown"
	}
}

// Action is a single enforcement taken against a message.
type Action struct {
	Kind         ActionKind
	Verdict      VerdictKind
	GuildID      snowflake.ID
	ChannelID    snowflake.ID
	MessageID    snowflake.ID
	UserID       snowflake.ID
	Reason       string
	Evidence     string
	MuteDuration time.Duration
	Notified     bool
	CreatedAt    time.Time
}

// newAction builds an action for the message and verdict.
func newAction(kind ActionKind, msg *Message, verdict Verdict, now time.Time) *Action {
	return &Action{
		Kind:      kind,
		Verdict:   verdict.Kind,
		GuildID:   msg.GuildID,
		ChannelID: msg.ChannelID,
		MessageID: msg.ID,
		UserID:    msg.AuthorID,
		Reason:    verdict.Reason(),
		Evidence:  verdict.Evidence(),
		CreatedAt: now,
	}
}
