package types

import (
	"time"

	"github.com/uptrace/bun"
)

// EnforcementAction records an automatic action taken against a message.
type EnforcementAction struct {
	bun.BaseModel `bun:"table:enforcement_actions"`

	ID          int64     `bun:",pk,autoincrement"`
	GuildID     uint64    `bun:",notnull"`
	ChannelID   uint64    `bun:",notnull"`
	MessageID   uint64    `bun:",notnull"`
	UserID      uint64    `bun:",notnull"`
	Kind        string    `bun:",notnull"`   // delete_and_warn or delete_warn_and_mute
	Rule        string    `bun:",notnull"`   // Rule that produced the verdict
	Reason      string    `bun:",type:text"` // Rule name shown in the audit log
	Evidence    string    `bun:",type:text"` // Matched text or count
	MuteSeconds int64     `bun:",notnull"`   // Zero unless a mute was applied
	Notified    bool      `bun:",notnull"`   // Whether the member received the warning by DM
	CreatedAt   time.Time `bun:",notnull"`
}

// MuteDuration returns the applied mute length.
func (a *EnforcementAction) MuteDuration() time.Duration {
	return time.Duration(a.MuteSeconds) * time.Second
}
