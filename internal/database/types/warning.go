package types

import (
	"time"

	"github.com/uptrace/bun"
)

// Warning is an entry in the warning ledger.
type Warning struct {
	bun.BaseModel `bun:"table:warnings"`

	ID          int64     `bun:",pk,autoincrement"`
	GuildID     uint64    `bun:",notnull"`   // Guild the warning was issued in
	ModeratorID uint64    `bun:",notnull"`   // Discord ID of the moderator (the bot for automatic warnings)
	UserID      uint64    `bun:",notnull"`   // Discord ID of the warned member
	Reason      string    `bun:",type:text"` // Reason shown to moderators
	CreatedAt   time.Time `bun:",notnull"`
}
