package moderation

import (
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Message is the immutable view of an inbound guild message that the antispam core works on.
// Bypass and mention information is resolved by the platform adapter before the core sees it.
type Message struct {
	ID        snowflake.ID
	AuthorID  snowflake.ID
	ChannelID snowflake.ID
	GuildID   snowflake.ID

	RawContent        string
	CleanContent      string // Content with mentions rendered as readable names
	NormalizedContent string // Lowercased and trimmed clean content
	CreatedAt         time.Time

	AuthorIsBot     bool
	AuthorHasBypass bool
	MentionCount    int

	AuthorTag       string
	AuthorAvatarURL string
	GuildName       string
	ChannelName     string
}

// NormalizeContent lowercases and trims message content for repetition comparison.
func NormalizeContent(content string) string {
	return strings.ToLower(strings.TrimSpace(content))
}

// UserKey identifies a member of a guild.
type UserKey struct {
	GuildID snowflake.ID
	UserID  snowflake.ID
}

// Key returns the repetition tracking key for the message author.
func (m *Message) Key() UserKey {
	return UserKey{GuildID: m.GuildID, UserID: m.AuthorID}
}
