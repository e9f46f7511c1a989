package platform

import (
	"context"
	"fmt"
	"regexp"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/sweeper/internal/moderation"
)

// mentionPattern matches user, nickname, role and channel mentions in raw content.
var mentionPattern = regexp.MustCompile(`<(@!?|@&|#)(\d+)>`)

// MentionResolver returns the display name for a mention, or false when it is unknown.
type MentionResolver func(prefix string, id snowflake.ID) (string, bool)

// CleanContent renders mentions in the content as readable names.
// Mentions the resolver does not know are left untouched.
func CleanContent(content string, resolve MentionResolver) string {
	return mentionPattern.ReplaceAllStringFunc(content, func(token string) string {
		parts := mentionPattern.FindStringSubmatch(token)

		id, err := snowflake.Parse(parts[2])
		if err != nil {
			return token
		}

		name, ok := resolve(parts[1], id)
		if !ok {
			return token
		}

		if parts[1] == "#" {
			return "#" + name
		}

		return "@" + name
	})
}

// CountMentions counts the distinct users and roles a message mentions,
// plus one when it mentions everyone or here.
func CountMentions(message discord.Message) int {
	users := make(map[snowflake.ID]struct{}, len(message.Mentions))
	for _, user := range message.Mentions {
		users[user.ID] = struct{}{}
	}

	roles := make(map[snowflake.ID]struct{}, len(message.MentionRoles))
	for _, roleID := range message.MentionRoles {
		roles[roleID] = struct{}{}
	}

	count := len(users) + len(roles)
	if message.MentionEveryone {
		count++
	}

	return count
}

// Convert builds the moderation view of a guild message, resolving the author's bypass.
func (a *Adapter) Convert(ctx context.Context, event *events.GuildMessageCreate) (*moderation.Message, error) {
	message := event.Message
	author := message.Author

	bypass := false
	if !author.Bot {
		manage, err := a.HasManageMessages(ctx, event.GuildID, author.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve bypass: %w", err)
		}

		role, err := a.HasBypassRole(ctx, event.GuildID, author.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve bypass: %w", err)
		}

		bypass = manage || role
	}

	clean := CleanContent(message.Content, a.resolver(event.GuildID, message))

	result := &moderation.Message{
		ID:                message.ID,
		AuthorID:          author.ID,
		ChannelID:         event.ChannelID,
		GuildID:           event.GuildID,
		RawContent:        message.Content,
		CleanContent:      clean,
		NormalizedContent: moderation.NormalizeContent(clean),
		CreatedAt:         message.CreatedAt,
		AuthorIsBot:       author.Bot,
		AuthorHasBypass:   bypass,
		MentionCount:      CountMentions(message),
		AuthorTag:         author.Tag(),
		AuthorAvatarURL:   author.EffectiveAvatarURL(),
	}

	if guild, ok := event.Guild(); ok {
		result.GuildName = guild.Name
	}

	if channel, ok := event.Channel(); ok {
		result.ChannelName = channel.Name()
	}

	return result, nil
}

// resolver names mentions from the message itself and the gateway cache.
func (a *Adapter) resolver(guildID snowflake.ID, message discord.Message) MentionResolver {
	users := make(map[snowflake.ID]string, len(message.Mentions))
	for _, user := range message.Mentions {
		users[user.ID] = user.Username
	}

	return func(prefix string, id snowflake.ID) (string, bool) {
		switch prefix {
		case "@", "@!":
			name, ok := users[id]
			return name, ok
		case "@&":
			role, ok := a.client.Caches().Role(guildID, id)
			return role.Name, ok
		case "#":
			channel, ok := a.client.Caches().Channel(id)
			if !ok {
				return "", false
			}

			return channel.Name(), true
		}

		return "", false
	}
}
