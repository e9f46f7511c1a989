package moderation

import (
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
)

// Identity describes the bot account acting as moderator.
type Identity struct {
	UserID    snowflake.ID
	Tag       string
	AvatarURL string
}

// buildAuditMessage creates the deleted-message entry for the audit log channel.
func buildAuditMessage(msg *Message, evidence, reason string, color int, now time.Time) discord.MessageCreate {
	embed := discord.NewEmbedBuilder().
		SetColor(color).
		SetAuthor(fmt.Sprintf("%s (%d)", msg.AuthorTag, msg.AuthorID), "", msg.AuthorAvatarURL).
		SetDescription(fmt.Sprintf(
			"**Action:** Message Deleted\n"+
				"**Reason:** %s\n"+
				"**Match:** %s\n"+
				"**Channel:** #%s (%d)\n"+
				"**Message:** (%d)\n\n"+
				"%s",
			reason,
			evidence,
			msg.ChannelName,
			msg.ChannelID,
			msg.ID,
			msg.CleanContent,
		)).
		SetTimestamp(now).
		Build()

	return discord.NewMessageCreateBuilder().
		SetEmbeds(embed).
		Build()
}

// buildMuteMessage creates the mute summary for the moderation channel.
func buildMuteMessage(bot Identity, msg *Message, length time.Duration, color int, now time.Time) discord.MessageCreate {
	embed := discord.NewEmbedBuilder().
		SetColor(color).
		SetAuthor(bot.Tag, "", bot.AvatarURL).
		SetDescription(fmt.Sprintf(
			"**Member:** %s (%d)\n"+
				"**Action:** Mute\n"+
				"**Length:** %s\n"+
				"**Reason:** Spamming.",
			msg.AuthorTag,
			msg.AuthorID,
			formatLength(length),
		)).
		SetTimestamp(now).
		Build()

	return discord.NewMessageCreateBuilder().
		SetEmbeds(embed).
		Build()
}

// buildFallbackMessage creates the moderation channel notice for a warning that could not be delivered.
func buildFallbackMessage(msg *Message, verdict Verdict, err error) discord.MessageCreate {
	return discord.NewMessageCreateBuilder().
		SetContent(fmt.Sprintf(
			"There was an error informing %s (%d) of their warning (automatically). "+
				"This user %s. Their DMs may be disabled.\n\n**Error:**\n%s",
			msg.AuthorTag,
			msg.AuthorID,
			verdict.offense(),
			err,
		)).
		Build()
}

// buildSlowDownMessage creates the public notice for a member posting too quickly.
func buildSlowDownMessage(userID snowflake.ID) discord.MessageCreate {
	return discord.NewMessageCreateBuilder().
		SetContent(fmt.Sprintf(
			"<@%d>, You are sending too many messages too quickly. Please slow down or you will be muted.",
			userID,
		)).
		Build()
}

// formatLength renders a mute length the way moderators type it, such as 20m or 1h30m.
func formatLength(d time.Duration) string {
	d = d.Round(time.Minute)
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)

	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dh%dm", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
