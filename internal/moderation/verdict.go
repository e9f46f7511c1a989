package moderation

import (
	"fmt"
)

// VerdictKind identifies which antispam rule produced a verdict.
type VerdictKind int

const (
	// VerdictNone means no rule matched.
	VerdictNone VerdictKind = iota
	// VerdictDiscordInvite is an invite link to a server other than this one.
	VerdictDiscordInvite
	// VerdictMassMention is a message mentioning too many users or roles.
	VerdictMassMention
	// VerdictTwitchLink is an unapproved Twitch link.
	VerdictTwitchLink
	// VerdictRepeatedMessage is repeated or rapid-fire posting.
	VerdictRepeatedMessage
)

// String returns the metric label for the verdict kind.
func (k VerdictKind) String() string {
	switch k {
	case VerdictNone:
		return "none"
	case VerdictDiscordInvite:
		return "discord_invite"
	case VerdictMassMention:
		return "mass_mention"
	case VerdictTwitchLink:
		return "twitch_link"
	case VerdictRepeatedMessage:
		return "repeated_message"
	default:
		return fmt.Sprintf("VerdictKind(%d)", int(k))
	}
}

// Verdict is the outcome of classifying a message against one rule.
// Only the fields relevant to Kind are set.
type Verdict struct {
	Kind            VerdictKind
	MatchedText     string // Invite and Twitch links
	InviteCode      string // Invite links
	MentionCount    int    // Mass mentions
	OccurrenceCount int    // Repeated messages
}

// NoVerdict is the verdict for a message that matched nothing.
var NoVerdict = Verdict{Kind: VerdictNone}

// DiscordInviteVerdict builds an invite link verdict.
func DiscordInviteVerdict(matchedText, inviteCode string) Verdict {
	return Verdict{Kind: VerdictDiscordInvite, MatchedText: matchedText, InviteCode: inviteCode}
}

// MassMentionVerdict builds a mass mention verdict.
func MassMentionVerdict(count int) Verdict {
	return Verdict{Kind: VerdictMassMention, MentionCount: count}
}

// TwitchLinkVerdict builds a Twitch link verdict.
func TwitchLinkVerdict(matchedText string) Verdict {
	return Verdict{Kind: VerdictTwitchLink, MatchedText: matchedText}
}

// RepeatedMessageVerdict builds a repetition verdict.
func RepeatedMessageVerdict(occurrences int) Verdict {
	return Verdict{Kind: VerdictRepeatedMessage, OccurrenceCount: occurrences}
}

// Matched reports whether the verdict is anything other than None.
func (v Verdict) Matched() bool {
	return v.Kind != VerdictNone
}

// Reason returns the rule name shown in audit entries and warning records.
func (v Verdict) Reason() string {
	switch v.Kind {
	case VerdictDiscordInvite:
		return "Discord Invites Blacklisted"
	case VerdictMassMention:
		return "Mass Mention Spam"
	case VerdictTwitchLink:
		return "Twitch Links Blacklisted"
	case VerdictRepeatedMessage:
		return "Repeating/quick message spam"
	case VerdictNone:
		return ""
	}

	return ""
}

// Evidence returns the match text shown in the audit entry.
func (v Verdict) Evidence() string {
	switch v.Kind {
	case VerdictDiscordInvite, VerdictTwitchLink:
		return v.MatchedText
	case VerdictMassMention:
		return fmt.Sprintf("%d mentions", v.MentionCount)
	case VerdictRepeatedMessage:
		return fmt.Sprintf("%d repeated messages", v.OccurrenceCount)
	case VerdictNone:
		return ""
	}

	return ""
}

// modNote is the message from the mods quoted in the warning DM.
func (v Verdict) modNote() string {
	switch v.Kind {
	case VerdictDiscordInvite:
		return "Discord invite links are not permitted."
	case VerdictMassMention:
		return "Do not spam mentions. This includes mentioning a lot of users at once."
	case VerdictTwitchLink:
		return "Do not post twitch links without mod approval."
	case VerdictRepeatedMessage:
		return "Do not spam or repeat messages."
	case VerdictNone:
		return ""
	}

	return ""
}

// offense describes what the user did, for the moderation channel fallback notice.
func (v Verdict) offense() string {
	switch v.Kind {
	case VerdictDiscordInvite:
		return "posted a **Discord Invite Link**"
	case VerdictMassMention:
		return "**spammed mentions**"
	case VerdictTwitchLink:
		return "**posted a twitch link**"
	case VerdictRepeatedMessage:
		return "**spammed messages**"
	case VerdictNone:
		return ""
	}

	return ""
}

// WarningText renders the direct message sent to the offending user.
func (v Verdict) WarningText(guildName string) string {
	return fmt.Sprintf("You have been warned on **%s**.\n\n**A message from the mods:**\n\n\"%s\"", guildName, v.modNote())
}

// WarningReason is the reason stored in the warning ledger.
func (v Verdict) WarningReason() string {
	return "Warned: " + v.Reason()
}
