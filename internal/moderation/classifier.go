package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Classifier runs the stateless antispam rules against a message.
type Classifier struct {
	settings *Settings
	invites  InviteSource
	logger   *zap.Logger
}

// NewClassifier creates a new classifier.
func NewClassifier(settings *Settings, invites InviteSource, logger *zap.Logger) *Classifier {
	return &Classifier{
		settings: settings,
		invites:  invites,
		logger:   logger.Named("moderation_classifier"),
	}
}

// Classify returns one verdict per matching rule in priority order: invite, mass mention, twitch.
// Bot and bypassed authors never receive a verdict.
// A failing rule contributes a *RuleError to the returned error but never prevents the other rules from running.
func (c *Classifier) Classify(ctx context.Context, msg *Message) ([]Verdict, error) {
	if msg.AuthorIsBot || msg.AuthorHasBypass {
		return nil, nil
	}

	var (
		verdicts []Verdict
		errs     []error
	)

	if verdict, err := c.checkInvite(ctx, msg); err != nil {
		errs = append(errs, &RuleError{Kind: VerdictDiscordInvite, Err: err})
	} else if verdict.Matched() {
		verdicts = append(verdicts, verdict)
	}

	if verdict := c.checkMassMention(msg); verdict.Matched() {
		verdicts = append(verdicts, verdict)
	}

	if verdict := c.checkTwitch(msg); verdict.Matched() {
		verdicts = append(verdicts, verdict)
	}

	return verdicts, errors.Join(errs...)
}

// checkInvite matches invite links and exempts codes that belong to the guild.
func (c *Classifier) checkInvite(ctx context.Context, msg *Message) (Verdict, error) {
	match := c.settings.InvitePattern.FindString(msg.RawContent)
	if match == "" {
		return NoVerdict, nil
	}

	code, err := c.extractInviteCode(match)
	if err != nil {
		return NoVerdict, err
	}

	codes, err := c.invites.ActiveInviteCodes(ctx, msg.GuildID)
	if err != nil {
		return NoVerdict, fmt.Errorf("failed to fetch active invites: %w", err)
	}

	if _, ok := codes[code]; ok {
		c.logger.Debug("Invite link belongs to guild",
			zap.Uint64("guildID", uint64(msg.GuildID)),
			zap.String("code", code))

		return NoVerdict, nil
	}

	return DiscordInviteVerdict(match, code), nil
}

// extractInviteCode pulls the invite code out of a matched invite link.
func (c *Classifier) extractInviteCode(match string) (string, error) {
	groups := c.settings.InviteCodePattern.FindStringSubmatch(match)
	if len(groups) < 2 || groups[1] == "" {
		return "", fmt.Errorf("%w: no invite code in %q", ErrMalformedMatch, match)
	}

	return groups[1], nil
}

// checkMassMention packages a pre-counted mention total into a verdict.
func (c *Classifier) checkMassMention(msg *Message) Verdict {
	if msg.MentionCount < c.settings.MassMentionThreshold {
		return NoVerdict
	}

	return MassMentionVerdict(msg.MentionCount)
}

// checkTwitch matches Twitch links unless the content contains a whitelisted substring.
func (c *Classifier) checkTwitch(msg *Message) Verdict {
	match := c.settings.TwitchPattern.FindString(msg.RawContent)
	if match == "" {
		return NoVerdict
	}

	for _, allowed := range c.settings.TwitchWhitelist {
		if strings.Contains(msg.RawContent, allowed) {
			return NoVerdict
		}
	}

	return TwitchLinkVerdict(match)
}
