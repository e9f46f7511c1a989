package moderation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// MuteReason is the reason given to the mute service for repetition spam.
const MuteReason = "Repeating/quick message spam."

// Pipeline performs the side effects of enforcement for a single message.
type Pipeline struct {
	settings  *Settings
	bot       Identity
	messenger Messenger
	ledger    WarningLedger
	mutes     MuteService
	recorder  ActionRecorder
	audit     *AuditLogger
	logger    *zap.Logger
	now       func() time.Time
}

// NewPipeline creates a new enforcement pipeline. The recorder may be nil.
func NewPipeline(
	settings *Settings,
	bot Identity,
	messenger Messenger,
	ledger WarningLedger,
	mutes MuteService,
	recorder ActionRecorder,
	audit *AuditLogger,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		settings:  settings,
		bot:       bot,
		messenger: messenger,
		ledger:    ledger,
		mutes:     mutes,
		recorder:  recorder,
		audit:     audit,
		logger:    logger.Named("moderation_pipeline"),
		now:       time.Now,
	}
}

// Enforce deletes the message, records it in the audit log and warns the author.
// When the warning cannot be delivered privately, a fallback notice is posted to the moderation
// channel and a *NotifyFailure is returned. No other error is ever returned.
func (p *Pipeline) Enforce(ctx context.Context, msg *Message, verdict Verdict) error {
	action := newAction(ActionDeleteAndWarn, msg, verdict, p.now())
	defer p.finish(ctx, action)

	return p.deleteAndWarn(ctx, msg, verdict, action)
}

// deleteAndWarn is the delete and notify flow shared by every enforcement.
func (p *Pipeline) deleteAndWarn(ctx context.Context, msg *Message, verdict Verdict, action *Action) error {
	p.deleteMessage(ctx, msg)
	p.audit.Log(ctx, msg, verdict.Evidence(), verdict.Reason())

	if err := p.messenger.SendDirectMessage(ctx, msg.AuthorID, verdict.WarningText(msg.GuildName)); err != nil {
		notifyFailureCount.WithLabelValues(verdict.Kind.String()).Inc()

		if _, sendErr := p.messenger.SendChannelMessage(ctx, p.settings.ModChannelID, buildFallbackMessage(msg, verdict, err)); sendErr != nil {
			p.logger.Error("Failed to post warning fallback notice",
				zap.Error(fmt.Errorf("%w: %w", ErrDeliveryFailure, sendErr)),
				zap.Uint64("userID", uint64(msg.AuthorID)))
		}

		p.logger.Warn("Unable to warn user",
			zap.Error(err),
			zap.String("rule", verdict.Reason()),
			zap.String("user", msg.AuthorTag),
			zap.String("guild", msg.GuildName))

		return &NotifyFailure{UserID: msg.AuthorID, Kind: verdict.Kind, Err: err}
	}

	action.Notified = true

	if err := p.ledger.RecordWarning(ctx, msg.GuildID, p.bot.UserID, msg.AuthorID, verdict.WarningReason()); err != nil {
		p.logger.Error("Failed to record warning",
			zap.Error(err),
			zap.Uint64("guildID", uint64(msg.GuildID)),
			zap.Uint64("userID", uint64(msg.AuthorID)))
	}

	p.logger.Info("Warned user",
		zap.String("rule", verdict.Reason()),
		zap.String("user", msg.AuthorTag),
		zap.String("guild", msg.GuildName))

	return nil
}

// SlowDown deletes the message and posts a public notice that removes itself after a short time.
func (p *Pipeline) SlowDown(ctx context.Context, msg *Message) {
	p.deleteMessage(ctx, msg)

	noticeID, err := p.messenger.SendChannelMessage(ctx, msg.ChannelID, buildSlowDownMessage(msg.AuthorID))
	if err != nil {
		p.logger.Warn("Failed to post slow down notice",
			zap.Error(fmt.Errorf("%w: %w", ErrDeliveryFailure, err)),
			zap.Uint64("channelID", uint64(msg.ChannelID)))

		return
	}

	if err := p.messenger.DeleteMessage(ctx, msg.ChannelID, noticeID, p.settings.NoticeLifetime); err != nil {
		p.logger.Warn("Failed to schedule slow down notice removal",
			zap.Error(err),
			zap.Uint64("messageID", uint64(noticeID)))
	}
}

// Escalate warns the author like Enforce and then mutes them unless they are already muted.
// It reports whether the mute was applied, in which case the repetition counter should reset.
// The returned error is the *NotifyFailure from the warning, if any.
func (p *Pipeline) Escalate(ctx context.Context, msg *Message, state UserSpamState) (bool, error) {
	verdict := RepeatedMessageVerdict(state.OccurrenceCount)

	action := newAction(ActionDeleteAndWarn, msg, verdict, p.now())
	defer p.finish(ctx, action)

	notifyErr := p.deleteAndWarn(ctx, msg, verdict, action)

	muted, err := p.mutes.IsMuted(ctx, msg.GuildID, msg.AuthorID)
	if err != nil {
		p.logger.Error("Failed to check mute state",
			zap.Error(err),
			zap.Uint64("guildID", uint64(msg.GuildID)),
			zap.Uint64("userID", uint64(msg.AuthorID)))

		return false, notifyErr
	}

	if muted {
		p.logger.Info("Skipped mute for muted user",
			zap.String("user", msg.AuthorTag),
			zap.Int("count", state.OccurrenceCount))

		return false, notifyErr
	}

	duration := p.settings.MuteDuration
	if err := p.mutes.ApplyMute(ctx, msg.GuildID, msg.AuthorID, duration, MuteReason); err != nil {
		p.logger.Error("Failed to mute user",
			zap.Error(err),
			zap.Uint64("guildID", uint64(msg.GuildID)),
			zap.Uint64("userID", uint64(msg.AuthorID)))

		return false, notifyErr
	}

	summary := buildMuteMessage(p.bot, msg, duration, p.settings.MuteEmbedColor, p.now())
	if _, err := p.messenger.SendChannelMessage(ctx, p.settings.ModChannelID, summary); err != nil {
		p.logger.Error("Failed to post mute summary",
			zap.Error(fmt.Errorf("%w: %w", ErrDeliveryFailure, err)),
			zap.Uint64("userID", uint64(msg.AuthorID)))
	}

	action.Kind = ActionDeleteWarnAndMute
	action.MuteDuration = duration

	p.logger.Info("Muted user for repetition spam",
		zap.String("user", msg.AuthorTag),
		zap.String("guild", msg.GuildName),
		zap.Duration("duration", duration))

	return true, notifyErr
}

// deleteMessage removes the offending message. Failures are logged and never retried.
func (p *Pipeline) deleteMessage(ctx context.Context, msg *Message) {
	if err := p.messenger.DeleteMessage(ctx, msg.ChannelID, msg.ID, 0); err != nil {
		p.logger.Warn("Failed to delete message",
			zap.Error(fmt.Errorf("%w: %w", ErrDeletionFailure, err)),
			zap.Uint64("channelID", uint64(msg.ChannelID)),
			zap.Uint64("messageID", uint64(msg.ID)))
	}
}

// finish counts the action and persists it.
func (p *Pipeline) finish(ctx context.Context, action *Action) {
	actionCount.WithLabelValues(action.Kind.String()).Inc()
	p.record(ctx, action)
}

// record persists the action when a recorder is configured.
func (p *Pipeline) record(ctx context.Context, action *Action) {
	if p.recorder == nil {
		return
	}

	if err := p.recorder.RecordAction(ctx, action); err != nil {
		p.logger.Error("Failed to record enforcement action",
			zap.Error(err),
			zap.String("kind", action.Kind.String()),
			zap.Uint64("messageID", uint64(action.MessageID)))
	}
}
