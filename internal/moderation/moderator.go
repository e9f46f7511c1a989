package moderation

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Dependencies are the collaborators the moderator acts through.
type Dependencies struct {
	Invites   InviteSource
	Messenger Messenger
	Ledger    WarningLedger
	Mutes     MuteService
	Recorder  ActionRecorder // Optional
}

// Moderator runs every inbound message through the classifier and the repetition tracker
// and hands the outcome to the enforcement pipeline.
type Moderator struct {
	classifier *Classifier
	tracker    *RepetitionTracker
	pipeline   *Pipeline
	logger     *zap.Logger
}

// NewModerator wires the antispam components together.
func NewModerator(settings *Settings, bot Identity, deps Dependencies, logger *zap.Logger) *Moderator {
	audit := NewAuditLogger(settings, deps.Messenger, logger)

	return &Moderator{
		classifier: NewClassifier(settings, deps.Invites, logger),
		tracker:    NewRepetitionTracker(settings, logger),
		pipeline: NewPipeline(
			settings, bot, deps.Messenger, deps.Ledger, deps.Mutes, deps.Recorder, audit, logger,
		),
		logger: logger.Named("moderator"),
	}
}

// Tracker returns the repetition tracker.
func (m *Moderator) Tracker() *RepetitionTracker {
	return m.tracker
}

// Run keeps the repetition state bounded until the context is cancelled.
func (m *Moderator) Run(ctx context.Context) {
	m.tracker.Run(ctx)
}

// Handle processes one inbound message. At most one enforcement action is taken per message.
// The only error returned is a *NotifyFailure, after its fallback has been handled.
func (m *Moderator) Handle(ctx context.Context, msg *Message) error {
	verdicts, err := m.classifier.Classify(ctx, msg)
	if err != nil {
		m.logClassifyErrors(msg, err)
	}

	for _, verdict := range verdicts {
		verdictCount.WithLabelValues(verdict.Kind.String()).Inc()
	}

	var enforceErr error

	enforced := len(verdicts) > 0
	if enforced {
		if len(verdicts) > 1 {
			m.logger.Debug("Message matched several rules",
				zap.Uint64("messageID", uint64(msg.ID)),
				zap.Int("count", len(verdicts)))
		}

		enforceErr = m.pipeline.Enforce(ctx, msg, verdicts[0])
	}

	// The message still counts toward the burst, but an enforced message is not acted on twice
	m.tracker.Observe(ctx, msg, func(ctx context.Context, signal Signal, state UserSpamState) bool {
		signalCount.WithLabelValues(signal.String()).Inc()

		if enforced {
			return false
		}

		switch signal {
		case SignalSoftWarn:
			m.pipeline.SlowDown(ctx, msg)
			return false
		case SignalHardAction:
			verdictCount.WithLabelValues(VerdictRepeatedMessage.String()).Inc()

			reset, err := m.pipeline.Escalate(ctx, msg, state)
			enforceErr = err

			return reset
		case SignalNone:
		}

		return false
	})

	return enforceErr
}

// logClassifyErrors reports every failed rule individually.
func (m *Moderator) logClassifyErrors(msg *Message, err error) {
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}

	for _, ruleErr := range errs {
		kind := VerdictNone

		var re *RuleError
		if errors.As(ruleErr, &re) {
			kind = re.Kind
		}

		classifyErrorCount.WithLabelValues(kind.String()).Inc()
		m.logger.Warn("Rule evaluation failed",
			zap.Error(ruleErr),
			zap.String("rule", kind.String()),
			zap.Uint64("messageID", uint64(msg.ID)),
			zap.Bool("malformed", errors.Is(ruleErr, ErrMalformedMatch)))
	}
}
