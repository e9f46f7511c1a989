package moderation

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// AuditLogger posts deleted-message records to the operator log channel.
type AuditLogger struct {
	settings  *Settings
	messenger Messenger
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(settings *Settings, messenger Messenger, logger *zap.Logger) *AuditLogger {
	return &AuditLogger{
		settings:  settings,
		messenger: messenger,
		logger:    logger.Named("audit_logger"),
		now:       time.Now,
	}
}

// Log sends the audit entry for a deleted message. Delivery failures are only logged.
func (a *AuditLogger) Log(ctx context.Context, msg *Message, evidence, reason string) {
	entry := buildAuditMessage(msg, evidence, reason, a.settings.WarnEmbedColor, a.now())

	if _, err := a.messenger.SendChannelMessage(ctx, a.settings.LogChannelID, entry); err != nil {
		auditFailureCount.Inc()
		a.logger.Error("Failed to send audit entry",
			zap.Error(err),
			zap.Uint64("messageID", uint64(msg.ID)),
			zap.Uint64("userID", uint64(msg.AuthorID)),
			zap.String("reason", reason))

		return
	}

	a.logger.Debug("Sent audit entry",
		zap.Uint64("messageID", uint64(msg.ID)),
		zap.String("reason", reason))
}
