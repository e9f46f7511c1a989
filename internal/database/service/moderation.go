package service

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/sweeper/internal/database/types"
	"github.com/robalyx/sweeper/internal/moderation"
	"go.uber.org/zap"
)

// WarningStore is the persistence the moderation service needs for warnings.
type WarningStore interface {
	Create(ctx context.Context, warning *types.Warning) error
	GetByUser(ctx context.Context, guildID, userID uint64, limit int) ([]*types.Warning, error)
	CountByUser(ctx context.Context, guildID, userID uint64) (int, error)
}

// ActionStore is the persistence the moderation service needs for enforcement actions.
type ActionStore interface {
	Create(ctx context.Context, action *types.EnforcementAction) error
	GetByUser(ctx context.Context, guildID, userID uint64, limit int) ([]*types.EnforcementAction, error)
}

// History is the moderation record of a single member.
type History struct {
	WarningCount int
	Warnings     []*types.Warning
	Actions      []*types.EnforcementAction
}

// ModerationService records warnings and enforcement actions issued by the antispam core.
type ModerationService struct {
	warnings WarningStore
	actions  ActionStore
	logger   *zap.Logger
	now      func() time.Time
}

// NewModeration creates a new moderation service.
func NewModeration(warnings WarningStore, actions ActionStore, logger *zap.Logger) *ModerationService {
	return &ModerationService{
		warnings: warnings,
		actions:  actions,
		logger:   logger.Named("moderation_service"),
		now:      time.Now,
	}
}

// RecordWarning adds a warning to the ledger.
func (s *ModerationService) RecordWarning(
	ctx context.Context, guildID, moderatorID, userID snowflake.ID, reason string,
) error {
	warning := &types.Warning{
		GuildID:     uint64(guildID),
		ModeratorID: uint64(moderatorID),
		UserID:      uint64(userID),
		Reason:      reason,
		CreatedAt:   s.now(),
	}

	if err := s.warnings.Create(ctx, warning); err != nil {
		return fmt.Errorf("failed to record warning: %w", err)
	}

	return nil
}

// RecordAction stores an enforcement action.
func (s *ModerationService) RecordAction(ctx context.Context, action *moderation.Action) error {
	createdAt := action.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	record := &types.EnforcementAction{
		GuildID:     uint64(action.GuildID),
		ChannelID:   uint64(action.ChannelID),
		MessageID:   uint64(action.MessageID),
		UserID:      uint64(action.UserID),
		Kind:        action.Kind.String(),
		Rule:        action.Verdict.String(),
		Reason:      action.Reason,
		Evidence:    action.Evidence,
		MuteSeconds: int64(action.MuteDuration / time.Second),
		Notified:    action.Notified,
		CreatedAt:   createdAt,
	}

	if err := s.actions.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to record enforcement action: %w", err)
	}

	return nil
}

// GetHistory returns the most recent warnings and actions of a member.
func (s *ModerationService) GetHistory(
	ctx context.Context, guildID, userID snowflake.ID, limit int,
) (*History, error) {
	count, err := s.warnings.CountByUser(ctx, uint64(guildID), uint64(userID))
	if err != nil {
		return nil, err
	}

	warnings, err := s.warnings.GetByUser(ctx, uint64(guildID), uint64(userID), limit)
	if err != nil {
		return nil, err
	}

	actions, err := s.actions.GetByUser(ctx, uint64(guildID), uint64(userID), limit)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Loaded moderation history",
		zap.Uint64("guildID", uint64(guildID)),
		zap.Uint64("userID", uint64(userID)),
		zap.Int("warnings", count),
		zap.Int("actions", len(actions)))

	return &History{
		WarningCount: count,
		Warnings:     warnings,
		Actions:      actions,
	}, nil
}
