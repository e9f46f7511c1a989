package models

import (
	"context"
	"fmt"

	"github.com/robalyx/sweeper/internal/database/dbretry"
	"github.com/robalyx/sweeper/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ActionModel handles database operations for the enforcement action log.
type ActionModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewAction creates a new action model instance.
func NewAction(db *bun.DB, logger *zap.Logger) *ActionModel {
	return &ActionModel{
		db:     db,
		logger: logger.Named("db_action"),
	}
}

// Create stores an enforcement action.
func (m *ActionModel) Create(ctx context.Context, action *types.EnforcementAction) error {
	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().Model(action).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create enforcement action: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Debug("Logged enforcement action",
		zap.Uint64("guildID", action.GuildID),
		zap.Uint64("userID", action.UserID),
		zap.String("kind", action.Kind),
		zap.String("rule", action.Rule))

	return nil
}

// GetByUser retrieves the most recent actions taken against a member, newest first.
func (m *ActionModel) GetByUser(
	ctx context.Context, guildID, userID uint64, limit int,
) ([]*types.EnforcementAction, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.EnforcementAction, error) {
		var actions []*types.EnforcementAction

		err := m.db.NewSelect().
			Model(&actions).
			Where("guild_id = ?", guildID).
			Where("user_id = ?", userID).
			Order("created_at DESC", "id DESC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get enforcement actions: %w", err)
		}

		return actions, nil
	})
}
