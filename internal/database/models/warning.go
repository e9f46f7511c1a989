package models

import (
	"context"
	"fmt"

	"github.com/robalyx/sweeper/internal/database/dbretry"
	"github.com/robalyx/sweeper/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// WarningModel handles database operations for the warning ledger.
type WarningModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewWarning creates a new warning model instance.
func NewWarning(db *bun.DB, logger *zap.Logger) *WarningModel {
	return &WarningModel{
		db:     db,
		logger: logger.Named("db_warning"),
	}
}

// Create stores a warning in the ledger.
func (m *WarningModel) Create(ctx context.Context, warning *types.Warning) error {
	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().Model(warning).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create warning: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Debug("Created warning",
		zap.Uint64("guildID", warning.GuildID),
		zap.Uint64("userID", warning.UserID),
		zap.String("reason", warning.Reason))

	return nil
}

// GetByUser retrieves the most recent warnings of a member, newest first.
func (m *WarningModel) GetByUser(ctx context.Context, guildID, userID uint64, limit int) ([]*types.Warning, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Warning, error) {
		var warnings []*types.Warning

		err := m.db.NewSelect().
			Model(&warnings).
			Where("guild_id = ?", guildID).
			Where("user_id = ?", userID).
			Order("created_at DESC", "id DESC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get warnings: %w", err)
		}

		return warnings, nil
	})
}

// CountByUser returns how many warnings a member has received.
func (m *WarningModel) CountByUser(ctx context.Context, guildID, userID uint64) (int, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int, error) {
		count, err := m.db.NewSelect().
			Model((*types.Warning)(nil)).
			Where("guild_id = ?", guildID).
			Where("user_id = ?", userID).
			Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count warnings: %w", err)
		}

		return count, nil
	})
}
