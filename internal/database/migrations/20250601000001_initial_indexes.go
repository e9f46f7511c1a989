package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			-- Warning ledger lookups by member
			CREATE INDEX IF NOT EXISTS idx_warnings_guild_user_time
			ON warnings (guild_id, user_id, created_at DESC, id DESC);

			-- Enforcement history by member
			CREATE INDEX IF NOT EXISTS idx_enforcement_actions_guild_user_time
			ON enforcement_actions (guild_id, user_id, created_at DESC, id DESC);

			CREATE INDEX IF NOT EXISTS idx_enforcement_actions_rule_time
			ON enforcement_actions (rule, created_at DESC);
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			DROP INDEX IF EXISTS idx_warnings_guild_user_time;
			DROP INDEX IF EXISTS idx_enforcement_actions_guild_user_time;
			DROP INDEX IF EXISTS idx_enforcement_actions_rule_time;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop indexes: %w", err)
		}

		return nil
	})
}
