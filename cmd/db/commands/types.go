package commands

import (
	"errors"
	"io"

	"github.com/robalyx/sweeper/internal/database"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

var (
	ErrNameRequired   = errors.New("NAME argument required")
	ErrMemberRequired = errors.New("GUILD_ID and USER_ID arguments required")
)

// CLIDependencies holds the common dependencies needed by CLI commands.
type CLIDependencies struct {
	DB       database.Client
	Migrator *migrate.Migrator
	Logger   *zap.Logger
	Out      io.Writer
}
