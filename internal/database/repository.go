package database

import (
	"github.com/robalyx/sweeper/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	warning *models.WarningModel
	action  *models.ActionModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		warning: models.NewWarning(db, logger),
		action:  models.NewAction(db, logger),
	}
}

// Warning returns the warning model repository.
func (r *Repository) Warning() *models.WarningModel {
	return r.warning
}

// Action returns the enforcement action model repository.
func (r *Repository) Action() *models.ActionModel {
	return r.action
}
