package database

import (
	"github.com/robalyx/sweeper/internal/database/service"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Service provides access to all business logic services.
type Service struct {
	moderation *service.ModerationService
}

// NewService creates a new service instance with all services.
func NewService(_ *bun.DB, repository *Repository, logger *zap.Logger) *Service {
	return &Service{
		moderation: service.NewModeration(repository.Warning(), repository.Action(), logger),
	}
}

// Moderation returns the moderation service.
func (s *Service) Moderation() *service.ModerationService {
	return s.moderation
}
