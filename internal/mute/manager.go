package mute

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"
)

// RoleEditor changes member roles on the chat platform.
type RoleEditor interface {
	AddMemberRole(ctx context.Context, guildID, userID, roleID snowflake.ID, reason string) error
	RemoveMemberRole(ctx context.Context, guildID, userID, roleID snowflake.ID, reason string) error
}

// unmuteReason is the audit log reason used when a mute runs out.
const unmuteReason = "Mute expired."

// Manager applies timed mutes with the mute role and lifts them once they expire.
type Manager struct {
	store    *Store
	roles    RoleEditor
	roleID   snowflake.ID
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewManager creates a new mute manager.
func NewManager(store *Store, roles RoleEditor, roleID snowflake.ID, interval time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		store:    store,
		roles:    roles,
		roleID:   roleID,
		interval: interval,
		logger:   logger.Named("mute_manager"),
		now:      time.Now,
	}
}

// IsMuted reports whether the member currently has an active mute.
func (m *Manager) IsMuted(ctx context.Context, guildID, userID snowflake.ID) (bool, error) {
	record, err := m.store.Get(ctx, Target{GuildID: guildID, UserID: userID})
	if err != nil {
		return false, err
	}

	return record != nil && record.ExpiresAt.After(m.now()), nil
}

// ApplyMute gives the member the mute role and records when it should be lifted.
func (m *Manager) ApplyMute(ctx context.Context, guildID, userID snowflake.ID, duration time.Duration, reason string) error {
	if err := m.roles.AddMemberRole(ctx, guildID, userID, m.roleID, reason); err != nil {
		return fmt.Errorf("failed to add mute role: %w", err)
	}

	now := m.now()
	record := &Record{
		GuildID:   uint64(guildID),
		UserID:    uint64(userID),
		Reason:    reason,
		AppliedAt: now,
		ExpiresAt: now.Add(duration),
	}

	if err := m.store.Put(ctx, record); err != nil {
		return err
	}

	m.logger.Info("Muted member",
		zap.Uint64("guildID", uint64(guildID)),
		zap.Uint64("userID", uint64(userID)),
		zap.Duration("duration", duration),
		zap.String("reason", reason))

	return nil
}

// Unmute lifts a mute early.
func (m *Manager) Unmute(ctx context.Context, guildID, userID snowflake.ID, reason string) error {
	target := Target{GuildID: guildID, UserID: userID}

	if err := m.roles.RemoveMemberRole(ctx, guildID, userID, m.roleID, reason); err != nil {
		return fmt.Errorf("failed to remove mute role: %w", err)
	}

	return m.store.Delete(ctx, target)
}

// Run lifts expired mutes on every interval until the context is cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Sweep(ctx); err != nil {
				m.logger.Error("Failed to sweep expired mutes", zap.Error(err))
			}
		}
	}
}

// Sweep lifts every mute that has expired and returns how many were lifted.
// Members whose role could not be removed stay in the index and are retried on the next sweep.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	targets, err := m.store.Expired(ctx, m.now())
	if err != nil {
		return 0, err
	}

	lifted := 0

	for _, target := range targets {
		if err := m.Unmute(ctx, target.GuildID, target.UserID, unmuteReason); err != nil {
			m.logger.Warn("Failed to lift expired mute",
				zap.Error(err),
				zap.Uint64("guildID", uint64(target.GuildID)),
				zap.Uint64("userID", uint64(target.UserID)))

			continue
		}

		lifted++

		m.logger.Info("Lifted expired mute",
			zap.Uint64("guildID", uint64(target.GuildID)),
			zap.Uint64("userID", uint64(target.UserID)))
	}

	return lifted, nil
}
