package moderation

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Signal is the escalation level produced by the repetition tracker.
type Signal int

const (
	// SignalNone requires no action.
	SignalNone Signal = iota
	// SignalSoftWarn deletes the message and posts a short-lived public notice.
	SignalSoftWarn
	// SignalHardAction deletes the message and mutes the author.
	SignalHardAction
)

// String returns the metric label for the signal.
func (s Signal) String() string {
	switch s {
	case SignalNone:
		return "none"
	case SignalSoftWarn:
		return "soft_warn"
	case SignalHardAction:
		return "hard_action"
	default:
		return "unknown"
	}
}

// minDistinctLength is the content length below which every message counts toward the burst.
const minDistinctLength = 2

// UserSpamState is the repetition state of one member in one guild.
type UserSpamState struct {
	LastNormalizedContent string
	OccurrenceCount       int
	LastMessageAt         time.Time
}

// Transition applies one message to the prior state. A nil prior means the author has no state yet.
// The result depends only on the prior state and the message content and timestamp.
func Transition(prior *UserSpamState, msg *Message, burstWindow time.Duration, warnThreshold int) (UserSpamState, Signal) {
	var state UserSpamState
	if prior == nil {
		state = UserSpamState{
			LastNormalizedContent: msg.NormalizedContent,
			OccurrenceCount:       0,
			LastMessageAt:         msg.CreatedAt,
		}
	} else {
		state = *prior
	}

	sameBurst := msg.NormalizedContent == state.LastNormalizedContent ||
		utf8.RuneCountInString(msg.NormalizedContent) < minDistinctLength ||
		msg.CreatedAt.Sub(state.LastMessageAt) < burstWindow

	if sameBurst {
		state.OccurrenceCount++
	} else {
		state.LastNormalizedContent = msg.NormalizedContent
		state.OccurrenceCount = 1
	}

	state.LastMessageAt = msg.CreatedAt

	signal := SignalNone
	if state.OccurrenceCount == warnThreshold {
		signal = SignalSoftWarn
	}

	if state.OccurrenceCount > warnThreshold {
		signal = SignalHardAction
	}

	return state, signal
}

// EscalateFunc acts on a non-None signal while the author's state is locked.
// Returning true resets the occurrence counter to zero.
type EscalateFunc func(ctx context.Context, signal Signal, state UserSpamState) (reset bool)

type trackerEntry struct {
	mu      sync.Mutex
	state   UserSpamState
	seen    bool
	touched time.Time
	evicted bool
}

// RepetitionTracker owns the per-member repetition state.
// Observations for the same member are serialized; different members never contend beyond the map lookup.
type RepetitionTracker struct {
	settings *Settings
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	entries map[UserKey]*trackerEntry
}

// NewRepetitionTracker creates a new repetition tracker.
func NewRepetitionTracker(settings *Settings, logger *zap.Logger) *RepetitionTracker {
	return &RepetitionTracker{
		settings: settings,
		logger:   logger.Named("repetition_tracker"),
		now:      time.Now,
		entries:  make(map[UserKey]*trackerEntry),
	}
}

// Observe feeds a message into the author's state machine and returns the resulting signal.
// Bot and bypassed authors are ignored and never get state.
func (t *RepetitionTracker) Observe(ctx context.Context, msg *Message, escalate EscalateFunc) Signal {
	if msg.AuthorIsBot || msg.AuthorHasBypass {
		return SignalNone
	}

	key := msg.Key()

	for {
		entry := t.acquire(key)

		entry.mu.Lock()
		if entry.evicted {
			// Lost a race with the sweeper, retry with a fresh entry
			entry.mu.Unlock()
			continue
		}

		var prior *UserSpamState
		if entry.seen {
			prior = &entry.state
		}

		state, signal := Transition(prior, msg, t.settings.BurstWindow, t.settings.RepetitionWarnThreshold)
		entry.state = state
		entry.seen = true
		entry.touched = t.now()

		if signal != SignalNone {
			t.logger.Debug("Repetition signal",
				zap.Uint64("guildID", uint64(key.GuildID)),
				zap.Uint64("userID", uint64(key.UserID)),
				zap.Int("count", state.OccurrenceCount),
				zap.String("signal", signal.String()))

			if escalate != nil && escalate(ctx, signal, state) {
				entry.state.OccurrenceCount = 0
			}
		}

		entry.mu.Unlock()

		return signal
	}
}

// State returns a copy of the member's state.
func (t *RepetitionTracker) State(key UserKey) (UserSpamState, bool) {
	t.mu.Lock()
	entry, ok := t.entries[key]
	t.mu.Unlock()

	if !ok {
		return UserSpamState{}, false
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.evicted || !entry.seen {
		return UserSpamState{}, false
	}

	return entry.state, true
}

// Len returns the number of tracked members.
func (t *RepetitionTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.entries)
}

// Run evicts idle state until the context is cancelled. It returns immediately when eviction is disabled.
func (t *RepetitionTracker) Run(ctx context.Context) {
	ttl := t.settings.TrackerIdleTTL
	if ttl <= 0 {
		return
	}

	interval := min(ttl/2, time.Minute)
	if interval <= 0 {
		interval = ttl
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := t.EvictIdle(); evicted > 0 {
				t.logger.Debug("Evicted idle repetition state", zap.Int("count", evicted))
			}
		}
	}
}

// EvictIdle drops state untouched for longer than the idle TTL and returns how many entries were dropped.
// Entries currently being observed are skipped.
func (t *RepetitionTracker) EvictIdle() int {
	ttl := t.settings.TrackerIdleTTL
	if ttl <= 0 {
		return 0
	}

	now := t.now()
	evicted := 0

	t.mu.Lock()
	defer t.mu.Unlock()

	for key, entry := range t.entries {
		if !entry.mu.TryLock() {
			continue
		}

		if now.Sub(entry.touched) > ttl {
			entry.evicted = true
			delete(t.entries, key)
			evicted++
		}

		entry.mu.Unlock()
	}

	trackedUsers.Set(float64(len(t.entries)))

	return evicted
}

// acquire returns the entry for the key, creating it when missing.
func (t *RepetitionTracker) acquire(key UserKey) *trackerEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[key]
	if !ok {
		entry = &trackerEntry{touched: t.now()}
		t.entries[key] = entry
		trackedUsers.Set(float64(len(t.entries)))
	}

	return entry
}
