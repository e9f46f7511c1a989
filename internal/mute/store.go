package mute

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/snowflake/v2"
	"github.com/redis/rueidis"
)

const (
	// RecordPrefix namespaces Redis keys storing active mutes.
	// Keys are formatted as "mute:{guildID}:{userID}".
	RecordPrefix = "mute:"
	// ExpiryKey is the sorted set of active mutes scored by expiry time in milliseconds.
	// Members are formatted as "{guildID}:{userID}".
	ExpiryKey = "mute_expiry"
)

// ErrInvalidMember indicates an expiry index member that does not name a guild member.
var ErrInvalidMember = errors.New("invalid mute index member")

// Record is an active mute.
type Record struct {
	GuildID   uint64    `json:"guildId"`
	UserID    uint64    `json:"userId"`
	Reason    string    `json:"reason"`
	AppliedAt time.Time `json:"appliedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Target identifies a muted guild member.
type Target struct {
	GuildID snowflake.ID
	UserID  snowflake.ID
}

func (t Target) member() string {
	return fmt.Sprintf("%d:%d", t.GuildID, t.UserID)
}

func (t Target) key() string {
	return RecordPrefix + t.member()
}

// parseTarget reads a target back from an expiry index member.
func parseTarget(member string) (Target, error) {
	guildPart, userPart, ok := strings.Cut(member, ":")
	if !ok {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalidMember, member)
	}

	guildID, err := snowflake.Parse(guildPart)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q: %w", ErrInvalidMember, member, err)
	}

	userID, err := snowflake.Parse(userPart)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q: %w", ErrInvalidMember, member, err)
	}

	return Target{GuildID: guildID, UserID: userID}, nil
}

// Store keeps mute records in Redis. Each record expires on its own and is also
// indexed in a sorted set so expired mutes can be lifted.
type Store struct {
	client rueidis.Client
}

// NewStore creates a new mute store.
func NewStore(client rueidis.Client) *Store {
	return &Store{client: client}
}

// Put saves the record and schedules its expiry.
func (s *Store) Put(ctx context.Context, record *Record) error {
	data, err := sonic.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal mute record: %w", err)
	}

	ttl := record.ExpiresAt.Sub(record.AppliedAt)
	if ttl <= 0 {
		return fmt.Errorf("mute record for %d expires before it starts", record.UserID)
	}

	target := Target{GuildID: snowflake.ID(record.GuildID), UserID: snowflake.ID(record.UserID)}

	for _, resp := range s.client.DoMulti(ctx,
		s.client.B().Set().Key(target.key()).Value(string(data)).Ex(ttl).Build(),
		s.client.B().Zadd().Key(ExpiryKey).ScoreMember().
			ScoreMember(float64(record.ExpiresAt.UnixMilli()), target.member()).Build(),
	) {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("failed to store mute record: %w", err)
		}
	}

	return nil
}

// Get returns the active record for the member, or nil when they are not muted.
func (s *Store) Get(ctx context.Context, target Target) (*Record, error) {
	data, err := s.client.Do(ctx, s.client.B().Get().Key(target.key()).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get mute record: %w", err)
	}

	var record Record
	if err := sonic.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mute record: %w", err)
	}

	return &record, nil
}

// Delete removes the record and its expiry entry.
func (s *Store) Delete(ctx context.Context, target Target) error {
	for _, resp := range s.client.DoMulti(ctx,
		s.client.B().Del().Key(target.key()).Build(),
		s.client.B().Zrem().Key(ExpiryKey).Member(target.member()).Build(),
	) {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("failed to delete mute record: %w", err)
		}
	}

	return nil
}

// Expired returns the members whose mute ended at or before the given time.
// Malformed index members are removed and skipped.
func (s *Store) Expired(ctx context.Context, now time.Time) ([]Target, error) {
	members, err := s.client.Do(ctx, s.client.B().Zrangebyscore().Key(ExpiryKey).
		Min("-inf").Max(strconv.FormatInt(now.UnixMilli(), 10)).Build()).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to list expired mutes: %w", err)
	}

	targets := make([]Target, 0, len(members))
	for _, member := range members {
		target, err := parseTarget(member)
		if err != nil {
			_ = s.client.Do(ctx, s.client.B().Zrem().Key(ExpiryKey).Member(member).Build()).Error()
			continue
		}

		targets = append(targets, target)
	}

	return targets, nil
}
