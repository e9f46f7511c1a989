package platform

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/sweeper/internal/moderation"
	"github.com/robalyx/sweeper/internal/mute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// delayedDeleteTimeout bounds the request issued when a delayed deletion fires.
const delayedDeleteTimeout = 10 * time.Second

var (
	_ moderation.Permissions  = (*Adapter)(nil)
	_ moderation.InviteSource = (*Adapter)(nil)
	_ moderation.Messenger    = (*Adapter)(nil)
	_ mute.RoleEditor         = (*Adapter)(nil)
)

// Adapter performs moderation side effects through the Discord REST API and answers
// member questions from the gateway cache, falling back to REST on a cache miss.
type Adapter struct {
	client       bot.Client
	bypassRoleID snowflake.ID
	inviteGroup  singleflight.Group
	pending      sync.WaitGroup
	logger       *zap.Logger
}

// New creates a new platform adapter.
func New(client bot.Client, bypassRoleID snowflake.ID, logger *zap.Logger) *Adapter {
	return &Adapter{
		client:       client,
		bypassRoleID: bypassRoleID,
		logger:       logger.Named("platform"),
	}
}

// Wait blocks until every scheduled deletion has run.
func (a *Adapter) Wait() {
	a.pending.Wait()
}

// HasManageMessages reports whether the member may manage messages in the guild.
func (a *Adapter) HasManageMessages(ctx context.Context, guildID, userID snowflake.ID) (bool, error) {
	member, err := a.member(ctx, guildID, userID)
	if err != nil {
		return false, err
	}

	return a.client.Caches().MemberPermissions(member).Has(discord.PermissionManageMessages), nil
}

// HasBypassRole reports whether the member holds the antispam bypass role.
func (a *Adapter) HasBypassRole(ctx context.Context, guildID, userID snowflake.ID) (bool, error) {
	if a.bypassRoleID == 0 {
		return false, nil
	}

	member, err := a.member(ctx, guildID, userID)
	if err != nil {
		return false, err
	}

	return slices.Contains(member.RoleIDs, a.bypassRoleID), nil
}

// ActiveInviteCodes lists the invite codes of the guild.
// Concurrent lookups for the same guild share a single request.
func (a *Adapter) ActiveInviteCodes(ctx context.Context, guildID snowflake.ID) (map[string]struct{}, error) {
	result, err, _ := a.inviteGroup.Do(strconv.FormatUint(uint64(guildID), 10), func() (any, error) {
		invites, err := a.client.Rest().GetGuildInvites(guildID, rest.WithCtx(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to get guild invites: %w", err)
		}

		codes := make(map[string]struct{}, len(invites))
		for _, invite := range invites {
			codes[invite.Code] = struct{}{}
		}

		return codes, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(map[string]struct{}), nil
}

// DeleteMessage removes a message, after the given delay when it is positive.
// Delayed deletions run in the background and only log their failures.
func (a *Adapter) DeleteMessage(ctx context.Context, channelID, messageID snowflake.ID, delay time.Duration) error {
	if delay <= 0 {
		if err := a.client.Rest().DeleteMessage(channelID, messageID, rest.WithCtx(ctx)); err != nil {
			return fmt.Errorf("failed to delete message: %w", err)
		}

		return nil
	}

	a.pending.Add(1)
	time.AfterFunc(delay, func() {
		defer a.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), delayedDeleteTimeout)
		defer cancel()

		if err := a.client.Rest().DeleteMessage(channelID, messageID, rest.WithCtx(ctx)); err != nil {
			a.logger.Warn("Failed to delete message after delay",
				zap.Error(err),
				zap.Uint64("channelID", uint64(channelID)),
				zap.Uint64("messageID", uint64(messageID)))
		}
	})

	return nil
}

// SendDirectMessage opens a DM channel with the user and sends the content.
func (a *Adapter) SendDirectMessage(ctx context.Context, userID snowflake.ID, content string) error {
	channel, err := a.client.Rest().CreateDMChannel(userID, rest.WithCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to create DM channel: %w", err)
	}

	_, err = a.client.Rest().CreateMessage(channel.ID(), discord.NewMessageCreateBuilder().
		SetContent(content).
		Build(), rest.WithCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to send direct message: %w", err)
	}

	return nil
}

// SendChannelMessage posts a message to a guild channel and returns its id.
func (a *Adapter) SendChannelMessage(
	ctx context.Context, channelID snowflake.ID, message discord.MessageCreate,
) (snowflake.ID, error) {
	sent, err := a.client.Rest().CreateMessage(channelID, message, rest.WithCtx(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to send channel message: %w", err)
	}

	return sent.ID, nil
}

// AddMemberRole gives the member a role.
func (a *Adapter) AddMemberRole(ctx context.Context, guildID, userID, roleID snowflake.ID, reason string) error {
	return a.client.Rest().AddMemberRole(guildID, userID, roleID, rest.WithCtx(ctx), rest.WithReason(reason))
}

// RemoveMemberRole takes a role away from the member.
func (a *Adapter) RemoveMemberRole(ctx context.Context, guildID, userID, roleID snowflake.ID, reason string) error {
	return a.client.Rest().RemoveMemberRole(guildID, userID, roleID, rest.WithCtx(ctx), rest.WithReason(reason))
}

// member returns the guild member from the cache or REST.
func (a *Adapter) member(ctx context.Context, guildID, userID snowflake.ID) (discord.Member, error) {
	if member, ok := a.client.Caches().Member(guildID, userID); ok {
		return member, nil
	}

	member, err := a.client.Rest().GetMember(guildID, userID, rest.WithCtx(ctx))
	if err != nil {
		return discord.Member{}, fmt.Errorf("failed to get member: %w", err)
	}

	return *member, nil
}
