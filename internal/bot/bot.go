package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/sweeper/internal/bot/platform"
	guildEvents "github.com/robalyx/sweeper/internal/bot/events"
	"github.com/robalyx/sweeper/internal/database"
	"github.com/robalyx/sweeper/internal/moderation"
	"github.com/robalyx/sweeper/internal/mute"
	"github.com/robalyx/sweeper/internal/redis"
	"github.com/robalyx/sweeper/internal/setup/config"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const (
	// messageTimeout bounds the handling of a single message.
	messageTimeout = 30 * time.Second

	defaultWorkerCount = 32
)

// ErrModeratorNotReady is returned by Start when the bot identity could not be resolved.
var ErrModeratorNotReady = errors.New("moderator not ready")

// Bot connects the antispam core to Discord. Each guild message is handled as an
// independent task on a bounded worker pool.
type Bot struct {
	client    bot.Client
	settings  *moderation.Settings
	adapter   *platform.Adapter
	mutes     *mute.Manager
	db        database.Client
	moderator *moderation.Moderator
	self      snowflake.ID
	pool      *pool.Pool
	workers   conc.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	logger    *zap.Logger
}

// New initializes a Bot instance with its Discord client, mute manager and adapter.
func New(cfg *config.Config, db database.Client, redisManager *redis.Manager, logger *zap.Logger) (*Bot, error) {
	settings, err := moderation.NewSettings(&cfg.Bot.Moderation)
	if err != nil {
		return nil, err
	}

	muteClient, err := redisManager.GetClient(redis.MuteDBIndex)
	if err != nil {
		return nil, err
	}

	workerCount := cfg.Bot.Discord.WorkerCount
	if workerCount <= 0 {
		workerCount = defaultWorkerCount
	}

	ctx, cancel := context.WithCancel(context.Background())

	b := &Bot{
		settings: settings,
		db:       db,
		pool:     pool.New().WithMaxGoroutines(workerCount),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger.Named("bot"),
	}

	guildHandler := guildEvents.NewGuildEventHandler(logger)

	// Configure Discord client with required gateway intents and event handlers
	client, err := disgo.New(cfg.Bot.Discord.Token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMessages,
				gateway.IntentMessageContent,
				gateway.IntentGuildMembers,
			),
		),
		bot.WithCacheConfigOpts(
			cache.WithCaches(cache.FlagGuilds, cache.FlagChannels, cache.FlagRoles, cache.FlagMembers),
		),
		bot.WithEventListeners(&events.ListenerAdapter{
			OnReady:              guildHandler.OnReady,
			OnGuildJoin:          guildHandler.OnGuildJoin,
			OnGuildLeave:         guildHandler.OnGuildLeave,
			OnGuildMessageCreate: b.handleGuildMessage,
		}),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create discord client: %w", err)
	}

	b.client = client
	b.adapter = platform.New(client, settings.BypassRoleID, logger)
	b.mutes = mute.NewManager(
		mute.NewStore(muteClient),
		b.adapter,
		settings.MuteRoleID,
		settings.MuteSweepInterval,
		logger,
	)

	return b, nil
}

// Start resolves the bot identity, starts the background sweepers and opens the gateway.
func (b *Bot) Start(ctx context.Context) error {
	self, err := b.client.Rest().GetCurrentUser("")
	if err != nil {
		return fmt.Errorf("%w: failed to get current user: %w", ErrModeratorNotReady, err)
	}

	b.self = self.ID
	b.moderator = moderation.NewModerator(b.settings, moderation.Identity{
		UserID:    self.ID,
		Tag:       self.Tag(),
		AvatarURL: self.EffectiveAvatarURL(),
	}, moderation.Dependencies{
		Invites:   b.adapter,
		Messenger: b.adapter,
		Ledger:    b.db.Service().Moderation(),
		Mutes:     b.mutes,
		Recorder:  b.db.Service().Moderation(),
	}, b.logger)

	b.workers.Go(func() { b.moderator.Run(b.ctx) })
	b.workers.Go(func() { b.mutes.Run(b.ctx) })

	b.logger.Info("Starting bot", zap.String("user", self.Tag()))

	return b.client.OpenGateway(ctx)
}

// Close disconnects from the gateway, waits for in-flight messages and stops the sweepers.
func (b *Bot) Close(ctx context.Context) {
	b.logger.Info("Closing bot")

	b.client.Close(ctx)
	b.pool.Wait()
	b.cancel()
	b.workers.Wait()
	b.adapter.Wait()
}

// handleGuildMessage queues a guild message for moderation. The bot's own messages are ignored.
func (b *Bot) handleGuildMessage(event *events.GuildMessageCreate) {
	if b.moderator == nil || event.Message.Author.ID == b.self {
		return
	}

	b.pool.Go(func() {
		b.process(event)
	})
}

// process moderates a single message. Panics are logged instead of taking down the pool.
func (b *Bot) process(event *events.GuildMessageCreate) {
	ctx, cancel := context.WithTimeout(b.ctx, messageTimeout)
	defer cancel()

	var catcher panics.Catcher
	catcher.Try(func() {
		msg, err := b.adapter.Convert(ctx, event)
		if err != nil {
			b.logger.Warn("Skipping message",
				zap.Error(err),
				zap.Uint64("guildID", uint64(event.GuildID)),
				zap.Uint64("messageID", uint64(event.MessageID)))

			return
		}

		// Notification failures are already logged and reported to moderators
		_ = b.moderator.Handle(ctx, msg)
	})

	if recovered := catcher.Recovered(); recovered != nil {
		b.logger.Error("Message handler panicked",
			zap.Error(recovered.AsError()),
			zap.Uint64("messageID", uint64(event.MessageID)))
	}
}
