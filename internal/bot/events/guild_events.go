package events

import (
	"github.com/disgoorg/disgo/events"
	"go.uber.org/zap"
)

// GuildEventHandler logs the guild lifecycle events the bot sees.
type GuildEventHandler struct {
	logger *zap.Logger
}

// NewGuildEventHandler creates a new instance of the guild event handler.
func NewGuildEventHandler(logger *zap.Logger) *GuildEventHandler {
	return &GuildEventHandler{
		logger: logger.Named("guild_events"),
	}
}

// OnReady reports the session the gateway connected with.
func (h *GuildEventHandler) OnReady(event *events.Ready) {
	h.logger.Info("Connected to gateway",
		zap.String("user", event.User.Tag()),
		zap.Int("guilds", len(event.Guilds)))
}

// OnGuildJoin handles the event when the bot joins a new guild.
func (h *GuildEventHandler) OnGuildJoin(event *events.GuildJoin) {
	h.logger.Info("Bot joined a new guild",
		zap.String("guildID", event.Guild.ID.String()),
		zap.String("guildName", event.Guild.Name))
}

// OnGuildLeave handles the event when the bot is removed from a guild.
func (h *GuildEventHandler) OnGuildLeave(event *events.GuildLeave) {
	h.logger.Info("Bot left a guild",
		zap.String("guildID", event.Guild.ID.String()),
		zap.String("guildName", event.Guild.Name))
}
