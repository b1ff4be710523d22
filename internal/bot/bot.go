package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"cwl-bot/internal/coc"
	"cwl-bot/internal/config"
	"cwl-bot/internal/embeds"
	"cwl-bot/internal/league"
	"cwl-bot/internal/storage"
	"cwl-bot/internal/views"
	"cwl-bot/internal/warbase"
)

// API is the game API surface used by command handlers.
type API interface {
	Clan(ctx context.Context, tag string) (coc.Clan, error)
	Player(ctx context.Context, tag string) (coc.Player, error)
	CurrentWar(ctx context.Context, clanTag string) (coc.ClanWar, error)
	WarLog(ctx context.Context, clanTag string, limit int) ([]coc.WarLogEntry, error)
}

type Services struct {
	API      API
	League   *league.Service
	WarBases *warbase.Service
	Feeds    storage.FeedRepository
	Views    *views.Manager
	Builder  *embeds.Builder
}

type Bot struct {
	cfg      config.Config
	logger   *zap.Logger
	session  *discordgo.Session
	api      API
	league   *league.Service
	warbases *warbase.Service
	feeds    storage.FeedRepository
	views    *views.Manager
	builder  *embeds.Builder
}

func New(cfg config.Config, logger *zap.Logger, services Services) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	return &Bot{
		cfg:      cfg,
		logger:   logger,
		session:  session,
		api:      services.API,
		league:   services.League,
		warbases: services.WarBases,
		feeds:    services.Feeds,
		views:    services.Views,
		builder:  services.Builder,
	}, nil
}

// Session exposes the Discord session for webhook delivery.
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onInteractionCreate)
	b.views.OnExpire(b.expireView)

	if err := b.session.Open(); err != nil {
		return err
	}
	if err := SyncCommands(b.session, b.session.State.User.ID, b.cfg.GuildID, Commands(), b.logger); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	return nil
}

func (b *Bot) Close(ctx context.Context) {
	_ = ctx
	b.views.Shutdown()
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready",
		zap.String("user", session.State.User.Username),
		zap.Int("guilds", len(event.Guilds)))
}

// expireView greys out a timed-out menu in place.
func (b *Bot) expireView(session *views.Session, msg views.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := b.session.InteractionResponseEdit(
		&discordgo.Interaction{AppID: session.AppID, Token: session.Token},
		&discordgo.WebhookEdit{Embeds: &msg.Embeds, Components: &msg.Components},
		discordgo.WithContext(ctx),
	)
	if err != nil {
		b.logger.Debug("expired view edit failed", zap.String("session", session.ID), zap.Error(err))
	}
}
