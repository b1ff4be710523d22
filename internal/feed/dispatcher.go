package feed

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cwl-bot/internal/coc"
	"cwl-bot/internal/embeds"
	"cwl-bot/internal/storage"
)

type PlayerSource interface {
	Player(ctx context.Context, tag string) (coc.Player, error)
}

// WebhookExecutor is the slice of *discordgo.Session the dispatcher needs.
type WebhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DispatcherConfig struct {
	WebhookName string
	Concurrency int
}

// Dispatcher turns member events into webhook posts.
type Dispatcher struct {
	feeds    FeedStore
	players  PlayerSource
	webhooks WebhookExecutor
	builder  *embeds.Builder
	cfg      DispatcherConfig
	logger   *zap.Logger
}

func NewDispatcher(feeds FeedStore, players PlayerSource, webhooks WebhookExecutor, builder *embeds.Builder, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Dispatcher{feeds: feeds, players: players, webhooks: webhooks, builder: builder, cfg: cfg, logger: logger}
}

// Run consumes Topic until ctx is cancelled or the subscriber closes.
func (d *Dispatcher) Run(ctx context.Context, subscriber message.Subscriber) error {
	messages, err := subscriber.Subscribe(ctx, Topic)
	if err != nil {
		return err
	}
	for msg := range messages {
		d.Handle(ctx, msg)
		msg.Ack()
	}
	return nil
}

// Handle delivers one event to every feed of its clan. Failures are logged, never returned.
func (d *Dispatcher) Handle(ctx context.Context, msg *message.Message) {
	event, err := decode(msg)
	if err != nil {
		d.logger.Warn("dropping malformed member event", zap.String("uuid", msg.UUID), zap.Error(err))
		return
	}
	feeds, err := d.feeds.ListFeedsByClan(ctx, event.ClanTag)
	if err != nil {
		d.logger.Warn("feed lookup failed", zap.String("clan", event.ClanTag), zap.Error(err))
		return
	}
	if len(feeds) == 0 {
		return
	}

	var embed *discordgo.MessageEmbed
	switch event.Kind {
	case KindJoin:
		var player *coc.Player
		if p, err := d.players.Player(ctx, event.Member.Tag); err == nil {
			player = &p
		} else {
			d.logger.Debug("join enrichment failed", zap.String("player", event.Member.Tag), zap.Error(err))
		}
		embed = d.builder.MemberJoin(event.ClanName, event.Member, player)
	case KindLeave:
		embed = d.builder.MemberLeave(event.ClanName, event.Member)
	default:
		d.logger.Warn("unknown member event kind", zap.String("kind", string(event.Kind)))
		return
	}

	params := &discordgo.WebhookParams{
		Username: d.cfg.WebhookName,
		Embeds:   []*discordgo.MessageEmbed{embed},
	}
	var g errgroup.Group
	g.SetLimit(d.cfg.Concurrency)
	for _, feed := range feeds {
		g.Go(func() error {
			d.send(ctx, feed, params)
			return nil
		})
	}
	_ = g.Wait()
}

func (d *Dispatcher) send(ctx context.Context, feed storage.Feed, params *discordgo.WebhookParams) {
	_, err := d.webhooks.WebhookExecute(feed.WebhookID, feed.WebhookToken, false, params, discordgo.WithContext(ctx))
	if err == nil {
		return
	}
	if unknownWebhook(err) {
		// The webhook was deleted in Discord; the feed can never deliver again.
		if err := d.feeds.DeleteFeed(ctx, feed.ChannelID, feed.ClanTag); err != nil && !errors.Is(err, storage.ErrNotFound) {
			d.logger.Warn("stale feed removal failed", zap.String("channel_id", feed.ChannelID), zap.Error(err))
			return
		}
		d.logger.Info("removed feed with deleted webhook", zap.String("channel_id", feed.ChannelID), zap.String("clan", feed.ClanTag))
		return
	}
	d.logger.Warn("feed webhook failed",
		zap.String("channel_id", feed.ChannelID),
		zap.String("clan", feed.ClanTag),
		zap.Error(err))
}

func unknownWebhook(err error) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownWebhook
}
