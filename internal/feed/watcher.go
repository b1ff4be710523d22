package feed

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"

	"cwl-bot/internal/coc"
	"cwl-bot/internal/storage"
)

type ClanSource interface {
	Clan(ctx context.Context, tag string) (coc.Clan, error)
}

type FeedStore interface {
	ListFeedClans(ctx context.Context) ([]string, error)
	ListFeedsByClan(ctx context.Context, clanTag string) ([]storage.Feed, error)
	DeleteFeed(ctx context.Context, channelID, clanTag string) error
}

// Watcher polls clans with feeds and publishes member movement.
// Snapshots live in memory, so the first poll after a restart only seeds them.
type Watcher struct {
	api       ClanSource
	feeds     FeedStore
	publisher message.Publisher
	interval  time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu        sync.Mutex
	snapshots map[string][]coc.ClanMember
}

func NewWatcher(api ClanSource, feeds FeedStore, publisher message.Publisher, interval time.Duration, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Watcher{
		api:       api,
		feeds:     feeds,
		publisher: publisher,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
		snapshots: make(map[string][]coc.ClanMember),
	}
}

// Run polls until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if err := w.Poll(ctx); err != nil && ctx.Err() == nil {
			w.logger.Warn("feed poll failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Poll fetches every watched clan once and publishes the differences.
func (w *Watcher) Poll(ctx context.Context) error {
	tags, err := w.feeds.ListFeedClans(ctx)
	if err != nil {
		return err
	}
	w.forget(tags)

	for _, tag := range tags {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		clan, err := w.api.Clan(ctx, tag)
		if err != nil {
			w.logger.Debug("feed clan fetch failed", zap.String("clan", tag), zap.Error(err))
			continue
		}

		w.mu.Lock()
		before, seeded := w.snapshots[tag]
		w.snapshots[tag] = clan.MemberList
		w.mu.Unlock()
		if !seeded {
			continue
		}

		for _, event := range Diff(clan, before, w.now()) {
			msg, err := encode(event)
			if err != nil {
				return err
			}
			if err := w.publisher.Publish(Topic, msg); err != nil {
				return err
			}
			w.logger.Debug("member event published",
				zap.String("clan", tag),
				zap.String("kind", string(event.Kind)),
				zap.String("member", event.Member.Tag))
		}
	}
	return nil
}

// forget drops snapshots of clans that no longer have a feed.
func (w *Watcher) forget(watched []string) {
	keep := make(map[string]struct{}, len(watched))
	for _, tag := range watched {
		keep[tag] = struct{}{}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for tag := range w.snapshots {
		if _, ok := keep[tag]; !ok {
			delete(w.snapshots, tag)
		}
	}
}
