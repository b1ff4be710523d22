package storage

import (
	"context"
	"time"
)

func (s *Store) UpsertFeed(ctx context.Context, feed Feed) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feeds (channel_id, guild_id, clan_tag, webhook_id, webhook_token, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(channel_id, clan_tag) DO UPDATE SET
			guild_id = excluded.guild_id,
			webhook_id = excluded.webhook_id,
			webhook_token = excluded.webhook_token
	`, feed.ChannelID, feed.GuildID, feed.ClanTag, feed.WebhookID, feed.WebhookToken, unixOrNow(feed.CreatedAt, s.now))
	return err
}

func (s *Store) DeleteFeed(ctx context.Context, channelID, clanTag string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM feeds WHERE channel_id = ? AND clan_tag = ?`, channelID, clanTag)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListFeedsByClan(ctx context.Context, clanTag string) ([]Feed, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT channel_id, guild_id, clan_tag, webhook_id, webhook_token, created_at
		FROM feeds WHERE clan_tag = ? ORDER BY created_at`, clanTag)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		var feed Feed
		var created int64
		if err := rows.Scan(&feed.ChannelID, &feed.GuildID, &feed.ClanTag, &feed.WebhookID, &feed.WebhookToken, &created); err != nil {
			return nil, err
		}
		feed.CreatedAt = time.Unix(created, 0)
		feeds = append(feeds, feed)
	}
	return feeds, rows.Err()
}

func (s *Store) ListFeedClans(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT clan_tag FROM feeds ORDER BY clan_tag`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
