package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

func (s *Store) UpsertLeagueClan(ctx context.Context, clan LeagueClan) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO league_clans (season, tag, name, participating, roster_open, league, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(season, tag) DO UPDATE SET
			name = excluded.name,
			participating = excluded.participating,
			roster_open = excluded.roster_open,
			league = excluded.league,
			updated_at = excluded.updated_at
	`,
		clan.Season,
		clan.Tag,
		clan.Name,
		boolToInt(clan.Participating),
		boolToInt(clan.RosterOpen),
		clan.League,
		unixOrNow(clan.UpdatedAt, s.now),
	)
	return err
}

func (s *Store) GetLeagueClan(ctx context.Context, season, tag string) (LeagueClan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT season, tag, name, participating, roster_open, league, updated_at
		FROM league_clans WHERE season = ? AND tag = ?`, season, tag)
	clan, err := scanLeagueClan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return LeagueClan{}, ErrNotFound
	}
	return clan, err
}

func (s *Store) ListLeagueClans(ctx context.Context, season string) ([]LeagueClan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT season, tag, name, participating, roster_open, league, updated_at
		FROM league_clans WHERE season = ? ORDER BY name, tag`, season)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clans []LeagueClan
	for rows.Next() {
		clan, err := scanLeagueClan(rows)
		if err != nil {
			return nil, err
		}
		clans = append(clans, clan)
	}
	return clans, rows.Err()
}

func (s *Store) UpsertLeaguePlayer(ctx context.Context, player LeaguePlayer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO league_players (season, tag, name, town_hall, discord_user_id, registered, league_group, roster_clan, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(season, tag) DO UPDATE SET
			name = excluded.name,
			town_hall = excluded.town_hall,
			discord_user_id = excluded.discord_user_id,
			registered = excluded.registered,
			league_group = excluded.league_group,
			roster_clan = excluded.roster_clan,
			updated_at = excluded.updated_at
	`,
		player.Season,
		player.Tag,
		player.Name,
		player.TownHall,
		player.DiscordUserID,
		boolToInt(player.Registered),
		player.LeagueGroup,
		player.RosterClan,
		unixOrNow(player.UpdatedAt, s.now),
	)
	return err
}

func (s *Store) GetLeaguePlayer(ctx context.Context, season, tag string) (LeaguePlayer, error) {
	row := s.db.QueryRowContext(ctx, playerColumns+` WHERE season = ? AND tag = ?`, season, tag)
	player, err := scanLeaguePlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return LeaguePlayer{}, ErrNotFound
	}
	return player, err
}

func (s *Store) ListLeaguePlayers(ctx context.Context, season string) ([]LeaguePlayer, error) {
	return s.queryLeaguePlayers(ctx, playerColumns+` WHERE season = ? AND registered = 1 ORDER BY town_hall DESC, name`, season)
}

func (s *Store) ListLeaguePlayersByUser(ctx context.Context, season, userID string) ([]LeaguePlayer, error) {
	return s.queryLeaguePlayers(ctx, playerColumns+` WHERE season = ? AND discord_user_id = ? AND registered = 1 ORDER BY town_hall DESC, name`, season, userID)
}

func (s *Store) ListLeaguePlayersByRoster(ctx context.Context, season, clanTag string) ([]LeaguePlayer, error) {
	return s.queryLeaguePlayers(ctx, playerColumns+` WHERE season = ? AND roster_clan = ? AND registered = 1 ORDER BY town_hall DESC, name`, season, clanTag)
}

func (s *Store) ListAccountsByUser(ctx context.Context, userID string) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tag, name, town_hall FROM league_players
		WHERE discord_user_id = ?
		ORDER BY updated_at DESC, season DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	var accounts []Account
	for rows.Next() {
		var account Account
		if err := rows.Scan(&account.Tag, &account.Name, &account.TownHall); err != nil {
			return nil, err
		}
		if _, ok := seen[account.Tag]; ok {
			continue
		}
		seen[account.Tag] = struct{}{}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

const playerColumns = `
	SELECT season, tag, name, town_hall, discord_user_id, registered, league_group, roster_clan, updated_at
	FROM league_players`

func (s *Store) queryLeaguePlayers(ctx context.Context, query string, args ...any) ([]LeaguePlayer, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []LeaguePlayer
	for rows.Next() {
		player, err := scanLeaguePlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, player)
	}
	return players, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLeagueClan(row scanner) (LeagueClan, error) {
	var clan LeagueClan
	var participating, rosterOpen int
	var updated int64
	if err := row.Scan(&clan.Season, &clan.Tag, &clan.Name, &participating, &rosterOpen, &clan.League, &updated); err != nil {
		return LeagueClan{}, err
	}
	clan.Participating = participating == 1
	clan.RosterOpen = rosterOpen == 1
	clan.UpdatedAt = time.Unix(updated, 0)
	return clan, nil
}

func scanLeaguePlayer(row scanner) (LeaguePlayer, error) {
	var player LeaguePlayer
	var registered int
	var updated int64
	err := row.Scan(
		&player.Season,
		&player.Tag,
		&player.Name,
		&player.TownHall,
		&player.DiscordUserID,
		&registered,
		&player.LeagueGroup,
		&player.RosterClan,
		&updated,
	)
	if err != nil {
		return LeaguePlayer{}, err
	}
	player.Registered = registered == 1
	player.UpdatedAt = time.Unix(updated, 0)
	return player, nil
}
