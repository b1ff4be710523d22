package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("storage: not found")

// LeagueClan is a clan's league registration for one season.
type LeagueClan struct {
	Season        string
	Tag           string
	Name          string
	Participating bool
	RosterOpen    bool
	League        string
	UpdatedAt     time.Time
}

// LeaguePlayer is an account's signup for one season.
type LeaguePlayer struct {
	Season        string
	Tag           string
	Name          string
	TownHall      int
	DiscordUserID string
	Registered    bool
	LeagueGroup   int
	RosterClan    string
	UpdatedAt     time.Time
}

// Account is an in-game account a Discord user has signed up before.
type Account struct {
	Tag      string
	Name     string
	TownHall int
}

// WarBase is a shared base layout; Claims holds the Discord users using it.
type WarBase struct {
	ID       string
	TownHall int
	Link     string
	Notes    string
	AddedBy  string
	AddedAt  time.Time
	Claims   []string
}

// Feed routes a clan's member movements to a channel webhook.
type Feed struct {
	ChannelID    string
	GuildID      string
	ClanTag      string
	WebhookID    string
	WebhookToken string
	CreatedAt    time.Time
}

type LeagueRepository interface {
	UpsertLeagueClan(ctx context.Context, clan LeagueClan) error
	GetLeagueClan(ctx context.Context, season, tag string) (LeagueClan, error)
	ListLeagueClans(ctx context.Context, season string) ([]LeagueClan, error)

	UpsertLeaguePlayer(ctx context.Context, player LeaguePlayer) error
	GetLeaguePlayer(ctx context.Context, season, tag string) (LeaguePlayer, error)
	ListLeaguePlayers(ctx context.Context, season string) ([]LeaguePlayer, error)
	ListLeaguePlayersByUser(ctx context.Context, season, userID string) ([]LeaguePlayer, error)
	ListLeaguePlayersByRoster(ctx context.Context, season, clanTag string) ([]LeaguePlayer, error)
	ListAccountsByUser(ctx context.Context, userID string) ([]Account, error)
}

type WarBaseRepository interface {
	InsertWarBase(ctx context.Context, base WarBase) error
	GetWarBase(ctx context.Context, id string) (WarBase, error)
	ListWarBases(ctx context.Context, townHall int) ([]WarBase, error)
	DeleteWarBase(ctx context.Context, id string) error
	AddWarBaseClaim(ctx context.Context, id, userID string) error
	RemoveWarBaseClaim(ctx context.Context, id, userID string) error
}

type FeedRepository interface {
	UpsertFeed(ctx context.Context, feed Feed) error
	DeleteFeed(ctx context.Context, channelID, clanTag string) error
	ListFeedsByClan(ctx context.Context, clanTag string) ([]Feed, error)
	ListFeedClans(ctx context.Context) ([]string, error)
}

// Repository is implemented by the SQLite store and the Mongo store.
type Repository interface {
	LeagueRepository
	WarBaseRepository
	FeedRepository
	Close(ctx context.Context) error
}
