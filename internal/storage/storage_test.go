package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestMigrateTwice(t *testing.T) {
	store := newTestStore(t)
	if err := store.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestUpsertLeagueClan(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	clan := LeagueClan{Season: "2026-10", Tag: "#2PP", Name: "Alpha", Participating: true, RosterOpen: true}
	if err := store.UpsertLeagueClan(ctx, clan); err != nil {
		t.Fatalf("upsert clan: %v", err)
	}
	clan.RosterOpen = false
	clan.League = "Master League I"
	if err := store.UpsertLeagueClan(ctx, clan); err != nil {
		t.Fatalf("update clan: %v", err)
	}

	got, err := store.GetLeagueClan(ctx, "2026-10", "#2PP")
	if err != nil {
		t.Fatalf("get clan: %v", err)
	}
	if got.RosterOpen || !got.Participating || got.League != "Master League I" {
		t.Fatalf("unexpected clan: %+v", got)
	}

	if _, err := store.GetLeagueClan(ctx, "2026-11", "#2PP"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for other season, got %v", err)
	}

	clans, err := store.ListLeagueClans(ctx, "2026-10")
	if err != nil {
		t.Fatalf("list clans: %v", err)
	}
	if len(clans) != 1 {
		t.Fatalf("expected 1 clan, got %d", len(clans))
	}
}

func TestLeaguePlayers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	players := []LeaguePlayer{
		{Season: "2026-10", Tag: "#AAA", Name: "low", TownHall: 13, DiscordUserID: "u1", Registered: true, LeagueGroup: 2},
		{Season: "2026-10", Tag: "#BBB", Name: "high", TownHall: 16, DiscordUserID: "u1", Registered: true, LeagueGroup: 1, RosterClan: "#2PP"},
		{Season: "2026-10", Tag: "#CCC", Name: "gone", TownHall: 15, DiscordUserID: "u2", Registered: false},
	}
	for _, player := range players {
		if err := store.UpsertLeaguePlayer(ctx, player); err != nil {
			t.Fatalf("upsert player: %v", err)
		}
	}

	all, err := store.ListLeaguePlayers(ctx, "2026-10")
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	if len(all) != 2 || all[0].Tag != "#BBB" {
		t.Fatalf("expected registered players by town hall, got %+v", all)
	}

	mine, err := store.ListLeaguePlayersByUser(ctx, "2026-10", "u1")
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 signups for u1, got %d", len(mine))
	}

	roster, err := store.ListLeaguePlayersByRoster(ctx, "2026-10", "#2PP")
	if err != nil {
		t.Fatalf("list roster: %v", err)
	}
	if len(roster) != 1 || roster[0].Name != "high" {
		t.Fatalf("unexpected roster: %+v", roster)
	}

	got, err := store.GetLeaguePlayer(ctx, "2026-10", "#CCC")
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if got.Registered {
		t.Fatalf("expected unregistered player")
	}
}

func TestListAccountsByUserDedupes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := LeaguePlayer{Season: "2026-09", Tag: "#AAA", Name: "old name", TownHall: 14, DiscordUserID: "u1", UpdatedAt: time.Unix(100, 0)}
	fresh := LeaguePlayer{Season: "2026-10", Tag: "#AAA", Name: "new name", TownHall: 15, DiscordUserID: "u1", UpdatedAt: time.Unix(200, 0)}
	for _, player := range []LeaguePlayer{old, fresh} {
		if err := store.UpsertLeaguePlayer(ctx, player); err != nil {
			t.Fatalf("upsert player: %v", err)
		}
	}

	accounts, err := store.ListAccountsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
	if accounts[0].Name != "new name" || accounts[0].TownHall != 15 {
		t.Fatalf("expected latest account data, got %+v", accounts[0])
	}
}

func TestWarBaseClaims(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := WarBase{ID: "b1", TownHall: 16, Link: "https://link.clashofclans.com/en?action=OpenLayout&id=TH16%3AWB%3Aabc", AddedBy: "u1"}
	if err := store.InsertWarBase(ctx, base); err != nil {
		t.Fatalf("insert base: %v", err)
	}

	for _, user := range []string{"u2", "u3", "u2"} {
		if err := store.AddWarBaseClaim(ctx, "b1", user); err != nil {
			t.Fatalf("claim %s: %v", user, err)
		}
	}
	got, err := store.GetWarBase(ctx, "b1")
	if err != nil {
		t.Fatalf("get base: %v", err)
	}
	if len(got.Claims) != 2 {
		t.Fatalf("expected 2 claims, got %v", got.Claims)
	}

	if err := store.RemoveWarBaseClaim(ctx, "b1", "u2"); err != nil {
		t.Fatalf("unclaim: %v", err)
	}
	if err := store.RemoveWarBaseClaim(ctx, "b1", "u9"); err != nil {
		t.Fatalf("unclaim missing user: %v", err)
	}
	got, err = store.GetWarBase(ctx, "b1")
	if err != nil {
		t.Fatalf("get base: %v", err)
	}
	if len(got.Claims) != 1 || got.Claims[0] != "u3" {
		t.Fatalf("expected only u3, got %v", got.Claims)
	}

	if err := store.AddWarBaseClaim(ctx, "missing", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found claiming missing base, got %v", err)
	}
}

func TestConcurrentWarBaseClaims(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.InsertWarBase(ctx, WarBase{ID: "b1", TownHall: 15}); err != nil {
		t.Fatalf("insert base: %v", err)
	}

	users := []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7", "u8"}
	var wg sync.WaitGroup
	errs := make(chan error, len(users))
	for _, user := range users {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			errs <- store.AddWarBaseClaim(ctx, "b1", user)
		}(user)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("claim: %v", err)
		}
	}

	got, err := store.GetWarBase(ctx, "b1")
	if err != nil {
		t.Fatalf("get base: %v", err)
	}
	if len(got.Claims) != len(users) {
		t.Fatalf("expected %d claims, got %d", len(users), len(got.Claims))
	}
}

func TestListAndDeleteWarBases(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, base := range []WarBase{{ID: "a", TownHall: 15}, {ID: "b", TownHall: 16}, {ID: "c", TownHall: 16}} {
		if err := store.InsertWarBase(ctx, base); err != nil {
			t.Fatalf("insert base: %v", err)
		}
	}

	th16, err := store.ListWarBases(ctx, 16)
	if err != nil {
		t.Fatalf("list bases: %v", err)
	}
	if len(th16) != 2 {
		t.Fatalf("expected 2 th16 bases, got %d", len(th16))
	}
	all, err := store.ListWarBases(ctx, 0)
	if err != nil {
		t.Fatalf("list all bases: %v", err)
	}
	if len(all) != 3 || all[0].TownHall != 16 {
		t.Fatalf("unexpected bases: %+v", all)
	}

	if err := store.AddWarBaseClaim(ctx, "b", "u1"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := store.DeleteWarBase(ctx, "b"); err != nil {
		t.Fatalf("delete base: %v", err)
	}
	if err := store.DeleteWarBase(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if _, err := store.GetWarBase(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted base to be gone, got %v", err)
	}
}

func TestFeeds(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	feeds := []Feed{
		{ChannelID: "c1", GuildID: "g1", ClanTag: "#2PP", WebhookID: "w1", WebhookToken: "t1"},
		{ChannelID: "c2", GuildID: "g1", ClanTag: "#2PP", WebhookID: "w2", WebhookToken: "t2"},
		{ChannelID: "c1", GuildID: "g1", ClanTag: "#YQQ", WebhookID: "w1", WebhookToken: "t1"},
	}
	for _, feed := range feeds {
		if err := store.UpsertFeed(ctx, feed); err != nil {
			t.Fatalf("upsert feed: %v", err)
		}
	}

	clans, err := store.ListFeedClans(ctx)
	if err != nil {
		t.Fatalf("list feed clans: %v", err)
	}
	if len(clans) != 2 {
		t.Fatalf("expected 2 clans, got %v", clans)
	}

	if err := store.DeleteFeed(ctx, "c2", "#2PP"); err != nil {
		t.Fatalf("delete feed: %v", err)
	}
	if err := store.DeleteFeed(ctx, "c2", "#2PP"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	got, err := store.ListFeedsByClan(ctx, "#2PP")
	if err != nil {
		t.Fatalf("list feeds: %v", err)
	}
	if len(got) != 1 || got[0].ChannelID != "c1" {
		t.Fatalf("unexpected feeds: %+v", got)
	}
}
