package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"cwl-bot/internal/coc"
	"cwl-bot/internal/embeds"
	"cwl-bot/internal/league"
	"cwl-bot/internal/season"
	"cwl-bot/internal/stats"
	"cwl-bot/internal/storage"
)

func testBuilder() *embeds.Builder {
	return embeds.NewBuilder(embeds.Colors{Default: 1, Success: 2, Warning: 3, Error: 4})
}

type fakeWarLog struct {
	entries []coc.WarLogEntry
	errs    []error
	calls   int
}

func (f *fakeWarLog) WarLog(_ context.Context, _ string, limit int) ([]coc.WarLogEntry, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.entries[:min(limit, len(f.entries))], nil
}

func logEntries(n int) []coc.WarLogEntry {
	entries := make([]coc.WarLogEntry, 0, n)
	for i := range n {
		entries = append(entries, coc.WarLogEntry{
			Result:   coc.WarResultWin,
			TeamSize: 15,
			Clan:     coc.WarLogClan{Tag: "#2PP", Name: "Alpha", Stars: 40},
			Opponent: coc.WarLogClan{Tag: fmt.Sprintf("#Q%d", i), Name: fmt.Sprintf("Rival %d", i), Stars: 30},
		})
	}
	return entries
}

func TestWarLogMenuPages(t *testing.T) {
	ctx := context.Background()
	api := &fakeWarLog{entries: logEntries(7)}
	menu := NewWarLogMenu(api, testBuilder(), "#2PP", "Alpha", 5)

	msg, err := menu.Render(ctx)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(msg.Embeds[0].Fields) != 5 || len(msg.Components) != 2 {
		t.Fatalf("expected five wars and a page row, got %d fields %d rows", len(msg.Embeds[0].Fields), len(msg.Components))
	}
	if _, err := menu.Handle(ctx, Event{Action: actionNext}); err != nil {
		t.Fatalf("next: %v", err)
	}
	msg, _ = menu.Render(ctx)
	if len(msg.Embeds[0].Fields) != 2 {
		t.Fatalf("expected two wars on the last page, got %d", len(msg.Embeds[0].Fields))
	}
	if api.calls != 1 {
		t.Fatalf("expected a single fetch, got %d", api.calls)
	}
}

func TestWarLogMenuPrivateLog(t *testing.T) {
	ctx := context.Background()
	api := &fakeWarLog{errs: []error{coc.ErrAccessDenied}}
	menu := NewWarLogMenu(api, testBuilder(), "#2PP", "Alpha", 5)

	msg, _ := menu.Render(ctx)
	if msg.Embeds[0].Description != embeds.ErrorMessage(coc.ErrAccessDenied) {
		t.Fatalf("unexpected description %q", msg.Embeds[0].Description)
	}
	_, _ = menu.Render(ctx)
	if api.calls != 1 {
		t.Fatalf("private log should not be refetched, got %d calls", api.calls)
	}
}

func TestWarLogMenuRetriesTransientErrors(t *testing.T) {
	ctx := context.Background()
	api := &fakeWarLog{entries: logEntries(2), errs: []error{coc.ErrMaintenance}}
	menu := NewWarLogMenu(api, testBuilder(), "#2PP", "Alpha", 5)

	msg, _ := menu.Render(ctx)
	if msg.Embeds[0].Description != embeds.ErrorMessage(coc.ErrMaintenance) {
		t.Fatalf("unexpected description %q", msg.Embeds[0].Description)
	}
	msg, _ = menu.Render(ctx)
	if len(msg.Embeds[0].Fields) != 2 || api.calls != 2 {
		t.Fatalf("expected retry to load two wars, got %d fields after %d calls", len(msg.Embeds[0].Fields), api.calls)
	}
}

type fakeLeague struct {
	current season.Season
	open    bool
	signups []storage.LeaguePlayer
	known   []storage.Account
	clans   []storage.LeagueClan
	rosters map[string][]storage.LeaguePlayer
	wars    map[string][]coc.ClanWar
	stats   map[string][]stats.PlayerStats

	registerErr   error
	rosterClanErr error
	registered    []string
	unregistered  []string
	warCalls      int
}

func newFakeLeague() *fakeLeague {
	return &fakeLeague{
		current: season.Of(time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC)),
		open:    true,
		rosters: map[string][]storage.LeaguePlayer{},
		wars:    map[string][]coc.ClanWar{},
		stats:   map[string][]stats.PlayerStats{},
	}
}

func (f *fakeLeague) RosterSeason() season.Season { return f.current }
func (f *fakeLeague) SignupSeason() season.Season { return f.current }
func (f *fakeLeague) SignupOpen() bool            { return f.open }
func (f *fakeLeague) SignupDeadline() time.Time   { return f.current.Start() }

func (f *fakeLeague) ParticipatingClans(context.Context, string) ([]storage.LeagueClan, error) {
	return f.clans, nil
}

func (f *fakeLeague) RosterClan(_ context.Context, tag string) (storage.LeagueClan, error) {
	if f.rosterClanErr != nil {
		return storage.LeagueClan{}, f.rosterClanErr
	}
	for _, clan := range f.clans {
		if clan.Tag == tag {
			return clan, nil
		}
	}
	return storage.LeagueClan{}, league.ErrClanNotParticipating
}

func (f *fakeLeague) Roster(_ context.Context, tag string) ([]storage.LeaguePlayer, error) {
	return f.rosters[tag], nil
}

func (f *fakeLeague) Register(_ context.Context, userID, tag string, group int) (storage.LeaguePlayer, error) {
	if f.registerErr != nil {
		return storage.LeaguePlayer{}, f.registerErr
	}
	player := storage.LeaguePlayer{Tag: tag, Name: "Chief", TownHall: 16, DiscordUserID: userID, Registered: true, LeagueGroup: group}
	f.signups = append(f.signups, player)
	f.registered = append(f.registered, fmt.Sprintf("%s:%d", tag, group))
	return player, nil
}

func (f *fakeLeague) Unregister(_ context.Context, _ string, tag string) error {
	f.unregistered = append(f.unregistered, tag)
	return nil
}

func (f *fakeLeague) UserSignups(context.Context, string) ([]storage.LeaguePlayer, error) {
	return f.signups, nil
}

func (f *fakeLeague) KnownAccounts(context.Context, string) ([]storage.Account, error) {
	return f.known, nil
}

func (f *fakeLeague) ClanWars(_ context.Context, tag string) ([]coc.ClanWar, error) {
	f.warCalls++
	wars, ok := f.wars[tag]
	if !ok {
		return nil, coc.ErrNotFound
	}
	return wars, nil
}

func (f *fakeLeague) PlayerSeasonStats(_ context.Context, tag string, _ []string) ([]stats.PlayerStats, error) {
	return f.stats[tag], nil
}

func firstEmbed(t *testing.T, menu *LeagueMenu) *discordgo.MessageEmbed {
	t.Helper()
	msg, err := menu.Render(context.Background())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return msg.Embeds[0]
}

func mustHandle(t *testing.T, menu *LeagueMenu, event Event) Reply {
	t.Helper()
	reply, err := menu.Handle(context.Background(), event)
	if err != nil {
		t.Fatalf("handle %s: %v", event.Action, err)
	}
	return reply
}

func TestLeagueMenuAddSignup(t *testing.T) {
	svc := newFakeLeague()
	svc.known = []storage.Account{{Tag: "#P2Y", Name: "Chief", TownHall: 16}}
	menu := NewLeagueMenu(svc, testBuilder(), "u1", 10)

	mustHandle(t, menu, Event{Action: actionAdd})
	if menu.State() != StateAddSignup {
		t.Fatalf("expected add state, got %s", menu.State())
	}
	mustHandle(t, menu, Event{Action: actionAccount, Values: []string{"#P2Y"}})
	mustHandle(t, menu, Event{Action: actionGroup, Values: []string{"2"}})
	if embed := firstEmbed(t, menu); !strings.Contains(embed.Description, "Chief (#P2Y)") {
		t.Fatalf("expected pending account in %q", embed.Description)
	}

	mustHandle(t, menu, Event{Action: actionConfirmAdd})
	if menu.State() != StateMain {
		t.Fatalf("expected main after confirm, got %s", menu.State())
	}
	if len(svc.registered) != 1 || svc.registered[0] != "#P2Y:2" {
		t.Fatalf("unexpected registrations %v", svc.registered)
	}
	if embed := firstEmbed(t, menu); embed.Title != "Signed up" {
		t.Fatalf("expected success notice, got %q", embed.Title)
	}
	if embed := firstEmbed(t, menu); embed.Title == "Signed up" {
		t.Fatalf("notice should only show once")
	}
}

func TestLeagueMenuConfirmNeedsChoices(t *testing.T) {
	menu := NewLeagueMenu(newFakeLeague(), testBuilder(), "u1", 10)
	mustHandle(t, menu, Event{Action: actionAdd})
	reply := mustHandle(t, menu, Event{Action: actionConfirmAdd})
	if reply.Kind != ReplyNotice {
		t.Fatalf("expected notice, got %v", reply.Kind)
	}
}

func TestLeagueMenuTagModal(t *testing.T) {
	svc := newFakeLeague()
	menu := NewLeagueMenu(svc, testBuilder(), "u1", 10)
	mustHandle(t, menu, Event{Action: actionAdd})

	reply := mustHandle(t, menu, Event{Action: actionEnterTag})
	if reply.Kind != ReplyModal || reply.Modal.Action != actionTagModal {
		t.Fatalf("expected tag modal, got %+v", reply)
	}

	mustHandle(t, menu, Event{Action: actionTagModal, Fields: map[string]string{tagInputID: "abc"}})
	if embed := firstEmbed(t, menu); embed.Description != embeds.ErrorMessage(coc.ErrInvalidTag) {
		t.Fatalf("expected invalid tag notice, got %q", embed.Description)
	}

	mustHandle(t, menu, Event{Action: actionTagModal, Fields: map[string]string{tagInputID: " p8y "}})
	mustHandle(t, menu, Event{Action: actionGroup, Values: []string{"1"}})
	mustHandle(t, menu, Event{Action: actionConfirmAdd})
	if len(svc.registered) != 1 || svc.registered[0] != "#P8Y:1" {
		t.Fatalf("unexpected registrations %v", svc.registered)
	}
}

func TestLeagueMenuRegisterFailure(t *testing.T) {
	svc := newFakeLeague()
	svc.registerErr = league.ErrTownHallTooLow
	menu := NewLeagueMenu(svc, testBuilder(), "u1", 10)
	mustHandle(t, menu, Event{Action: actionAdd})
	mustHandle(t, menu, Event{Action: actionTagModal, Fields: map[string]string{tagInputID: "#P2Y"}})
	mustHandle(t, menu, Event{Action: actionGroup, Values: []string{"3"}})
	mustHandle(t, menu, Event{Action: actionConfirmAdd})

	if menu.State() != StateAddSignup {
		t.Fatalf("expected to stay in add state, got %s", menu.State())
	}
	if embed := firstEmbed(t, menu); embed.Description != embeds.ErrorMessage(league.ErrTownHallTooLow) {
		t.Fatalf("unexpected notice %q", embed.Description)
	}

	svc.registerErr = errors.New("disk full")
	if _, err := menu.Handle(context.Background(), Event{Action: actionConfirmAdd}); err == nil {
		t.Fatalf("expected unexpected errors to propagate")
	}
}

func TestLeagueMenuSignupClosed(t *testing.T) {
	svc := newFakeLeague()
	svc.open = false
	menu := NewLeagueMenu(svc, testBuilder(), "u1", 10)

	msg, _ := menu.Render(context.Background())
	add := msg.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.Button)
	if !add.Disabled {
		t.Fatalf("expected add button disabled")
	}
	mustHandle(t, menu, Event{Action: actionAdd})
	if menu.State() != StateMain {
		t.Fatalf("expected to stay on main, got %s", menu.State())
	}
	if embed := firstEmbed(t, menu); embed.Description != embeds.ErrorMessage(league.ErrSignupClosed) {
		t.Fatalf("unexpected notice %q", embed.Description)
	}
}

func TestLeagueMenuRemoveSignup(t *testing.T) {
	svc := newFakeLeague()
	svc.signups = []storage.LeaguePlayer{{Tag: "#P2Y", Name: "Chief", TownHall: 16, Registered: true, LeagueGroup: 1}}
	menu := NewLeagueMenu(svc, testBuilder(), "u1", 10)

	mustHandle(t, menu, Event{Action: actionRemove})
	mustHandle(t, menu, Event{Action: actionSignup, Values: []string{"#P2Y"}})
	mustHandle(t, menu, Event{Action: actionConfirmRemove})
	if menu.State() != StateMain || len(svc.unregistered) != 1 || svc.unregistered[0] != "#P2Y" {
		t.Fatalf("unexpected state %s unregistered %v", menu.State(), svc.unregistered)
	}
}

func TestLeagueMenuBrowse(t *testing.T) {
	svc := newFakeLeague()
	svc.clans = []storage.LeagueClan{
		{Tag: "#2PP", Name: "Alpha", Participating: true},
		{Tag: "#YQQ", Name: "Bravo", Participating: true},
	}
	svc.rosters["#2PP"] = []storage.LeaguePlayer{{Tag: "#P2Y", Name: "Chief", TownHall: 16, RosterClan: "#2PP"}}
	svc.wars["#2PP"] = []coc.ClanWar{{
		State:    coc.WarStateEnded,
		TeamSize: 15,
		WarTag:   "#8QQ",
		Round:    0,
		Clan:     coc.WarClan{Tag: "#2PP", Name: "Alpha", Stars: 30},
		Opponent: coc.WarClan{Tag: "#9YY", Name: "Rival", Stars: 20},
	}}
	svc.stats["#YQQ"] = []stats.PlayerStats{{Tag: "#PQY", Name: "Other", TownHall: 15, Wars: 1}}
	menu := NewLeagueMenu(svc, testBuilder(), "u1", 10)

	mustHandle(t, menu, Event{Action: actionClans})
	msg, err := menu.Render(context.Background())
	if err != nil {
		t.Fatalf("render clan: %v", err)
	}
	if !strings.Contains(msg.Embeds[0].Fields[0].Value, "Chief") {
		t.Fatalf("expected roster listing, got %+v", msg.Embeds[0].Fields)
	}
	ids := customIDs(msg.Components)
	if ids[0] != actionClan || ids[1] != actionRound {
		t.Fatalf("expected clan and round selects, got %v", ids)
	}

	mustHandle(t, menu, Event{Action: actionRound, Values: []string{"0"}})
	if menu.State() != StateViewWar {
		t.Fatalf("expected war state, got %s", menu.State())
	}
	if embed := firstEmbed(t, menu); embed.Title != "Round 1: Alpha vs Rival" {
		t.Fatalf("unexpected war title %q", embed.Title)
	}
	if svc.warCalls != 1 {
		t.Fatalf("expected wars cached, got %d calls", svc.warCalls)
	}

	mustHandle(t, menu, Event{Action: actionRoster})
	mustHandle(t, menu, Event{Action: actionClan, Values: []string{"#YQQ"}})
	msg, _ = menu.Render(context.Background())
	for _, id := range customIDs(msg.Components) {
		if id == actionRound {
			t.Fatalf("clan outside the league should have no rounds")
		}
	}

	mustHandle(t, menu, Event{Action: actionClanStats})
	if embed := firstEmbed(t, menu); !strings.Contains(embed.Fields[0].Value, "Other") {
		t.Fatalf("expected stats table for Bravo, got %+v", embed.Fields)
	}

	mustHandle(t, menu, Event{Action: actionBack})
	if menu.State() != StateMain {
		t.Fatalf("expected main, got %s", menu.State())
	}
	if reply := mustHandle(t, menu, Event{Action: actionClose}); reply.Kind != ReplyClose {
		t.Fatalf("expected close")
	}
}

func TestLeagueMenuThroughManager(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()
	svc := newFakeLeague()
	_, msg, err := manager.Start(ctx, "u1", "app", "token", NewLeagueMenu(svc, testBuilder(), "u1", 10))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if ids := customIDs(msg.Components); ids[0] != "v:s1:add" {
		t.Fatalf("unexpected ids %v", ids)
	}

	if _, err := manager.Handle(ctx, "v:s1:add", Event{UserID: "u1"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	resp, err := manager.Handle(ctx, "v:s1:enter-tag", Event{UserID: "u1"})
	if err != nil {
		t.Fatalf("enter tag: %v", err)
	}
	if resp.Modal.CustomID != "v:s1:tag-modal" {
		t.Fatalf("unexpected modal id %q", resp.Modal.CustomID)
	}
}

func TestRosterMenuSwitchesClan(t *testing.T) {
	svc := newFakeLeague()
	svc.clans = []storage.LeagueClan{{Tag: "#2PP", Name: "Alpha"}, {Tag: "#YQQ", Name: "Bravo"}}
	for i := range 12 {
		svc.rosters["#2PP"] = append(svc.rosters["#2PP"], storage.LeaguePlayer{Tag: fmt.Sprintf("#P%d", i), Name: fmt.Sprintf("Alpha %02d", i), TownHall: 15})
	}
	svc.rosters["#YQQ"] = []storage.LeaguePlayer{{Tag: "#PQY", Name: "Bravo One", TownHall: 14}}
	ctx := context.Background()
	menu := NewRosterMenu(svc, testBuilder(), "", 10)

	msg, err := menu.Render(ctx)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(msg.Components) != 3 {
		t.Fatalf("expected select, pages and close rows, got %d", len(msg.Components))
	}
	_, _ = menu.Handle(ctx, Event{Action: actionNext})
	msg, _ = menu.Render(ctx)
	if msg.Embeds[0].Footer == nil || !strings.Contains(msg.Embeds[0].Footer.Text, "2/2") {
		t.Fatalf("expected second page footer, got %+v", msg.Embeds[0].Footer)
	}

	_, _ = menu.Handle(ctx, Event{Action: actionRosterClan, Values: []string{"#YQQ"}})
	msg, _ = menu.Render(ctx)
	if !strings.Contains(msg.Embeds[0].Fields[0].Value, "Bravo One") || len(msg.Components) != 2 {
		t.Fatalf("expected single page Bravo roster, got %+v", msg.Embeds[0].Fields)
	}
}

func TestRosterMenuRenderErrors(t *testing.T) {
	svc := newFakeLeague()
	svc.clans = []storage.LeagueClan{{Tag: "#2PP", Name: "Alpha"}}
	ctx := context.Background()

	menu := NewRosterMenu(svc, testBuilder(), "#YQQ", 10)
	msg, err := menu.Render(ctx)
	if err != nil {
		t.Fatalf("expected a known error to render, got %v", err)
	}
	if msg.Embeds[0].Color != testBuilder().Error(league.ErrClanNotParticipating).Color {
		t.Fatalf("expected an error embed, got %+v", msg.Embeds[0])
	}

	boom := errors.New("disk full")
	svc.rosterClanErr = boom
	if _, err := NewRosterMenu(svc, testBuilder(), "#2PP", 10).Render(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected unexpected error to be returned, got %v", err)
	}
}
