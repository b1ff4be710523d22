package bot

import (
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"cwl-bot/internal/coc"
	"cwl-bot/internal/embeds"
	"cwl-bot/internal/stats"
	"cwl-bot/internal/storage"
)

func testBuilder() *embeds.Builder {
	return embeds.NewBuilder(embeds.Colors{Default: 1, Success: 2, Warning: 3, Error: 4})
}

func TestCommandsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, cmd := range Commands() {
		if seen[cmd.Name] {
			t.Fatalf("duplicate command %q", cmd.Name)
		}
		seen[cmd.Name] = true
		if len(cmd.Description) == 0 || len(cmd.Description) > 100 {
			t.Fatalf("command %q has invalid description length %d", cmd.Name, len(cmd.Description))
		}
		subs := make(map[string]bool)
		for _, opt := range cmd.Options {
			if opt.Type != discordgo.ApplicationCommandOptionSubCommand {
				continue
			}
			if subs[opt.Name] {
				t.Fatalf("duplicate subcommand /%s %s", cmd.Name, opt.Name)
			}
			subs[opt.Name] = true
		}
	}
	for _, name := range []string{"cwl", "clan", "player", "war", "warlog", "warbase", "feed"} {
		if !seen[name] {
			t.Fatalf("missing command %q", name)
		}
	}
}

func TestFeedCommandNeedsWebhookPermission(t *testing.T) {
	for _, cmd := range Commands() {
		if cmd.Name != "feed" {
			continue
		}
		if cmd.DefaultMemberPermissions == nil || *cmd.DefaultMemberPermissions&discordgo.PermissionManageWebhooks == 0 {
			t.Fatalf("expected manage webhooks permission, got %v", cmd.DefaultMemberPermissions)
		}
		return
	}
	t.Fatalf("feed command not found")
}

type fakeCommandAPI struct {
	existing []*discordgo.ApplicationCommand
	created  []string
	edited   []string
	deleted  []string
	listErr  error
}

func (f *fakeCommandAPI) ApplicationCommands(_, _ string, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	return f.existing, f.listErr
}

func (f *fakeCommandAPI) ApplicationCommandCreate(_, _ string, cmd *discordgo.ApplicationCommand, _ ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	f.created = append(f.created, cmd.Name)
	return cmd, nil
}

func (f *fakeCommandAPI) ApplicationCommandEdit(_, _, cmdID string, cmd *discordgo.ApplicationCommand, _ ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	f.edited = append(f.edited, cmdID)
	return cmd, nil
}

func (f *fakeCommandAPI) ApplicationCommandDelete(_, _, cmdID string, _ ...discordgo.RequestOption) error {
	f.deleted = append(f.deleted, cmdID)
	return nil
}

func TestSyncCommands(t *testing.T) {
	api := &fakeCommandAPI{existing: []*discordgo.ApplicationCommand{
		{ID: "1", Name: "clan"},
		{ID: "2", Name: "verify"},
	}}
	commands := []*discordgo.ApplicationCommand{{Name: "clan"}, {Name: "war"}}

	if err := SyncCommands(api, "app", "guild", commands, zap.NewNop()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if strings.Join(api.edited, ",") != "1" {
		t.Fatalf("expected clan edited, got %v", api.edited)
	}
	if strings.Join(api.created, ",") != "war" {
		t.Fatalf("expected war created, got %v", api.created)
	}
	if strings.Join(api.deleted, ",") != "2" {
		t.Fatalf("expected stale command deleted, got %v", api.deleted)
	}
}

func TestClearCommandsDeletesEverything(t *testing.T) {
	api := &fakeCommandAPI{existing: []*discordgo.ApplicationCommand{{ID: "1", Name: "clan"}, {ID: "2", Name: "war"}}}
	if err := ClearCommands(api, "app", "", zap.NewNop()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(api.deleted) != 2 || len(api.created) != 0 {
		t.Fatalf("unexpected calls: created %v deleted %v", api.created, api.deleted)
	}
}

func TestSyncCommandsListError(t *testing.T) {
	boom := errors.New("boom")
	api := &fakeCommandAPI{listErr: boom}
	if err := SyncCommands(api, "app", "", Commands(), zap.NewNop()); !errors.Is(err, boom) {
		t.Fatalf("expected list error, got %v", err)
	}
}

func TestModalFields(t *testing.T) {
	components := []discordgo.MessageComponent{
		&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			&discordgo.TextInput{CustomID: "tag", Value: "#P2Y"},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{CustomID: "notes", Value: "anti 3"},
		}},
	}
	fields := modalFields(components)
	if fields["tag"] != "#P2Y" || fields["notes"] != "anti 3" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestOptionTag(t *testing.T) {
	opts := optionMap([]*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "clan", Type: discordgo.ApplicationCommandOptionString, Value: " p2y "},
		{Name: "bad", Type: discordgo.ApplicationCommandOptionString, Value: "#ABC"},
		{Name: "group", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(3)},
		{Name: "participate", Type: discordgo.ApplicationCommandOptionBoolean, Value: false},
	})
	tag, err := opts.tag("clan")
	if err != nil || tag != "#P2Y" {
		t.Fatalf("expected #P2Y, got %q %v", tag, err)
	}
	if _, err := opts.tag("bad"); !errors.Is(err, coc.ErrInvalidTag) {
		t.Fatalf("expected invalid tag, got %v", err)
	}
	if _, err := opts.tag("missing"); !errors.Is(err, coc.ErrInvalidTag) {
		t.Fatalf("expected invalid tag for missing option, got %v", err)
	}
	if opts.intValue("group") != 3 || opts.intValue("missing") != 0 {
		t.Fatalf("unexpected int values")
	}
	if value, ok := opts.boolValue("participate"); value || !ok {
		t.Fatalf("expected explicit false, got %v %v", value, ok)
	}
	if _, ok := opts.boolValue("roster_open"); ok {
		t.Fatalf("expected missing bool option")
	}
}

func TestSignupPages(t *testing.T) {
	players := make([]storage.LeaguePlayer, 5)
	for idx := range players {
		players[idx] = storage.LeaguePlayer{Tag: "#P2Y", Name: "Alpha", TownHall: 15, LeagueGroup: 1}
	}
	pages := signupPages(testBuilder(), "November 2026", "<t:0:f>", true, players, 2)
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	if pages[2].Footer == nil || pages[2].Footer.Text != "Page 3/3 • 5 accounts" {
		t.Fatalf("unexpected footer %+v", pages[2].Footer)
	}

	empty := signupPages(testBuilder(), "November 2026", "<t:0:f>", false, nil, 10)
	if len(empty) != 1 {
		t.Fatalf("expected a single page, got %d", len(empty))
	}
	if empty[0].Footer == nil || empty[0].Footer.Text != "CWL Bot" {
		t.Fatalf("expected the default footer on a single page, got %+v", empty[0].Footer)
	}
}

func TestStatsPages(t *testing.T) {
	rows := make([]stats.PlayerStats, 11)
	for idx := range rows {
		rows[idx] = stats.PlayerStats{Tag: "#P2Y", Name: "Alpha", Wars: 1}
	}
	if pages := statsPages(testBuilder(), "Stats", rows, 5); len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
}

func TestPickLeagueWar(t *testing.T) {
	if _, ok := pickLeagueWar(nil); ok {
		t.Fatalf("expected no war")
	}
	wars := []coc.ClanWar{
		{State: coc.WarStateEnded, Round: 1},
		{State: coc.WarStatePreparation, Round: 3},
		{State: coc.WarStateInWar, Round: 2},
	}
	if war, _ := pickLeagueWar(wars); war.Round != 2 {
		t.Fatalf("expected the war in progress, got round %d", war.Round)
	}
	if war, _ := pickLeagueWar(wars[:2]); war.Round != 3 {
		t.Fatalf("expected preparation, got round %d", war.Round)
	}
	ended := []coc.ClanWar{{State: coc.WarStateEnded, Round: 1}, {State: coc.WarStateEnded, Round: 4}}
	if war, _ := pickLeagueWar(ended); war.Round != 4 {
		t.Fatalf("expected latest round, got %d", war.Round)
	}
}

func TestUserAndAdmin(t *testing.T) {
	guild := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Member: &discordgo.Member{User: &discordgo.User{ID: "u1"}, Permissions: discordgo.PermissionManageServer},
	}}
	if userID(guild) != "u1" || !isAdmin(guild) {
		t.Fatalf("expected guild admin u1")
	}
	direct := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{User: &discordgo.User{ID: "u2"}}}
	if userID(direct) != "u2" || isAdmin(direct) {
		t.Fatalf("expected non-admin u2")
	}
}
