package views

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"cwl-bot/internal/coc"
	"cwl-bot/internal/embeds"
	"cwl-bot/internal/emoji"
	"cwl-bot/internal/league"
	"cwl-bot/internal/season"
	"cwl-bot/internal/stats"
	"cwl-bot/internal/storage"
)

type State string

const (
	StateMain         State = "main"
	StateAddSignup    State = "add-signup"
	StateRemoveSignup State = "remove-signup"
	StateViewClan     State = "view-clan"
	StateViewWar      State = "view-war"
	StateViewStats    State = "view-stats"
)

const (
	actionAdd           = "add"
	actionRemove        = "remove"
	actionClans         = "clans"
	actionStats         = "stats"
	actionBack          = "back"
	actionAccount       = "account"
	actionEnterTag      = "enter-tag"
	actionTagModal      = "tag-modal"
	actionGroup         = "group"
	actionConfirmAdd    = "confirm-add"
	actionSignup        = "signup"
	actionConfirmRemove = "confirm-remove"
	actionClan          = "clan"
	actionRound         = "round"
	actionRoster        = "roster"
	actionClanStats     = "clan-stats"

	tagInputID = "tag"
)

type LeagueService interface {
	RosterSource
	SignupSeason() season.Season
	SignupOpen() bool
	SignupDeadline() time.Time
	Register(ctx context.Context, userID, tag string, group int) (storage.LeaguePlayer, error)
	Unregister(ctx context.Context, userID, tag string) error
	UserSignups(ctx context.Context, userID string) ([]storage.LeaguePlayer, error)
	KnownAccounts(ctx context.Context, userID string) ([]storage.Account, error)
	ClanWars(ctx context.Context, clanTag string) ([]coc.ClanWar, error)
	PlayerSeasonStats(ctx context.Context, clanTag string, tags []string) ([]stats.PlayerStats, error)
}

type pendingSignup struct {
	tag   string
	name  string
	group int
}

// LeagueMenu is the signup and league browser. Edits stay pending in the session until confirmed.
type LeagueMenu struct {
	svc      LeagueService
	builder  *embeds.Builder
	userID   string
	pageSize int

	state  State
	notice *discordgo.MessageEmbed

	add    pendingSignup
	remove string

	clanTag   string
	round     int
	wars      []coc.ClanWar
	warsFor   string
	rows      []stats.PlayerStats
	rowsFor   string
	rowsErr   error
	paginator *Paginator
}

func NewLeagueMenu(svc LeagueService, builder *embeds.Builder, userID string, pageSize int) *LeagueMenu {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &LeagueMenu{
		svc:       svc,
		builder:   builder,
		userID:    userID,
		pageSize:  pageSize,
		state:     StateMain,
		paginator: NewPaginator(1),
	}
}

func (m *LeagueMenu) State() State { return m.state }

func (m *LeagueMenu) Render(ctx context.Context) (Message, error) {
	var (
		msg Message
		err error
	)
	switch m.state {
	case StateAddSignup:
		msg, err = m.renderAdd(ctx)
	case StateRemoveSignup:
		msg, err = m.renderRemove(ctx)
	case StateViewClan:
		msg, err = m.renderClan(ctx)
	case StateViewWar:
		msg, err = m.renderWar(ctx)
	case StateViewStats:
		msg, err = m.renderStats(ctx)
	default:
		msg, err = m.renderMain(ctx)
	}
	if err != nil {
		return Message{}, err
	}
	if m.notice != nil {
		msg.Embeds = append([]*discordgo.MessageEmbed{m.notice}, msg.Embeds...)
		m.notice = nil
	}
	return msg, nil
}

func (m *LeagueMenu) Handle(ctx context.Context, event Event) (Reply, error) {
	switch event.Action {
	case actionClose:
		return Close(), nil
	case actionBack:
		m.transition(StateMain)
		return Update(), nil
	case actionAdd:
		if !m.svc.SignupOpen() {
			m.notice = m.builder.Error(league.ErrSignupClosed)
			return Update(), nil
		}
		m.add = pendingSignup{}
		m.transition(StateAddSignup)
		return Update(), nil
	case actionRemove:
		m.remove = ""
		m.transition(StateRemoveSignup)
		return Update(), nil
	case actionClans, actionRoster:
		m.transition(StateViewClan)
		return Update(), nil
	case actionStats, actionClanStats:
		m.transition(StateViewStats)
		return Update(), nil
	}

	switch m.state {
	case StateAddSignup:
		return m.handleAdd(ctx, event)
	case StateRemoveSignup:
		return m.handleRemove(ctx, event)
	case StateViewClan, StateViewWar, StateViewStats:
		return m.handleBrowse(event)
	}
	return Reply{}, fmt.Errorf("unknown action %q in state %s", event.Action, m.state)
}

func (m *LeagueMenu) transition(state State) {
	m.state = state
	m.paginator.Reset()
}

func (m *LeagueMenu) handleAdd(ctx context.Context, event Event) (Reply, error) {
	switch event.Action {
	case actionAccount:
		m.add.tag = event.Value()
		m.add.name = ""
		accounts, err := m.svc.KnownAccounts(ctx, m.userID)
		if err != nil {
			return Reply{}, err
		}
		for _, account := range accounts {
			if account.Tag == m.add.tag {
				m.add.name = account.Name
			}
		}
		return Update(), nil
	case actionEnterTag:
		return OpenModal(Modal{
			Action: actionTagModal,
			Title:  "Add an account",
			Inputs: []TextInput{{ID: tagInputID, Label: "Player tag", Placeholder: "#2PP0JCR", MinLength: 3, MaxLength: 15}},
		}), nil
	case actionTagModal:
		tag := coc.NormalizeTag(event.Fields[tagInputID])
		if !coc.ValidTag(tag) {
			m.notice = m.builder.Error(coc.ErrInvalidTag)
			return Update(), nil
		}
		m.add.tag = tag
		m.add.name = ""
		return Update(), nil
	case actionGroup:
		group, err := strconv.Atoi(event.Value())
		if err != nil || group < league.MinGroup || group > league.MaxGroup {
			m.notice = m.builder.Error(league.ErrInvalidGroup)
			return Update(), nil
		}
		m.add.group = group
		return Update(), nil
	case actionConfirmAdd:
		if m.add.tag == "" || m.add.group == 0 {
			return Notice(m.builder.Warning("Incomplete signup", "Pick an account and a league group first.")), nil
		}
		record, err := m.svc.Register(ctx, m.userID, m.add.tag, m.add.group)
		if err != nil {
			if unexpected(err) {
				return Reply{}, err
			}
			m.notice = m.builder.Error(err)
			return Update(), nil
		}
		m.notice = m.builder.Success("Signed up", fmt.Sprintf("%s %s is registered for %s in group %d.", emoji.TownHall(record.TownHall), record.Name, m.svc.SignupSeason(), record.LeagueGroup))
		m.add = pendingSignup{}
		m.transition(StateMain)
		return Update(), nil
	}
	return Reply{}, fmt.Errorf("unknown action %q in state %s", event.Action, m.state)
}

func (m *LeagueMenu) handleRemove(ctx context.Context, event Event) (Reply, error) {
	switch event.Action {
	case actionSignup:
		m.remove = event.Value()
		return Update(), nil
	case actionConfirmRemove:
		if m.remove == "" {
			return Notice(m.builder.Warning("Nothing selected", "Pick an account to withdraw first.")), nil
		}
		if err := m.svc.Unregister(ctx, m.userID, m.remove); err != nil {
			if unexpected(err) {
				return Reply{}, err
			}
			m.notice = m.builder.Error(err)
			return Update(), nil
		}
		m.notice = m.builder.Success("Signup withdrawn", fmt.Sprintf("%s is no longer registered for %s.", m.remove, m.svc.SignupSeason()))
		m.remove = ""
		m.transition(StateMain)
		return Update(), nil
	}
	return Reply{}, fmt.Errorf("unknown action %q in state %s", event.Action, m.state)
}

func (m *LeagueMenu) handleBrowse(event Event) (Reply, error) {
	switch event.Action {
	case actionClan:
		if tag := event.Value(); tag != "" && tag != m.clanTag {
			m.clanTag = tag
			m.round = 0
			m.paginator.Reset()
		}
		return Update(), nil
	case actionRound:
		round, err := strconv.Atoi(event.Value())
		if err != nil || round < 0 {
			return Reply{}, fmt.Errorf("bad round %q", event.Value())
		}
		m.round = round
		m.state = StateViewWar
		return Update(), nil
	}
	if m.state != StateViewWar && m.paginator.Handle(event.Action) {
		return Update(), nil
	}
	return Reply{}, fmt.Errorf("unknown action %q in state %s", event.Action, m.state)
}

func (m *LeagueMenu) renderMain(ctx context.Context) (Message, error) {
	signups, err := m.svc.UserSignups(ctx, m.userID)
	if err != nil {
		return Message{}, err
	}
	current := m.svc.SignupSeason()
	open := m.svc.SignupOpen()
	embed := m.builder.Signups(current.String(), signups, fmt.Sprintf("<t:%d:f>", m.svc.SignupDeadline().Unix()), open)
	embed.Title = fmt.Sprintf("Clan War League • %s", current)

	return Message{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			row(
				button(actionAdd, "Add signup", discordgo.SuccessButton, !open),
				button(actionRemove, "Remove signup", discordgo.DangerButton, len(signups) == 0),
				button(actionClans, "Rosters", discordgo.PrimaryButton, false),
				button(actionStats, "Stats", discordgo.PrimaryButton, false),
			),
			row(button(actionClose, "Close", discordgo.SecondaryButton, false)),
		},
	}, nil
}

func (m *LeagueMenu) renderAdd(ctx context.Context) (Message, error) {
	accounts, err := m.svc.KnownAccounts(ctx, m.userID)
	if err != nil {
		return Message{}, err
	}

	account := "Not chosen"
	if m.add.tag != "" {
		account = m.add.tag
		if m.add.name != "" {
			account = fmt.Sprintf("%s (%s)", m.add.name, m.add.tag)
		}
	}
	group := "Not chosen"
	if m.add.group > 0 {
		group = strconv.Itoa(m.add.group)
	}
	embed := m.builder.Info("Add signup", fmt.Sprintf("Account: %s\nLeague group: %s", account, group))

	components := []discordgo.MessageComponent{}
	if len(accounts) > 0 {
		options := make([]discordgo.SelectMenuOption, 0, len(accounts))
		for _, a := range accounts {
			options = append(options, discordgo.SelectMenuOption{
				Label:       a.Name,
				Value:       a.Tag,
				Description: fmt.Sprintf("TH%d %s", a.TownHall, a.Tag),
				Default:     a.Tag == m.add.tag,
			})
		}
		components = append(components, row(selectMenu(actionAccount, "Pick a known account", options)))
	}

	groups := make([]discordgo.SelectMenuOption, 0, league.MaxGroup)
	for g := league.MinGroup; g <= league.MaxGroup; g++ {
		groups = append(groups, discordgo.SelectMenuOption{
			Label:   fmt.Sprintf("Group %d", g),
			Value:   strconv.Itoa(g),
			Default: g == m.add.group,
		})
	}
	components = append(components,
		row(selectMenu(actionGroup, "League group", groups)),
		row(
			button(actionEnterTag, "Enter tag", discordgo.SecondaryButton, false),
			button(actionConfirmAdd, "Confirm", discordgo.SuccessButton, m.add.tag == "" || m.add.group == 0),
			button(actionBack, "Back", discordgo.SecondaryButton, false),
		),
	)
	return Message{Embeds: []*discordgo.MessageEmbed{embed}, Components: components}, nil
}

func (m *LeagueMenu) renderRemove(ctx context.Context) (Message, error) {
	signups, err := m.svc.UserSignups(ctx, m.userID)
	if err != nil {
		return Message{}, err
	}

	embed := m.builder.Info("Remove signup", "Pick the account to withdraw.")
	components := []discordgo.MessageComponent{}
	if len(signups) == 0 {
		embed.Description = "You have no accounts registered."
	} else {
		options := make([]discordgo.SelectMenuOption, 0, len(signups))
		for _, s := range signups {
			options = append(options, discordgo.SelectMenuOption{
				Label:       s.Name,
				Value:       s.Tag,
				Description: fmt.Sprintf("TH%d %s", s.TownHall, s.Tag),
				Default:     s.Tag == m.remove,
			})
		}
		components = append(components, row(selectMenu(actionSignup, "Registered accounts", options)))
	}
	components = append(components, row(
		button(actionConfirmRemove, "Withdraw", discordgo.DangerButton, m.remove == ""),
		button(actionBack, "Back", discordgo.SecondaryButton, false),
	))
	return Message{Embeds: []*discordgo.MessageEmbed{embed}, Components: components}, nil
}

func (m *LeagueMenu) clans(ctx context.Context) ([]storage.LeagueClan, error) {
	clans, err := m.svc.ParticipatingClans(ctx, m.svc.RosterSeason().ID())
	if err != nil {
		return nil, err
	}
	if m.clanTag == "" && len(clans) > 0 {
		m.clanTag = clans[0].Tag
	}
	return clans, nil
}

// loadWars caches the selected clan's league wars; a clan outside the league has none.
func (m *LeagueMenu) loadWars(ctx context.Context) error {
	if m.warsFor == m.clanTag {
		return nil
	}
	wars, err := m.svc.ClanWars(ctx, m.clanTag)
	if err != nil && !errors.Is(err, coc.ErrNotFound) {
		return err
	}
	m.wars = wars
	m.warsFor = m.clanTag
	return nil
}

func (m *LeagueMenu) renderClan(ctx context.Context) (Message, error) {
	clans, err := m.clans(ctx)
	if err != nil {
		return Message{}, err
	}
	if m.clanTag == "" {
		return m.emptyBrowse("Rosters"), nil
	}

	components := []discordgo.MessageComponent{row(selectMenu(actionClan, "Choose a clan", clanOptions(clans, m.clanTag)))}

	var embed *discordgo.MessageEmbed
	clan, err := m.svc.RosterClan(ctx, m.clanTag)
	if err != nil {
		if unexpected(err) {
			return Message{}, err
		}
		embed = m.builder.Error(err)
	} else {
		players, err := m.svc.Roster(ctx, m.clanTag)
		if err != nil {
			return Message{}, err
		}
		m.paginator.SetTotal(PageCount(len(players), m.pageSize))
		start, end := PageBounds(m.paginator.Page(), m.pageSize, len(players))
		embed = m.builder.Roster(clan, players[start:end], start, m.paginator.Page(), m.paginator.Total())
		if m.paginator.Total() > 1 {
			components = append(components, m.paginator.Row())
		}
	}

	if err := m.loadWars(ctx); err != nil {
		return Message{}, err
	}
	if len(m.wars) > 0 {
		components = append(components, row(selectMenu(actionRound, "View a round", m.roundOptions())))
	}
	components = append(components, row(
		button(actionClanStats, "Stats", discordgo.PrimaryButton, false),
		button(actionBack, "Back", discordgo.SecondaryButton, false),
		button(actionClose, "Close", discordgo.SecondaryButton, false),
	))
	return Message{Embeds: []*discordgo.MessageEmbed{embed}, Components: components}, nil
}

func (m *LeagueMenu) roundOptions() []discordgo.SelectMenuOption {
	options := make([]discordgo.SelectMenuOption, 0, len(m.wars))
	for idx, war := range m.wars {
		_, opponent, _ := war.Side(m.clanTag)
		options = append(options, discordgo.SelectMenuOption{
			Label:       fmt.Sprintf("Round %d", war.Round+1),
			Value:       strconv.Itoa(idx),
			Description: strings.TrimSpace("vs " + opponent.Name),
			Default:     m.state == StateViewWar && idx == m.round,
		})
	}
	return options
}

func (m *LeagueMenu) renderWar(ctx context.Context) (Message, error) {
	if err := m.loadWars(ctx); err != nil {
		return Message{}, err
	}
	if m.round >= len(m.wars) {
		m.state = StateViewClan
		return m.renderClan(ctx)
	}
	embed := m.builder.War(m.wars[m.round], m.clanTag)
	return Message{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			row(selectMenu(actionRound, "View a round", m.roundOptions())),
			row(
				button(actionRoster, "Roster", discordgo.PrimaryButton, false),
				button(actionBack, "Back", discordgo.SecondaryButton, false),
				button(actionClose, "Close", discordgo.SecondaryButton, false),
			),
		},
	}, nil
}

func (m *LeagueMenu) renderStats(ctx context.Context) (Message, error) {
	clans, err := m.clans(ctx)
	if err != nil {
		return Message{}, err
	}
	if m.clanTag == "" {
		return m.emptyBrowse("Stats"), nil
	}

	if m.rowsFor != m.clanTag {
		m.rows, m.rowsErr = m.svc.PlayerSeasonStats(ctx, m.clanTag, nil)
		if m.rowsErr != nil && unexpected(m.rowsErr) {
			return Message{}, m.rowsErr
		}
		m.rowsFor = m.clanTag
	}

	components := []discordgo.MessageComponent{row(selectMenu(actionClan, "Choose a clan", clanOptions(clans, m.clanTag)))}
	var embed *discordgo.MessageEmbed
	if m.rowsErr != nil {
		embed = m.builder.Error(m.rowsErr)
	} else {
		name := m.clanTag
		for _, clan := range clans {
			if clan.Tag == m.clanTag {
				name = clan.Name
			}
		}
		m.paginator.SetTotal(PageCount(len(m.rows), m.pageSize))
		start, end := PageBounds(m.paginator.Page(), m.pageSize, len(m.rows))
		embed = m.builder.StatsTable(fmt.Sprintf("%s league stats", name), m.rows[start:end], start, m.paginator.Page(), m.paginator.Total())
		if m.paginator.Total() > 1 {
			components = append(components, m.paginator.Row())
		}
	}
	components = append(components, row(
		button(actionBack, "Back", discordgo.SecondaryButton, false),
		button(actionClose, "Close", discordgo.SecondaryButton, false),
	))
	return Message{Embeds: []*discordgo.MessageEmbed{embed}, Components: components}, nil
}

func (m *LeagueMenu) emptyBrowse(title string) Message {
	return Message{
		Embeds: []*discordgo.MessageEmbed{m.builder.Info(title, "No clans are taking part this season.")},
		Components: []discordgo.MessageComponent{row(
			button(actionBack, "Back", discordgo.SecondaryButton, false),
			button(actionClose, "Close", discordgo.SecondaryButton, false),
		)},
	}
}

func unexpected(err error) bool {
	return !embeds.Known(err)
}
