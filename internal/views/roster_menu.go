package views

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"cwl-bot/internal/embeds"
	"cwl-bot/internal/season"
	"cwl-bot/internal/storage"
)

const actionRosterClan = "roster:clan"

type RosterSource interface {
	RosterSeason() season.Season
	ParticipatingClans(ctx context.Context, seasonID string) ([]storage.LeagueClan, error)
	RosterClan(ctx context.Context, clanTag string) (storage.LeagueClan, error)
	Roster(ctx context.Context, clanTag string) ([]storage.LeaguePlayer, error)
}

// RosterMenu pages through a clan roster and can switch between participating clans.
type RosterMenu struct {
	source    RosterSource
	builder   *embeds.Builder
	pageSize  int
	clanTag   string
	paginator *Paginator
}

func NewRosterMenu(source RosterSource, builder *embeds.Builder, clanTag string, pageSize int) *RosterMenu {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &RosterMenu{source: source, builder: builder, clanTag: clanTag, pageSize: pageSize, paginator: NewPaginator(1)}
}

func (r *RosterMenu) Render(ctx context.Context) (Message, error) {
	clans, err := r.source.ParticipatingClans(ctx, r.source.RosterSeason().ID())
	if err != nil {
		return Message{}, err
	}
	if r.clanTag == "" && len(clans) > 0 {
		r.clanTag = clans[0].Tag
	}

	components := []discordgo.MessageComponent{}
	if len(clans) > 1 {
		components = append(components, row(selectMenu(actionRosterClan, "Switch clan", clanOptions(clans, r.clanTag))))
	}

	var embed *discordgo.MessageEmbed
	if r.clanTag == "" {
		embed = r.builder.Info("Rosters", "No clans are taking part this season.")
	} else {
		clan, err := r.source.RosterClan(ctx, r.clanTag)
		if err != nil && unexpected(err) {
			return Message{}, err
		}
		if err != nil {
			embed = r.builder.Error(err)
		} else {
			players, err := r.source.Roster(ctx, r.clanTag)
			if err != nil {
				return Message{}, err
			}
			r.paginator.SetTotal(PageCount(len(players), r.pageSize))
			start, end := PageBounds(r.paginator.Page(), r.pageSize, len(players))
			embed = r.builder.Roster(clan, players[start:end], start, r.paginator.Page(), r.paginator.Total())
			if r.paginator.Total() > 1 {
				components = append(components, r.paginator.Row())
			}
		}
	}
	components = append(components, row(button(actionClose, "Close", discordgo.DangerButton, false)))
	return Message{Embeds: []*discordgo.MessageEmbed{embed}, Components: components}, nil
}

func (r *RosterMenu) Handle(_ context.Context, event Event) (Reply, error) {
	switch {
	case event.Action == actionClose:
		return Close(), nil
	case event.Action == actionRosterClan:
		if tag := event.Value(); tag != "" && tag != r.clanTag {
			r.clanTag = tag
			r.paginator.Reset()
		}
		return Update(), nil
	case r.paginator.Handle(event.Action):
		return Update(), nil
	}
	return Reply{}, fmt.Errorf("unknown action %q", event.Action)
}

func clanOptions(clans []storage.LeagueClan, selected string) []discordgo.SelectMenuOption {
	options := make([]discordgo.SelectMenuOption, 0, len(clans))
	for _, clan := range clans {
		options = append(options, discordgo.SelectMenuOption{
			Label:       clan.Name,
			Value:       clan.Tag,
			Description: clan.Tag,
			Default:     clan.Tag == selected,
		})
	}
	return options
}
