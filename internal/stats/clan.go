package stats

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"cwl-bot/internal/coc"
)

// WinBonus is the star bonus a clan earns for each league war it wins.
const WinBonus = 10

type ClanSummary struct {
	Tag              string
	Name             string
	Wars             int
	Wins             int
	Losses           int
	Ties             int
	Stars            int
	Destruction      float64
	AttacksUsed      int
	AttacksAvailable int
}

func (s ClanSummary) AverageDestruction() float64 {
	if s.Wars == 0 {
		return 0
	}
	return s.Destruction / float64(s.Wars)
}

// SummarizeClan totals the wars involving clanTag.
func SummarizeClan(wars []coc.ClanWar, clanTag string) ClanSummary {
	summary := ClanSummary{Tag: clanTag}
	for _, war := range wars {
		clan, _, ok := war.Side(clanTag)
		if !ok {
			continue
		}
		summary.Name = clan.Name
		summary.Wars++
		summary.Stars += clan.Stars
		summary.Destruction += clan.DestructionPercentage
		summary.AttacksUsed += clan.Attacks
		summary.AttacksAvailable += war.TeamSize * war.AttacksAllowed()
		switch war.Result(clanTag) {
		case coc.WarResultWin:
			summary.Wins++
		case coc.WarResultLose:
			summary.Losses++
		case coc.WarResultTie:
			summary.Ties++
		}
	}
	return summary
}

// Standing is one row of a league group table.
type Standing struct {
	Rank        int
	Tag         string
	Name        string
	Played      int
	Wins        int
	Losses      int
	Ties        int
	Stars       int
	Destruction float64
}

// Score is the stars plus the win bonus, the primary ranking key.
func (s Standing) Score() int {
	return s.Stars + WinBonus*s.Wins
}

// LeagueStandings ranks the group by score, then total destruction.
func LeagueStandings(group coc.LeagueGroup, wars []coc.ClanWar) []Standing {
	rows := lo.Map(group.Clans, func(clan coc.LeagueClan, _ int) Standing {
		return Standing{Tag: clan.Tag, Name: clan.Name}
	})
	index := make(map[string]int, len(rows))
	for idx, row := range rows {
		index[row.Tag] = idx
	}

	for _, war := range wars {
		if war.State == coc.WarStatePreparation || war.State == coc.WarStateNotInWar {
			continue
		}
		for _, side := range []coc.WarClan{war.Clan, war.Opponent} {
			idx, ok := index[side.Tag]
			if !ok {
				continue
			}
			row := &rows[idx]
			row.Stars += side.Stars
			row.Destruction += side.DestructionPercentage * float64(war.TeamSize)
			if war.State != coc.WarStateEnded {
				continue
			}
			row.Played++
			switch war.Result(side.Tag) {
			case coc.WarResultWin:
				row.Wins++
			case coc.WarResultLose:
				row.Losses++
			case coc.WarResultTie:
				row.Ties++
			}
		}
	}

	slices.SortStableFunc(rows, func(a, b Standing) int {
		if c := cmp.Compare(b.Score(), a.Score()); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Destruction, a.Destruction); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	for idx := range rows {
		rows[idx].Rank = idx + 1
	}
	return rows
}
