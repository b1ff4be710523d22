// Package stats computes war performance from API war payloads.
package stats

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"cwl-bot/internal/coc"
)

// Matchup is an attacker town hall against a defender town hall.
type Matchup struct {
	Attacker int
	Defender int
}

func (m Matchup) String() string {
	return fmt.Sprintf("TH%d vs TH%d", m.Attacker, m.Defender)
}

type Tally struct {
	Attacks     int
	Stars       int
	Triples     int
	Destruction float64
}

func (t Tally) HitRate() float64 {
	if t.Attacks == 0 {
		return 0
	}
	return float64(t.Triples) / float64(t.Attacks)
}

type MatchupTally struct {
	Matchup
	Tally
}

type PlayerStats struct {
	Tag      string
	Name     string
	TownHall int
	Wars     int

	Tally
	NewStars int
	Missed   int

	Defenses            int
	StarsConceded       int
	DestructionConceded float64

	Matchups map[Matchup]Tally
}

func (p PlayerStats) AverageStars() float64 {
	if p.Attacks == 0 {
		return 0
	}
	return float64(p.Stars) / float64(p.Attacks)
}

func (p PlayerStats) AverageDestruction() float64 {
	if p.Attacks == 0 {
		return 0
	}
	return p.Destruction / float64(p.Attacks)
}

// MatchupList returns the matchups ordered by attacker then defender town hall, highest first.
func (p PlayerStats) MatchupList() []MatchupTally {
	out := lo.MapToSlice(p.Matchups, func(m Matchup, t Tally) MatchupTally {
		return MatchupTally{Matchup: m, Tally: t}
	})
	slices.SortFunc(out, func(a, b MatchupTally) int {
		if c := cmp.Compare(b.Attacker, a.Attacker); c != 0 {
			return c
		}
		return cmp.Compare(b.Defender, a.Defender)
	})
	return out
}

// Aggregate folds every war the player fought in into one PlayerStats.
func Aggregate(wars []coc.ClanWar, tag string) PlayerStats {
	stats := PlayerStats{Tag: tag, Matchups: make(map[Matchup]Tally)}
	for _, war := range wars {
		for _, side := range []struct{ clan, opponent coc.WarClan }{
			{war.Clan, war.Opponent},
			{war.Opponent, war.Clan},
		} {
			member, ok := side.clan.Member(tag)
			if !ok {
				continue
			}
			stats.add(war, member, side.clan, side.opponent)
		}
	}
	return stats
}

// AggregateClan returns stats for every member who fought for clanTag, best performers first.
func AggregateClan(wars []coc.ClanWar, clanTag string) []PlayerStats {
	tags := lo.Uniq(lo.FlatMap(wars, func(war coc.ClanWar, _ int) []string {
		clan, _, ok := war.Side(clanTag)
		if !ok {
			return nil
		}
		return lo.Map(clan.Members, func(m coc.WarMember, _ int) string { return m.Tag })
	}))

	relevant := lo.Filter(wars, func(war coc.ClanWar, _ int) bool { return war.Involves(clanTag) })
	out := lo.Map(tags, func(tag string, _ int) PlayerStats { return Aggregate(relevant, tag) })
	slices.SortStableFunc(out, func(a, b PlayerStats) int {
		if c := cmp.Compare(b.Stars, a.Stars); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Destruction, a.Destruction); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

func (p *PlayerStats) add(war coc.ClanWar, member coc.WarMember, clan, opponent coc.WarClan) {
	p.Wars++
	if member.Name != "" {
		p.Name = member.Name
	}
	if member.TownHallLevel > p.TownHall {
		p.TownHall = member.TownHallLevel
	}

	newStars := newStarsByAttack(clan, opponent)
	for _, attack := range member.Attacks {
		defender, _ := opponent.Member(attack.DefenderTag)
		matchup := Matchup{Attacker: member.TownHallLevel, Defender: defender.TownHallLevel}

		tally := p.Matchups[matchup]
		tally.record(attack)
		p.Matchups[matchup] = tally

		p.Tally.record(attack)
		p.NewStars += newStars[attack.Order]
	}

	if war.State == coc.WarStateEnded {
		p.Missed += max(0, war.AttacksAllowed()-len(member.Attacks))
	}

	p.Defenses += member.OpponentAttacks
	if best := member.BestOpponentAttack; best != nil {
		p.StarsConceded += best.Stars
		p.DestructionConceded += best.DestructionPercentage
	}
}

func (t *Tally) record(attack coc.Attack) {
	t.Attacks++
	t.Stars += attack.Stars
	t.Destruction += attack.DestructionPercentage
	if attack.Stars == 3 {
		t.Triples++
	}
}

// newStarsByAttack maps each attack order to the stars it added over earlier hits on the same base.
func newStarsByAttack(clan, opponent coc.WarClan) map[int]int {
	attacks := lo.FlatMap(clan.Members, func(m coc.WarMember, _ int) []coc.Attack { return m.Attacks })
	slices.SortFunc(attacks, func(a, b coc.Attack) int { return cmp.Compare(a.Order, b.Order) })

	best := make(map[string]int, len(opponent.Members))
	out := make(map[int]int, len(attacks))
	for _, attack := range attacks {
		prev := best[attack.DefenderTag]
		if attack.Stars > prev {
			out[attack.Order] = attack.Stars - prev
			best[attack.DefenderTag] = attack.Stars
		}
	}
	return out
}
