package gamedata

import (
	"github.com/samber/lo"

	"cwl-bot/internal/coc"
)

// Player splits the API's item lists into heroes, pets and spells.
type Player struct {
	coc.Player
	HeroList  []Hero
	PetList   []Pet
	SpellList []Spell
}

func NewPlayer(player coc.Player) Player {
	return Player{
		Player: player,
		HeroList: lo.FilterMap(player.Heroes, func(item coc.PlayerItem, _ int) (Hero, bool) {
			return NewHero(item), item.HomeVillage()
		}),
		PetList: lo.FilterMap(player.Troops, func(item coc.PlayerItem, _ int) (Pet, bool) {
			return NewPet(item), item.HomeVillage() && IsPet(item.Name)
		}),
		SpellList: lo.FilterMap(player.Spells, func(item coc.PlayerItem, _ int) (Spell, bool) {
			return NewSpell(item), item.HomeVillage()
		}),
	}
}

// HeroLevels sums current hero levels against the town hall's max.
func (p Player) HeroLevels() (current, limit int) {
	current = lo.SumBy(p.HeroList, func(hero Hero) int { return hero.Level })
	for _, table := range heroLevels {
		limit += table.at(p.TownHallLevel)
	}
	return current, limit
}

// HeroRushPercent is how far the heroes sit below the previous town hall's max, 0 to 100.
func (p Player) HeroRushPercent() float64 {
	missing, expected := 0, 0
	levels := make(map[string]int, len(p.HeroList))
	for _, hero := range p.HeroList {
		levels[hero.Name] = hero.Level
	}
	for name, table := range heroLevels {
		floor := table.at(p.TownHallLevel - 1)
		if floor == 0 {
			continue
		}
		expected += floor
		if level := levels[name]; level < floor {
			missing += floor - level
		}
	}
	if expected == 0 {
		return 0
	}
	return float64(missing) / float64(expected) * 100
}

// IsRushed reports whether any hero sits below the previous town hall's max.
func (p Player) IsRushed() bool {
	return p.HeroRushPercent() > 0
}

// RushedHeroes returns the heroes below the previous town hall's max.
func (p Player) RushedHeroes() []Hero {
	return lo.Filter(p.HeroList, func(hero Hero, _ int) bool {
		return hero.IsRushed(p.TownHallLevel)
	})
}
