package gamedata

import "cwl-bot/internal/coc"

// Kind names the table an item is looked up in.
type Kind string

const (
	KindHero  Kind = "hero"
	KindPet   Kind = "pet"
	KindSpell Kind = "spell"
)

// Item decorates an API item with town-hall aware level data.
type Item struct {
	coc.PlayerItem
	Kind Kind
}

func (i Item) table() levelTable {
	switch i.Kind {
	case KindHero:
		return heroLevels[i.Name]
	case KindPet:
		return petLevels[i.Name]
	case KindSpell:
		return spellLevels[i.Name]
	default:
		return nil
	}
}

// Known reports whether the item has a level table.
func (i Item) Known() bool {
	return i.table() != nil
}

// UnlockedAt returns the town hall that unlocks the item, zero when unknown.
func (i Item) UnlockedAt() int {
	return i.table().unlockedAt()
}

// MaxForTownHall returns the highest level reachable at the town hall. Unknown items fall back
// to the API's global max level.
func (i Item) MaxForTownHall(townHall int) int {
	table := i.table()
	if table == nil {
		return i.MaxLevel
	}
	return table.at(townHall)
}

// MinForTownHall is the previous town hall's max level: anything below it counts as rushed.
func (i Item) MinForTownHall(townHall int) int {
	table := i.table()
	if table == nil {
		return 0
	}
	return table.at(townHall - 1)
}

func (i Item) IsMaxed(townHall int) bool {
	top := i.MaxForTownHall(townHall)
	return top > 0 && i.Level >= top
}

func (i Item) IsRushed(townHall int) bool {
	return i.Level < i.MinForTownHall(townHall)
}

type Hero struct{ Item }

type Pet struct{ Item }

type Spell struct{ Item }

func NewHero(item coc.PlayerItem) Hero   { return Hero{Item{PlayerItem: item, Kind: KindHero}} }
func NewPet(item coc.PlayerItem) Pet     { return Pet{Item{PlayerItem: item, Kind: KindPet}} }
func NewSpell(item coc.PlayerItem) Spell { return Spell{Item{PlayerItem: item, Kind: KindSpell}} }
