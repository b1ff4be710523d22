package gamedata

// MaxTownHall is the highest town hall covered by the level tables.
const MaxTownHall = 17

// levelTable maps a town hall level to the max level available at it. Town halls that are
// missing inherit the closest lower entry; an item is unavailable below its first entry.
type levelTable map[int]int

func (t levelTable) at(townHall int) int {
	if townHall > MaxTownHall {
		townHall = MaxTownHall
	}
	for th := townHall; th > 0; th-- {
		if level, ok := t[th]; ok {
			return level
		}
	}
	return 0
}

func (t levelTable) unlockedAt() int {
	lowest := 0
	for th := range t {
		if lowest == 0 || th < lowest {
			lowest = th
		}
	}
	return lowest
}

var heroLevels = map[string]levelTable{
	"Barbarian King": {7: 10, 8: 20, 9: 30, 10: 40, 11: 50, 12: 65, 13: 75, 14: 80, 15: 90, 16: 95, 17: 100},
	"Archer Queen":   {9: 30, 10: 40, 11: 50, 12: 65, 13: 75, 14: 80, 15: 90, 16: 95, 17: 100},
	"Minion Prince":  {9: 10, 10: 20, 11: 30, 12: 40, 13: 50, 14: 60, 15: 70, 16: 80, 17: 90},
	"Grand Warden":   {11: 20, 12: 40, 13: 50, 14: 55, 15: 65, 16: 70, 17: 75},
	"Royal Champion": {13: 25, 14: 30, 15: 40, 16: 45, 17: 50},
}

var petLevels = map[string]levelTable{
	"L.A.S.S.I":     {14: 10, 15: 15},
	"Electro Owl":   {14: 10, 15: 15},
	"Mighty Yak":    {14: 10, 15: 15},
	"Unicorn":       {14: 10, 15: 15},
	"Frosty":        {15: 10},
	"Diggy":         {15: 10},
	"Poison Lizard": {15: 10},
	"Phoenix":       {15: 10},
	"Spirit Fox":    {16: 10},
	"Angry Jelly":   {16: 10},
	"Sneezy":        {17: 10},
}

var spellLevels = map[string]levelTable{
	"Lightning Spell":    {5: 4, 6: 4, 7: 4, 8: 5, 9: 6, 10: 7, 11: 8, 12: 9, 13: 9, 14: 9, 15: 10, 16: 11, 17: 12},
	"Healing Spell":      {6: 3, 7: 4, 8: 5, 9: 6, 10: 7, 11: 7, 12: 7, 13: 8, 14: 8, 15: 9, 16: 10, 17: 11},
	"Rage Spell":         {7: 4, 8: 5, 9: 5, 10: 5, 11: 5, 12: 6, 13: 6, 14: 6, 15: 6},
	"Jump Spell":         {9: 2, 10: 3, 11: 3, 12: 3, 13: 4, 14: 4, 15: 5},
	"Freeze Spell":       {9: 2, 10: 5, 11: 6, 12: 7, 13: 7, 14: 7, 15: 7},
	"Clone Spell":        {10: 3, 11: 5, 12: 5, 13: 6, 14: 7, 15: 8},
	"Invisibility Spell": {11: 2, 12: 3, 13: 4, 14: 4, 15: 4},
	"Recall Spell":       {13: 2, 14: 3, 15: 4, 16: 5, 17: 6},
	"Revive Spell":       {16: 2, 17: 4},
	"Poison Spell":       {8: 2, 9: 3, 10: 4, 11: 5, 12: 6, 13: 7, 14: 8, 15: 9, 16: 10, 17: 11},
	"Earthquake Spell":   {8: 2, 9: 3, 10: 4, 11: 5},
	"Haste Spell":        {9: 2, 10: 4, 11: 5},
	"Skeleton Spell":     {9: 1, 10: 3, 11: 4, 12: 5, 13: 6, 14: 7, 15: 8},
	"Bat Spell":          {10: 3, 11: 4, 12: 5, 13: 5, 14: 5, 15: 6},
	"Overgrowth Spell":   {12: 2, 13: 2, 14: 3, 15: 4},
}

// PetNames lists the pets in the order they unlock.
var PetNames = []string{
	"L.A.S.S.I", "Electro Owl", "Mighty Yak", "Unicorn",
	"Frosty", "Diggy", "Poison Lizard", "Phoenix",
	"Spirit Fox", "Angry Jelly", "Sneezy",
}

// IsPet reports whether a troop entry from the API is actually a hero pet.
func IsPet(name string) bool {
	_, ok := petLevels[name]
	return ok
}
