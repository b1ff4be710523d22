package gamedata

import (
	"testing"

	"cwl-bot/internal/coc"
)

func TestHeroLevelsByTownHall(t *testing.T) {
	king := NewHero(coc.PlayerItem{Name: "Barbarian King", Level: 64, MaxLevel: 100})
	if got := king.MaxForTownHall(12); got != 65 {
		t.Fatalf("expected 65 at TH12, got %d", got)
	}
	if got := king.MinForTownHall(12); got != 50 {
		t.Fatalf("expected 50 floor at TH12, got %d", got)
	}
	if king.IsMaxed(12) {
		t.Fatalf("expected not maxed")
	}
	if king.IsRushed(12) {
		t.Fatalf("expected not rushed")
	}
	if !king.IsRushed(14) {
		t.Fatalf("expected rushed at TH14")
	}
	if got := king.MaxForTownHall(30); got != 100 {
		t.Fatalf("expected clamp to top table, got %d", got)
	}
	if got := king.UnlockedAt(); got != 7 {
		t.Fatalf("expected unlock at 7, got %d", got)
	}
}

func TestUnknownItemFallsBackToAPIMax(t *testing.T) {
	spell := NewSpell(coc.PlayerItem{Name: "Mystery Spell", Level: 2, MaxLevel: 3})
	if spell.Known() {
		t.Fatalf("expected unknown spell")
	}
	if got := spell.MaxForTownHall(15); got != 3 {
		t.Fatalf("expected api max 3, got %d", got)
	}
	if spell.IsRushed(15) {
		t.Fatalf("unknown items are never rushed")
	}
}

func TestPlayerSplitsItems(t *testing.T) {
	player := NewPlayer(coc.Player{
		TownHallLevel: 15,
		Heroes: []coc.PlayerItem{
			{Name: "Barbarian King", Level: 80, Village: "home"},
			{Name: "Archer Queen", Level: 70, Village: "home"},
			{Name: "Grand Warden", Level: 55, Village: "home"},
			{Name: "Royal Champion", Level: 30, Village: "home"},
			{Name: "Battle Machine", Level: 30, Village: "builderBase"},
		},
		Troops: []coc.PlayerItem{
			{Name: "Barbarian", Level: 11, Village: "home"},
			{Name: "Unicorn", Level: 10, Village: "home"},
			{Name: "Phoenix", Level: 3, Village: "home"},
		},
		Spells: []coc.PlayerItem{{Name: "Rage Spell", Level: 6, Village: "home"}},
	})

	if len(player.HeroList) != 4 {
		t.Fatalf("expected 4 home heroes, got %d", len(player.HeroList))
	}
	if len(player.PetList) != 2 {
		t.Fatalf("expected 2 pets, got %d", len(player.PetList))
	}
	if len(player.SpellList) != 1 {
		t.Fatalf("expected 1 spell, got %d", len(player.SpellList))
	}
	rushed := player.RushedHeroes()
	if len(rushed) != 1 || rushed[0].Name != "Archer Queen" {
		t.Fatalf("expected only the queen rushed, got %+v", rushed)
	}
	if !player.IsRushed() {
		t.Fatalf("expected rushed player")
	}
	// TH14 floors: 80 + 80 + 55 + 30 + 60 (minion prince missing) = 305; missing 10 + 60.
	want := float64(70) / float64(305) * 100
	if got := player.HeroRushPercent(); got != want {
		t.Fatalf("expected %.3f, got %.3f", want, got)
	}
}

func TestIsPet(t *testing.T) {
	if !IsPet("L.A.S.S.I") || IsPet("Barbarian") {
		t.Fatalf("unexpected pet lookup")
	}
}
