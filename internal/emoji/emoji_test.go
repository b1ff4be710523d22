package emoji

import (
	"strings"
	"testing"
)

func TestStarsClamp(t *testing.T) {
	if got := Stars(2); got != Star+Star+EmptyStar {
		t.Fatalf("unexpected stars %q", got)
	}
	if got := Stars(5); strings.Count(got, Star) != 3 {
		t.Fatalf("expected three stars, got %q", got)
	}
	if got := Stars(-1); got != EmptyStar+EmptyStar+EmptyStar {
		t.Fatalf("expected empty stars, got %q", got)
	}
}

func TestLeagueFamily(t *testing.T) {
	if League("Crystal League II") != leagues["Crystal League"] {
		t.Fatalf("expected crystal family match")
	}
	if League("Something New") != leagues["Unranked"] {
		t.Fatalf("expected unranked fallback")
	}
}

func TestFallbacks(t *testing.T) {
	if got := TownHall(99); got != "TH99" {
		t.Fatalf("unexpected town hall fallback %q", got)
	}
	if Hero("Nobody") != Unknown || WarResult("") != Unknown {
		t.Fatalf("expected unknown fallback")
	}
	if WarResult("win") != Win || Role("coLeader") == Unknown {
		t.Fatalf("expected known lookups")
	}
}
