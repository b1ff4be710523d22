package season

import (
	"fmt"
	"time"
)

const (
	startHourUTC = 8
	leagueDays   = 10
)

// Season identifies one monthly Clan War League.
type Season struct {
	Year  int
	Month time.Month
}

func Of(t time.Time) Season {
	t = t.UTC()
	return Season{Year: t.Year(), Month: t.Month()}
}

// Current is the season whose league runs in the month of now.
func Current(now time.Time) Season {
	return Of(now)
}

// Signup is the season users register for: the current one until it starts, then the next.
func Signup(now time.Time) Season {
	current := Current(now)
	if now.Before(current.Start()) {
		return current
	}
	return current.Next()
}

func Parse(id string) (Season, error) {
	parsed, err := time.Parse("2006-01", id)
	if err != nil {
		return Season{}, fmt.Errorf("season %q: %w", id, err)
	}
	return Of(parsed), nil
}

// ID matches the season string the API puts on league groups.
func (s Season) ID() string {
	return fmt.Sprintf("%04d-%02d", s.Year, int(s.Month))
}

func (s Season) String() string {
	return s.Start().Format("January 2006")
}

func (s Season) Next() Season {
	return Of(s.Start().AddDate(0, 1, 0))
}

func (s Season) Prev() Season {
	return Of(s.Start().AddDate(0, -1, 0))
}

// Start is the moment league signup closes in game and the group is drawn.
func (s Season) Start() time.Time {
	return time.Date(s.Year, s.Month, 1, startHourUTC, 0, 0, 0, time.UTC)
}

func (s Season) End() time.Time {
	return s.Start().AddDate(0, 0, leagueDays)
}

// SignupDeadline closes bot registrations ahead of the in-game draw.
func (s Season) SignupDeadline(cutoff time.Duration) time.Time {
	return s.Start().Add(-cutoff)
}

// Active reports whether the league is running at now.
func (s Season) Active(now time.Time) bool {
	return !now.Before(s.Start()) && now.Before(s.End())
}
