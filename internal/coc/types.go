package coc

import (
	"strings"
	"time"
)

// TimeLayout is the timestamp format used by every API payload.
const TimeLayout = "20060102T150405.000Z"

// Time decodes API timestamps.
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(TimeLayout, raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.UTC().Format(TimeLayout) + `"`), nil
}

type BadgeURLs struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

type IconURLs struct {
	Tiny   string `json:"tiny"`
	Small  string `json:"small"`
	Medium string `json:"medium"`
}

type League struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	IconURLs IconURLs `json:"iconUrls"`
}

type WarLeague struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Location struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type ClanRef struct {
	Tag       string    `json:"tag"`
	Name      string    `json:"name"`
	ClanLevel int       `json:"clanLevel"`
	BadgeURLs BadgeURLs `json:"badgeUrls"`
}

type Clan struct {
	Tag                   string       `json:"tag"`
	Name                  string       `json:"name"`
	Type                  string       `json:"type"`
	Description           string       `json:"description"`
	Location              *Location    `json:"location,omitempty"`
	BadgeURLs             BadgeURLs    `json:"badgeUrls"`
	ClanLevel             int          `json:"clanLevel"`
	ClanPoints            int          `json:"clanPoints"`
	RequiredTrophies      int          `json:"requiredTrophies"`
	RequiredTownhallLevel int          `json:"requiredTownhallLevel"`
	WarFrequency          string       `json:"warFrequency"`
	WarWinStreak          int          `json:"warWinStreak"`
	WarWins               int          `json:"warWins"`
	WarTies               int          `json:"warTies"`
	WarLosses             int          `json:"warLosses"`
	IsWarLogPublic        bool         `json:"isWarLogPublic"`
	WarLeague             WarLeague    `json:"warLeague"`
	Members               int          `json:"members"`
	MemberList            []ClanMember `json:"memberList"`
}

// Member returns the member with the given tag.
func (c Clan) Member(tag string) (ClanMember, bool) {
	for _, member := range c.MemberList {
		if member.Tag == tag {
			return member, true
		}
	}
	return ClanMember{}, false
}

type ClanMember struct {
	Tag               string `json:"tag"`
	Name              string `json:"name"`
	Role              string `json:"role"`
	TownHallLevel     int    `json:"townHallLevel"`
	ExpLevel          int    `json:"expLevel"`
	League            League `json:"league"`
	Trophies          int    `json:"trophies"`
	ClanRank          int    `json:"clanRank"`
	Donations         int    `json:"donations"`
	DonationsReceived int    `json:"donationsReceived"`
}

type PlayerItem struct {
	Name     string `json:"name"`
	Level    int    `json:"level"`
	MaxLevel int    `json:"maxLevel"`
	Village  string `json:"village"`
}

// HomeVillage reports whether the item belongs to the home village.
func (i PlayerItem) HomeVillage() bool {
	return i.Village == "" || i.Village == "home"
}

type Player struct {
	Tag                 string       `json:"tag"`
	Name                string       `json:"name"`
	TownHallLevel       int          `json:"townHallLevel"`
	TownHallWeaponLevel int          `json:"townHallWeaponLevel"`
	ExpLevel            int          `json:"expLevel"`
	Trophies            int          `json:"trophies"`
	BestTrophies        int          `json:"bestTrophies"`
	WarStars            int          `json:"warStars"`
	AttackWins          int          `json:"attackWins"`
	DefenseWins         int          `json:"defenseWins"`
	Role                string       `json:"role"`
	WarPreference       string       `json:"warPreference"`
	Donations           int          `json:"donations"`
	DonationsReceived   int          `json:"donationsReceived"`
	Clan                *ClanRef     `json:"clan,omitempty"`
	League              *League      `json:"league,omitempty"`
	Heroes              []PlayerItem `json:"heroes"`
	Troops              []PlayerItem `json:"troops"`
	Spells              []PlayerItem `json:"spells"`
	HeroEquipment       []PlayerItem `json:"heroEquipment"`
}

// OptedIn reports whether the player is opted into clan wars.
func (p Player) OptedIn() bool {
	return p.WarPreference == "in"
}

const (
	WarStateNotInWar      = "notInWar"
	WarStatePreparation   = "preparation"
	WarStateInWar         = "inWar"
	WarStateEnded         = "warEnded"
	WarResultWin          = "win"
	WarResultLose         = "lose"
	WarResultTie          = "tie"
	WarResultUndetermined = ""
)

type Attack struct {
	AttackerTag           string  `json:"attackerTag"`
	DefenderTag           string  `json:"defenderTag"`
	Stars                 int     `json:"stars"`
	DestructionPercentage float64 `json:"destructionPercentage"`
	Order                 int     `json:"order"`
	Duration              int     `json:"duration"`
}

type WarMember struct {
	Tag                string   `json:"tag"`
	Name               string   `json:"name"`
	TownHallLevel      int      `json:"townhallLevel"`
	MapPosition        int      `json:"mapPosition"`
	OpponentAttacks    int      `json:"opponentAttacks"`
	Attacks            []Attack `json:"attacks"`
	BestOpponentAttack *Attack  `json:"bestOpponentAttack,omitempty"`
}

type WarClan struct {
	Tag                   string      `json:"tag"`
	Name                  string      `json:"name"`
	BadgeURLs             BadgeURLs   `json:"badgeUrls"`
	ClanLevel             int         `json:"clanLevel"`
	Attacks               int         `json:"attacks"`
	Stars                 int         `json:"stars"`
	DestructionPercentage float64     `json:"destructionPercentage"`
	Members               []WarMember `json:"members"`
}

// Member returns the war member with the given tag.
func (c WarClan) Member(tag string) (WarMember, bool) {
	for _, member := range c.Members {
		if member.Tag == tag {
			return member, true
		}
	}
	return WarMember{}, false
}

type ClanWar struct {
	State                string  `json:"state"`
	TeamSize             int     `json:"teamSize"`
	AttacksPerMember     int     `json:"attacksPerMember"`
	PreparationStartTime Time    `json:"preparationStartTime"`
	StartTime            Time    `json:"startTime"`
	EndTime              Time    `json:"endTime"`
	Clan                 WarClan `json:"clan"`
	Opponent             WarClan `json:"opponent"`

	// WarTag is set for league wars; the API omits it from the payload.
	WarTag string `json:"warTag,omitempty"`
	// Round is the zero-based league round, -1 for regular wars.
	Round int `json:"-"`
}

// IsLeagueWar reports whether the war was fetched through a league war tag.
func (w ClanWar) IsLeagueWar() bool {
	return w.WarTag != ""
}

// AttacksAllowed returns the attacks each member gets, defaulting to one for league wars.
func (w ClanWar) AttacksAllowed() int {
	if w.AttacksPerMember > 0 {
		return w.AttacksPerMember
	}
	if w.IsLeagueWar() {
		return 1
	}
	return 2
}

// Involves reports whether the clan fights in this war.
func (w ClanWar) Involves(clanTag string) bool {
	return w.Clan.Tag == clanTag || w.Opponent.Tag == clanTag
}

// Side returns the war from the point of view of clanTag.
func (w ClanWar) Side(clanTag string) (clan WarClan, opponent WarClan, ok bool) {
	switch clanTag {
	case w.Clan.Tag:
		return w.Clan, w.Opponent, true
	case w.Opponent.Tag:
		return w.Opponent, w.Clan, true
	default:
		return WarClan{}, WarClan{}, false
	}
}

// Result returns the outcome for clanTag once the war has ended.
func (w ClanWar) Result(clanTag string) string {
	if w.State != WarStateEnded {
		return WarResultUndetermined
	}
	clan, opponent, ok := w.Side(clanTag)
	if !ok {
		return WarResultUndetermined
	}
	return compareSides(clan.Stars, clan.DestructionPercentage, opponent.Stars, opponent.DestructionPercentage)
}

func compareSides(stars int, destruction float64, otherStars int, otherDestruction float64) string {
	switch {
	case stars > otherStars:
		return WarResultWin
	case stars < otherStars:
		return WarResultLose
	case destruction > otherDestruction:
		return WarResultWin
	case destruction < otherDestruction:
		return WarResultLose
	default:
		return WarResultTie
	}
}

type LeagueMember struct {
	Tag           string `json:"tag"`
	Name          string `json:"name"`
	TownHallLevel int    `json:"townHallLevel"`
}

type LeagueClan struct {
	Tag       string         `json:"tag"`
	Name      string         `json:"name"`
	ClanLevel int            `json:"clanLevel"`
	BadgeURLs BadgeURLs      `json:"badgeUrls"`
	Members   []LeagueMember `json:"members"`
}

type LeagueRound struct {
	WarTags []string `json:"warTags"`
}

// UnscheduledWarTag marks a round slot whose war has not been drawn yet.
const UnscheduledWarTag = "#0"

// Scheduled returns the round's war tags that point at real wars.
func (r LeagueRound) Scheduled() []string {
	tags := make([]string, 0, len(r.WarTags))
	for _, tag := range r.WarTags {
		if tag == "" || tag == UnscheduledWarTag {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

const (
	LeagueStatePreparation = "preparation"
	LeagueStateInWar       = "inWar"
	LeagueStateEnded       = "ended"
)

type LeagueGroup struct {
	State  string        `json:"state"`
	Season string        `json:"season"`
	Clans  []LeagueClan  `json:"clans"`
	Rounds []LeagueRound `json:"rounds"`
}

// Clan returns the participating clan with the given tag.
func (g LeagueGroup) Clan(tag string) (LeagueClan, bool) {
	for _, clan := range g.Clans {
		if clan.Tag == tag {
			return clan, true
		}
	}
	return LeagueClan{}, false
}

// ScheduledWarTags returns every scheduled war tag keyed by round index.
func (g LeagueGroup) ScheduledWarTags() map[string]int {
	out := make(map[string]int)
	for idx, round := range g.Rounds {
		for _, tag := range round.Scheduled() {
			out[tag] = idx
		}
	}
	return out
}

type WarLogClan struct {
	Tag                   string    `json:"tag"`
	Name                  string    `json:"name"`
	BadgeURLs             BadgeURLs `json:"badgeUrls"`
	ClanLevel             int       `json:"clanLevel"`
	Attacks               int       `json:"attacks"`
	Stars                 int       `json:"stars"`
	DestructionPercentage float64   `json:"destructionPercentage"`
	ExpEarned             int       `json:"expEarned"`
}

type WarLogEntry struct {
	Result           string     `json:"result"`
	EndTime          Time       `json:"endTime"`
	TeamSize         int        `json:"teamSize"`
	AttacksPerMember int        `json:"attacksPerMember"`
	Clan             WarLogClan `json:"clan"`
	Opponent         WarLogClan `json:"opponent"`
}

// IsLeagueEntry reports whether the entry summarizes a league season.
func (e WarLogEntry) IsLeagueEntry() bool {
	return e.Opponent.Tag == ""
}

type warLogResponse struct {
	Items []WarLogEntry `json:"items"`
}
