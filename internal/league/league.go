// Package league runs clan war league signups, rosters and group lookups.
package league

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"cwl-bot/internal/coc"
	"cwl-bot/internal/keylock"
	"cwl-bot/internal/season"
	"cwl-bot/internal/stats"
	"cwl-bot/internal/storage"
)

const (
	MinGroup = 1
	MaxGroup = 4
)

var (
	ErrSignupClosed         = errors.New("league: signups are closed")
	ErrAlreadyRegistered    = errors.New("league: account is already registered")
	ErrNotRegistered        = errors.New("league: account is not registered")
	ErrTownHallTooLow       = errors.New("league: town hall is below the minimum")
	ErrTooManyAccounts      = errors.New("league: too many accounts registered")
	ErrRosterLocked         = errors.New("league: roster is locked")
	ErrNotOwner             = errors.New("league: account is registered by another user")
	ErrInvalidGroup         = errors.New("league: invalid league group")
	ErrClanNotParticipating = errors.New("league: clan is not participating")
)

// API is the part of the game client the league service needs.
type API interface {
	Clan(ctx context.Context, tag string) (coc.Clan, error)
	Player(ctx context.Context, tag string) (coc.Player, error)
	LeagueGroup(ctx context.Context, clanTag string) (coc.LeagueGroup, error)
	LeagueWars(ctx context.Context, group coc.LeagueGroup) ([]coc.ClanWar, error)
}

type Config struct {
	MinTownHall        int
	MaxAccountsPerUser int
	SignupCutoff       time.Duration
}

type Service struct {
	api    API
	repo   storage.LeagueRepository
	cfg    Config
	logger *zap.Logger
	locks  *keylock.Mutex
	now    func() time.Time
}

func NewService(api API, repo storage.LeagueRepository, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, repo: repo, cfg: cfg, logger: logger, locks: keylock.New(), now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// SignupSeason is the season new registrations go to.
func (s *Service) SignupSeason() season.Season {
	return season.Signup(s.now())
}

// RosterSeason is the season rosters are shown for: the running league, else the upcoming one.
func (s *Service) RosterSeason() season.Season {
	now := s.now()
	current := season.Current(now)
	if now.Before(current.End()) {
		return current
	}
	return current.Next()
}

func (s *Service) SignupOpen() bool {
	return s.now().Before(s.SignupSeason().SignupDeadline(s.cfg.SignupCutoff))
}

func (s *Service) SignupDeadline() time.Time {
	return s.SignupSeason().SignupDeadline(s.cfg.SignupCutoff)
}

// SetClanParticipation marks the clan in or out of the upcoming league.
func (s *Service) SetClanParticipation(ctx context.Context, tag string, on bool) (storage.LeagueClan, error) {
	tag, err := parseTag(tag)
	if err != nil {
		return storage.LeagueClan{}, err
	}
	clan, err := s.api.Clan(ctx, tag)
	if err != nil {
		return storage.LeagueClan{}, fmt.Errorf("fetch clan: %w", err)
	}

	id := s.SignupSeason().ID()
	record, err := s.repo.GetLeagueClan(ctx, id, tag)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		record = storage.LeagueClan{Season: id, Tag: tag, RosterOpen: true}
	case err != nil:
		return storage.LeagueClan{}, err
	}
	record.Name = clan.Name
	record.League = clan.WarLeague.Name
	record.Participating = on
	record.UpdatedAt = s.now()

	if err := s.repo.UpsertLeagueClan(ctx, record); err != nil {
		return storage.LeagueClan{}, err
	}
	s.logger.Info("clan participation updated", zap.String("clan", tag), zap.String("season", id), zap.Bool("participating", on))
	return record, nil
}

func (s *Service) SetRosterOpen(ctx context.Context, tag string, open bool) (storage.LeagueClan, error) {
	tag, err := parseTag(tag)
	if err != nil {
		return storage.LeagueClan{}, err
	}
	record, err := s.participatingClan(ctx, s.RosterSeason().ID(), tag)
	if err != nil {
		return storage.LeagueClan{}, err
	}
	record.RosterOpen = open
	record.UpdatedAt = s.now()
	if err := s.repo.UpsertLeagueClan(ctx, record); err != nil {
		return storage.LeagueClan{}, err
	}
	s.logger.Info("roster state updated", zap.String("clan", tag), zap.Bool("open", open))
	return record, nil
}

func (s *Service) ParticipatingClans(ctx context.Context, id string) ([]storage.LeagueClan, error) {
	clans, err := s.repo.ListLeagueClans(ctx, id)
	if err != nil {
		return nil, err
	}
	return lo.Filter(clans, func(clan storage.LeagueClan, _ int) bool { return clan.Participating }), nil
}

// Register signs the account up for the signup season.
func (s *Service) Register(ctx context.Context, userID, tag string, group int) (storage.LeaguePlayer, error) {
	tag, err := parseTag(tag)
	if err != nil {
		return storage.LeaguePlayer{}, err
	}
	if group < MinGroup || group > MaxGroup {
		return storage.LeaguePlayer{}, ErrInvalidGroup
	}
	if !s.SignupOpen() {
		return storage.LeaguePlayer{}, ErrSignupClosed
	}

	// Lock order: player, then user.
	id := s.SignupSeason().ID()
	unlockTag := s.locks.Lock(playerKey(id, tag))
	defer unlockTag()
	unlockUser := s.locks.Lock(userKey(id, userID))
	defer unlockUser()

	existing, err := s.repo.GetLeaguePlayer(ctx, id, tag)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return storage.LeaguePlayer{}, err
	case existing.Registered && existing.DiscordUserID != userID:
		return storage.LeaguePlayer{}, ErrNotOwner
	case existing.Registered:
		return storage.LeaguePlayer{}, ErrAlreadyRegistered
	}

	signups, err := s.repo.ListLeaguePlayersByUser(ctx, id, userID)
	if err != nil {
		return storage.LeaguePlayer{}, err
	}
	if s.cfg.MaxAccountsPerUser > 0 && len(signups) >= s.cfg.MaxAccountsPerUser {
		return storage.LeaguePlayer{}, ErrTooManyAccounts
	}

	player, err := s.api.Player(ctx, tag)
	if err != nil {
		return storage.LeaguePlayer{}, fmt.Errorf("fetch player: %w", err)
	}
	if player.TownHallLevel < s.cfg.MinTownHall {
		return storage.LeaguePlayer{}, fmt.Errorf("%w: TH%d < TH%d", ErrTownHallTooLow, player.TownHallLevel, s.cfg.MinTownHall)
	}

	record := storage.LeaguePlayer{
		Season:        id,
		Tag:           tag,
		Name:          player.Name,
		TownHall:      player.TownHallLevel,
		DiscordUserID: userID,
		Registered:    true,
		LeagueGroup:   group,
		UpdatedAt:     s.now(),
	}
	if err := s.repo.UpsertLeaguePlayer(ctx, record); err != nil {
		return storage.LeaguePlayer{}, err
	}
	s.logger.Info("league signup", zap.String("user_id", userID), zap.String("player", tag), zap.String("season", id), zap.Int("group", group))
	return record, nil
}

// Unregister withdraws the account unless it sits on a locked roster.
func (s *Service) Unregister(ctx context.Context, userID, tag string) error {
	tag, err := parseTag(tag)
	if err != nil {
		return err
	}

	id := s.SignupSeason().ID()
	unlock := s.locks.Lock(playerKey(id, tag))
	defer unlock()

	record, err := s.repo.GetLeaguePlayer(ctx, id, tag)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotRegistered
	}
	if err != nil {
		return err
	}
	if !record.Registered {
		return ErrNotRegistered
	}
	if record.DiscordUserID != userID {
		return ErrNotOwner
	}
	if record.RosterClan != "" {
		clan, err := s.repo.GetLeagueClan(ctx, id, record.RosterClan)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if err == nil && !clan.RosterOpen {
			return ErrRosterLocked
		}
	}

	record.Registered = false
	record.RosterClan = ""
	record.UpdatedAt = s.now()
	if err := s.repo.UpsertLeaguePlayer(ctx, record); err != nil {
		return err
	}
	s.logger.Info("league signup withdrawn", zap.String("user_id", userID), zap.String("player", tag), zap.String("season", id))
	return nil
}

func (s *Service) UserSignups(ctx context.Context, userID string) ([]storage.LeaguePlayer, error) {
	return s.repo.ListLeaguePlayersByUser(ctx, s.SignupSeason().ID(), userID)
}

func (s *Service) Signups(ctx context.Context) ([]storage.LeaguePlayer, error) {
	return s.repo.ListLeaguePlayers(ctx, s.SignupSeason().ID())
}

// KnownAccounts returns accounts the user signed up before that are not registered this season.
func (s *Service) KnownAccounts(ctx context.Context, userID string) ([]storage.Account, error) {
	accounts, err := s.repo.ListAccountsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	signups, err := s.UserSignups(ctx, userID)
	if err != nil {
		return nil, err
	}
	registered := lo.SliceToMap(signups, func(p storage.LeaguePlayer) (string, struct{}) { return p.Tag, struct{}{} })
	return lo.Reject(accounts, func(a storage.Account, _ int) bool {
		_, ok := registered[a.Tag]
		return ok
	}), nil
}

// AssignRoster places a registered account on a clan roster; an empty clanTag clears it.
func (s *Service) AssignRoster(ctx context.Context, tag, clanTag string) (storage.LeaguePlayer, error) {
	tag, err := parseTag(tag)
	if err != nil {
		return storage.LeaguePlayer{}, err
	}

	id := s.RosterSeason().ID()
	if clanTag != "" {
		if clanTag, err = parseTag(clanTag); err != nil {
			return storage.LeaguePlayer{}, err
		}
		if _, err := s.participatingClan(ctx, id, clanTag); err != nil {
			return storage.LeaguePlayer{}, err
		}
	}

	unlock := s.locks.Lock(playerKey(id, tag))
	defer unlock()

	record, err := s.repo.GetLeaguePlayer(ctx, id, tag)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && !record.Registered) {
		return storage.LeaguePlayer{}, ErrNotRegistered
	}
	if err != nil {
		return storage.LeaguePlayer{}, err
	}

	record.RosterClan = clanTag
	record.UpdatedAt = s.now()
	if err := s.repo.UpsertLeaguePlayer(ctx, record); err != nil {
		return storage.LeaguePlayer{}, err
	}
	s.logger.Info("roster assignment", zap.String("player", tag), zap.String("clan", clanTag), zap.String("season", id))
	return record, nil
}

// Roster lists the clan's roster, highest town hall first.
func (s *Service) Roster(ctx context.Context, clanTag string) ([]storage.LeaguePlayer, error) {
	clanTag, err := parseTag(clanTag)
	if err != nil {
		return nil, err
	}
	return s.repo.ListLeaguePlayersByRoster(ctx, s.RosterSeason().ID(), clanTag)
}

func (s *Service) RosterClan(ctx context.Context, clanTag string) (storage.LeagueClan, error) {
	clanTag, err := parseTag(clanTag)
	if err != nil {
		return storage.LeagueClan{}, err
	}
	return s.participatingClan(ctx, s.RosterSeason().ID(), clanTag)
}

// Group returns the clan's league group; coc.ErrNotFound when the clan is not in league.
func (s *Service) Group(ctx context.Context, clanTag string) (coc.LeagueGroup, error) {
	clanTag, err := parseTag(clanTag)
	if err != nil {
		return coc.LeagueGroup{}, err
	}
	return s.api.LeagueGroup(ctx, clanTag)
}

// GroupWars returns the group and every scheduled war in it.
func (s *Service) GroupWars(ctx context.Context, clanTag string) (coc.LeagueGroup, []coc.ClanWar, error) {
	group, err := s.Group(ctx, clanTag)
	if err != nil {
		return coc.LeagueGroup{}, nil, err
	}
	wars, err := s.api.LeagueWars(ctx, group)
	if err != nil {
		return coc.LeagueGroup{}, nil, err
	}
	return group, wars, nil
}

// ClanWars keeps the group wars the clan fights in, ordered by round.
func (s *Service) ClanWars(ctx context.Context, clanTag string) ([]coc.ClanWar, error) {
	clanTag, err := parseTag(clanTag)
	if err != nil {
		return nil, err
	}
	_, wars, err := s.GroupWars(ctx, clanTag)
	if err != nil {
		return nil, err
	}
	return lo.Filter(wars, func(war coc.ClanWar, _ int) bool { return war.Involves(clanTag) }), nil
}

func (s *Service) Standings(ctx context.Context, clanTag string) ([]stats.Standing, error) {
	group, wars, err := s.GroupWars(ctx, clanTag)
	if err != nil {
		return nil, err
	}
	return stats.LeagueStandings(group, wars), nil
}

// PlayerSeasonStats aggregates the clan's league wars for the given players, or every member when tags is empty.
func (s *Service) PlayerSeasonStats(ctx context.Context, clanTag string, tags []string) ([]stats.PlayerStats, error) {
	clanTag, err := parseTag(clanTag)
	if err != nil {
		return nil, err
	}
	wars, err := s.ClanWars(ctx, clanTag)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return stats.AggregateClan(wars, clanTag), nil
	}
	return lo.Map(tags, func(tag string, _ int) stats.PlayerStats {
		return stats.Aggregate(wars, coc.NormalizeTag(tag))
	}), nil
}

func (s *Service) participatingClan(ctx context.Context, id, tag string) (storage.LeagueClan, error) {
	record, err := s.repo.GetLeagueClan(ctx, id, tag)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.LeagueClan{}, ErrClanNotParticipating
	}
	if err != nil {
		return storage.LeagueClan{}, err
	}
	if !record.Participating {
		return storage.LeagueClan{}, ErrClanNotParticipating
	}
	return record, nil
}

func parseTag(raw string) (string, error) {
	tag := coc.NormalizeTag(raw)
	if !coc.ValidTag(tag) {
		return "", fmt.Errorf("%w: %q", coc.ErrInvalidTag, raw)
	}
	return tag, nil
}

func playerKey(season, tag string) string { return "player:" + season + ":" + tag }

func userKey(season, userID string) string { return "user:" + season + ":" + userID }
