package coc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotFound     = errors.New("coc: not found")
	ErrAccessDenied = errors.New("coc: access denied")
	ErrMaintenance  = errors.New("coc: api in maintenance")
	ErrThrottled    = errors.New("coc: request throttled")
	ErrInvalidTag   = errors.New("coc: invalid tag")
)

// APIError carries the error body returned by the API.
type APIError struct {
	Status  int    `json:"-"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("coc api %d %s: %s", e.Status, e.Reason, e.Message)
	}
	return fmt.Sprintf("coc api %d %s", e.Status, e.Reason)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusForbidden:
		return ErrAccessDenied
	case http.StatusServiceUnavailable:
		return ErrMaintenance
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		return nil
	}
}

type Config struct {
	BaseURL           string
	Token             string
	Concurrency       int
	RequestsPerWindow int
	Window            time.Duration
	Timeout           time.Duration
}

type Client struct {
	baseURL     string
	http        *http.Client
	logger      *zap.Logger
	throttle    *Throttle
	concurrency int
}

// New builds a client that authenticates every request with the API token.
func New(cfg Config, logger *zap.Logger) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(context.Background(), src)
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	httpClient.Timeout = timeout
	return NewWithHTTPClient(cfg, httpClient, logger)
}

// NewWithHTTPClient uses the given client as is; the caller owns authentication.
func NewWithHTTPClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		http:        httpClient,
		logger:      logger,
		throttle:    NewThrottle(cfg.RequestsPerWindow, cfg.Window),
		concurrency: concurrency,
	}
}

func (c *Client) Clan(ctx context.Context, tag string) (Clan, error) {
	var clan Clan
	err := c.get(ctx, "/clans/"+escapeTag(tag), nil, &clan)
	return clan, err
}

func (c *Client) Player(ctx context.Context, tag string) (Player, error) {
	var player Player
	err := c.get(ctx, "/players/"+escapeTag(tag), nil, &player)
	return player, err
}

// Players fetches many players concurrently. Missing players are skipped.
func (c *Client) Players(ctx context.Context, tags []string) ([]Player, error) {
	var mu sync.Mutex
	players := make([]Player, 0, len(tags))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.concurrency)
	for _, tag := range tags {
		group.Go(func() error {
			player, err := c.Player(groupCtx, tag)
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			players = append(players, player)
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	order := make(map[string]int, len(tags))
	for idx, tag := range tags {
		order[NormalizeTag(tag)] = idx
	}
	sort.SliceStable(players, func(i, j int) bool {
		return order[players[i].Tag] < order[players[j].Tag]
	})
	return players, nil
}

func (c *Client) CurrentWar(ctx context.Context, clanTag string) (ClanWar, error) {
	var war ClanWar
	if err := c.get(ctx, "/clans/"+escapeTag(clanTag)+"/currentwar", nil, &war); err != nil {
		return ClanWar{}, err
	}
	war.Round = -1
	return war, nil
}

// LeagueGroup returns the clan's current league group; ErrNotFound when the clan is not in league.
func (c *Client) LeagueGroup(ctx context.Context, clanTag string) (LeagueGroup, error) {
	var group LeagueGroup
	err := c.get(ctx, "/clans/"+escapeTag(clanTag)+"/currentwar/leaguegroup", nil, &group)
	return group, err
}

func (c *Client) LeagueWar(ctx context.Context, warTag string) (ClanWar, error) {
	var war ClanWar
	if err := c.get(ctx, "/clanwarleagues/wars/"+escapeTag(warTag), nil, &war); err != nil {
		return ClanWar{}, err
	}
	war.WarTag = NormalizeTag(warTag)
	return war, nil
}

// LeagueWars fetches every scheduled war of the group concurrently, ordered by round.
func (c *Client) LeagueWars(ctx context.Context, group LeagueGroup) ([]ClanWar, error) {
	rounds := group.ScheduledWarTags()
	var mu sync.Mutex
	wars := make([]ClanWar, 0, len(rounds))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.concurrency)
	for tag, round := range rounds {
		eg.Go(func() error {
			war, err := c.LeagueWar(egCtx, tag)
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("league war %s: %w", tag, err)
			}
			if war.State == WarStateNotInWar {
				return nil
			}
			war.Round = round
			mu.Lock()
			wars = append(wars, war)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(wars, func(i, j int) bool {
		if wars[i].Round != wars[j].Round {
			return wars[i].Round < wars[j].Round
		}
		return wars[i].WarTag < wars[j].WarTag
	})
	return wars, nil
}

func (c *Client) WarLog(ctx context.Context, clanTag string, limit int) ([]WarLogEntry, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var resp warLogResponse
	if err := c.get(ctx, "/clans/"+escapeTag(clanTag)+"/warlog", query, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.throttle.Wait(ctx); err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("coc request %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("coc request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(body, apiErr)
		if apiErr.Reason == "" {
			apiErr.Reason = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func escapeTag(tag string) string {
	return url.PathEscape(NormalizeTag(tag))
}
