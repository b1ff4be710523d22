package coc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{BaseURL: server.URL, Token: "secret", Concurrency: 2}, zap.NewNop())
}

func TestClientSendsBearerToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		if r.URL.EscapedPath() != "/clans/%232PP/currentwar" {
			t.Errorf("unexpected path %q", r.URL.EscapedPath())
		}
		_, _ = w.Write([]byte(`{"state":"inWar","teamSize":15,"endTime":"20261001T080000.000Z","clan":{"tag":"#2PP","stars":30},"opponent":{"tag":"#8QQ","stars":28}}`))
	})

	war, err := client.CurrentWar(context.Background(), "2pp")
	if err != nil {
		t.Fatalf("current war: %v", err)
	}
	if war.Round != -1 {
		t.Fatalf("expected round -1, got %d", war.Round)
	}
	want := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	if !war.EndTime.Equal(want) {
		t.Fatalf("expected end %v, got %v", want, war.EndTime.Time)
	}
	if war.Clan.Stars != 30 || war.Opponent.Tag != "#8QQ" {
		t.Fatalf("unexpected war %+v", war)
	}
}

func TestClientMapsErrors(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusForbidden, ErrAccessDenied},
		{http.StatusServiceUnavailable, ErrMaintenance},
		{http.StatusTooManyRequests, ErrThrottled},
	}
	for _, tc := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"reason":"someReason","message":"nope"}`))
		})
		_, err := client.Clan(context.Background(), "#2PP")
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Reason != "someReason" {
			t.Fatalf("expected api error body, got %v", err)
		}
	}
}

func TestPlayersSkipsMissingAndKeepsOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		tag := strings.TrimPrefix(r.URL.Path, "/players/")
		if tag == "#9VV" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"tag":"` + tag + `","name":"p` + tag[1:] + `","townHallLevel":15}`))
	})

	players, err := client.Players(context.Background(), []string{"#2PP", "#9VV", "#8QQ", "#LLL"})
	if err != nil {
		t.Fatalf("players: %v", err)
	}
	if len(players) != 3 {
		t.Fatalf("expected 3 players, got %d", len(players))
	}
	if players[0].Tag != "#2PP" || players[1].Tag != "#8QQ" || players[2].Tag != "#LLL" {
		t.Fatalf("unexpected order %v %v %v", players[0].Tag, players[1].Tag, players[2].Tag)
	}
}

func TestLeagueWarsSkipsUnscheduled(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		tag := strings.TrimPrefix(r.URL.Path, "/clanwarleagues/wars/")
		state := WarStateEnded
		if tag == "#RRR" {
			state = WarStateNotInWar
		}
		_, _ = w.Write([]byte(`{"state":"` + state + `","teamSize":15,"clan":{"tag":"#A"},"opponent":{"tag":"#B"}}`))
	})

	group := LeagueGroup{Rounds: []LeagueRound{
		{WarTags: []string{"#2PP", "#8QQ"}},
		{WarTags: []string{"#LLL", "#RRR"}},
		{WarTags: []string{"#0", "#0"}},
	}}
	wars, err := client.LeagueWars(context.Background(), group)
	if err != nil {
		t.Fatalf("league wars: %v", err)
	}
	if got := calls.Load(); got != 4 {
		t.Fatalf("expected 4 requests, got %d", got)
	}
	if len(wars) != 3 {
		t.Fatalf("expected 3 wars, got %d", len(wars))
	}
	if wars[0].Round != 0 || wars[2].Round != 1 || wars[2].WarTag != "#LLL" {
		t.Fatalf("unexpected ordering: %+v", wars)
	}
	if !wars[0].IsLeagueWar() || wars[0].AttacksAllowed() != 1 {
		t.Fatalf("expected league war semantics")
	}
}

func TestWarResult(t *testing.T) {
	war := ClanWar{
		State:    WarStateEnded,
		Clan:     WarClan{Tag: "#A", Stars: 20, DestructionPercentage: 70},
		Opponent: WarClan{Tag: "#B", Stars: 20, DestructionPercentage: 65.5},
	}
	if got := war.Result("#A"); got != WarResultWin {
		t.Fatalf("expected win, got %q", got)
	}
	if got := war.Result("#B"); got != WarResultLose {
		t.Fatalf("expected lose, got %q", got)
	}
	if got := war.Result("#C"); got != WarResultUndetermined {
		t.Fatalf("expected undetermined, got %q", got)
	}
	war.State = WarStateInWar
	if got := war.Result("#A"); got != WarResultUndetermined {
		t.Fatalf("expected undetermined during war, got %q", got)
	}
}
