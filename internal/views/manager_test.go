package views

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

type fakeTimer struct {
	stopped bool
	fn      func()
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return true
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	delays []time.Duration
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{fn: fn}
	f.timers = append(f.timers, t)
	f.delays = append(f.delays, d)
	return t
}

// Advance fires every timer that has not been stopped.
func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	pending := append([]*fakeTimer{}, f.timers...)
	f.timers = nil
	f.delays = nil
	f.mu.Unlock()
	for _, timer := range pending {
		if !timer.stopped {
			timer.fn()
		}
	}
}

type counterView struct {
	count int
}

func (c *counterView) Render(context.Context) (Message, error) {
	return Message{
		Content: fmt.Sprintf("count %d", c.count),
		Components: []discordgo.MessageComponent{row(
			button("inc", "+1", discordgo.PrimaryButton, false),
			button("ask", "Ask", discordgo.SecondaryButton, false),
			button(actionClose, "Close", discordgo.DangerButton, false),
		)},
	}, nil
}

func (c *counterView) Handle(_ context.Context, event Event) (Reply, error) {
	switch event.Action {
	case "inc":
		c.count++
		return Update(), nil
	case "ask":
		return OpenModal(Modal{Action: "answer", Title: "Add", Inputs: []TextInput{{ID: "amount", Label: "Amount"}}}), nil
	case "answer":
		c.count += len(event.Fields["amount"])
		return Update(), nil
	case "warn":
		return Notice(&discordgo.MessageEmbed{Title: "careful"}), nil
	case actionClose:
		return Close(), nil
	}
	return Reply{}, fmt.Errorf("unknown action %q", event.Action)
}

func newTestManager() (*Manager, *fakeClock) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	manager := NewManager(time.Minute, zap.NewNop())
	manager.WithClock(clock)
	manager.newID = func() string { return "s1" }
	return manager, clock
}

func customIDs(components []discordgo.MessageComponent) []string {
	var ids []string
	for _, component := range components {
		switch c := component.(type) {
		case discordgo.ActionsRow:
			ids = append(ids, customIDs(c.Components)...)
		case discordgo.Button:
			ids = append(ids, c.CustomID)
		case discordgo.SelectMenu:
			ids = append(ids, c.CustomID)
		}
	}
	return ids
}

func allDisabled(components []discordgo.MessageComponent) bool {
	for _, component := range components {
		switch c := component.(type) {
		case discordgo.ActionsRow:
			if !allDisabled(c.Components) {
				return false
			}
		case discordgo.Button:
			if !c.Disabled {
				return false
			}
		case discordgo.SelectMenu:
			if !c.Disabled {
				return false
			}
		}
	}
	return true
}

func TestManagerPrefixesCustomIDs(t *testing.T) {
	manager, _ := newTestManager()
	session, msg, err := manager.Start(context.Background(), "u1", "app", "token", &counterView{})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.ID != "s1" || manager.Len() != 1 {
		t.Fatalf("unexpected session %+v len=%d", session, manager.Len())
	}
	want := []string{"v:s1:inc", "v:s1:ask", "v:s1:close"}
	if diff := cmp.Diff(want, customIDs(msg.Components)); diff != "" {
		t.Fatalf("custom ids mismatch (-want +got):\n%s", diff)
	}
}

func TestManagerHandleUpdate(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()
	if _, _, err := manager.Start(ctx, "u1", "app", "token", &counterView{}); err != nil {
		t.Fatalf("start: %v", err)
	}

	resp, err := manager.Handle(ctx, "v:s1:inc", Event{UserID: "u1"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if resp.Kind != ReplyUpdate || resp.Message.Content != "count 1" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if ids := customIDs(resp.Message.Components); ids[0] != "v:s1:inc" {
		t.Fatalf("expected re-render to keep prefix, got %v", ids)
	}
}

func TestManagerRejectsOtherUsers(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()
	_, _, _ = manager.Start(ctx, "u1", "app", "token", &counterView{})

	if _, err := manager.Handle(ctx, "v:s1:inc", Event{UserID: "u2"}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, err := manager.Handle(ctx, "v:nope:inc", Event{UserID: "u1"}); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
	if _, err := manager.Handle(ctx, "v:s1", Event{UserID: "u1"}); !errors.Is(err, ErrBadCustomID) {
		t.Fatalf("expected ErrBadCustomID, got %v", err)
	}
}

func TestManagerModalRoundTrip(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()
	_, _, _ = manager.Start(ctx, "u1", "app", "token", &counterView{})

	resp, err := manager.Handle(ctx, "v:s1:ask", Event{UserID: "u1"})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if resp.Kind != ReplyModal || resp.Modal == nil || resp.Modal.CustomID != "v:s1:answer" {
		t.Fatalf("unexpected modal response %+v", resp)
	}
	input := resp.Modal.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.TextInput)
	if input.CustomID != "amount" {
		t.Fatalf("unexpected input id %q", input.CustomID)
	}

	resp, err = manager.Handle(ctx, resp.Modal.CustomID, Event{UserID: "u1", Fields: map[string]string{"amount": "abc"}})
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if resp.Message.Content != "count 3" {
		t.Fatalf("unexpected content %q", resp.Message.Content)
	}
}

func TestManagerNoticeLeavesMessage(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()
	session, _, _ := manager.Start(ctx, "u1", "app", "token", &counterView{count: 4})

	resp, err := manager.Handle(ctx, "v:s1:warn", Event{UserID: "u1"})
	if err != nil {
		t.Fatalf("warn: %v", err)
	}
	if resp.Kind != ReplyNotice || resp.Notice.Title != "careful" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if session.Last().Content != "count 4" {
		t.Fatalf("notice should not re-render, got %q", session.Last().Content)
	}
}

func TestManagerClose(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()
	_, _, _ = manager.Start(ctx, "u1", "app", "token", &counterView{})

	resp, err := manager.Handle(ctx, "v:s1:close", Event{UserID: "u1"})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if resp.Kind != ReplyClose || !allDisabled(resp.Message.Components) {
		t.Fatalf("expected disabled components, got %+v", resp.Message.Components)
	}
	if manager.Len() != 0 {
		t.Fatalf("expected session removed")
	}
	if _, err := manager.Handle(ctx, "v:s1:inc", Event{UserID: "u1"}); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession after close, got %v", err)
	}
}

func TestManagerExpiry(t *testing.T) {
	manager, clock := newTestManager()
	ctx := context.Background()

	var expired *Session
	var disabled Message
	manager.OnExpire(func(session *Session, msg Message) {
		expired = session
		disabled = msg
	})
	_, _, _ = manager.Start(ctx, "u1", "app", "token", &counterView{})

	if len(clock.delays) != 1 || clock.delays[0] != time.Minute {
		t.Fatalf("expected one timer of a minute, got %v", clock.delays)
	}
	clock.Advance(time.Minute)

	if expired == nil || expired.Token != "token" {
		t.Fatalf("expected expire hook, got %+v", expired)
	}
	if !allDisabled(disabled.Components) {
		t.Fatalf("expected disabled components")
	}
	if manager.Len() != 0 {
		t.Fatalf("expected session dropped")
	}
}

func TestManagerInteractionRefreshesTimeout(t *testing.T) {
	manager, clock := newTestManager()
	ctx := context.Background()
	fired := 0
	manager.OnExpire(func(*Session, Message) { fired++ })
	_, _, _ = manager.Start(ctx, "u1", "app", "token", &counterView{})

	first := clock.timers[0]
	if _, err := manager.Handle(ctx, "v:s1:inc", Event{UserID: "u1"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !first.stopped {
		t.Fatalf("expected first timer stopped")
	}
	if len(clock.timers) != 2 {
		t.Fatalf("expected a fresh timer, got %d", len(clock.timers))
	}

	clock.Advance(time.Minute)
	if fired != 1 {
		t.Fatalf("expected one expiry, got %d", fired)
	}
}

func TestManagerShutdown(t *testing.T) {
	manager, clock := newTestManager()
	fired := false
	manager.OnExpire(func(*Session, Message) { fired = true })
	_, _, _ = manager.Start(context.Background(), "u1", "app", "token", &counterView{})

	manager.Shutdown()
	clock.Advance(time.Minute)
	if manager.Len() != 0 || fired {
		t.Fatalf("expected silent shutdown, len=%d fired=%v", manager.Len(), fired)
	}
}
