// Package views runs interactive Discord messages: each session owns a View
// that renders components and reacts to its owner's interactions.
package views

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUnknownSession = errors.New("views: session expired")
	ErrNotOwner       = errors.New("views: only the user who opened this can use it")
	ErrBadCustomID    = errors.New("views: malformed custom id")
)

// View is an interactive message.
type View interface {
	Render(ctx context.Context) (Message, error)
	Handle(ctx context.Context, event Event) (Reply, error)
}

// Session binds a view to the user who opened it.
type Session struct {
	ID      string
	OwnerID string
	// Token identifies the original interaction so expiry can edit its response.
	Token string
	AppID string

	view  View
	mu    sync.Mutex
	last  Message
	timer Timer
}

// Last returns the most recent rendered message.
func (s *Session) Last() Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

type ExpireFunc func(session *Session, disabled Message)

type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	timeout  time.Duration
	clock    Clock
	logger   *zap.Logger
	onExpire ExpireFunc
	newID    func() string
}

func NewManager(timeout time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &Manager{
		sessions: make(map[string]*Session),
		timeout:  timeout,
		clock:    systemClock{},
		logger:   logger,
		newID:    uuid.NewString,
	}
}

func (m *Manager) WithClock(clock Clock) {
	m.clock = clock
}

// OnExpire registers the hook that receives a session's message with its components disabled.
func (m *Manager) OnExpire(fn ExpireFunc) {
	m.mu.Lock()
	m.onExpire = fn
	m.mu.Unlock()
}

// Start opens a session for ownerID and renders the first message.
func (m *Manager) Start(ctx context.Context, ownerID, appID, token string, view View) (*Session, Message, error) {
	session := &Session{
		ID:      m.newID(),
		OwnerID: ownerID,
		AppID:   appID,
		Token:   token,
		view:    view,
	}

	msg, err := view.Render(ctx)
	if err != nil {
		return nil, Message{}, err
	}
	msg.Components = rewriteComponents(msg.Components, sessionPrefix(session.ID), false)
	session.last = msg

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()
	m.schedule(session)

	m.logger.Debug("view session started", zap.String("session", session.ID), zap.String("user_id", ownerID))
	return session, msg, nil
}

// Handle routes a component or modal interaction to its session.
func (m *Manager) Handle(ctx context.Context, customID string, event Event) (Response, error) {
	sessionID, action, ok := parseCustomID(customID)
	if !ok {
		return Response{}, ErrBadCustomID
	}

	m.mu.Lock()
	session := m.sessions[sessionID]
	m.mu.Unlock()
	if session == nil {
		return Response{}, ErrUnknownSession
	}
	if session.OwnerID != event.UserID {
		return Response{}, ErrNotOwner
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if !m.alive(session) {
		return Response{}, ErrUnknownSession
	}
	m.schedule(session)

	event.Action = action
	reply, err := session.view.Handle(ctx, event)
	if err != nil {
		return Response{}, fmt.Errorf("view %s: %w", action, err)
	}

	prefix := sessionPrefix(session.ID)
	switch reply.Kind {
	case ReplyModal:
		return Response{Kind: ReplyModal, Modal: reply.Modal.Data(prefix)}, nil
	case ReplyNotice:
		return Response{Kind: ReplyNotice, Notice: reply.Notice}, nil
	case ReplyClose:
		m.remove(session)
		disabled := session.last
		disabled.Components = rewriteComponents(disabled.Components, prefix, true)
		session.last = disabled
		return Response{Kind: ReplyClose, Message: disabled}, nil
	default:
		msg, err := session.view.Render(ctx)
		if err != nil {
			return Response{}, fmt.Errorf("render: %w", err)
		}
		msg.Components = rewriteComponents(msg.Components, prefix, false)
		session.last = msg
		return Response{Kind: ReplyUpdate, Message: msg}, nil
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown stops every timer and drops all sessions without firing the expire hook.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, session := range m.sessions {
		if session.timer != nil {
			session.timer.Stop()
		}
		delete(m.sessions, id)
	}
}

func (m *Manager) schedule(session *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session.timer != nil {
		session.timer.Stop()
	}
	session.timer = m.clock.AfterFunc(m.timeout, func() { m.expire(session.ID) })
}

func (m *Manager) alive(session *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[session.ID] == session
}

func (m *Manager) remove(session *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session.timer != nil {
		session.timer.Stop()
	}
	delete(m.sessions, session.ID)
}

func (m *Manager) expire(sessionID string) {
	m.mu.Lock()
	session := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	hook := m.onExpire
	m.mu.Unlock()
	if session == nil {
		return
	}

	session.mu.Lock()
	disabled := session.last
	disabled.Components = rewriteComponents(disabled.Components, sessionPrefix(session.ID), true)
	session.last = disabled
	session.mu.Unlock()

	m.logger.Debug("view session expired", zap.String("session", sessionID))
	if hook != nil {
		hook(session, disabled)
	}
}
