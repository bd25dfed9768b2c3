package streaming

import (
	"sync"

	"github.com/rs/zerolog"
)

// Handler consumes events emitted into a session. Implementations must be
// safe for concurrent use; the executor emits from multiple goroutines.
type Handler interface {
	HandleEvent(event *Event) error
	HandleError(err error, sessionID string)
	Close() error
}

// Session is an ordered, append-only event sink. Events fan out to every
// attached handler in emission order; a failing handler never blocks the rest.
type Session struct {
	id string

	mu       sync.Mutex
	handlers []Handler
	active   bool
}

func NewSession(id string) *Session {
	return &Session{id: id, active: true}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) AddHandler(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}

func (s *Session) RemoveHandler(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.handlers {
		if existing == h {
			s.handlers = append(s.handlers[:i], s.handlers[i+1:]...)
			return
		}
	}
}

// Emit stamps the event with the session id and delivers it to all handlers.
// Emission order defines stream order: the mutex serializes concurrent
// emitters so every handler observes the same sequence.
func (s *Session) Emit(event *Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.SessionID = s.id
	for _, h := range s.handlers {
		if err := h.HandleEvent(event); err != nil {
			// Handler errors must not disturb the other handlers.
			h.HandleError(err, s.id)
		}
	}
}

// Stop closes all handlers and detaches them.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = false
	for _, h := range s.handlers {
		_ = h.Close()
	}
	s.handlers = nil
}

func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Manager tracks live sessions. It is an explicit dependency handed to the
// server and executor rather than package-level state, so independent
// managers can coexist in tests.
type Manager struct {
	logger zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(logger zerolog.Logger) *Manager {
	return &Manager{
		logger:   logger.With().Str("component", "streaming").Logger(),
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session, stopping any previous session with the
// same id first.
func (m *Manager) Create(id string) *Session {
	m.mu.Lock()
	old, exists := m.sessions[id]
	session := NewSession(id)
	m.sessions[id] = session
	m.mu.Unlock()

	if exists {
		m.logger.Debug().Str("session_id", id).Msg("replacing existing session")
		old.Stop()
	}
	return session
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	return session, ok
}

// GetOrCreate returns the existing session or registers a fresh one.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	if session, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return session
	}
	session := NewSession(id)
	m.sessions[id] = session
	m.mu.Unlock()
	return session
}

// Close stops and removes one session.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		session.Stop()
	}
}

// CloseAll stops and removes every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
	}
}
