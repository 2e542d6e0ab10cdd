package session

import (
	"sync"

	"github.com/google/uuid"

	"voicechat/internal/ports"
)

// Store holds one session's conversation state for the process lifetime:
// the append-only turn history and the identity of the last processed mic
// capture. History grows without bound; readers ask for windows.
type Store struct {
	id string

	mu          sync.Mutex
	turns       []ports.Turn
	lastCapture string

	// serializes whole turns: one turn runs to completion before the
	// next input event on the same session is processed
	turnMu sync.Mutex
}

func NewStore(id string) *Store {
	return &Store{id: id}
}

func (s *Store) ID() string {
	return s.id
}

// BeginTurn blocks until no other turn is in flight on this session.
func (s *Store) BeginTurn() {
	s.turnMu.Lock()
}

func (s *Store) EndTurn() {
	s.turnMu.Unlock()
}

func (s *Store) AppendTurn(t ports.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, t)
}

// RecentTurns returns up to n most recent turns in original order.
func (s *Store) RecentTurns(n int) []ports.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := len(s.turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]ports.Turn, len(s.turns)-start)
	copy(out, s.turns[start:])
	return out
}

// History returns a copy of the full turn history.
func (s *Store) History() []ports.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ports.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

func (s *Store) LastCapture() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCapture
}

func (s *Store) SetLastCapture(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCapture = id
}

// Manager hands out one Store per session ID. Sessions are never evicted;
// they live as long as the process, like the conversation they hold.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Store
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Store)}
}

// GetOrCreate returns the store for id, creating it on first use. An empty
// id gets a fresh session with a generated ID.
func (m *Manager) GetOrCreate(id string) *Store {
	if id == "" {
		id = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.sessions[id]
	if !ok {
		st = NewStore(id)
		m.sessions[id] = st
	}
	return st
}

// Get returns the store for id, or nil when the session does not exist.
func (m *Manager) Get(id string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}
