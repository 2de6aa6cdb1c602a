package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the session persistence contract consumed by the orchestrator.
//
// Implementations must be safe for concurrent use across session ids;
// operations on different ids must never contend on a single lock. Turns for
// one session are appended in call order — the orchestrator serializes turns
// per session, the store preserves whatever order it is handed.
type Store interface {
	// GetOrCreate returns a snapshot of the session, creating it on first
	// sight of an unseen id.
	GetOrCreate(ctx context.Context, sessionID, userID string) (*Session, error)

	// Get returns a snapshot of an existing session.
	// Returns ErrSessionNotFound for unknown ids.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// SetLanguage records the session's language tag.
	SetLanguage(ctx context.Context, sessionID, lang string) error

	// SetLocation records the last-known location.
	// Returns ErrInvalidLocation for out-of-bounds coordinates.
	SetLocation(ctx context.Context, sessionID string, loc Location) error

	// SetMemory writes one memory bag entry, last-write-wins.
	SetMemory(ctx context.Context, sessionID, key, value string) error

	// AppendTurn appends one turn to the transcript.
	AppendTurn(ctx context.Context, sessionID string, turn Turn) error

	// History returns up to limit most recent turns in append order.
	// limit <= 0 means all retained turns.
	History(ctx context.Context, sessionID string, limit int) ([]Turn, error)
}

// entry is the mutable in-memory state for one session.
// Each entry carries its own lock so sessions never contend with each other.
type entry struct {
	mu        sync.RWMutex
	userID    string
	language  string
	location  *Location
	memory    map[string]string
	turns     []Turn
	createdAt time.Time
	updatedAt time.Time
}

// MemoryStore is an in-process Store with per-session locking.
//
// The transcript is bounded: once a session exceeds maxTurns, the oldest
// turns are dropped. Eviction of whole sessions is deliberately absent —
// retention is a deployment policy, not orchestrator logic.
type MemoryStore struct {
	mu       sync.RWMutex // guards the sessions map only
	sessions map[string]*entry
	maxTurns int
	now      func() time.Time
}

// NewMemoryStore creates an in-memory session store.
// maxTurns bounds the retained transcript per session; values < 1 fall back
// to 100.
func NewMemoryStore(maxTurns int) *MemoryStore {
	if maxTurns < 1 {
		maxTurns = 100
	}
	return &MemoryStore{
		sessions: make(map[string]*entry),
		maxTurns: maxTurns,
		now:      time.Now,
	}
}

// lookup returns the entry for sessionID, optionally creating it.
func (s *MemoryStore) lookup(sessionID, userID string, create bool) (*entry, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return e, nil
	}
	if !create {
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-check under the write lock: another goroutine may have created it.
	if e, ok := s.sessions[sessionID]; ok {
		return e, nil
	}
	now := s.now()
	e = &entry{
		userID:    userID,
		memory:    make(map[string]string),
		createdAt: now,
		updatedAt: now,
	}
	s.sessions[sessionID] = e
	return e, nil
}

// snapshot builds an immutable Session view of an entry.
func (e *entry) snapshot(id string) *Session {
	e.mu.RLock()
	defer e.mu.RUnlock()

	memory := make(map[string]string, len(e.memory))
	for k, v := range e.memory {
		memory[k] = v
	}
	var loc *Location
	if e.location != nil {
		l := *e.location
		loc = &l
	}
	return &Session{
		ID:        id,
		UserID:    e.userID,
		Language:  e.language,
		Location:  loc,
		Memory:    memory,
		TurnCount: len(e.turns),
		CreatedAt: e.createdAt,
		UpdatedAt: e.updatedAt,
	}
}

// GetOrCreate implements Store.
func (s *MemoryStore) GetOrCreate(_ context.Context, sessionID, userID string) (*Session, error) {
	e, err := s.lookup(sessionID, userID, true)
	if err != nil {
		return nil, err
	}
	return e.snapshot(sessionID), nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (*Session, error) {
	e, err := s.lookup(sessionID, "", false)
	if err != nil {
		return nil, err
	}
	return e.snapshot(sessionID), nil
}

// SetLanguage implements Store.
func (s *MemoryStore) SetLanguage(_ context.Context, sessionID, lang string) error {
	e, err := s.lookup(sessionID, "", false)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.language = lang
	e.updatedAt = s.now()
	return nil
}

// SetLocation implements Store.
func (s *MemoryStore) SetLocation(_ context.Context, sessionID string, loc Location) error {
	if !loc.Valid() {
		return ErrInvalidLocation
	}
	e, err := s.lookup(sessionID, "", false)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.location = &loc
	e.updatedAt = s.now()
	return nil
}

// SetMemory implements Store.
func (s *MemoryStore) SetMemory(_ context.Context, sessionID, key, value string) error {
	e, err := s.lookup(sessionID, "", false)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.memory[key] = value
	e.updatedAt = s.now()
	return nil
}

// AppendTurn implements Store.
func (s *MemoryStore) AppendTurn(_ context.Context, sessionID string, turn Turn) error {
	e, err := s.lookup(sessionID, "", false)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if turn.ID == uuid.Nil {
		turn.ID = uuid.New()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = s.now()
	}
	e.turns = append(e.turns, turn)
	if len(e.turns) > s.maxTurns {
		// Drop oldest turns; copy so the backing array does not pin them.
		trimmed := make([]Turn, s.maxTurns)
		copy(trimmed, e.turns[len(e.turns)-s.maxTurns:])
		e.turns = trimmed
	}
	e.updatedAt = s.now()
	return nil
}

// History implements Store.
func (s *MemoryStore) History(_ context.Context, sessionID string, limit int) ([]Turn, error) {
	e, err := s.lookup(sessionID, "", false)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	turns := e.turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}
