package biz

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Turn is one question/answer exchange.
type Turn struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"asked_at"`
}

// Session holds one conversation: its turns and the embedding of the
// most recent question, kept for carryover detection.
type Session struct {
	mu sync.Mutex

	id            string
	turns         []Turn
	lastEmbedding []float32
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Append records a completed turn and retains the question embedding.
func (s *Session) Append(question, answer string, embedding []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, Turn{
		Question: question,
		Answer:   answer,
		AskedAt:  time.Now(),
	})
	s.lastEmbedding = embedding
}

// Recent returns up to n most recent turns, oldest first.
func (s *Session) Recent(n int) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || len(s.turns) == 0 {
		return nil
	}
	start := len(s.turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(s.turns)-start)
	copy(out, s.turns[start:])
	return out
}

// Last returns the most recent turn and whether one exists.
func (s *Session) Last() (Turn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.turns) == 0 {
		return Turn{}, false
	}
	return s.turns[len(s.turns)-1], true
}

// LastEmbedding returns the embedding of the previous question, nil
// when the session has no turns yet.
func (s *Session) LastEmbedding() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastEmbedding
}

// Len returns the number of turns.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// SessionStore tracks conversations by id.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for id, creating it when missing.
// An empty id allocates a fresh session with a ULID identifier.
func (st *SessionStore) GetOrCreate(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if id == "" {
		id = ulid.Make().String()
	}
	if s, ok := st.sessions[id]; ok {
		return s
	}
	s := &Session{id: id}
	st.sessions[id] = s
	return s
}

// Get returns the session for id when it exists.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Reset discards every session.
func (st *SessionStore) Reset() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions = make(map[string]*Session)
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
