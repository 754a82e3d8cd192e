package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"paypromise/internal/ai"
	"paypromise/internal/ledger"
)

var ErrNotFound = errors.New("session not found")

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Session is one negotiation with one customer. Switching customer means
// opening a new session.
type Session struct {
	ID           string
	CustomerID   int64
	CustomerName string
	StartedAt    time.Time

	mu          sync.Mutex
	messages    []Message
	lastAudioID string
}

func (s *Session) Append(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Message{Role: role, Content: content, At: time.Now()})
}

// Messages returns a copy of the full history.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Window returns a copy of the last n messages.
func (s *Session) Window(n int) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := 0
	if n >= 0 && len(s.messages) > n {
		start = len(s.messages) - n
	}
	out := make([]Message, len(s.messages)-start)
	copy(out, s.messages[start:])
	return out
}

// MarkAudio records id as the last processed voice note. It returns false
// when id was already the last one processed.
func (s *Session) MarkAudio(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && id == s.lastAudioID {
		return false
	}
	s.lastAudioID = id
	return true
}

// ForgetAudio clears id so a failed voice note can be retried.
func (s *Session) ForgetAudio(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastAudioID == id {
		s.lastAudioID = ""
	}
}

// Store keeps sessions in memory for the life of the process.
type Store struct {
	sessions sync.Map
}

func NewStore() *Store {
	return &Store{}
}

// Open starts a session for c seeded with the greeting.
func (st *Store) Open(c ledger.Customer) *Session {
	s := &Session{
		ID:           uuid.NewString(),
		CustomerID:   c.ID,
		CustomerName: c.Name,
		StartedAt:    time.Now(),
	}
	s.Append(RoleAssistant, ai.GenerateGreeting(c.Name, c.Outstanding().String()))
	st.sessions.Store(s.ID, s)
	return s
}

func (st *Store) Get(id string) (*Session, error) {
	v, ok := st.sessions.Load(id)
	if !ok {
		return nil, ErrNotFound
	}
	return v.(*Session), nil
}

func (st *Store) Close(id string) error {
	if _, ok := st.sessions.LoadAndDelete(id); !ok {
		return ErrNotFound
	}
	return nil
}
