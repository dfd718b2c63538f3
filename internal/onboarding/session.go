package onboarding

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/google/uuid"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session accumulates what the assistant has learned so far plus the full
// chat history it needs to resume the conversation.
type Session struct {
	ID           string    `json:"id"`
	Step         int       `json:"step"`
	BusinessType string    `json:"business_type,omitempty"`
	BusinessName string    `json:"business_name,omitempty"`
	Items        []string  `json:"items,omitempty"`
	OwnerEmail   string    `json:"owner_email,omitempty"`
	History      []Message `json:"history"`
	CreatedAt    time.Time `json:"created_at"`
}

func newSession() *Session {
	return &Session{
		ID:        uuid.NewString(),
		Step:      1,
		CreatedAt: time.Now().UTC(),
	}
}

// SessionStore holds onboarding sessions for the duration of a chat. They
// are throwaway state: losing one just restarts the conversation.
type SessionStore interface {
	Get(ctx context.Context, id string) (*Session, bool, error)
	Save(ctx context.Context, session *Session, ttl time.Duration) error
}

type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(addr string, password string, db int) *RedisSessionStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

func sessionKey(id string) string {
	return "onboard:session:" + id
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*Session, bool, error) {
	val, err := s.client.Get(ctx, sessionKey(id)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var session Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, false, err
	}
	return &session, true, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, session *Session, ttl time.Duration) error {
	if session == nil {
		return nil
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(session.ID), payload, ttl).Err()
}

// MemorySessionStore backs dev mode and tests. Expiry is checked lazily on
// Get; entries for abandoned sessions linger until process exit, which is
// acceptable for a dev store.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]memoryEntry)}
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.sessions, id)
		return nil, false, nil
	}
	session := entry.session
	session.History = append([]Message(nil), entry.session.History...)
	return &session, true, nil
}

func (s *MemorySessionStore) Save(_ context.Context, session *Session, ttl time.Duration) error {
	if session == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *session
	stored.History = append([]Message(nil), session.History...)
	s.sessions[session.ID] = memoryEntry{
		session:   stored,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}
