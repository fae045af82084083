package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DraftTTL is how long an idle draft survives
	DraftTTL = 24 * time.Hour
	// LockTTL bounds how long one operation may hold a session
	LockTTL = 2 * time.Minute
)

// DraftStore persists wizard sessions between requests. Acquire gives one
// caller exclusive use of a session until Release.
type DraftStore interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	Acquire(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

// RedisStore keeps sessions as JSON documents in redis
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, ttl: DraftTTL}
}

func sessionKey(id string) string {
	return fmt.Sprintf("wizard:session:%s", id)
}

func lockKey(id string) string {
	return fmt.Sprintf("wizard:lock:%s", id)
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session from Redis: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session to Redis: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id), lockKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session from Redis: %w", err)
	}
	return nil
}

func (r *RedisStore) Acquire(ctx context.Context, id string) (bool, error) {
	ok, err := r.client.SetNX(ctx, lockKey(id), 1, LockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to lock session: %w", err)
	}
	return ok, nil
}

func (r *RedisStore) Release(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, lockKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to unlock session: %w", err)
	}
	return nil
}

// MemoryStore is an in-process DraftStore used in tests and when redis is
// not configured. Sessions are copied through JSON so callers never share state.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
	locks    map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string][]byte{}, locks: map[string]bool{}}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	data, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	m.mu.Lock()
	m.sessions[s.ID] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	delete(m.locks, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Acquire(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[id] {
		return false, nil
	}
	m.locks[id] = true
	return true, nil
}

func (m *MemoryStore) Release(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.locks, id)
	m.mu.Unlock()
	return nil
}
