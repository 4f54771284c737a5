package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/practicelog/internal/shared"
	"github.com/redis/go-redis/v9"
)

// SessionStore maps opaque session tokens to user ids.
//
// Get returns [shared.ErrSessionNotFound] for unknown or expired tokens. Invalidate succeeds
// for tokens that do not exist.
type SessionStore interface {
	Get(ctx context.Context, token string) (int64, error)
	Set(ctx context.Context, token string, userID int64) error
	Invalidate(ctx context.Context, token string) error
}

var (
	_ SessionStore = (*MemorySessionStore)(nil)
	_ SessionStore = (*RedisSessionStore)(nil)
)

// NewSessionStore builds the store selected by cfg.Backend.
// The returned close function releases the backend's connections.
func NewSessionStore(ctx context.Context, cfg shared.SessionConfig) (SessionStore, func() error, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemorySessionStore(cfg.Lifetime()), func() error { return nil }, nil
	case "redis":
		client, err := NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisSessionStore(client, cfg.Lifetime()), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown session backend %q", shared.ErrInvalidConfig, cfg.Backend)
	}
}

// sweepInterval is how many Set calls pass between sweeps of expired sessions.
const sweepInterval = 256

type memorySession struct {
	userID  int64
	expires time.Time
}

// MemorySessionStore is an in-process [SessionStore]. Sessions are lost on restart.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
	ttl      time.Duration
	now      func() time.Time

	sweepEvery int
	sets       int
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions:   make(map[string]memorySession),
		ttl:        ttl,
		now:        time.Now,
		sweepEvery: sweepInterval,
	}
}

func (m *MemorySessionStore) Get(_ context.Context, token string) (int64, error) {
	m.mu.RLock()
	session, ok := m.sessions[token]
	m.mu.RUnlock()

	if !ok || !m.now().Before(session.expires) {
		return 0, shared.ErrSessionNotFound
	}
	return session.userID, nil
}

// Set binds token to userID. Every sweepEvery calls it also drops expired sessions.
func (m *MemorySessionStore) Set(_ context.Context, token string, userID int64) error {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sets++
	if m.sets >= m.sweepEvery {
		m.sets = 0
		for t, s := range m.sessions {
			if !now.Before(s.expires) {
				delete(m.sessions, t)
			}
		}
	}
	m.sessions[token] = memorySession{userID: userID, expires: now.Add(m.ttl)}
	return nil
}

func (m *MemorySessionStore) Invalidate(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored sessions, including expired ones not yet swept.
func (m *MemorySessionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// NewRedisClient connects to redis and verifies the connection with a ping.
func NewRedisClient(ctx context.Context, cfg shared.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// RedisSessionStore keeps sessions in redis under "session:<token>" with a TTL.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (r *RedisSessionStore) key(token string) string {
	return "session:" + token
}

func (r *RedisSessionStore) Get(ctx context.Context, token string) (int64, error) {
	userID, err := r.client.Get(ctx, r.key(token)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, shared.ErrSessionNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read session: %w", err)
	}
	return userID, nil
}

func (r *RedisSessionStore) Set(ctx context.Context, token string, userID int64) error {
	if err := r.client.Set(ctx, r.key(token), userID, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Invalidate(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, r.key(token)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}
	return nil
}
