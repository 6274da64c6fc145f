package credentials

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/mtafreight/dispatch-gateway/pkg/errors"
	"github.com/mtafreight/dispatch-gateway/pkg/redis"
)

// DefaultScope identifies the single operator session the gateway holds.
const DefaultScope = "admin"

// Store keeps the bearer token used against the brokerage backend.
type Store interface {
	// Token returns the stored token or CodeUnauthorized when absent or expired.
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string, ttl time.Duration) error
	Clear(ctx context.Context) error
}

// MemoryStore holds the token in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	until time.Time
	now   func() time.Time
}

// NewMemoryStore returns an empty in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) Token(ctx context.Context) (string, error) {
	m.mu.RLock()
	token, until := m.token, m.until
	m.mu.RUnlock()

	if token == "" {
		return "", apperrors.New(apperrors.CodeUnauthorized, "not authenticated")
	}
	if !until.IsZero() && m.now().After(until) {
		return "", apperrors.New(apperrors.CodeUnauthorized, "session expired")
	}
	if TokenExpired(token, m.now()) {
		return "", apperrors.New(apperrors.CodeUnauthorized, "session expired")
	}
	return token, nil
}

func (m *MemoryStore) SetToken(ctx context.Context, token string, ttl time.Duration) error {
	if token == "" {
		return apperrors.New(apperrors.CodeValidation, "token is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	if ttl > 0 {
		m.until = m.now().Add(ttl)
	} else {
		m.until = time.Time{}
	}
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.until = time.Time{}
	return nil
}

// RedisStore persists the token so it survives gateway restarts.
type RedisStore struct {
	client *redis.Client
	scope  string
	now    func() time.Time
}

// NewRedisStore returns a credential store backed by Redis.
func NewRedisStore(client *redis.Client, scope string) (*RedisStore, error) {
	if client == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "redis client is required")
	}
	if scope == "" {
		scope = DefaultScope
	}
	return &RedisStore{client: client, scope: scope, now: time.Now}, nil
}

func (r *RedisStore) Token(ctx context.Context) (string, error) {
	token, err := r.client.Get(ctx, r.client.CredentialKey(r.scope))
	if err == redis.Nil {
		return "", apperrors.New(apperrors.CodeUnauthorized, "not authenticated")
	}
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeDependency, err, "reading credential")
	}
	if TokenExpired(token, r.now()) {
		return "", apperrors.New(apperrors.CodeUnauthorized, "session expired")
	}
	return token, nil
}

func (r *RedisStore) SetToken(ctx context.Context, token string, ttl time.Duration) error {
	if token == "" {
		return apperrors.New(apperrors.CodeValidation, "token is required")
	}
	if err := r.client.Set(ctx, r.client.CredentialKey(r.scope), token, ttl); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "storing credential")
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.client.CredentialKey(r.scope)); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "clearing credential")
	}
	return nil
}
