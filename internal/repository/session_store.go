package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/edututor/edututor-backend/internal/config"
	"github.com/edututor/edututor-backend/internal/quiz"
	"github.com/redis/go-redis/v9"
)

// SessionStore holds each user's in-flight quiz session, keyed by email.
// Load returns an empty session when none is stored.
type SessionStore interface {
	Load(ctx context.Context, email string) (quiz.Session, error)
	Save(ctx context.Context, email string, s quiz.Session) error
	Delete(ctx context.Context, email string) error
	Ping(ctx context.Context) error
}

// RedisSessionStore stores sessions as JSON strings that expire after ttl of inactivity.
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSessionStore creates a new RedisSessionStore.
func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func (s *RedisSessionStore) Load(ctx context.Context, email string) (quiz.Session, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.QuizSessionKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return quiz.NewSession(), nil
	}
	if err != nil {
		return quiz.Session{}, fmt.Errorf("get session: %w", err)
	}

	var sess quiz.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return quiz.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, email string, sess quiz.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.rdb.Set(ctx, config.CacheKey.QuizSessionKey(email), data, s.ttl).Err()
}

func (s *RedisSessionStore) Delete(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, config.CacheKey.QuizSessionKey(email)).Err()
}

func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// MemorySessionStore keeps sessions in process memory without expiry.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
}

// NewMemorySessionStore creates an empty MemorySessionStore.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string][]byte)}
}

func (s *MemorySessionStore) Load(_ context.Context, email string) (quiz.Session, error) {
	s.mu.Lock()
	data, ok := s.sessions[email]
	s.mu.Unlock()
	if !ok {
		return quiz.NewSession(), nil
	}

	var sess quiz.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return quiz.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

// Save stores an encoded copy so callers never share answer slices with the store.
func (s *MemorySessionStore) Save(_ context.Context, email string, sess quiz.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	s.mu.Lock()
	s.sessions[email] = data
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	delete(s.sessions, email)
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Ping(context.Context) error { return nil }
