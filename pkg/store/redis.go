package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-training/social-relay/pkg/core"
	"github.com/redis/rueidis"
)

// sessionPrefix namespaces session keys in Redis.
const sessionPrefix = "session:"

// RedisStore implements core.SessionStore using Redis via rueidis.
// Sessions are stored as JSON with a Redis-side TTL.
type RedisStore struct {
	client rueidis.Client
}

// NewRedisStore creates a new instance of RedisStore with the provided rueidis client.
func NewRedisStore(client rueidis.Client) *RedisStore {
	return &RedisStore{
		client: client,
	}
}

// RedisOptions contains configuration for Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStoreFromOptions creates a new RedisStore with simplified options.
func NewRedisStoreFromOptions(opts RedisOptions) (*RedisStore, error) {
	return NewRedisStoreFromClientOption(rueidis.ClientOption{
		InitAddress: []string{opts.Addr},
		Password:    opts.Password,
		SelectDB:    opts.DB,
	})
}

// NewRedisStoreFromClientOption creates a new RedisStore with full rueidis client options.
func NewRedisStoreFromClientOption(opts rueidis.ClientOption) (*RedisStore, error) {
	client, err := rueidis.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	return NewRedisStore(client), nil
}

// Close closes the Redis client connection.
func (r *RedisStore) Close() {
	r.client.Close()
}

// Ping checks the connection to Redis.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Do(ctx, r.client.B().Ping().Build()).Error()
}

// GetSession retrieves a session from Redis by ID.
// Reads skip client-side caching: a callback must see the state written by
// the authorization request that preceded it.
func (r *RedisStore) GetSession(ctx context.Context, id string) (*core.Session, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}

	cmd := r.client.B().Get().Key(sessionPrefix + id).Build()
	result, err := r.client.Do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}

	var sess core.Session
	if err := json.Unmarshal([]byte(result), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

// SaveSession stores a session in Redis, resetting its TTL.
func (r *RedisStore) SaveSession(ctx context.Context, sess *core.Session, ttl time.Duration) error {
	if sess == nil {
		return ErrNilSession
	}
	if sess.ID == "" {
		return ErrEmptySessionID
	}
	if ttl < time.Second {
		return ErrInvalidTTL
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	cmd := r.client.B().Set().Key(sessionPrefix + sess.ID).Value(string(data)).ExSeconds(int64(ttl.Seconds())).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to save session to redis: %w", err)
	}
	return nil
}

// DeleteSession removes a session from Redis.
func (r *RedisStore) DeleteSession(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptySessionID
	}

	cmd := r.client.B().Del().Key(sessionPrefix + id).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}
