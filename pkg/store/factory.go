package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-training/social-relay/pkg/core"
)

// StoreType names a session store backend.
type StoreType string

const (
	// StoreTypeMemory keeps sessions in process.
	StoreTypeMemory StoreType = "memory"
	// StoreTypeRedis keeps sessions in Redis, shared between relay instances.
	StoreTypeRedis StoreType = "redis"
)

// ErrRedisAddrRequired is returned when a redis store is configured without an address.
var ErrRedisAddrRequired = errors.New("redis store requires an address")

// Store is a session store the process owns and must close on shutdown.
type Store interface {
	core.SessionStore
	Close()
}

// Config selects and configures the session backend.
type Config struct {
	Type  StoreType
	Redis RedisOptions
}

// ParseStoreType normalizes a STORE_TYPE value. Empty means memory; unknown
// names are returned as given and fail IsValid.
func ParseStoreType(s string) StoreType {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return StoreTypeMemory
	}
	return StoreType(s)
}

func (t StoreType) String() string {
	return string(t)
}

// IsValid reports whether t names a supported backend.
func (t StoreType) IsValid() bool {
	return t == StoreTypeMemory || t == StoreTypeRedis
}

// Validate reports configuration that NewStore would reject.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("unsupported store type %q", c.Type)
	}
	if c.Type == StoreTypeRedis && c.Redis.Addr == "" {
		return ErrRedisAddrRequired
	}
	return nil
}

// NewStore creates the backend described by cfg.
func NewStore(cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Type == StoreTypeRedis {
		s, err := NewRedisStoreFromOptions(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return NewMemoryStore(), nil
}
