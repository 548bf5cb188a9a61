// Package session issues and validates bearer tokens for signed-in users.
// Tokens are opaque random strings mapped to an email with a TTL; the mapping
// can live in memory, redis, or sqlite.
package session

import (
	"context"
	"time"
)

// Session is one issued token.
type Session struct {
	Token     string     `json:"token"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the session is past its expiry.
func (s Session) Expired() bool {
	return s.ExpiresAt != nil && time.Now().After(*s.ExpiresAt)
}

// Store persists sessions. Drivers must treat missing tokens as (zero, false,
// nil), not as an error.
type Store interface {
	Put(ctx context.Context, sess Session) error
	Get(ctx context.Context, token string) (Session, bool, error)
	Remove(ctx context.Context, token string) error
	CleanupExpired(ctx context.Context) error
	Stats(ctx context.Context) (map[string]any, error)
	Close(ctx context.Context) error
}

// Config describes the store selection parameters.
type Config struct {
	Driver string
	TTL    time.Duration
	Redis  *RedisConfig
	Memory *MemoryConfig
}

// MemoryConfig holds in-memory tuning knobs.
type MemoryConfig struct {
	GCInterval time.Duration
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}
