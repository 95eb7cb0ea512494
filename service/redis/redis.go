package redis

import (
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/sgx-protocol/goapi/base/ctx"
)

// Forever marks a key without expiry.
const Forever = time.Duration(-1)

var (
	// ErrNotFound is returned when the key does not exist
	ErrNotFound = redis.ErrNil
	// ErrGapTime is returned when no pool can serve the command
	ErrGapTime = errors.New("in gap time, no available pool")
	// ErrExpireNotExistOrTimeout is returned when EXPIRE hits a missing key
	ErrExpireNotExistOrTimeout = errors.New("key not exist or timeout could not be set")
	// ErrNoTTL is returned by TTL when the key has no associated expire
	ErrNoTTL = errors.New("key has no associated ttl")
)

// MVal is one slot of a multi-key reply. Valid is false when the key was
// missing.
type MVal struct {
	Valid bool
	Value []byte
}

// Service is the redis operation set the api consumes
type Service interface {
	Get(c ctx.Ctx, key string) ([]byte, error)
	MGet(c ctx.Ctx, keys []string) ([]MVal, error)
	Set(c ctx.Ctx, key string, val []byte, expire time.Duration) error
	SetNX(c ctx.Ctx, key string, val []byte, expire time.Duration) error
	Del(c ctx.Ctx, keys ...string) (int, error)
	Incrby(c ctx.Ctx, key string, val int) (int64, error)
	Expire(c ctx.Ctx, key string, ttl time.Duration) error
	// TTL returns the remaining time to live in seconds
	TTL(c ctx.Ctx, key string) (int, error)
	Exists(c ctx.Ctx, key string) (bool, error)
}
