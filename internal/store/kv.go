// Package store small key/value stores with TTL that hold refresh sessions.
// A session row is keyed "<prefix><profile id>:<token id>" so every session of
// one profile can be found with a glob.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrMiss the key is absent or expired.
var ErrMiss = errors.New("session not found")

type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Take reads and removes key in one step; of two concurrent callers only
	// one sees the value.
	Take(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	// ScanKeys glob pattern as in redis SCAN MATCH.
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

// RedisKV sessions shared by every API replica.
type RedisKV struct {
	c *redis.Client
}

func NewRedisKV(c *redis.Client) *RedisKV { return &RedisKV{c: c} }

var _ KV = (*RedisKV)(nil)

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	return missOnNil(r.c.Get(ctx, key).Result())
}

func (r *RedisKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.c.Set(ctx, key, value, ttl).Err()
}

// Take uses GETDEL (redis 6.2+).
func (r *RedisKV) Take(ctx context.Context, key string) (string, error) {
	return missOnNil(r.c.GetDel(ctx, key).Result())
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	return r.c.Del(ctx, key).Err()
}

func (r *RedisKV) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := r.c.Scan(ctx, 0, pattern, 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

func missOnNil(val string, err error) (string, error) {
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}
