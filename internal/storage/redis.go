package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "weekcal:events"

// RedisOptions configures a RedisSlot.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// RedisSlot keeps the value under one redis key with no expiry.
type RedisSlot struct {
	rdb *redis.Client
	key string
}

// NewRedisSlot connects lazily; the first Load or Save surfaces dial errors.
func NewRedisSlot(opts RedisOptions) (*RedisSlot, error) {
	if opts.Addr == "" {
		return nil, errors.New("storage: redis address is empty")
	}
	key := opts.Key
	if key == "" {
		key = defaultRedisKey
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &RedisSlot{rdb: rdb, key: key}, nil
}

func (s *RedisSlot) Load(ctx context.Context) ([]byte, error) {
	b, err := s.rdb.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *RedisSlot) Save(ctx context.Context, data []byte) error {
	return s.rdb.Set(ctx, s.key, data, 0).Err()
}

// Close releases the connection pool.
func (s *RedisSlot) Close() error {
	return s.rdb.Close()
}
