package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/campusride/pkg/logging"
)

// RedisStore keeps each list as a JSON array string under its storage key.
type RedisStore struct {
	redis  *redis.Client
	logger *logging.Logger
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client, logger *logging.Logger) *RedisStore {
	if client == nil {
		panic("records: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisStore{redis: client, logger: logger}
}

// Append implements Store.
func (s *RedisStore) Append(ctx context.Context, kind Kind, record any) error {
	key, err := Key(kind)
	if err != nil {
		return err
	}
	data, err := s.read(ctx, key)
	if err != nil {
		return err
	}
	out, recovered, err := appendToList(data, record)
	if err != nil {
		return err
	}
	if recovered {
		s.logger.Warn("unparsable record list replaced", "key", key)
	}
	if err := s.redis.Set(ctx, key, out, 0).Err(); err != nil {
		return fmt.Errorf("records: redis set %s: %w", key, err)
	}
	return nil
}

// EnsureInitialized implements Store.
func (s *RedisStore) EnsureInitialized(ctx context.Context, kind Kind) error {
	key, err := Key(kind)
	if err != nil {
		return err
	}
	if err := s.redis.SetNX(ctx, key, emptyList, 0).Err(); err != nil {
		return fmt.Errorf("records: redis init %s: %w", key, err)
	}
	return nil
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context, kind Kind) ([]json.RawMessage, error) {
	key, err := Key(kind)
	if err != nil {
		return nil, err
	}
	data, err := s.read(ctx, key)
	if err != nil {
		return nil, err
	}
	list, _ := decodeList(data)
	return list, nil
}

func (s *RedisStore) read(ctx context.Context, key string) ([]byte, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("records: redis get %s: %w", key, err)
	}
	return data, nil
}
