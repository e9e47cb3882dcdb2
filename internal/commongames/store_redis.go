package commongames

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/park285/steam-common-games-bot/internal/domain"
	"github.com/redis/go-redis/v9"
)

const DefaultResultTTL = 24 * time.Hour

// RedisStore keeps each requester's last result as a JSON string under cg:result:<key>.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore wraps rdb. A non-positive ttl keeps records until overwritten.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) keyResult(key string) string { return "cg:result:" + strings.TrimSpace(key) }

func (s *RedisStore) Save(ctx context.Context, key string, r *Result) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("save result: empty key")
	}
	raw, err := r.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.rdb.Set(ctx, s.keyResult(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, key string) (*Result, error) {
	raw, err := s.rdb.Get(ctx, s.keyResult(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load result: %w", err)
	}
	return decodeResult(raw)
}

func (s *RedisStore) Page(r *Result, idx int) []domain.Game { return Page(r, idx) }

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
