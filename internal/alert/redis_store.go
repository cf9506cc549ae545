package alert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	Prefix     string
	TTL        time.Duration
	MaxEntries int
}

// RedisStore keeps each record under its own key with TTL plus a sorted-set
// index by send time for listing. Records beyond the newest maxEntries are
// removed from both.
type RedisStore struct {
	client     redis.UniversalClient
	prefix     string
	ttl        time.Duration
	maxEntries int
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, fmt.Errorf("alert redis store: addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("alert redis store: ping: %w", err)
	}
	return newRedisStore(client, cfg.Prefix, cfg.TTL, cfg.MaxEntries), nil
}

func newRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration, maxEntries int) *RedisStore {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "roshi"
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, maxEntries: maxEntries}
}

func (s *RedisStore) recordKey(key string) string {
	return s.prefix + ":alert:" + key
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":alerts"
}

func (s *RedisStore) Get(ctx context.Context, key string) (Record, bool, error) {
	data, err := s.client.Get(ctx, s.recordKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, false, fmt.Errorf("decode alert record: %w", err)
	}
	return rec, true, nil
}

func (s *RedisStore) Put(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	sentMs := float64(rec.SentAt.UnixMilli())
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.recordKey(rec.Key), data, s.ttl)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: sentMs, Member: rec.Key})
		if s.ttl > 0 {
			cutoff := rec.SentAt.Add(-s.ttl).UnixMilli()
			pipe.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("(%d", cutoff))
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.evictOverflow(ctx)
}

func (s *RedisStore) evictOverflow(ctx context.Context) error {
	stale, err := s.client.ZRange(ctx, s.indexKey(), 0, int64(-s.maxEntries-1)).Result()
	if err != nil || len(stale) == 0 {
		return err
	}
	keys := make([]string, len(stale))
	members := make([]any, len(stale))
	for i, k := range stale {
		keys[i] = s.recordKey(k)
		members[i] = k
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.ZRem(ctx, s.indexKey(), members...)
		return nil
	})
	return err
}

func (s *RedisStore) List(ctx context.Context, limit int) ([]Record, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	keys, err := s.client.ZRevRange(ctx, s.indexKey(), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.recordKey(k)
	}
	vals, err := s.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
