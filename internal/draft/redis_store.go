package draft

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/johnkamauwamunga/energy-erp-sub002/internal/model"
)

// RedisStore is the primary draft backing: JSON blobs under SET with the
// TTL as the redis expiry, plus the embedded-timestamp check on Load so an
// operator-tuned TTL shorter than a key's remaining expiry still wins.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
	now Clock
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration, now Clock) *RedisStore {
	if now == nil {
		now = time.Now
	}
	return &RedisStore{rdb: rdb, ttl: ttl, now: now}
}

var _ Store = (*RedisStore)(nil)

func (s *RedisStore) Save(ctx context.Context, key string, snap model.DraftSnapshot) error {
	snap.Version = SnapshotVersion
	snap.SavedAt = s.now()
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, b, s.ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, key, expectedShiftID string) (*model.DraftSnapshot, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap model.DraftSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		// Corruption is absence — drop the entry and move on.
		log.Debug().Str("key", key).Err(err).Msg("draft: discarding unparseable snapshot")
		_ = s.rdb.Del(ctx, key).Err()
		return nil, nil
	}
	if !validSnapshot(&snap, expectedShiftID, s.ttl, s.now()) {
		log.Debug().
			Str("key", key).
			Str("stored_shift", snap.ShiftID).
			Str("expected_shift", expectedShiftID).
			Time("saved_at", snap.SavedAt).
			Msg("draft: rejecting stale or mismatched snapshot")
		_ = s.rdb.Del(ctx, key).Err()
		return nil, nil
	}
	return &snap, nil
}

func (s *RedisStore) Invalidate(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func (s *RedisStore) Sweep(ctx context.Context, stationID, expectedShiftID string) error {
	pattern := StationPrefix(stationID) + "*"
	now := s.now()

	iter := s.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		b, err := s.rdb.Get(ctx, key).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return err
		}
		var snap model.DraftSnapshot
		if err := json.Unmarshal(b, &snap); err != nil {
			_ = s.rdb.Del(ctx, key).Err()
			continue
		}
		if !validSnapshot(&snap, expectedShiftID, s.ttl, now) {
			_ = s.rdb.Del(ctx, key).Err()
		}
	}
	return iter.Err()
}
