package draft

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/johnkamauwamunga/energy-erp-sub002/internal/model"
)

// MemoryStore keeps drafts in-process. Used by tests and by embedded
// deployments that run without redis or postgres. Blobs are stored
// serialized so the memory backing exercises the same parse path as the
// durable ones.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	ttl   time.Duration
	now   Clock
}

func NewMemoryStore(ttl time.Duration, now Clock) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		blobs: make(map[string][]byte),
		ttl:   ttl,
		now:   now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Save(_ context.Context, key string, snap model.DraftSnapshot) error {
	snap.Version = SnapshotVersion
	snap.SavedAt = s.now()
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = b
	return nil
}

func (s *MemoryStore) Load(_ context.Context, key, expectedShiftID string) (*model.DraftSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.blobs[key]
	if !ok {
		return nil, nil
	}
	var snap model.DraftSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		delete(s.blobs, key)
		return nil, nil
	}
	if !validSnapshot(&snap, expectedShiftID, s.ttl, s.now()) {
		delete(s.blobs, key)
		return nil, nil
	}
	return &snap, nil
}

func (s *MemoryStore) Invalidate(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *MemoryStore) Sweep(_ context.Context, stationID, expectedShiftID string) error {
	prefix := StationPrefix(stationID)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, b := range s.blobs {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		var snap model.DraftSnapshot
		if err := json.Unmarshal(b, &snap); err != nil {
			delete(s.blobs, key)
			continue
		}
		if !validSnapshot(&snap, expectedShiftID, s.ttl, now) {
			delete(s.blobs, key)
		}
	}
	return nil
}

// corrupt overwrites a stored blob, for tests exercising the parse-failure
// path.
func (s *MemoryStore) corrupt(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; ok {
		s.blobs[key] = []byte("{not json")
	}
}

// contains reports whether a key is present, for tests.
func (s *MemoryStore) contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[key]
	return ok
}
