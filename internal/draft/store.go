// Package draft persists resumable snapshots of in-progress closing
// sessions under TTL-bounded keys. A draft is only ever resumed for the
// exact shift it was taken from; anything expired, mismatched or
// unparseable is treated as absent and removed.
package draft

import (
	"context"
	"fmt"
	"time"

	"github.com/johnkamauwamunga/energy-erp-sub002/internal/model"
)

// SnapshotVersion is embedded in every saved snapshot. A stored blob with
// a different version is treated as corruption and discarded on load.
const SnapshotVersion = 1

// KeyPrefix scopes every draft key in the shared backing store.
const KeyPrefix = "shiftclose:draft:"

// Key builds the storage key for one (station, shift) pair.
func Key(stationID, shiftID string) string {
	return fmt.Sprintf("%s%s:%s", KeyPrefix, stationID, shiftID)
}

// StationPrefix is the key prefix covering every draft of one station,
// used by Sweep.
func StationPrefix(stationID string) string {
	return KeyPrefix + stationID + ":"
}

// Store is the TTL-bounded draft persistence contract.
//
// Load returns (nil, nil) — and removes the entry — when the stored
// snapshot's shift differs from expectedShiftID, its age exceeds the TTL,
// or the blob fails to parse. Corruption is absence, not an error.
type Store interface {
	Save(ctx context.Context, key string, snap model.DraftSnapshot) error
	Load(ctx context.Context, key, expectedShiftID string) (*model.DraftSnapshot, error)
	Invalidate(ctx context.Context, key string) error
	// Sweep removes every draft of the station that is stale or belongs
	// to a different shift than expectedShiftID.
	Sweep(ctx context.Context, stationID, expectedShiftID string) error
}

// Clock supplies the current time; injected so TTL behavior is testable
// without waiting.
type Clock func() time.Time

func validSnapshot(snap *model.DraftSnapshot, expectedShiftID string, ttl time.Duration, now time.Time) bool {
	if snap.Version != SnapshotVersion {
		return false
	}
	if snap.ShiftID != expectedShiftID {
		return false
	}
	if now.Sub(snap.SavedAt) > ttl {
		return false
	}
	return true
}
