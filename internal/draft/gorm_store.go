package draft

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnkamauwamunga/energy-erp-sub002/internal/model"
)

// draftRow is the relational shape of a stored snapshot. TTL is enforced
// on read (and by Sweep) against SavedAt rather than by the database.
type draftRow struct {
	Key       string    `gorm:"primaryKey;size:255"`
	StationID string    `gorm:"index;not null"`
	ShiftID   string    `gorm:"index;not null"`
	Blob      []byte    `gorm:"type:jsonb;not null"`
	SavedAt   time.Time `gorm:"not null"`
}

func (draftRow) TableName() string { return "shift_draft_snapshots" }

// GormStore is the durable draft backing for deployments without redis.
type GormStore struct {
	db  *gorm.DB
	ttl time.Duration
	now Clock
}

func NewGormStore(db *gorm.DB, ttl time.Duration, now Clock) (*GormStore, error) {
	if now == nil {
		now = time.Now
	}
	if err := db.AutoMigrate(&draftRow{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db, ttl: ttl, now: now}, nil
}

var _ Store = (*GormStore)(nil)

func (s *GormStore) Save(ctx context.Context, key string, snap model.DraftSnapshot) error {
	snap.Version = SnapshotVersion
	snap.SavedAt = s.now()
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	row := draftRow{
		Key:       key,
		StationID: snap.StationID,
		ShiftID:   snap.ShiftID,
		Blob:      b,
		SavedAt:   snap.SavedAt,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).
		Create(&row).Error
}

func (s *GormStore) Load(ctx context.Context, key, expectedShiftID string) (*model.DraftSnapshot, error) {
	var row draftRow
	err := s.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap model.DraftSnapshot
	if err := json.Unmarshal(row.Blob, &snap); err != nil {
		_ = s.db.WithContext(ctx).Delete(&draftRow{}, "key = ?", key).Error
		return nil, nil
	}
	if !validSnapshot(&snap, expectedShiftID, s.ttl, s.now()) {
		_ = s.db.WithContext(ctx).Delete(&draftRow{}, "key = ?", key).Error
		return nil, nil
	}
	return &snap, nil
}

func (s *GormStore) Invalidate(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&draftRow{}, "key = ?", key).Error
}

func (s *GormStore) Sweep(ctx context.Context, stationID, expectedShiftID string) error {
	cutoff := s.now().Add(-s.ttl)
	prefix := StationPrefix(stationID)
	// Escape LIKE wildcards in the station id before matching on key.
	like := strings.NewReplacer(`%`, `\%`, `_`, `\_`).Replace(prefix) + "%"
	return s.db.WithContext(ctx).
		Where("key LIKE ?", like).
		Where("shift_id <> ? OR saved_at < ?", expectedShiftID, cutoff).
		Delete(&draftRow{}).Error
}
