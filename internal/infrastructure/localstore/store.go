// Package localstore is the durable local persistence layer: a
// key-value table holding one serialized blob per entity collection,
// stamped with a schema version. The working copy stays the source of
// truth during a session; the snapshot is a derived, eventually
// consistent copy.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	applogger "github.com/stationops/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// SchemaVersion marks the snapshot layout. Blobs written under another
// version are skipped on load rather than failing the whole snapshot.
const SchemaVersion = 1

// DefaultMaxBytes caps the estimated snapshot payload. Saves that
// would exceed it fail gracefully instead of filling the device.
const DefaultMaxBytes int64 = 64 << 20

// SnapshotSource provides the collections to persist
type SnapshotSource interface {
	ExportCollections() (map[string]json.RawMessage, error)
}

// SnapshotSink receives collections on load
type SnapshotSink interface {
	ImportCollections(map[string]json.RawMessage) error
}

// Config holds local store settings
type Config struct {
	Path     string
	MaxBytes int64
}

type snapshotBlob struct {
	CollectionName string    `gorm:"primaryKey;column:collection_name"`
	SchemaVersion  int       `gorm:"not null"`
	Payload        []byte    `gorm:"not null"`
	RecordCount    int       `gorm:"not null"`
	SavedAt        time.Time `gorm:"not null"`
}

func (snapshotBlob) TableName() string {
	return "snapshot_blobs"
}

// Store is the sqlite-backed snapshot store
type Store struct {
	db       *gorm.DB
	maxBytes int64
	logger   *zap.Logger
}

// Open opens (or creates) the snapshot database at cfg.Path
func Open(cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("local store path is required")
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger:                 applogger.NewGormLogger(logger, gormlogger.Warn),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	if err := db.AutoMigrate(&snapshotBlob{}); err != nil {
		return nil, fmt.Errorf("failed to migrate local store: %w", err)
	}

	return &Store{db: db, maxBytes: cfg.MaxBytes, logger: logger}, nil
}

// SaveSnapshot serializes the source's collections into the store. It
// returns a boolean success flag and never propagates an error to the
// caller: a failed save degrades to last-known-good on disk.
func (s *Store) SaveSnapshot(ctx context.Context, source SnapshotSource) bool {
	collections, err := source.ExportCollections()
	if err != nil {
		s.logger.Error("Failed to export collections for snapshot", zap.Error(err))
		return false
	}

	var estimated int64
	for _, payload := range collections {
		estimated += int64(len(payload))
	}
	if estimated > s.maxBytes {
		s.logger.Warn("Snapshot payload exceeds capacity, save skipped",
			zap.Int64("estimated_bytes", estimated),
			zap.Int64("max_bytes", s.maxBytes))
		return false
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for name, payload := range collections {
			blob := snapshotBlob{
				CollectionName: name,
				SchemaVersion:  SchemaVersion,
				Payload:        payload,
				RecordCount:    countRecords(payload),
				SavedAt:        now,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "collection_name"}},
				UpdateAll: true,
			}).Create(&blob).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to write snapshot", zap.Error(err))
		return false
	}

	return true
}

// LoadSnapshot rehydrates the sink from the stored blobs. Corrupt or
// version-mismatched blobs are skipped with a warning so one bad
// collection cannot block startup.
func (s *Store) LoadSnapshot(ctx context.Context, sink SnapshotSink) error {
	var blobs []snapshotBlob
	if err := s.db.WithContext(ctx).Find(&blobs).Error; err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	collections := make(map[string]json.RawMessage, len(blobs))
	for _, blob := range blobs {
		if blob.SchemaVersion != SchemaVersion {
			s.logger.Warn("Skipping snapshot blob with unknown schema version",
				zap.String("collection", blob.CollectionName),
				zap.Int("schema_version", blob.SchemaVersion))
			continue
		}
		if !json.Valid(blob.Payload) {
			s.logger.Warn("Skipping corrupt snapshot blob",
				zap.String("collection", blob.CollectionName))
			continue
		}
		collections[blob.CollectionName] = blob.Payload
	}

	if len(collections) == 0 {
		return nil
	}
	return sink.ImportCollections(collections)
}

// CollectionInfo describes one stored collection
type CollectionInfo struct {
	Name      string    `json:"name"`
	Records   int       `json:"records"`
	SizeBytes int64     `json:"size_bytes"`
	SavedAt   time.Time `json:"saved_at"`
}

// Info aggregates operator-facing storage statistics
type Info struct {
	SchemaVersion  int              `json:"schema_version"`
	Collections    []CollectionInfo `json:"collections"`
	TotalRecords   int              `json:"total_records"`
	TotalSizeBytes int64            `json:"total_size_bytes"`
}

// DatabaseInfo returns record counts per collection and a total-size
// estimate. Not consumed by the engine; operator surface only.
func (s *Store) DatabaseInfo(ctx context.Context) (Info, error) {
	var blobs []snapshotBlob
	if err := s.db.WithContext(ctx).Order("collection_name").Find(&blobs).Error; err != nil {
		return Info{}, fmt.Errorf("failed to read snapshot info: %w", err)
	}

	info := Info{SchemaVersion: SchemaVersion}
	for _, blob := range blobs {
		info.Collections = append(info.Collections, CollectionInfo{
			Name:      blob.CollectionName,
			Records:   blob.RecordCount,
			SizeBytes: int64(len(blob.Payload)),
			SavedAt:   blob.SavedAt,
		})
		info.TotalRecords += blob.RecordCount
		info.TotalSizeBytes += int64(len(blob.Payload))
	}
	return info, nil
}

// ExportArchive returns the full snapshot as one JSON document, used
// for archive uploads
func (s *Store) ExportArchive(ctx context.Context) ([]byte, error) {
	var blobs []snapshotBlob
	if err := s.db.WithContext(ctx).Find(&blobs).Error; err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	archive := struct {
		SchemaVersion int                        `json:"schema_version"`
		ExportedAt    time.Time                  `json:"exported_at"`
		Collections   map[string]json.RawMessage `json:"collections"`
	}{
		SchemaVersion: SchemaVersion,
		ExportedAt:    time.Now(),
		Collections:   make(map[string]json.RawMessage, len(blobs)),
	}
	for _, blob := range blobs {
		archive.Collections[blob.CollectionName] = blob.Payload
	}
	return json.Marshal(archive)
}

// Close closes the underlying database
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// countRecords counts the elements of a serialized JSON array without
// decoding the elements themselves
func countRecords(payload []byte) int {
	var items []json.RawMessage
	if err := json.Unmarshal(payload, &items); err != nil {
		return 0
	}
	return len(items)
}
