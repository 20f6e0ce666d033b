// Package remote talks to the remote authoritative store: row-level
// reads and writes against one table per synced collection, plus a
// pub/sub change feed used to invalidate the local working copy.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	applogger "github.com/stationops/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DatabaseConfig holds remote store connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
}

// DSN builds the postgres connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Row is the document shape shared by all synced tables: one JSON
// payload per record, keyed by the record's id.
type Row struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)"`
	Payload   []byte    `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// Client is the gorm-backed remote store client
type Client struct {
	db *gorm.DB
}

// NewClient connects to the remote store
func NewClient(cfg *DatabaseConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 applogger.NewGormLogger(logger, gormlogger.Warn),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to remote store: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	}

	return &Client{db: db}, nil
}

// Ping probes remote connectivity once. Callers bound it with a
// context deadline and fail closed to degraded mode on error.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// FetchCollection reads every row of one synced table, oldest first
func (c *Client) FetchCollection(ctx context.Context, table string) ([]json.RawMessage, error) {
	var rows []Row
	if err := c.db.WithContext(ctx).Table(table).Order("updated_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", table, err)
	}

	docs := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, json.RawMessage(row.Payload))
	}
	return docs, nil
}

// PushCollection replaces the remote table contents with the given
// documents. Push is last-writer-wins by contract; no merge happens on
// either side.
func (c *Client) PushCollection(ctx context.Context, table string, docs []json.RawMessage) error {
	now := time.Now()
	rows := make([]Row, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, Row{
			ID:        documentID(doc),
			Payload:   doc,
			UpdatedAt: now,
		})
	}

	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(table).Where("1 = 1").Delete(&Row{}).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Table(table).Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to push %s: %w", table, err)
		}
		return nil
	})
}

// Close closes the remote connection
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// documentID extracts the id field of a serialized document, falling
// back to a generated id for documents without one
func documentID(doc json.RawMessage) string {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(doc, &probe); err == nil && probe.ID != "" {
		return probe.ID
	}
	return uuid.NewString()
}
