// File: internal/repository/thread/snapshot_gorm.go
package thread

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/iyunix/go-relay/internal/domain"
)

const snapshotName = "threads"

// threadSnapshot is the single row holding the serialized collection.
type threadSnapshot struct {
	Name      string         `gorm:"primaryKey;size:64"`
	Data      datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

func (threadSnapshot) TableName() string { return "thread_snapshots" }

// GormSnapshotter stores the collection as one JSON row through gorm.
type GormSnapshotter struct {
	db *gorm.DB
}

// NewGormSnapshotter migrates the snapshot table on an existing connection.
func NewGormSnapshotter(db *gorm.DB) (*GormSnapshotter, error) {
	if err := db.AutoMigrate(&threadSnapshot{}); err != nil {
		return nil, fmt.Errorf("migrate thread_snapshots: %w", err)
	}
	return &GormSnapshotter{db: db}, nil
}

// OpenSQLiteSnapshotter opens (or creates) a sqlite database at path.
func OpenSQLiteSnapshotter(path string) (*GormSnapshotter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return NewGormSnapshotter(db)
}

func (g *GormSnapshotter) Load(ctx context.Context) ([]*domain.Thread, error) {
	var row threadSnapshot
	err := g.db.WithContext(ctx).First(&row, "name = ?", snapshotName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot row: %w", err)
	}
	return decodeSnapshot(row.Data)
}

func (g *GormSnapshotter) Save(ctx context.Context, threads []*domain.Thread) error {
	data, err := encodeSnapshot(threads, false)
	if err != nil {
		return err
	}
	row := threadSnapshot{Name: snapshotName, Data: datatypes.JSON(data), UpdatedAt: time.Now().UTC()}
	err = g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("save snapshot row: %w", err)
	}
	return nil
}

func (g *GormSnapshotter) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
