// Package history persists a local log of search runs to a SQLite
// database file, so a user can recall past invocations with
// `grepsql history`. It is purely additive: the core search path never
// depends on it, and a missing or unopenable database degrades to a no-op.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Run records one `grepsql search` invocation.
type Run struct {
	ID           uint   `gorm:"primaryKey"`
	Pattern      string `gorm:"type:text;not null"`
	Targets      datatypes.JSON
	TargetCount  int
	MatchCount   int
	DurationMS   int64
	HadError     bool
	ErrorMessage string    `gorm:"type:text"`
	RanAt        time.Time `gorm:"index;autoCreateTime"`
}

// Store wraps a gorm connection to the history database.
type Store struct {
	db *gorm.DB
}

// Open connects to (creating if absent) the SQLite database at path and
// migrates the schema. Debug enables gorm's query logger, matching the
// teacher's db.Connect debug-logging toggle.
func Open(path string, debug bool) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history db directory: %w", err)
		}
	}

	cfg := &gorm.Config{}
	if debug {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, fmt.Errorf("migrating history db: %w", err)
	}

	return &Store{db: db}, nil
}

// Record inserts one completed run.
func (s *Store) Record(r *Run) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Create(r).Error
}

// Recent returns the most recently recorded runs, newest first, bounded by limit.
func (s *Store) Recent(limit int) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var runs []Run
	err := s.db.Order("ran_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// Prune deletes run records older than keep entries, oldest first, mirroring
// the teacher's retention-count convention (internal/config.RetentionRuns).
func (s *Store) Prune(keep int) error {
	if s == nil || s.db == nil || keep < 0 {
		return nil
	}
	var total int64
	if err := s.db.Model(&Run{}).Count(&total).Error; err != nil {
		return err
	}
	if total <= int64(keep) {
		return nil
	}

	var cutoff Run
	if err := s.db.Order("ran_at DESC, id DESC").Offset(keep).Limit(1).First(&cutoff).Error; err != nil {
		return err
	}
	return s.db.Where("ran_at < ? OR (ran_at = ? AND id <= ?)", cutoff.RanAt, cutoff.RanAt, cutoff.ID).Delete(&Run{}).Error
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
