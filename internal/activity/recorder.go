// Package activity keeps the audit log of logins, exports and reloads.
package activity

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campaignboard/campaignboard/internal/models"
)

// Open opens the SQLite database with production settings and migrates it
func Open(url string, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 4
		maxIdleConns    = 2
		connMaxLifetime = 5 * time.Minute
		busyTimeout     = 5000 // 5 seconds
	)

	db, err := gorm.Open(sqlite.Open(url), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	// WAL mode must be set first
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// Recorder writes and reads audit entries. Write failures are logged and
// never interrupt the action being recorded.
type Recorder struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewRecorder creates a recorder over db
func NewRecorder(db *gorm.DB, logger zerolog.Logger) *Recorder {
	return &Recorder{db: db, logger: logger}
}

// Record stores one entry
func (r *Recorder) Record(ctx context.Context, entry models.Activity) {
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		r.logger.Warn().
			Err(err).
			Str("action", string(entry.Action)).
			Str("username", entry.Username).
			Msg("Failed to record activity")
	}
}

// Recent returns the newest entries first
func (r *Recorder) Recent(ctx context.Context, limit int) ([]models.Activity, error) {
	var entries []models.Activity
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return entries, nil
}

// Prune deletes entries created before cutoff and returns how many were removed
func (r *Recorder) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.Activity{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune activity: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Close closes the underlying database connection
func (r *Recorder) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
