// Package database opens the SQLite connection shared by the wiki and guild
// settings repositories.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	defaultBusyTimeout = 5 * time.Second
	slowQueryThreshold = 200 * time.Millisecond
)

// Options controls how the SQLite database connection is initialised.
type Options struct {
	Path         string
	Logger       *logrus.Logger
	BusyTimeout  time.Duration
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxIdle  time.Duration
	ConnMaxLife  time.Duration
}

type pragma struct {
	statement string
	purpose   string
}

// Open creates the parent directory when needed, connects through Gorm and
// applies the connection pragmas every repository relies on.
func Open(opts Options) (*gorm.DB, error) {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		return nil, eris.New("database path is required")
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = defaultBusyTimeout
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "creating database directory: %s", dir)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn(path, opts.BusyTimeout)), &gorm.Config{Logger: gormLogger(opts.Logger)})
	if err != nil {
		return nil, eris.Wrapf(err, "opening sqlite database: %s", path)
	}

	sqlDB, err := SQLDB(db)
	if err != nil {
		return nil, err
	}
	configurePool(sqlDB, opts)

	for _, p := range pragmas(opts.BusyTimeout) {
		if err := db.Exec(p.statement).Error; err != nil {
			_ = sqlDB.Close()
			return nil, eris.Wrap(err, p.purpose)
		}
	}

	if opts.Logger != nil {
		opts.Logger.WithFields(logrus.Fields{
			"path":         path,
			"busy_timeout": opts.BusyTimeout.String(),
		}).Debug("sqlite database opened")
	}

	return db, nil
}

func dsn(path string, busyTimeout time.Duration) string {
	params := url.Values{}
	params.Set("_busy_timeout", fmt.Sprint(busyTimeout.Milliseconds()))
	params.Set("_foreign_keys", "1")
	params.Set("_journal_mode", "WAL")
	return "file:" + path + "?" + params.Encode()
}

// pragmas are re-applied after connecting since DSN parameters only cover
// connections the driver opens itself.
func pragmas(busyTimeout time.Duration) []pragma {
	return []pragma{
		{statement: "PRAGMA foreign_keys = ON;", purpose: "enabling foreign keys pragma"},
		{statement: fmt.Sprintf("PRAGMA busy_timeout = %d;", busyTimeout.Milliseconds()), purpose: "configuring busy timeout pragma"},
		{statement: "PRAGMA journal_mode = WAL;", purpose: "setting journal mode to WAL"},
	}
}

func gormLogger(log *logrus.Logger) logger.Interface {
	if log == nil {
		return logger.Default.LogMode(logger.Warn)
	}
	return logger.New(log, logger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

func configurePool(sqlDB *sql.DB, opts Options) {
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxIdle > 0 {
		sqlDB.SetConnMaxIdleTime(opts.ConnMaxIdle)
	}
	if opts.ConnMaxLife > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLife)
	}
}

// Ping verifies the connection is usable.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := SQLDB(db)
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return eris.Wrap(err, "pinging database")
	}
	return nil
}

// Close releases the underlying database resources. A nil db is a no-op.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := SQLDB(db)
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return eris.Wrap(err, "closing database connection")
	}
	return nil
}

// SQLDB exposes the underlying *sql.DB.
func SQLDB(db *gorm.DB) (*sql.DB, error) {
	if db == nil {
		return nil, eris.New("gorm.DB is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, eris.Wrap(err, "retrieving sql.DB")
	}
	return sqlDB, nil
}
