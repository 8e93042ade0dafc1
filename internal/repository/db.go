package repository

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"taskflow/internal/model"
	"taskflow/internal/record"
)

// busyTimeoutMS is how long SQLite waits on a locked database. The bot,
// the scheduler and the record service write from several goroutines.
const busyTimeoutMS = 5000

type dbOptions struct {
	logLevel logger.LogLevel
	logOut   io.Writer
}

// Option adjusts how NewDB opens the database.
type Option func(*dbOptions)

// Quiet turns off gorm's query log. Terminal commands use it to keep their
// output clean.
func Quiet() Option {
	return func(o *dbOptions) { o.logLevel = logger.Silent }
}

// NewDB opens the SQLite database holding task and category records and bot
// subscribers, and migrates its schema.
func NewDB(dsn string, opts ...Option) (*gorm.DB, error) {
	o := dbOptions{logLevel: logger.Warn, logOut: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}
	if dsn == "" {
		dsn = "taskflow.db"
	}
	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(withBusyTimeout(dsn)), &gorm.Config{
		Logger: logger.New(log.New(o.logOut, "", log.LstdFlags), logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  o.logLevel,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.AutoMigrate(&record.CategoryRecord{}, &record.TaskRecord{}, &model.Subscriber{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// withBusyTimeout adds the driver's busy timeout parameter unless the DSN
// already sets one.
func withBusyTimeout(dsn string) string {
	if strings.Contains(dsn, "_busy_timeout") || strings.Contains(dsn, "_timeout=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_busy_timeout=%d", dsn, sep, busyTimeoutMS)
}

// ensureDirForSQLite creates the parent directory of a file database.
func ensureDirForSQLite(dsn string) error {
	if isMemoryDSN(dsn) {
		return nil
	}
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}
