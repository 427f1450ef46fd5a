package store

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/cesargomez89/catalogsync/internal/constants"
)

// Pragmas are passed through the DSN so they apply to every pooled connection.
const dsnPragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)&_txlock=immediate"

type DB struct {
	*sqlx.DB
	writeMode string
}

type Option func(*options)

type options struct {
	writeMode    string
	maxOpenConns int
}

// WithWriteMode selects how conflicting natural keys are skipped.
func WithWriteMode(mode string) Option {
	return func(o *options) { o.writeMode = mode }
}

// WithWriters sizes the connection pool for the given number of concurrent writers.
func WithWriters(n int) Option {
	return func(o *options) { o.maxOpenConns = n + 2 }
}

func NewSQLiteDB(path string, opts ...Option) (*DB, error) {
	o := options{
		writeMode:    constants.WriteModeOnConflict,
		maxOpenConns: constants.DefaultWorkerPoolSize + 2,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.writeMode != constants.WriteModeOnConflict && o.writeMode != constants.WriteModeCheckThenWrite {
		return nil, fmt.Errorf("unknown write mode %q", o.writeMode)
	}

	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&" + dsnPragmas
	} else {
		dsn += "?" + dsnPragmas
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	db.SetMaxOpenConns(o.maxOpenConns)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{DB: db, writeMode: o.writeMode}, nil
}

func (db *DB) WriteMode() string {
	return db.writeMode
}

func (db *DB) Close() error {
	return db.DB.Close()
}
