package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"provider/internal/domain"
	"provider/internal/models"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store runs the provider queries against the database or an open transaction.
type Store struct {
	q queryer
}

var _ domain.Store = (*Store)(nil)

type DB struct {
	*sql.DB
	Store
	path   string
	logger *zerolog.Logger
}

var _ domain.Repository = (*DB)(nil)

type options struct {
	listingIDStart int64
}

type Option func(*options)

// WithListingIDStart sets the first listing id of an empty database.
func WithListingIDStart(start int64) Option {
	return func(o *options) { o.listingIDStart = start }
}

func NewDB(path string, logger *zerolog.Logger, opts ...Option) (*DB, error) {
	o := options{listingIDStart: models.DefaultListingIDStart}
	for _, opt := range opts {
		opt(&o)
	}

	memory := path == ":memory:"
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Every transaction is BEGIN IMMEDIATE: writers queue on the database lock
	// instead of failing on upgrade, which serializes check-then-insert flows.
	dsn := path + "?_txlock=immediate&_busy_timeout=5000"
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		// each connection would otherwise get its own empty database
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: sqlDB, Store: Store{q: sqlDB}, path: path, logger: logger}

	if err := db.createTables(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	if err := db.ensureListingSequence(o.listingIDStart); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to init listing sequence: %w", err)
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return db, nil
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS listings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            address TEXT NOT NULL DEFAULT '',
            city TEXT NOT NULL DEFAULT '',
            country TEXT NOT NULL DEFAULT '',
            image_id INTEGER,
            available BOOLEAN NOT NULL DEFAULT 1,
            occupants INTEGER NOT NULL DEFAULT 1,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS seasonal_prices (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            listing_id INTEGER NOT NULL,
            price REAL NOT NULL,
            start_date TEXT NOT NULL,
            end_date TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS images (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            listing_id INTEGER NOT NULL,
            link TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS listing_commissions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            listing_id INTEGER NOT NULL,
            commission REAL NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS listing_services (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            listing_id INTEGER NOT NULL,
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT ''
        )`,
		`CREATE TABLE IF NOT EXISTS cancellation_policies (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            days_before INTEGER NOT NULL,
            penalty REAL NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS customers (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            listing_id INTEGER NOT NULL,
            customer_id INTEGER NOT NULL,
            check_in TEXT NOT NULL,
            check_out TEXT NOT NULL,
            locator INTEGER NOT NULL UNIQUE,
            total_price REAL NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS client_webhooks (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            client_id TEXT NOT NULL,
            url TEXT NOT NULL,
            active BOOLEAN NOT NULL DEFAULT 1,
            secret_token TEXT NOT NULL,
            event_types TEXT NOT NULL DEFAULT '[]',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            UNIQUE (client_id, url)
        )`,
		`CREATE TABLE IF NOT EXISTS webhook_outbox (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            webhook_id INTEGER NOT NULL,
            event_type TEXT NOT NULL,
            listing_id INTEGER NOT NULL,
            payload TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME NOT NULL,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_listings_available ON listings(available)`,
		`CREATE INDEX IF NOT EXISTS idx_seasonal_prices_listing ON seasonal_prices(listing_id, start_date, end_date)`,
		`CREATE INDEX IF NOT EXISTS idx_images_listing ON images(listing_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_listing_dates ON bookings(listing_id, check_in, check_out)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_customer ON bookings(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_webhooks_client ON client_webhooks(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_webhook_outbox_status ON webhook_outbox(status, next_retry_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// ensureListingSequence makes the first AUTOINCREMENT listing id equal start.
// A database that already allocated ids keeps its sequence.
func (db *DB) ensureListingSequence(start int64) error {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_sequence WHERE name = 'listings'`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err := db.Exec(`INSERT INTO sqlite_sequence (name, seq) VALUES ('listings', ?)`, start-1)
	return err
}

// WithTx runs fn in one write transaction and commits when fn returns nil.
func (db *DB) WithTx(ctx context.Context, fn func(domain.Store) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&Store{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

func (db *DB) Path() string {
	return db.path
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func rowsAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
