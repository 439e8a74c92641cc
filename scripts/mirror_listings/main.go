package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"provider/internal/database"
	"provider/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// mirrorSchema is the consumer side table. listing_id is the provider id, so
// rerunning the mirror only adds listings it has not seen.
const mirrorSchema = `
CREATE TABLE IF NOT EXISTS mirrored_listings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    listing_id INTEGER NOT NULL UNIQUE,
    name TEXT NOT NULL,
    address TEXT,
    city TEXT,
    country TEXT,
    image_id INTEGER,
    available BOOLEAN NOT NULL DEFAULT 1,
    occupants INTEGER NOT NULL DEFAULT 1
);`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		dbPath     = flag.String("db", "./data/provider.db", "path to the provider sqlite db")
		targetPath = flag.String("target", "./data/backend.db", "path to the consumer sqlite db")
	)
	flag.Parse()

	src, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open provider db: %w", err)
	}
	defer src.Close()

	dst, err := sql.Open("sqlite3", *targetPath+"?_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("open target db: %w", err)
	}
	defer dst.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	inserted, err := mirror(ctx, src, dst, &logger)
	if err != nil {
		return err
	}
	fmt.Printf("done: inserted=%d\n", inserted)
	return nil
}

type listingSource interface {
	ListListings(ctx context.Context, available *bool) ([]*models.Listing, error)
}

// mirror copies provider listings missing from the target in one transaction.
func mirror(ctx context.Context, src listingSource, dst *sql.DB, logger *zerolog.Logger) (int, error) {
	if _, err := dst.ExecContext(ctx, mirrorSchema); err != nil {
		return 0, fmt.Errorf("create mirror table: %w", err)
	}

	listings, err := src.ListListings(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("list listings: %w", err)
	}

	tx, err := dst.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO mirrored_listings
        (listing_id, name, address, city, country, image_id, available, occupants)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(listing_id) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, l := range listings {
		res, err := stmt.ExecContext(ctx, l.ID, l.Name, l.Address, l.City, l.Country, l.ImageID, l.Available, l.Occupants)
		if err != nil {
			return 0, fmt.Errorf("insert listing %d: %w", l.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			inserted++
			logger.Debug().Int64("listing_id", l.ID).Msg("listing mirrored")
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}
