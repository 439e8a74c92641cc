package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"provider/internal/domain"
	"provider/internal/models"
)

const listingColumns = `id, name, address, city, country, image_id, available, occupants, created_at, updated_at`

func scanListing(row scanner) (*models.Listing, error) {
	var l models.Listing
	err := row.Scan(
		&l.ID,
		&l.Name,
		&l.Address,
		&l.City,
		&l.Country,
		&l.ImageID,
		&l.Available,
		&l.Occupants,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) CreateListing(ctx context.Context, listing *models.Listing) error {
	query := `INSERT INTO listings (name, address, city, country, image_id, available, occupants, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := s.q.ExecContext(ctx, query,
		listing.Name,
		listing.Address,
		listing.City,
		listing.Country,
		listing.ImageID,
		listing.Available,
		listing.Occupants,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	listing.ID = id
	listing.CreatedAt = now
	listing.UpdatedAt = now
	return nil
}

func (s *Store) GetListing(ctx context.Context, id int64) (*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = ?`
	listing, err := scanListing(s.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("listing %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return listing, nil
}

// ListListings returns all listings, or only those matching available when it is set.
func (s *Store) ListListings(ctx context.Context, available *bool) ([]*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings`
	var args []interface{}
	if available != nil {
		query += ` WHERE available = ?`
		args = append(args, *available)
	}
	query += ` ORDER BY id`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (s *Store) ListListingIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id FROM listings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list listing ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan listing id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateListing replaces every mutable field of the listing.
func (s *Store) UpdateListing(ctx context.Context, listing *models.Listing) error {
	query := `UPDATE listings
              SET name = ?, address = ?, city = ?, country = ?, image_id = ?, available = ?, occupants = ?, updated_at = ?
              WHERE id = ?`
	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx, query,
		listing.Name,
		listing.Address,
		listing.City,
		listing.Country,
		listing.ImageID,
		listing.Available,
		listing.Occupants,
		now,
		listing.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}
	if err := rowsAffected(res, domain.NotFoundf("listing %d", listing.ID)); err != nil {
		return err
	}
	listing.UpdatedAt = now
	return nil
}
