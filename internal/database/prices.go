package database

import (
	"context"
	"fmt"
	"time"

	"provider/internal/models"
)

func (s *Store) CreateSeasonalPrice(ctx context.Context, price *models.SeasonalPrice) error {
	query := `INSERT INTO seasonal_prices (listing_id, price, start_date, end_date) VALUES (?, ?, ?, ?)`
	result, err := s.q.ExecContext(ctx, query,
		price.ListingID,
		price.Price,
		models.FormatDay(price.StartDate),
		models.FormatDay(price.EndDate),
	)
	if err != nil {
		return fmt.Errorf("failed to create seasonal price: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	price.ID = id
	return nil
}

func (s *Store) GetListingPrices(ctx context.Context, listingID int64) ([]*models.SeasonalPrice, error) {
	query := `SELECT id, listing_id, price, start_date, end_date FROM seasonal_prices WHERE listing_id = ? ORDER BY id`
	return s.queryPrices(ctx, query, listingID)
}

// GetPricesInRange returns the entries whose inclusive range intersects [from, to], in insertion order.
func (s *Store) GetPricesInRange(ctx context.Context, listingID int64, from, to time.Time) ([]*models.SeasonalPrice, error) {
	query := `SELECT id, listing_id, price, start_date, end_date
              FROM seasonal_prices
              WHERE listing_id = ? AND start_date <= ? AND end_date >= ?
              ORDER BY id`
	return s.queryPrices(ctx, query, listingID, models.FormatDay(to), models.FormatDay(from))
}

func (s *Store) queryPrices(ctx context.Context, query string, args ...interface{}) ([]*models.SeasonalPrice, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get seasonal prices: %w", err)
	}
	defer rows.Close()

	var prices []*models.SeasonalPrice
	for rows.Next() {
		var (
			p          models.SeasonalPrice
			start, end string
		)
		if err := rows.Scan(&p.ID, &p.ListingID, &p.Price, &start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan seasonal price: %w", err)
		}
		if p.StartDate, err = models.ParseDay(start); err != nil {
			return nil, fmt.Errorf("seasonal price %d: %w", p.ID, err)
		}
		if p.EndDate, err = models.ParseDay(end); err != nil {
			return nil, fmt.Errorf("seasonal price %d: %w", p.ID, err)
		}
		prices = append(prices, &p)
	}
	return prices, rows.Err()
}
