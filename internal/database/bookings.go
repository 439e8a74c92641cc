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

const bookingColumns = `id, listing_id, customer_id, check_in, check_out, locator, total_price, created_at`

func scanBooking(row scanner) (*models.Booking, error) {
	var (
		b                 models.Booking
		checkIn, checkOut string
	)
	err := row.Scan(
		&b.ID,
		&b.ListingID,
		&b.CustomerID,
		&checkIn,
		&checkOut,
		&b.Locator,
		&b.TotalPrice,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if b.CheckIn, err = models.ParseDay(checkIn); err != nil {
		return nil, fmt.Errorf("booking %d check_in: %w", b.ID, err)
	}
	if b.CheckOut, err = models.ParseDay(checkOut); err != nil {
		return nil, fmt.Errorf("booking %d check_out: %w", b.ID, err)
	}
	return &b, nil
}

func (s *Store) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// CreateBooking inserts the booking as is. Overlap checks belong to the caller's transaction.
func (s *Store) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (listing_id, customer_id, check_in, check_out, locator, total_price, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := s.q.ExecContext(ctx, query,
		booking.ListingID,
		booking.CustomerID,
		models.FormatDay(booking.CheckIn),
		models.FormatDay(booking.CheckOut),
		booking.Locator,
		booking.TotalPrice,
		now,
	)
	if isUniqueViolation(err) {
		return domain.Conflictf("locator %d already in use", booking.Locator)
	}
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	b, err := scanBooking(s.q.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("booking %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

func (s *Store) GetBookingByLocator(ctx context.Context, locator int64) (*models.Booking, error) {
	b, err := scanBooking(s.q.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE locator = ?`, locator))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("booking with locator %d", locator)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by locator: %w", err)
	}
	return b, nil
}

func (s *Store) DeleteBookingByLocator(ctx context.Context, locator int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM bookings WHERE locator = ?`, locator)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	return rowsAffected(res, domain.NotFoundf("booking with locator %d", locator))
}

// GetOverlappingBookings returns bookings of the listing sharing a night with [checkIn, checkOut).
func (s *Store) GetOverlappingBookings(ctx context.Context, listingID int64, checkIn, checkOut time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE listing_id = ? AND check_in < ? AND check_out > ?
              ORDER BY check_in`
	return s.queryBookings(ctx, query, listingID, models.FormatDay(checkOut), models.FormatDay(checkIn))
}

func (s *Store) GetCustomerBookings(ctx context.Context, customerID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE customer_id = ? ORDER BY check_in`
	return s.queryBookings(ctx, query, customerID)
}

func (s *Store) GetListingBookings(ctx context.Context, listingID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE listing_id = ? ORDER BY check_in`
	return s.queryBookings(ctx, query, listingID)
}

// GetBookingsByDateRange returns bookings with at least one night inside [from, to].
func (s *Store) GetBookingsByDateRange(ctx context.Context, from, to time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE check_in <= ? AND check_out > ?
              ORDER BY check_in, listing_id`
	return s.queryBookings(ctx, query, models.FormatDay(to), models.FormatDay(from))
}

func (s *Store) LocatorExists(ctx context.Context, locator int64) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE locator = ?)`, locator).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check locator: %w", err)
	}
	return exists, nil
}
