package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"provider/internal/domain"
	"provider/internal/models"
)

func (s *Store) CreateImage(ctx context.Context, image *models.Image) error {
	result, err := s.q.ExecContext(ctx, `INSERT INTO images (listing_id, link) VALUES (?, ?)`, image.ListingID, image.Link)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	image.ID = id
	return nil
}

func (s *Store) GetListingImages(ctx context.Context, listingID int64) ([]*models.Image, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id, listing_id, link FROM images WHERE listing_id = ? ORDER BY id`, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get images: %w", err)
	}
	defer rows.Close()

	var images []*models.Image
	for rows.Next() {
		var img models.Image
		if err := rows.Scan(&img.ID, &img.ListingID, &img.Link); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, &img)
	}
	return images, rows.Err()
}

func (s *Store) GetImage(ctx context.Context, id int64) (*models.Image, error) {
	var img models.Image
	err := s.q.QueryRowContext(ctx, `SELECT id, listing_id, link FROM images WHERE id = ?`, id).Scan(&img.ID, &img.ListingID, &img.Link)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("image %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return &img, nil
}

// DeleteImage removes the image and clears it as the main image of any listing.
func (s *Store) DeleteImage(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	if err := rowsAffected(res, domain.NotFoundf("image %d", id)); err != nil {
		return err
	}
	if _, err := s.q.ExecContext(ctx, `UPDATE listings SET image_id = NULL WHERE image_id = ?`, id); err != nil {
		return fmt.Errorf("failed to detach image: %w", err)
	}
	return nil
}

func (s *Store) CreateCommission(ctx context.Context, commission *models.Commission) error {
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO listing_commissions (listing_id, commission) VALUES (?, ?)`,
		commission.ListingID, commission.Commission)
	if err != nil {
		return fmt.Errorf("failed to create commission: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	commission.ID = id
	return nil
}

// GetListingCommission returns the first commission recorded for the listing.
func (s *Store) GetListingCommission(ctx context.Context, listingID int64) (*models.Commission, error) {
	var c models.Commission
	err := s.q.QueryRowContext(ctx,
		`SELECT id, listing_id, commission FROM listing_commissions WHERE listing_id = ? ORDER BY id LIMIT 1`,
		listingID).Scan(&c.ID, &c.ListingID, &c.Commission)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("commission for listing %d", listingID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get commission: %w", err)
	}
	return &c, nil
}

func (s *Store) CreateService(ctx context.Context, service *models.Service) error {
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO listing_services (listing_id, name, description) VALUES (?, ?, ?)`,
		service.ListingID, service.Name, service.Description)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	service.ID = id
	return nil
}

func (s *Store) GetListingServices(ctx context.Context, listingID int64) ([]*models.Service, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, listing_id, name, description FROM listing_services WHERE listing_id = ? ORDER BY id`, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get services: %w", err)
	}
	defer rows.Close()

	var services []*models.Service
	for rows.Next() {
		var svc models.Service
		if err := rows.Scan(&svc.ID, &svc.ListingID, &svc.Name, &svc.Description); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, &svc)
	}
	return services, rows.Err()
}

func (s *Store) CreateCancellationPolicy(ctx context.Context, policy *models.CancellationPolicy) error {
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO cancellation_policies (days_before, penalty) VALUES (?, ?)`,
		policy.DaysBefore, policy.Penalty)
	if err != nil {
		return fmt.Errorf("failed to create cancellation policy: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	policy.ID = id
	return nil
}

// GetCancellationPolicies returns the policies with the longest notice first.
func (s *Store) GetCancellationPolicies(ctx context.Context) ([]*models.CancellationPolicy, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, days_before, penalty FROM cancellation_policies ORDER BY days_before DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get cancellation policies: %w", err)
	}
	defer rows.Close()

	var policies []*models.CancellationPolicy
	for rows.Next() {
		var p models.CancellationPolicy
		if err := rows.Scan(&p.ID, &p.DaysBefore, &p.Penalty); err != nil {
			return nil, fmt.Errorf("failed to scan cancellation policy: %w", err)
		}
		policies = append(policies, &p)
	}
	return policies, rows.Err()
}

func (s *Store) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	result, err := s.q.ExecContext(ctx, `INSERT INTO customers (name, email) VALUES (?, ?)`, customer.Name, customer.Email)
	if isUniqueViolation(err) {
		return domain.Conflictf("customer with email %s already exists", customer.Email)
	}
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	customer.ID = id
	return nil
}

func (s *Store) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	var c models.Customer
	err := s.q.QueryRowContext(ctx, `SELECT id, name, email FROM customers WHERE id = ?`, id).Scan(&c.ID, &c.Name, &c.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("customer %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &c, nil
}
