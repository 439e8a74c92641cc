package service

import (
	"context"
	"strings"

	"provider/internal/domain"
	"provider/internal/models"

	"github.com/rs/zerolog"
)

type CustomerService struct {
	repo      domain.Repository
	validator *Validator
	logger    *zerolog.Logger
}

func NewCustomerService(repo domain.Repository, logger *zerolog.Logger) *CustomerService {
	return &CustomerService{
		repo:      repo,
		validator: NewValidator(),
		logger:    componentLogger(logger, "customer-service"),
	}
}

// CreateCustomer stores the customer. Emails are compared case-insensitively;
// a taken email is a Conflict.
func (s *CustomerService) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	customer.Name = strings.TrimSpace(customer.Name)
	customer.Email = strings.ToLower(strings.TrimSpace(customer.Email))
	if err := s.validator.Struct(customer); err != nil {
		return err
	}
	return s.repo.CreateCustomer(ctx, customer)
}

func (s *CustomerService) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

func (s *CustomerService) GetCustomerBookings(ctx context.Context, customerID int64) ([]*models.Booking, error) {
	if _, err := s.repo.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return s.repo.GetCustomerBookings(ctx, customerID)
}
