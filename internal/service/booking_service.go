package service

import (
	"context"
	"errors"
	"time"

	"provider/internal/domain"
	"provider/internal/events"
	"provider/internal/locator"
	"provider/internal/metrics"
	"provider/internal/models"
	"provider/internal/pricing"
	"provider/internal/webhook"

	"github.com/rs/zerolog"
)

// QuoteRequest is the engine input. Zero Occupants means one guest.
type QuoteRequest struct {
	ListingID int64
	CheckIn   time.Time
	CheckOut  time.Time
	Occupants int
}

// ConfirmRequest books a priced stay for an existing customer.
type ConfirmRequest struct {
	QuoteRequest
	CustomerID int64
}

// BookingRequest is a direct reservation. Locator is generated when zero.
type BookingRequest struct {
	ListingID  int64
	CustomerID int64
	CheckIn    time.Time
	CheckOut   time.Time
	Locator    int64
}

// Confirmation is the result of a successful confirm.
type Confirmation struct {
	Booking     *models.Booking  `json:"booking"`
	Locator     int64            `json:"locator"`
	TotalPrice  float64          `json:"total_price"`
	PricePerDay float64          `json:"price_per_day"`
	Listing     *models.Listing  `json:"listing"`
	Customer    *models.Customer `json:"customer"`
}

type BookingService struct {
	repo     domain.Repository
	locators *locator.Generator
	eventBus domain.EventPublisher
	notifier domain.OutboxNotifier
	logger   *zerolog.Logger
}

func NewBookingService(repo domain.Repository, locators *locator.Generator, eventBus domain.EventPublisher, notifier domain.OutboxNotifier, logger *zerolog.Logger) *BookingService {
	if locators == nil {
		locators = locator.New(models.DefaultLocatorAttempts)
	}
	return &BookingService{
		repo:     repo,
		locators: locators,
		eventBus: eventBus,
		notifier: notifier,
		logger:   componentLogger(logger, "booking-service"),
	}
}

// evaluate applies the engine rules in order against store and returns a priced quote.
func (s *BookingService) evaluate(ctx context.Context, store domain.Store, req QuoteRequest) (*models.Quote, error) {
	stay, err := pricing.NewStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	occupants := req.Occupants
	if occupants == 0 {
		occupants = 1
	}

	listing, err := store.GetListing(ctx, req.ListingID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if err := pricing.CheckListing(listing, occupants); err != nil {
		return nil, err
	}

	overlapping, err := store.GetOverlappingBookings(ctx, listing.ID, stay.CheckIn, stay.CheckOut)
	if err != nil {
		return nil, err
	}
	if err := pricing.CheckConflicts(stay, overlapping); err != nil {
		return nil, err
	}

	prices, err := store.GetPricesInRange(ctx, listing.ID, stay.CheckIn, stay.CheckOut)
	if err != nil {
		return nil, err
	}
	total, perDay, err := pricing.PriceStay(stay, prices)
	if err != nil {
		return nil, err
	}

	images, err := store.GetListingImages(ctx, listing.ID)
	if err != nil {
		return nil, err
	}
	policies, err := store.GetCancellationPolicies(ctx)
	if err != nil {
		return nil, err
	}

	quote := &models.Quote{
		Listing:              *listing,
		CheckIn:              stay.CheckIn,
		CheckOut:             stay.CheckOut,
		Occupants:            occupants,
		Nights:               stay.Nights(),
		TotalPrice:           total.Float(),
		PricePerDay:          perDay.Float(),
		CancellationPolicies: pricing.SortPolicies(policies),
	}
	if len(images) > 0 {
		quote.Image = &images[0].Link
	}
	return quote, nil
}

// Quote prices a stay without booking it.
func (s *BookingService) Quote(ctx context.Context, req QuoteRequest) (*models.Quote, error) {
	quote, err := s.evaluate(ctx, s.repo, req)
	metrics.IncQuote(outcome(err))
	return quote, err
}

// CheckAvailability runs exactly the same computation as Quote.
func (s *BookingService) CheckAvailability(ctx context.Context, req QuoteRequest) (*models.Quote, error) {
	return s.Quote(ctx, req)
}

// Confirm checks, prices and inserts the booking in one write transaction, so
// no other booking for the listing can commit between the check and the insert.
func (s *BookingService) Confirm(ctx context.Context, req ConfirmRequest) (*Confirmation, error) {
	var (
		conf    *Confirmation
		taskIDs []int64
	)
	err := s.repo.WithTx(ctx, func(store domain.Store) error {
		customer, err := store.GetCustomer(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		quote, err := s.evaluate(ctx, store, req.QuoteRequest)
		if err != nil {
			return err
		}

		code, err := s.locators.Next(ctx, store.LocatorExists)
		if err != nil {
			return err
		}

		booking := &models.Booking{
			ListingID:  quote.Listing.ID,
			CustomerID: customer.ID,
			CheckIn:    quote.CheckIn,
			CheckOut:   quote.CheckOut,
			Locator:    code,
			TotalPrice: quote.TotalPrice,
		}
		if err := store.CreateBooking(ctx, booking); err != nil {
			return err
		}

		taskIDs, err = webhook.Enqueue(ctx, store, models.EventBookingConfirmed, booking.ListingID, booking, time.Now())
		if err != nil {
			return err
		}

		listing := quote.Listing
		conf = &Confirmation{
			Booking:     booking,
			Locator:     code,
			TotalPrice:  quote.TotalPrice,
			PricePerDay: quote.PricePerDay,
			Listing:     &listing,
			Customer:    customer,
		}
		return nil
	})
	if err != nil {
		s.logger.Debug().Err(err).Int64("listing_id", req.ListingID).Msg("confirm rejected")
		return nil, err
	}

	s.afterBooking(ctx, events.EventBookingConfirmed, conf.Booking, taskIDs)
	return conf, nil
}

// CreateBooking reserves dates for an existing listing and customer without pricing.
func (s *BookingService) CreateBooking(ctx context.Context, req BookingRequest) (*models.Booking, *models.Customer, error) {
	stay, err := pricing.NewStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, nil, err
	}
	if req.Locator != 0 && (req.Locator < models.MinLocator || req.Locator > models.MaxLocator) {
		return nil, nil, domain.Validationf("locator must be between %d and %d", models.MinLocator, models.MaxLocator)
	}

	var (
		booking  *models.Booking
		customer *models.Customer
		taskIDs  []int64
	)
	err = s.repo.WithTx(ctx, func(store domain.Store) error {
		if _, err := store.GetListing(ctx, req.ListingID); err != nil {
			return err
		}
		c, err := store.GetCustomer(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		customer = c

		overlapping, err := store.GetOverlappingBookings(ctx, req.ListingID, stay.CheckIn, stay.CheckOut)
		if err != nil {
			return err
		}
		if err := pricing.CheckConflicts(stay, overlapping); err != nil {
			return err
		}

		code := req.Locator
		if code == 0 {
			if code, err = s.locators.Next(ctx, store.LocatorExists); err != nil {
				return err
			}
		}

		booking = &models.Booking{
			ListingID:  req.ListingID,
			CustomerID: req.CustomerID,
			CheckIn:    stay.CheckIn,
			CheckOut:   stay.CheckOut,
			Locator:    code,
		}
		if err := store.CreateBooking(ctx, booking); err != nil {
			return err
		}

		taskIDs, err = webhook.Enqueue(ctx, store, models.EventBookingConfirmed, booking.ListingID, booking, time.Now())
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.afterBooking(ctx, events.EventBookingConfirmed, booking, taskIDs)
	return booking, customer, nil
}

// CancelBooking hard-deletes the booking identified by locator.
func (s *BookingService) CancelBooking(ctx context.Context, code int64) (*models.Booking, error) {
	var (
		booking *models.Booking
		taskIDs []int64
	)
	err := s.repo.WithTx(ctx, func(store domain.Store) error {
		b, err := store.GetBookingByLocator(ctx, code)
		if err != nil {
			return err
		}
		if err := store.DeleteBookingByLocator(ctx, code); err != nil {
			return err
		}
		booking = b

		taskIDs, err = webhook.Enqueue(ctx, store, models.EventBookingCancelled, b.ListingID, b, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterBooking(ctx, events.EventBookingCancelled, booking, taskIDs)
	return booking, nil
}

func (s *BookingService) afterBooking(ctx context.Context, eventType string, booking *models.Booking, taskIDs []int64) {
	if s.notifier != nil && len(taskIDs) > 0 {
		s.notifier.Notify(ctx, taskIDs...)
	}
	if eventType == events.EventBookingConfirmed {
		metrics.IncBookings()
	}
	publish(s.eventBus, s.logger, eventType, events.BookingEventPayload{
		BookingID:  booking.ID,
		ListingID:  booking.ListingID,
		CustomerID: booking.CustomerID,
		Locator:    booking.Locator,
		CheckIn:    booking.CheckIn,
		CheckOut:   booking.CheckOut,
		TotalPrice: booking.TotalPrice,
	})
	s.logger.Info().
		Str("event_type", eventType).
		Int64("listing_id", booking.ListingID).
		Int64("locator", booking.Locator).
		Int("webhooks", len(taskIDs)).
		Msg("booking changed")
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

// TraceByLocator finds a booking by the code given to the customer.
func (s *BookingService) TraceByLocator(ctx context.Context, code int64) (*models.Booking, error) {
	return s.repo.GetBookingByLocator(ctx, code)
}

func (s *BookingService) GetListingBookings(ctx context.Context, listingID int64) ([]*models.Booking, error) {
	if _, err := s.repo.GetListing(ctx, listingID); err != nil {
		return nil, err
	}
	return s.repo.GetListingBookings(ctx, listingID)
}

// GetBookingsByDateRange returns bookings whose stay intersects [from, to].
func (s *BookingService) GetBookingsByDateRange(ctx context.Context, from, to time.Time) ([]*models.Booking, error) {
	from, to = models.TruncateDay(from), models.TruncateDay(to)
	if to.Before(from) {
		return nil, domain.Validationf("to %s is before from %s", models.FormatDay(to), models.FormatDay(from))
	}
	return s.repo.GetBookingsByDateRange(ctx, from, to)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
