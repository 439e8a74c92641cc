package service

import (
	"context"
	"sync"
	"time"

	"provider/internal/domain"
	"provider/internal/events"
	"provider/internal/models"
	"provider/internal/webhook"

	"github.com/rs/zerolog"
)

// ListingService owns listings and their seasonal prices. Listing updates
// write webhook outbox rows in the same transaction as the update.
type ListingService struct {
	repo      domain.Repository
	cache     domain.ListingCache
	eventBus  domain.EventPublisher
	notifier  domain.OutboxNotifier
	validator *Validator
	logger    *zerolog.Logger

	// cacheMu orders read-through fills against invalidations; writes bumps
	// the generation of a listing each time it is invalidated.
	cacheMu sync.Mutex
	writes  map[int64]uint64
}

func NewListingService(repo domain.Repository, cache domain.ListingCache, eventBus domain.EventPublisher, notifier domain.OutboxNotifier, logger *zerolog.Logger) *ListingService {
	return &ListingService{
		repo:      repo,
		cache:     cache,
		eventBus:  eventBus,
		notifier:  notifier,
		validator: NewValidator(),
		logger:    componentLogger(logger, "listing-service"),
		writes:    make(map[int64]uint64),
	}
}

func (s *ListingService) CreateListing(ctx context.Context, listing *models.Listing) error {
	if listing.Occupants == 0 {
		listing.Occupants = 1
	}
	if err := s.validator.Struct(listing); err != nil {
		return err
	}
	if err := s.repo.CreateListing(ctx, listing); err != nil {
		return err
	}
	publish(s.eventBus, s.logger, events.EventListingCreated, listing)
	return nil
}

// GetListing reads through the cache. Cache failures only cost a store read.
// A row read before a concurrent update committed is returned but not cached.
func (s *ListingService) GetListing(ctx context.Context, id int64) (*models.Listing, error) {
	if s.cache == nil {
		return s.repo.GetListing(ctx, id)
	}

	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Int64("listing_id", id).Msg("listing cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	gen := s.generation(id)
	listing, err := s.repo.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, listing, gen)
	return listing, nil
}

func (s *ListingService) generation(id int64) uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.writes[id]
}

func (s *ListingService) fill(ctx context.Context, listing *models.Listing, gen uint64) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.writes[listing.ID] != gen {
		s.logger.Debug().Int64("listing_id", listing.ID).Msg("listing changed during read, not cached")
		return
	}
	if err := s.cache.Set(ctx, listing); err != nil {
		s.logger.Warn().Err(err).Int64("listing_id", listing.ID).Msg("listing cache write failed")
	}
}

// ListListings returns every listing, or only those whose availability equals *available.
// An empty result is NotFound.
func (s *ListingService) ListListings(ctx context.Context, available *bool) ([]*models.Listing, error) {
	listings, err := s.repo.ListListings(ctx, available)
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return nil, domain.NotFoundf("no listings found")
	}
	return listings, nil
}

func (s *ListingService) ListListingIDs(ctx context.Context) ([]int64, error) {
	ids, err := s.repo.ListListingIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, domain.NotFoundf("no listings found")
	}
	return ids, nil
}

// UpdateListing replaces the listing and records a listing_updated delivery
// for every subscribed webhook before committing.
func (s *ListingService) UpdateListing(ctx context.Context, listing *models.Listing) error {
	if listing.ID == 0 {
		return domain.Validationf("id is required")
	}
	if err := s.validator.Struct(listing); err != nil {
		return err
	}

	var taskIDs []int64
	err := s.repo.WithTx(ctx, func(store domain.Store) error {
		current, err := store.GetListing(ctx, listing.ID)
		if err != nil {
			return err
		}
		if err := store.UpdateListing(ctx, listing); err != nil {
			return err
		}
		listing.CreatedAt = current.CreatedAt

		taskIDs, err = webhook.Enqueue(ctx, store, models.EventListingUpdated, listing.ID, listing, time.Now())
		return err
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, listing.ID)
	if s.notifier != nil && len(taskIDs) > 0 {
		s.notifier.Notify(ctx, taskIDs...)
	}
	publish(s.eventBus, s.logger, events.EventListingUpdated, listing)

	s.logger.Info().Int64("listing_id", listing.ID).Int("webhooks", len(taskIDs)).Msg("listing updated")
	return nil
}

func (s *ListingService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.writes[id]++
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn().Err(err).Int64("listing_id", id).Msg("listing cache invalidation failed")
	}
}

func (s *ListingService) CreateSeasonalPrice(ctx context.Context, price *models.SeasonalPrice) error {
	if err := s.validator.Struct(price); err != nil {
		return err
	}
	if price.StartDate.IsZero() || price.EndDate.IsZero() {
		return domain.Validationf("start_date and end_date are required")
	}
	price.StartDate = models.TruncateDay(price.StartDate)
	price.EndDate = models.TruncateDay(price.EndDate)
	if price.EndDate.Before(price.StartDate) {
		return domain.Validationf("end_date %s is before start_date %s",
			models.FormatDay(price.EndDate), models.FormatDay(price.StartDate))
	}

	return s.repo.WithTx(ctx, func(store domain.Store) error {
		if _, err := store.GetListing(ctx, price.ListingID); err != nil {
			return err
		}
		return store.CreateSeasonalPrice(ctx, price)
	})
}

func (s *ListingService) GetListingPrices(ctx context.Context, listingID int64) ([]*models.SeasonalPrice, error) {
	if _, err := s.repo.GetListing(ctx, listingID); err != nil {
		return nil, err
	}
	return s.repo.GetListingPrices(ctx, listingID)
}
