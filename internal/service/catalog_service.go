package service

import (
	"context"

	"provider/internal/domain"
	"provider/internal/models"
	"provider/internal/pricing"

	"github.com/rs/zerolog"
)

// CatalogService covers the descriptive listing data: images, commissions,
// services and the global cancellation policies.
type CatalogService struct {
	repo      domain.Repository
	cache     domain.ListingCache
	validator *Validator
	logger    *zerolog.Logger
}

func NewCatalogService(repo domain.Repository, cache domain.ListingCache, logger *zerolog.Logger) *CatalogService {
	return &CatalogService{
		repo:      repo,
		cache:     cache,
		validator: NewValidator(),
		logger:    componentLogger(logger, "catalog-service"),
	}
}

func (s *CatalogService) CreateImage(ctx context.Context, image *models.Image) error {
	if err := s.validator.Struct(image); err != nil {
		return err
	}
	return s.repo.WithTx(ctx, func(store domain.Store) error {
		if _, err := store.GetListing(ctx, image.ListingID); err != nil {
			return err
		}
		return store.CreateImage(ctx, image)
	})
}

func (s *CatalogService) GetListingImages(ctx context.Context, listingID int64) ([]*models.Image, error) {
	return s.repo.GetListingImages(ctx, listingID)
}

// DeleteImage also drops the cached listing when the image was its main image.
func (s *CatalogService) DeleteImage(ctx context.Context, id int64) error {
	var owner *models.Listing
	err := s.repo.WithTx(ctx, func(store domain.Store) error {
		img, err := store.GetImage(ctx, id)
		if err != nil {
			return err
		}
		listing, err := store.GetListing(ctx, img.ListingID)
		if err == nil && listing.ImageID != nil && *listing.ImageID == id {
			owner = listing
		}
		return store.DeleteImage(ctx, id)
	})
	if err != nil {
		return err
	}

	if owner != nil && s.cache != nil {
		if err := s.cache.Invalidate(ctx, owner.ID); err != nil {
			s.logger.Warn().Err(err).Int64("listing_id", owner.ID).Msg("listing cache invalidation failed")
		}
	}
	return nil
}

func (s *CatalogService) CreateCommission(ctx context.Context, commission *models.Commission) error {
	if err := s.validator.Struct(commission); err != nil {
		return err
	}
	return s.repo.WithTx(ctx, func(store domain.Store) error {
		if _, err := store.GetListing(ctx, commission.ListingID); err != nil {
			return err
		}
		return store.CreateCommission(ctx, commission)
	})
}

func (s *CatalogService) GetListingCommission(ctx context.Context, listingID int64) (*models.Commission, error) {
	return s.repo.GetListingCommission(ctx, listingID)
}

func (s *CatalogService) CreateService(ctx context.Context, svc *models.Service) error {
	if err := s.validator.Struct(svc); err != nil {
		return err
	}
	return s.repo.WithTx(ctx, func(store domain.Store) error {
		if _, err := store.GetListing(ctx, svc.ListingID); err != nil {
			return err
		}
		return store.CreateService(ctx, svc)
	})
}

func (s *CatalogService) GetListingServices(ctx context.Context, listingID int64) ([]*models.Service, error) {
	return s.repo.GetListingServices(ctx, listingID)
}

func (s *CatalogService) CreateCancellationPolicy(ctx context.Context, policy *models.CancellationPolicy) error {
	if err := s.validator.Struct(policy); err != nil {
		return err
	}
	return s.repo.CreateCancellationPolicy(ctx, policy)
}

// GetCancellationPolicies returns the policies ordered by days_before, largest first.
func (s *CatalogService) GetCancellationPolicies(ctx context.Context) ([]models.CancellationPolicy, error) {
	policies, err := s.repo.GetCancellationPolicies(ctx)
	if err != nil {
		return nil, err
	}
	return pricing.SortPolicies(policies), nil
}
