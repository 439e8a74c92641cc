package domain

import (
	"context"
	"time"

	"provider/internal/models"
)

// Store is the set of persistence operations. It is implemented both by the
// database handle and by a transaction-scoped view of it.
type Store interface {
	CreateListing(ctx context.Context, listing *models.Listing) error
	GetListing(ctx context.Context, id int64) (*models.Listing, error)
	ListListings(ctx context.Context, available *bool) ([]*models.Listing, error)
	ListListingIDs(ctx context.Context) ([]int64, error)
	UpdateListing(ctx context.Context, listing *models.Listing) error

	CreateSeasonalPrice(ctx context.Context, price *models.SeasonalPrice) error
	GetListingPrices(ctx context.Context, listingID int64) ([]*models.SeasonalPrice, error)
	GetPricesInRange(ctx context.Context, listingID int64, from, to time.Time) ([]*models.SeasonalPrice, error)

	CreateImage(ctx context.Context, image *models.Image) error
	GetImage(ctx context.Context, id int64) (*models.Image, error)
	GetListingImages(ctx context.Context, listingID int64) ([]*models.Image, error)
	DeleteImage(ctx context.Context, id int64) error

	CreateCommission(ctx context.Context, commission *models.Commission) error
	GetListingCommission(ctx context.Context, listingID int64) (*models.Commission, error)
	CreateService(ctx context.Context, service *models.Service) error
	GetListingServices(ctx context.Context, listingID int64) ([]*models.Service, error)

	CreateCancellationPolicy(ctx context.Context, policy *models.CancellationPolicy) error
	GetCancellationPolicies(ctx context.Context) ([]*models.CancellationPolicy, error)

	CreateCustomer(ctx context.Context, customer *models.Customer) error
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingByLocator(ctx context.Context, locator int64) (*models.Booking, error)
	DeleteBookingByLocator(ctx context.Context, locator int64) error
	GetOverlappingBookings(ctx context.Context, listingID int64, checkIn, checkOut time.Time) ([]*models.Booking, error)
	GetCustomerBookings(ctx context.Context, customerID int64) ([]*models.Booking, error)
	GetListingBookings(ctx context.Context, listingID int64) ([]*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, from, to time.Time) ([]*models.Booking, error)
	LocatorExists(ctx context.Context, locator int64) (bool, error)

	CreateWebhook(ctx context.Context, webhook *models.ClientWebhook) error
	GetWebhook(ctx context.Context, id int64) (*models.ClientWebhook, error)
	GetClientWebhooks(ctx context.Context, clientID string) ([]*models.ClientWebhook, error)
	GetSubscribedWebhooks(ctx context.Context, eventType string) ([]*models.ClientWebhook, error)
	DeleteWebhook(ctx context.Context, id int64) error

	CreateWebhookTask(ctx context.Context, task *models.WebhookTask) error
}

// Repository is a Store that can also run a function atomically.
type Repository interface {
	Store
	// WithTx runs fn inside a single write transaction. Writers are serialized,
	// so reads made through the Store passed to fn stay valid until commit.
	WithTx(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
	// GetFailedWebhookTasks lists deliveries that exhausted their retries.
	GetFailedWebhookTasks(ctx context.Context) ([]models.WebhookTask, error)
}

// OutboxRepository is what the webhook worker needs from persistence.
type OutboxRepository interface {
	GetWebhookTask(ctx context.Context, id int64) (*models.WebhookTask, error)
	GetPendingWebhookTasks(ctx context.Context, limit int) ([]models.WebhookTask, error)
	ClaimWebhookTask(ctx context.Context, id int64, lease time.Duration) (bool, error)
	UpdateWebhookTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
	GetWebhook(ctx context.Context, id int64) (*models.ClientWebhook, error)
}

// ListingCache is a read-through cache of listings by id.
type ListingCache interface {
	Get(ctx context.Context, id int64) (*models.Listing, error)
	Set(ctx context.Context, listing *models.Listing) error
	Invalidate(ctx context.Context, id int64) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// OutboxNotifier is told about freshly committed outbox rows.
type OutboxNotifier interface {
	Notify(ctx context.Context, taskIDs ...int64)
}
