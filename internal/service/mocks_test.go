package service

import (
	"context"
	"time"

	"provider/internal/domain"
	"provider/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) WithTx(ctx context.Context, fn func(domain.Store) error) error {
	return fn(m)
}
func (m *mockRepo) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockRepo) CreateListing(ctx context.Context, l *models.Listing) error {
	return m.Called(ctx, l).Error(0)
}
func (m *mockRepo) GetListing(ctx context.Context, id int64) (*models.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}
func (m *mockRepo) ListListings(ctx context.Context, available *bool) ([]*models.Listing, error) {
	args := m.Called(ctx, available)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Listing), args.Error(1)
}
func (m *mockRepo) ListListingIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}
func (m *mockRepo) UpdateListing(ctx context.Context, l *models.Listing) error {
	return m.Called(ctx, l).Error(0)
}

func (m *mockRepo) CreateSeasonalPrice(ctx context.Context, p *models.SeasonalPrice) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockRepo) GetListingPrices(ctx context.Context, id int64) ([]*models.SeasonalPrice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SeasonalPrice), args.Error(1)
}
func (m *mockRepo) GetPricesInRange(ctx context.Context, id int64, from, to time.Time) ([]*models.SeasonalPrice, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SeasonalPrice), args.Error(1)
}

func (m *mockRepo) CreateImage(ctx context.Context, i *models.Image) error {
	return m.Called(ctx, i).Error(0)
}
func (m *mockRepo) GetImage(ctx context.Context, id int64) (*models.Image, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Image), args.Error(1)
}
func (m *mockRepo) GetListingImages(ctx context.Context, id int64) ([]*models.Image, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Image), args.Error(1)
}
func (m *mockRepo) DeleteImage(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepo) CreateCommission(ctx context.Context, c *models.Commission) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockRepo) GetListingCommission(ctx context.Context, id int64) (*models.Commission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Commission), args.Error(1)
}
func (m *mockRepo) CreateService(ctx context.Context, s *models.Service) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockRepo) GetListingServices(ctx context.Context, id int64) ([]*models.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Service), args.Error(1)
}

func (m *mockRepo) CreateCancellationPolicy(ctx context.Context, p *models.CancellationPolicy) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockRepo) GetCancellationPolicies(ctx context.Context) ([]*models.CancellationPolicy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CancellationPolicy), args.Error(1)
}

func (m *mockRepo) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockRepo) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *mockRepo) CreateBooking(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) GetBookingByLocator(ctx context.Context, code int64) (*models.Booking, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) DeleteBookingByLocator(ctx context.Context, code int64) error {
	return m.Called(ctx, code).Error(0)
}
func (m *mockRepo) GetOverlappingBookings(ctx context.Context, id int64, in, out time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, id, in, out)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetCustomerBookings(ctx context.Context, id int64) ([]*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetListingBookings(ctx context.Context, id int64) ([]*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetBookingsByDateRange(ctx context.Context, from, to time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) LocatorExists(ctx context.Context, code int64) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) CreateWebhook(ctx context.Context, w *models.ClientWebhook) error {
	return m.Called(ctx, w).Error(0)
}
func (m *mockRepo) GetWebhook(ctx context.Context, id int64) (*models.ClientWebhook, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClientWebhook), args.Error(1)
}
func (m *mockRepo) GetClientWebhooks(ctx context.Context, clientID string) ([]*models.ClientWebhook, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ClientWebhook), args.Error(1)
}
func (m *mockRepo) GetSubscribedWebhooks(ctx context.Context, eventType string) ([]*models.ClientWebhook, error) {
	args := m.Called(ctx, eventType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ClientWebhook), args.Error(1)
}
func (m *mockRepo) DeleteWebhook(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) CreateWebhookTask(ctx context.Context, t *models.WebhookTask) error {
	return m.Called(ctx, t).Error(0)
}
func (m *mockRepo) GetFailedWebhookTasks(ctx context.Context) ([]models.WebhookTask, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WebhookTask), args.Error(1)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, ids ...int64) {
	m.Called(ctx, ids)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, id int64) (*models.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}
func (m *mockCache) Set(ctx context.Context, l *models.Listing) error {
	return m.Called(ctx, l).Error(0)
}
func (m *mockCache) Invalidate(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
