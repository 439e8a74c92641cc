package database

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"provider/internal/domain"
	"provider/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T, opts ...Option) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(filepath.Join(t.TempDir(), "provider.db"), &logger, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDay(s)
	require.NoError(t, err)
	return d
}

func createListing(t *testing.T, db *DB, occupants int) *models.Listing {
	t.Helper()
	l := &models.Listing{Name: "Casa Azul", Address: "Calle 1", City: "Sevilla", Country: "ES", Available: true, Occupants: occupants}
	require.NoError(t, db.CreateListing(context.Background(), l))
	return l
}

func TestNewDB_DirectoryCreation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
}

func TestNewDB_InMemory(t *testing.T) {
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	defer db.Close()

	l := &models.Listing{Name: "mem", Available: true, Occupants: 1}
	require.NoError(t, db.CreateListing(context.Background(), l))
	got, err := db.GetListing(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, "mem", got.Name)
}

func TestDB_Ping(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.Ping(context.Background()))
}

func TestListingIDsStartAtConfiguredValue(t *testing.T) {
	db := setupTestDB(t)
	first := createListing(t, db, 2)
	second := createListing(t, db, 2)
	assert.Equal(t, models.DefaultListingIDStart, first.ID)
	assert.Equal(t, models.DefaultListingIDStart+1, second.ID)

	custom := setupTestDB(t, WithListingIDStart(500))
	assert.Equal(t, int64(500), createListing(t, custom, 1).ID)
}

func TestListingSequenceSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	logger := zerolog.Nop()

	db, err := NewDB(path, &logger)
	require.NoError(t, err)
	l := &models.Listing{Name: "a", Available: true, Occupants: 1}
	require.NoError(t, db.CreateListing(context.Background(), l))
	db.Close()

	db, err = NewDB(path, &logger, WithListingIDStart(1))
	require.NoError(t, err)
	defer db.Close()
	next := &models.Listing{Name: "b", Available: true, Occupants: 1}
	require.NoError(t, db.CreateListing(context.Background(), next))
	assert.Equal(t, l.ID+1, next.ID)
}

func TestListingCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := createListing(t, db, 4)
	b := &models.Listing{Name: "Cerrado", Available: false, Occupants: 2}
	require.NoError(t, db.CreateListing(ctx, b))

	got, err := db.GetListing(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Casa Azul", got.Name)
	assert.True(t, got.Available)
	assert.Nil(t, got.ImageID)

	_, err = db.GetListing(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := db.ListListings(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	yes, no := true, false
	active, err := db.ListListings(ctx, &yes)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, a.ID, active[0].ID)

	inactive, err := db.ListListings(ctx, &no)
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, b.ID, inactive[0].ID)

	ids, err := db.ListListingIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, b.ID}, ids)

	a.Name = "Casa Verde"
	a.Occupants = 6
	require.NoError(t, db.UpdateListing(ctx, a))
	got, err = db.GetListing(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Casa Verde", got.Name)
	assert.Equal(t, 6, got.Occupants)

	err = db.UpdateListing(ctx, &models.Listing{ID: 42, Name: "ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSeasonalPrices(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	l := createListing(t, db, 2)

	jan := &models.SeasonalPrice{ListingID: l.ID, Price: 100, StartDate: day(t, "2026-01-01"), EndDate: day(t, "2026-01-31")}
	feb := &models.SeasonalPrice{ListingID: l.ID, Price: 150, StartDate: day(t, "2026-02-01"), EndDate: day(t, "2026-02-28")}
	require.NoError(t, db.CreateSeasonalPrice(ctx, jan))
	require.NoError(t, db.CreateSeasonalPrice(ctx, feb))

	all, err := db.GetListingPrices(ctx, l.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	inRange, err := db.GetPricesInRange(ctx, l.ID, day(t, "2026-01-30"), day(t, "2026-02-02"))
	require.NoError(t, err)
	require.Len(t, inRange, 2)
	assert.Equal(t, jan.ID, inRange[0].ID)
	assert.Equal(t, day(t, "2026-01-31"), inRange[0].EndDate)

	// check-out day is part of the intersection window
	edge, err := db.GetPricesInRange(ctx, l.ID, day(t, "2025-12-20"), day(t, "2026-01-01"))
	require.NoError(t, err)
	assert.Len(t, edge, 1)

	none, err := db.GetPricesInRange(ctx, l.ID, day(t, "2026-05-01"), day(t, "2026-05-03"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCatalogExtras(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	l := createListing(t, db, 2)

	img := &models.Image{ListingID: l.ID, Link: "https://img.example/1.jpg"}
	require.NoError(t, db.CreateImage(ctx, img))
	l.ImageID = &img.ID
	require.NoError(t, db.UpdateListing(ctx, l))

	images, err := db.GetListingImages(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, images, 1)

	gotImg, err := db.GetImage(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, img.Link, gotImg.Link)

	require.NoError(t, db.DeleteImage(ctx, img.ID))
	_, err = db.GetImage(ctx, img.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, db.DeleteImage(ctx, img.ID), domain.ErrNotFound)
	got, err := db.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ImageID, "deleted image is detached from the listing")

	_, err = db.GetListingCommission(ctx, l.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, db.CreateCommission(ctx, &models.Commission{ListingID: l.ID, Commission: 12.5}))
	require.NoError(t, db.CreateCommission(ctx, &models.Commission{ListingID: l.ID, Commission: 20}))
	c, err := db.GetListingCommission(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 12.5, c.Commission)

	require.NoError(t, db.CreateService(ctx, &models.Service{ListingID: l.ID, Name: "WiFi", Description: "fibra"}))
	services, err := db.GetListingServices(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "WiFi", services[0].Name)

	require.NoError(t, db.CreateCancellationPolicy(ctx, &models.CancellationPolicy{DaysBefore: 7, Penalty: 50}))
	require.NoError(t, db.CreateCancellationPolicy(ctx, &models.CancellationPolicy{DaysBefore: 30, Penalty: 10}))
	require.NoError(t, db.CreateCancellationPolicy(ctx, &models.CancellationPolicy{DaysBefore: 1, Penalty: 100}))
	policies, err := db.GetCancellationPolicies(ctx)
	require.NoError(t, err)
	require.Len(t, policies, 3)
	assert.Equal(t, []int{30, 7, 1}, []int{policies[0].DaysBefore, policies[1].DaysBefore, policies[2].DaysBefore})
}

func TestCustomers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	c := &models.Customer{Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, db.CreateCustomer(ctx, c))

	err := db.CreateCustomer(ctx, &models.Customer{Name: "Otra Ana", Email: "ana@example.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := db.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)

	_, err = db.GetCustomer(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	l := createListing(t, db, 2)
	c := &models.Customer{Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, db.CreateCustomer(ctx, c))

	b := &models.Booking{
		ListingID:  l.ID,
		CustomerID: c.ID,
		CheckIn:    day(t, "2026-01-10"),
		CheckOut:   day(t, "2026-01-13"),
		Locator:    123456,
		TotalPrice: 300,
	}
	require.NoError(t, db.CreateBooking(ctx, b))
	assert.NotZero(t, b.ID)

	dup := *b
	dup.ID = 0
	dup.CheckIn, dup.CheckOut = day(t, "2026-02-01"), day(t, "2026-02-02")
	assert.ErrorIs(t, db.CreateBooking(ctx, &dup), domain.ErrConflict, "locator is unique")

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, day(t, "2026-01-10"), got.CheckIn)
	assert.Equal(t, day(t, "2026-01-13"), got.CheckOut)

	byLocator, err := db.GetBookingByLocator(ctx, 123456)
	require.NoError(t, err)
	assert.Equal(t, b.ID, byLocator.ID)

	exists, err := db.LocatorExists(ctx, 123456)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = db.LocatorExists(ctx, 654321)
	require.NoError(t, err)
	assert.False(t, exists)

	overlapping, err := db.GetOverlappingBookings(ctx, l.ID, day(t, "2026-01-12"), day(t, "2026-01-14"))
	require.NoError(t, err)
	assert.Len(t, overlapping, 1)

	backToBack, err := db.GetOverlappingBookings(ctx, l.ID, day(t, "2026-01-13"), day(t, "2026-01-15"))
	require.NoError(t, err)
	assert.Empty(t, backToBack)

	before, err := db.GetOverlappingBookings(ctx, l.ID, day(t, "2026-01-07"), day(t, "2026-01-10"))
	require.NoError(t, err)
	assert.Empty(t, before)

	forCustomer, err := db.GetCustomerBookings(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, forCustomer, 1)

	forListing, err := db.GetListingBookings(ctx, l.ID)
	require.NoError(t, err)
	assert.Len(t, forListing, 1)

	inRange, err := db.GetBookingsByDateRange(ctx, day(t, "2026-01-12"), day(t, "2026-01-31"))
	require.NoError(t, err)
	assert.Len(t, inRange, 1)
	outside, err := db.GetBookingsByDateRange(ctx, day(t, "2026-01-13"), day(t, "2026-01-31"))
	require.NoError(t, err)
	assert.Empty(t, outside, "check-out day is not an occupied night")

	require.NoError(t, db.DeleteBookingByLocator(ctx, 123456))
	assert.ErrorIs(t, db.DeleteBookingByLocator(ctx, 123456), domain.ErrNotFound)
	_, err = db.GetBookingByLocator(ctx, 123456)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWithTxRollsBack(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	boom := assert.AnError
	err := db.WithTx(ctx, func(s domain.Store) error {
		if err := s.CreateListing(ctx, &models.Listing{Name: "tx", Available: true, Occupants: 1}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	all, err := db.ListListings(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all)

	err = db.WithTx(ctx, func(s domain.Store) error {
		return s.CreateListing(ctx, &models.Listing{Name: "tx", Available: true, Occupants: 1})
	})
	require.NoError(t, err)
	all, err = db.ListListings(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
