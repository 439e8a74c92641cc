package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"provider/internal/config"
	"provider/internal/database"
	"provider/internal/events"
	"provider/internal/locator"
	"provider/internal/repository"
	"provider/internal/service"

	"github.com/rs/zerolog"
)

type testEnv struct {
	db       *database.DB
	server   *HTTPServer
	ts       *httptest.Server
	bookings *service.BookingService
}

func defaultTestConfig() config.APIConfig {
	return config.APIConfig{
		Enabled: true,
		HTTP:    config.APIHTTPConfig{Enabled: true, Port: 0},
		Auth:    config.APIAuthConfig{Enabled: false},
	}
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(filepath.Join(t.TempDir(), "provider.db"), &logger)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestServices(db *database.DB) Services {
	logger := zerolog.New(io.Discard)
	bus := events.NewEventBus()
	cache := repository.NewMemoryListingCache(0)
	return Services{
		Listings:  service.NewListingService(db, cache, bus, nil, &logger),
		Catalog:   service.NewCatalogService(db, cache, &logger),
		Customers: service.NewCustomerService(db, &logger),
		Bookings:  service.NewBookingService(db, locator.New(50), bus, nil, &logger),
		Webhooks:  service.NewWebhookService(db, &logger),
	}
}

func newTestEnv(t *testing.T, cfg config.APIConfig) *testEnv {
	t.Helper()
	db := newTestDB(t)
	svc := newTestServices(db)
	logger := zerolog.New(io.Discard)
	server := NewHTTPServer(&cfg, db, svc, &logger)
	ts := httptest.NewServer(server.server.Handler)
	t.Cleanup(ts.Close)
	return &testEnv{db: db, server: server, ts: ts, bookings: svc.Bookings}
}

// do sends a JSON request and decodes a JSON response into out when out is not nil.
func (e *testEnv) do(t *testing.T, method, path string, body any, out any) *http.Response {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp
}

// seed creates listing 9000 priced at 100 per night for January 2026 and one customer.
func (e *testEnv) seed(t *testing.T) (listingID, customerID int64) {
	t.Helper()
	var created struct {
		Listing struct {
			ID int64 `json:"id"`
		} `json:"listing"`
	}
	resp := e.do(t, http.MethodPost, "/listings", map[string]any{
		"name": "Casa Azul", "city": "Sevilla", "country": "ES", "occupants": 4,
	}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create listing: status %d", resp.StatusCode)
	}

	resp = e.do(t, http.MethodPost, "/listing/prices", map[string]any{
		"listing_id": created.Listing.ID, "price": 100, "start_date": "2026-01-01", "end_date": "2026-01-31",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create price: status %d", resp.StatusCode)
	}

	var customer struct {
		Customer struct {
			ID int64 `json:"id"`
		} `json:"customer"`
	}
	resp = e.do(t, http.MethodPost, "/cliente", map[string]any{"nombre": "Ana", "email": "ana@example.com"}, &customer)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create customer: status %d", resp.StatusCode)
	}
	return created.Listing.ID, customer.Customer.ID
}
