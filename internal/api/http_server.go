package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"provider/internal/config"
	"provider/internal/domain"
	"provider/internal/export"
	"provider/internal/metrics"
	"provider/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Services are the use cases served over HTTP.
type Services struct {
	Listings  *service.ListingService
	Catalog   *service.CatalogService
	Customers *service.CustomerService
	Bookings  *service.BookingService
	Webhooks  *service.WebhookService
	Exporter  *export.BookingExporter
}

// HTTPServer exposes the provider REST API.
type HTTPServer struct {
	cfg    *config.APIConfig
	repo   domain.Repository
	svc    Services
	server *http.Server
	auth   *HTTPAuth
	log    zerolog.Logger
}

func NewHTTPServer(cfg *config.APIConfig, repo domain.Repository, svc Services, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{cfg: cfg, repo: repo, svc: svc, log: zerolog.Nop()}
	if logger != nil {
		srv.log = logger.With().Str("component", "http").Logger()
	}
	if srv.svc.Exporter == nil {
		srv.svc.Exporter = export.NewBookingExporter("")
	}
	srv.auth = NewHTTPAuth(cfg)

	mux := http.NewServeMux()
	srv.routes(mux)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.loggingMiddleware(srv.auth.Wrap(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return srv
}

func (s *HTTPServer) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("POST /listings", s.handleCreateListing)
	mux.HandleFunc("GET /listings", s.handleListListings)
	mux.HandleFunc("PUT /listings", s.handleUpdateListing)
	mux.HandleFunc("GET /listings/actives", s.handleListAvailable(true))
	mux.HandleFunc("GET /listings/inactives", s.handleListAvailable(false))
	mux.HandleFunc("GET /listings/ids", s.handleListListingIDs)
	mux.HandleFunc("GET /listings/{id}", s.handleGetListing)
	mux.HandleFunc("GET /listings/{id}/prices", s.handleListingPrices)
	mux.HandleFunc("GET /listings/{id}/images", s.handleListingImages)
	mux.HandleFunc("GET /listings/{id}/commission", s.handleListingCommission)
	mux.HandleFunc("GET /listings/{id}/services", s.handleListingServices)
	mux.HandleFunc("GET /listings/{id}/reservas", s.handleListingBookings)

	mux.HandleFunc("POST /images", s.handleCreateImage)
	mux.HandleFunc("DELETE /images/{id}", s.handleDeleteImage)
	mux.HandleFunc("POST /listing/Commission", s.handleCreateCommission)
	mux.HandleFunc("POST /listing/services", s.handleCreateService)
	mux.HandleFunc("POST /listing/prices", s.handleCreatePrice)
	mux.HandleFunc("POST /cancellation-policies", s.handleCreatePolicy)
	mux.HandleFunc("GET /cancellation-policies", s.handleListPolicies)

	mux.HandleFunc("POST /cliente", s.handleCreateCustomer)
	mux.HandleFunc("GET /clientes/{id}", s.handleGetCustomer)
	mux.HandleFunc("GET /clientes/{id}/reservas", s.handleCustomerBookings)

	mux.HandleFunc("POST /reserva", s.handleCreateBooking)
	mux.HandleFunc("DELETE /reserva/{locator}", s.handleCancelBooking)
	mux.HandleFunc("GET /reservas/export", s.handleExportBookings)
	mux.HandleFunc("GET /reservas/{id}", s.handleGetBooking)
	mux.HandleFunc("GET /traceSearch/{locator}", s.handleTraceSearch)

	mux.HandleFunc("GET /check-availability", s.handleCheckAvailability)
	mux.HandleFunc("GET /quote", s.handleQuote)
	mux.HandleFunc("POST /confirm", s.handleConfirm)

	mux.HandleFunc("POST /webhooks/register", s.handleRegisterWebhook)
	mux.HandleFunc("GET /webhooks/failed", s.handleFailedDeliveries)
	mux.HandleFunc("GET /webhooks/{client_id}", s.handleClientWebhooks)
	mux.HandleFunc("DELETE /webhooks/{id}", s.handleDeleteWebhook)
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.repo == nil {
		writeMessage(w, http.StatusServiceUnavailable, "store not configured")
		return
	}
	if err := s.repo.Ping(ctx); err != nil {
		s.log.Warn().Err(err).Msg("readiness check failed")
		writeMessage(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// writeDomainError turns err into a status and message. Internal errors are
// logged and reported with a generic message.
func (s *HTTPServer) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	code := httpStatus(err)
	if code == http.StatusInternalServerError {
		s.log.Error().Err(err).
			Str("request_id", requestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeMessage(w, code, internalErrorMessage)
		return
	}
	writeMessage(w, code, err.Error())
}

// HTTPAuth applies the API-key scheme and per-client rate limits to HTTP routes.
type HTTPAuth struct {
	keys *keyring
}

func NewHTTPAuth(cfg *config.APIConfig) *HTTPAuth {
	return &HTTPAuth{keys: newKeyring(cfg)}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg := a.keys.cfg
		if !cfg.Enabled || isHealthPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := strings.TrimSpace(r.Header.Get(a.keys.keyHeader))
		if cfg.Auth.Enabled {
			extra := strings.TrimSpace(r.Header.Get(a.keys.extraName))
			if err := a.keys.authorize(apiKey, extra, requiredPermissionHTTP(r)); err != nil {
				code := http.StatusUnauthorized
				if errors.Is(err, errPermissionDenied) {
					code = http.StatusForbidden
				}
				writeMessage(w, code, err.Error())
				return
			}
		}

		if apiKey == "" {
			apiKey = remoteHost(r)
		}
		if err := a.keys.allow(apiKey); err != nil {
			writeMessage(w, http.StatusTooManyRequests, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isHealthPath(path string) bool {
	return path == "/" || path == "/healthz" || path == "/readyz"
}

func requiredPermissionHTTP(r *http.Request) string {
	path := r.URL.Path
	switch {
	case path == "/check-availability" || path == "/quote":
		return permReadQuotes
	case path == "/confirm" || path == "/reserva" || strings.HasPrefix(path, "/reserva/"):
		return permWriteBookings
	case strings.HasPrefix(path, "/webhooks"):
		return permManageWebhooks
	case r.Method == http.MethodGet:
		return permReadCatalog
	default:
		return permWriteCatalog
	}
}

func remoteHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return clientKeyUnknown
}

const requestIDHeader = "X-Request-ID"

type requestIDKey struct{}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, requestID))

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.IncHTTP(endpoint, recorder.status)

		s.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"message": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
