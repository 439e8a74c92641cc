package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"provider/internal/domain"
	"provider/internal/models"
)

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return domain.Validationf("invalid JSON body: %v", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validationf("%s must be a positive integer, got %q", name, raw)
	}
	return id, nil
}

func parseDay(field, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, domain.Validationf("%s is required", field)
	}
	day, err := models.ParseDay(value)
	if err != nil {
		return time.Time{}, domain.Validationf("%s: %v", field, err)
	}
	return day, nil
}

// firstNonEmpty picks the first set value among a field and its aliases.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...int64) int64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

type listingRequest struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Country   string `json:"country"`
	ImageID   *int64 `json:"image_id"`
	Available *bool  `json:"available"`
	Occupants int    `json:"occupants"`
}

func (req listingRequest) toModel() *models.Listing {
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	return &models.Listing{
		ID:        req.ID,
		Name:      strings.TrimSpace(req.Name),
		Address:   strings.TrimSpace(req.Address),
		City:      strings.TrimSpace(req.City),
		Country:   strings.TrimSpace(req.Country),
		ImageID:   req.ImageID,
		Available: available,
		Occupants: req.Occupants,
	}
}

func (s *HTTPServer) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var req listingRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	listing := req.toModel()
	listing.ID = 0
	if err := s.svc.Listings.CreateListing(r.Context(), listing); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "listing created", "listing": listing})
}

func (s *HTTPServer) handleUpdateListing(w http.ResponseWriter, r *http.Request) {
	var req listingRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	listing := req.toModel()
	if err := s.svc.Listings.UpdateListing(r.Context(), listing); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "listing updated", "listing": listing})
}

func (s *HTTPServer) handleListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := s.svc.Listings.ListListings(r.Context(), nil)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

func (s *HTTPServer) handleListAvailable(available bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listings, err := s.svc.Listings.ListListings(r.Context(), &available)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, listings)
	}
}

func (s *HTTPServer) handleListListingIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := s.svc.Listings.ListListingIDs(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ids": ids})
}

func (s *HTTPServer) handleGetListing(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	listing, err := s.svc.Listings.GetListing(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

type priceRequest struct {
	ListingID int64   `json:"listing_id"`
	Listing   int64   `json:"listing"`
	Price     float64 `json:"price"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
}

func (s *HTTPServer) handleCreatePrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	start, err := parseDay("start_date", req.StartDate)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	end, err := parseDay("end_date", req.EndDate)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	price := &models.SeasonalPrice{
		ListingID: firstNonZero(req.ListingID, req.Listing),
		Price:     req.Price,
		StartDate: start,
		EndDate:   end,
	}
	if err := s.svc.Listings.CreateSeasonalPrice(r.Context(), price); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "seasonal price created", "price": price})
}

func (s *HTTPServer) handleListingPrices(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	prices, err := s.svc.Listings.GetListingPrices(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if len(prices) == 0 {
		writeMessage(w, http.StatusOK, "no prices available")
		return
	}
	writeJSON(w, http.StatusOK, prices)
}

func (s *HTTPServer) handleCreateImage(w http.ResponseWriter, r *http.Request) {
	var image models.Image
	if err := decodeJSON(r, &image); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	image.ID = 0
	if err := s.svc.Catalog.CreateImage(r.Context(), &image); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "image created", "image": image})
}

func (s *HTTPServer) handleListingImages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	images, err := s.svc.Catalog.GetListingImages(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if len(images) == 0 {
		writeMessage(w, http.StatusOK, "no images available")
		return
	}
	writeJSON(w, http.StatusOK, images)
}

func (s *HTTPServer) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := s.svc.Catalog.DeleteImage(r.Context(), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "image deleted")
}

func (s *HTTPServer) handleCreateCommission(w http.ResponseWriter, r *http.Request) {
	var commission models.Commission
	if err := decodeJSON(r, &commission); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	commission.ID = 0
	if err := s.svc.Catalog.CreateCommission(r.Context(), &commission); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "commission created", "commission": commission})
}

func (s *HTTPServer) handleListingCommission(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	commission, err := s.svc.Catalog.GetListingCommission(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, commission)
}

func (s *HTTPServer) handleCreateService(w http.ResponseWriter, r *http.Request) {
	var svc models.Service
	if err := decodeJSON(r, &svc); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	svc.ID = 0
	if err := s.svc.Catalog.CreateService(r.Context(), &svc); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "service created", "service": svc})
}

func (s *HTTPServer) handleListingServices(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	services, err := s.svc.Catalog.GetListingServices(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if len(services) == 0 {
		writeMessage(w, http.StatusOK, "no services available")
		return
	}
	writeJSON(w, http.StatusOK, services)
}

func (s *HTTPServer) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	var policy models.CancellationPolicy
	if err := decodeJSON(r, &policy); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	policy.ID = 0
	if err := s.svc.Catalog.CreateCancellationPolicy(r.Context(), &policy); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "cancellation policy created", "policy": policy})
}

func (s *HTTPServer) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := s.svc.Catalog.GetCancellationPolicies(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if policies == nil {
		policies = []models.CancellationPolicy{}
	}
	writeJSON(w, http.StatusOK, policies)
}

type customerRequest struct {
	Name   string `json:"name"`
	Nombre string `json:"nombre"`
	Email  string `json:"email"`
}

func (s *HTTPServer) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	customer := &models.Customer{Name: firstNonEmpty(req.Name, req.Nombre), Email: req.Email}
	if err := s.svc.Customers.CreateCustomer(r.Context(), customer); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "customer created", "customer": customer})
}

func (s *HTTPServer) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	customer, err := s.svc.Customers.GetCustomer(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (s *HTTPServer) handleCustomerBookings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	bookings, err := s.svc.Customers.GetCustomerBookings(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if len(bookings) == 0 {
		writeMessage(w, http.StatusOK, "no bookings found")
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (s *HTTPServer) handleRegisterWebhook(w http.ResponseWriter, r *http.Request) {
	var hook models.ClientWebhook
	if err := decodeJSON(r, &hook); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	hook.ID = 0
	if err := s.svc.Webhooks.Register(r.Context(), &hook); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "webhook registered", "webhook": hook})
}

// handleClientWebhooks lists a client's subscriptions without their secrets.
func (s *HTTPServer) handleClientWebhooks(w http.ResponseWriter, r *http.Request) {
	hooks, err := s.svc.Webhooks.ListClientWebhooks(r.Context(), strings.TrimSpace(r.PathValue("client_id")))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	for _, h := range hooks {
		h.SecretToken = ""
	}
	writeJSON(w, http.StatusOK, hooks)
}

// handleFailedDeliveries reports deliveries that were dead-lettered.
func (s *HTTPServer) handleFailedDeliveries(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.svc.Webhooks.FailedDeliveries(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *HTTPServer) handleDeleteWebhook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := s.svc.Webhooks.Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "webhook deleted")
}
