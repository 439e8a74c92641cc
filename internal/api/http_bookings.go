package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"provider/internal/domain"
	"provider/internal/export"
	"provider/internal/service"
)

// quoteQuery reads the engine input from the query string. The original
// Spanish parameter names are accepted as aliases.
func quoteQuery(q url.Values) (service.QuoteRequest, error) {
	var req service.QuoteRequest

	rawID := strings.TrimSpace(q.Get("listing_id"))
	if rawID == "" {
		return req, domain.Validationf("listing_id is required")
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return req, domain.Validationf("listing_id must be an integer, got %q", rawID)
	}
	req.ListingID = id

	if req.CheckIn, err = parseDay("check_in", firstNonEmpty(q.Get("check_in"), q.Get("fecha_entrada"))); err != nil {
		return req, err
	}
	if req.CheckOut, err = parseDay("check_out", firstNonEmpty(q.Get("check_out"), q.Get("fecha_salida"))); err != nil {
		return req, err
	}

	if raw := strings.TrimSpace(firstNonEmpty(q.Get("occupants"), q.Get("num_personas"))); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return req, domain.Validationf("occupants must be a positive integer, got %q", raw)
		}
		req.Occupants = n
	}
	return req, nil
}

func (s *HTTPServer) handleQuote(w http.ResponseWriter, r *http.Request) {
	req, err := quoteQuery(r.URL.Query())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	quote, err := s.svc.Bookings.Quote(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *HTTPServer) handleCheckAvailability(w http.ResponseWriter, r *http.Request) {
	req, err := quoteQuery(r.URL.Query())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	quote, err := s.svc.Bookings.CheckAvailability(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"available": true, "quote": quote})
}

// bookingBody is shared by /confirm and /reserva.
type bookingBody struct {
	ListingID    int64  `json:"listing_id"`
	CustomerID   int64  `json:"customer_id"`
	ClienteID    int64  `json:"cliente_id"`
	CheckIn      string `json:"check_in"`
	CheckOut     string `json:"check_out"`
	FechaEntrada string `json:"fecha_entrada"`
	FechaSalida  string `json:"fecha_salida"`
	Occupants    int    `json:"occupants"`
	Locator      int64  `json:"locator"`
	Localizador  int64  `json:"localizador"`
}

func (b bookingBody) quoteRequest() (service.QuoteRequest, error) {
	req := service.QuoteRequest{ListingID: b.ListingID, Occupants: b.Occupants}
	if req.ListingID <= 0 {
		return req, domain.Validationf("listing_id is required")
	}
	if req.Occupants < 0 {
		return req, domain.Validationf("occupants must be a positive integer")
	}
	var err error
	if req.CheckIn, err = parseDay("check_in", firstNonEmpty(b.CheckIn, b.FechaEntrada)); err != nil {
		return req, err
	}
	if req.CheckOut, err = parseDay("check_out", firstNonEmpty(b.CheckOut, b.FechaSalida)); err != nil {
		return req, err
	}
	return req, nil
}

func (b bookingBody) customerID() (int64, error) {
	id := firstNonZero(b.CustomerID, b.ClienteID)
	if id <= 0 {
		return 0, domain.Validationf("customer_id is required")
	}
	return id, nil
}

func (s *HTTPServer) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var body bookingBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	quoteReq, err := body.quoteRequest()
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	customerID, err := body.customerID()
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	conf, err := s.svc.Bookings.Confirm(r.Context(), service.ConfirmRequest{QuoteRequest: quoteReq, CustomerID: customerID})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "booking confirmed", "booking": conf})
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var body bookingBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	stay, err := body.quoteRequest()
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	customerID, err := body.customerID()
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	booking, customer, err := s.svc.Bookings.CreateBooking(r.Context(), service.BookingRequest{
		ListingID:  stay.ListingID,
		CustomerID: customerID,
		CheckIn:    stay.CheckIn,
		CheckOut:   stay.CheckOut,
		Locator:    firstNonZero(body.Locator, body.Localizador),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "booking created",
		"booking":  booking,
		"customer": map[string]string{"name": customer.Name, "email": customer.Email},
		"locator":  booking.Locator,
	})
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	booking, err := s.svc.Bookings.GetBooking(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleTraceSearch(w http.ResponseWriter, r *http.Request) {
	code, err := pathID(r, "locator")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	booking, err := s.svc.Bookings.TraceByLocator(r.Context(), code)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	code, err := pathID(r, "locator")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	booking, err := s.svc.Bookings.CancelBooking(r.Context(), code)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "booking cancelled", "booking": booking})
}

func (s *HTTPServer) handleListingBookings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	bookings, err := s.svc.Bookings.GetListingBookings(r.Context(), id)
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

// handleExportBookings streams an XLSX workbook of bookings intersecting [from, to].
func (s *HTTPServer) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseDay("from", q.Get("from"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	to, err := parseDay("to", q.Get("to"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	bookings, err := s.svc.Bookings.GetBookingsByDateRange(r.Context(), from, to)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := s.svc.Exporter.Write(&buf, from, to, bookings); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.svc.Exporter.FileName(from, to)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
