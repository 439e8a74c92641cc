package models

import "time"

// Booking occupies a listing for the half-open stay [CheckIn, CheckOut).
type Booking struct {
	ID         int64     `json:"id"`
	ListingID  int64     `json:"listing_id"`
	CustomerID int64     `json:"customer_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Locator    int64     `json:"locator"`
	TotalPrice float64   `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
}

// Overlaps reports whether the booking shares at least one night with [checkIn, checkOut).
// Back-to-back stays do not overlap.
func (b Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckIn.Before(checkOut) && b.CheckOut.After(checkIn)
}

// Quote is the priced answer of the availability engine.
type Quote struct {
	Listing              Listing              `json:"listing"`
	CheckIn              time.Time            `json:"check_in"`
	CheckOut             time.Time            `json:"check_out"`
	Occupants            int                  `json:"occupants"`
	Nights               int                  `json:"nights"`
	TotalPrice           float64              `json:"total_price"`
	PricePerDay          float64              `json:"price_per_day"`
	Image                *string              `json:"image"`
	CancellationPolicies []CancellationPolicy `json:"cancellation_policies"`
}
