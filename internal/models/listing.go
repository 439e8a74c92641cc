package models

import "time"

// Listing is a bookable lodging unit. Occupants is the maximum party size.
type Listing struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name" validate:"required,max=200"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	ImageID   *int64    `json:"image_id"`
	Available bool      `json:"available"`
	Occupants int       `json:"occupants" validate:"min=1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SeasonalPrice is a nightly price for a listing over an inclusive date range.
type SeasonalPrice struct {
	ID        int64     `json:"id"`
	ListingID int64     `json:"listing_id" validate:"required"`
	Price     float64   `json:"price" validate:"gte=0"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// Covers reports whether day falls within [StartDate, EndDate].
func (p SeasonalPrice) Covers(day time.Time) bool {
	day = TruncateDay(day)
	return !day.Before(TruncateDay(p.StartDate)) && !day.After(TruncateDay(p.EndDate))
}

type Image struct {
	ID        int64  `json:"id"`
	ListingID int64  `json:"listing_id" validate:"required"`
	Link      string `json:"link" validate:"required,url"`
}

type Commission struct {
	ID         int64   `json:"id"`
	ListingID  int64   `json:"listing_id" validate:"required"`
	Commission float64 `json:"commission" validate:"gte=0"`
}

type Service struct {
	ID          int64  `json:"id"`
	ListingID   int64  `json:"listing_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// CancellationPolicy is a penalty applied when cancelling DaysBefore days ahead of check-in.
type CancellationPolicy struct {
	ID         int64   `json:"id"`
	DaysBefore int     `json:"days_before" validate:"gte=0"`
	Penalty    float64 `json:"penalty" validate:"gte=0"`
}
