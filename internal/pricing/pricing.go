package pricing

import (
	"math"
	"sort"
	"time"

	"provider/internal/domain"
	"provider/internal/models"
)

// Cents keeps amounts integral while summing nightly prices.
type Cents int64

func ToCents(amount float64) Cents {
	return Cents(math.Round(amount * 100))
}

func (c Cents) Float() float64 {
	return float64(c) / 100
}

// CheckListing rejects listings that cannot host the party.
func CheckListing(listing *models.Listing, occupants int) error {
	if listing == nil || !listing.Available {
		return domain.NotFoundf("listing not available")
	}
	if occupants < 1 {
		return domain.Validationf("occupants must be at least 1")
	}
	if occupants > listing.Occupants {
		return domain.Validationf("listing %d accepts at most %d occupants, requested %d",
			listing.ID, listing.Occupants, occupants)
	}
	return nil
}

// CheckConflicts fails when any booking shares a night with the stay.
func CheckConflicts(stay Stay, bookings []*models.Booking) error {
	for _, b := range bookings {
		if b.Overlaps(stay.CheckIn, stay.CheckOut) {
			return domain.Conflictf("listing %d is already booked from %s to %s",
				b.ListingID, models.FormatDay(b.CheckIn), models.FormatDay(b.CheckOut))
		}
	}
	return nil
}

// PriceStay sums, for every night, the price of the first entry covering it.
// Entries are used in the order given. Nights with no covering entry add nothing.
func PriceStay(stay Stay, prices []*models.SeasonalPrice) (total, perDay Cents, err error) {
	if len(prices) == 0 {
		return 0, 0, domain.NotFoundf("no prices for %s to %s",
			models.FormatDay(stay.CheckIn), models.FormatDay(stay.CheckOut))
	}
	nights := stay.Nights()
	if nights < 1 {
		return 0, 0, domain.Validationf("stay must be at least one night")
	}

	stay.EachNight(func(day time.Time) {
		for _, p := range prices {
			if p.Covers(day) {
				total += ToCents(p.Price)
				return
			}
		}
	})

	perDay = Cents(math.Round(float64(total) / float64(nights)))
	return total, perDay, nil
}

// SortPolicies orders cancellation policies by notice, longest first.
func SortPolicies(policies []*models.CancellationPolicy) []models.CancellationPolicy {
	out := make([]models.CancellationPolicy, 0, len(policies))
	for _, p := range policies {
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysBefore > out[j].DaysBefore })
	return out
}
