package pricing

import (
	"time"

	"provider/internal/domain"
	"provider/internal/models"
)

// Stay is the half-open night range [CheckIn, CheckOut) in whole UTC days.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// NewStay truncates both ends to days and rejects stays of zero or negative length.
func NewStay(checkIn, checkOut time.Time) (Stay, error) {
	s := Stay{CheckIn: models.TruncateDay(checkIn), CheckOut: models.TruncateDay(checkOut)}
	if s.CheckIn.IsZero() || s.CheckOut.IsZero() {
		return Stay{}, domain.Validationf("check-in and check-out dates are required")
	}
	if !s.CheckOut.After(s.CheckIn) {
		return Stay{}, domain.Validationf("check-out %s must be after check-in %s",
			models.FormatDay(s.CheckOut), models.FormatDay(s.CheckIn))
	}
	return s, nil
}

// ParseStay parses both dates with models.ParseDay before building the stay.
func ParseStay(checkIn, checkOut string) (Stay, error) {
	in, err := models.ParseDay(checkIn)
	if err != nil {
		return Stay{}, domain.Validationf("check-in: %v", err)
	}
	out, err := models.ParseDay(checkOut)
	if err != nil {
		return Stay{}, domain.Validationf("check-out: %v", err)
	}
	return NewStay(in, out)
}

func (s Stay) Nights() int {
	return models.Nights(s.CheckIn, s.CheckOut)
}

// EachNight calls fn for every night of the stay, check-out day excluded.
func (s Stay) EachNight(fn func(day time.Time)) {
	for d := s.CheckIn; d.Before(s.CheckOut); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}
