package main

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"provider/internal/models"

	"gopkg.in/yaml.v2"
)

// season is a yearly date window with a nightly price band. Start and End are MM-DD.
type season struct {
	Name     string  `yaml:"name"`
	Start    string  `yaml:"start"`
	End      string  `yaml:"end"`
	MinPrice float64 `yaml:"min_price"`
	MaxPrice float64 `yaml:"max_price"`
}

type seasonCatalog struct {
	Years   []int    `yaml:"years"`
	Seasons []season `yaml:"seasons"`
}

func defaultCatalog() seasonCatalog {
	return seasonCatalog{
		Years: []int{2025, 2026},
		Seasons: []season{
			{Name: "Winter", Start: "01-01", End: "03-31", MinPrice: 100, MaxPrice: 130},
			{Name: "Spring", Start: "04-01", End: "06-30", MinPrice: 120, MaxPrice: 150},
			{Name: "Summer", Start: "07-01", End: "09-30", MinPrice: 140, MaxPrice: 175},
			{Name: "Fall", Start: "10-01", End: "12-31", MinPrice: 110, MaxPrice: 140},
		},
	}
}

func parseCatalog(data []byte) (seasonCatalog, error) {
	var c seasonCatalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return seasonCatalog{}, fmt.Errorf("parse seasons: %w", err)
	}
	if len(c.Years) == 0 || len(c.Seasons) == 0 {
		return seasonCatalog{}, errors.New("seasons file needs years and seasons")
	}
	for _, s := range c.Seasons {
		if s.MaxPrice < s.MinPrice || s.MinPrice < 0 {
			return seasonCatalog{}, fmt.Errorf("season %s: invalid price band", s.Name)
		}
	}
	return c, nil
}

// price draws a nightly price from the band, rounded to cents.
func (s season) price(rnd *rand.Rand, year int) (*models.SeasonalPrice, error) {
	start, err := models.ParseDay(fmt.Sprintf("%04d-%s", year, s.Start))
	if err != nil {
		return nil, fmt.Errorf("season %s start: %w", s.Name, err)
	}
	end, err := models.ParseDay(fmt.Sprintf("%04d-%s", year, s.End))
	if err != nil {
		return nil, fmt.Errorf("season %s end: %w", s.Name, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("season %s ends before it starts", s.Name)
	}

	value := s.MinPrice + rnd.Float64()*(s.MaxPrice-s.MinPrice)
	return &models.SeasonalPrice{
		Price:     math.Round(value*100) / 100,
		StartDate: start,
		EndDate:   end,
	}, nil
}
