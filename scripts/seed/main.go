package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"provider/internal/database"
	"provider/internal/models"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		dbPath      = flag.String("db", "./data/provider.db", "path to sqlite db")
		count       = flag.Int("listings", 10, "number of listings to generate")
		seasonsPath = flag.String("seasons", "", "optional seasons.yaml overriding the built-in catalog")
		pricesOnly  = flag.Bool("prices-only", false, "only add seasonal prices to listings without any")
	)
	flag.Parse()

	catalog := defaultCatalog()
	if *seasonsPath != "" {
		data, err := os.ReadFile(*seasonsPath)
		if err != nil {
			return fmt.Errorf("read seasons: %w", err)
		}
		if catalog, err = parseCatalog(data); err != nil {
			return err
		}
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	gen := &generator{rnd: rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))}

	if !*pricesOnly {
		for i := 0; i < *count; i++ {
			id, err := gen.listing(ctx, db)
			if err != nil {
				return err
			}
			logger.Info().Int64("listing_id", id).Msg("listing created")
		}
	}

	priced, err := gen.prices(ctx, db, catalog)
	if err != nil {
		return err
	}

	fmt.Printf("done: listings=%d priced=%d\n", *count, priced)
	return nil
}

var (
	cities   = []string{"Madrid", "Sevilla", "Valencia", "Bilbao", "Granada", "Lisboa", "Porto"}
	prefixes = []string{"Casa", "Apartamento", "Villa", "Loft", "Estudio"}
	names    = []string{"del Sol", "Azul", "Marina", "del Parque", "Central", "Vista Mar"}
	extras   = []struct{ name, description string }{
		{"WiFi", "Conexión inalámbrica en todo el alojamiento"},
		{"Parking", "Plaza de aparcamiento privada"},
		{"Piscina", "Piscina de uso compartido"},
		{"Desayuno", "Desayuno continental incluido"},
	}
)

type generator struct {
	rnd *rand.Rand
}

func (g *generator) pick(values []string) string {
	return values[g.rnd.IntN(len(values))]
}

// listing creates one listing with an image, a commission and a couple of services.
func (g *generator) listing(ctx context.Context, db *database.DB) (int64, error) {
	city := g.pick(cities)
	listing := &models.Listing{
		Name:      fmt.Sprintf("%s %s", g.pick(prefixes), g.pick(names)),
		Address:   fmt.Sprintf("Calle %d", 1+g.rnd.IntN(200)),
		City:      city,
		Country:   countryOf(city),
		Available: true,
		Occupants: 1 + g.rnd.IntN(6),
	}
	if err := db.CreateListing(ctx, listing); err != nil {
		return 0, fmt.Errorf("create listing: %w", err)
	}

	image := &models.Image{
		ListingID: listing.ID,
		Link:      fmt.Sprintf("https://picsum.photos/seed/%d/800/600", listing.ID),
	}
	if err := db.CreateImage(ctx, image); err != nil {
		return 0, fmt.Errorf("create image: %w", err)
	}
	listing.ImageID = &image.ID
	if err := db.UpdateListing(ctx, listing); err != nil {
		return 0, fmt.Errorf("link image: %w", err)
	}

	commission := &models.Commission{
		ListingID:  listing.ID,
		Commission: float64(5+g.rnd.IntN(11)) / 100,
	}
	if err := db.CreateCommission(ctx, commission); err != nil {
		return 0, fmt.Errorf("create commission: %w", err)
	}

	for _, i := range g.rnd.Perm(len(extras))[:2] {
		svc := &models.Service{ListingID: listing.ID, Name: extras[i].name, Description: extras[i].description}
		if err := db.CreateService(ctx, svc); err != nil {
			return 0, fmt.Errorf("create service: %w", err)
		}
	}
	return listing.ID, nil
}

// prices inserts the season catalog for every listing that has no prices yet.
func (g *generator) prices(ctx context.Context, db *database.DB, catalog seasonCatalog) (int, error) {
	ids, err := db.ListListingIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list listings: %w", err)
	}

	priced := 0
	for _, id := range ids {
		existing, err := db.GetListingPrices(ctx, id)
		if err != nil {
			return priced, fmt.Errorf("prices of %d: %w", id, err)
		}
		if len(existing) > 0 {
			continue
		}
		for _, year := range catalog.Years {
			for _, season := range catalog.Seasons {
				price, err := season.price(g.rnd, year)
				if err != nil {
					return priced, err
				}
				price.ListingID = id
				if err := db.CreateSeasonalPrice(ctx, price); err != nil {
					return priced, fmt.Errorf("create price: %w", err)
				}
			}
		}
		priced++
	}
	return priced, nil
}

func countryOf(city string) string {
	switch city {
	case "Lisboa", "Porto":
		return "Portugal"
	default:
		return "España"
	}
}
