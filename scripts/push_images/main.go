package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"provider/internal/client"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var imageLinks = []string{
	"https://images.unsplash.com/photo-1505693416388-ac5ce068fe85",
	"https://images.unsplash.com/photo-1502672260266-1c1ef2d93688",
	"https://images.unsplash.com/photo-1522708323590-d24dbb6b0267",
	"https://images.unsplash.com/photo-1560448204-e02f11c3d0e2",
	"https://images.unsplash.com/photo-1493809842364-78817add7ffb",
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		baseURL = flag.String("url", envOr("PROVIDER_URL", "http://localhost:8080"), "provider API base url")
		apiKey  = flag.String("key", os.Getenv("PROVIDER_API_KEY"), "api key")
		extra   = flag.String("extra", os.Getenv("PROVIDER_API_EXTRA"), "api extra header")
		workers = flag.Int("workers", 20, "concurrent requests")
		rps     = flag.Float64("rps", 50, "requests per second")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	c := client.New(*baseURL, *apiKey, *extra)
	listings, err := c.ListListings(ctx)
	if err != nil {
		return fmt.Errorf("list listings: %w", err)
	}

	ids := make([]int64, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ID)
	}

	ok, failed := push(ctx, c, ids, *workers, rate.NewLimiter(rate.Limit(*rps), 1), &logger)
	fmt.Printf("done: pushed=%d failed=%d\n", ok, failed)
	return nil
}

type imageCreator interface {
	CreateImage(ctx context.Context, listingID int64, link string) error
}

type clientAdapter struct{ c *client.Client }

func (a clientAdapter) CreateImage(ctx context.Context, listingID int64, link string) error {
	_, err := a.c.CreateImage(ctx, listingID, link)
	return err
}

func push(ctx context.Context, c *client.Client, ids []int64, workers int, limiter *rate.Limiter, logger *zerolog.Logger) (int64, int64) {
	return pushWith(ctx, clientAdapter{c}, ids, workers, limiter, logger)
}

// pushWith posts a random image link per listing through a bounded worker pool.
func pushWith(ctx context.Context, creator imageCreator, ids []int64, workers int, limiter *rate.Limiter, logger *zerolog.Logger) (int64, int64) {
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan int64)
	var ok, failed atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if err := limiter.Wait(ctx); err != nil {
					failed.Add(1)
					continue
				}
				link := imageLinks[rand.IntN(len(imageLinks))]
				if err := creator.CreateImage(ctx, id, link); err != nil {
					logger.Error().Err(err).Int64("listing_id", id).Msg("push image")
					failed.Add(1)
					continue
				}
				ok.Add(1)
			}
		}()
	}

	for _, id := range ids {
		jobs <- id
	}
	close(jobs)
	wg.Wait()
	return ok.Load(), failed.Load()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
