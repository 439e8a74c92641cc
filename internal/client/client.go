// Package client is a small HTTP client for the provider API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"provider/internal/models"

	"github.com/redis/go-redis/v9"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL    string
	apiKey     string
	apiExtra   string
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration
}

// New constructs a client with baseURL and optional API key and extra header.
func New(baseURL, apiKey, apiExtra string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		apiExtra:   apiExtra,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// UseRedisCache configures optional Redis caching for listing reads.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

func (c *Client) ListListings(ctx context.Context) ([]models.Listing, error) {
	const cacheKey = "client:listings"
	var listings []models.Listing
	if c.readCache(ctx, cacheKey, &listings) {
		return listings, nil
	}
	if err := c.doJSON(ctx, http.MethodGet, "/listings", nil, &listings); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, listings)
	return listings, nil
}

func (c *Client) CreateImage(ctx context.Context, listingID int64, link string) (*models.Image, error) {
	var resp struct {
		Image models.Image `json:"image"`
	}
	body := models.Image{ListingID: listingID, Link: link}
	if err := c.doJSON(ctx, http.MethodPost, "/images", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Image, nil
}

func (c *Client) Quote(ctx context.Context, listingID int64, checkIn, checkOut time.Time, occupants int) (*models.Quote, error) {
	q := url.Values{}
	q.Set("listing_id", fmt.Sprint(listingID))
	q.Set("check_in", models.FormatDay(checkIn))
	q.Set("check_out", models.FormatDay(checkOut))
	if occupants > 0 {
		q.Set("occupants", fmt.Sprint(occupants))
	}
	var quote models.Quote
	if err := c.doJSON(ctx, http.MethodGet, "/quote?"+q.Encode(), nil, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(val, out) == nil
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.addHeaders(req)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&msg)
		return &StatusError{StatusCode: resp.StatusCode, Message: msg.Message}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) addHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	if c.apiExtra != "" {
		req.Header.Set("x-api-extra", c.apiExtra)
	}
}
