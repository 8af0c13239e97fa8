// Package feed retrieves detection signatures from the rule feed API.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"siggraph/internal/schema"
)

var (
	// ErrUnavailable indicates the feed could not be fetched.
	ErrUnavailable = errors.New("feed: unavailable")

	// ErrMalformedPayload indicates the feed response failed to parse or
	// failed schema validation. Treated the same as a failed fetch.
	ErrMalformedPayload = errors.New("feed: malformed payload")
)

// PayloadArchiver stores a raw payload snapshot for post-hoc audit.
type PayloadArchiver interface {
	Put(ctx context.Context, kind string, payload []byte) (string, error)
}

// Config holds the feed connection settings.
type Config struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the default feed configuration.
func DefaultConfig() Config {
	return Config{
		URL:     "https://valhalla.nextron-systems.com/api/v1/get",
		Timeout: 60 * time.Second,
	}
}

// Client fetches and validates the signature feed.
type Client struct {
	config    Config
	client    *http.Client
	validator *schema.Validator
	archiver  PayloadArchiver
}

// NewClient creates a feed client.
func NewClient(cfg Config) *Client {
	return &Client{
		config:    cfg,
		client:    &http.Client{Timeout: cfg.Timeout},
		validator: schema.NewValidator(),
	}
}

// WithArchiver enables raw payload archival after each successful fetch.
func (c *Client) WithArchiver(a PayloadArchiver) *Client {
	c.archiver = a
	return c
}

// FetchRules downloads the current rule set. The response is validated
// against the canonical schema before use; a response that fails
// validation is reported as a fetch failure.
func (c *Client) FetchRules(ctx context.Context) ([]schema.Rule, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: feed endpoint returned %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if c.archiver != nil {
		if key, err := c.archiver.Put(ctx, "feed", body); err != nil {
			slog.Warn("failed to archive feed payload", "error", err)
		} else {
			slog.Debug("archived feed payload", "key", key)
		}
	}

	var feedResp schema.FeedResponse
	if err := json.Unmarshal(body, &feedResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if err := c.validator.ValidateResponse(&feedResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if feedResp.Status != schema.StatusOK {
		return nil, fmt.Errorf("%w: feed reported status %q", ErrMalformedPayload, feedResp.Status)
	}

	return feedResp.Rules, nil
}
