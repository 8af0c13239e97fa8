package taxonomy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// PayloadArchiver stores a raw payload snapshot for post-hoc audit.
type PayloadArchiver interface {
	Put(ctx context.Context, kind string, payload []byte) (string, error)
}

// FetcherConfig holds the taxonomy dataset fetch settings.
type FetcherConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultFetcherConfig returns the default fetcher configuration.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		URL:     "https://raw.githubusercontent.com/mitre/cti/master/enterprise-attack/enterprise-attack.json",
		Timeout: 60 * time.Second,
	}
}

// HTTPFetcher downloads the taxonomy dataset over HTTP.
type HTTPFetcher struct {
	config   FetcherConfig
	client   *http.Client
	archiver PayloadArchiver
}

// NewHTTPFetcher creates a fetcher for the configured dataset URL.
func NewHTTPFetcher(cfg FetcherConfig) *HTTPFetcher {
	return &HTTPFetcher{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// WithArchiver enables raw payload archival after each successful fetch.
func (f *HTTPFetcher) WithArchiver(a PayloadArchiver) *HTTPFetcher {
	f.archiver = a
	return f
}

// FetchObjects downloads and parses the dataset.
func (f *HTTPFetcher) FetchObjects(ctx context.Context) ([]Object, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.config.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: dataset endpoint returned %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if f.archiver != nil {
		if key, err := f.archiver.Put(ctx, "taxonomy", body); err != nil {
			slog.Warn("failed to archive taxonomy payload", "error", err)
		} else {
			slog.Debug("archived taxonomy payload", "key", key)
		}
	}

	var bundle Bundle
	if err := json.Unmarshal(body, &bundle); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	return bundle.Objects, nil
}
