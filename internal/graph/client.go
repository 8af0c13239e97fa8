package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Config holds the graph store connection settings.
type Config struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the default graph store configuration.
func DefaultConfig() Config {
	return Config{
		URL:     "http://localhost:8080",
		Timeout: 30 * time.Second,
	}
}

// Client talks to the graph store's REST API. Label creation is an upsert
// on the store side: creating the same label value twice returns the same
// node. The importer relies on that contract and does not deduplicate.
type Client struct {
	config Config
	client *http.Client
}

// NewClient creates a new graph store client.
func NewClient(cfg Config) *Client {
	return &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// idResponse is the store's reply to every creation request.
type idResponse struct {
	ID string `json:"id"`
}

// post sends a JSON creation request and returns the created entity id.
func (c *Client) post(ctx context.Context, path string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("graph: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("graph: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("graph: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("graph: %s returned %d", path, resp.StatusCode)
	}

	var out idResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("graph: decode response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("graph: %s returned empty id", path)
	}

	return out.ID, nil
}

// CreateIndicator creates an indicator node and returns its id.
func (c *Client) CreateIndicator(ctx context.Context, p IndicatorParams) (string, error) {
	return c.post(ctx, "/api/indicators", p)
}

// CreateLabel upserts a label node carrying the given literal value.
func (c *Client) CreateLabel(ctx context.Context, labelType, value, color string) (string, error) {
	return c.post(ctx, "/api/labels", map[string]string{
		"type":  labelType,
		"value": value,
		"color": color,
	})
}

// AttachLabel attaches a label node to a target entity.
func (c *Client) AttachLabel(ctx context.Context, targetID, labelID string) error {
	_, err := c.post(ctx, "/api/entities/"+targetID+"/labels", map[string]string{
		"label_id": labelID,
	})
	return err
}

// CreateExternalReference creates an external-reference node.
func (c *Client) CreateExternalReference(ctx context.Context, sourceName, url, description string) (string, error) {
	return c.post(ctx, "/api/external-references", map[string]string{
		"source_name": sourceName,
		"url":         url,
		"description": description,
	})
}

// AttachExternalReference attaches an external-reference node to a target entity.
func (c *Client) AttachExternalReference(ctx context.Context, targetID, refID string) error {
	_, err := c.post(ctx, "/api/entities/"+targetID+"/external-references", map[string]string{
		"external_reference_id": refID,
	})
	return err
}

// CreateRelationship creates a relationship edge and returns its id.
func (c *Client) CreateRelationship(ctx context.Context, p RelationshipParams) (string, error) {
	return c.post(ctx, "/api/relationships", p)
}

// CreateIdentity creates an identity node (for example an organization).
func (c *Client) CreateIdentity(ctx context.Context, name, identityType, description string) (string, error) {
	return c.post(ctx, "/api/identities", map[string]string{
		"name":        name,
		"type":        identityType,
		"description": description,
	})
}

// ReadByID reads an entity by its internal id. Returns ErrNotFound when
// the store has no entity with that id.
func (c *Client) ReadByID(ctx context.Context, id string) (*Entity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.URL+"/api/entities/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("graph: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph: read %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("graph: read %s returned %d", id, resp.StatusCode)
	}

	var entity Entity
	if err := json.NewDecoder(resp.Body).Decode(&entity); err != nil {
		return nil, fmt.Errorf("graph: decode entity: %w", err)
	}

	return &entity, nil
}
