// Package catalog implements the HTTP client for the catalog service,
// which owns recipes, ingredients and product definitions. This backend
// only reads recipe versions from it.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/shirin/backend/internal/domain/catalog"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shirin/backend/internal/infrastructure/config"
)

// maxResponseSize is the maximum allowed response size from the catalog service (1MB)
const maxResponseSize = 1 * 1024 * 1024

// Client resolves recipe versions against the catalog service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a catalog client from the catalog configuration
func NewClient(cfg *config.CatalogConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

var _ catalog.RecipeVersionProvider = (*Client)(nil)

// GetActiveVersion returns the currently active version of a recipe
func (c *Client) GetActiveVersion(ctx context.Context, recipeID uuid.UUID) (*catalog.RecipeVersion, error) {
	url := fmt.Sprintf("%s/api/v1/recipes/%s/active-version", c.baseURL, recipeID)
	return c.fetchVersion(ctx, url, "recipe")
}

// GetVersion returns a specific frozen recipe version
func (c *Client) GetVersion(ctx context.Context, versionID uuid.UUID) (*catalog.RecipeVersion, error) {
	url := fmt.Sprintf("%s/api/v1/recipe-versions/%s", c.baseURL, versionID)
	return c.fetchVersion(ctx, url, "recipe version")
}

// versionEnvelope matches the catalog service's response wrapper
type versionEnvelope struct {
	Success bool                   `json:"success"`
	Data    *catalog.RecipeVersion `json:"data"`
}

func (c *Client) fetchVersion(ctx context.Context, url, entity string) (*catalog.RecipeVersion, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, shared.NewNotFoundError(entity)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}

	var envelope versionEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse catalog response: %w", err)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("catalog response contained no recipe version")
	}
	if len(envelope.Data.Ingredients) == 0 {
		return nil, fmt.Errorf("recipe version %s has no ingredients", envelope.Data.ID)
	}

	return envelope.Data, nil
}
