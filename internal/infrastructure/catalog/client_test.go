package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shirin/backend/internal/infrastructure/config"
)

func newTestClient(url string) *Client {
	return NewClient(&config.CatalogConfig{
		BaseURL:        url,
		RequestTimeout: 2 * time.Second,
	})
}

func TestClient_GetActiveVersion(t *testing.T) {
	recipeID := uuid.New()
	versionID := uuid.New()

	t.Run("parses active recipe version", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, fmt.Sprintf("/api/v1/recipes/%s/active-version", recipeID), r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{
				"success": true,
				"data": {
					"id": %q,
					"recipe_id": %q,
					"version": 3,
					"name": "Lemonade 0.5L",
					"output_volume": "100",
					"output_unit": "bottle",
					"ingredients": [
						{"ingredient_id": %q, "name": "Sugar", "quantity": "12.5", "unit": "kg", "unit_cost_usd": "0.80"}
					]
				}
			}`, versionID, recipeID, uuid.New())
		}))
		defer server.Close()

		version, err := newTestClient(server.URL).GetActiveVersion(context.Background(), recipeID)
		require.NoError(t, err)
		assert.Equal(t, versionID, version.ID)
		assert.Equal(t, recipeID, version.RecipeID)
		assert.Equal(t, 3, version.Version)
		require.Len(t, version.Ingredients, 1)
		assert.Equal(t, "Sugar", version.Ingredients[0].Name)
		assert.Equal(t, "12.5", version.Ingredients[0].Quantity.String())
	})

	t.Run("maps 404 to a domain not-found error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).GetActiveVersion(context.Background(), recipeID)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeNotFound, domainErr.Code)
	})

	t.Run("rejects versions without ingredients", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"success": true, "data": {"id": %q, "ingredients": []}}`, versionID)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).GetActiveVersion(context.Background(), recipeID)
		assert.ErrorContains(t, err, "no ingredients")
	})

	t.Run("rejects empty envelopes", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success": true}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).GetActiveVersion(context.Background(), recipeID)
		assert.ErrorContains(t, err, "no recipe version")
	})

	t.Run("fails on upstream errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).GetActiveVersion(context.Background(), recipeID)
		assert.ErrorContains(t, err, "status 502")
	})
}

func TestClient_GetVersion(t *testing.T) {
	versionID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fmt.Sprintf("/api/v1/recipe-versions/%s", versionID), r.URL.Path)
		fmt.Fprintf(w, `{
			"success": true,
			"data": {
				"id": %q,
				"version": 1,
				"ingredients": [{"ingredient_id": %q, "name": "Water", "quantity": "40", "unit": "l", "unit_cost_usd": "0.01"}]
			}
		}`, versionID, uuid.New())
	}))
	defer server.Close()

	version, err := newTestClient(server.URL).GetVersion(context.Background(), versionID)
	require.NoError(t, err)
	assert.Equal(t, versionID, version.ID)
	require.Len(t, version.Ingredients, 1)
}
