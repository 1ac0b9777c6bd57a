package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecipeIngredient is one ingredient line of a recipe version, with the
// quantity needed to produce one output volume and the current per-unit
// purchase cost in USD.
type RecipeIngredient struct {
	IngredientID uuid.UUID       `json:"ingredient_id"`
	Name         string          `json:"name"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	UnitCostUSD  decimal.Decimal `json:"unit_cost_usd"`
}

// RecipeVersion is the frozen composition of a product at a point in
// time. Batches reference a specific version so that recipe edits never
// change the meaning of historical production.
type RecipeVersion struct {
	ID           uuid.UUID          `json:"id"`
	RecipeID     uuid.UUID          `json:"recipe_id"`
	Version      int                `json:"version"`
	Name         string             `json:"name"`
	OutputVolume decimal.Decimal    `json:"output_volume"`
	OutputUnit   string             `json:"output_unit"`
	Ingredients  []RecipeIngredient `json:"ingredients"`
}

// RecipeVersionProvider exposes the recipe catalog to the production
// workflow. The catalog itself is maintained elsewhere; this subsystem
// only reads active versions.
type RecipeVersionProvider interface {
	// GetActiveVersion returns the currently active version of a recipe
	GetActiveVersion(ctx context.Context, recipeID uuid.UUID) (*RecipeVersion, error)
	// GetVersion returns a specific frozen version
	GetVersion(ctx context.Context, versionID uuid.UUID) (*RecipeVersion, error)
}
