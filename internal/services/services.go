package services

import (
	"context"

	"github.com/desertthunder/mixr/internal/models"
)

// RecipeSource is the read-only contract of an external recipe API.
//
// Implementations absorb transport and decode failures: a lookup that fails reports not found
// and a search that fails returns an empty list. Failures are logged, never returned.
type RecipeSource interface {
	// LookupByID fetches one recipe. The boolean is false when nothing usable came back.
	LookupByID(ctx context.Context, id string) (*models.RecipeDetail, bool)

	// SearchByLetter lists recipes whose name starts with letter.
	SearchByLetter(ctx context.Context, letter string) []models.CatalogEntry

	// ListIngredientNames returns every ingredient name, sorted case-insensitively.
	ListIngredientNames(ctx context.Context) []string

	// Random fetches one random recipe.
	Random(ctx context.Context) (*models.RecipeDetail, bool)

	// SearchByName lists recipes whose name contains name.
	SearchByName(ctx context.Context, name string) []models.CatalogEntry

	// Name returns the name of the source (e.g., "TheCocktailDB")
	Name() string
}
