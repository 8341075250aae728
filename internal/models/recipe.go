package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MaxIngredientSlots is the number of ingredient/measure pairs a recipe API record carries.
const MaxIngredientSlots = 15

// CatalogEntry is one external recipe as known to the catalog fetch, before any local persistence.
type CatalogEntry struct {
	ExternalID string `json:"id"`
	Name       string `json:"name"`
}

// IngredientMeasure is one populated ingredient slot of a [RecipeDetail].
type IngredientMeasure struct {
	Name    string `json:"name"`
	Measure string `json:"measure"`
}

// RecipeDetail is a full upstream recipe record.
type RecipeDetail struct {
	ExternalID   string              `json:"id"`
	Name         string              `json:"name"`
	Category     string              `json:"category,omitempty"`
	Alcoholic    string              `json:"alcoholic,omitempty"`
	Glass        string              `json:"glass,omitempty"`
	Instructions string              `json:"instructions"`
	Thumbnail    string              `json:"thumbnail,omitempty"`
	Ingredients  []IngredientMeasure `json:"ingredients"`
}

// CatalogSource says where a [CatalogItem] came from.
type CatalogSource string

const (
	SourceExternal CatalogSource = "external"
	SourceLocal    CatalogSource = "local"
)

// CatalogItem is a catalog row annotated with local state.
//
// RecipeID is set when a local row backs the item: the canonical copy for external entries,
// or the user's own recipe for local ones.
type CatalogItem struct {
	ExternalID string        `json:"external_id,omitempty"`
	Name       string        `json:"name"`
	RecipeID   string        `json:"recipe_id,omitempty"`
	Source     CatalogSource `json:"source"`
}

// RecipeIngredient is a recipe's quantity row pointing at a shared [Ingredient].
type RecipeIngredient struct {
	Position       int    `json:"position"`
	IngredientID   string `json:"ingredient_id"`
	IngredientName string `json:"name"`
	Quantity       string `json:"quantity"`
}

// Recipe is a locally stored recipe.
//
// External recipes are the canonical shared copies of upstream records; at most one exists per name.
// Non-external recipes are either user originals or forks, in which case ForkedFrom holds the canonical ID.
type Recipe struct {
	base
	Name         string
	Instructions string
	Thumbnail    Thumbnail
	External     bool
	ExternalID   string
	ForkedFrom   string
	Ingredients  []RecipeIngredient
}

// NewRecipe creates an unsaved, user-owned recipe.
func NewRecipe(name, instructions string, thumb Thumbnail) *Recipe {
	return &Recipe{base: newBase(0), Name: name, Instructions: instructions, Thumbnail: thumb}
}

// NewCanonicalRecipe creates an unsaved canonical recipe from an upstream record. Ingredients are
// not copied; they are resolved against stored ingredients when the recipe is materialized.
func NewCanonicalRecipe(detail RecipeDetail) *Recipe {
	r := NewRecipe(strings.TrimSpace(detail.Name), detail.Instructions, ParseThumbnail(detail.Thumbnail))
	r.External = true
	r.ExternalID = detail.ExternalID
	return r
}

// IsCanonical reports whether r is the shared copy of an external recipe.
func (r *Recipe) IsCanonical() bool {
	return r.External
}

// IsFork reports whether r is a private copy of a canonical recipe.
func (r *Recipe) IsFork() bool {
	return !r.External && r.ForkedFrom != ""
}

// Fork returns an unsaved private copy of r with its own ingredient slice.
func (r *Recipe) Fork() *Recipe {
	fork := NewRecipe(r.Name, r.Instructions, r.Thumbnail)
	fork.ExternalID = r.ExternalID
	fork.ForkedFrom = r.ID()
	fork.Ingredients = make([]RecipeIngredient, len(r.Ingredients))
	copy(fork.Ingredients, r.Ingredients)
	return fork
}

func (r *Recipe) Validate() error {
	if r.id == "" {
		return fmt.Errorf("recipe id is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("recipe name is required")
	}
	if r.External && r.ForkedFrom != "" {
		return fmt.Errorf("canonical recipe %q cannot be a fork", r.Name)
	}
	return nil
}

type recipeJSON struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Instructions string             `json:"instructions"`
	Thumbnail    Thumbnail          `json:"thumbnail"`
	External     bool               `json:"external"`
	ExternalID   string             `json:"external_id,omitempty"`
	ForkedFrom   string             `json:"forked_from,omitempty"`
	Ingredients  []RecipeIngredient `json:"ingredients"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

func (r *Recipe) MarshalJSON() ([]byte, error) {
	ingredients := r.Ingredients
	if ingredients == nil {
		ingredients = []RecipeIngredient{}
	}
	return json.Marshal(recipeJSON{
		ID:           r.id,
		Name:         r.Name,
		Instructions: r.Instructions,
		Thumbnail:    r.Thumbnail,
		External:     r.External,
		ExternalID:   r.ExternalID,
		ForkedFrom:   r.ForkedFrom,
		Ingredients:  ingredients,
		CreatedAt:    r.createdAt,
		UpdatedAt:    r.updatedAt,
	})
}

// Ingredient is a shared ingredient name. Names are unique and compared exactly.
type Ingredient struct {
	base
	Name string
}

// NewIngredient creates an unsaved ingredient.
func NewIngredient(name string) *Ingredient {
	return &Ingredient{base: newBase(0), Name: name}
}

func (i *Ingredient) Validate() error {
	if i.id == "" {
		return fmt.Errorf("ingredient id is required")
	}
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("ingredient name is required")
	}
	return nil
}

func (i *Ingredient) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}{i.id, i.Name})
}

// OwnershipLink records that a recipe appears in a user's collection.
type OwnershipLink struct {
	UserID    string
	RecipeID  string
	CreatedAt time.Time
}
