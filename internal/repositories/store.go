package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/mixr/internal/models"
)

// CollectionStore is the storage contract of the collection layer.
//
// Lookups that find nothing return an error wrapping the matching shared not-found sentinel.
type CollectionStore interface {
	FindRecipeByName(ctx context.Context, name string, external bool) (*models.Recipe, error)
	GetRecipe(ctx context.Context, id string) (*models.Recipe, error)
	FindFork(ctx context.Context, userID, canonicalID string) (*models.Recipe, error)
	CreateRecipe(ctx context.Context, recipe *models.Recipe) error
	UpdateRecipe(ctx context.Context, recipe *models.Recipe) error
	DeleteRecipe(ctx context.Context, id string) error
	ListRecipes(ctx context.Context, criteria map[string]any) ([]*models.Recipe, error)

	FindIngredientByName(ctx context.Context, name string) (*models.Ingredient, error)
	UpsertIngredient(ctx context.Context, name string) (*models.Ingredient, error)
	ListIngredients(ctx context.Context) ([]*models.Ingredient, error)
	AddRecipeIngredient(ctx context.Context, recipeID string, ingredient models.RecipeIngredient) error
	ClearRecipeIngredients(ctx context.Context, recipeID string) error

	UserExists(ctx context.Context, userID string) (bool, error)
	LinkOwnership(ctx context.Context, userID, recipeID string) (bool, error)
	UnlinkOwnership(ctx context.Context, userID, recipeID string) (bool, error)
	HasOwnership(ctx context.Context, userID, recipeID string) (bool, error)
	CountOwnershipLinks(ctx context.Context, recipeID string) (int, error)
	ListOwnershipLinks(ctx context.Context, recipeID string) ([]models.OwnershipLink, error)
	ListUserRecipes(ctx context.Context, userID string) ([]*models.Recipe, error)

	AddFavoriteIngredient(ctx context.Context, userID, ingredientID string) (bool, error)
	RemoveFavoriteIngredient(ctx context.Context, userID, ingredientID string) (bool, error)
	ListFavoriteIngredients(ctx context.Context, userID string) ([]*models.Ingredient, error)

	Counts(ctx context.Context) (Counts, error)

	// WithTx runs fn in a transaction, committing when fn returns nil. Calls made on a
	// transactional store join the existing transaction.
	WithTx(ctx context.Context, fn func(tx CollectionStore) error) error
}

// Counts are row totals across the collection tables.
type Counts struct {
	Users       int `json:"users"`
	Recipes     int `json:"recipes"`
	Canonical   int `json:"canonical"`
	UserRecipes int `json:"user_recipes"`
	Ingredients int `json:"ingredients"`
	Links       int `json:"links"`
	Favorites   int `json:"favorites"`
}

// Store implements [CollectionStore] on a SQLite database.
type Store struct {
	db *sql.DB
	q  dbtx
	tx *sql.Tx
}

// NewStore creates a new [Store] with the given database connection
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx CollectionStore) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Store{db: s.db, q: tx, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Counts returns row totals. Soft-deleted users are excluded.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users WHERE deleted_at IS NULL),
			(SELECT COUNT(*) FROM recipes),
			(SELECT COUNT(*) FROM recipes WHERE external = 1),
			(SELECT COUNT(*) FROM recipes WHERE external = 0),
			(SELECT COUNT(*) FROM ingredients),
			(SELECT COUNT(*) FROM recipe_owners),
			(SELECT COUNT(*) FROM favorite_ingredients)
	`

	var c Counts
	err := s.q.QueryRowContext(ctx, query).Scan(&c.Users, &c.Recipes, &c.Canonical, &c.UserRecipes, &c.Ingredients, &c.Links, &c.Favorites)
	if err != nil {
		return Counts{}, fmt.Errorf("failed to count rows: %w", err)
	}
	return c, nil
}
