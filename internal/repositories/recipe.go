package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mixr/internal/models"
	"github.com/desertthunder/mixr/internal/shared"
)

const recipeColumns = `r.id, r.sequence, r.name, r.instructions, r.thumbnail_kind, r.thumbnail_ref,
	r.external, r.external_id, r.forked_from, r.created_at, r.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row scanner) (*models.Recipe, error) {
	var (
		id, name, instructions, thumbRef, externalID string
		sequence, thumbKind                          int
		external                                     bool
		forkedFrom                                   sql.NullString
		createdAt, updatedAt                         time.Time
	)

	err := row.Scan(&id, &sequence, &name, &instructions, &thumbKind, &thumbRef, &external, &externalID, &forkedFrom, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	recipe := models.NewRecipe(name, instructions, models.Thumbnail{Kind: models.ThumbnailKind(thumbKind), Ref: thumbRef})
	recipe.SetID(id)
	recipe.SetSequence(sequence)
	recipe.SetCreatedAt(createdAt)
	recipe.SetUpdatedAt(updatedAt)
	recipe.External = external
	recipe.ExternalID = externalID
	recipe.ForkedFrom = forkedFrom.String

	return recipe, nil
}

// queryRecipes runs query, closes the rows, then loads each recipe's ingredients.
func (s *Store) queryRecipes(ctx context.Context, query string, args ...any) ([]*models.Recipe, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}

	recipes := []*models.Recipe{}
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	for _, recipe := range recipes {
		if err := s.loadIngredients(ctx, recipe); err != nil {
			return nil, err
		}
	}

	return recipes, nil
}

func (s *Store) queryRecipe(ctx context.Context, query string, args ...any) (*models.Recipe, error) {
	recipe, err := scanRecipe(s.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrRecipeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe: %w", err)
	}

	if err := s.loadIngredients(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (s *Store) loadIngredients(ctx context.Context, recipe *models.Recipe) error {
	query := `
		SELECT ri.position, ri.ingredient_id, i.name, ri.quantity
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = ?
		ORDER BY ri.position ASC
	`

	rows, err := s.q.QueryContext(ctx, query, recipe.ID())
	if err != nil {
		return fmt.Errorf("failed to query recipe ingredients: %w", err)
	}
	defer rows.Close()

	recipe.Ingredients = []models.RecipeIngredient{}
	for rows.Next() {
		var ri models.RecipeIngredient
		if err := rows.Scan(&ri.Position, &ri.IngredientID, &ri.IngredientName, &ri.Quantity); err != nil {
			return fmt.Errorf("failed to scan recipe ingredient: %w", err)
		}
		recipe.Ingredients = append(recipe.Ingredients, ri)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	return nil
}

// FindRecipeByName returns the canonical recipe named name when external is true. Otherwise it
// returns the oldest non-canonical recipe with that name.
func (s *Store) FindRecipeByName(ctx context.Context, name string, external bool) (*models.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes r
		WHERE r.name = ? AND r.external = ?
		ORDER BY r.sequence ASC LIMIT 1`

	recipe, err := s.queryRecipe(ctx, query, name, boolInt(external))
	if err != nil {
		return nil, fmt.Errorf("find recipe %q: %w", name, err)
	}
	return recipe, nil
}

// GetRecipe retrieves a recipe and its ingredients by ID
func (s *Store) GetRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes r WHERE r.id = ?`

	recipe, err := s.queryRecipe(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get recipe %s: %w", id, err)
	}
	return recipe, nil
}

// FindFork returns the user's private copy of a canonical recipe.
func (s *Store) FindFork(ctx context.Context, userID, canonicalID string) (*models.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes r
		JOIN recipe_owners o ON o.recipe_id = r.id
		WHERE o.user_id = ? AND r.forked_from = ? AND r.external = 0
		ORDER BY r.sequence ASC LIMIT 1`

	recipe, err := s.queryRecipe(ctx, query, userID, canonicalID)
	if err != nil {
		return nil, fmt.Errorf("find fork of %s: %w", canonicalID, err)
	}
	return recipe, nil
}

// CreateRecipe inserts the recipe row with a generated ID and sequence. Ingredients are added
// separately with [Store.AddRecipeIngredient].
func (s *Store) CreateRecipe(ctx context.Context, recipe *models.Recipe) error {
	sequence, err := NextSequence(ctx, s.q, "recipes")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	recipe.SetID(shared.GenerateID())
	recipe.SetSequence(sequence)

	if err := recipe.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO recipes (id, sequence, name, instructions, thumbnail_kind, thumbnail_ref,
			external, external_id, forked_from, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.q.ExecContext(ctx, query,
		recipe.ID(), sequence, recipe.Name, recipe.Instructions,
		int(recipe.Thumbnail.Kind), recipe.Thumbnail.Ref,
		boolInt(recipe.External), recipe.ExternalID, nullString(recipe.ForkedFrom),
		recipe.CreatedAt(), recipe.UpdatedAt(),
	)
	if err != nil {
		if recipe.External && isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", shared.ErrDuplicateRecipe, recipe.Name)
		}
		return fmt.Errorf("failed to insert recipe: %w", err)
	}

	return nil
}

// UpdateRecipe saves the editable fields of a recipe. Ingredients are not touched.
func (s *Store) UpdateRecipe(ctx context.Context, recipe *models.Recipe) error {
	if err := recipe.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	now := time.Now().UTC()

	query := `
		UPDATE recipes
		SET name = ?, instructions = ?, thumbnail_kind = ?, thumbnail_ref = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.q.ExecContext(ctx, query,
		recipe.Name, recipe.Instructions, int(recipe.Thumbnail.Kind), recipe.Thumbnail.Ref, now, recipe.ID())
	if err != nil {
		if recipe.External && isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", shared.ErrDuplicateRecipe, recipe.Name)
		}
		return fmt.Errorf("failed to update recipe: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update recipe %s: %w", recipe.ID(), shared.ErrRecipeNotFound)
	}

	recipe.SetUpdatedAt(now)
	return nil
}

// DeleteRecipe removes a recipe. Its ingredient rows and ownership links cascade; shared
// ingredients remain.
func (s *Store) DeleteRecipe(ctx context.Context, id string) error {
	result, err := s.q.ExecContext(ctx, "DELETE FROM recipes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete recipe %s: %w", id, shared.ErrRecipeNotFound)
	}
	return nil
}

// ListRecipes retrieves recipes matching the given criteria, ordered by name.
//
// Supported criteria: "external" (bool), "name" (string), "forked_from" (string).
func (s *Store) ListRecipes(ctx context.Context, criteria map[string]any) ([]*models.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes r WHERE 1 = 1`
	args := []any{}

	if external, ok := criteria["external"].(bool); ok {
		query += " AND r.external = ?"
		args = append(args, boolInt(external))
	}
	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " AND r.name = ?"
		args = append(args, name)
	}
	if forkedFrom, ok := criteria["forked_from"].(string); ok && forkedFrom != "" {
		query += " AND r.forked_from = ?"
		args = append(args, forkedFrom)
	}

	query += " ORDER BY r.name ASC, r.sequence ASC"

	return s.queryRecipes(ctx, query, args...)
}
