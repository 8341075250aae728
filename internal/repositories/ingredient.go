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

func scanIngredient(row scanner) (*models.Ingredient, error) {
	var (
		id, name  string
		sequence  int
		createdAt time.Time
	)
	if err := row.Scan(&id, &sequence, &name, &createdAt); err != nil {
		return nil, err
	}

	ingredient := models.NewIngredient(name)
	ingredient.SetID(id)
	ingredient.SetSequence(sequence)
	ingredient.SetCreatedAt(createdAt)
	ingredient.SetUpdatedAt(createdAt)
	return ingredient, nil
}

func (s *Store) queryIngredients(ctx context.Context, query string, args ...any) ([]*models.Ingredient, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredients: %w", err)
	}
	defer rows.Close()

	ingredients := []*models.Ingredient{}
	for rows.Next() {
		ingredient, err := scanIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		ingredients = append(ingredients, ingredient)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ingredients, nil
}

// FindIngredientByName looks up an ingredient by exact, case-sensitive name.
func (s *Store) FindIngredientByName(ctx context.Context, name string) (*models.Ingredient, error) {
	query := `SELECT id, sequence, name, created_at FROM ingredients WHERE name = ?`

	ingredient, err := scanIngredient(s.q.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find ingredient %q: %w", name, shared.ErrIngredientNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredient: %w", err)
	}
	return ingredient, nil
}

// UpsertIngredient returns the ingredient named name, creating it on first reference.
//
// A concurrent insert of the same name is not an error: the existing row is returned.
func (s *Store) UpsertIngredient(ctx context.Context, name string) (*models.Ingredient, error) {
	existing, err := s.FindIngredientByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, shared.ErrIngredientNotFound) {
		return nil, err
	}

	sequence, err := NextSequence(ctx, s.q, "ingredients")
	if err != nil {
		return nil, fmt.Errorf("failed to generate sequence: %w", err)
	}

	ingredient := models.NewIngredient(name)
	ingredient.SetID(shared.GenerateID())
	ingredient.SetSequence(sequence)

	if err := ingredient.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	_, err = s.q.ExecContext(ctx,
		"INSERT INTO ingredients (id, sequence, name, created_at) VALUES (?, ?, ?, ?)",
		ingredient.ID(), sequence, ingredient.Name, ingredient.CreatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return s.FindIngredientByName(ctx, name)
		}
		return nil, fmt.Errorf("failed to insert ingredient: %w", err)
	}

	return ingredient, nil
}

// ListIngredients returns every stored ingredient ordered by name.
func (s *Store) ListIngredients(ctx context.Context) ([]*models.Ingredient, error) {
	return s.queryIngredients(ctx, `SELECT id, sequence, name, created_at FROM ingredients ORDER BY name ASC`)
}

// AddRecipeIngredient inserts one quantity row for a recipe.
func (s *Store) AddRecipeIngredient(ctx context.Context, recipeID string, ingredient models.RecipeIngredient) error {
	query := `INSERT INTO recipe_ingredients (recipe_id, position, ingredient_id, quantity) VALUES (?, ?, ?, ?)`

	_, err := s.q.ExecContext(ctx, query, recipeID, ingredient.Position, ingredient.IngredientID, ingredient.Quantity)
	if err != nil {
		return fmt.Errorf("failed to add ingredient %q to recipe: %w", ingredient.IngredientName, err)
	}
	return nil
}

// ClearRecipeIngredients removes every quantity row of a recipe.
func (s *Store) ClearRecipeIngredients(ctx context.Context, recipeID string) error {
	if _, err := s.q.ExecContext(ctx, "DELETE FROM recipe_ingredients WHERE recipe_id = ?", recipeID); err != nil {
		return fmt.Errorf("failed to clear recipe ingredients: %w", err)
	}
	return nil
}

// AddFavoriteIngredient marks an ingredient as a user's favorite. It reports false when the
// favorite already existed.
func (s *Store) AddFavoriteIngredient(ctx context.Context, userID, ingredientID string) (bool, error) {
	query := `
		INSERT INTO favorite_ingredients (user_id, ingredient_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id, ingredient_id) DO NOTHING
	`

	result, err := s.q.ExecContext(ctx, query, userID, ingredientID, time.Now().UTC())
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, fmt.Errorf("add favorite: %w", shared.ErrInvalidInput)
		}
		return false, fmt.Errorf("failed to add favorite: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}

// RemoveFavoriteIngredient reports whether a favorite was removed.
func (s *Store) RemoveFavoriteIngredient(ctx context.Context, userID, ingredientID string) (bool, error) {
	result, err := s.q.ExecContext(ctx,
		"DELETE FROM favorite_ingredients WHERE user_id = ? AND ingredient_id = ?", userID, ingredientID)
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}

// ListFavoriteIngredients returns a user's favorite ingredients ordered by name.
func (s *Store) ListFavoriteIngredients(ctx context.Context, userID string) ([]*models.Ingredient, error) {
	query := `
		SELECT i.id, i.sequence, i.name, i.created_at
		FROM ingredients i
		JOIN favorite_ingredients f ON f.ingredient_id = i.id
		WHERE f.user_id = ?
		ORDER BY i.name ASC
	`
	return s.queryIngredients(ctx, query, userID)
}
