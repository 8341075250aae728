package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/mixr/internal/models"
	"github.com/desertthunder/mixr/internal/shared"
)

// UserExists reports whether a user exists and is not soft-deleted.
func (s *Store) UserExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE id = ? AND deleted_at IS NULL)", userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return exists, nil
}

// LinkOwnership adds a recipe to a user's collection. It reports false when the link already
// existed.
func (s *Store) LinkOwnership(ctx context.Context, userID, recipeID string) (bool, error) {
	query := `
		INSERT INTO recipe_owners (user_id, recipe_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id, recipe_id) DO NOTHING
	`

	result, err := s.q.ExecContext(ctx, query, userID, recipeID, time.Now().UTC())
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, fmt.Errorf("link %s to %s: %w", recipeID, userID, shared.ErrInvalidInput)
		}
		return false, fmt.Errorf("failed to link recipe: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}

// UnlinkOwnership removes a recipe from a user's collection and reports whether a link existed.
func (s *Store) UnlinkOwnership(ctx context.Context, userID, recipeID string) (bool, error) {
	result, err := s.q.ExecContext(ctx,
		"DELETE FROM recipe_owners WHERE user_id = ? AND recipe_id = ?", userID, recipeID)
	if err != nil {
		return false, fmt.Errorf("failed to unlink recipe: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}

func (s *Store) HasOwnership(ctx context.Context, userID, recipeID string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM recipe_owners WHERE user_id = ? AND recipe_id = ?)", userID, recipeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check ownership: %w", err)
	}
	return exists, nil
}

// CountOwnershipLinks returns how many users have the recipe in their collection.
func (s *Store) CountOwnershipLinks(ctx context.Context, recipeID string) (int, error) {
	var count int
	err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM recipe_owners WHERE recipe_id = ?", recipeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ownership links: %w", err)
	}
	return count, nil
}

// ListOwnershipLinks returns the collections holding a recipe, oldest link first.
func (s *Store) ListOwnershipLinks(ctx context.Context, recipeID string) ([]models.OwnershipLink, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT user_id, recipe_id, created_at FROM recipe_owners WHERE recipe_id = ? ORDER BY created_at ASC, user_id ASC",
		recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ownership links: %w", err)
	}
	defer rows.Close()

	links := []models.OwnershipLink{}
	for rows.Next() {
		var link models.OwnershipLink
		if err := rows.Scan(&link.UserID, &link.RecipeID, &link.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ownership link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return links, nil
}

// ListUserRecipes returns the recipes in a user's collection ordered by name.
func (s *Store) ListUserRecipes(ctx context.Context, userID string) ([]*models.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes r
		JOIN recipe_owners o ON o.recipe_id = r.id
		WHERE o.user_id = ?
		ORDER BY r.name ASC, r.sequence ASC`

	return s.queryRecipes(ctx, query, userID)
}
