package collection

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/mixr/internal/models"
	"github.com/desertthunder/mixr/internal/repositories"
	"github.com/desertthunder/mixr/internal/shared"
)

// AddFavoriteIngredient marks an ingredient, created if needed, as one of the user's favorites.
func (m *Manager) AddFavoriteIngredient(ctx context.Context, userID, name string) (*models.Ingredient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: ingredient name is required", shared.ErrInvalidInput)
	}

	var ingredient *models.Ingredient
	err := m.inTx(ctx, "favorite", func(tx repositories.CollectionStore) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}

		var err error
		ingredient, err = tx.UpsertIngredient(ctx, name)
		if err != nil {
			return err
		}

		_, err = tx.AddFavoriteIngredient(ctx, userID, ingredient.ID())
		return err
	})
	if err != nil {
		return nil, err
	}
	return ingredient, nil
}

// RemoveFavoriteIngredient drops an ingredient from the user's favorites.
func (m *Manager) RemoveFavoriteIngredient(ctx context.Context, userID, name string) error {
	return m.inTx(ctx, "unfavorite", func(tx repositories.CollectionStore) error {
		ingredient, err := tx.FindIngredientByName(ctx, strings.TrimSpace(name))
		if err != nil {
			return err
		}

		removed, err := tx.RemoveFavoriteIngredient(ctx, userID, ingredient.ID())
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%w: %q is not a favorite", shared.ErrIngredientNotFound, name)
		}
		return nil
	})
}

// ListFavoriteIngredients returns the user's favorites ordered by name.
func (m *Manager) ListFavoriteIngredients(ctx context.Context, userID string) ([]*models.Ingredient, error) {
	if err := requireUser(ctx, m.store, userID); err != nil {
		return nil, err
	}
	return m.store.ListFavoriteIngredients(ctx, userID)
}
