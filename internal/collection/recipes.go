package collection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/mixr/internal/models"
	"github.com/desertthunder/mixr/internal/repositories"
	"github.com/desertthunder/mixr/internal/shared"
)

// MaterializeExternalRecipe returns the canonical recipe for detail, creating it with its
// ingredients on first sight. Calling it again with the same detail writes nothing.
func (m *Manager) MaterializeExternalRecipe(ctx context.Context, detail models.RecipeDetail) (*models.Recipe, error) {
	var recipe *models.Recipe
	err := m.inTx(ctx, "materialize", func(tx repositories.CollectionStore) error {
		r, err := m.materialize(ctx, tx, detail)
		recipe = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

func (m *Manager) materialize(ctx context.Context, tx repositories.CollectionStore, detail models.RecipeDetail) (*models.Recipe, error) {
	name := strings.TrimSpace(detail.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: external recipe %q has no name", shared.ErrInvalidInput, detail.ExternalID)
	}

	existing, err := tx.FindRecipeByName(ctx, name, true)
	if err == nil {
		m.logger.Debug("reusing canonical recipe", "name", name, "id", existing.ID())
		return existing, nil
	}
	if !errors.Is(err, shared.ErrRecipeNotFound) {
		return nil, err
	}

	recipe := models.NewCanonicalRecipe(detail)
	if err := tx.CreateRecipe(ctx, recipe); err != nil {
		return nil, err
	}

	slots := detail.Ingredients
	if len(slots) > models.MaxIngredientSlots {
		slots = slots[:models.MaxIngredientSlots]
	}
	if err := addIngredients(ctx, tx, recipe, slots); err != nil {
		return nil, err
	}

	m.logger.Info("materialized canonical recipe", "name", name, "external_id", detail.ExternalID, "ingredients", len(recipe.Ingredients))
	return recipe, nil
}

// LinkUserToRecipe adds a stored recipe to a user's collection. Linking twice is not an error.
func (m *Manager) LinkUserToRecipe(ctx context.Context, userID, recipeID string) error {
	return m.inTx(ctx, "link", func(tx repositories.CollectionStore) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		if _, err := tx.GetRecipe(ctx, recipeID); err != nil {
			return err
		}
		_, err := tx.LinkOwnership(ctx, userID, recipeID)
		return err
	})
}

// AddExternalRecipe looks up an external recipe and adds it to the user's collection,
// materializing the canonical copy if needed. The materialization and the link commit together.
//
// When the user already has a private fork of that recipe, the fork is returned and no link
// to the canonical copy is added.
func (m *Manager) AddExternalRecipe(ctx context.Context, userID, externalID string) (*models.Recipe, error) {
	if m.source == nil {
		return nil, fmt.Errorf("%w: no recipe source configured", shared.ErrServiceUnavailable)
	}

	if err := requireUser(ctx, m.store, userID); err != nil {
		return nil, err
	}

	detail, ok := m.source.LookupByID(ctx, externalID)
	if !ok {
		return nil, fmt.Errorf("%w: external id %s", shared.ErrRecipeNotFound, externalID)
	}

	var recipe *models.Recipe
	err := m.inTx(ctx, "add", func(tx repositories.CollectionStore) error {
		canonical, err := m.materialize(ctx, tx, *detail)
		if err != nil {
			return err
		}

		fork, err := tx.FindFork(ctx, userID, canonical.ID())
		if err == nil {
			recipe = fork
			return nil
		}
		if !errors.Is(err, shared.ErrRecipeNotFound) {
			return err
		}

		if _, err := tx.LinkOwnership(ctx, userID, canonical.ID()); err != nil {
			return err
		}
		recipe = canonical
		return nil
	})
	if err != nil {
		return nil, err
	}

	return recipe, nil
}

// ForkForEditing returns the user's editable copy of a recipe.
//
// A non-canonical recipe in the user's collection is returned as is. For a canonical recipe the
// user's existing fork is reused, or a new one is created with copies of every field and
// ingredient row; the user's link moves from the canonical recipe to the fork. The canonical
// recipe is never modified.
func (m *Manager) ForkForEditing(ctx context.Context, recipeID, userID string) (*models.Recipe, error) {
	var fork *models.Recipe
	err := m.inTx(ctx, "fork", func(tx repositories.CollectionStore) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}

		recipe, err := tx.GetRecipe(ctx, recipeID)
		if err != nil {
			return err
		}

		fork, err = m.editable(ctx, tx, userID, recipe)
		return err
	})
	if err != nil {
		return nil, err
	}
	return fork, nil
}

func (m *Manager) editable(ctx context.Context, tx repositories.CollectionStore, userID string, recipe *models.Recipe) (*models.Recipe, error) {
	if !recipe.IsCanonical() {
		owned, err := tx.HasOwnership(ctx, userID, recipe.ID())
		if err != nil {
			return nil, err
		}
		if !owned {
			return nil, fmt.Errorf("%w: %s", shared.ErrNotOwner, recipe.ID())
		}
		return recipe, nil
	}

	if _, err := tx.UnlinkOwnership(ctx, userID, recipe.ID()); err != nil {
		return nil, err
	}

	existing, err := tx.FindFork(ctx, userID, recipe.ID())
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, shared.ErrRecipeNotFound) {
		return nil, err
	}

	fork := recipe.Fork()
	if err := tx.CreateRecipe(ctx, fork); err != nil {
		return nil, err
	}
	for _, ri := range fork.Ingredients {
		if err := tx.AddRecipeIngredient(ctx, fork.ID(), ri); err != nil {
			return nil, err
		}
	}
	if _, err := tx.LinkOwnership(ctx, userID, fork.ID()); err != nil {
		return nil, err
	}

	m.logger.Info("forked canonical recipe", "name", recipe.Name, "canonical", recipe.ID(), "fork", fork.ID(), "user", userID)
	return fork, nil
}

// EditRecipe applies edit to the user's copy of a recipe, forking canonical recipes first.
func (m *Manager) EditRecipe(ctx context.Context, userID, recipeID string, edit RecipeEdit) (*models.Recipe, error) {
	var edited *models.Recipe
	err := m.inTx(ctx, "edit", func(tx repositories.CollectionStore) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}

		recipe, err := tx.GetRecipe(ctx, recipeID)
		if err != nil {
			return err
		}

		target, err := m.editable(ctx, tx, userID, recipe)
		if err != nil {
			return err
		}

		if edit.Name != nil {
			target.Name = strings.TrimSpace(*edit.Name)
		}
		if edit.Instructions != nil {
			target.Instructions = *edit.Instructions
		}
		if edit.Thumbnail != nil {
			target.Thumbnail = *edit.Thumbnail
		}
		if err := tx.UpdateRecipe(ctx, target); err != nil {
			return err
		}

		if edit.Ingredients != nil {
			if err := tx.ClearRecipeIngredients(ctx, target.ID()); err != nil {
				return err
			}
			if err := addIngredients(ctx, tx, target, cleanPairs(edit.Ingredients)); err != nil {
				return err
			}
		}

		edited, err = tx.GetRecipe(ctx, target.ID())
		return err
	})
	if err != nil {
		return nil, err
	}
	return edited, nil
}

// DeleteUserCopy removes a recipe from the user's collection. A non-canonical recipe that is no
// longer in any collection is deleted along with its ingredient rows. Canonical recipes are
// never deleted here.
func (m *Manager) DeleteUserCopy(ctx context.Context, userID, recipeID string) error {
	return m.inTx(ctx, "delete", func(tx repositories.CollectionStore) error {
		recipe, err := tx.GetRecipe(ctx, recipeID)
		if err != nil {
			return err
		}

		removed, err := tx.UnlinkOwnership(ctx, userID, recipeID)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%w: %s", shared.ErrNotOwner, recipeID)
		}

		if recipe.IsCanonical() {
			return nil
		}

		remaining, err := tx.CountOwnershipLinks(ctx, recipeID)
		if err != nil {
			return err
		}
		if remaining > 0 {
			return nil
		}

		m.logger.Info("deleting unowned recipe", "name", recipe.Name, "id", recipeID)
		return tx.DeleteRecipe(ctx, recipeID)
	})
}

// DeleteCanonicalRecipe removes a canonical recipe that no user has in their collection.
func (m *Manager) DeleteCanonicalRecipe(ctx context.Context, recipeID string) error {
	return m.inTx(ctx, "delete canonical", func(tx repositories.CollectionStore) error {
		recipe, err := tx.GetRecipe(ctx, recipeID)
		if err != nil {
			return err
		}
		if !recipe.IsCanonical() {
			return fmt.Errorf("%w: %s is not a canonical recipe", shared.ErrInvalidInput, recipeID)
		}

		links, err := tx.ListOwnershipLinks(ctx, recipeID)
		if err != nil {
			return err
		}
		if len(links) > 0 {
			holders := make([]string, 0, len(links))
			for _, link := range links {
				holders = append(holders, link.UserID)
			}
			m.logger.Debug("canonical recipe still linked", "name", recipe.Name, "users", holders)
			return fmt.Errorf("%w: %s has %d links, oldest from %s", shared.ErrRecipeInUse,
				recipe.Name, len(links), links[0].CreatedAt.Format(time.RFC3339))
		}

		return tx.DeleteRecipe(ctx, recipeID)
	})
}

// CreateOriginalRecipe stores a user-authored recipe in the user's collection. Ingredient pairs
// missing a name or a measure are dropped.
func (m *Manager) CreateOriginalRecipe(ctx context.Context, userID string, draft RecipeDraft) (*models.Recipe, error) {
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: recipe name is required", shared.ErrInvalidInput)
	}

	var recipe *models.Recipe
	err := m.inTx(ctx, "create", func(tx repositories.CollectionStore) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}

		recipe = models.NewRecipe(name, draft.Instructions, models.UploadThumbnail(draft.Image))
		if err := tx.CreateRecipe(ctx, recipe); err != nil {
			return err
		}
		if err := addIngredients(ctx, tx, recipe, cleanPairs(draft.Ingredients)); err != nil {
			return err
		}

		_, err := tx.LinkOwnership(ctx, userID, recipe.ID())
		return err
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// ListUserRecipes returns the user's collection ordered by name.
func (m *Manager) ListUserRecipes(ctx context.Context, userID string) ([]*models.Recipe, error) {
	if err := requireUser(ctx, m.store, userID); err != nil {
		return nil, err
	}
	return m.store.ListUserRecipes(ctx, userID)
}
