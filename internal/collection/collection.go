package collection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mixr/internal/models"
	"github.com/desertthunder/mixr/internal/repositories"
	"github.com/desertthunder/mixr/internal/shared"
	"github.com/desertthunder/mixr/internal/tasks"
)

// RecipeSource looks up full external recipe records.
type RecipeSource interface {
	LookupByID(ctx context.Context, id string) (*models.RecipeDetail, bool)
}

// CatalogFetcher produces the merged external catalog.
type CatalogFetcher interface {
	FetchCatalog(ctx context.Context, progress chan<- tasks.ProgressUpdate, opts tasks.FetchOpts) []models.CatalogEntry
}

// Stats are the admin counters.
type Stats = repositories.Counts

// RecipeDraft is a user-authored recipe.
type RecipeDraft struct {
	Name         string
	Instructions string
	Image        string // Uploaded image filename, optional
	Ingredients  []models.IngredientMeasure
}

// RecipeEdit holds the fields to change. Nil fields are left as they are; a non-nil
// Ingredients slice replaces the whole ingredient list.
type RecipeEdit struct {
	Name         *string
	Instructions *string
	Thumbnail    *models.Thumbnail
	Ingredients  []models.IngredientMeasure
}

// ManagerOpts configures a [Manager].
type ManagerOpts struct {
	Store     repositories.CollectionStore
	Source    RecipeSource
	Catalog   CatalogFetcher
	FetchOpts tasks.FetchOpts
	Logger    *log.Logger
}

// Manager implements the catalog merge and collection operations.
type Manager struct {
	store     repositories.CollectionStore
	source    RecipeSource
	catalog   CatalogFetcher
	fetchOpts tasks.FetchOpts
	logger    *log.Logger
}

// NewManager creates a [Manager]. Store is required; Source and Catalog are only needed by
// the operations that reach the external API.
func NewManager(opts ManagerOpts) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	return &Manager{
		store:     opts.Store,
		source:    opts.Source,
		catalog:   opts.Catalog,
		fetchOpts: opts.FetchOpts,
		logger:    shared.WithLogger(logger, "component", "collection"),
	}
}

// SetFetchOpts replaces the options [Manager.Browse] passes to the catalog fetcher.
// It must not be called while a Browse is running.
func (m *Manager) SetFetchOpts(opts tasks.FetchOpts) {
	m.fetchOpts = opts
}

// businessErrors pass through [Manager.fail] untouched.
var businessErrors = []error{
	shared.ErrRecipeNotFound,
	shared.ErrIngredientNotFound,
	shared.ErrUserNotFound,
	shared.ErrNotOwner,
	shared.ErrRecipeInUse,
	shared.ErrInvalidInput,
	shared.ErrServiceUnavailable,
}

// fail maps a rolled-back operation's error to what callers see.
func (m *Manager) fail(op string, err error) error {
	for _, sentinel := range businessErrors {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	m.logger.Error("operation rolled back", "op", op, "error", err)
	return fmt.Errorf("%w: %s: %w", shared.ErrPersistence, op, err)
}

// inTx runs fn in a transaction, retrying once when a canonical insert lost a race.
func (m *Manager) inTx(ctx context.Context, op string, fn func(tx repositories.CollectionStore) error) error {
	err := m.store.WithTx(ctx, fn)
	if errors.Is(err, shared.ErrDuplicateRecipe) {
		m.logger.Debug("canonical recipe created concurrently, retrying", "op", op, "error", err)
		err = m.store.WithTx(ctx, fn)
	}
	if err != nil {
		return m.fail(op, err)
	}
	return nil
}

func requireUser(ctx context.Context, store repositories.CollectionStore, userID string) error {
	exists, err := store.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", shared.ErrUserNotFound, userID)
	}
	return nil
}

// cleanPairs trims ingredient pairs and drops any with an empty name or measure.
func cleanPairs(pairs []models.IngredientMeasure) []models.IngredientMeasure {
	cleaned := make([]models.IngredientMeasure, 0, len(pairs))
	for _, p := range pairs {
		name, measure := strings.TrimSpace(p.Name), strings.TrimSpace(p.Measure)
		if name == "" || measure == "" {
			continue
		}
		cleaned = append(cleaned, models.IngredientMeasure{Name: name, Measure: measure})
	}
	return cleaned
}

// addIngredients resolves each pair to a shared ingredient and appends quantity rows to recipe.
// Pairs with an empty name are skipped; positions are contiguous from 1.
func addIngredients(ctx context.Context, tx repositories.CollectionStore, recipe *models.Recipe, pairs []models.IngredientMeasure) error {
	recipe.Ingredients = []models.RecipeIngredient{}

	for _, p := range pairs {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}

		ingredient, err := tx.UpsertIngredient(ctx, name)
		if err != nil {
			return err
		}

		ri := models.RecipeIngredient{
			Position:       len(recipe.Ingredients) + 1,
			IngredientID:   ingredient.ID(),
			IngredientName: ingredient.Name,
			Quantity:       strings.TrimSpace(p.Measure),
		}
		if err := tx.AddRecipeIngredient(ctx, recipe.ID(), ri); err != nil {
			return err
		}
		recipe.Ingredients = append(recipe.Ingredients, ri)
	}

	return nil
}

// Recipe returns a stored recipe with its ingredients.
func (m *Manager) Recipe(ctx context.Context, recipeID string) (*models.Recipe, error) {
	return m.store.GetRecipe(ctx, recipeID)
}

// Stats returns the admin counters.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	return m.store.Counts(ctx)
}
