package collection

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/mixr/internal/models"
	"github.com/desertthunder/mixr/internal/shared"
	"github.com/desertthunder/mixr/internal/tasks"
)

// Browse returns the combined catalog: every external recipe, annotated with its canonical
// row when one is stored, followed by the user's own originals and forks, all sorted by name.
//
// An empty userID browses the external catalog only. A failed or partial external fetch only
// shortens the list.
func (m *Manager) Browse(ctx context.Context, userID string, progress chan<- tasks.ProgressUpdate) ([]models.CatalogItem, error) {
	if m.catalog == nil {
		return nil, fmt.Errorf("%w: no catalog fetcher configured", shared.ErrServiceUnavailable)
	}

	var own []*models.Recipe
	if userID != "" {
		recipes, err := m.ListUserRecipes(ctx, userID)
		if err != nil {
			return nil, err
		}
		own = recipes
	}

	entries := m.catalog.FetchCatalog(ctx, progress, m.fetchOpts)

	canonical, err := m.store.ListRecipes(ctx, map[string]any{"external": true})
	if err != nil {
		return nil, fmt.Errorf("%w: list canonical recipes: %w", shared.ErrPersistence, err)
	}
	stored := make(map[string]string, len(canonical))
	for _, r := range canonical {
		stored[r.Name] = r.ID()
	}

	items := make([]models.CatalogItem, 0, len(entries)+len(own))
	for _, e := range entries {
		items = append(items, models.CatalogItem{
			ExternalID: e.ExternalID,
			Name:       e.Name,
			RecipeID:   stored[e.Name],
			Source:     models.SourceExternal,
		})
	}

	local := 0
	for _, r := range own {
		if r.IsCanonical() {
			continue
		}
		items = append(items, models.CatalogItem{
			ExternalID: r.ExternalID,
			Name:       r.Name,
			RecipeID:   r.ID(),
			Source:     models.SourceLocal,
		})
		local++
	}

	slices.SortStableFunc(items, func(a, b models.CatalogItem) int {
		return cmp.Compare(a.Name, b.Name)
	})

	tasks.SendProgress(progress, tasks.LocalMergedUpdate(len(entries), local))
	return items, nil
}
