package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixr/internal/formatter"
	"github.com/desertthunder/mixr/internal/models"
	"github.com/desertthunder/mixr/internal/shared"
	"github.com/desertthunder/mixr/internal/ui"
)

// CatalogList fetches the combined catalog and prints it as a table.
func (r *Runner) CatalogList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	opts := r.fetchOpts()
	if n := cmd.Int("concurrency"); n > 0 {
		opts.Concurrency = n
	}
	if cmd.IsSet("rate-limit") {
		opts.RateLimit = cmd.Float("rate-limit")
	}
	r.manager.SetFetchOpts(opts)

	var userID string
	if name := cmd.String("user"); name != "" {
		user, err := r.resolveUser(ctx, name)
		if err != nil {
			return err
		}
		userID = user.ID()
	}

	useJSON := cmd.Bool("json")
	progress, stop := r.watchProgress(useJSON)
	items, err := r.manager.Browse(ctx, userID, progress)
	stop()
	if err != nil {
		return err
	}

	if path := cmd.String("csv"); path != "" {
		data, err := formatter.CatalogToCSV(items)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write CSV file: %w", err)
		}
		r.logger.Info("catalog written", "path", path, "items", len(items))
	}

	if useJSON {
		return r.writeJSON(items, true)
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.Name, string(item.Source), item.ExternalID, item.RecipeID})
	}

	r.writePlainHeader(fmt.Sprintf("Catalog (%d recipes)", len(items)))
	r.writePlain("%s\n", formatter.RenderTable([]string{"Name", "Source", "External ID", "Stored"}, rows))
	return nil
}

// CatalogShow prints an external recipe.
func (r *Runner) CatalogShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}

	detail, ok := r.source.LookupByID(ctx, id)
	if !ok {
		return fmt.Errorf("%w: external id %s", shared.ErrRecipeNotFound, id)
	}
	return r.writeDetail(detail, cmd.Bool("json"))
}

// CatalogRandom prints a random external recipe.
func (r *Runner) CatalogRandom(ctx context.Context, cmd *cli.Command) error {
	detail, ok := r.source.Random(ctx)
	if !ok {
		return fmt.Errorf("%w: no random recipe returned", shared.ErrServiceUnavailable)
	}
	return r.writeDetail(detail, cmd.Bool("json"))
}

// CatalogSearch lists external recipes matching a name.
func (r *Runner) CatalogSearch(ctx context.Context, cmd *cli.Command) error {
	name := strings.TrimSpace(cmd.StringArg("name"))
	if name == "" {
		return fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}

	entries := r.source.SearchByName(ctx, name)
	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}
	if len(entries) == 0 {
		r.writePlain("%s\n", ui.Warn(fmt.Sprintf("No recipes match %q", name)))
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.ExternalID, e.Name})
	}
	r.writePlain("%s\n", formatter.RenderTable([]string{"ID", "Name"}, rows))
	return nil
}

// CatalogIngredients lists ingredient names known to the recipe API.
func (r *Runner) CatalogIngredients(ctx context.Context, cmd *cli.Command) error {
	names := r.source.ListIngredientNames(ctx)
	if cmd.Bool("json") {
		return r.writeJSON(names, true)
	}

	r.writePlainHeader(fmt.Sprintf("Ingredients (%d)", len(names)))
	for _, name := range names {
		r.writePlain("%s\n", name)
	}
	return nil
}

// CatalogForget deletes a canonical recipe with no remaining links.
func (r *Runner) CatalogForget(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("recipe")
	if id == "" {
		return fmt.Errorf("%w: recipe", shared.ErrMissingArgument)
	}
	if err := r.open(); err != nil {
		return err
	}

	if err := r.manager.DeleteCanonicalRecipe(ctx, id); err != nil {
		return err
	}
	r.writePlain("%s deleted %s\n", ui.OK("✓"), id)
	return nil
}

func (r *Runner) writeDetail(detail *models.RecipeDetail, useJSON bool) error {
	if useJSON {
		return r.writeJSON(detail, true)
	}

	r.writePlainHeader(detail.Name)
	r.writePlain("ID: %s\n", detail.ExternalID)
	for _, field := range [][2]string{
		{"Category", detail.Category},
		{"Alcoholic", detail.Alcoholic},
		{"Glass", detail.Glass},
		{"Thumbnail", detail.Thumbnail},
	} {
		if field[1] != "" {
			r.writePlain("%s: %s\n", field[0], field[1])
		}
	}

	rows := make([][]string, 0, len(detail.Ingredients))
	for i, ing := range detail.Ingredients {
		rows = append(rows, []string{strconv.Itoa(i + 1), ing.Name, ing.Measure})
	}
	if len(rows) > 0 {
		r.writePlain("\n%s\n", formatter.RenderTable([]string{"#", "Ingredient", "Measure"}, rows, 0))
	}
	if detail.Instructions != "" {
		r.writePlainln("%s", detail.Instructions)
	}
	return nil
}
