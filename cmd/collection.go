package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixr/internal/collection"
	"github.com/desertthunder/mixr/internal/formatter"
	"github.com/desertthunder/mixr/internal/models"
	"github.com/desertthunder/mixr/internal/shared"
	"github.com/desertthunder/mixr/internal/ui"
)

// parseIngredients reads "name=measure" pairs. A pair without "=" has an empty measure.
func parseIngredients(values []string) []models.IngredientMeasure {
	pairs := make([]models.IngredientMeasure, 0, len(values))
	for _, v := range values {
		name, measure, _ := strings.Cut(v, "=")
		pairs = append(pairs, models.IngredientMeasure{
			Name:    strings.TrimSpace(name),
			Measure: strings.TrimSpace(measure),
		})
	}
	return pairs
}

func (r *Runner) userAndRecipe(ctx context.Context, cmd *cli.Command) (*models.User, string, error) {
	user, err := r.resolveUser(ctx, cmd.StringArg("user"))
	if err != nil {
		return nil, "", err
	}
	recipeID := cmd.StringArg("recipe")
	if recipeID == "" {
		return nil, "", fmt.Errorf("%w: recipe", shared.ErrMissingArgument)
	}
	return user, recipeID, nil
}

// CollectionAdd adds an external recipe to a user's collection.
func (r *Runner) CollectionAdd(ctx context.Context, cmd *cli.Command) error {
	user, err := r.resolveUser(ctx, cmd.StringArg("user"))
	if err != nil {
		return err
	}
	externalID := cmd.StringArg("id")
	if externalID == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}

	recipe, err := r.manager.AddExternalRecipe(ctx, user.ID(), externalID)
	if err != nil {
		return err
	}
	return r.writeRecipeResult(fmt.Sprintf("added %s to %s's collection", recipe.Name, user.Name()), recipe, cmd.Bool("json"))
}

// CollectionList prints a user's collection.
func (r *Runner) CollectionList(ctx context.Context, cmd *cli.Command) error {
	user, err := r.resolveUser(ctx, cmd.StringArg("user"))
	if err != nil {
		return err
	}

	recipes, err := r.manager.ListUserRecipes(ctx, user.ID())
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(recipes, true)
	}

	rows := make([][]string, 0, len(recipes))
	for _, recipe := range recipes {
		rows = append(rows, []string{
			recipe.ID(), recipe.Name, formatter.RecipeKind(recipe), strconv.Itoa(len(recipe.Ingredients)),
		})
	}

	r.writePlainHeader(fmt.Sprintf("%s's collection (%d recipes)", user.Name(), len(recipes)))
	r.writePlain("%s\n", formatter.RenderTable([]string{"ID", "Name", "Kind", "Ingredients"}, rows, 3))
	return nil
}

// CollectionShow prints a stored recipe.
func (r *Runner) CollectionShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("recipe")
	if id == "" {
		return fmt.Errorf("%w: recipe", shared.ErrMissingArgument)
	}
	if err := r.open(); err != nil {
		return err
	}

	recipe, err := r.manager.Recipe(ctx, id)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(recipe, true)
	}
	r.writeRecipe(recipe)
	return nil
}

// CollectionFork makes a private copy of a canonical recipe.
func (r *Runner) CollectionFork(ctx context.Context, cmd *cli.Command) error {
	user, recipeID, err := r.userAndRecipe(ctx, cmd)
	if err != nil {
		return err
	}

	fork, err := r.manager.ForkForEditing(ctx, recipeID, user.ID())
	if err != nil {
		return err
	}
	return r.writeRecipeResult(fmt.Sprintf("%s can now edit %s (%s)", user.Name(), fork.Name, fork.ID()), fork, cmd.Bool("json"))
}

// CollectionEdit applies the given flags to a user's copy of a recipe.
func (r *Runner) CollectionEdit(ctx context.Context, cmd *cli.Command) error {
	user, recipeID, err := r.userAndRecipe(ctx, cmd)
	if err != nil {
		return err
	}

	var edit collection.RecipeEdit
	if cmd.IsSet("name") {
		name := cmd.String("name")
		edit.Name = &name
	}
	if cmd.IsSet("instructions") {
		instructions := cmd.String("instructions")
		edit.Instructions = &instructions
	}
	if cmd.IsSet("thumbnail") {
		thumb := models.ParseThumbnail(cmd.String("thumbnail"))
		edit.Thumbnail = &thumb
	}
	if cmd.IsSet("ingredient") {
		edit.Ingredients = parseIngredients(cmd.StringSlice("ingredient"))
	}

	if edit.Name == nil && edit.Instructions == nil && edit.Thumbnail == nil && edit.Ingredients == nil {
		return fmt.Errorf("%w: nothing to edit", shared.ErrMissingArgument)
	}

	recipe, err := r.manager.EditRecipe(ctx, user.ID(), recipeID, edit)
	if err != nil {
		return err
	}
	return r.writeRecipeResult(fmt.Sprintf("updated %s", recipe.Name), recipe, cmd.Bool("json"))
}

// CollectionCreate stores an original recipe.
func (r *Runner) CollectionCreate(ctx context.Context, cmd *cli.Command) error {
	user, err := r.resolveUser(ctx, cmd.StringArg("user"))
	if err != nil {
		return err
	}

	recipe, err := r.manager.CreateOriginalRecipe(ctx, user.ID(), collection.RecipeDraft{
		Name:         cmd.String("name"),
		Instructions: cmd.String("instructions"),
		Image:        cmd.String("image"),
		Ingredients:  parseIngredients(cmd.StringSlice("ingredient")),
	})
	if err != nil {
		return err
	}
	return r.writeRecipeResult(fmt.Sprintf("created %s", recipe.Name), recipe, cmd.Bool("json"))
}

// CollectionRemove removes a recipe from a user's collection.
func (r *Runner) CollectionRemove(ctx context.Context, cmd *cli.Command) error {
	user, recipeID, err := r.userAndRecipe(ctx, cmd)
	if err != nil {
		return err
	}

	if err := r.manager.DeleteUserCopy(ctx, user.ID(), recipeID); err != nil {
		return err
	}
	r.writePlain("%s removed %s from %s's collection\n", ui.OK("✓"), recipeID, user.Name())
	return nil
}

// CollectionExport writes a user's collection to a file.
func (r *Runner) CollectionExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseExportFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	user, err := r.resolveUser(ctx, cmd.StringArg("user"))
	if err != nil {
		return err
	}

	recipes, err := r.manager.ListUserRecipes(ctx, user.ID())
	if err != nil {
		return err
	}

	path, err := formatter.WriteCollectionExport(recipes, format, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("collection exported", "user", user.Name(), "format", format, "recipes", len(recipes))
	r.writePlain("%s exported %d recipes to %s\n", ui.OK("✓"), len(recipes), path)
	return nil
}

func (r *Runner) writeRecipeResult(message string, recipe *models.Recipe, useJSON bool) error {
	if useJSON {
		return r.writeJSON(recipe, true)
	}
	r.writePlain("%s %s\n\n", ui.OK("✓"), message)
	r.writeRecipe(recipe)
	return nil
}

func (r *Runner) writeRecipe(recipe *models.Recipe) {
	r.writePlainHeader(recipe.Name)
	r.writePlain("ID: %s\n", recipe.ID())
	r.writePlain("Kind: %s\n", formatter.RecipeKind(recipe))
	if recipe.ExternalID != "" {
		r.writePlain("External ID: %s\n", recipe.ExternalID)
	}
	if url := recipe.Thumbnail.URL(r.config.Uploads.URLPrefix); url != "" {
		r.writePlain("Thumbnail: %s\n", url)
	}

	rows := make([][]string, 0, len(recipe.Ingredients))
	for _, ri := range recipe.Ingredients {
		rows = append(rows, []string{strconv.Itoa(ri.Position), ri.IngredientName, ri.Quantity})
	}
	if len(rows) > 0 {
		r.writePlain("\n%s\n", formatter.RenderTable([]string{"#", "Ingredient", "Measure"}, rows, 0))
	}
	if recipe.Instructions != "" {
		r.writePlainln("%s", recipe.Instructions)
	}
}
