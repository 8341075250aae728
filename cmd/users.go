package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixr/internal/formatter"
	"github.com/desertthunder/mixr/internal/models"
	"github.com/desertthunder/mixr/internal/shared"
	"github.com/desertthunder/mixr/internal/ui"
)

// UserAdd creates a user.
func (r *Runner) UserAdd(ctx context.Context, cmd *cli.Command) error {
	name := strings.TrimSpace(cmd.StringArg("name"))
	if name == "" {
		return fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}
	if err := r.open(); err != nil {
		return err
	}

	user := models.NewUser(0, strings.TrimSpace(cmd.String("email")), name)
	if err := r.users.Create(ctx, user); err != nil {
		return err
	}

	r.logger.Info("user created", "name", name, "id", user.ID())
	r.writePlain("%s created user %s (%s)\n", ui.OK("✓"), name, user.ID())
	return nil
}

// UserList prints every user.
func (r *Runner) UserList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	users, err := r.users.List(ctx, nil)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]map[string]any, 0, len(users))
		for _, u := range users {
			out = append(out, map[string]any{"id": u.ID(), "name": u.Name(), "email": u.Email(), "created_at": u.CreatedAt()})
		}
		return r.writeJSON(out, true)
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.ID(), u.Name(), u.Email()})
	}
	r.writePlain("%s\n", formatter.RenderTable([]string{"ID", "Name", "Email"}, rows))
	return nil
}

// UserRemove soft-deletes a user.
func (r *Runner) UserRemove(ctx context.Context, cmd *cli.Command) error {
	user, err := r.resolveUser(ctx, cmd.StringArg("user"))
	if err != nil {
		return err
	}
	if err := r.users.Delete(ctx, user.ID()); err != nil {
		return err
	}
	r.writePlain("%s removed user %s\n", ui.OK("✓"), user.Name())
	return nil
}

// FavoritesAdd marks an ingredient as a favorite.
func (r *Runner) FavoritesAdd(ctx context.Context, cmd *cli.Command) error {
	user, err := r.resolveUser(ctx, cmd.StringArg("user"))
	if err != nil {
		return err
	}

	ingredient, err := r.manager.AddFavoriteIngredient(ctx, user.ID(), cmd.StringArg("ingredient"))
	if err != nil {
		return err
	}
	r.writePlain("%s %s is one of %s's favorites\n", ui.OK("✓"), ingredient.Name, user.Name())
	return nil
}

// FavoritesRemove unmarks a favorite ingredient.
func (r *Runner) FavoritesRemove(ctx context.Context, cmd *cli.Command) error {
	user, err := r.resolveUser(ctx, cmd.StringArg("user"))
	if err != nil {
		return err
	}

	name := cmd.StringArg("ingredient")
	if err := r.manager.RemoveFavoriteIngredient(ctx, user.ID(), name); err != nil {
		return err
	}
	r.writePlain("%s removed %s from %s's favorites\n", ui.OK("✓"), name, user.Name())
	return nil
}

// FavoritesList prints a user's favorite ingredients.
func (r *Runner) FavoritesList(ctx context.Context, cmd *cli.Command) error {
	user, err := r.resolveUser(ctx, cmd.StringArg("user"))
	if err != nil {
		return err
	}

	favorites, err := r.manager.ListFavoriteIngredients(ctx, user.ID())
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(favorites, true)
	}

	if len(favorites) == 0 {
		r.writePlain("%s\n", ui.Help(fmt.Sprintf("%s has no favorite ingredients", user.Name())))
		return nil
	}
	for _, f := range favorites {
		r.writePlain("%s\n", f.Name)
	}
	return nil
}

// Stats prints row counters.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	stats, err := r.manager.Stats(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}

	rows := [][]string{
		{"Users", strconv.Itoa(stats.Users)},
		{"Recipes", strconv.Itoa(stats.Recipes)},
		{"Canonical recipes", strconv.Itoa(stats.Canonical)},
		{"User recipes", strconv.Itoa(stats.UserRecipes)},
		{"Ingredients", strconv.Itoa(stats.Ingredients)},
		{"Collection links", strconv.Itoa(stats.Links)},
		{"Favorites", strconv.Itoa(stats.Favorites)},
	}
	r.writePlain("%s\n", formatter.RenderTable([]string{"Counter", "Value"}, rows, 1))
	return nil
}
