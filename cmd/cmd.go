// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

func userArg() cli.Argument       { return &cli.StringArg{Name: "user"} }
func recipeArg() cli.Argument     { return &cli.StringArg{Name: "recipe"} }
func ingredientArg() cli.Argument { return &cli.StringArg{Name: "ingredient"} }

func ingredientFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "ingredient",
		Aliases: []string{"i"},
		Usage:   `Ingredient as "name=measure", repeatable`,
	}
}

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config file if missing, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// catalogCommand handles the external recipe catalog
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "catalog",
		Aliases: []string{"cat"},
		Usage:   "Browse the recipe catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Fetch the full catalog, merged with a user's own recipes",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "user",
						Aliases: []string{"u"},
						Usage:   "Include this user's originals and forks",
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Maximum concurrent letter searches (default from config)",
					},
					&cli.FloatFlag{
						Name:  "rate-limit",
						Usage: "Letter searches started per second, 0 for unlimited (default from config)",
					},
					&cli.StringFlag{
						Name:  "csv",
						Usage: "Also write the catalog to this CSV file",
					},
					jsonFlag(),
				},
				Action: r.CatalogList,
			},
			{
				Name:      "show",
				Usage:     "Show an external recipe",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.CatalogShow,
			},
			{
				Name:   "ingredients",
				Usage:  "List every ingredient name known to the recipe API",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.CatalogIngredients,
			},
			{
				Name:   "random",
				Usage:  "Show a random external recipe",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.CatalogRandom,
			},
			{
				Name:      "search",
				Usage:     "Search external recipes by name",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.CatalogSearch,
			},
			{
				Name:      "forget",
				Usage:     "Delete a stored canonical recipe that no user has in their collection",
				Arguments: []cli.Argument{&cli.StringArg{Name: "recipe"}},
				Action:    r.CatalogForget,
			},
		},
	}
}

// userCommand manages local users
func userCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage users",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Create a user",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Usage:    "Email address",
						Required: true,
					},
				},
				Action: r.UserAdd,
			},
			{
				Name:   "list",
				Usage:  "List users",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.UserList,
			},
			{
				Name:      "remove",
				Usage:     "Delete a user",
				Arguments: []cli.Argument{&cli.StringArg{Name: "user"}},
				Action:    r.UserRemove,
			},
		},
	}
}

// collectionCommand handles a user's recipe collection
func collectionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "collection",
		Aliases: []string{"col"},
		Usage:   "Manage a user's recipe collection",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add an external recipe by its catalog ID",
				Arguments: []cli.Argument{userArg(), &cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.CollectionAdd,
			},
			{
				Name:      "list",
				Usage:     "List a user's recipes",
				Arguments: []cli.Argument{userArg()},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.CollectionList,
			},
			{
				Name:      "show",
				Usage:     "Show a stored recipe",
				Arguments: []cli.Argument{recipeArg()},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.CollectionShow,
			},
			{
				Name:      "fork",
				Usage:     "Make a private editable copy of a canonical recipe",
				Arguments: []cli.Argument{userArg(), recipeArg()},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.CollectionFork,
			},
			{
				Name:      "edit",
				Usage:     "Edit a recipe, forking it first when it is canonical",
				Arguments: []cli.Argument{userArg(), recipeArg()},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "New name"},
					&cli.StringFlag{Name: "instructions", Usage: "New instructions"},
					&cli.StringFlag{Name: "thumbnail", Usage: "Image URL or uploaded filename"},
					ingredientFlag(),
					jsonFlag(),
				},
				Action: r.CollectionEdit,
			},
			{
				Name:      "create",
				Usage:     "Create an original recipe",
				Arguments: []cli.Argument{userArg()},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Recipe name", Required: true},
					&cli.StringFlag{Name: "instructions", Usage: "Instructions"},
					&cli.StringFlag{Name: "image", Usage: "Uploaded image filename"},
					ingredientFlag(),
					jsonFlag(),
				},
				Action: r.CollectionCreate,
			},
			{
				Name:      "remove",
				Usage:     "Remove a recipe from the collection",
				Arguments: []cli.Argument{userArg(), recipeArg()},
				Action:    r.CollectionRemove,
			},
			{
				Name:      "export",
				Usage:     "Export a user's collection to JSON, CSV or Markdown",
				Arguments: []cli.Argument{userArg()},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "json, csv or markdown",
						Value:   "markdown",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: collection.{ext})",
					},
				},
				Action: r.CollectionExport,
			},
		},
	}
}

// favoritesCommand handles a user's favorite ingredients
func favoritesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "Manage favorite ingredients",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Mark an ingredient as a favorite",
				Arguments: []cli.Argument{userArg(), ingredientArg()},
				Action:    r.FavoritesAdd,
			},
			{
				Name:      "remove",
				Usage:     "Unmark a favorite ingredient",
				Arguments: []cli.Argument{userArg(), ingredientArg()},
				Action:    r.FavoritesRemove,
			},
			{
				Name:      "list",
				Usage:     "List favorite ingredients",
				Arguments: []cli.Argument{userArg()},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.FavoritesList,
			},
		},
	}
}

// statsCommand shows storage counters
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show collection statistics",
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.Stats,
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default from config)",
			},
		},
		Action: r.Serve,
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the recipe API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the recipe API, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
		},
	}
}
