package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixr/internal/collection"
	"github.com/desertthunder/mixr/internal/models"
	"github.com/desertthunder/mixr/internal/repositories"
	"github.com/desertthunder/mixr/internal/services"
	"github.com/desertthunder/mixr/internal/shared"
	"github.com/desertthunder/mixr/internal/tasks"
	"github.com/desertthunder/mixr/internal/ui"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database is opened on first use so commands that only talk to the recipe API never touch it.
type Runner struct {
	config     *shared.Config
	source     services.RecipeSource
	api        *services.APIService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.CatalogEngine

	db      *sql.DB
	ownsDB  bool
	users   *repositories.UserRepository
	manager *collection.Manager
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Source     services.RecipeSource
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB // Already migrated; opened from Config.Database when nil
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = services.NewHTTPClient(opts.Config.API.Timeout, opts.Config.API.ConnectTimeout)
	}
	if opts.Source == nil {
		opts.Source = services.NewCocktailDB(services.CocktailDBOpts{
			BaseURL:    opts.Config.API.BaseURL,
			HTTPClient: opts.HTTPClient,
			Logger:     opts.Logger,
		})
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(opts.Config.API.BaseURL, opts.HTTPClient)
	}

	return &Runner{
		config:     opts.Config,
		source:     opts.Source,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		engine:     tasks.NewCatalogEngine(opts.Source, opts.Logger),
		db:         opts.DB,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, catalogCommand, userCommand, collectionCommand, favoritesCommand, statsCommand, serveCommand, apiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) fetchOpts() tasks.FetchOpts {
	return tasks.FetchOpts{
		Concurrency: r.config.Catalog.Concurrency,
		RateLimit:   r.config.Catalog.RateLimit,
	}
}

// open connects to the configured database, applies pending migrations and builds the
// collection manager. Later calls reuse the connection.
func (r *Runner) open() error {
	if r.manager != nil {
		return nil
	}

	if r.db == nil {
		r.logger.Debug("opening database", "path", r.config.Database.Path)

		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		if r.config.Database.Path != shared.MemoryDatabase {
			shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
		}
		if err := shared.RunMigrations(db); err != nil {
			db.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		r.db = db
		r.ownsDB = true
	}

	r.users = repositories.NewUserRepository(r.db)
	r.manager = collection.NewManager(collection.ManagerOpts{
		Store:     repositories.NewStore(r.db),
		Source:    r.source,
		Catalog:   r.engine,
		FetchOpts: r.fetchOpts(),
		Logger:    r.logger,
	})
	return nil
}

// Close releases the database if the runner opened it.
func (r *Runner) Close() error {
	if r.ownsDB && r.db != nil {
		return r.db.Close()
	}
	return nil
}

// resolveUser finds a user by name, falling back to ID.
func (r *Runner) resolveUser(ctx context.Context, nameOrID string) (*models.User, error) {
	nameOrID = strings.TrimSpace(nameOrID)
	if nameOrID == "" {
		return nil, fmt.Errorf("%w: user", shared.ErrMissingArgument)
	}
	if err := r.open(); err != nil {
		return nil, err
	}

	user, err := r.users.GetByName(ctx, nameOrID)
	if err == nil {
		return user, nil
	}
	return r.users.Get(ctx, nameOrID)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("%s\n", ui.Header(title))
}

// watchProgress prints progress updates until the returned stop function is called.
func (r *Runner) watchProgress(quiet bool) (chan<- tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			if quiet {
				r.logger.Debug(update.Message, "phase", update.Phase)
				continue
			}
			switch update.Phase {
			case tasks.FetchLetters:
				if update.Step == 0 {
					r.writePlain("🔍 %s\n", update.Message)
				} else {
					r.logger.Debug(update.Message)
				}
			case tasks.MergeCatalog, tasks.MergeLocal:
				r.writePlain("📝 %s\n", update.Message)
			}
		}
	}()

	return progress, func() {
		close(progress)
		<-done
	}
}
