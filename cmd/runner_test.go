package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixr/internal/models"
	"github.com/desertthunder/mixr/internal/services"
	"github.com/desertthunder/mixr/internal/shared"
	tu "github.com/desertthunder/mixr/internal/testing"
)

var mojito = models.RecipeDetail{
	ExternalID:   "11000",
	Name:         "Mojito",
	Category:     "Cocktail",
	Glass:        "Highball glass",
	Instructions: "Muddle mint leaves with sugar and lime juice.",
	Thumbnail:    "https://www.thecocktaildb.com/images/media/drink/metwgh1606770327.jpg",
	Ingredients: []models.IngredientMeasure{
		{Name: "Light rum", Measure: "2-3 oz"},
		{Name: "Lime", Measure: "Juice of 1"},
		{Name: "Sugar", Measure: "2 tsp"},
		{Name: "Mint", Measure: "2-4"},
		{Name: "Soda water"},
	},
}

func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	source := tu.NewMockSource()
	source.AddDetail(mojito)
	source.Ingredients = []string{"Gin", "Light rum", "Mint"}

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		DB:     tu.MustOpenDB(t),
		Source: source,
		Logger: shared.DiscardLogger(),
		Output: output,
	})
	return runner, output
}

// run executes a command line against the runner and returns what it printed.
func run(t *testing.T, r *Runner, output *bytes.Buffer, args ...string) (string, error) {
	t.Helper()
	output.Reset()
	app := &cli.Command{Name: "mixr", Commands: r.register()}
	err := app.Run(context.Background(), append([]string{"mixr"}, args...))
	return output.String(), err
}

func mustRun(t *testing.T, r *Runner, output *bytes.Buffer, args ...string) string {
	t.Helper()
	out, err := run(t, r, output, args...)
	if err != nil {
		t.Fatalf("%v failed: %v", args, err)
	}
	return out
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			source := tu.NewMockSource()
			api := &services.APIService{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Source:     source,
				API:        api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.source != source {
				t.Error("expected source to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.engine == nil {
				t.Error("expected catalog engine to be built")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to stdout")
			}
			if runner.httpClient == nil || runner.httpClient.Timeout != runner.config.API.Timeout {
				t.Error("expected http client with the configured timeout")
			}
			if _, ok := runner.source.(*services.CocktailDB); !ok {
				t.Errorf("expected CocktailDB source, got %T", runner.source)
			}
			if runner.manager != nil {
				t.Error("expected database to stay closed until first use")
			}
		})
	})

	t.Run("open", func(t *testing.T) {
		runner, _ := newTestRunner(t)

		if err := runner.open(); err != nil {
			t.Fatalf("open failed: %v", err)
		}
		manager := runner.manager
		if manager == nil || runner.users == nil {
			t.Fatal("expected manager and user repository")
		}
		if err := runner.open(); err != nil {
			t.Fatalf("second open failed: %v", err)
		}
		if runner.manager != manager {
			t.Error("expected open to reuse the manager")
		}
		if err := runner.Close(); err != nil {
			t.Errorf("Close on a borrowed database should be a no-op: %v", err)
		}
	})

	t.Run("open with configured database", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(t.TempDir(), "mixr.db")
		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.DiscardLogger(), Source: tu.NewMockSource()})

		if err := runner.open(); err != nil {
			t.Fatalf("open failed: %v", err)
		}
		tu.AssertFileExists(t, config.Database.Path)
		if err := runner.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("pretty", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"name": "Mojito"}, true); err != nil {
				t.Fatalf("writeJSON failed: %v", err)
			}
			if output.String() != "{\n  \"name\": \"Mojito\"\n}\n" {
				t.Errorf("unexpected output: %q", output.String())
			}
		})

		t.Run("compact", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON([]int{1, 2}, false); err != nil {
				t.Fatalf("writeJSON failed: %v", err)
			}
			if output.String() != "[1,2]\n" {
				t.Errorf("unexpected output: %q", output.String())
			}
		})

		t.Run("unmarshalable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			if err := runner.writeJSON(make(chan int), true); err == nil {
				t.Error("expected marshal error")
			}
		})

		t.Run("write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writeJSON("x", true); err == nil {
				t.Error("expected write error")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		runner.writePlain("%s has %d recipes\n", "amy", 2)
		runner.writePlainln("done")
		if output.String() != "amy has 2 recipes\n\ndone\n" {
			t.Errorf("unexpected output: %q", output.String())
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("x"); err == nil {
			t.Error("expected write error")
		}
	})
}

func TestParseIngredients(t *testing.T) {
	pairs := parseIngredients([]string{"Gin=2 oz", " Lime juice = 1 oz ", "Soda water", "=1 dash"})
	want := []models.IngredientMeasure{
		{Name: "Gin", Measure: "2 oz"},
		{Name: "Lime juice", Measure: "1 oz"},
		{Name: "Soda water"},
		{Measure: "1 dash"},
	}

	if len(pairs) != len(want) {
		t.Fatalf("expected %d pairs, got %d", len(want), len(pairs))
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Errorf("pair %d: expected %+v, got %+v", i, want[i], pairs[i])
		}
	}
}

func TestCommands(t *testing.T) {
	t.Run("user lifecycle", func(t *testing.T) {
		runner, output := newTestRunner(t)

		out := mustRun(t, runner, output, "user", "add", "--email", "amy@example.com", "amy")
		if !strings.Contains(out, "created user amy") {
			t.Errorf("unexpected output: %q", out)
		}

		out = mustRun(t, runner, output, "user", "list", "--json")
		var users []map[string]any
		if err := json.Unmarshal([]byte(out), &users); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(users) != 1 || users[0]["name"] != "amy" || users[0]["email"] != "amy@example.com" {
			t.Errorf("unexpected users: %v", users)
		}

		mustRun(t, runner, output, "user", "remove", "amy")
		if _, err := run(t, runner, output, "collection", "list", "amy"); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("user add requires a name", func(t *testing.T) {
		runner, output := newTestRunner(t)
		if _, err := run(t, runner, output, "user", "add", "--email", "a@example.com"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("collection lifecycle", func(t *testing.T) {
		runner, output := newTestRunner(t)
		mustRun(t, runner, output, "user", "add", "--email", "amy@example.com", "amy")

		out := mustRun(t, runner, output, "collection", "add", "--json", "amy", "11000")
		var added struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			External    bool   `json:"external"`
			Ingredients []any  `json:"ingredients"`
		}
		if err := json.Unmarshal([]byte(out), &added); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if added.Name != "Mojito" || !added.External || len(added.Ingredients) != 5 {
			t.Errorf("unexpected recipe: %+v", added)
		}

		out = mustRun(t, runner, output, "collection", "show", added.ID)
		if !strings.Contains(out, "Mojito") || !strings.Contains(out, "canonical") {
			t.Errorf("expected canonical Mojito, got %q", out)
		}

		out = mustRun(t, runner, output, "collection", "edit", "--name", "Amy's Mojito", "-i", "Mint=6 leaves", "--json", "amy", added.ID)
		var edited struct {
			ID         string `json:"id"`
			Name       string `json:"name"`
			External   bool   `json:"external"`
			ForkedFrom string `json:"forked_from"`
		}
		if err := json.Unmarshal([]byte(out), &edited); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if edited.ID == added.ID || edited.External || edited.ForkedFrom != added.ID || edited.Name != "Amy's Mojito" {
			t.Errorf("expected a renamed fork, got %+v", edited)
		}

		out = mustRun(t, runner, output, "collection", "list", "amy")
		if !strings.Contains(out, "Amy's Mojito") || !strings.Contains(out, "fork") {
			t.Errorf("expected the fork in the collection, got %q", out)
		}

		mustRun(t, runner, output, "collection", "remove", "amy", edited.ID)
		out = mustRun(t, runner, output, "collection", "list", "--json", "amy")
		if strings.TrimSpace(out) != "[]" {
			t.Errorf("expected empty collection, got %q", out)
		}

		mustRun(t, runner, output, "catalog", "forget", added.ID)
		if _, err := run(t, runner, output, "collection", "show", added.ID); !errors.Is(err, shared.ErrRecipeNotFound) {
			t.Errorf("expected ErrRecipeNotFound, got %v", err)
		}
	})

	t.Run("collection edit without changes", func(t *testing.T) {
		runner, output := newTestRunner(t)
		mustRun(t, runner, output, "user", "add", "--email", "amy@example.com", "amy")

		if _, err := run(t, runner, output, "collection", "edit", "amy", "whatever"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("collection add unknown recipe", func(t *testing.T) {
		runner, output := newTestRunner(t)
		mustRun(t, runner, output, "user", "add", "--email", "amy@example.com", "amy")

		if _, err := run(t, runner, output, "collection", "add", "amy", "404"); !errors.Is(err, shared.ErrRecipeNotFound) {
			t.Errorf("expected ErrRecipeNotFound, got %v", err)
		}
	})

	t.Run("collection create and export", func(t *testing.T) {
		runner, output := newTestRunner(t)
		mustRun(t, runner, output, "user", "add", "--email", "amy@example.com", "amy")

		out := mustRun(t, runner, output, "collection", "create",
			"--name", "Amy's Sour", "--instructions", "Shake.", "-i", "Gin=2 oz", "-i", "Lemon juice=1 oz", "amy")
		if !strings.Contains(out, "created Amy's Sour") || !strings.Contains(out, "original") {
			t.Errorf("unexpected output: %q", out)
		}

		dir := t.TempDir()
		csvPath := filepath.Join(dir, "amy.csv")
		mustRun(t, runner, output, "collection", "export", "--format", "csv", "--output", csvPath, "amy")
		content := tu.MustReadFile(t, csvPath)
		if !strings.Contains(content, "Amy's Sour") || !strings.Contains(content, "2 oz Gin; 1 oz Lemon juice") {
			t.Errorf("unexpected CSV: %q", content)
		}

		mdPath := filepath.Join(dir, "amy.md")
		mustRun(t, runner, output, "collection", "export", "--output", mdPath, "amy")
		if content := tu.MustReadFile(t, mdPath); !strings.HasPrefix(content, "# Collection") || !strings.Contains(content, "## Amy's Sour") {
			t.Errorf("unexpected Markdown: %q", content)
		}

		if _, err := run(t, runner, output, "collection", "export", "--format", "xml", "amy"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("favorites", func(t *testing.T) {
		runner, output := newTestRunner(t)
		mustRun(t, runner, output, "user", "add", "--email", "amy@example.com", "amy")

		out := mustRun(t, runner, output, "favorites", "list", "amy")
		if !strings.Contains(out, "no favorite ingredients") {
			t.Errorf("unexpected output: %q", out)
		}

		mustRun(t, runner, output, "favorites", "add", "amy", "Mint")
		mustRun(t, runner, output, "favorites", "add", "amy", "Gin")
		out = mustRun(t, runner, output, "favorites", "list", "amy")
		if !strings.Contains(out, "Mint") || !strings.Contains(out, "Gin") {
			t.Errorf("expected both favorites, got %q", out)
		}

		mustRun(t, runner, output, "favorites", "remove", "amy", "Gin")
		out = mustRun(t, runner, output, "favorites", "list", "amy")
		if strings.Contains(out, "Gin") {
			t.Errorf("expected Gin to be removed, got %q", out)
		}
	})

	t.Run("stats", func(t *testing.T) {
		runner, output := newTestRunner(t)
		mustRun(t, runner, output, "user", "add", "--email", "amy@example.com", "amy")
		mustRun(t, runner, output, "collection", "add", "amy", "11000")

		out := mustRun(t, runner, output, "stats", "--json")
		var stats map[string]int
		if err := json.Unmarshal([]byte(out), &stats); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if stats["users"] != 1 || stats["canonical"] != 1 || stats["links"] != 1 || stats["ingredients"] != 5 {
			t.Errorf("unexpected stats: %v", stats)
		}

		out = mustRun(t, runner, output, "stats")
		if !strings.Contains(out, "Canonical recipes") {
			t.Errorf("expected a stats table, got %q", out)
		}
	})

	t.Run("catalog", func(t *testing.T) {
		runner, output := newTestRunner(t)

		out := mustRun(t, runner, output, "catalog", "show", "11000")
		if !strings.Contains(out, "Mojito") || !strings.Contains(out, "Highball glass") {
			t.Errorf("unexpected output: %q", out)
		}

		if _, err := run(t, runner, output, "catalog", "show", "404"); !errors.Is(err, shared.ErrRecipeNotFound) {
			t.Errorf("expected ErrRecipeNotFound, got %v", err)
		}

		out = mustRun(t, runner, output, "catalog", "search", "Mojito")
		if !strings.Contains(out, "11000") {
			t.Errorf("expected search hit, got %q", out)
		}

		out = mustRun(t, runner, output, "catalog", "search", "Zombie")
		if !strings.Contains(out, "No recipes match") {
			t.Errorf("expected no matches, got %q", out)
		}

		out = mustRun(t, runner, output, "catalog", "ingredients", "--json")
		var names []string
		if err := json.Unmarshal([]byte(out), &names); err != nil || len(names) != 3 {
			t.Errorf("unexpected ingredients %q: %v", out, err)
		}

		out = mustRun(t, runner, output, "catalog", "random", "--json")
		if !strings.Contains(out, `"name": "Mojito"`) {
			t.Errorf("unexpected random recipe: %q", out)
		}
	})

	t.Run("catalog list", func(t *testing.T) {
		runner, output := newTestRunner(t)
		csvPath := filepath.Join(t.TempDir(), "catalog.csv")

		out := mustRun(t, runner, output, "catalog", "list", "--concurrency", "2", "--csv", csvPath, "--json")
		var items []models.CatalogItem
		if err := json.Unmarshal([]byte(out), &items); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(items) != 1 || items[0].Name != "Mojito" || items[0].Source != models.SourceExternal {
			t.Errorf("unexpected catalog: %+v", items)
		}
		if content := tu.MustReadFile(t, csvPath); !strings.Contains(content, "Mojito,external,11000") {
			t.Errorf("unexpected CSV: %q", content)
		}
	})

	t.Run("api get", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Path != "/lookup.php" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write([]byte(`{"drinks":[{"idDrink":"11000"}]}`))
		}))
		defer srv.Close()

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Logger: shared.DiscardLogger(),
			Output: output,
			Source: tu.NewMockSource(),
			API:    services.NewAPIService(srv.URL, srv.Client()),
		})

		out := mustRun(t, runner, output, "api", "get", "--json", "lookup.php?i=11000")
		if out != "{\"drinks\":[{\"idDrink\":\"11000\"}]}\n" {
			t.Errorf("unexpected output: %q", out)
		}

		if _, err := run(t, runner, output, "api", "get", "/missing"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestRouter(t *testing.T) {
	runner, output := newTestRunner(t)
	mustRun(t, runner, output, "user", "add", "--email", "amy@example.com", "amy")

	router, err := runner.router()
	if err != nil {
		t.Fatalf("router failed: %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"users":1`) {
		t.Errorf("unexpected response %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouterServesUploads(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "garden.png"), []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}

	config := shared.DefaultConfig()
	config.Uploads.Dir = dir
	config.Uploads.URLPrefix = "/uploads"
	runner := NewRunner(RunnerOpts{
		Config: config,
		DB:     tu.MustOpenDB(t),
		Source: tu.NewMockSource(),
		Logger: shared.DiscardLogger(),
		Output: &bytes.Buffer{},
	})

	router, err := runner.router()
	if err != nil {
		t.Fatalf("router failed: %v", err)
	}

	if routes := router.Routes(); !slices.Contains(routes, "GET /uploads/") || !slices.Contains(routes, "GET /api/stats") {
		t.Errorf("expected uploads and API routes, got %v", routes)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/garden.png", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "png" {
		t.Errorf("unexpected response %d: %q", rec.Code, rec.Body.String())
	}
}
