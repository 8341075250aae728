package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/mixr/internal/collection"
	"github.com/desertthunder/mixr/internal/models"
	"github.com/desertthunder/mixr/internal/repositories"
	"github.com/desertthunder/mixr/internal/shared"
	"github.com/desertthunder/mixr/internal/tasks"
	tu "github.com/desertthunder/mixr/internal/testing"
)

type testEnv struct {
	server *httptest.Server
	users  *repositories.UserRepository
	userID string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := tu.MustOpenDB(t)
	source := tu.NewMockSource()
	source.AddDetail(models.RecipeDetail{
		ExternalID:   "11000",
		Name:         "Mojito",
		Instructions: "Muddle mint.",
		Ingredients:  []models.IngredientMeasure{{Name: "Light rum", Measure: "2 oz"}, {Name: "Mint", Measure: "6 leaves"}},
	})
	source.AddDetail(models.RecipeDetail{ExternalID: "17005", Name: "Bellini"})
	source.Ingredients = []string{"Light rum", "Mint"}

	env := &testEnv{users: repositories.NewUserRepository(db)}
	env.userID = env.addUser(t, "amy")

	manager := collection.NewManager(collection.ManagerOpts{
		Store:   repositories.NewStore(db),
		Source:  source,
		Catalog: tasks.NewCatalogEngine(source, nil),
	})

	logger := shared.NewLogger(io.Discard)

	router := NewBasicRouter()
	router.Use(LoggingMiddleware(logger))
	router.Handler(NewCollectionHandler(manager, source, logger))

	env.server = httptest.NewServer(router)
	t.Cleanup(env.server.Close)

	return env
}

func (e *testEnv) addUser(t *testing.T, name string) string {
	t.Helper()

	user := models.NewUser(0, name+"@example.com", name)
	if err := e.users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user.ID()
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	decoded := map[string]any{}
	if resp.StatusCode != http.StatusNoContent && resp.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return resp, decoded
}

func TestRouter(t *testing.T) {
	t.Run("Method Patterns", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping/{name}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "pong %s", r.PathValue("name"))
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping/amy", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "pong amy" {
			t.Errorf("unexpected response %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping/amy", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405, got %d", rec.Code)
		}
	})

	t.Run("Lowercase Method", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle("delete", "/api/things/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/things/1", nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("Expected 204, got %d", rec.Code)
		}
	})

	t.Run("Routes", func(t *testing.T) {
		router := NewBasicRouter()
		noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		router.Handle(http.MethodPost, "/b", noop)
		router.Handle(http.MethodGet, "/b", noop)
		router.Handle(http.MethodGet, "/a", noop)

		want := []string{"GET /a", "GET /b", "POST /b"}
		got := router.Routes()
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("expected %v, got %v", want, got)
		}

		got[0] = "changed"
		if router.Routes()[0] != "GET /a" {
			t.Error("Routes should return a copy")
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if got := strings.Join(order, ","); got != "first,second,handler" {
			t.Errorf("unexpected middleware order %s", got)
		}
	})
}

func TestLoggingMiddleware(t *testing.T) {
	var logs bytes.Buffer
	handler := LoggingMiddleware(shared.NewLogger(&logs))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))

	output := logs.String()
	for _, want := range []string{"method=GET", "path=/brew", "status=418"} {
		if !strings.Contains(output, want) {
			t.Errorf("log missing %q, got: %s", want, output)
		}
	}
}

func TestCollectionHandler(t *testing.T) {
	t.Run("Routes", func(t *testing.T) {
		routes := NewCollectionHandler(nil, nil, nil).Routes()
		if len(routes) != 10 {
			t.Errorf("Expected 10 routes, got %d: %v", len(routes), routes)
		}
	})

	t.Run("Browse", func(t *testing.T) {
		env := newTestEnv(t)

		resp, body := env.do(t, http.MethodGet, "/api/catalog", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		if body["count"] != float64(2) {
			t.Errorf("Expected 2 catalog items, got %v", body["count"])
		}
	})

	t.Run("Catalog Detail", func(t *testing.T) {
		env := newTestEnv(t)

		resp, body := env.do(t, http.MethodGet, "/api/catalog/11000", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		if body["Name"] != "Mojito" && body["name"] != "Mojito" {
			t.Errorf("unexpected detail %v", body)
		}

		resp, body = env.do(t, http.MethodGet, "/api/catalog/404", "")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", resp.StatusCode)
		}
		if body["error"] == nil {
			t.Error("Expected error message")
		}
	})

	t.Run("Ingredients", func(t *testing.T) {
		env := newTestEnv(t)

		resp, body := env.do(t, http.MethodGet, "/api/ingredients", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		if names, ok := body["ingredients"].([]any); !ok || len(names) != 2 {
			t.Errorf("unexpected ingredients %v", body["ingredients"])
		}
	})

	t.Run("Collection Lifecycle", func(t *testing.T) {
		env := newTestEnv(t)
		base := "/api/users/" + env.userID + "/recipes"

		resp, added := env.do(t, http.MethodPost, base, `{"external_id":"11000"}`)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %v", resp.StatusCode, added)
		}
		canonicalID, _ := added["id"].(string)
		if added["external"] != true || canonicalID == "" {
			t.Fatalf("unexpected recipe %v", added)
		}

		resp, _ = env.do(t, http.MethodGet, "/api/recipes/"+canonicalID, "")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected 200 for stored recipe, got %d", resp.StatusCode)
		}

		resp, forked := env.do(t, http.MethodPost, base+"/"+canonicalID+"/fork", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %v", resp.StatusCode, forked)
		}
		forkID, _ := forked["id"].(string)
		if forkID == canonicalID || forked["forked_from"] != canonicalID {
			t.Fatalf("unexpected fork %v", forked)
		}

		resp, edited := env.do(t, http.MethodPatch, base+"/"+forkID, `{"instructions":"Shake it."}`)
		if resp.StatusCode != http.StatusOK || edited["instructions"] != "Shake it." {
			t.Fatalf("unexpected edit %d %v", resp.StatusCode, edited)
		}

		resp, listed := env.do(t, http.MethodGet, base, "")
		if resp.StatusCode != http.StatusOK || listed["count"] != float64(1) {
			t.Fatalf("unexpected list %d %v", resp.StatusCode, listed)
		}

		resp, _ = env.do(t, http.MethodDelete, base+"/"+forkID, "")
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("Expected 204, got %d", resp.StatusCode)
		}

		resp, _ = env.do(t, http.MethodDelete, base+"/"+forkID, "")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected 404 for deleted fork, got %d", resp.StatusCode)
		}

		resp, stats := env.do(t, http.MethodGet, "/api/stats", "")
		if resp.StatusCode != http.StatusOK || stats["canonical"] != float64(1) {
			t.Errorf("unexpected stats %d %v", resp.StatusCode, stats)
		}
	})

	t.Run("Create Original", func(t *testing.T) {
		env := newTestEnv(t)

		body := `{"name":"House Sour","image":"sour.png","ingredients":[{"Name":"Whiskey","Measure":"2 oz"}]}`
		resp, created := env.do(t, http.MethodPost, "/api/users/"+env.userID+"/recipes", body)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %v", resp.StatusCode, created)
		}
		if created["external"] != false || created["name"] != "House Sour" {
			t.Errorf("unexpected recipe %v", created)
		}
	})

	t.Run("Error Mapping", func(t *testing.T) {
		env := newTestEnv(t)

		tests := []struct {
			name   string
			method string
			path   string
			body   string
			status int
		}{
			{"Unknown User", http.MethodGet, "/api/users/ghost/recipes", "", http.StatusNotFound},
			{"Unknown External", http.MethodPost, "/api/users/" + env.userID + "/recipes", `{"external_id":"404"}`, http.StatusNotFound},
			{"Bad Body", http.MethodPost, "/api/users/" + env.userID + "/recipes", `{`, http.StatusBadRequest},
			{"Missing Name", http.MethodPost, "/api/users/" + env.userID + "/recipes", `{}`, http.StatusBadRequest},
			{"Unknown Recipe", http.MethodGet, "/api/recipes/missing", "", http.StatusNotFound},
			{"Wrong Method", http.MethodPut, "/api/stats", "", http.StatusMethodNotAllowed},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				resp, _ := env.do(t, tt.method, tt.path, tt.body)
				if resp.StatusCode != tt.status {
					t.Errorf("Expected %d, got %d", tt.status, resp.StatusCode)
				}
			})
		}
	})

	t.Run("Not Owner", func(t *testing.T) {
		env := newTestEnv(t)

		bo := env.addUser(t, "bo")

		_, created := env.do(t, http.MethodPost, "/api/users/"+env.userID+"/recipes", `{"name":"Mine"}`)
		id, _ := created["id"].(string)

		resp, body := env.do(t, http.MethodPatch, "/api/users/"+bo+"/recipes/"+id, `{"name":"Stolen"}`)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("Expected 403, got %d: %v", resp.StatusCode, body)
		}

		resp, _ = env.do(t, http.MethodDelete, "/api/users/"+bo+"/recipes/"+id, "")
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("Expected 403, got %d", resp.StatusCode)
		}
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", shared.ErrRecipeNotFound), http.StatusNotFound},
		{shared.ErrUserNotFound, http.StatusNotFound},
		{shared.ErrIngredientNotFound, http.StatusNotFound},
		{shared.ErrNotOwner, http.StatusForbidden},
		{shared.ErrRecipeInUse, http.StatusConflict},
		{shared.ErrDuplicateRecipe, http.StatusConflict},
		{shared.ErrInvalidInput, http.StatusBadRequest},
		{shared.ErrServiceUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: disk full", shared.ErrPersistence), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	router := NewBasicRouter()
	router.Handle(http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, NewHTTPServer(ln.Addr().String(), router), ln, shared.DiscardLogger())
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
