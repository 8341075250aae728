package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mixr/internal/collection"
	"github.com/desertthunder/mixr/internal/models"
	"github.com/desertthunder/mixr/internal/shared"
	"github.com/desertthunder/mixr/internal/tasks"
)

// CollectionService is the subset of [collection.Manager] served over HTTP.
type CollectionService interface {
	Browse(ctx context.Context, userID string, progress chan<- tasks.ProgressUpdate) ([]models.CatalogItem, error)
	Recipe(ctx context.Context, recipeID string) (*models.Recipe, error)
	ListUserRecipes(ctx context.Context, userID string) ([]*models.Recipe, error)
	AddExternalRecipe(ctx context.Context, userID, externalID string) (*models.Recipe, error)
	CreateOriginalRecipe(ctx context.Context, userID string, draft collection.RecipeDraft) (*models.Recipe, error)
	ForkForEditing(ctx context.Context, recipeID, userID string) (*models.Recipe, error)
	EditRecipe(ctx context.Context, userID, recipeID string, edit collection.RecipeEdit) (*models.Recipe, error)
	DeleteUserCopy(ctx context.Context, userID, recipeID string) error
	Stats(ctx context.Context) (collection.Stats, error)
}

// CatalogSource serves upstream lookups that bypass local storage.
type CatalogSource interface {
	LookupByID(ctx context.Context, id string) (*models.RecipeDetail, bool)
	ListIngredientNames(ctx context.Context) []string
}

// CollectionHandler serves the catalog and per-user collection endpoints as JSON.
//
// Implements the [Handler] interface; each route pattern maps to one handler method.
type CollectionHandler struct {
	service CollectionService
	source  CatalogSource
	logger  *log.Logger
	routes  map[string]http.HandlerFunc
}

// NewCollectionHandler creates a [CollectionHandler].
func NewCollectionHandler(service CollectionService, source CatalogSource, logger *log.Logger) *CollectionHandler {
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	h := &CollectionHandler{
		service: service,
		source:  source,
		logger:  shared.WithLogger(logger, "component", "http"),
	}
	h.routes = map[string]http.HandlerFunc{
		"GET /api/catalog":                         h.browse,
		"GET /api/catalog/{id}":                    h.catalogDetail,
		"GET /api/ingredients":                     h.ingredients,
		"GET /api/recipes/{id}":                    h.recipe,
		"GET /api/users/{user}/recipes":            h.listRecipes,
		"POST /api/users/{user}/recipes":           h.addRecipe,
		"PATCH /api/users/{user}/recipes/{id}":     h.editRecipe,
		"POST /api/users/{user}/recipes/{id}/fork": h.forkRecipe,
		"DELETE /api/users/{user}/recipes/{id}":    h.deleteRecipe,
		"GET /api/stats":                           h.stats,
	}
	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *CollectionHandler) Routes() []string {
	routes := make([]string, 0, len(h.routes))
	for pattern := range h.routes {
		routes = append(routes, pattern)
	}
	slices.Sort(routes)
	return routes
}

// ServeHTTP dispatches on the pattern the mux matched.
func (h *CollectionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.routes[r.Pattern]
	if !ok {
		h.writeError(w, http.StatusNotFound, "not found")
		return
	}
	handle(w, r)
}

type addRecipeRequest struct {
	ExternalID   string                     `json:"external_id"`
	Name         string                     `json:"name"`
	Instructions string                     `json:"instructions"`
	Image        string                     `json:"image"`
	Ingredients  []models.IngredientMeasure `json:"ingredients"`
}

type editRecipeRequest struct {
	Name         *string                    `json:"name"`
	Instructions *string                    `json:"instructions"`
	Thumbnail    *string                    `json:"thumbnail"`
	Ingredients  []models.IngredientMeasure `json:"ingredients"`
}

func (h *CollectionHandler) browse(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Browse(r.Context(), r.URL.Query().Get("user"), nil)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *CollectionHandler) catalogDetail(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		h.writeServiceError(w, shared.ErrServiceUnavailable)
		return
	}

	detail, ok := h.source.LookupByID(r.Context(), r.PathValue("id"))
	if !ok {
		h.writeError(w, http.StatusNotFound, shared.ErrRecipeNotFound.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}

func (h *CollectionHandler) ingredients(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		h.writeServiceError(w, shared.ErrServiceUnavailable)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"ingredients": h.source.ListIngredientNames(r.Context())})
}

func (h *CollectionHandler) recipe(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.service.Recipe(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, recipe)
}

func (h *CollectionHandler) listRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.service.ListUserRecipes(r.Context(), r.PathValue("user"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"recipes": recipes, "count": len(recipes)})
}

// addRecipe adds an external recipe when external_id is set, otherwise stores an original.
func (h *CollectionHandler) addRecipe(w http.ResponseWriter, r *http.Request) {
	var req addRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	var (
		recipe *models.Recipe
		err    error
	)
	user := r.PathValue("user")
	if id := strings.TrimSpace(req.ExternalID); id != "" {
		recipe, err = h.service.AddExternalRecipe(r.Context(), user, id)
	} else {
		recipe, err = h.service.CreateOriginalRecipe(r.Context(), user, collection.RecipeDraft{
			Name:         req.Name,
			Instructions: req.Instructions,
			Image:        req.Image,
			Ingredients:  req.Ingredients,
		})
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, recipe)
}

func (h *CollectionHandler) editRecipe(w http.ResponseWriter, r *http.Request) {
	var req editRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	edit := collection.RecipeEdit{
		Name:         req.Name,
		Instructions: req.Instructions,
		Ingredients:  req.Ingredients,
	}
	if req.Thumbnail != nil {
		thumb := models.ParseThumbnail(*req.Thumbnail)
		edit.Thumbnail = &thumb
	}

	recipe, err := h.service.EditRecipe(r.Context(), r.PathValue("user"), r.PathValue("id"), edit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, recipe)
}

func (h *CollectionHandler) forkRecipe(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.service.ForkForEditing(r.Context(), r.PathValue("id"), r.PathValue("user"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, recipe)
}

func (h *CollectionHandler) deleteRecipe(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteUserCopy(r.Context(), r.PathValue("user"), r.PathValue("id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CollectionHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// StatusFor maps a service error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrRecipeNotFound),
		errors.Is(err, shared.ErrUserNotFound),
		errors.Is(err, shared.ErrIngredientNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrRecipeInUse), errors.Is(err, shared.ErrDuplicateRecipe):
		return http.StatusConflict
	case errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *CollectionHandler) writeServiceError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
		h.writeError(w, status, shared.ErrPersistence.Error())
		return
	}
	h.writeError(w, status, err.Error())
}

func (h *CollectionHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *CollectionHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
