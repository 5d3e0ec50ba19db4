package handlers

import (
	"net/http"
	"strconv"

	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	apperrors "github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogHandlers serves the read-only recipe catalog
type CatalogHandlers struct {
	responder
	catalog inbound.CatalogService
}

// NewCatalogHandlers creates the catalog handlers
func NewCatalogHandlers(catalog inbound.CatalogService, logger *zap.Logger) *CatalogHandlers {
	return &CatalogHandlers{
		responder: responder{logger: logger.Named("catalog-handlers")},
		catalog:   catalog,
	}
}

// ListRecipes handles GET /api/recipes
func (h *CatalogHandlers) ListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.catalog.ListRecipes(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, recipes)
}

// Search handles GET /api/search?q=
func (h *CatalogHandlers) Search(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.catalog.SearchRecipes(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, recipes)
}

// Surprise handles GET /api/surprise
func (h *CatalogHandlers) Surprise(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.catalog.SurpriseMe(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, recipes)
}

// GetRecipe handles GET /api/recipe/{id}
func (h *CatalogHandlers) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := recipeIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	recipe, err := h.catalog.GetRecipe(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, recipe)
}

// Countries handles GET /api/countries
func (h *CatalogHandlers) Countries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.catalog.Countries(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, countries)
}

// Cuisines handles GET /api/cuisines
func (h *CatalogHandlers) Cuisines(w http.ResponseWriter, r *http.Request) {
	cuisines, err := h.catalog.Cuisines(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cuisines)
}

func recipeIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.NewBadRequestError("Recipe id must be a positive integer")
	}
	return id, nil
}
