package handlers

import (
	"net/http"

	"github.com/alchemorsel/kitchen/internal/domain/rating"
	"github.com/alchemorsel/kitchen/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/kitchen/internal/infrastructure/monitoring"
	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	apperrors "github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RatingHandlers exposes the rating ledger
type RatingHandlers struct {
	responder
	ratings inbound.RatingService
	metrics *monitoring.MetricsCollector
}

// NewRatingHandlers creates the rating handlers
func NewRatingHandlers(ratings inbound.RatingService, metrics *monitoring.MetricsCollector, logger *zap.Logger) *RatingHandlers {
	return &RatingHandlers{
		responder: responder{logger: logger.Named("rating-handlers")},
		ratings:   ratings,
		metrics:   metrics,
	}
}

// RateRecipeRequest is the body of POST /api/rate-recipe
type RateRecipeRequest struct {
	RecipeID *int64 `json:"recipe_id"`
	Rating   *int   `json:"rating"`
	Review   string `json:"review"`
}

// SubmitRatingRequest is the body of POST /api/ratings/{id}
type SubmitRatingRequest struct {
	Rating     *int   `json:"rating"`
	Review     string `json:"review"`
	RecipeType string `json:"recipe_type"`
}

// RatingSavedResponse carries the aggregate as of the write
type RatingSavedResponse struct {
	Success       bool    `json:"success"`
	Message       string  `json:"message"`
	AverageRating float64 `json:"average_rating"`
	RatingCount   int64   `json:"rating_count"`
}

// RateRecipe handles POST /api/rate-recipe. Only catalog recipes are rated
// here.
func (h *RatingHandlers) RateRecipe(w http.ResponseWriter, r *http.Request) {
	var req RateRecipeRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.RecipeID == nil || req.Rating == nil {
		h.writeError(w, r, apperrors.NewBadRequestError("Recipe ID and rating are required"))
		return
	}

	h.submit(w, r, inbound.SubmitRatingCommand{
		RecipeID: *req.RecipeID,
		Category: string(rating.CategoryRegular),
		Score:    *req.Rating,
		Review:   req.Review,
	})
}

// SubmitRating handles POST /api/ratings/{id}
func (h *RatingHandlers) SubmitRating(w http.ResponseWriter, r *http.Request) {
	recipeID, err := recipeIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req SubmitRatingRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Rating == nil {
		h.writeError(w, r, apperrors.NewBadRequestError("Rating is required"))
		return
	}

	h.submit(w, r, inbound.SubmitRatingCommand{
		RecipeID: recipeID,
		Category: req.RecipeType,
		Score:    *req.Rating,
		Review:   req.Review,
	})
}

func (h *RatingHandlers) submit(w http.ResponseWriter, r *http.Request, cmd inbound.SubmitRatingCommand) {
	cmd.UserID, _ = middleware.CurrentUserID(r.Context())

	result, err := h.ratings.SubmitRating(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	category, _ := rating.ParseCategory(cmd.Category)
	h.metrics.RatingSubmitted(string(category))

	h.writeJSON(w, http.StatusOK, RatingSavedResponse{
		Success:       true,
		Message:       "Rating saved successfully",
		AverageRating: result.AverageRating,
		RatingCount:   result.RatingCount,
	})
}

// GetRatings handles GET /api/ratings/{id}?recipe_type=. Anonymous callers
// get the aggregate and reviews; a session adds the caller's own rating.
func (h *RatingHandlers) GetRatings(w http.ResponseWriter, r *http.Request) {
	recipeID, err := recipeIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var requester *uuid.UUID
	if userID, ok := middleware.CurrentUserID(r.Context()); ok {
		requester = &userID
	}

	view, err := h.ratings.GetRatings(r.Context(), recipeID, r.URL.Query().Get("recipe_type"), requester)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// GetUserRatings handles GET /api/user/ratings
func (h *RatingHandlers) GetUserRatings(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.CurrentUserID(r.Context())

	history, err := h.ratings.GetUserRatings(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if history == nil {
		history = []inbound.RatingHistoryEntry{}
	}
	h.writeJSON(w, http.StatusOK, history)
}
