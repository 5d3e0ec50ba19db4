// Package rating provides the application layer for the rating ledger
package rating

import (
	"context"
	"errors"

	"github.com/alchemorsel/kitchen/internal/domain/rating"
	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	apperrors "github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RatingService implements the rating ledger use cases
type RatingService struct {
	ratingRepo outbound.RatingRepository
	catalog    outbound.RecipeCatalog
	logger     *zap.Logger
	tracer     trace.Tracer
}

var _ inbound.RatingService = (*RatingService)(nil)

// NewRatingService creates a new rating service
func NewRatingService(
	ratingRepo outbound.RatingRepository,
	catalog outbound.RecipeCatalog,
	logger *zap.Logger,
) *RatingService {
	return &RatingService{
		ratingRepo: ratingRepo,
		catalog:    catalog,
		logger:     logger.Named("rating-service"),
		tracer:     otel.Tracer("kitchen/application/rating"),
	}
}

// SubmitRating creates or overwrites the caller's rating and returns the
// aggregate as of that write.
func (s *RatingService) SubmitRating(ctx context.Context, cmd inbound.SubmitRatingCommand) (*inbound.RatingResult, error) {
	ctx, span := s.tracer.Start(ctx, "RatingService.SubmitRating", trace.WithAttributes(
		attribute.Int64("recipe.id", cmd.RecipeID),
		attribute.String("recipe.category", cmd.Category),
	))
	defer span.End()

	if err := rating.ValidateScore(cmd.Score); err != nil {
		return nil, fail(span, apperrors.NewInvalidScoreError(cmd.Score))
	}

	category, err := rating.ParseCategory(cmd.Category)
	if err != nil {
		return nil, fail(span, apperrors.NewValidationError(err.Error()))
	}

	exists, err := s.catalog.Exists(ctx, cmd.RecipeID)
	if err != nil {
		return nil, fail(span, apperrors.NewDatabaseError("check recipe", err))
	}
	if !exists {
		return nil, fail(span, apperrors.NewRecipeNotFoundError(cmd.RecipeID))
	}

	r, err := rating.NewRating(cmd.RecipeID, category, cmd.UserID, cmd.Score, cmd.Review)
	if err != nil {
		if errors.Is(err, rating.ErrMissingUser) {
			return nil, fail(span, apperrors.NewUnauthorizedError(""))
		}
		return nil, fail(span, apperrors.NewValidationError(err.Error()))
	}

	agg, err := s.ratingRepo.Submit(ctx, r)
	if err != nil {
		if errors.Is(err, rating.ErrConflict) {
			return nil, fail(span, apperrors.NewStorageConflictError("submit rating", err))
		}
		return nil, fail(span, apperrors.NewDatabaseError("submit rating", err))
	}

	s.logger.Info("Rating submitted",
		zap.Int64("recipe_id", cmd.RecipeID),
		zap.String("category", string(category)),
		zap.String("user_id", cmd.UserID.String()),
		zap.Int("score", cmd.Score),
		zap.Int64("rating_count", agg.Count),
	)

	result := &inbound.RatingResult{RatingCount: agg.Count}
	if agg.Mean != nil {
		result.AverageRating = *agg.Mean
	}
	return result, nil
}

// GetRatings returns the aggregate, the newest reviews and, when a user is
// given, that user's own rating.
func (s *RatingService) GetRatings(ctx context.Context, recipeID int64, category string, requestingUserID *uuid.UUID) (*inbound.RatingsView, error) {
	ctx, span := s.tracer.Start(ctx, "RatingService.GetRatings", trace.WithAttributes(
		attribute.Int64("recipe.id", recipeID),
	))
	defer span.End()

	cat, err := rating.ParseCategory(category)
	if err != nil {
		return nil, fail(span, apperrors.NewValidationError(err.Error()))
	}

	agg, err := s.ratingRepo.Aggregate(ctx, recipeID, cat)
	if err != nil {
		return nil, fail(span, apperrors.NewDatabaseError("aggregate ratings", err))
	}

	view := &inbound.RatingsView{
		AverageRating: agg.Mean,
		TotalRatings:  agg.Count,
		Reviews:       []inbound.ReviewDTO{},
	}

	if requestingUserID != nil {
		own, err := s.ratingRepo.FindOwn(ctx, recipeID, cat, *requestingUserID)
		if err != nil {
			return nil, fail(span, apperrors.NewDatabaseError("get own rating", err))
		}
		if own != nil {
			view.UserRating = &inbound.OwnRating{Rating: own.Score(), Review: own.Review()}
		}
	}

	reviews, err := s.ratingRepo.RecentReviews(ctx, recipeID, cat, rating.MaxPublicReviews)
	if err != nil {
		return nil, fail(span, apperrors.NewDatabaseError("list reviews", err))
	}
	for _, r := range reviews {
		view.Reviews = append(view.Reviews, inbound.ReviewDTO{
			Rating:     r.Score,
			ReviewText: r.Text,
			AuthorName: r.AuthorName,
			UpdatedAt:  r.UpdatedAt,
		})
	}

	return view, nil
}

// GetUserRatings lists a user's ratings newest first. Recipe names come from
// the catalog and are nil for recipes it no longer has.
func (s *RatingService) GetUserRatings(ctx context.Context, userID uuid.UUID) ([]inbound.RatingHistoryEntry, error) {
	ctx, span := s.tracer.Start(ctx, "RatingService.GetUserRatings")
	defer span.End()

	ratings, err := s.ratingRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fail(span, apperrors.NewDatabaseError("list user ratings", err))
	}

	names := make(map[int64]*string)
	entries := make([]inbound.RatingHistoryEntry, 0, len(ratings))
	for _, r := range ratings {
		entry := inbound.RatingHistoryEntry{
			RecipeID:   r.RecipeID(),
			RecipeType: string(r.Category()),
			Rating:     r.Score(),
			ReviewText: r.Review(),
			CreatedAt:  r.CreatedAt(),
			UpdatedAt:  r.UpdatedAt(),
		}

		// Only regular ids point into the catalog
		if r.Category() == rating.CategoryRegular {
			name, seen := names[r.RecipeID()]
			if !seen {
				name, err = s.catalog.DisplayName(ctx, r.RecipeID())
				if err != nil {
					return nil, fail(span, apperrors.NewDatabaseError("resolve recipe name", err))
				}
				names[r.RecipeID()] = name
			}
			entry.RecipeName = name
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func fail(span trace.Span, err *apperrors.AppError) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(err.Code))
	return err
}
