package inbound

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RatingService defines the rating ledger use cases
type RatingService interface {
	SubmitRating(ctx context.Context, cmd SubmitRatingCommand) (*RatingResult, error)
	GetRatings(ctx context.Context, recipeID int64, category string, requestingUserID *uuid.UUID) (*RatingsView, error)
	GetUserRatings(ctx context.Context, userID uuid.UUID) ([]RatingHistoryEntry, error)
}

// SubmitRatingCommand creates or overwrites the caller's rating of a recipe
type SubmitRatingCommand struct {
	RecipeID int64
	Category string
	UserID   uuid.UUID
	Score    int
	Review   string
}

// RatingResult is the aggregate recomputed right after a submission
type RatingResult struct {
	AverageRating float64 `json:"average_rating"`
	RatingCount   int64   `json:"rating_count"`
}

// RatingsView is everything shown next to a recipe
type RatingsView struct {
	AverageRating *float64    `json:"average_rating"`
	TotalRatings  int64       `json:"total_ratings"`
	UserRating    *OwnRating  `json:"user_rating"`
	Reviews       []ReviewDTO `json:"reviews"`
}

// OwnRating is the requesting user's own rating
type OwnRating struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

// ReviewDTO is a public review
type ReviewDTO struct {
	Rating     int       `json:"rating"`
	ReviewText string    `json:"review_text"`
	AuthorName string    `json:"author_name"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RatingHistoryEntry is one rating from a user's history
type RatingHistoryEntry struct {
	RecipeID   int64     `json:"recipe_id"`
	RecipeType string    `json:"recipe_type"`
	RecipeName *string   `json:"recipe_name"`
	Rating     int       `json:"rating"`
	ReviewText string    `json:"review_text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
