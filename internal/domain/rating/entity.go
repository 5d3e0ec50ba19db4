// Package rating defines the rating ledger domain: one opinion per user,
// recipe and category, plus the aggregate derived from those opinions.
package rating

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MinScore = 1
	MaxScore = 5

	// MaxPublicReviews bounds the review list returned with an aggregate
	MaxPublicReviews = 10
)

// Category namespaces recipe ids
type Category string

const (
	CategoryRegular Category = "regular"
	CategoryAI      Category = "ai"
)

// ParseCategory maps an empty value to CategoryRegular and rejects unknown ones
func ParseCategory(raw string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(raw))); c {
	case "":
		return CategoryRegular, nil
	case CategoryRegular, CategoryAI:
		return c, nil
	default:
		return "", ErrInvalidCategory
	}
}

// Rating is a single user's opinion of a single recipe
type Rating struct {
	id        uuid.UUID
	recipeID  int64
	category  Category
	userID    uuid.UUID
	score     int
	review    string
	createdAt time.Time
	updatedAt time.Time
}

// NewRating validates a submission. Timestamps are set by the store.
func NewRating(recipeID int64, category Category, userID uuid.UUID, score int, review string) (*Rating, error) {
	if err := ValidateScore(score); err != nil {
		return nil, err
	}
	if category == "" {
		category = CategoryRegular
	}
	if userID == uuid.Nil {
		return nil, ErrMissingUser
	}

	return &Rating{
		id:       uuid.New(),
		recipeID: recipeID,
		category: category,
		userID:   userID,
		score:    score,
		review:   strings.TrimSpace(review),
	}, nil
}

// ReconstructRating rebuilds a rating from storage
func ReconstructRating(id uuid.UUID, recipeID int64, category Category, userID uuid.UUID, score int, review string, createdAt, updatedAt time.Time) *Rating {
	return &Rating{
		id:        id,
		recipeID:  recipeID,
		category:  category,
		userID:    userID,
		score:     score,
		review:    review,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (r *Rating) ID() uuid.UUID        { return r.id }
func (r *Rating) RecipeID() int64      { return r.recipeID }
func (r *Rating) Category() Category   { return r.category }
func (r *Rating) UserID() uuid.UUID    { return r.userID }
func (r *Rating) Score() int           { return r.score }
func (r *Rating) Review() string       { return r.review }
func (r *Rating) CreatedAt() time.Time { return r.createdAt }
func (r *Rating) UpdatedAt() time.Time { return r.updatedAt }

// ValidateScore checks the score is within [MinScore, MaxScore]
func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return ErrInvalidScore
	}
	return nil
}

// Aggregate is the mean and count over every rating of a recipe
type Aggregate struct {
	Mean  *float64
	Count int64
}

// NewAggregate builds an aggregate from a score sum and row count.
// The mean is nil when there are no rows. It is rounded to one decimal,
// halves away from zero, in integer tenths so 23/20 gives 1.2.
func NewAggregate(sum, count int64) Aggregate {
	if count <= 0 {
		return Aggregate{}
	}
	tenths := (sum*20 + count) / (2 * count)
	mean := float64(tenths) / 10
	return Aggregate{Mean: &mean, Count: count}
}

// Review is a public review with its author
type Review struct {
	Score      int
	Text       string
	AuthorName string
	UpdatedAt  time.Time
}
