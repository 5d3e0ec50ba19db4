package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alchemorsel/kitchen/internal/domain/rating"
	"github.com/alchemorsel/kitchen/internal/domain/user"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RatingRepository implements the rating ledger store using GORM
type RatingRepository struct {
	db *gorm.DB
}

// NewRatingRepository creates a new rating repository
func NewRatingRepository(db *gorm.DB) outbound.RatingRepository {
	return &RatingRepository{db: db}
}

var ratingOwnerColumns = []clause.Column{
	{Name: "recipe_id"},
	{Name: "recipe_category"},
	{Name: "user_id"},
}

// Submit runs INSERT ... ON CONFLICT (recipe_id, recipe_category, user_id)
// DO UPDATE and the aggregate query in one transaction.
func (r *RatingRepository) Submit(ctx context.Context, rt *rating.Rating) (rating.Aggregate, error) {
	model := RatingToModel(rt)
	// Postgres keeps microseconds; truncating keeps created_at == updated_at
	// on insert for both dialects.
	now := time.Now().UTC().Truncate(time.Microsecond)
	model.CreatedAt = now
	model.UpdatedAt = now

	var agg rating.Aggregate
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := tx.Clauses(clause.OnConflict{
			Columns:   ratingOwnerColumns,
			DoUpdates: clause.AssignmentColumns([]string{"score", "review_text", "updated_at"}),
		}).Create(model)
		if upsert.Error != nil {
			return upsert.Error
		}

		var err error
		agg, err = aggregate(tx, rt.RecipeID(), rt.Category())
		return err
	})
	if err != nil {
		if isConstraintViolation(err) {
			return rating.Aggregate{}, fmt.Errorf("%w: %v", rating.ErrConflict, err)
		}
		return rating.Aggregate{}, fmt.Errorf("submit rating: %w", err)
	}

	return agg, nil
}

// Aggregate recomputes mean and count for a recipe from the current rows
func (r *RatingRepository) Aggregate(ctx context.Context, recipeID int64, category rating.Category) (rating.Aggregate, error) {
	agg, err := aggregate(r.db.WithContext(ctx), recipeID, category)
	if err != nil {
		return rating.Aggregate{}, fmt.Errorf("aggregate ratings: %w", err)
	}
	return agg, nil
}

func aggregate(db *gorm.DB, recipeID int64, category rating.Category) (rating.Aggregate, error) {
	var row struct {
		ScoreTotal  int64
		RatingCount int64
	}

	err := db.Model(&RatingModel{}).
		Select("COALESCE(SUM(score), 0) AS score_total, COUNT(*) AS rating_count").
		Where("recipe_id = ? AND recipe_category = ?", recipeID, string(category)).
		Scan(&row).Error
	if err != nil {
		return rating.Aggregate{}, err
	}

	return rating.NewAggregate(row.ScoreTotal, row.RatingCount), nil
}

// FindOwn returns the user's rating of a recipe, or nil when there is none
func (r *RatingRepository) FindOwn(ctx context.Context, recipeID int64, category rating.Category, userID uuid.UUID) (*rating.Rating, error) {
	var model RatingModel

	result := r.db.WithContext(ctx).
		Where("recipe_id = ? AND recipe_category = ? AND user_id = ?", recipeID, string(category), userID).
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find own rating: %w", result.Error)
	}

	return ModelToRating(&model), nil
}

// RecentReviews returns the newest non-empty reviews with author names
func (r *RatingRepository) RecentReviews(ctx context.Context, recipeID int64, category rating.Category, limit int) ([]rating.Review, error) {
	var rows []struct {
		Score      int
		ReviewText string
		FirstName  string
		LastName   string
		UpdatedAt  time.Time
	}

	err := r.db.WithContext(ctx).
		Table("ratings AS r").
		Select("r.score, r.review_text, u.first_name, u.last_name, r.updated_at").
		Joins("JOIN users u ON u.id = r.user_id").
		Where("r.recipe_id = ? AND r.recipe_category = ? AND r.review_text <> ''", recipeID, string(category)).
		Order("r.updated_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	reviews := make([]rating.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, rating.Review{
			Score:      row.Score,
			Text:       row.ReviewText,
			AuthorName: user.DisplayName(row.FirstName, row.LastName),
			UpdatedAt:  row.UpdatedAt,
		})
	}

	return reviews, nil
}

// FindByUser lists every rating a user submitted, newest first
func (r *RatingRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*rating.Rating, error) {
	var models []RatingModel

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list user ratings: %w", err)
	}

	ratings := make([]*rating.Rating, 0, len(models))
	for i := range models {
		ratings = append(ratings, ModelToRating(&models[i]))
	}

	return ratings, nil
}
