// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/alchemorsel/kitchen/internal/domain/ai"
	"github.com/alchemorsel/kitchen/internal/domain/rating"
	"github.com/alchemorsel/kitchen/internal/domain/recipe"
	"github.com/alchemorsel/kitchen/internal/domain/user"
	"github.com/google/uuid"
)

// ErrCacheMiss is returned by CacheRepository.Get for absent or expired keys
var ErrCacheMiss = errors.New("cache: key not found")

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create fails with user.ErrDuplicateEmail when the email is taken
	Create(ctx context.Context, user *user.User) error
	Update(ctx context.Context, user *user.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	// FindByEmail matches active and inactive users alike
	FindByEmail(ctx context.Context, email string) (*user.User, error)
}

// RatingRepository defines the interface for the rating ledger store
type RatingRepository interface {
	// Submit upserts the rating on (recipe, category, user) and returns the
	// aggregate recomputed inside the same transaction.
	Submit(ctx context.Context, r *rating.Rating) (rating.Aggregate, error)
	Aggregate(ctx context.Context, recipeID int64, category rating.Category) (rating.Aggregate, error)
	// FindOwn returns nil, nil when the user has not rated the recipe
	FindOwn(ctx context.Context, recipeID int64, category rating.Category, userID uuid.UUID) (*rating.Rating, error)
	RecentReviews(ctx context.Context, recipeID int64, category rating.Category, limit int) ([]rating.Review, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*rating.Rating, error)
}

// RecipeCatalog is the part of the catalog the rating ledger relies on
type RecipeCatalog interface {
	Exists(ctx context.Context, id int64) (bool, error)
	// DisplayName returns nil when the recipe no longer exists
	DisplayName(ctx context.Context, id int64) (*string, error)
}

// RecipeRepository defines the interface for catalog persistence
type RecipeRepository interface {
	RecipeCatalog

	Create(ctx context.Context, r *recipe.Recipe) (int64, error)
	Count(ctx context.Context) (int64, error)
	FindByID(ctx context.Context, id int64) (*recipe.Recipe, error)
	List(ctx context.Context) ([]*recipe.Recipe, error)
	Search(ctx context.Context, query string) ([]*recipe.Recipe, error)
	Random(ctx context.Context, limit int) ([]*recipe.Recipe, error)
	Countries(ctx context.Context) ([]string, error)
	Cuisines(ctx context.Context) ([]string, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// ChatCompleter produces the assistant's next message
type ChatCompleter interface {
	Complete(ctx context.Context, messages []ai.Message) (*Completion, error)
}

// Completion is a single chat completion
type Completion struct {
	Content string
	Model   string
	Offline bool
}
