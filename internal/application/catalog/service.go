// Package catalog provides the read-only recipe catalog use cases
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alchemorsel/kitchen/internal/domain/recipe"
	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	apperrors "github.com/alchemorsel/kitchen/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// SurpriseCount is how many random recipes SurpriseMe returns
	SurpriseCount = 6

	recipeCacheTTL = time.Hour
)

// CatalogService implements the catalog use cases
type CatalogService struct {
	recipeRepo outbound.RecipeRepository
	cache      outbound.CacheRepository
	logger     *zap.Logger
	tracer     trace.Tracer
}

var _ inbound.CatalogService = (*CatalogService)(nil)

// NewCatalogService creates a new catalog service
func NewCatalogService(
	recipeRepo outbound.RecipeRepository,
	cache outbound.CacheRepository,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		recipeRepo: recipeRepo,
		cache:      cache,
		logger:     logger.Named("catalog-service"),
		tracer:     otel.Tracer("kitchen/application/catalog"),
	}
}

// ListRecipes returns the whole catalog ordered by name
func (s *CatalogService) ListRecipes(ctx context.Context) ([]inbound.RecipeDTO, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.ListRecipes")
	defer span.End()

	recipes, err := s.recipeRepo.List(ctx)
	if err != nil {
		return nil, fail(span, apperrors.NewDatabaseError("list recipes", err))
	}
	return toDTOs(recipes), nil
}

// SearchRecipes matches name, country, origin, cuisine, description and
// ingredients. A blank query lists everything.
func (s *CatalogService) SearchRecipes(ctx context.Context, query string) ([]inbound.RecipeDTO, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListRecipes(ctx)
	}

	ctx, span := s.tracer.Start(ctx, "CatalogService.SearchRecipes",
		trace.WithAttributes(attribute.String("search.query", query)))
	defer span.End()

	recipes, err := s.recipeRepo.Search(ctx, query)
	if err != nil {
		return nil, fail(span, apperrors.NewDatabaseError("search recipes", err))
	}

	s.logger.Debug("Recipe search", zap.String("query", query), zap.Int("results", len(recipes)))
	return toDTOs(recipes), nil
}

// SurpriseMe returns a random handful of recipes
func (s *CatalogService) SurpriseMe(ctx context.Context) ([]inbound.RecipeDTO, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.SurpriseMe")
	defer span.End()

	recipes, err := s.recipeRepo.Random(ctx, SurpriseCount)
	if err != nil {
		return nil, fail(span, apperrors.NewDatabaseError("random recipes", err))
	}
	return toDTOs(recipes), nil
}

// GetRecipe returns one recipe, served from the cache when possible
func (s *CatalogService) GetRecipe(ctx context.Context, id int64) (*inbound.RecipeDTO, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.GetRecipe",
		trace.WithAttributes(attribute.Int64("recipe.id", id)))
	defer span.End()

	if cached := s.getCachedRecipe(ctx, id); cached != nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}

	r, err := s.recipeRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, recipe.ErrRecipeNotFound) {
			return nil, fail(span, apperrors.NewRecipeNotFoundError(id))
		}
		return nil, fail(span, apperrors.NewDatabaseError("get recipe", err))
	}

	dto := toDTO(r)
	s.cacheRecipe(ctx, &dto)
	return &dto, nil
}

// Countries lists the distinct countries in the catalog
func (s *CatalogService) Countries(ctx context.Context) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.Countries")
	defer span.End()

	countries, err := s.recipeRepo.Countries(ctx)
	if err != nil {
		return nil, fail(span, apperrors.NewDatabaseError("list countries", err))
	}
	return nonNil(countries), nil
}

// Cuisines lists the distinct cuisine types in the catalog
func (s *CatalogService) Cuisines(ctx context.Context) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.Cuisines")
	defer span.End()

	cuisines, err := s.recipeRepo.Cuisines(ctx)
	if err != nil {
		return nil, fail(span, apperrors.NewDatabaseError("list cuisines", err))
	}
	return nonNil(cuisines), nil
}

func recipeCacheKey(id int64) string {
	return fmt.Sprintf("catalog:recipe:%d", id)
}

// getCachedRecipe treats every cache failure as a miss
func (s *CatalogService) getCachedRecipe(ctx context.Context, id int64) *inbound.RecipeDTO {
	data, err := s.cache.Get(ctx, recipeCacheKey(id))
	if err != nil {
		if !errors.Is(err, outbound.ErrCacheMiss) {
			s.logger.Warn("Recipe cache read failed", zap.Int64("recipe_id", id), zap.Error(err))
		}
		return nil
	}

	var dto inbound.RecipeDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		s.logger.Warn("Discarding corrupt cached recipe", zap.Int64("recipe_id", id), zap.Error(err))
		return nil
	}
	return &dto
}

func (s *CatalogService) cacheRecipe(ctx context.Context, dto *inbound.RecipeDTO) {
	data, err := json.Marshal(dto)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, recipeCacheKey(dto.ID), data, recipeCacheTTL); err != nil {
		s.logger.Warn("Recipe cache write failed", zap.Int64("recipe_id", dto.ID), zap.Error(err))
	}
}

func toDTOs(recipes []*recipe.Recipe) []inbound.RecipeDTO {
	dtos := make([]inbound.RecipeDTO, 0, len(recipes))
	for _, r := range recipes {
		dtos = append(dtos, toDTO(r))
	}
	return dtos
}

func toDTO(r *recipe.Recipe) inbound.RecipeDTO {
	a := r.Attributes()
	dto := inbound.RecipeDTO{
		ID:             a.ID,
		Name:           a.Name,
		Country:        a.Country,
		Origin:         a.Origin,
		CuisineType:    a.CuisineType,
		Description:    a.Description,
		Image:          a.Image,
		PrepTime:       a.PrepTime,
		Difficulty:     a.Difficulty,
		SpiceLevel:     a.SpiceLevel,
		IsVegan:        a.IsVegan,
		IsVegetarian:   r.IsVegetarian(),
		IsGlutenFree:   a.IsGlutenFree,
		HealthBenefits: a.HealthBenefits,
		Ingredients:    nonNil(a.Ingredients),
		Steps:          nonNil(a.Steps),
	}
	return dto
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func fail(span trace.Span, err *apperrors.AppError) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(err.Code))
	return err
}
