package gorm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alchemorsel/kitchen/internal/domain/recipe"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"gorm.io/gorm"
)

// RecipeRepository implements the catalog repository interface using GORM
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *gorm.DB) outbound.RecipeRepository {
	return &RecipeRepository{db: db}
}

// Create inserts a recipe and returns its generated ID
func (r *RecipeRepository) Create(ctx context.Context, rec *recipe.Recipe) (int64, error) {
	model := RecipeToModel(rec)
	model.ID = 0

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return 0, fmt.Errorf("create recipe: %w", err)
	}

	return model.ID, nil
}

// Count returns the number of catalog recipes
func (r *RecipeRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&RecipeModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count recipes: %w", err)
	}
	return count, nil
}

// Exists checks if a recipe exists by ID
func (r *RecipeRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64

	result := r.db.WithContext(ctx).Model(&RecipeModel{}).Where("id = ?", id).Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("check recipe exists: %w", result.Error)
	}

	return count > 0, nil
}

// DisplayName returns the recipe name, or nil if the recipe is gone
func (r *RecipeRepository) DisplayName(ctx context.Context, id int64) (*string, error) {
	var names []string

	err := r.db.WithContext(ctx).Model(&RecipeModel{}).Where("id = ?", id).Limit(1).Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("recipe display name: %w", err)
	}
	if len(names) == 0 {
		return nil, nil
	}

	return &names[0], nil
}

// FindByID finds a recipe by ID
func (r *RecipeRepository) FindByID(ctx context.Context, id int64) (*recipe.Recipe, error) {
	var model RecipeModel

	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, recipe.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("find recipe: %w", result.Error)
	}

	return ModelToRecipe(&model), nil
}

// List returns every recipe ordered by name
func (r *RecipeRepository) List(ctx context.Context) ([]*recipe.Recipe, error) {
	var models []RecipeModel
	if err := r.db.WithContext(ctx).Order("name").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return toRecipes(models), nil
}

var searchColumns = []string{"name", "country", "origin", "cuisine_type", "description", "ingredients"}

// Search matches the query case-insensitively against the text columns
func (r *RecipeRepository) Search(ctx context.Context, query string) ([]*recipe.Recipe, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"

	conditions := make([]string, 0, len(searchColumns))
	args := make([]interface{}, 0, len(searchColumns))
	for _, col := range searchColumns {
		conditions = append(conditions, "LOWER("+col+`) LIKE ? ESCAPE '\'`)
		args = append(args, pattern)
	}

	var models []RecipeModel
	err := r.db.WithContext(ctx).
		Where(strings.Join(conditions, " OR "), args...).
		Order("name").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("search recipes: %w", err)
	}

	return toRecipes(models), nil
}

// Random returns up to limit recipes in random order
func (r *RecipeRepository) Random(ctx context.Context, limit int) ([]*recipe.Recipe, error) {
	var models []RecipeModel
	if err := r.db.WithContext(ctx).Order("RANDOM()").Limit(limit).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("random recipes: %w", err)
	}
	return toRecipes(models), nil
}

// Countries lists the distinct countries in the catalog
func (r *RecipeRepository) Countries(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "country")
}

// Cuisines lists the distinct cuisine types in the catalog
func (r *RecipeRepository) Cuisines(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "cuisine_type")
}

func (r *RecipeRepository) distinct(ctx context.Context, column string) ([]string, error) {
	var values []string
	err := r.db.WithContext(ctx).
		Model(&RecipeModel{}).
		Distinct(column).
		Order(column).
		Pluck(column, &values).Error
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	return values, nil
}

func toRecipes(models []RecipeModel) []*recipe.Recipe {
	recipes := make([]*recipe.Recipe, 0, len(models))
	for i := range models {
		recipes = append(recipes, ModelToRecipe(&models[i]))
	}
	return recipes
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
