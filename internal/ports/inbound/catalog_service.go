package inbound

import "context"

// CatalogService exposes the read-only recipe catalog
type CatalogService interface {
	ListRecipes(ctx context.Context) ([]RecipeDTO, error)
	SearchRecipes(ctx context.Context, query string) ([]RecipeDTO, error)
	SurpriseMe(ctx context.Context) ([]RecipeDTO, error)
	GetRecipe(ctx context.Context, id int64) (*RecipeDTO, error)
	Countries(ctx context.Context) ([]string, error)
	Cuisines(ctx context.Context) ([]string, error)
}

// RecipeDTO is a catalog recipe as returned to clients
type RecipeDTO struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Country        string   `json:"country"`
	Origin         string   `json:"origin"`
	CuisineType    string   `json:"cuisine_type"`
	Description    string   `json:"description"`
	Image          string   `json:"image"`
	PrepTime       string   `json:"prep_time"`
	Difficulty     string   `json:"difficulty"`
	SpiceLevel     string   `json:"spice_level"`
	IsVegan        bool     `json:"is_vegan"`
	IsVegetarian   bool     `json:"is_vegetarian"`
	IsGlutenFree   bool     `json:"is_gluten_free"`
	HealthBenefits string   `json:"health_benefits"`
	Ingredients    []string `json:"ingredients"`
	Steps          []string `json:"steps"`
}
