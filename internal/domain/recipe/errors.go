package recipe

import "errors"

// Domain errors for catalog recipes
var (
	ErrNameRequired    = errors.New("recipe name is required")
	ErrCountryRequired = errors.New("recipe country is required")
	ErrNoIngredients   = errors.New("recipe must have at least one ingredient")
	ErrNoSteps         = errors.New("recipe must have at least one step")

	ErrRecipeNotFound = errors.New("recipe not found")
)
