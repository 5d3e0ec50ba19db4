// Package recipe contains the catalog recipe consumed by ratings and the assistant.
package recipe

import (
	"strings"
)

// Recipe is a catalog entry. Ingredients and steps are stored pipe-delimited.
type Recipe struct {
	id             int64
	name           string
	country        string
	origin         string
	cuisineType    string
	description    string
	image          string
	prepTime       string
	difficulty     string
	spiceLevel     string
	isVegan        bool
	isVegetarian   bool
	isGlutenFree   bool
	healthBenefits string
	ingredients    []string
	steps          []string
}

// Attributes is the flat form used by seeding and persistence
type Attributes struct {
	ID             int64
	Name           string
	Country        string
	Origin         string
	CuisineType    string
	Description    string
	Image          string
	PrepTime       string
	Difficulty     string
	SpiceLevel     string
	IsVegan        bool
	IsVegetarian   bool
	IsGlutenFree   bool
	HealthBenefits string
	Ingredients    []string
	Steps          []string
}

// NewRecipe validates catalog attributes
func NewRecipe(a Attributes) (*Recipe, error) {
	name := strings.TrimSpace(a.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if strings.TrimSpace(a.Country) == "" {
		return nil, ErrCountryRequired
	}
	if len(a.Ingredients) == 0 {
		return nil, ErrNoIngredients
	}
	if len(a.Steps) == 0 {
		return nil, ErrNoSteps
	}

	a.Name = name
	return ReconstructRecipe(a), nil
}

// ReconstructRecipe rebuilds a recipe from storage without validation
func ReconstructRecipe(a Attributes) *Recipe {
	return &Recipe{
		id:             a.ID,
		name:           a.Name,
		country:        a.Country,
		origin:         a.Origin,
		cuisineType:    a.CuisineType,
		description:    a.Description,
		image:          a.Image,
		prepTime:       a.PrepTime,
		difficulty:     a.Difficulty,
		spiceLevel:     a.SpiceLevel,
		isVegan:        a.IsVegan,
		isVegetarian:   a.IsVegetarian,
		isGlutenFree:   a.IsGlutenFree,
		healthBenefits: a.HealthBenefits,
		ingredients:    a.Ingredients,
		steps:          a.Steps,
	}
}

// Attributes returns a flat copy of the recipe
func (r *Recipe) Attributes() Attributes {
	return Attributes{
		ID:             r.id,
		Name:           r.name,
		Country:        r.country,
		Origin:         r.origin,
		CuisineType:    r.cuisineType,
		Description:    r.description,
		Image:          r.image,
		PrepTime:       r.prepTime,
		Difficulty:     r.difficulty,
		SpiceLevel:     r.spiceLevel,
		IsVegan:        r.isVegan,
		IsVegetarian:   r.isVegetarian,
		IsGlutenFree:   r.isGlutenFree,
		HealthBenefits: r.healthBenefits,
		Ingredients:    append([]string(nil), r.ingredients...),
		Steps:          append([]string(nil), r.steps...),
	}
}

func (r *Recipe) ID() int64             { return r.id }
func (r *Recipe) Name() string          { return r.name }
func (r *Recipe) Country() string       { return r.country }
func (r *Recipe) CuisineType() string   { return r.cuisineType }
func (r *Recipe) Ingredients() []string { return r.ingredients }
func (r *Recipe) Steps() []string       { return r.steps }

// IsVegetarian is true for vegan recipes as well
func (r *Recipe) IsVegetarian() bool {
	return r.isVegetarian || r.isVegan
}

// JoinList encodes a list the way the catalog table stores it
func JoinList(items []string) string {
	return strings.Join(items, "|")
}

// SplitList decodes a pipe-delimited column. Empty input yields an empty list.
func SplitList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	return strings.Split(raw, "|")
}
