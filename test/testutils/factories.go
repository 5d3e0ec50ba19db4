// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"context"
	"testing"

	"github.com/alchemorsel/kitchen/internal/domain/rating"
	"github.com/alchemorsel/kitchen/internal/domain/recipe"
	"github.com/alchemorsel/kitchen/internal/domain/user"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// TestPassword satisfies the password rules and is shared by every factory user
const TestPassword = "TestPassword123!"

// sharedHasher keeps the full work factor; tests reuse it instead of
// rebuilding the dummy credential per user.
var sharedHasher = user.NewPasswordHasher(user.DefaultIterations)

// Hasher returns the password hasher used by the factories
func Hasher() *user.PasswordHasher {
	return sharedHasher
}

// UserBuilder provides a fluent interface for building test users
type UserBuilder struct {
	faker     *gofakeit.Faker
	email     string
	password  string
	firstName string
	lastName  string
	oauth     *user.OAuthIdentity
	inactive  bool
}

// NewUserBuilder creates a new user builder with default values
func NewUserBuilder(faker *gofakeit.Faker) *UserBuilder {
	return &UserBuilder{
		faker:     faker,
		email:     faker.Email(),
		password:  TestPassword,
		firstName: faker.FirstName(),
		lastName:  faker.LastName(),
	}
}

// WithEmail sets the user email
func (ub *UserBuilder) WithEmail(email string) *UserBuilder {
	ub.email = email
	return ub
}

// WithPassword sets the user password
func (ub *UserBuilder) WithPassword(password string) *UserBuilder {
	ub.password = password
	return ub
}

// WithName sets the first and last name
func (ub *UserBuilder) WithName(first, last string) *UserBuilder {
	ub.firstName = first
	ub.lastName = last
	return ub
}

// AsOAuth builds an OAuth-only account for the provider
func (ub *UserBuilder) AsOAuth(provider string) *UserBuilder {
	ub.oauth = &user.OAuthIdentity{
		Provider:   provider,
		ExternalID: ub.faker.UUID(),
		AvatarURL:  ub.faker.URL(),
	}
	return ub
}

// AsInactive deactivates the built user
func (ub *UserBuilder) AsInactive() *UserBuilder {
	ub.inactive = true
	return ub
}

// Build constructs the user
func (ub *UserBuilder) Build() (*user.User, error) {
	var (
		u   *user.User
		err error
	)
	if ub.oauth != nil {
		u, err = user.NewOAuthUser(ub.email, ub.firstName, ub.lastName, *ub.oauth)
	} else {
		u, err = user.NewUser(ub.email, ub.password, ub.firstName, ub.lastName, sharedHasher)
	}
	if err != nil {
		return nil, err
	}

	if ub.inactive {
		u.Deactivate()
	}
	return u, nil
}

// RecipeBuilder provides a fluent interface for building catalog recipes
type RecipeBuilder struct {
	attrs recipe.Attributes
}

// NewRecipeBuilder creates a new recipe builder with default values
func NewRecipeBuilder(faker *gofakeit.Faker) *RecipeBuilder {
	return &RecipeBuilder{attrs: recipe.Attributes{
		Name:         faker.Dinner(),
		Country:      faker.Country(),
		Origin:       faker.City(),
		CuisineType:  faker.RandomString([]string{"Traditional", "Street Food", "Coastal", "Fusion"}),
		Description:  faker.Sentence(8),
		PrepTime:     "30 mins",
		Difficulty:   faker.RandomString([]string{"Easy", "Medium", "Hard"}),
		SpiceLevel:   "Mild",
		IsVegetarian: faker.Bool(),
		Ingredients:  []string{faker.Vegetable(), faker.Fruit(), "1 tsp salt"},
		Steps:        []string{"Prepare the ingredients", "Cook until done", "Serve warm"},
	}}
}

// WithName sets the recipe name
func (rb *RecipeBuilder) WithName(name string) *RecipeBuilder {
	rb.attrs.Name = name
	return rb
}

// WithCountry sets the recipe country
func (rb *RecipeBuilder) WithCountry(country string) *RecipeBuilder {
	rb.attrs.Country = country
	return rb
}

// WithCuisine sets the cuisine type
func (rb *RecipeBuilder) WithCuisine(cuisine string) *RecipeBuilder {
	rb.attrs.CuisineType = cuisine
	return rb
}

// WithIngredients sets the ingredient list
func (rb *RecipeBuilder) WithIngredients(ingredients ...string) *RecipeBuilder {
	rb.attrs.Ingredients = ingredients
	return rb
}

// Build constructs the recipe
func (rb *RecipeBuilder) Build() (*recipe.Recipe, error) {
	return recipe.NewRecipe(rb.attrs)
}

// Fixtures persists factory-built entities through the real repositories
type Fixtures struct {
	t       *testing.T
	faker   *gofakeit.Faker
	users   outbound.UserRepository
	recipes outbound.RecipeRepository
	ratings outbound.RatingRepository
}

// NewFixtures creates a fixture helper with a seeded faker
func NewFixtures(t *testing.T, seed int64, users outbound.UserRepository, recipes outbound.RecipeRepository, ratings outbound.RatingRepository) *Fixtures {
	return &Fixtures{
		t:       t,
		faker:   gofakeit.New(seed),
		users:   users,
		recipes: recipes,
		ratings: ratings,
	}
}

// Faker exposes the seeded faker
func (f *Fixtures) Faker() *gofakeit.Faker {
	return f.faker
}

// User stores a password user built with the given options
func (f *Fixtures) User(opts ...func(*UserBuilder)) *user.User {
	f.t.Helper()

	b := NewUserBuilder(f.faker)
	for _, opt := range opts {
		opt(b)
	}

	u, err := b.Build()
	require.NoError(f.t, err)
	require.NoError(f.t, f.users.Create(context.Background(), u))
	return u
}

// Recipe stores a catalog recipe and returns its ID
func (f *Fixtures) Recipe(opts ...func(*RecipeBuilder)) int64 {
	f.t.Helper()

	b := NewRecipeBuilder(f.faker)
	for _, opt := range opts {
		opt(b)
	}

	rec, err := b.Build()
	require.NoError(f.t, err)

	id, err := f.recipes.Create(context.Background(), rec)
	require.NoError(f.t, err)
	return id
}

// Rating submits a rating directly through the repository
func (f *Fixtures) Rating(recipeID int64, category rating.Category, userID uuid.UUID, score int, review string) rating.Aggregate {
	f.t.Helper()

	r, err := rating.NewRating(recipeID, category, userID, score, review)
	require.NoError(f.t, err)

	agg, err := f.ratings.Submit(context.Background(), r)
	require.NoError(f.t, err)
	return agg
}
