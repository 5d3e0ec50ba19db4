package gorm

import (
	"context"
	"testing"
	"time"

	"github.com/alchemorsel/kitchen/internal/domain/rating"
	"github.com/alchemorsel/kitchen/internal/domain/recipe"
	"github.com/alchemorsel/kitchen/internal/domain/user"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/alchemorsel/kitchen/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// RepositoryTestSuite runs the repositories against a migrated database:
// a fresh in-memory SQLite per test, or a shared one emptied between tests
type RepositoryTestSuite struct {
	suite.Suite
	ctx      context.Context
	shared   *gorm.DB
	db       *gorm.DB
	users    outbound.UserRepository
	recipes  outbound.RecipeRepository
	ratings  outbound.RatingRepository
	fixtures *testutils.Fixtures
	helper   *testutils.DatabaseHelper
}

func (suite *RepositoryTestSuite) SetupTest() {
	suite.ctx = context.Background()
	if suite.shared != nil {
		suite.db = suite.shared
		suite.Require().NoError(testutils.NewDatabaseHelper(suite.db).TruncateAllTables())
	} else {
		suite.db = testutils.NewTestDB(suite.T())
	}
	suite.users = NewUserRepository(suite.db)
	suite.recipes = NewRecipeRepository(suite.db)
	suite.ratings = NewRatingRepository(suite.db)
	suite.fixtures = testutils.NewFixtures(suite.T(), 42, suite.users, suite.recipes, suite.ratings)
	suite.helper = testutils.NewDatabaseHelper(suite.db)
}

func (suite *RepositoryTestSuite) TestUserRepository() {
	suite.Run("round trips a password user", func() {
		// Arrange
		u, err := testutils.NewUserBuilder(suite.fixtures.Faker()).
			WithEmail("  Cook@Example.COM ").
			WithName("Wanjiru", "Kamau").
			Build()
		suite.Require().NoError(err)
		u.SetPreferences([]string{"Kenyan", "Ethiopian"}, true)

		// Act
		suite.Require().NoError(suite.users.Create(suite.ctx, u))
		found, err := suite.users.FindByEmail(suite.ctx, "COOK@example.com")

		// Assert
		suite.Require().NoError(err)
		suite.Equal(u.ID(), found.ID())
		suite.Equal("cook@example.com", found.Email())
		suite.Equal("Wanjiru Kamau", found.DisplayName())
		suite.Equal([]byte(u.Credential()), []byte(found.Credential()))
		suite.Equal([]string{"Kenyan", "Ethiopian"}, found.CuisinePreferences())
		suite.True(found.NewsletterSubscribed())
		suite.True(found.IsActive())
		suite.Nil(found.OAuth())
		suite.True(u.CreatedAt().Equal(found.CreatedAt()))
	})

	suite.Run("duplicate email maps to ErrDuplicateEmail", func() {
		first := suite.fixtures.User()

		dup, err := testutils.NewUserBuilder(suite.fixtures.Faker()).WithEmail(first.Email()).Build()
		suite.Require().NoError(err)

		err = suite.users.Create(suite.ctx, dup)
		suite.ErrorIs(err, user.ErrDuplicateEmail)
	})

	suite.Run("oauth-only user has no credential", func() {
		u, err := testutils.NewUserBuilder(suite.fixtures.Faker()).AsOAuth("google").Build()
		suite.Require().NoError(err)
		suite.Require().NoError(suite.users.Create(suite.ctx, u))

		found, err := suite.users.FindByID(suite.ctx, u.ID())
		suite.Require().NoError(err)
		suite.False(found.HasCredential())
		suite.Require().NotNil(found.OAuth())
		suite.Equal("google", found.OAuth().Provider)
	})

	suite.Run("update keeps credential when linking", func() {
		u := suite.fixtures.User()
		suite.Require().NoError(u.LinkOAuth(user.OAuthIdentity{Provider: "facebook", ExternalID: "fb-1", AvatarURL: "https://a/x.png"}))

		suite.Require().NoError(suite.users.Update(suite.ctx, u))

		found, err := suite.users.FindByID(suite.ctx, u.ID())
		suite.Require().NoError(err)
		suite.True(found.HasCredential())
		suite.Equal("fb-1", found.OAuth().ExternalID)
		suite.Equal("https://a/x.png", found.OAuth().AvatarURL)
	})

	suite.Run("missing user", func() {
		_, err := suite.users.FindByID(suite.ctx, uuid.New())
		suite.ErrorIs(err, user.ErrUserNotFound)

		_, err = suite.users.FindByEmail(suite.ctx, "nobody@example.com")
		suite.ErrorIs(err, user.ErrUserNotFound)

		ghost, err := testutils.NewUserBuilder(suite.fixtures.Faker()).Build()
		suite.Require().NoError(err)
		suite.ErrorIs(suite.users.Update(suite.ctx, ghost), user.ErrUserNotFound)
	})
}

func (suite *RepositoryTestSuite) TestRatingUpsert() {
	u := suite.fixtures.User()
	recipeID := suite.fixtures.Recipe()

	r, err := rating.NewRating(recipeID, rating.CategoryRegular, u.ID(), 3, "  fine  ")
	suite.Require().NoError(err)

	agg, err := suite.ratings.Submit(suite.ctx, r)
	suite.Require().NoError(err)
	suite.Equal(int64(1), agg.Count)
	suite.Require().NotNil(agg.Mean)
	suite.Equal(3.0, *agg.Mean)

	first, err := suite.ratings.FindOwn(suite.ctx, recipeID, rating.CategoryRegular, u.ID())
	suite.Require().NoError(err)
	suite.Require().NotNil(first)
	suite.Equal("fine", first.Review())
	suite.True(first.CreatedAt().Equal(first.UpdatedAt()))

	time.Sleep(2 * time.Millisecond)

	again, err := rating.NewRating(recipeID, rating.CategoryRegular, u.ID(), 5, "better")
	suite.Require().NoError(err)
	agg, err = suite.ratings.Submit(suite.ctx, again)
	suite.Require().NoError(err)

	suite.Equal(int64(1), agg.Count)
	suite.Equal(5.0, *agg.Mean)

	second, err := suite.ratings.FindOwn(suite.ctx, recipeID, rating.CategoryRegular, u.ID())
	suite.Require().NoError(err)
	suite.Equal(first.ID(), second.ID())
	suite.Equal(5, second.Score())
	suite.Equal("better", second.Review())
	suite.True(second.CreatedAt().Equal(first.CreatedAt()))
	suite.True(second.UpdatedAt().After(first.UpdatedAt()))

	count, err := suite.helper.CountRecords("ratings")
	suite.Require().NoError(err)
	suite.Equal(int64(1), count)
}

func (suite *RepositoryTestSuite) TestRatingCategoriesAreSeparate() {
	u := suite.fixtures.User()
	recipeID := suite.fixtures.Recipe()

	suite.fixtures.Rating(recipeID, rating.CategoryRegular, u.ID(), 2, "")
	agg := suite.fixtures.Rating(recipeID, rating.CategoryAI, u.ID(), 4, "")

	suite.Equal(int64(1), agg.Count)
	suite.Equal(4.0, *agg.Mean)

	regular, err := suite.ratings.Aggregate(suite.ctx, recipeID, rating.CategoryRegular)
	suite.Require().NoError(err)
	suite.Equal(2.0, *regular.Mean)
}

func (suite *RepositoryTestSuite) TestAggregateEmpty() {
	agg, err := suite.ratings.Aggregate(suite.ctx, 999, rating.CategoryRegular)
	suite.Require().NoError(err)
	suite.Nil(agg.Mean)
	suite.Zero(agg.Count)
}

func (suite *RepositoryTestSuite) TestCheckConstraintRejectsBadScore() {
	u := suite.fixtures.User()

	bad := rating.ReconstructRating(uuid.Nil, 1, rating.CategoryRegular, u.ID(), 9, "", time.Time{}, time.Time{})
	_, err := suite.ratings.Submit(suite.ctx, bad)

	suite.ErrorIs(err, rating.ErrConflict)
	count, err := suite.helper.CountRecords("ratings")
	suite.Require().NoError(err)
	suite.Zero(count)
}

func (suite *RepositoryTestSuite) TestForeignKeyRejectsUnknownUser() {
	r, err := rating.NewRating(1, rating.CategoryRegular, uuid.New(), 4, "")
	suite.Require().NoError(err)

	_, err = suite.ratings.Submit(suite.ctx, r)
	suite.ErrorIs(err, rating.ErrConflict)
}

func (suite *RepositoryTestSuite) TestRecentReviews() {
	recipeID := suite.fixtures.Recipe()

	var authors []*user.User
	for i := 0; i < 12; i++ {
		u := suite.fixtures.User()
		authors = append(authors, u)
		suite.fixtures.Rating(recipeID, rating.CategoryRegular, u.ID(), 1+i%5, "review")
		time.Sleep(time.Millisecond)
	}
	silent := suite.fixtures.User()
	suite.fixtures.Rating(recipeID, rating.CategoryRegular, silent.ID(), 5, "   ")

	reviews, err := suite.ratings.RecentReviews(suite.ctx, recipeID, rating.CategoryRegular, rating.MaxPublicReviews)
	suite.Require().NoError(err)

	suite.Len(reviews, 10)
	suite.Equal(authors[11].DisplayName(), reviews[0].AuthorName)
	for i := 1; i < len(reviews); i++ {
		suite.False(reviews[i].UpdatedAt.After(reviews[i-1].UpdatedAt))
		suite.NotEmpty(reviews[i].Text)
	}
}

func (suite *RepositoryTestSuite) TestFindByUser() {
	u := suite.fixtures.User()
	first := suite.fixtures.Recipe()
	second := suite.fixtures.Recipe()

	suite.fixtures.Rating(first, rating.CategoryRegular, u.ID(), 4, "")
	time.Sleep(time.Millisecond)
	suite.fixtures.Rating(second, rating.CategoryAI, u.ID(), 2, "")

	list, err := suite.ratings.FindByUser(suite.ctx, u.ID())
	suite.Require().NoError(err)
	suite.Require().Len(list, 2)
	suite.Equal(second, list[0].RecipeID())
	suite.Equal(rating.CategoryAI, list[0].Category())
	suite.Equal(first, list[1].RecipeID())
}

func (suite *RepositoryTestSuite) TestRecipeCatalog() {
	ugali := suite.fixtures.Recipe(func(b *testutils.RecipeBuilder) {
		b.WithName("Ugali").WithCountry("Kenya").WithCuisine("Kenyan Traditional").
			WithIngredients("2 cups white cornmeal", "3 cups water")
	})
	suite.fixtures.Recipe(func(b *testutils.RecipeBuilder) {
		b.WithName("Injera").WithCountry("Ethiopia").WithCuisine("Ethiopian").
			WithIngredients("teff flour", "water")
	})
	suite.fixtures.Recipe(func(b *testutils.RecipeBuilder) {
		b.WithName("100% Rye").WithCountry("Kenya").WithCuisine("Bakery").
			WithIngredients("rye")
	})

	suite.Run("exists and display name", func() {
		ok, err := suite.recipes.Exists(suite.ctx, ugali)
		suite.Require().NoError(err)
		suite.True(ok)

		name, err := suite.recipes.DisplayName(suite.ctx, ugali)
		suite.Require().NoError(err)
		suite.Require().NotNil(name)
		suite.Equal("Ugali", *name)

		ok, err = suite.recipes.Exists(suite.ctx, 424242)
		suite.Require().NoError(err)
		suite.False(ok)

		name, err = suite.recipes.DisplayName(suite.ctx, 424242)
		suite.Require().NoError(err)
		suite.Nil(name)
	})

	suite.Run("find by id", func() {
		rec, err := suite.recipes.FindByID(suite.ctx, ugali)
		suite.Require().NoError(err)
		suite.Equal([]string{"2 cups white cornmeal", "3 cups water"}, rec.Ingredients())

		_, err = suite.recipes.FindByID(suite.ctx, 424242)
		suite.ErrorIs(err, recipe.ErrRecipeNotFound)
	})

	suite.Run("search is case-insensitive", func() {
		found, err := suite.recipes.Search(suite.ctx, "CORNMEAL")
		suite.Require().NoError(err)
		suite.Require().Len(found, 1)
		suite.Equal("Ugali", found[0].Name())

		found, err = suite.recipes.Search(suite.ctx, "kenya")
		suite.Require().NoError(err)
		suite.Len(found, 2)
	})

	suite.Run("search escapes wildcards", func() {
		found, err := suite.recipes.Search(suite.ctx, "100%")
		suite.Require().NoError(err)
		suite.Require().Len(found, 1)
		suite.Equal("100% Rye", found[0].Name())
	})

	suite.Run("list, random and facets", func() {
		all, err := suite.recipes.List(suite.ctx)
		suite.Require().NoError(err)
		suite.Len(all, 3)
		suite.Equal("100% Rye", all[0].Name())

		random, err := suite.recipes.Random(suite.ctx, 2)
		suite.Require().NoError(err)
		suite.Len(random, 2)

		countries, err := suite.recipes.Countries(suite.ctx)
		suite.Require().NoError(err)
		suite.Equal([]string{"Ethiopia", "Kenya"}, countries)

		cuisines, err := suite.recipes.Cuisines(suite.ctx)
		suite.Require().NoError(err)
		suite.Equal([]string{"Bakery", "Ethiopian", "Kenyan Traditional"}, cuisines)

		count, err := suite.recipes.Count(suite.ctx)
		suite.Require().NoError(err)
		suite.Equal(int64(3), count)
	})
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
