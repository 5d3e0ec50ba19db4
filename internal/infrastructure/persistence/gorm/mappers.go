// Package gorm provides mapping between domain entities and GORM models
package gorm

import (
	"strings"

	"github.com/alchemorsel/kitchen/internal/domain/rating"
	"github.com/alchemorsel/kitchen/internal/domain/recipe"
	"github.com/alchemorsel/kitchen/internal/domain/user"
)

// UserToModel converts a domain user to a GORM model
func UserToModel(u *user.User) *UserModel {
	model := &UserModel{
		ID:                   u.ID(),
		Email:                u.Email(),
		FirstName:            u.FirstName(),
		LastName:             u.LastName(),
		CuisinePreferences:   strings.Join(u.CuisinePreferences(), ","),
		NewsletterSubscribed: u.NewsletterSubscribed(),
		IsActive:             u.IsActive(),
		CreatedAt:            u.CreatedAt(),
		UpdatedAt:            u.UpdatedAt(),
	}

	if u.HasCredential() {
		model.Credential = []byte(u.Credential())
	}

	if identity := u.OAuth(); identity != nil {
		model.OAuthProvider = stringPtr(identity.Provider)
		model.OAuthID = stringPtr(identity.ExternalID)
		if identity.AvatarURL != "" {
			model.AvatarURL = stringPtr(identity.AvatarURL)
		}
	}

	return model
}

// ModelToUser converts a GORM model to a domain user
func ModelToUser(model *UserModel) *user.User {
	var identity *user.OAuthIdentity
	if model.OAuthProvider != nil && model.OAuthID != nil {
		identity = &user.OAuthIdentity{
			Provider:   *model.OAuthProvider,
			ExternalID: *model.OAuthID,
			AvatarURL:  derefString(model.AvatarURL),
		}
	}

	var cuisines []string
	if model.CuisinePreferences != "" {
		cuisines = strings.Split(model.CuisinePreferences, ",")
	}

	return user.ReconstructUser(user.ReconstructParams{
		ID:                 model.ID,
		Email:              model.Email,
		Credential:         model.Credential,
		FirstName:          model.FirstName,
		LastName:           model.LastName,
		OAuth:              identity,
		IsActive:           model.IsActive,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
		CuisinePreferences: cuisines,
		Newsletter:         model.NewsletterSubscribed,
	})
}

// RatingToModel converts a domain rating to a GORM model
func RatingToModel(r *rating.Rating) *RatingModel {
	return &RatingModel{
		ID:             r.ID(),
		RecipeID:       r.RecipeID(),
		RecipeCategory: string(r.Category()),
		UserID:         r.UserID(),
		Score:          r.Score(),
		ReviewText:     r.Review(),
		CreatedAt:      r.CreatedAt(),
		UpdatedAt:      r.UpdatedAt(),
	}
}

// ModelToRating converts a GORM model to a domain rating
func ModelToRating(model *RatingModel) *rating.Rating {
	return rating.ReconstructRating(
		model.ID,
		model.RecipeID,
		rating.Category(model.RecipeCategory),
		model.UserID,
		model.Score,
		model.ReviewText,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

// RecipeToModel converts a domain recipe to a GORM model
func RecipeToModel(r *recipe.Recipe) *RecipeModel {
	a := r.Attributes()
	return &RecipeModel{
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
		IsVegetarian:   a.IsVegetarian,
		IsGlutenFree:   a.IsGlutenFree,
		HealthBenefits: a.HealthBenefits,
		Ingredients:    recipe.JoinList(a.Ingredients),
		Steps:          recipe.JoinList(a.Steps),
	}
}

// ModelToRecipe converts a GORM model to a domain recipe
func ModelToRecipe(model *RecipeModel) *recipe.Recipe {
	return recipe.ReconstructRecipe(recipe.Attributes{
		ID:             model.ID,
		Name:           model.Name,
		Country:        model.Country,
		Origin:         model.Origin,
		CuisineType:    model.CuisineType,
		Description:    model.Description,
		Image:          model.Image,
		PrepTime:       model.PrepTime,
		Difficulty:     model.Difficulty,
		SpiceLevel:     model.SpiceLevel,
		IsVegan:        model.IsVegan,
		IsVegetarian:   model.IsVegetarian,
		IsGlutenFree:   model.IsGlutenFree,
		HealthBenefits: model.HealthBenefits,
		Ingredients:    recipe.SplitList(model.Ingredients),
		Steps:          recipe.SplitList(model.Steps),
	})
}

func stringPtr(s string) *string {
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
