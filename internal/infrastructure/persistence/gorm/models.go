// Package gorm provides GORM model definitions for the application.
// The schema itself is owned by the SQL migrations; tags here only describe it.
package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserModel represents the GORM model for users
type UserModel struct {
	ID                   uuid.UUID `gorm:"primaryKey"`
	Email                string    `gorm:"uniqueIndex;not null"`
	Credential           []byte
	FirstName            string  `gorm:"not null"`
	LastName             string  `gorm:"not null"`
	OAuthProvider        *string `gorm:"column:oauth_provider"`
	OAuthID              *string `gorm:"column:oauth_id"`
	AvatarURL            *string `gorm:"column:avatar_url"`
	CuisinePreferences   string  `gorm:"not null"`
	NewsletterSubscribed bool
	IsActive             bool
	CreatedAt            time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime:false"`
}

// TableName specifies the table name for UserModel
func (UserModel) TableName() string {
	return "users"
}

// BeforeCreate hook for UserModel
func (u *UserModel) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// RecipeModel represents the GORM model for catalog recipes
type RecipeModel struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	Name           string `gorm:"not null;index"`
	Country        string `gorm:"not null"`
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
	Ingredients    string `gorm:"not null"`
	Steps          string `gorm:"not null"`
}

// TableName specifies the table name for RecipeModel
func (RecipeModel) TableName() string {
	return "recipes"
}

// RatingModel represents the GORM model for ratings
type RatingModel struct {
	ID             uuid.UUID `gorm:"primaryKey"`
	RecipeID       int64     `gorm:"not null;uniqueIndex:idx_rating_owner"`
	RecipeCategory string    `gorm:"not null;default:regular;uniqueIndex:idx_rating_owner"`
	UserID         uuid.UUID `gorm:"not null;uniqueIndex:idx_rating_owner"`
	Score          int       `gorm:"not null;check:score >= 1 AND score <= 5"`
	ReviewText     string    `gorm:"not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime:false"`
}

// TableName specifies the table name for RatingModel
func (RatingModel) TableName() string {
	return "ratings"
}

// BeforeCreate hook for RatingModel
func (r *RatingModel) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
