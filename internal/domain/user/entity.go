// Package user defines the user domain entity
package user

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 8

// User represents an account in the system
type User struct {
	id         uuid.UUID
	email      string
	credential Credential
	firstName  string
	lastName   string
	oauth      *OAuthIdentity
	isActive   bool
	createdAt  time.Time
	updatedAt  time.Time

	cuisinePreferences []string
	newsletter         bool
}

// OAuthIdentity is the external identity an account is linked to
type OAuthIdentity struct {
	Provider   string
	ExternalID string
	AvatarURL  string
}

// NormalizeEmail lower-cases and trims an email address.
// Every lookup and every write goes through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser creates a password account with a freshly derived credential
func NewUser(email, password, firstName, lastName string, hasher *PasswordHasher) (*User, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	credential, err := hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	created := now()
	return &User{
		id:         uuid.New(),
		email:      email,
		credential: credential,
		firstName:  strings.TrimSpace(firstName),
		lastName:   strings.TrimSpace(lastName),
		isActive:   true,
		createdAt:  created,
		updatedAt:  created,
	}, nil
}

// NewOAuthUser creates an account that has no local credential
func NewOAuthUser(email, firstName, lastName string, identity OAuthIdentity) (*User, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := identity.validate(); err != nil {
		return nil, err
	}

	created := now()
	return &User{
		id:        uuid.New(),
		email:     email,
		firstName: strings.TrimSpace(firstName),
		lastName:  strings.TrimSpace(lastName),
		oauth:     &identity,
		isActive:  true,
		createdAt: created,
		updatedAt: created,
	}, nil
}

// ReconstructParams carries persisted state back into a User
type ReconstructParams struct {
	ID         uuid.UUID
	Email      string
	Credential []byte
	FirstName  string
	LastName   string
	OAuth      *OAuthIdentity
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time

	CuisinePreferences []string
	Newsletter         bool
}

// ReconstructUser rebuilds a user from storage without validation
func ReconstructUser(p ReconstructParams) *User {
	return &User{
		id:         p.ID,
		email:      p.Email,
		credential: Credential(p.Credential),
		firstName:  p.FirstName,
		lastName:   p.LastName,
		oauth:      p.OAuth,
		isActive:   p.IsActive,
		createdAt:  p.CreatedAt,
		updatedAt:  p.UpdatedAt,

		cuisinePreferences: p.CuisinePreferences,
		newsletter:         p.Newsletter,
	}
}

// ID returns the user's ID
func (u *User) ID() uuid.UUID {
	return u.id
}

// Email returns the normalized email
func (u *User) Email() string {
	return u.email
}

// Credential returns the stored salt||key bytes, nil for OAuth-only accounts
func (u *User) Credential() Credential {
	return u.credential
}

// HasCredential reports whether the account can log in with a password
func (u *User) HasCredential() bool {
	return len(u.credential) > 0
}

func (u *User) FirstName() string {
	return u.firstName
}

func (u *User) LastName() string {
	return u.lastName
}

// DisplayName is first and last name joined by a space
func (u *User) DisplayName() string {
	return DisplayName(u.firstName, u.lastName)
}

// OAuth returns the linked external identity, if any
func (u *User) OAuth() *OAuthIdentity {
	return u.oauth
}

// IsActive returns whether the user is active
func (u *User) IsActive() bool {
	return u.isActive
}

// CreatedAt returns when the user was created
func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

// UpdatedAt returns when the user was last updated
func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}

// CuisinePreferences returns the cuisines picked at signup
func (u *User) CuisinePreferences() []string {
	return u.cuisinePreferences
}

// NewsletterSubscribed returns whether the user opted into the newsletter
func (u *User) NewsletterSubscribed() bool {
	return u.newsletter
}

// SetPreferences records signup preferences. Blank cuisines are dropped.
func (u *User) SetPreferences(cuisines []string, newsletter bool) {
	cleaned := make([]string, 0, len(cuisines))
	for _, c := range cuisines {
		if c = strings.TrimSpace(c); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	u.cuisinePreferences = cleaned
	u.newsletter = newsletter
	u.updatedAt = now()
}

// LinkOAuth adopts an external identity. The local credential is left as is.
func (u *User) LinkOAuth(identity OAuthIdentity) error {
	if err := identity.validate(); err != nil {
		return err
	}
	u.oauth = &identity
	u.updatedAt = now()
	return nil
}

// Deactivate deactivates the user
func (u *User) Deactivate() {
	u.isActive = false
	u.updatedAt = now()
}

// DisplayName joins a first and last name the way the account shows it.
func DisplayName(firstName, lastName string) string {
	return strings.TrimSpace(firstName + " " + lastName)
}

// ValidatePassword checks the password strength rules
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}

	if !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}

	if len(email) > 255 {
		return ErrEmailTooLong
	}

	return nil
}

func (i OAuthIdentity) validate() error {
	if strings.TrimSpace(i.Provider) == "" || strings.TrimSpace(i.ExternalID) == "" {
		return ErrInvalidOAuthIdentity
	}
	return nil
}

// now matches the microsecond precision both SQL dialects store
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
