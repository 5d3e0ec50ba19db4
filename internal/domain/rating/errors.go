package rating

import "errors"

// Domain errors for rating operations
var (
	ErrInvalidScore    = errors.New("rating must be between 1 and 5")
	ErrInvalidCategory = errors.New("recipe category must be regular or ai")
	ErrMissingUser     = errors.New("rating requires a user")
	ErrConflict        = errors.New("rating violates a storage constraint")
)
