package user

import "errors"

var (
	ErrEmailRequired        = errors.New("email is required")
	ErrInvalidEmail         = errors.New("invalid email format")
	ErrEmailTooLong         = errors.New("email too long")
	ErrWeakPassword         = errors.New("password must be at least 8 characters")
	ErrInvalidOAuthIdentity = errors.New("oauth provider and external id are required")

	// Repository errors
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("user with this email already exists")
)
