// Package user provides the application layer for account management
package user

import (
	"context"
	"errors"

	"github.com/alchemorsel/kitchen/internal/domain/user"
	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	apperrors "github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// UserService implements the account store use cases
type UserService struct {
	userRepo outbound.UserRepository
	hasher   *user.PasswordHasher
	logger   *zap.Logger
	tracer   trace.Tracer
}

var _ inbound.UserService = (*UserService)(nil)

// NewUserService creates a new user service
func NewUserService(
	userRepo outbound.UserRepository,
	hasher *user.PasswordHasher,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		hasher:   hasher,
		logger:   logger.Named("user-service"),
		tracer:   otel.Tracer("kitchen/application/user"),
	}
}

// Register creates a password account
func (s *UserService) Register(ctx context.Context, cmd inbound.RegisterCommand) (*inbound.UserDTO, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Register")
	defer span.End()

	email := user.NormalizeEmail(cmd.Email)
	s.logger.Info("Registering new user", zap.String("email", email))

	if err := user.ValidatePassword(cmd.Password); err != nil {
		return nil, fail(span, apperrors.NewWeakCredentialError(err.Error()))
	}

	// Inactive accounts keep their email
	existing, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		return nil, fail(span, apperrors.NewDuplicateEmailError(email))
	case err != nil && !errors.Is(err, user.ErrUserNotFound):
		return nil, fail(span, apperrors.NewDatabaseError("look up user", err))
	}

	newUser, err := user.NewUser(email, cmd.Password, cmd.FirstName, cmd.LastName, s.hasher)
	if err != nil {
		return nil, fail(span, domainError(err))
	}
	newUser.SetPreferences(cmd.CuisinePreferences, cmd.Newsletter)

	if err := s.userRepo.Create(ctx, newUser); err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			// Lost a race with a concurrent signup
			return nil, fail(span, apperrors.NewDuplicateEmailError(email))
		}
		return nil, fail(span, apperrors.NewDatabaseError("save user", err))
	}

	span.SetAttributes(attribute.String("user.id", newUser.ID().String()))
	s.logger.Info("User registered successfully",
		zap.String("user_id", newUser.ID().String()),
		zap.String("email", newUser.Email()),
	)

	return toDTO(newUser), nil
}

// Authenticate verifies an email and password. Every failure is reported as
// the same invalid credentials error and costs one key derivation.
func (s *UserService) Authenticate(ctx context.Context, cmd inbound.LoginCommand) (*inbound.UserDTO, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Authenticate")
	defer span.End()

	email := user.NormalizeEmail(cmd.Email)

	account, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			s.hasher.VerifyDummy(cmd.Password)
			s.logger.Info("Login rejected", zap.String("email", email))
			return nil, fail(span, apperrors.NewInvalidCredentialsError())
		}
		return nil, fail(span, apperrors.NewDatabaseError("look up user", err))
	}

	// Verify runs the dummy derivation itself for OAuth-only accounts
	matched := s.hasher.Verify(account.Credential(), cmd.Password)
	if !matched || !account.IsActive() {
		s.logger.Info("Login rejected", zap.String("email", email))
		return nil, fail(span, apperrors.NewInvalidCredentialsError())
	}

	span.SetAttributes(attribute.String("user.id", account.ID().String()))
	s.logger.Info("User authenticated", zap.String("user_id", account.ID().String()))

	return toDTO(account), nil
}

// FindOrCreateOAuthIdentity links a provider identity to the account owning
// the email, or creates an OAuth-only account.
func (s *UserService) FindOrCreateOAuthIdentity(ctx context.Context, cmd inbound.OAuthIdentityCommand) (*inbound.UserDTO, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.FindOrCreateOAuthIdentity",
		trace.WithAttributes(attribute.String("oauth.provider", cmd.Provider)))
	defer span.End()

	email := user.NormalizeEmail(cmd.Email)
	identity := user.OAuthIdentity{
		Provider:   cmd.Provider,
		ExternalID: cmd.ExternalID,
		AvatarURL:  cmd.AvatarURL,
	}

	account, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return s.link(ctx, span, account, identity)
	case !errors.Is(err, user.ErrUserNotFound):
		return nil, fail(span, apperrors.NewDatabaseError("look up user", err))
	}

	account, err = user.NewOAuthUser(email, cmd.FirstName, cmd.LastName, identity)
	if err != nil {
		return nil, fail(span, domainError(err))
	}

	if err := s.userRepo.Create(ctx, account); err != nil {
		if !errors.Is(err, user.ErrDuplicateEmail) {
			return nil, fail(span, apperrors.NewDatabaseError("save user", err))
		}
		// A concurrent signup took the email first; link to that account instead
		existing, findErr := s.userRepo.FindByEmail(ctx, email)
		if findErr != nil {
			return nil, fail(span, apperrors.NewDatabaseError("look up user", findErr))
		}
		return s.link(ctx, span, existing, identity)
	}

	s.logger.Info("OAuth user created",
		zap.String("user_id", account.ID().String()),
		zap.String("provider", identity.Provider),
	)

	return toDTO(account), nil
}

func (s *UserService) link(ctx context.Context, span trace.Span, account *user.User, identity user.OAuthIdentity) (*inbound.UserDTO, error) {
	if !account.IsActive() {
		return nil, fail(span, apperrors.NewInvalidCredentialsError())
	}

	if err := account.LinkOAuth(identity); err != nil {
		return nil, fail(span, domainError(err))
	}

	if err := s.userRepo.Update(ctx, account); err != nil {
		return nil, fail(span, apperrors.NewDatabaseError("link oauth identity", err))
	}

	s.logger.Info("OAuth identity linked",
		zap.String("user_id", account.ID().String()),
		zap.String("provider", identity.Provider),
	)

	return toDTO(account), nil
}

// GetUser returns an active account by ID
func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*inbound.UserDTO, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.GetUser")
	defer span.End()

	account, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, fail(span, apperrors.NewUserNotFoundError(userID.String()))
		}
		return nil, fail(span, apperrors.NewDatabaseError("get user", err))
	}

	if !account.IsActive() {
		return nil, fail(span, apperrors.NewUserNotFoundError(userID.String()))
	}

	return toDTO(account), nil
}

// domainError maps user domain validation errors to application errors
func domainError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, user.ErrWeakPassword):
		return apperrors.NewWeakCredentialError(err.Error())
	case errors.Is(err, user.ErrEmailRequired),
		errors.Is(err, user.ErrInvalidEmail),
		errors.Is(err, user.ErrEmailTooLong),
		errors.Is(err, user.ErrInvalidOAuthIdentity):
		return apperrors.NewValidationError(err.Error())
	default:
		return apperrors.NewInternalError("failed to create user").WithCause(err)
	}
}

func fail(span trace.Span, err *apperrors.AppError) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(err.Code))
	return err
}

func toDTO(u *user.User) *inbound.UserDTO {
	dto := &inbound.UserDTO{
		ID:                 u.ID(),
		Email:              u.Email(),
		FirstName:          u.FirstName(),
		LastName:           u.LastName(),
		DisplayName:        u.DisplayName(),
		CuisinePreferences: u.CuisinePreferences(),
		CreatedAt:          u.CreatedAt(),
	}
	if dto.CuisinePreferences == nil {
		dto.CuisinePreferences = []string{}
	}
	if identity := u.OAuth(); identity != nil {
		dto.OAuthProvider = identity.Provider
		dto.AvatarURL = identity.AvatarURL
	}
	return dto
}
