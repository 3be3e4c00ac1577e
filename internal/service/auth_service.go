package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Zorochan404/inf-chat/internal/apperr"
	"github.com/Zorochan404/inf-chat/internal/config"
	"github.com/Zorochan404/inf-chat/internal/ids"
	"github.com/Zorochan404/inf-chat/internal/models"
	"github.com/Zorochan404/inf-chat/internal/repository"
	"github.com/Zorochan404/inf-chat/internal/security"
	"github.com/Zorochan404/inf-chat/internal/validation"
)

const (
	msgInvalidEmail       = "Invalid email"
	msgInvalidPassword    = "Invalid password"
	msgInvalidCredentials = "Invalid email or password"
)

type AuthService struct {
	users  UserStore
	hasher *security.PasswordHasher
	tokens *security.TokenIssuer
	cfg    *config.AppConfig
	log    zerolog.Logger
}

func NewAuthService(
	users UserStore,
	hasher *security.PasswordHasher,
	tokens *security.TokenIssuer,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		cfg:    cfg,
		log:    log,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Profile  models.ProfileFields
}

type AuthResult struct {
	User  models.User
	Token string
}

// Register creates an account with the given fixed role and signs the caller
// in. All input checks run before anything is written.
func (s *AuthService) Register(ctx context.Context, role models.UserRole, input RegisterInput) (AuthResult, error) {
	if !role.Valid() {
		return AuthResult{}, apperr.Validation("invalid role")
	}

	input.Email = normalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)

	if input.Name == "" {
		return AuthResult{}, apperr.Validation("Name is required", apperr.FieldError{Field: "name", Message: "name is required"})
	}
	if err := validation.Var("email", input.Email, "required,email"); err != nil {
		return AuthResult{}, apperr.Validation("Please provide a valid email address",
			apperr.FieldError{Field: "email", Message: "email must be a valid email address"})
	}
	if minLen := s.cfg.Security.MinPasswordLength; len(input.Password) < minLen {
		msg := fmt.Sprintf("Password must be at least %d characters long", minLen)
		return AuthResult{}, apperr.Validation(msg, apperr.FieldError{Field: "password", Message: msg})
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return AuthResult{}, apperr.Internal("Internal server error. Please try again later.", err)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           ids.New(),
		Email:        input.Email,
		PasswordHash: passwordHash,
		Name:         input.Name,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	input.Profile.Name = nil
	input.Profile.Apply(&user)
	if user.AvatarURL == "" {
		user.AvatarURL = models.DefaultAvatarURL
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return AuthResult{}, apperr.Conflict("User with this email already exists")
		}
		return AuthResult{}, apperr.Internal("Internal server error. Please try again later.", err)
	}

	token, err := s.issue(user)
	if err != nil {
		return AuthResult{}, err
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(role)).Msg("user registered")
	return AuthResult{User: user, Token: token}, nil
}

type LoginInput struct {
	Email    string
	Password string
	// Role restricts the lookup to one role when set.
	Role models.UserRole
	// Strict reports which half of the credentials failed. The role-agnostic
	// login keeps it off.
	Strict bool
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	input.Email = normalizeEmail(input.Email)
	if input.Email == "" || input.Password == "" {
		return AuthResult{}, apperr.Validation("Email and password are required")
	}
	if input.Role != "" && !input.Role.Valid() {
		return AuthResult{}, apperr.Validation("invalid role")
	}

	emailFailure, passwordFailure := msgInvalidCredentials, msgInvalidCredentials
	if input.Strict {
		emailFailure, passwordFailure = msgInvalidEmail, msgInvalidPassword
	}

	user, err := s.users.FindByEmail(ctx, input.Email, input.Role)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, apperr.Auth(emailFailure)
		}
		return AuthResult{}, apperr.Internal("Internal Server Error", err)
	}

	ok, err := s.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("stored password hash unreadable")
	}
	if !ok {
		return AuthResult{}, apperr.Auth(passwordFailure)
	}

	token, err := s.issue(user)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) issue(user models.User) (string, error) {
	token, err := s.tokens.Issue(security.Identity{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return "", apperr.Internal("Internal server error. Please try again later.", err)
	}
	return token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
