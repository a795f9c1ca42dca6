package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/employee-directory/internal/auth"
	"github.com/spec-kit/employee-directory/internal/config"
	"github.com/spec-kit/employee-directory/internal/domain"
	"github.com/spec-kit/employee-directory/internal/repository"
)

// TokenRevoker records logged-out tokens.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

// AuthService coordinates signup, login and logout.
type AuthService struct {
	users      repository.UserRepository
	revoker    TokenRevoker
	tokenMgr   *auth.TokenManager
	bcryptCost int
	validate   *validator.Validate
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Revoker  TokenRevoker
}

// SignupInput is the account registration payload.
type SignupInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginInput is the credential payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is an issued access token with its owner.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		revoker:    deps.Revoker,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL()),
		bcryptCost: cfg.BcryptCost,
		validate:   newValidator(),
		now:        time.Now,
	}
}

// Signup creates an account and signs it in.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.Struct(in); err != nil {
		return nil, validationFailure(err, "Name, valid email and a password of at least 6 characters are required")
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrUserEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{Name: in.Name, Email: in.Email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.Struct(in); err != nil {
		return nil, validationFailure(err, "Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, in.Password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return s.issue(user)
}

// Logout revokes the caller's token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, principal *auth.Principal) error {
	if s.revoker == nil || principal == nil {
		return nil
	}
	return s.revoker.Revoke(ctx, principal.TokenID, principal.ExpiresAt.Sub(s.now()))
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

func validationFailure(err error, message string) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
	}
	return &domain.ValidationError{Message: message, Fields: fields}
}
