package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-directory/internal/domain"
	"github.com/spec-kit/employee-directory/internal/repository"
	apperrors "github.com/spec-kit/employee-directory/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User      *domain.User
	TokenID   string
	ExpiresAt time.Time
}

// RevocationChecker reports whether a token id was revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens  *TokenManager
	users   repository.UserRepository
	revoked RevocationChecker
}

// NewAuthMiddleware constructs middleware. revoked may be nil.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository, revoked RevocationChecker) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, revoked: revoked}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("Missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("Invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("Invalid or expired token")
	}

	ctx := c.UserContext()
	if m.revoked != nil {
		revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		if revoked {
			return apperrors.NewUnauthorized("Token has been revoked")
		}
	}

	user, err := m.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return apperrors.NewUnauthorized("User not found")
		}
		return apperrors.NewInternalError(err)
	}

	c.Locals(principalKey, &Principal{
		User:      user,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
