package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-directory/internal/api/dto"
	"github.com/spec-kit/employee-directory/internal/auth"
	"github.com/spec-kit/employee-directory/internal/service"
	apperrors "github.com/spec-kit/employee-directory/pkg/util"
)

// AuthHandler exposes account endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body", err.Error())
	}

	session, err := h.auth.Signup(c.UserContext(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(authResponse("Account created successfully", session))
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body", err.Error())
	}

	session, err := h.auth.Login(c.UserContext(), service.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	return c.JSON(authResponse("Logged in successfully", session))
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Authentication required")
	}
	if err := h.auth.Logout(c.UserContext(), principal); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Logged out successfully"})
}

func authResponse(message string, session *service.Session) dto.AuthResponse {
	return dto.AuthResponse{
		Message:   message,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      dto.NewUserResponse(session.User),
	}
}
