package handlers

import (
	"eshop/internal/middleware"
	"eshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication and profiles.
type AuthHandler struct {
	authService  *services.AuthService
	loginLimiter fiber.Handler
}

// NewAuthHandler creates a new AuthHandler. loginLimiter may be nil.
func NewAuthHandler(authService *services.AuthService, loginLimiter fiber.Handler) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		loginLimiter: loginLimiter,
	}
}

// RegisterRoutes registers the authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	if h.loginLimiter != nil {
		authRoutes.Post("/login", h.loginLimiter, h.HandleLogin)
	} else {
		authRoutes.Post("/login", h.HandleLogin)
	}

	authRequired := middleware.AuthRequired(h.authService)
	authRoutes.Get("/me", authRequired, h.HandleMe)
	authRoutes.Put("/updatedetails", authRequired, h.HandleUpdateDetails)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return errInvalidBody
	}

	result, err := h.authService.Register(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(Envelope{
		Success: true,
		Token:   result.Token,
		Data:    result.User,
	})
}

// HandleLogin handles user login and issues a token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var in services.LoginInput
	if err := c.BodyParser(&in); err != nil {
		return errInvalidBody
	}

	result, err := h.authService.Login(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.JSON(Envelope{
		Success: true,
		Token:   result.Token,
		Data:    result.User,
	})
}

// HandleMe returns the calling user.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	user, err := h.authService.Me(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(Envelope{Success: true, Data: user})
}

// HandleUpdateDetails updates the calling user's profile fields.
func (h *AuthHandler) HandleUpdateDetails(c *fiber.Ctx) error {
	var in services.ProfileInput
	if err := c.BodyParser(&in); err != nil {
		return errInvalidBody
	}

	user, err := h.authService.UpdateProfile(c.UserContext(), middleware.IdentityFrom(c), in)
	if err != nil {
		return err
	}
	return c.JSON(Envelope{Success: true, Data: user})
}
