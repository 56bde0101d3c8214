package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/sometime-community/forum-auth/internal/api/dto"
	"github.com/sometime-community/forum-auth/internal/auth"
)

// UsersHandler serves the authenticated member's own profile.
type UsersHandler struct{}

// NewUsersHandler constructs handler.
func NewUsersHandler() *UsersHandler {
	return &UsersHandler{}
}

// Me handles GET /api/users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(principal.User)})
}
