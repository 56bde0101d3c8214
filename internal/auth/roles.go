package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/sometime-community/forum-auth/internal/domain"
)

// RequireAuthority ensures the principal holds one of the allowed authorities.
func RequireAuthority(allowed ...domain.Authority) fiber.Handler {
	allowedSet := make(map[domain.Authority]struct{}, len(allowed))
	for _, a := range allowed {
		allowedSet[a] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Authority]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures a principal was loaded by AuthMiddleware.
func RequireAuthenticated() fiber.Handler {
	return RequireAuthority()
}
