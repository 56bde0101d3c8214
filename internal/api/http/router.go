package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sometime-community/forum-auth/internal/api/http/handlers"
	"github.com/sometime-community/forum-auth/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Mail           *handlers.MailHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Get("/emailCheck/:email", cfg.Auth.EmailCheck)
	authGroup.Get("/nickNameCheck/:nickName", cfg.Auth.NickNameCheck)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/reissue", cfg.Auth.Reissue)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Post("/resetPassword", cfg.Auth.ResetPassword)
	authGroup.Post("/mailSend", cfg.Mail.Send)
	authGroup.Post("/mailAuth", cfg.Mail.Verify)

	users := api.Group("/users", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	users.Get("/me", cfg.Users.Me)
}
