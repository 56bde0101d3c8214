package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sometime-community/forum-auth/internal/api/dto"
	"github.com/sometime-community/forum-auth/internal/auth"
	"github.com/sometime-community/forum-auth/internal/domain"
	"github.com/sometime-community/forum-auth/internal/service"
	apperrors "github.com/sometime-community/forum-auth/pkg/util/errorutil"
)

// AuthHandler exposes signup, login and token rotation endpoints.
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
	if err := bind(c, &req); err != nil {
		return err
	}

	in := service.SignupInput{
		Email:    normalizeEmail(req.Email),
		Password: req.Password,
		Name:     strings.TrimSpace(req.Name),
		NickName: strings.TrimSpace(req.NickName),
		Gender:   domain.ParseGender(req.Gender),
	}
	if req.Birth != "" {
		birth, err := time.Parse(time.DateOnly, req.Birth)
		if err != nil {
			return apperrors.NewValidationError("invalid payload", map[string]any{"birth": "must match 2006-01-02"})
		}
		in.Birth = &birth
	}

	user, err := h.auth.Signup(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// EmailCheck handles GET /api/auth/emailCheck/:email.
func (h *AuthHandler) EmailCheck(c *fiber.Ctx) error {
	email := normalizeEmail(c.Params("email"))
	if email == "" {
		return fiber.NewError(http.StatusBadRequest, "email required")
	}
	ok, err := h.auth.IsEmailAvailable(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AvailabilityResponse{Available: ok}})
}

// NickNameCheck handles GET /api/auth/nickNameCheck/:nickName.
func (h *AuthHandler) NickNameCheck(c *fiber.Ctx) error {
	nick := strings.TrimSpace(c.Params("nickName"))
	if nick == "" {
		return fiber.NewError(http.StatusBadRequest, "nickName required")
	}
	ok, err := h.auth.IsNickNameAvailable(c.UserContext(), nick)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AvailabilityResponse{Available: ok}})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	pair, err := h.auth.Login(c.UserContext(), normalizeEmail(req.Email), req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTokenResponse(pair)})
}

// Reissue handles POST /api/auth/reissue.
func (h *AuthHandler) Reissue(c *fiber.Ctx) error {
	var req dto.ReissueRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	pair, err := h.auth.Reissue(c.UserContext(), req.AccessToken, req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTokenResponse(pair)})
}

// Logout handles POST /api/auth/logout. An expired bearer token is accepted.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	raw, err := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return apperrors.NewUnauthorized(err.Error())
	}
	if err := h.auth.Logout(c.UserContext(), raw); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ResetPassword handles POST /api/auth/resetPassword.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.auth.ResetPassword(c.UserContext(), normalizeEmail(req.Email), req.Password); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if details := dto.Validate(req); details != nil {
		return apperrors.NewValidationError("invalid payload", details)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
