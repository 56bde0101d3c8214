package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/sometime-community/forum-auth/internal/api/dto"
	"github.com/sometime-community/forum-auth/internal/service"
)

const (
	msgCodeSent    = "인증번호를 발송했습니다"
	msgVerified    = "인증 성공"
	msgNotVerified = "인증 실패"
)

// MailHandler exposes the email verification code endpoints.
type MailHandler struct {
	verification *service.VerificationService
}

// NewMailHandler constructs handler.
func NewMailHandler(verification *service.VerificationService) *MailHandler {
	return &MailHandler{verification: verification}
}

// Send handles POST /api/auth/mailSend.
func (h *MailHandler) Send(c *fiber.Ctx) error {
	var req dto.MailSendRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	email := normalizeEmail(req.Email)
	if err := h.verification.RequestCode(c.UserContext(), email); err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"data": dto.MailSendResponse{Email: email, Message: msgCodeSent},
	})
}

// Verify handles POST /api/auth/mailAuth.
func (h *MailHandler) Verify(c *fiber.Ctx) error {
	var req dto.MailAuthRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ok, err := h.verification.ValidateCode(c.UserContext(), normalizeEmail(req.Email), req.Code)
	if err != nil {
		return err
	}
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"data": dto.VerificationResponse{Verified: false, Message: msgNotVerified},
		})
	}
	return c.JSON(fiber.Map{"data": dto.VerificationResponse{Verified: true, Message: msgVerified}})
}
