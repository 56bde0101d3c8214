package dto

import (
	"time"

	"github.com/sometime-community/forum-auth/internal/domain"
)

// SignupRequest payload for new members.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=50"`
	NickName string `json:"nickName" validate:"required,min=2,max=30"`
	Birth    string `json:"birth" validate:"omitempty,datetime=2006-01-02"`
	Gender   string `json:"gender" validate:"omitempty,oneof=male female other"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ReissueRequest carries the pair returned by the last login or reissue.
type ReissueRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// ResetPasswordRequest payload for password reset.
type ResetPasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// MailSendRequest asks for a verification code.
type MailSendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// MailAuthRequest submits a verification code.
type MailAuthRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code"`
}

// TokenResponse is returned by login and reissue.
type TokenResponse struct {
	GrantType             string    `json:"grantType"`
	AccessToken           string    `json:"accessToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken          string    `json:"refreshToken"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

// AvailabilityResponse answers the email and nickname checks.
type AvailabilityResponse struct {
	Available bool `json:"available"`
}

// MailSendResponse acknowledges a dispatched code.
type MailSendResponse struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// VerificationResponse answers mailAuth.
type VerificationResponse struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}

// UserResponse is the public view of a member.
type UserResponse struct {
	ID        string           `json:"id"`
	Email     string           `json:"email"`
	Name      string           `json:"name"`
	NickName  string           `json:"nickName"`
	Birth     string           `json:"birth,omitempty"`
	Gender    domain.Gender    `json:"gender"`
	Authority domain.Authority `json:"authority"`
	CreatedAt time.Time        `json:"createdAt"`
}

// NewTokenResponse converts a token pair.
func NewTokenResponse(p domain.TokenPair) TokenResponse {
	return TokenResponse{
		GrantType:             p.GrantType,
		AccessToken:           p.AccessToken,
		AccessTokenExpiresAt:  p.AccessTokenExpiresAt,
		RefreshToken:          p.RefreshToken,
		RefreshTokenExpiresAt: p.RefreshTokenExpiresAt,
	}
}

// NewUserResponse converts a member.
func NewUserResponse(u *domain.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		NickName:  u.NickName,
		Gender:    u.Gender,
		Authority: u.Authority,
		CreatedAt: u.CreatedAt,
	}
	if u.Birth != nil {
		resp.Birth = u.Birth.Format(time.DateOnly)
	}
	return resp
}
