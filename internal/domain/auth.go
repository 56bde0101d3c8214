package domain

import "time"

// TokenKind differentiates access from refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// TokenPair is what login and reissue hand back to the caller.
type TokenPair struct {
	GrantType             string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// TokenClaims is the decoded, signature-checked content of a token.
// ExpiresAt is reported as-is; liveness is decided by the caller.
type TokenClaims struct {
	ID        string
	SubjectID string
	Authority Authority
	Kind      TokenKind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// LiveAt reports whether the token expires strictly after now.
func (c TokenClaims) LiveAt(now time.Time) bool {
	return c.ExpiresAt.After(now)
}

// RefreshRecord is the single refresh slot held for a subject.
type RefreshRecord struct {
	SubjectID string
	Token     string
	ExpiresAt time.Time
	UpdatedAt time.Time
}
