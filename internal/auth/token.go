package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sometime-community/forum-auth/internal/domain"
)

const grantTypeBearer = "Bearer"

var (
	// ErrTokenMalformed is returned for input that does not decode into our claims.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenSignature is returned when the signature or issuer does not check out.
	ErrTokenSignature = errors.New("token signature invalid")
)

// CodecConfig is the immutable signing configuration built once at startup.
type CodecConfig struct {
	Secret []byte
	Issuer string
}

// TokenCodec signs and parses HS256 tokens. Parsing checks structure and
// signature only; expiry is left to the caller.
type TokenCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// Claims describes the JWT payload.
type Claims struct {
	Authority domain.Authority `json:"auth"`
	Kind      domain.TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

// NewTokenCodec builds a codec. The secret is copied so later mutation of the
// caller's slice has no effect.
func NewTokenCodec(cfg CodecConfig, now func() time.Time) (*TokenCodec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token codec requires a secret")
	}
	if now == nil {
		now = time.Now
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	return &TokenCodec{secret: secret, issuer: cfg.Issuer, now: now}, nil
}

// Issue mints an access and a refresh token for the subject.
func (c *TokenCodec) Issue(subjectID string, authority domain.Authority, accessTTL, refreshTTL time.Duration) (domain.TokenPair, error) {
	if subjectID == "" {
		return domain.TokenPair{}, errors.New("issue token: empty subject")
	}
	issuedAt := c.now()

	access, accessExp, err := c.sign(subjectID, authority, domain.TokenKindAccess, issuedAt, accessTTL)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, refreshExp, err := c.sign(subjectID, authority, domain.TokenKindRefresh, issuedAt, refreshTTL)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return domain.TokenPair{
		GrantType:             grantTypeBearer,
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          refresh,
		RefreshTokenExpiresAt: refreshExp,
	}, nil
}

func (c *TokenCodec) sign(subjectID string, authority domain.Authority, kind domain.TokenKind, issuedAt time.Time, ttl time.Duration) (string, time.Time, error) {
	expiresAt := jwt.NewNumericDate(issuedAt.Add(ttl))
	claims := &Claims{
		Authority: authority,
		Kind:      kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    c.issuer,
			Subject:   subjectID,
			ExpiresAt: expiresAt,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt.Time, nil
}

// Parse verifies the signature and decodes the claims without checking expiry.
func (c *TokenCodec) Parse(tokenStr string) (*domain.TokenClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrTokenUnverifiable) {
			return nil, ErrTokenSignature
		}
		return nil, ErrTokenMalformed
	}
	if !parsed.Valid {
		return nil, ErrTokenSignature
	}
	if c.issuer != "" && claims.Issuer != c.issuer {
		return nil, ErrTokenSignature
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, ErrTokenMalformed
	}
	if claims.Kind != domain.TokenKindAccess && claims.Kind != domain.TokenKindRefresh {
		return nil, ErrTokenMalformed
	}

	out := &domain.TokenClaims{
		ID:        claims.ID,
		SubjectID: claims.Subject,
		Authority: claims.Authority,
		Kind:      claims.Kind,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

// IsLive reports whether the token is intact and unexpired.
func (c *TokenCodec) IsLive(tokenStr string) bool {
	claims, err := c.Parse(tokenStr)
	if err != nil {
		return false
	}
	return claims.LiveAt(c.now())
}

// Now returns the codec's clock reading.
func (c *TokenCodec) Now() time.Time {
	return c.now()
}
