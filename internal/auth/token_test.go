package auth

import (
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/sometime-community/forum-auth/internal/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newCodec(t testing.TB, now func() time.Time) *TokenCodec {
	t.Helper()
	c, err := NewTokenCodec(CodecConfig{Secret: []byte("secret"), Issuer: "forum-auth"}, now)
	require.NoError(t, err)
	return c
}

func TestNewTokenCodec_RequiresSecret(t *testing.T) {
	_, err := NewTokenCodec(CodecConfig{}, nil)
	require.Error(t, err)
}

func TestNewTokenCodec_CopiesSecret(t *testing.T) {
	secret := []byte("secret")
	c, err := NewTokenCodec(CodecConfig{Secret: secret}, nil)
	require.NoError(t, err)
	pair, err := c.Issue("u-1", domain.AuthorityUser, time.Hour, time.Hour)
	require.NoError(t, err)

	secret[0] = 'X'
	_, err = c.Parse(pair.AccessToken)
	require.NoError(t, err)
}

func TestIssueAndParse(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	c := newCodec(t, fixedClock(now))

	pair, err := c.Issue("u-1", domain.AuthorityAdmin, 30*time.Minute, 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, "Bearer", pair.GrantType)
	require.True(t, now.Add(30*time.Minute).Equal(pair.AccessTokenExpiresAt))
	require.True(t, now.Add(24*time.Hour).Equal(pair.RefreshTokenExpiresAt))

	access, err := c.Parse(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "u-1", access.SubjectID)
	require.Equal(t, domain.AuthorityAdmin, access.Authority)
	require.Equal(t, domain.TokenKindAccess, access.Kind)
	require.True(t, access.ExpiresAt.Equal(pair.AccessTokenExpiresAt))
	require.NotEmpty(t, access.ID)

	refresh, err := c.Parse(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, domain.TokenKindRefresh, refresh.Kind)
	require.NotEqual(t, access.ID, refresh.ID)
}

func TestIssue_UniqueAtSameInstant(t *testing.T) {
	c := newCodec(t, fixedClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)))
	a, err := c.Issue("u-1", domain.AuthorityUser, time.Hour, time.Hour)
	require.NoError(t, err)
	b, err := c.Issue("u-1", domain.AuthorityUser, time.Hour, time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, a.RefreshToken, b.RefreshToken)
}

func TestParse_ExpiredTokenStillDecodes(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := now
	c := newCodec(t, func() time.Time { return clock })

	pair, err := c.Issue("u-1", domain.AuthorityUser, time.Minute, time.Hour)
	require.NoError(t, err)
	require.True(t, c.IsLive(pair.AccessToken))

	clock = now.Add(time.Minute)
	require.False(t, c.IsLive(pair.AccessToken), "expiry must be strictly in the future")

	claims, err := c.Parse(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "u-1", claims.SubjectID)
}

func TestParse_Rejects(t *testing.T) {
	c := newCodec(t, nil)
	pair, err := c.Issue("u-1", domain.AuthorityUser, time.Hour, time.Hour)
	require.NoError(t, err)

	other, err := NewTokenCodec(CodecConfig{Secret: []byte("other"), Issuer: "forum-auth"}, nil)
	require.NoError(t, err)
	forged, err := other.Issue("u-1", domain.AuthorityAdmin, time.Hour, time.Hour)
	require.NoError(t, err)
	_, err = c.Parse(forged.AccessToken)
	require.ErrorIs(t, err, ErrTokenSignature)

	parts := strings.Split(pair.AccessToken, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	_, err = c.Parse(tampered)
	require.Error(t, err)

	foreign, err := NewTokenCodec(CodecConfig{Secret: []byte("secret"), Issuer: "elsewhere"}, nil)
	require.NoError(t, err)
	fp, err := foreign.Issue("u-1", domain.AuthorityUser, time.Hour, time.Hour)
	require.NoError(t, err)
	_, err = c.Parse(fp.AccessToken)
	require.ErrorIs(t, err, ErrTokenSignature)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Kind: domain.TokenKindAccess, RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = c.Parse(unsigned)
	require.Error(t, err)

	noKind := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "u-1", Issuer: "forum-auth", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	signed, err := noKind.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = c.Parse(signed)
	require.ErrorIs(t, err, ErrTokenMalformed)

	for _, in := range []string{"", "abc", "a.b.c", "\x00\xff"} {
		_, err := c.Parse(in)
		require.Error(t, err, in)
		require.False(t, c.IsLive(in))
	}
}

func FuzzParse(f *testing.F) {
	c := newCodec(f, nil)
	pair, err := c.Issue("u-1", domain.AuthorityUser, time.Hour, time.Hour)
	require.NoError(f, err)

	f.Add(pair.AccessToken)
	f.Add(pair.RefreshToken)
	f.Add("")
	f.Add("a.b.c")
	f.Add("eyJhbGciOiJub25lIn0.e30.")

	f.Fuzz(func(t *testing.T, in string) {
		claims, err := c.Parse(in)
		if err == nil && claims.SubjectID == "" {
			t.Fatalf("accepted token without subject: %q", in)
		}
	})
}
