package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/sometime-community/forum-auth/internal/domain"
	"github.com/sometime-community/forum-auth/internal/repository"
	apperrors "github.com/sometime-community/forum-auth/pkg/util/errorutil"
)

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc")
	require.NoError(t, err)
	require.Equal(t, "abc", tok)

	tok, err = BearerToken("bearer   abc ")
	require.NoError(t, err)
	require.Equal(t, "abc", tok)

	for _, h := range []string{"", "Bearer", "Bearer ", "Basic abc"} {
		_, err := BearerToken(h)
		require.Error(t, err, h)
	}
}

func TestAuthMiddleware(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := now
	codec := newCodec(t, func() time.Time { return clock })

	users := repository.NewMemoryUserRepository()
	u := &domain.User{Email: "a@x.com", NickName: "kim", Authority: domain.AuthorityUser}
	require.NoError(t, users.Create(context.Background(), u))

	pair, err := codec.Issue(u.ID, u.Authority, time.Minute, time.Hour)
	require.NoError(t, err)
	ghost, err := codec.Issue("ghost", domain.AuthorityUser, time.Minute, time.Hour)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
	}})
	m := NewAuthMiddleware(codec, users)
	app.Get("/me", m.Handle, RequireAuthenticated(), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.User.Email)
	})
	app.Get("/admin", m.Handle, RequireAuthority(domain.AuthorityAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	call := func(path, header string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set(fiber.HeaderAuthorization, header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	require.Equal(t, http.StatusOK, call("/me", "Bearer "+pair.AccessToken))
	require.Equal(t, http.StatusForbidden, call("/admin", "Bearer "+pair.AccessToken))
	require.Equal(t, http.StatusUnauthorized, call("/me", ""))
	require.Equal(t, http.StatusUnauthorized, call("/me", "Bearer "+pair.RefreshToken), "refresh tokens do not authorize requests")
	require.Equal(t, http.StatusUnauthorized, call("/me", "Bearer "+ghost.AccessToken))

	clock = now.Add(time.Minute)
	require.Equal(t, http.StatusUnauthorized, call("/me", "Bearer "+pair.AccessToken))
}
