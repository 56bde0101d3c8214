package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/sometime-community/forum-auth/internal/domain"
)

var userColumns = []string{"id", "email", "password_hash", "name", "nick_name", "birth", "gender", "authority", "created_at", "updated_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestUserRepository_Create(t *testing.T) {
	mock := newMock(t)
	r := NewUserRepository(mock)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	u := &domain.User{
		Email:        "a@x.com",
		PasswordHash: "hash",
		Name:         "Kim",
		NickName:     "kim",
		Gender:       domain.GenderFemale,
		Authority:    domain.AuthorityUser,
	}

	mock.ExpectQuery(`INSERT INTO users \(email, password_hash, name, nick_name, birth, gender, authority\)`).
		WithArgs("a@x.com", "hash", "Kim", "kim", pgxmock.AnyArg(), "female", "ROLE_USER").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("u-1", now, now))
	require.NoError(t, r.Create(ctx, u))
	require.Equal(t, "u-1", u.ID)
	require.Equal(t, now, u.CreatedAt)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("a@x.com", "hash", "Kim", "kim", pgxmock.AnyArg(), "female", "ROLE_USER").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: UsersEmailKey})
	err := r.Create(ctx, u)
	require.ErrorIs(t, err, domain.ErrConflict)
	require.Contains(t, err.Error(), UsersEmailKey)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail(t *testing.T) {
	mock := newMock(t)
	r := NewUserRepository(mock)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	birth := time.Date(1999, 5, 4, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, email, password_hash, name, nick_name, birth, gender, authority, created_at, updated_at FROM users WHERE email=\$1`).
		WithArgs("a@x.com").
		WillReturnRows(pgxmock.NewRows(userColumns).
			AddRow("u-1", "a@x.com", "hash", "Kim", "kim", birth, "male", "ROLE_ADMIN", now, now))
	u, err := r.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, "u-1", u.ID)
	require.Equal(t, domain.GenderMale, u.Gender)
	require.Equal(t, domain.AuthorityAdmin, u.Authority)
	require.NotNil(t, u.Birth)
	require.True(t, birth.Equal(*u.Birth))

	mock.ExpectQuery(`FROM users WHERE email=\$1`).
		WithArgs("none@x.com").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByEmail(ctx, "none@x.com")
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByNickName_NoBirth(t *testing.T) {
	mock := newMock(t)
	r := NewUserRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM users WHERE nick_name=\$1`).
		WithArgs("kim").
		WillReturnRows(pgxmock.NewRows(userColumns).
			AddRow("u-1", "a@x.com", "hash", "Kim", "kim", nil, "other", "ROLE_USER", now, now))
	u, err := r.GetByNickName(context.Background(), "kim")
	require.NoError(t, err)
	require.Nil(t, u.Birth)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Update(t *testing.T) {
	mock := newMock(t)
	r := NewUserRepository(mock)
	ctx := context.Background()
	u := &domain.User{ID: "u-1", PasswordHash: "new", Name: "Kim", NickName: "kim", Gender: domain.GenderOther}

	mock.ExpectExec(`UPDATE users SET password_hash=\$1`).
		WithArgs("new", "Kim", "kim", pgxmock.AnyArg(), "other", "u-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.Update(ctx, u))

	mock.ExpectExec(`UPDATE users SET password_hash=\$1`).
		WithArgs("new", "Kim", "kim", pgxmock.AnyArg(), "other", "u-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.Update(ctx, u), domain.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_PutGetRemove(t *testing.T) {
	mock := newMock(t)
	l := NewRefreshTokenRepository(mock)
	ctx := context.Background()
	exp := time.Date(2025, 3, 8, 9, 0, 0, 0, time.UTC)
	now := exp.Add(-time.Hour)

	mock.ExpectExec(`INSERT INTO refresh_tokens .* ON CONFLICT \(subject_id\) DO UPDATE`).
		WithArgs("u-1", "r1", exp).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, l.Put(ctx, domain.RefreshRecord{SubjectID: "u-1", Token: "r1", ExpiresAt: exp}))

	mock.ExpectQuery(`SELECT subject_id, token, expires_at, updated_at FROM refresh_tokens WHERE subject_id=\$1`).
		WithArgs("u-1").
		WillReturnRows(pgxmock.NewRows([]string{"subject_id", "token", "expires_at", "updated_at"}).
			AddRow("u-1", "r1", exp, now))
	rec, err := l.Get(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, "r1", rec.Token)

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE subject_id=\$1`).
		WithArgs("u-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, l.Remove(ctx, "u-1"))

	mock.ExpectQuery(`FROM refresh_tokens WHERE subject_id=\$1`).
		WithArgs("u-1").
		WillReturnError(pgx.ErrNoRows)
	_, err = l.Get(ctx, "u-1")
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_Rotate(t *testing.T) {
	mock := newMock(t)
	l := NewRefreshTokenRepository(mock)
	ctx := context.Background()
	next := domain.RefreshRecord{SubjectID: "u-1", Token: "r2", ExpiresAt: time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)}

	mock.ExpectExec(`UPDATE refresh_tokens SET token=\$3, expires_at=\$4, updated_at=NOW\(\) WHERE subject_id=\$1 AND token=\$2`).
		WithArgs("u-1", "r1", "r2", next.ExpiresAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	ok, err := l.Rotate(ctx, "r1", next)
	require.NoError(t, err)
	require.True(t, ok)

	mock.ExpectExec(`UPDATE refresh_tokens SET token=\$3`).
		WithArgs("u-1", "r1", "r2", next.ExpiresAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	ok, err = l.Rotate(ctx, "r1", next)
	require.NoError(t, err)
	require.False(t, ok, "stale expected value must not rotate")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationCodeRepository(t *testing.T) {
	mock := newMock(t)
	l := NewVerificationCodeRepository(mock)
	ctx := context.Background()
	exp := time.Date(2025, 3, 1, 9, 10, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO verification_codes \(email, code, expires_at\) .* ON CONFLICT \(email\) DO UPDATE`).
		WithArgs("a@x.com", "123456", exp).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, l.Put(ctx, domain.VerificationRecord{Email: "a@x.com", Code: "123456", ExpiresAt: exp}))

	mock.ExpectQuery(`SELECT email, code, expires_at FROM verification_codes WHERE email=\$1`).
		WithArgs("a@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"email", "code", "expires_at"}).AddRow("a@x.com", "123456", exp))
	rec, err := l.Find(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, "123456", rec.Code)
	require.Equal(t, exp, rec.ExpiresAt)

	mock.ExpectQuery(`FROM verification_codes WHERE email=\$1`).
		WithArgs("b@x.com").
		WillReturnError(pgx.ErrNoRows)
	_, err = l.Find(ctx, "b@x.com")
	require.ErrorIs(t, err, domain.ErrNotFound)

	cutoff := exp.Add(time.Hour)
	mock.ExpectExec(`DELETE FROM verification_codes WHERE expires_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	n, err := l.PurgeExpired(ctx, cutoff)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	require.NoError(t, mock.ExpectationsWereMet())
}
