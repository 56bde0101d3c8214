package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sometime-community/forum-auth/internal/domain"
)

// Unique constraints on the users table.
const (
	UsersEmailKey    = "users_email_key"
	UsersNickNameKey = "users_nick_name_key"
)

// UserRepository defines persistence access for forum members.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByNickName(ctx context.Context, nickName string) (*domain.User, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (email, password_hash, name, nick_name, birth, gender, authority)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.NickName,
		user.Birth,
		string(user.Gender),
		string(user.Authority),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			return fmt.Errorf("%w: %s", domain.ErrConflict, constraint)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET password_hash=$1, name=$2, nick_name=$3, birth=$4, gender=$5, updated_at=NOW()
        WHERE id=$6`

	cmd, err := r.db.Exec(ctx, query,
		user.PasswordHash,
		user.Name,
		user.NickName,
		user.Birth,
		string(user.Gender),
		user.ID,
	)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			return fmt.Errorf("%w: %s", domain.ErrConflict, constraint)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, email, password_hash, name, nick_name, birth, gender, authority, created_at, updated_at
        FROM users WHERE id=$1`
	return r.getOne(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, email, password_hash, name, nick_name, birth, gender, authority, created_at, updated_at
        FROM users WHERE email=$1`
	return r.getOne(ctx, query, email)
}

func (r *userRepository) GetByNickName(ctx context.Context, nickName string) (*domain.User, error) {
	const query = `
        SELECT id, email, password_hash, name, nick_name, birth, gender, authority, created_at, updated_at
        FROM users WHERE nick_name=$1`
	return r.getOne(ctx, query, nickName)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var (
		user      domain.User
		birth     pgtype.Date
		gender    string
		authority string
	)
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.NickName,
		&birth,
		&gender,
		&authority,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	if birth.Valid {
		b := birth.Time
		user.Birth = &b
	}
	user.Gender = domain.Gender(gender)
	user.Authority = domain.Authority(authority)
	return &user, nil
}
