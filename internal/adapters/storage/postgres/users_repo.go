package postgres

import (
	"context"
	"database/sql"
	"strings"

	"pet-vet-link/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, email, full_name,
			user_type, profile_setup_complete,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		u.ID,
		strings.ToLower(u.Email),
		u.FullName,
		string(u.UserType),
		u.ProfileSetupComplete,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return err
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET
			full_name = $2,
			user_type = $3,
			profile_setup_complete = $4,
			updated_at = $5
		WHERE lower(email) = lower($1)
	`,
		u.Email,
		u.FullName,
		string(u.UserType),
		u.ProfileSetupComplete,
		u.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return users.User{}, users.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, email, full_name,
			user_type, profile_setup_complete,
			created_at, updated_at
		FROM users
		WHERE lower(email) = lower($1)
	`, email)

	var u users.User
	var userType string

	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FullName,
		&userType,
		&u.ProfileSetupComplete,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, err
	}

	u.UserType = users.UserType(userType)
	return u, nil
}
