package repository

import (
	"context"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/google/uuid"
)

func (r *Repository) GetAdminByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	query := `
		SELECT id, password_hash, created_at, version
		FROM admins WHERE username = $1
	`

	admin := &domain.Admin{Username: username}
	if err := r.dbpool.QueryRowContext(ctx, query, username).Scan(&admin.ID, &admin.PasswordHash, &admin.CreatedAt, &admin.Version); err != nil {
		return nil, err
	}

	return admin, nil
}

func (r *Repository) GetAdminByID(ctx context.Context, id uuid.UUID) (*domain.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	query := `
		SELECT username, password_hash, created_at, version
		FROM admins WHERE id = $1
	`

	admin := &domain.Admin{ID: id}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&admin.Username, &admin.PasswordHash, &admin.CreatedAt, &admin.Version); err != nil {
		return nil, err
	}

	return admin, nil
}

// UpsertAdmin creates the admin or, when the username is taken, resets its
// password.
func (r *Repository) UpsertAdmin(ctx context.Context, admin *domain.Admin) error {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	if admin.ID == uuid.Nil {
		admin.ID = uuid.New()
	}

	query := `
		INSERT INTO admins (id, username, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE
		SET password_hash = EXCLUDED.password_hash, version = admins.version + 1
		RETURNING id, created_at, version
	`
	return r.dbpool.QueryRowContext(ctx, query, admin.ID, admin.Username, admin.PasswordHash).Scan(&admin.ID, &admin.CreatedAt, &admin.Version)
}

// EnsureAdmin creates the admin only when no admin with that username exists.
// It reports whether a row was inserted.
func (r *Repository) EnsureAdmin(ctx context.Context, admin *domain.Admin) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	if admin.ID == uuid.Nil {
		admin.ID = uuid.New()
	}

	query := `
		INSERT INTO admins (id, username, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO NOTHING
	`
	result, err := r.dbpool.ExecContext(ctx, query, admin.ID, admin.Username, admin.PasswordHash)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}
