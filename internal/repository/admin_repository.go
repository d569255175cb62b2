package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/edu-platform/edu-mgmt-api/internal/models"
)

// AdminRepository manages persistence for the seeded admin accounts.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository constructs an AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindByUsername fetches an admin by username.
func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	const query = `SELECT id, username, password_hash, created_at FROM admins WHERE username = $1`
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, username); err != nil {
		return nil, err
	}
	return &admin, nil
}

// FindByID fetches an admin by id.
func (r *AdminRepository) FindByID(ctx context.Context, id int64) (*models.Admin, error) {
	const query = `SELECT id, username, password_hash, created_at FROM admins WHERE id = $1`
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, id); err != nil {
		return nil, err
	}
	return &admin, nil
}

// Upsert inserts an admin keyed by username, leaving an existing row untouched
// so repeated seeding stays idempotent. It reports whether a row was created.
func (r *AdminRepository) Upsert(ctx context.Context, admin *models.Admin) (bool, error) {
	const query = `INSERT INTO admins (username, password_hash)
        VALUES (:username, :password_hash)
        ON CONFLICT (username) DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, query, admin)
	if err != nil {
		return false, fmt.Errorf("upsert admin: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upsert admin: %w", err)
	}
	return affected > 0, nil
}
