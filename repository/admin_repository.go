package repository

import (
	"context"
	"fmt"

	"sessionbot/database"
	"sessionbot/models"
)

// AdminRepository implements the AdminRepository interface
type AdminRepository struct {
	q queryable
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db *database.DB) *AdminRepository {
	return &AdminRepository{q: db.Pool}
}

func newAdminRepositoryWithTx(tx queryable) *AdminRepository {
	return &AdminRepository{q: tx}
}

// Add grants a role, leaving an existing grant untouched
func (r *AdminRepository) Add(ctx context.Context, admin *models.Admin) error {
	role := admin.Role
	if role == "" {
		role = models.AdminRoleSudo
	}

	query := `
		INSERT INTO admins (user_id, role, added_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`

	if _, err := r.q.Exec(ctx, query, admin.UserID, role, admin.AddedBy); err != nil {
		return fmt.Errorf("failed to add admin %d: %w", admin.UserID, err)
	}

	return nil
}

// Exists reports whether the user has been granted a role
func (r *AdminRepository) Exists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM admins WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check admin %d: %w", userID, err)
	}
	return exists, nil
}
