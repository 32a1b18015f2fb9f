package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/asesoriasalud/cotizaciones-api/internal/model"
)

// RoleRepo reads the static role reference data.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// List returns all roles with their permission sets.
func (r *RoleRepo) List(ctx context.Context) ([]model.Role, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, COALESCE(description,''), permissions FROM roles ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Role
	for rows.Next() {
		var (
			role     model.Role
			permsRaw []byte
		)
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &permsRaw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(permsRaw, &role.Permissions); err != nil {
			role.Permissions = nil
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

// IDByName resolves a role name to its id.
func (r *RoleRepo) IDByName(ctx context.Context, name string) (uint64, error) {
	var id uint64
	err := r.DB.QueryRowContext(ctx, "SELECT id FROM roles WHERE name=? LIMIT 1", name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}
