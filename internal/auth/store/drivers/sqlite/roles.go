package sqlite

import (
	"context"

	"github.com/aussiebroadwan/concierge/internal/auth/domain"
)

type rolesRepo struct {
	db dbtx
}

const roleQuery = `
	SELECT r.id, r.name,
	       (SELECT COUNT(*) FROM account_roles ar WHERE ar.role_id = r.id) AS members,
	       r.created_at, r.updated_at
	FROM roles r`

func scanRole(row rowScanner) (domain.Role, error) {
	var r domain.Role
	err := row.Scan(&r.ID, &r.Name, &r.Members, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (r *rolesRepo) GetByID(ctx context.Context, id string) (domain.Role, error) {
	role, err := scanRole(r.db.QueryRowContext(ctx, roleQuery+` WHERE r.id = ?`, id))
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	return role, nil
}

func (r *rolesRepo) GetByName(ctx context.Context, name string) (domain.Role, error) {
	role, err := scanRole(r.db.QueryRowContext(ctx, roleQuery+` WHERE r.name = ?`, name))
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	return role, nil
}

func (r *rolesRepo) ListAll(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx, roleQuery+` ORDER BY r.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *rolesRepo) Create(ctx context.Context, role domain.Role) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO roles (id, name) VALUES (?, ?)`, role.ID, role.Name)
	return mapConstraint(err)
}

func (r *rolesRepo) Rename(ctx context.Context, id, name string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE roles SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, id)
	return mapConstraint(err)
}

func (r *rolesRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = ?`, id)
	return err
}
