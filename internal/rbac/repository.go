package rbac

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/agrodesk/backoffice/internal/core"
)

type Repository interface {
	HasPermission(ctx context.Context, userID, code string) (bool, error)
	HasRole(ctx context.Context, userID, roleName string) (bool, error)
	ListUserRoleNames(ctx context.Context, userID string) ([]string, error)
	EffectivePermissions(ctx context.Context, userID string) ([]string, error)

	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id string) (*Role, error)
	CreateRole(ctx context.Context, name, description string) (*Role, error)
	UpdateRole(ctx context.Context, id, name, description string) (*Role, error)
	DeleteRole(ctx context.Context, id string) error

	ListPermissions(ctx context.Context) ([]Permission, error)
	EnsurePermission(ctx context.Context, p *Permission) error
	ListRolePermissions(ctx context.Context, roleID string) ([]Permission, error)
	SetRolePermissions(ctx context.Context, roleID string, codes []string) error

	AssignRole(ctx context.Context, userID, roleID string) error
	RemoveRole(ctx context.Context, userID, roleID string) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// HasPermission walks user -> roles -> permissions for one code. A
// code that exists in no role, or does not exist at all, simply finds
// no row.
func (r *repository) HasPermission(
	ctx context.Context,
	userID, code string,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM user_roles ur
			JOIN role_permissions rp ON rp.role_id = ur.role_id
			JOIN permissions p ON p.id = rp.permission_id
			WHERE ur.user_id = $1 AND p.code = $2
		)`

	var granted bool
	if err := r.db.GetContext(ctx, &granted, query, userID, code); err != nil {
		return false, fmt.Errorf("check permission: %w", err)
	}

	return granted, nil
}

func (r *repository) HasRole(
	ctx context.Context,
	userID, roleName string,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM user_roles ur
			JOIN roles ro ON ro.id = ur.role_id
			WHERE ur.user_id = $1 AND ro.name = $2
		)`

	var held bool
	if err := r.db.GetContext(ctx, &held, query, userID, roleName); err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}

	return held, nil
}

func (r *repository) ListUserRoleNames(
	ctx context.Context,
	userID string,
) ([]string, error) {
	query := `
		SELECT ro.name
		FROM user_roles ur
		JOIN roles ro ON ro.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY ro.name`

	var names []string
	if err := r.db.SelectContext(ctx, &names, query, userID); err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}

	return names, nil
}

func (r *repository) EffectivePermissions(
	ctx context.Context,
	userID string,
) ([]string, error) {
	query := `
		SELECT DISTINCT p.code
		FROM user_roles ur
		JOIN role_permissions rp ON rp.role_id = ur.role_id
		JOIN permissions p ON p.id = rp.permission_id
		WHERE ur.user_id = $1
		ORDER BY p.code`

	var codes []string
	if err := r.db.SelectContext(ctx, &codes, query, userID); err != nil {
		return nil, fmt.Errorf("effective permissions: %w", err)
	}

	return codes, nil
}

func (r *repository) ListRoles(ctx context.Context) ([]Role, error) {
	query := `
		SELECT id, name, description, is_system, created_at, updated_at
		FROM roles
		ORDER BY name`

	var roles []Role
	if err := r.db.SelectContext(ctx, &roles, query); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	return roles, nil
}

func (r *repository) GetRole(ctx context.Context, id string) (*Role, error) {
	query := `
		SELECT id, name, description, is_system, created_at, updated_at
		FROM roles
		WHERE id = $1`

	var role Role
	err := r.db.GetContext(ctx, &role, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get role: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}

	return &role, nil
}

func (r *repository) CreateRole(
	ctx context.Context,
	name, description string,
) (*Role, error) {
	query := `
		INSERT INTO roles (id, name, description, is_system)
		VALUES ($1, $2, $3, FALSE)
		RETURNING id, name, description, is_system, created_at, updated_at`

	var role Role
	err := r.db.GetContext(ctx, &role, query, uuid.NewString(), name, description)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, fmt.Errorf("create role: %w", core.ErrDuplicateKey)
		}
		return nil, fmt.Errorf("create role: %w", err)
	}

	return &role, nil
}

func (r *repository) UpdateRole(
	ctx context.Context,
	id, name, description string,
) (*Role, error) {
	query := `
		UPDATE roles
		SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, description, is_system, created_at, updated_at`

	var role Role
	err := r.db.GetContext(ctx, &role, query, id, name, description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update role: %w", core.ErrNotFound)
	}
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, fmt.Errorf("update role: %w", core.ErrDuplicateKey)
		}
		return nil, fmt.Errorf("update role: %w", err)
	}

	return &role, nil
}

func (r *repository) DeleteRole(ctx context.Context, id string) error {
	query := `DELETE FROM roles WHERE id = $1 AND is_system = FALSE`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete role: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	query := `
		SELECT id, code, module, action, description
		FROM permissions
		ORDER BY code`

	var perms []Permission
	if err := r.db.SelectContext(ctx, &perms, query); err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}

	return perms, nil
}

// EnsurePermission upserts by code so re-registering an existing code
// refreshes its description instead of failing.
func (r *repository) EnsurePermission(
	ctx context.Context,
	p *Permission,
) error {
	query := `
		INSERT INTO permissions (code, module, action, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE SET description = EXCLUDED.description
		RETURNING id, code, module, action, description`

	err := r.db.GetContext(
		ctx,
		p,
		query,
		p.Code,
		p.Module,
		p.Action,
		p.Description,
	)
	if err != nil {
		return fmt.Errorf("ensure permission: %w", err)
	}

	return nil
}

func (r *repository) ListRolePermissions(
	ctx context.Context,
	roleID string,
) ([]Permission, error) {
	query := `
		SELECT p.id, p.code, p.module, p.action, p.description
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.code`

	var perms []Permission
	if err := r.db.SelectContext(ctx, &perms, query, roleID); err != nil {
		return nil, fmt.Errorf("list role permissions: %w", err)
	}

	return perms, nil
}

// SetRolePermissions replaces the role's grant set. The clear and the
// re-insert run in one transaction so concurrent permission checks
// never observe the role stripped bare, and a failed insert leaves the
// previous grants in place. Codes that match no known permission are
// silently skipped by the insert join.
func (r *repository) SetRolePermissions(
	ctx context.Context,
	roleID string,
	codes []string,
) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		deleteQuery := `DELETE FROM role_permissions WHERE role_id = $1`
		if _, err := tx.ExecContext(ctx, deleteQuery, roleID); err != nil {
			return fmt.Errorf("clear role permissions: %w", err)
		}

		if len(codes) == 0 {
			return nil
		}

		insertQuery := `
			INSERT INTO role_permissions (role_id, permission_id)
			SELECT $1, p.id
			FROM permissions p
			WHERE p.code = ANY($2)
			ON CONFLICT DO NOTHING`

		if _, err := tx.ExecContext(ctx, insertQuery, roleID, codes); err != nil {
			return fmt.Errorf("set role permissions: %w", err)
		}

		return nil
	})
}

func (r *repository) AssignRole(ctx context.Context, userID, roleID string) error {
	query := `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, userID, roleID); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}

	return nil
}

func (r *repository) RemoveRole(ctx context.Context, userID, roleID string) error {
	query := `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, roleID)
	if err != nil {
		return fmt.Errorf("remove role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove role: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("remove role: %w", core.ErrNotFound)
	}

	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
