package rbac

import (
	"context"
	"fmt"
	"strings"

	"github.com/agrodesk/backoffice/internal/middleware"
)

// Service answers permission questions for the request gate and
// resolves the role name stamped into session tokens. Every check
// hits the store; grants an administrator changes apply on the next
// request, not the next login.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var (
	_ middleware.PermissionChecker = (*Service)(nil)
)

// HasPermission reports whether the user may perform the operation
// behind code. Holders of the super role pass every check, including
// codes that do not exist.
func (s *Service) HasPermission(
	ctx context.Context,
	userID, code string,
) (bool, error) {
	super, err := s.repo.HasRole(ctx, userID, middleware.RoleSuperAdmin)
	if err != nil {
		return false, err
	}
	if super {
		return true, nil
	}

	return s.repo.HasPermission(ctx, userID, code)
}

// ResolveRoleName picks the single display role for a token: the
// super role if held, otherwise the first assigned role by name,
// otherwise the base role.
func (s *Service) ResolveRoleName(
	ctx context.Context,
	userID string,
) (string, error) {
	names, err := s.repo.ListUserRoleNames(ctx, userID)
	if err != nil {
		return "", err
	}

	for _, name := range names {
		if name == middleware.RoleSuperAdmin {
			return name, nil
		}
	}

	if len(names) > 0 {
		return names[0], nil
	}

	return middleware.RoleBaseUser, nil
}

func (s *Service) EffectivePermissions(
	ctx context.Context,
	userID string,
) ([]string, error) {
	return s.repo.EffectivePermissions(ctx, userID)
}

func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

func (s *Service) GetRole(
	ctx context.Context,
	id string,
) (*RoleWithPermissions, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}

	perms, err := s.repo.ListRolePermissions(ctx, id)
	if err != nil {
		return nil, err
	}

	return &RoleWithPermissions{Role: *role, Permissions: perms}, nil
}

func (s *Service) CreateRole(
	ctx context.Context,
	name, description string,
) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("role name required")
	}

	return s.repo.CreateRole(ctx, name, strings.TrimSpace(description))
}

func (s *Service) UpdateRole(
	ctx context.Context,
	id, name, description string,
) (*Role, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	if role.IsSystem {
		return nil, ErrSystemRole
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("role name required")
	}

	return s.repo.UpdateRole(ctx, id, name, strings.TrimSpace(description))
}

func (s *Service) DeleteRole(ctx context.Context, id string) error {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return ErrSystemRole
	}

	return s.repo.DeleteRole(ctx, id)
}

func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// EnsurePermission registers a dotted "module.action" code, upserting
// by code.
func (s *Service) EnsurePermission(
	ctx context.Context,
	code, description string,
) (*Permission, error) {
	code = strings.TrimSpace(strings.ToLower(code))

	module, action, ok := strings.Cut(code, ".")
	if !ok || module == "" || action == "" {
		return nil, ErrBadPermissionCode
	}

	p := &Permission{
		Code:        code,
		Module:      module,
		Action:      action,
		Description: strings.TrimSpace(description),
	}

	if err := s.repo.EnsurePermission(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) SetRolePermissions(
	ctx context.Context,
	roleID string,
	codes []string,
) error {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return err
	}

	return s.repo.SetRolePermissions(ctx, roleID, codes)
}

func (s *Service) AssignRole(ctx context.Context, userID, roleID string) error {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return err
	}

	return s.repo.AssignRole(ctx, userID, roleID)
}

func (s *Service) RemoveRole(ctx context.Context, userID, roleID string) error {
	return s.repo.RemoveRole(ctx, userID, roleID)
}
