package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrodesk/backoffice/internal/core"
	"github.com/agrodesk/backoffice/internal/middleware"
)

type stubRepo struct {
	Repository

	rolesByUser map[string][]string
	grants      map[string]map[string]bool
	roles       map[string]*Role

	hasRoleErr       error
	hasPermissionErr error
	listRolesErr     error

	updated []string
	deleted []string
	ensured []*Permission
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		rolesByUser: make(map[string][]string),
		grants:      make(map[string]map[string]bool),
		roles:       make(map[string]*Role),
	}
}

func (s *stubRepo) grant(userID string, codes ...string) {
	if s.grants[userID] == nil {
		s.grants[userID] = make(map[string]bool)
	}
	for _, code := range codes {
		s.grants[userID][code] = true
	}
}

func (s *stubRepo) HasRole(
	ctx context.Context,
	userID, roleName string,
) (bool, error) {
	if s.hasRoleErr != nil {
		return false, s.hasRoleErr
	}
	for _, name := range s.rolesByUser[userID] {
		if name == roleName {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRepo) HasPermission(
	ctx context.Context,
	userID, code string,
) (bool, error) {
	if s.hasPermissionErr != nil {
		return false, s.hasPermissionErr
	}
	return s.grants[userID][code], nil
}

func (s *stubRepo) ListUserRoleNames(
	ctx context.Context,
	userID string,
) ([]string, error) {
	if s.listRolesErr != nil {
		return nil, s.listRolesErr
	}
	return s.rolesByUser[userID], nil
}

func (s *stubRepo) GetRole(ctx context.Context, id string) (*Role, error) {
	role, ok := s.roles[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return role, nil
}

func (s *stubRepo) UpdateRole(
	ctx context.Context,
	id, name, description string,
) (*Role, error) {
	s.updated = append(s.updated, id)
	role := *s.roles[id]
	role.Name = name
	role.Description = description
	return &role, nil
}

func (s *stubRepo) DeleteRole(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubRepo) EnsurePermission(ctx context.Context, p *Permission) error {
	p.ID = "p1"
	s.ensured = append(s.ensured, p)
	return nil
}

func TestHasPermission_GrantedThroughRole(t *testing.T) {
	repo := newStubRepo()
	repo.rolesByUser["u1"] = []string{"FIELD_MANAGER"}
	repo.grant("u1", PermSeasonsView, PermSeasonsEdit)

	svc := NewService(repo)

	granted, err := svc.HasPermission(context.Background(), "u1", PermSeasonsEdit)
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = svc.HasPermission(context.Background(), "u1", PermRolesEdit)
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestHasPermission_UnionAcrossRoles(t *testing.T) {
	repo := newStubRepo()
	repo.rolesByUser["u1"] = []string{"AGRONOMIST", "BOOKKEEPER"}
	// One role grants seasons, the other grants users. Holding both
	// roles grants the union.
	repo.grant("u1", PermSeasonsView, PermUsersView)

	svc := NewService(repo)

	for _, code := range []string{PermSeasonsView, PermUsersView} {
		granted, err := svc.HasPermission(context.Background(), "u1", code)
		require.NoError(t, err)
		assert.True(t, granted, "code %s", code)
	}
}

func TestHasPermission_SuperRoleBypassesLookup(t *testing.T) {
	repo := newStubRepo()
	repo.rolesByUser["root"] = []string{middleware.RoleSuperAdmin}
	repo.hasPermissionErr = errors.New("permission lookup should not run")

	svc := NewService(repo)

	// Known and unknown codes alike pass for the super role.
	for _, code := range []string{PermRolesEdit, "warehouse.transfer", "no.such.code"} {
		granted, err := svc.HasPermission(context.Background(), "root", code)
		require.NoError(t, err)
		assert.True(t, granted, "code %s", code)
	}
}

func TestHasPermission_UnknownCodeIsDeniedNotError(t *testing.T) {
	repo := newStubRepo()
	repo.rolesByUser["u1"] = []string{"FIELD_MANAGER"}
	repo.grant("u1", PermSeasonsView)

	svc := NewService(repo)

	granted, err := svc.HasPermission(context.Background(), "u1", "no.such.code")
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestHasPermission_NoRoles(t *testing.T) {
	svc := NewService(newStubRepo())

	granted, err := svc.HasPermission(context.Background(), "stranger", PermSeasonsView)
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestHasPermission_StoreErrorPropagates(t *testing.T) {
	repo := newStubRepo()
	repo.hasRoleErr = errors.New("connection reset")

	svc := NewService(repo)

	_, err := svc.HasPermission(context.Background(), "u1", PermSeasonsView)
	require.Error(t, err)
}

func TestResolveRoleName(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  string
	}{
		{"no assignments", nil, middleware.RoleBaseUser},
		{"single role", []string{"FIELD_MANAGER"}, "FIELD_MANAGER"},
		{"first by name", []string{"AGRONOMIST", "FIELD_MANAGER"}, "AGRONOMIST"},
		{
			"super wins",
			[]string{"AGRONOMIST", middleware.RoleSuperAdmin},
			middleware.RoleSuperAdmin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newStubRepo()
			repo.rolesByUser["u1"] = tt.roles

			svc := NewService(repo)

			role, err := svc.ResolveRoleName(context.Background(), "u1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, role)
		})
	}
}

func TestResolveRoleName_StoreError(t *testing.T) {
	repo := newStubRepo()
	repo.listRolesErr = errors.New("connection reset")

	svc := NewService(repo)

	_, err := svc.ResolveRoleName(context.Background(), "u1")
	require.Error(t, err)
}

func TestUpdateRole_SystemRoleRejected(t *testing.T) {
	repo := newStubRepo()
	repo.roles["r1"] = &Role{
		ID:       "r1",
		Name:     middleware.RoleSuperAdmin,
		IsSystem: true,
	}

	svc := NewService(repo)

	_, err := svc.UpdateRole(context.Background(), "r1", "renamed", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSystemRole))
	assert.Empty(t, repo.updated)

	err = svc.DeleteRole(context.Background(), "r1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSystemRole))
	assert.Empty(t, repo.deleted)
}

func TestUpdateRole_CustomRole(t *testing.T) {
	repo := newStubRepo()
	repo.roles["r2"] = &Role{ID: "r2", Name: "FIELD_MANAGER"}

	svc := NewService(repo)

	role, err := svc.UpdateRole(
		context.Background(),
		"r2",
		"HARVEST_LEAD",
		"runs the harvest crew",
	)
	require.NoError(t, err)
	assert.Equal(t, "HARVEST_LEAD", role.Name)
	assert.Equal(t, []string{"r2"}, repo.updated)

	require.NoError(t, svc.DeleteRole(context.Background(), "r2"))
	assert.Equal(t, []string{"r2"}, repo.deleted)
}

func TestEnsurePermission_NormalizesCode(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	perm, err := svc.EnsurePermission(
		context.Background(),
		"  Harvests.Report ",
		"generate harvest reports",
	)
	require.NoError(t, err)

	assert.Equal(t, "harvests.report", perm.Code)
	assert.Equal(t, "harvests", perm.Module)
	assert.Equal(t, "report", perm.Action)
	require.Len(t, repo.ensured, 1)
}

func TestEnsurePermission_RejectsUndottedCode(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	for _, code := range []string{"harvests", ".report", "harvests.", ""} {
		_, err := svc.EnsurePermission(context.Background(), code, "")
		assert.ErrorIs(t, err, ErrBadPermissionCode, "code %q", code)
	}

	assert.Empty(t, repo.ensured)
}
