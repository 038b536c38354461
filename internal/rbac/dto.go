package rbac

type CreateRoleRequest struct {
	Name        string `json:"name"        validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=255"`
}

type UpdateRoleRequest struct {
	Name        string `json:"name"        validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=255"`
}

type SetPermissionsRequest struct {
	Codes []string `json:"codes" validate:"required,dive,min=1,max=100"`
}

type EnsurePermissionRequest struct {
	Code        string `json:"code"        validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"max=255"`
}

type AssignRoleRequest struct {
	RoleID string `json:"role_id" validate:"required,uuid"`
}
