package rbac

import (
	"errors"
	"time"
)

// ErrSystemRole rejects rename or deletion of roles the application
// seeds and depends on, SUPER_ADMIN in particular.
var ErrSystemRole = errors.New("system roles cannot be modified")

// ErrBadPermissionCode rejects permission codes that do not follow the
// dotted "module.action" convention.
var ErrBadPermissionCode = errors.New("permission code must be module.action")

// Role is a named grant bundle. System roles ship with the seed data
// and are immutable through the API.
type Role struct {
	ID          string    `db:"id"          json:"id"`
	Name        string    `db:"name"        json:"name"`
	Description string    `db:"description" json:"description"`
	IsSystem    bool      `db:"is_system"   json:"is_system"`
	CreatedAt   time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"  json:"updated_at"`
}

// Permission is an atomic capability identified by a dotted code,
// "seasons.edit" style. Module and action are the two halves of the
// code, stored separately for grouping in admin screens.
type Permission struct {
	ID          string `db:"id"          json:"id"`
	Code        string `db:"code"        json:"code"`
	Module      string `db:"module"      json:"module"`
	Action      string `db:"action"      json:"action"`
	Description string `db:"description" json:"description"`
}

// RoleWithPermissions is the admin detail projection of a role.
type RoleWithPermissions struct {
	Role
	Permissions []Permission `json:"permissions"`
}
