package rbac

// Permission codes referenced from route definitions. The seed
// migration keeps the permissions table in sync with this list.
const (
	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermRolesView = "roles.view"
	PermRolesEdit = "roles.edit"

	PermPermissionsView = "permissions.view"
	PermPermissionsEdit = "permissions.edit"

	PermSeasonsView   = "seasons.view"
	PermSeasonsCreate = "seasons.create"
	PermSeasonsEdit   = "seasons.edit"
	PermSeasonsDelete = "seasons.delete"
)
