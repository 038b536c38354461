package middleware

import "context"

// Distinguished role names. The super role bypasses fine-grained
// permission checks entirely; the base role is what self-registered
// accounts hold before an administrator assigns anything.
const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleBaseUser   = "user"
)

// Principal is the authenticated actor attached to the request context.
// It is a snapshot of the session token's claims: immutable for the
// request's duration, and the role may lag behind the database until
// the token is reissued.
type Principal struct {
	ID    string
	Email string
	Role  string
}

func (p Principal) IsSuperAdmin() bool {
	return p.Role == RoleSuperAdmin
}

// IsStaff reports whether the principal holds any role beyond the base
// one. Staff-only route groups gate on this rather than on a specific
// permission code.
func (p Principal) IsStaff() bool {
	return p.Role != "" && p.Role != RoleBaseUser
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// GetUserID returns the authenticated principal's id, or "" when the
// request never passed the authenticator.
func GetUserID(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.ID
}

func GetUserEmail(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.Email
}

func GetUserRole(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.Role
}

func IsAuthenticated(ctx context.Context) bool {
	return GetUserID(ctx) != ""
}
