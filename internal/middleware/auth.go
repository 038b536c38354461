package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/agrodesk/backoffice/internal/core"
)

// TokenVerifier validates a bearer credential and returns the identity
// snapshot it carries.
type TokenVerifier interface {
	VerifySessionToken(ctx context.Context, token string) (*SessionClaims, error)
}

// SessionClaims is the decoded content of a session token.
type SessionClaims struct {
	UserID string
	Email  string
	Role   string
}

// PermissionChecker resolves fine-grained permission codes for a
// principal. A lookup failure is an error, never a deny.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID, code string) (bool, error)
}

// Authenticator extracts and verifies the bearer token and attaches the
// resulting principal to the request context. Every rejection is a
// structured 401; nothing past this middleware runs unauthenticated.
func Authenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("missing authorization token"),
				)
				return
			}

			claims, err := verifier.VerifySessionToken(r.Context(), token)
			if err != nil {
				writeAuthError(w, err)
				return
			}

			ctx := WithPrincipal(r.Context(), Principal{
				ID:    claims.UserID,
				Email: claims.Email,
				Role:  claims.Role,
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission gates a route on a permission code. The denial
// message names the code: codes are not secret, and the admin frontend
// surfaces them to explain what to ask for.
func RequirePermission(
	checker PermissionChecker,
	code string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			allowed, err := checker.HasPermission(
				r.Context(),
				principal.ID,
				code,
			)
			if err != nil {
				// Could not decide: this must be distinguishable from
				// an actual denial.
				core.InternalServerError(
					w,
					fmt.Errorf("permission lookup for %q: %w", code, err),
				)
				return
			}

			if !allowed {
				core.Forbidden(
					w,
					fmt.Sprintf("missing permission %q", code),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole gates a route group on the token's role snapshot. No
// store access: the coarse gate trusts the credential.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			if _, ok := roleSet[principal.Role]; !ok {
				core.Forbidden(w, "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff admits any principal whose role is not the base one,
// plus the super role (which IsStaff already covers).
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			core.JSONError(
				w,
				core.UnauthorizedError("authentication required"),
			)
			return
		}

		if !principal.IsStaff() {
			core.Forbidden(w, "staff access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func writeAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	default:
		core.JSONError(w, core.TokenInvalidError())
	}
}
