package rbac

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/agrodesk/backoffice/internal/core"
	"github.com/agrodesk/backoffice/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts role and permission administration. Every
// route runs behind the authenticator plus a permission gate.
func (h *Handler) RegisterRoutes(r chi.Router, checker middleware.PermissionChecker) {
	r.Route("/roles", func(r chi.Router) {
		r.With(middleware.RequirePermission(checker, PermRolesView)).
			Get("/", h.ListRoles)
		r.With(middleware.RequirePermission(checker, PermRolesView)).
			Get("/{roleID}", h.GetRole)
		r.With(middleware.RequirePermission(checker, PermRolesEdit)).
			Post("/", h.CreateRole)
		r.With(middleware.RequirePermission(checker, PermRolesEdit)).
			Put("/{roleID}", h.UpdateRole)
		r.With(middleware.RequirePermission(checker, PermRolesEdit)).
			Delete("/{roleID}", h.DeleteRole)
		r.With(middleware.RequirePermission(checker, PermRolesEdit)).
			Put("/{roleID}/permissions", h.SetRolePermissions)
	})

	r.With(middleware.RequirePermission(checker, PermPermissionsView)).
		Get("/permissions", h.ListPermissions)
	r.With(middleware.RequirePermission(checker, PermPermissionsEdit)).
		Post("/permissions", h.EnsurePermission)

	r.Route("/users/{userID}/roles", func(r chi.Router) {
		r.With(middleware.RequirePermission(checker, PermUsersEdit)).
			Post("/", h.AssignRole)
		r.With(middleware.RequirePermission(checker, PermUsersEdit)).
			Delete("/{roleID}", h.RemoveRole)
	})

	// A user can always see their own effective permissions.
	r.Get("/me/permissions", h.MyPermissions)
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, roles)
}

func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.GetRole(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "role")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, role)
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	role, err := h.service.CreateRole(r.Context(), req.Name, req.Description)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.JSONError(w, core.DuplicateError("role name"))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, role)
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	role, err := h.service.UpdateRole(
		r.Context(),
		chi.URLParam(r, "roleID"),
		req.Name,
		req.Description,
	)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "role")
		case errors.Is(err, ErrSystemRole):
			core.Forbidden(w, ErrSystemRole.Error())
		case errors.Is(err, core.ErrDuplicateKey):
			core.JSONError(w, core.DuplicateError("role name"))
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, role)
}

func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteRole(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "role")
		case errors.Is(err, ErrSystemRole):
			core.Forbidden(w, ErrSystemRole.Error())
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.NoContent(w)
}

func (h *Handler) SetRolePermissions(w http.ResponseWriter, r *http.Request) {
	var req SetPermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	err := h.service.SetRolePermissions(
		r.Context(),
		chi.URLParam(r, "roleID"),
		req.Codes,
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "role")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, perms)
}

func (h *Handler) EnsurePermission(w http.ResponseWriter, r *http.Request) {
	var req EnsurePermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	perm, err := h.service.EnsurePermission(r.Context(), req.Code, req.Description)
	if err != nil {
		if errors.Is(err, ErrBadPermissionCode) {
			core.BadRequest(w, ErrBadPermissionCode.Error())
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, perm)
}

func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	var req AssignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	err := h.service.AssignRole(
		r.Context(),
		chi.URLParam(r, "userID"),
		req.RoleID,
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "role")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	err := h.service.RemoveRole(
		r.Context(),
		chi.URLParam(r, "userID"),
		chi.URLParam(r, "roleID"),
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "role assignment")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) MyPermissions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	codes, err := h.service.EffectivePermissions(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string][]string{"permissions": codes})
}
