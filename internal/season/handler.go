package season

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/agrodesk/backoffice/internal/core"
	"github.com/agrodesk/backoffice/internal/middleware"
	"github.com/agrodesk/backoffice/internal/rbac"
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

func (h *Handler) RegisterRoutes(r chi.Router, checker middleware.PermissionChecker) {
	r.Route("/seasons", func(r chi.Router) {
		r.With(middleware.RequirePermission(checker, rbac.PermSeasonsView)).
			Get("/", h.ListSeasons)
		r.With(middleware.RequirePermission(checker, rbac.PermSeasonsView)).
			Get("/{seasonID}", h.GetSeason)
		r.With(middleware.RequirePermission(checker, rbac.PermSeasonsCreate)).
			Post("/", h.CreateSeason)
		r.With(middleware.RequirePermission(checker, rbac.PermSeasonsEdit)).
			Put("/{seasonID}", h.UpdateSeason)
		r.With(middleware.RequirePermission(checker, rbac.PermSeasonsDelete)).
			Delete("/{seasonID}", h.DeleteSeason)
	})
}

func (h *Handler) ListSeasons(w http.ResponseWriter, r *http.Request) {
	params := ListSeasonsParams{
		Status: r.URL.Query().Get("status"),
	}

	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		params.Page = page
	}
	if size, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil {
		params.PageSize = size
	}

	params.Normalize()

	seasons, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, seasons, params.Page, params.PageSize, total)
}

func (h *Handler) GetSeason(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Get(r.Context(), chi.URLParam(r, "seasonID"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "season")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) CreateSeason(w http.ResponseWriter, r *http.Request) {
	var req CreateSeasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEndBeforeStart) {
			core.BadRequest(w, ErrEndBeforeStart.Error())
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) UpdateSeason(w http.ResponseWriter, r *http.Request) {
	var req UpdateSeasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Update(r.Context(), chi.URLParam(r, "seasonID"), req)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "season")
		case errors.Is(err, ErrEndBeforeStart):
			core.BadRequest(w, ErrEndBeforeStart.Error())
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, resp)
}

func (h *Handler) DeleteSeason(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), chi.URLParam(r, "seasonID"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "season")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}
