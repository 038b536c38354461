package admin

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/agrodesk/backoffice/internal/middleware"
)

func newStatsRouter() chi.Router {
	h := NewHandler(HandlerConfig{
		DBStats: func() sql.DBStats {
			return sql.DBStats{OpenConnections: 3}
		},
	})

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func getStatsAs(
	t *testing.T,
	router chi.Router,
	role, path string,
) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if role != "" {
		req = req.WithContext(middleware.WithPrincipal(
			req.Context(),
			middleware.Principal{ID: "u1", Email: "ops@agrodesk.dev", Role: role},
		))
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestStatsRoutes_StaffSeesSummaryOnly(t *testing.T) {
	router := newStatsRouter()

	rec := getStatsAs(t, router, "AGRONOMIST", "/admin/stats")
	assert.Equal(t, http.StatusOK, rec.Code)

	for _, path := range []string{
		"/admin/stats/db",
		"/admin/stats/redis",
		"/admin/stats/runtime",
	} {
		rec := getStatsAs(t, router, "AGRONOMIST", path)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}

func TestStatsRoutes_SuperAdminSeesInternals(t *testing.T) {
	router := newStatsRouter()

	for _, path := range []string{
		"/admin/stats",
		"/admin/stats/db",
		"/admin/stats/redis",
		"/admin/stats/runtime",
	} {
		rec := getStatsAs(t, router, middleware.RoleSuperAdmin, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestStatsRoutes_BaseRoleRejected(t *testing.T) {
	router := newStatsRouter()

	rec := getStatsAs(t, router, middleware.RoleBaseUser, "/admin/stats")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStatsRoutes_UnauthenticatedRejected(t *testing.T) {
	router := newStatsRouter()

	rec := getStatsAs(t, router, "", "/admin/stats")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
