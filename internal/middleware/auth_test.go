package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrodesk/backoffice/internal/core"
)

type stubVerifier struct {
	claims *SessionClaims
	err    error
}

func (s *stubVerifier) VerifySessionToken(
	ctx context.Context,
	token string,
) (*SessionClaims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

type stubChecker struct {
	allowed map[string]bool
	err     error

	lastUserID string
	lastCode   string
}

func (s *stubChecker) HasPermission(
	ctx context.Context,
	userID, code string,
) (bool, error) {
	s.lastUserID = userID
	s.lastCode = code
	if s.err != nil {
		return false, s.err
	}
	return s.allowed[code], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Error.Code, body.Error.Message
}

func TestAuthenticator_MissingToken(t *testing.T) {
	handler := Authenticator(&stubVerifier{})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/seasons", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	_, message := decodeError(t, rec)
	assert.Contains(t, message, "missing authorization token")
}

func TestAuthenticator_MalformedHeader(t *testing.T) {
	handler := Authenticator(&stubVerifier{})(okHandler())

	for _, header := range []string{"Token abc", "Bearer", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/seasons", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestAuthenticator_ExpiredToken(t *testing.T) {
	verifier := &stubVerifier{err: core.ErrTokenExpired}
	handler := Authenticator(verifier)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/seasons", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	code, _ := decodeError(t, rec)
	assert.Equal(t, "TOKEN_EXPIRED", code)
}

func TestAuthenticator_InvalidToken(t *testing.T) {
	verifier := &stubVerifier{err: core.ErrTokenInvalid}
	handler := Authenticator(verifier)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/seasons", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	code, _ := decodeError(t, rec)
	assert.Equal(t, "TOKEN_INVALID", code)
}

func TestAuthenticator_AttachesPrincipal(t *testing.T) {
	verifier := &stubVerifier{claims: &SessionClaims{
		UserID: "u1",
		Email:  "lena@farm.example",
		Role:   "FIELD_MANAGER",
	}}

	var seen Principal
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		require.True(t, ok)
		seen = principal
	})

	handler := Authenticator(verifier)(inner)

	req := httptest.NewRequest(http.MethodGet, "/v1/seasons", nil)
	req.Header.Set("Authorization", "bearer some-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "u1", seen.ID)
	assert.Equal(t, "lena@farm.example", seen.Email)
	assert.Equal(t, "FIELD_MANAGER", seen.Role)
}

func requestWithPrincipal(p Principal) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/v1/seasons", nil)
	return req.WithContext(WithPrincipal(req.Context(), p))
}

func TestRequirePermission_Allowed(t *testing.T) {
	checker := &stubChecker{allowed: map[string]bool{"seasons.view": true}}
	handler := RequirePermission(checker, "seasons.view")(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithPrincipal(Principal{ID: "u1"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", checker.lastUserID)
	assert.Equal(t, "seasons.view", checker.lastCode)
}

func TestRequirePermission_DeniedNamesTheCode(t *testing.T) {
	checker := &stubChecker{allowed: map[string]bool{}}
	handler := RequirePermission(checker, "seasons.edit")(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithPrincipal(Principal{ID: "u1"}))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	_, message := decodeError(t, rec)
	assert.Contains(t, message, "seasons.edit")
}

func TestRequirePermission_NoPrincipal(t *testing.T) {
	checker := &stubChecker{}
	handler := RequirePermission(checker, "seasons.view")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/seasons", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequirePermission_LookupFailureIsNotADenial(t *testing.T) {
	checker := &stubChecker{err: errors.New("connection reset")}
	handler := RequirePermission(checker, "seasons.view")(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithPrincipal(Principal{ID: "u1"}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// The opaque 500 body must not leak the backing error.
	_, message := decodeError(t, rec)
	assert.NotContains(t, message, "connection reset")
}

func TestRequireStaff(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{RoleSuperAdmin, http.StatusOK},
		{"FIELD_MANAGER", http.StatusOK},
		{RoleBaseUser, http.StatusForbidden},
		{"", http.StatusForbidden},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		RequireStaff(okHandler()).ServeHTTP(
			rec,
			requestWithPrincipal(Principal{ID: "u1", Role: tt.role}),
		)
		assert.Equal(t, tt.want, rec.Code, "role %q", tt.role)
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole("FIELD_MANAGER", RoleSuperAdmin)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithPrincipal(Principal{ID: "u1", Role: "FIELD_MANAGER"}))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithPrincipal(Principal{ID: "u1", Role: RoleBaseUser}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"BEARER abc123", "abc123"},
		{"Basic abc123", ""},
		{"Bearer", ""},
		{"", ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, ExtractToken(req), "header %q", tt.header)
	}
}
