package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postLogin(t *testing.T, handler *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(
		http.MethodPost,
		"/v1/auth/login",
		strings.NewReader(body),
	)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.Login(rec, req)
	return rec
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
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

func TestLoginHandler_Success(t *testing.T) {
	fx := newServiceFixture(t, activeUser(t, "u1", "lena@farm.example"))
	handler := NewHandler(fx.service)

	rec := postLogin(t, handler,
		`{"email":"lena@farm.example","password":"`+testPassword+`"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool         `json:"success"`
		Data    AuthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.Data.Token.AccessToken)
	assert.Equal(t, "lena@farm.example", body.Data.User.Email)
}

func TestLoginHandler_WrongPassword(t *testing.T) {
	fx := newServiceFixture(t, activeUser(t, "u1", "lena@farm.example"))
	handler := NewHandler(fx.service)

	rec := postLogin(t, handler,
		`{"email":"lena@farm.example","password":"definitely wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	_, message := decodeErrorBody(t, rec)
	assert.Contains(t, message, "attempts remaining")
}

func TestLoginHandler_UnknownAccountGenericMessage(t *testing.T) {
	fx := newServiceFixture(t)
	handler := NewHandler(fx.service)

	rec := postLogin(t, handler,
		`{"email":"nobody@farm.example","password":"whatever1"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	_, message := decodeErrorBody(t, rec)
	assert.Equal(t, "invalid email or password", message)
}

func TestLoginHandler_LockedAccount(t *testing.T) {
	fx := newServiceFixture(t, activeUser(t, "u1", "lena@farm.example"))
	handler := NewHandler(fx.service)

	for i := 0; i < testThreshold; i++ {
		postLogin(t, handler,
			`{"email":"lena@farm.example","password":"definitely wrong"}`)
	}

	rec := postLogin(t, handler,
		`{"email":"lena@farm.example","password":"`+testPassword+`"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	code, message := decodeErrorBody(t, rec)
	assert.Equal(t, "ACCOUNT_LOCKED", code)
	assert.Contains(t, message, "administrator")
}

func TestLoginHandler_ValidationFailure(t *testing.T) {
	fx := newServiceFixture(t)
	handler := NewHandler(fx.service)

	rec := postLogin(t, handler, `{"email":"not-an-email","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postLogin(t, handler, `{broken json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterHandler_DuplicateEmail(t *testing.T) {
	fx := newServiceFixture(t, activeUser(t, "u1", "lena@farm.example"))
	handler := NewHandler(fx.service)

	req := httptest.NewRequest(
		http.MethodPost,
		"/v1/auth/register",
		strings.NewReader(
			`{"email":"lena@farm.example","password":"long enough pw","name":"Lena"}`,
		),
	)
	rec := httptest.NewRecorder()
	handler.Register(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
