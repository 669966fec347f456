package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	tokenrepo "subtrack/internal/token/repository"
	userrepo "subtrack/internal/user/repository"
	"subtrack/internal/user/service"
	"subtrack/pkg/jwt"
	"subtrack/pkg/middleware"
)

type nopMailer struct{ link string }

func (m *nopMailer) SendPasswordReset(_ context.Context, _, _, link string) error {
	m.link = link
	return nil
}

func newRouter(t *testing.T) (http.Handler, *nopMailer) {
	t.Helper()
	manager := jwt.NewManager("test", time.Hour)
	mailer := &nopMailer{}
	svc := service.NewUserService(userrepo.NewMemoryUserRepository(), tokenrepo.NewMemoryTokenRepository(),
		manager, mailer, service.Options{FrontendURL: "http://app", RefreshTTL: time.Hour}, zap.NewNop())
	h := NewHandler(svc, zap.NewNop())

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		h.PublicRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(manager))
			h.Routes(r)
		})
	})
	return r, mailer
}

func call(t *testing.T, h http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func registerAndLogin(t *testing.T, h http.Handler) session {
	t.Helper()
	rec := call(t, h, http.MethodPost, "/api/register", `{"username":"alice","email":"alice@example.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "secret1")

	rec = call(t, h, http.MethodPost, "/api/login", `{"username":"alice","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var s session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	return s
}

func TestAuthFlow(t *testing.T) {
	h, _ := newRouter(t)
	s := registerAndLogin(t, h)

	rec := call(t, h, http.MethodGet, "/api/user", "", s.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var me map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "alice", me["username"])
	assert.Equal(t, "USD", me["currency"])
	assert.NotContains(t, me, "password")

	rec = call(t, h, http.MethodGet, "/api/user", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/refresh", `{"refresh_token":"`+s.RefreshToken+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/refresh", `{"refresh_token":"`+s.RefreshToken+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegister_Errors(t *testing.T) {
	h, _ := newRouter(t)
	registerAndLogin(t, h)

	rec := call(t, h, http.MethodPost, "/api/register", `{"username":"alice","email":"x@example.com","password":"secret1"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/register", `{"username":"bob","email":"bob@example.com","password":"123"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"password"`)

	rec = call(t, h, http.MethodPost, "/api/login", `{"username":"alice","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSettingsAndDeactivate(t *testing.T) {
	h, _ := newRouter(t)
	s := registerAndLogin(t, h)

	rec := call(t, h, http.MethodPut, "/api/user/settings", `{"currency":"EUR","reminder_days":7,"email_notifications":false}`, s.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"currency":"EUR"`)
	assert.Contains(t, rec.Body.String(), `"reminder_days":7`)

	rec = call(t, h, http.MethodPut, "/api/user/settings", `{"reminder_days":45}`, s.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/user/change-password", `{"current_password":"nope","new_password":"secret2"}`, s.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/user/deactivate", ``, s.AccessToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/login", `{"username":"alice","password":"secret1"}`, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestForgotAndResetPassword(t *testing.T) {
	h, mailer := newRouter(t)
	registerAndLogin(t, h)

	rec := call(t, h, http.MethodPost, "/api/forgot-password", `{"email":"ghost@example.com"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, mailer.link)

	rec = call(t, h, http.MethodPost, "/api/forgot-password", `{"email":"alice@example.com"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, mailer.link)

	resetToken := mailer.link[strings.LastIndex(mailer.link, "/")+1:]
	rec = call(t, h, http.MethodPost, "/api/reset-password", `{"token":"`+resetToken+`","password":"secret9"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/login", `{"username":"alice","password":"secret9"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
