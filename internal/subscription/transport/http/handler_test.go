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

	"subtrack/internal/subscription/repository"
	"subtrack/internal/subscription/service"
	"subtrack/pkg/middleware"
)

var fixedNow = time.Date(2024, 6, 7, 9, 0, 0, 0, time.UTC)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	svc := service.NewService(repository.NewMemoryRepository(), 0, zap.NewNop(),
		service.WithClock(func() time.Time { return fixedNow }))
	h := NewSubscriptionHandler(svc, zap.NewNop())

	r := chi.NewRouter()
	// тестовая аутентификация: пользователь берётся из заголовка X-User
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			id := int64(1)
			if req.Header.Get("X-User") == "2" {
				id = 2
			}
			next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, id)))
		})
	})
	r.Route("/api", h.Routes)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string, user string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != "" {
		req.Header.Set("X-User", user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const netflix = `{"name":"Netflix","category":"Entertainment","plan":"Premium","amount":"15.99",
	"billing_cycle":"Monthly","next_payment_date":"2024-06-10","reminder":"3 days before"}`

func TestHandler_CRUD(t *testing.T) {
	h := newRouter(t)

	rec := do(t, h, http.MethodPost, "/api/subscriptions", netflix, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "active", created.Status)

	rec = do(t, h, http.MethodGet, "/api/subscriptions/1", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/subscriptions/1", "", "2")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/subscriptions/42", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/subscriptions/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/subscriptions?q=netf", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = do(t, h, http.MethodGet, "/api/subscriptions", "", "2")
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/api/subscriptions/1", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandler_CreateValidation(t *testing.T) {
	h := newRouter(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing name", `{"category":"Other","plan":"x","amount":1,"billing_cycle":"Monthly","next_payment_date":"2024-06-10"}`, "name"},
		{"bad cycle", `{"name":"x","category":"Other","plan":"x","amount":1,"billing_cycle":"Weekly","next_payment_date":"2024-06-10"}`, "billing_cycle"},
		{"zero amount", `{"name":"x","category":"Other","plan":"x","amount":0,"billing_cycle":"Monthly","next_payment_date":"2024-06-10"}`, "amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/subscriptions", tt.body, "")
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp middleware.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.field, resp.Field)
		})
	}

	rec := do(t, h, http.MethodPost, "/api/subscriptions", `{"amount":"abc"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_RenewAndStats(t *testing.T) {
	h := newRouter(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/subscriptions", netflix, "").Code)
	annual := `{"name":"Adobe","category":"Software","plan":"CC","amount":120,"billing_cycle":"Annually","next_payment_date":"2024-09-01"}`
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/subscriptions", annual, "").Code)

	rec := do(t, h, http.MethodGet, "/api/stats", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"active_count":2,"normalized_monthly_cost":25.99,"upcoming_renewal_count":1,"upcoming_renewal_cost":15.99}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/subscriptions/1/renew", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var renewed struct {
		NextPaymentDate time.Time `json:"next_payment_date"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &renewed))
	assert.True(t, renewed.NextPaymentDate.Equal(time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)))

	rec = do(t, h, http.MethodGet, "/api/reports/categories", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"category":"Software","amount":120,"count":1},{"category":"Entertainment","amount":15.99,"count":1}]`, rec.Body.String())
}
