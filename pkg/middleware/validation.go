// pkg/middleware/validation.go

package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
)

// maxBodySize ограничивает тело запроса (1MB)
const maxBodySize = 1 << 20

// ErrorResponse стандартный формат ошибок API
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ValidateRequest проверяет корректность запроса перед передачей его обработчику
func ValidateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			contentType := r.Header.Get("Content-Type")
			if contentType != "" && !strings.Contains(contentType, "application/json") {
				WriteError(w, http.StatusUnsupportedMediaType, "invalid Content-Type, expected application/json")
				return
			}
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		next.ServeHTTP(w, r)
	})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorResponse{Error: msg})
}

// WriteFieldError отвечает 400 с указанием поля, не прошедшего проверку
func WriteFieldError(w http.ResponseWriter, field, msg string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg, Field: field})
}
