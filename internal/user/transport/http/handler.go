package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"subtrack/internal/api/dto"
	"subtrack/internal/subscription"
	"subtrack/internal/token"
	"subtrack/internal/user"
	"subtrack/internal/user/service"
	"subtrack/pkg/middleware"
)

type Handler struct {
	UserService *service.UserService
	logger      *zap.Logger
}

func NewHandler(us *service.UserService, logger *zap.Logger) *Handler {
	return &Handler{UserService: us, logger: logger}
}

// PublicRoutes регистрирует маршруты без аутентификации
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
	r.Post("/logout", h.Logout)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/reset-password", h.ResetPassword)
}

// Routes регистрирует маршруты текущего пользователя (под JWTAuth)
func (h *Handler) Routes(r chi.Router) {
	r.Get("/user", h.Me)
	r.Put("/user/profile", h.UpdateProfile)
	r.Put("/user/settings", h.UpdateSettings)
	r.Post("/user/change-password", h.ChangePassword)
	r.Post("/user/deactivate", h.Deactivate)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	u, err := h.UserService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	sess, err := h.UserService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, sess)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if !decode(w, r, &req) {
		return
	}

	sess, err := h.UserService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, sess)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.UserService.Logout(r.Context(), req.RefreshToken); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.UserService.ForgotPassword(r.Context(), req.Email); err != nil {
		h.writeError(w, err)
		return
	}
	// одинаковый ответ для известных и неизвестных адресов
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "If an account with that email exists, a reset link has been sent.",
	})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.UserService.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.writeError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password has been reset."})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	u, err := h.UserService.GetByID(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	var req dto.UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}

	u, err := h.UserService.UpdateProfile(r.Context(), userID, req.Name, req.Email)
	if err != nil {
		h.writeError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	var req dto.UpdateSettingsRequest
	if !decode(w, r, &req) {
		return
	}

	u, err := h.UserService.UpdateSettings(r.Context(), userID, user.Settings{
		Currency:           req.Currency,
		ReminderDays:       req.ReminderDays,
		EmailNotifications: req.EmailNotifications,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	var req dto.ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.UserService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	if err := h.UserService.Deactivate(r.Context(), userID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrUserExists), errors.Is(err, user.ErrEmailInUse):
		middleware.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, user.ErrInvalidCreds),
		errors.Is(err, token.ErrInvalidToken),
		errors.Is(err, token.ErrExpiredToken):
		middleware.WriteError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, user.ErrDeactivated):
		middleware.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, user.ErrWrongPassword):
		middleware.WriteFieldError(w, "current_password", err.Error())
	case errors.Is(err, user.ErrInvalidSettings):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, user.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("user request failed", zap.Error(err))
		middleware.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := dto.Check(req); err != nil {
		var verr *subscription.ValidationError
		if errors.As(err, &verr) {
			middleware.WriteFieldError(w, verr.Field, verr.Message)
		} else {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
		}
		return false
	}
	return true
}
