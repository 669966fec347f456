package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"subtrack/internal/api/dto"
	"subtrack/internal/subscription"
	"subtrack/internal/subscription/service"
	"subtrack/pkg/middleware"
)

type Handler struct {
	SubscriptionService *service.Service
	logger              *zap.Logger
}

func NewSubscriptionHandler(ss *service.Service, logger *zap.Logger) *Handler {
	return &Handler{SubscriptionService: ss, logger: logger}
}

// Routes подключает маршруты; ожидается, что JWTAuth уже стоит выше.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/subscriptions", h.List)
	r.Post("/subscriptions", h.Create)
	r.Get("/subscriptions/{id}", h.Get)
	r.Put("/subscriptions/{id}", h.Update)
	r.Delete("/subscriptions/{id}", h.Delete)
	r.Post("/subscriptions/{id}/renew", h.Renew)
	r.Get("/stats", h.Stats)
	r.Get("/reports/categories", h.Categories)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	filter := subscription.Filter{Query: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, ok := subscription.ParseStatus(raw)
		if !ok {
			middleware.WriteFieldError(w, "status", "unknown status")
			return
		}
		filter.Status = st
	}

	subs, err := h.SubscriptionService.List(r.Context(), userID, filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if subs == nil {
		subs = []subscription.Subscription{}
	}
	middleware.WriteJSON(w, http.StatusOK, subs)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	id, ok := subscriptionID(w, r)
	if !ok {
		return
	}

	sub, err := h.SubscriptionService.Get(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	sub, err := h.SubscriptionService.Create(r.Context(), userID, req.Input())
	if err != nil {
		h.writeError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, sub)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	id, ok := subscriptionID(w, r)
	if !ok {
		return
	}

	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	sub, err := h.SubscriptionService.Update(r.Context(), userID, id, req.Input())
	if err != nil {
		h.writeError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	id, ok := subscriptionID(w, r)
	if !ok {
		return
	}

	if err := h.SubscriptionService.Delete(r.Context(), userID, id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Renew(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	id, ok := subscriptionID(w, r)
	if !ok {
		return
	}

	sub, err := h.SubscriptionService.Renew(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, sub)
}

type statsResponse struct {
	ActiveCount           int     `json:"active_count"`
	NormalizedMonthlyCost float64 `json:"normalized_monthly_cost"`
	UpcomingRenewalCount  int     `json:"upcoming_renewal_count"`
	UpcomingRenewalCost   float64 `json:"upcoming_renewal_cost"`
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	stats, err := h.SubscriptionService.Stats(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, statsResponse{
		ActiveCount:           stats.ActiveCount,
		NormalizedMonthlyCost: money(stats.NormalizedMonthlyCost),
		UpcomingRenewalCount:  stats.UpcomingRenewalCount,
		UpcomingRenewalCost:   money(stats.UpcomingRenewalCost),
	})
}

type categoryResponse struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Count    int     `json:"count"`
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	report, err := h.SubscriptionService.CategoryReport(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := make([]categoryResponse, 0, len(report))
	for _, c := range report {
		resp = append(resp, categoryResponse{Category: string(c.Category), Amount: money(c.Amount), Count: c.Count})
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr *subscription.ValidationError
	switch {
	case errors.As(err, &verr):
		middleware.WriteFieldError(w, verr.Field, verr.Message)
	case errors.Is(err, subscription.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "subscription not found")
	case errors.Is(err, subscription.ErrForbidden):
		middleware.WriteError(w, http.StatusForbidden, "access denied")
	default:
		h.logger.Error("subscription request failed", zap.Error(err))
		middleware.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (dto.SubscriptionRequest, bool) {
	var req dto.SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	if err := dto.Check(req); err != nil {
		var verr *subscription.ValidationError
		if errors.As(err, &verr) {
			middleware.WriteFieldError(w, verr.Field, verr.Message)
		} else {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
		}
		return req, false
	}
	return req, true
}

func subscriptionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, "invalid subscription id")
		return 0, false
	}
	return id, true
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
