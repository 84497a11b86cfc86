package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"utility-cloud/internal/audit"
	"utility-cloud/internal/auth"
	subscriptionsapp "utility-cloud/internal/subscriptions/application"
	subscriptions "utility-cloud/internal/subscriptions/domain"
)

// Handler serves subscription endpoints.
type Handler struct {
	service     *subscriptionsapp.Service
	auditLogger audit.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *subscriptionsapp.Service, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("subscriptions handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP routes subscription requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/subscriptions"), "/")
	parts := strings.Split(path, "/")

	switch {
	case path == "" && r.Method == http.MethodPost:
		h.handleCreate(w, r)
	case path == "" && r.Method == http.MethodGet:
		h.handleList(w, r)
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handleGet(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "renew" && r.Method == http.MethodPost:
		h.handleRenew(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "cancel" && r.Method == http.MethodPost:
		h.handleCancel(w, r, parts[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UnitID     string          `json:"unit_id"`
		PlanName   string          `json:"plan_name"`
		Amount     decimal.Decimal `json:"amount"`
		Currency   string          `json:"currency"`
		PeriodDays int             `json:"period_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	sub, err := h.service.Create(r.Context(), tenantID, req.UnitID, req.PlanName, req.Amount, req.Currency, req.PeriodDays)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(subscriptionView(sub))
	h.logAudit(r, "subscription.create", sub)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantIDFromContext(r.Context())
	list, err := h.service.List(r.Context(), tenantID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	views := make([]map[string]any, 0, len(list))
	for _, sub := range list {
		views = append(views, subscriptionView(sub))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	tenantID := auth.TenantIDFromContext(r.Context())
	sub, err := h.service.Get(r.Context(), tenantID, id)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(subscriptionView(sub))
}

func (h *Handler) handleRenew(w http.ResponseWriter, r *http.Request, id string) {
	tenantID := auth.TenantIDFromContext(r.Context())
	sub, err := h.service.Renew(r.Context(), tenantID, id)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(subscriptionView(sub))
	h.logAudit(r, "subscription.renew", sub)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request, id string) {
	tenantID := auth.TenantIDFromContext(r.Context())
	sub, err := h.service.Cancel(r.Context(), tenantID, id)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(subscriptionView(sub))
	h.logAudit(r, "subscription.cancel", sub)
}

func (h *Handler) logAudit(r *http.Request, action string, sub *subscriptions.Subscription) {
	if h.auditLogger == nil || sub == nil {
		return
	}
	meta, _ := json.Marshal(map[string]any{
		"unit_id":   sub.UnitID,
		"plan_name": sub.PlanName,
		"status":    string(sub.Status),
	})
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		TenantID:     sub.TenantID,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "subscription",
		ResourceID:   sub.ID,
		Metadata:     meta,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func subscriptionView(sub *subscriptions.Subscription) map[string]any {
	view := map[string]any{
		"id":                   sub.ID,
		"unit_id":              sub.UnitID,
		"plan_name":            sub.PlanName,
		"amount":               sub.Amount,
		"currency":             sub.Currency,
		"period_days":          sub.PeriodDays,
		"status":               sub.Status,
		"current_period_start": sub.CurrentPeriodStart,
		"current_period_end":   sub.CurrentPeriodEnd,
		"created_at":           sub.CreatedAt,
	}
	if !sub.CancelledAt.IsZero() {
		view["cancelled_at"] = sub.CancelledAt
	}
	return view
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, subscriptions.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, subscriptions.ErrCancelled),
		errors.Is(err, subscriptions.ErrInvalidPeriod):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
