package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"utility-cloud/internal/audit"
	"utility-cloud/internal/auth"
	billingapp "utility-cloud/internal/billing/application"
	billing "utility-cloud/internal/billing/domain"
	"utility-cloud/internal/observability/metrics"
)

// Handler serves tariff management and quote endpoints.
type Handler struct {
	service     *billingapp.Service
	auditLogger audit.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *billingapp.Service, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("billing handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP routes tariff requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/api/v1/tariffs") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/tariffs"), "/")
	parts := strings.Split(path, "/")

	switch {
	case path == "" && r.Method == http.MethodGet:
		h.handleList(w, r)
	case path == "" && r.Method == http.MethodPost:
		h.handleCreate(w, r)
	case path == "quote" && r.Method == http.MethodPost:
		h.handleQuote(w, r)
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handleGet(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "configuration" && r.Method == http.MethodPut:
		h.handleConfiguration(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "activate" && r.Method == http.MethodPost:
		h.handleSetActive(w, r, parts[0], true)
	case len(parts) == 2 && parts[1] == "deactivate" && r.Method == http.MethodPost:
		h.handleSetActive(w, r, parts[0], false)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string          `json:"name"`
		Type          string          `json:"type"`
		Currency      string          `json:"currency"`
		Configuration json.RawMessage `json:"configuration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	tariff, err := h.service.CreateTariff(r.Context(), tenantID, req.Name, req.Type, req.Currency, req.Configuration)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(tariffView(tariff))
	h.logAudit(r, tariff.ID, "tariff.create", map[string]any{"type": req.Type, "name": req.Name})
}

func (h *Handler) handleConfiguration(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Configuration json.RawMessage `json:"configuration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	tariff, err := h.service.UpdateConfiguration(r.Context(), tenantID, id, req.Configuration)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(tariffView(tariff))
	h.logAudit(r, id, "tariff.configuration.update", nil)
}

func (h *Handler) handleSetActive(w http.ResponseWriter, r *http.Request, id string, active bool) {
	tenantID := auth.TenantIDFromContext(r.Context())
	tariff, err := h.service.SetActive(r.Context(), tenantID, id, active)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(tariffView(tariff))
	h.logAudit(r, id, "tariff.active.set", map[string]any{"active": active})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	tenantID := auth.TenantIDFromContext(r.Context())
	tariff, err := h.service.GetTariff(r.Context(), tenantID, id)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(tariffView(tariff))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantIDFromContext(r.Context())
	tariffs, err := h.service.ListTariffs(r.Context(), tenantID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	views := make([]map[string]any, 0, len(tariffs))
	for _, t := range tariffs {
		views = append(views, tariffView(t))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var req struct {
		TariffID    string          `json:"tariff_id"`
		Consumption decimal.Decimal `json:"consumption"`
		At          string          `json:"at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	var at time.Time
	if req.At != "" {
		parsed, err := time.Parse(time.RFC3339, req.At)
		if err != nil {
			http.Error(w, "at must be RFC3339", http.StatusBadRequest)
			return
		}
		at = parsed
	}
	result, err := h.service.Quote(r.Context(), billingapp.QuoteRequest{
		TenantID:    auth.TenantIDFromContext(r.Context()),
		TariffID:    req.TariffID,
		Consumption: req.Consumption,
		At:          at,
	})
	if err != nil {
		metrics.ObserveQuote(metrics.ResultError, time.Since(started))
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	metrics.ObserveQuote(metrics.ResultSuccess, time.Since(started))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (h *Handler) logAudit(r *http.Request, tariffID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		TenantID:     tenantID,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "tariff",
		ResourceID:   tariffID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func tariffView(t *billing.Tariff) map[string]any {
	view := map[string]any{
		"id":         t.ID,
		"name":       t.Name,
		"type":       t.Type,
		"currency":   t.Currency,
		"active":     t.Active,
		"created_at": t.CreatedAt,
		"updated_at": t.UpdatedAt,
	}
	switch t.Type {
	case billing.TariffFlat:
		view["configuration"] = t.Flat
	case billing.TariffTimeOfUse:
		view["configuration"] = t.TimeOfUse
	case billing.TariffTiered:
		view["configuration"] = t.Tiered
	}
	return view
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, billing.ErrTariffNotFound):
		return http.StatusNotFound
	case errors.Is(err, billing.ErrUnsupportedTariffType),
		errors.Is(err, billing.ErrInvalidConfiguration),
		errors.Is(err, billing.ErrMissingConfiguration),
		errors.Is(err, billing.ErrNegativeConsumption),
		errors.Is(err, billing.ErrNoZoneMatched),
		errors.Is(err, billing.ErrTariffInactive):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
