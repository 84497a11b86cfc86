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
	readingsapp "utility-cloud/internal/readings/application"
	readings "utility-cloud/internal/readings/domain"
)

// Handler serves meter reading endpoints.
type Handler struct {
	service     *readingsapp.Service
	auditLogger audit.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *readingsapp.Service, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("readings handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP routes reading requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/api/v1/readings") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/readings"), "/")
	parts := strings.Split(path, "/")

	switch {
	case path == "" && r.Method == http.MethodPost:
		h.handleSubmit(w, r)
	case path == "" && r.Method == http.MethodGet:
		h.handleList(w, r)
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handleGet(w, r, parts[0])
	case len(parts) == 1 && r.Method == http.MethodPut:
		h.handleUpdate(w, r, parts[0])
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.handleDelete(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "validate" && r.Method == http.MethodPost:
		h.handleValidate(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "reject" && r.Method == http.MethodPost:
		h.handleReject(w, r, parts[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MeterID string          `json:"meter_id"`
		Value   decimal.Decimal `json:"value"`
		ReadAt  string          `json:"read_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	var readAt time.Time
	if req.ReadAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.ReadAt)
		if err != nil {
			http.Error(w, "read_at must be RFC3339", http.StatusBadRequest)
			return
		}
		readAt = parsed
	}
	ctx := r.Context()
	reading, err := h.service.Submit(ctx, auth.TenantIDFromContext(ctx), req.MeterID, auth.SubjectFromContext(ctx), req.Value, readAt)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(readingView(reading))
	h.logAudit(r, reading, "reading.submit", map[string]any{"value": req.Value.String()})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Value  decimal.Decimal `json:"value"`
		ReadAt string          `json:"read_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	var readAt time.Time
	if req.ReadAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.ReadAt)
		if err != nil {
			http.Error(w, "read_at must be RFC3339", http.StatusBadRequest)
			return
		}
		readAt = parsed
	}
	ctx := r.Context()
	reading, err := h.service.Update(ctx, auth.TenantIDFromContext(ctx), id, actorFrom(r), elevated(r), req.Value, readAt)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(readingView(reading))
	h.logAudit(r, reading, "reading.update", map[string]any{"value": req.Value.String()})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	if err := h.service.Delete(ctx, auth.TenantIDFromContext(ctx), id, actorFrom(r), elevated(r)); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, &readings.MeterReading{ID: id, TenantID: auth.TenantIDFromContext(ctx)}, "reading.delete", nil)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	reading, err := h.service.Validate(ctx, auth.TenantIDFromContext(ctx), id)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(readingView(reading))
	h.logAudit(r, reading, "reading.validate", nil)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	reading, err := h.service.Reject(ctx, auth.TenantIDFromContext(ctx), id, req.Note)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(readingView(reading))
	h.logAudit(r, reading, "reading.reject", map[string]any{"note": req.Note})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	reading, err := h.service.Get(r.Context(), auth.TenantIDFromContext(r.Context()), id)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(readingView(reading))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	meterID := r.URL.Query().Get("meter_id")
	if meterID == "" {
		http.Error(w, "meter_id required", http.StatusBadRequest)
		return
	}
	from, to, err := parseRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.service.ListByMeter(r.Context(), auth.TenantIDFromContext(r.Context()), meterID, from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	views := make([]map[string]any, 0, len(list))
	for _, reading := range list {
		views = append(views, readingView(reading))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

func (h *Handler) logAudit(r *http.Request, reading *readings.MeterReading, action string, meta map[string]any) {
	if h.auditLogger == nil || reading == nil {
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
		ResourceType: "reading",
		ResourceID:   reading.ID,
		MeterID:      reading.MeterID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func actorFrom(r *http.Request) readings.Actor {
	ctx := r.Context()
	return readings.Actor{
		ID:       auth.SubjectFromContext(ctx),
		TenantID: auth.TenantIDFromContext(ctx),
	}
}

func elevated(r *http.Request) bool {
	return auth.RoleAtLeast(auth.RoleFromContext(r.Context()), auth.RoleManager)
}

func parseRange(r *http.Request) (time.Time, time.Time, error) {
	from := time.Time{}
	to := time.Now().UTC().Add(24 * time.Hour)
	if value := r.URL.Query().Get("from"); value != "" {
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("from must be RFC3339")
		}
		from = parsed
	}
	if value := r.URL.Query().Get("to"); value != "" {
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("to must be RFC3339")
		}
		to = parsed
	}
	return from, to, nil
}

func readingView(reading *readings.MeterReading) map[string]any {
	return map[string]any{
		"id":          reading.ID,
		"meter_id":    reading.MeterID,
		"value":       reading.Value,
		"read_at":     reading.ReadAt,
		"entered_by":  reading.EnteredBy,
		"status":      reading.ValidationStatus,
		"review_note": reading.ReviewNote,
		"created_at":  reading.CreatedAt,
		"updated_at":  reading.UpdatedAt,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, readings.ErrNotFound), errors.Is(err, auth.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, readings.ErrForbidden), errors.Is(err, auth.ErrTenantMismatch):
		return http.StatusForbidden
	case errors.Is(err, readings.ErrNegativeValue), errors.Is(err, readings.ErrNotPending):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
