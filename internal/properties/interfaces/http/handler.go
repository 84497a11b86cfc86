package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"utility-cloud/internal/audit"
	"utility-cloud/internal/auth"
	propertiesapp "utility-cloud/internal/properties/application"
	properties "utility-cloud/internal/properties/domain"
)

// Handler serves property, unit and meter endpoints.
type Handler struct {
	service     *propertiesapp.Service
	auditLogger audit.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *propertiesapp.Service, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("properties handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP routes property requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/v1/properties"):
		h.routeProperties(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/meters"):
		h.routeMeters(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) routeProperties(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/properties"), "/")
	parts := strings.Split(path, "/")

	switch {
	case path == "" && r.Method == http.MethodPost:
		h.handleCreateProperty(w, r)
	case path == "" && r.Method == http.MethodGet:
		h.handleListProperties(w, r)
	case len(parts) == 2 && parts[1] == "units" && r.Method == http.MethodPost:
		h.handleCreateUnit(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "units" && r.Method == http.MethodGet:
		h.handleListUnits(w, r, parts[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) routeMeters(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/meters"), "/")
	parts := strings.Split(path, "/")

	switch {
	case path == "" && r.Method == http.MethodPost:
		h.handleCreateMeter(w, r)
	case path == "" && r.Method == http.MethodGet:
		h.handleListMeters(w, r)
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handleGetMeter(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "tariff" && r.Method == http.MethodPut:
		h.handleAssignTariff(w, r, parts[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleCreateProperty(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	property, err := h.service.CreateProperty(r.Context(), tenantID, req.Name, req.Address)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, propertyView(property))
	h.logAudit(r, "property.create", "property", property.ID, property.TenantID)
}

func (h *Handler) handleListProperties(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantIDFromContext(r.Context())
	list, err := h.service.ListProperties(r.Context(), tenantID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	views := make([]map[string]any, 0, len(list))
	for i := range list {
		views = append(views, propertyView(&list[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) handleCreateUnit(w http.ResponseWriter, r *http.Request, propertyID string) {
	var req struct {
		Label      string `json:"label"`
		OccupantID string `json:"occupant_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	unit, err := h.service.CreateUnit(r.Context(), tenantID, propertyID, req.Label, req.OccupantID)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, unitView(unit))
	h.logAudit(r, "unit.create", "unit", unit.ID, unit.TenantID)
}

func (h *Handler) handleListUnits(w http.ResponseWriter, r *http.Request, propertyID string) {
	tenantID := auth.TenantIDFromContext(r.Context())
	list, err := h.service.ListUnits(r.Context(), tenantID, propertyID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	views := make([]map[string]any, 0, len(list))
	for i := range list {
		views = append(views, unitView(&list[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) handleCreateMeter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UnitID   string `json:"unit_id"`
		Serial   string `json:"serial"`
		Service  string `json:"service"`
		TariffID string `json:"tariff_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	meter, err := h.service.CreateMeter(r.Context(), tenantID, req.UnitID, req.Serial, req.Service, req.TariffID)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, meterView(meter))
	h.logAudit(r, "meter.create", "meter", meter.ID, meter.TenantID)
}

func (h *Handler) handleListMeters(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantIDFromContext(r.Context())
	list, err := h.service.ListMeters(r.Context(), tenantID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	views := make([]map[string]any, 0, len(list))
	for i := range list {
		views = append(views, meterView(&list[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) handleGetMeter(w http.ResponseWriter, r *http.Request, meterID string) {
	tenantID := auth.TenantIDFromContext(r.Context())
	meter, err := h.service.GetMeter(r.Context(), tenantID, meterID)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, meterView(meter))
}

func (h *Handler) handleAssignTariff(w http.ResponseWriter, r *http.Request, meterID string) {
	var req struct {
		TariffID string `json:"tariff_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	if err := h.service.AssignTariff(r.Context(), tenantID, meterID, req.TariffID); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, "meter.assign_tariff", "meter", meterID, tenantID)
}

func (h *Handler) logAudit(r *http.Request, action, resourceType, resourceID, tenantID string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		TenantID:     tenantID,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func propertyView(p *properties.Property) map[string]any {
	return map[string]any{
		"id":         p.ID,
		"name":       p.Name,
		"address":    p.Address,
		"created_at": p.CreatedAt,
	}
}

func unitView(u *properties.Unit) map[string]any {
	return map[string]any{
		"id":          u.ID,
		"property_id": u.PropertyID,
		"label":       u.Label,
		"occupant_id": u.OccupantID,
		"created_at":  u.CreatedAt,
	}
}

func meterView(m *properties.Meter) map[string]any {
	return map[string]any{
		"id":         m.ID,
		"unit_id":    m.UnitID,
		"serial":     m.Serial,
		"service":    m.Service,
		"unit":       m.Service.Unit(),
		"tariff_id":  m.TariffID,
		"created_at": m.CreatedAt,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, properties.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, properties.ErrInvalidService):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
