package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"utility-cloud/internal/auth"
	usageapp "utility-cloud/internal/usage/application"
)

// Handler serves consumption rollup queries.
type Handler struct {
	service *usageapp.Service
}

// NewHandler constructs a Handler.
func NewHandler(service *usageapp.Service) (*Handler, error) {
	if service == nil {
		return nil, errors.New("usage handler: nil service")
	}
	return &Handler{service: service}, nil
}

// ServeHTTP answers GET /api/v1/usage?meter_id=&granularity=&from=&to=.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	meterID := query.Get("meter_id")
	if meterID == "" {
		http.Error(w, "meter_id required", http.StatusBadRequest)
		return
	}
	from, err := parseTimestamp(query.Get("from"))
	if err != nil {
		http.Error(w, "invalid from", http.StatusBadRequest)
		return
	}
	to, err := parseTimestamp(query.Get("to"))
	if err != nil {
		http.Error(w, "invalid to", http.StatusBadRequest)
		return
	}

	tenantID := auth.TenantIDFromContext(r.Context())
	buckets, err := h.service.Rollup(r.Context(), tenantID, meterID, query.Get("granularity"), from, to)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	views := make([]map[string]any, 0, len(buckets))
	for _, bucket := range buckets {
		views = append(views, map[string]any{
			"bucket_start":  bucket.Start,
			"consumption":   bucket.Consumption,
			"reading_count": bucket.ReadingCount,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

func parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func statusFor(err error) int {
	if errors.Is(err, usageapp.ErrUnknownGranularity) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
