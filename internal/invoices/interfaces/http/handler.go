package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"utility-cloud/internal/audit"
	"utility-cloud/internal/auth"
	billing "utility-cloud/internal/billing/domain"
	invoicesapp "utility-cloud/internal/invoices/application"
	invoices "utility-cloud/internal/invoices/domain"
	"utility-cloud/internal/invoices/interfaces"
	"utility-cloud/internal/observability/metrics"
)

// Handler serves invoice endpoints.
type Handler struct {
	service     *invoicesapp.Service
	auditLogger audit.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *invoicesapp.Service, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("invoices handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP routes invoice requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/api/v1/invoices") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/invoices"), "/")
	parts := strings.Split(path, "/")

	switch {
	case path == "generate" && r.Method == http.MethodPost:
		h.handleGenerate(w, r)
	case path == "" && r.Method == http.MethodGet:
		h.handleList(w, r)
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handleGet(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "lines" && r.Method == http.MethodGet:
		h.handleLines(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "issue" && r.Method == http.MethodPost:
		h.handleIssue(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "void" && r.Method == http.MethodPost:
		h.handleVoid(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "export.pdf" && r.Method == http.MethodGet:
		h.handleExport(w, r, parts[0], "pdf")
	case len(parts) == 2 && parts[1] == "export.xlsx" && r.Method == http.MethodGet:
		h.handleExport(w, r, parts[0], "xlsx")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var req struct {
		MeterID     string `json:"meter_id"`
		PeriodStart string `json:"period_start"`
		PeriodEnd   string `json:"period_end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	periodStart, err := time.Parse(time.RFC3339, req.PeriodStart)
	if err != nil {
		http.Error(w, "period_start must be RFC3339", http.StatusBadRequest)
		return
	}
	periodEnd, err := time.Parse(time.RFC3339, req.PeriodEnd)
	if err != nil {
		http.Error(w, "period_end must be RFC3339", http.StatusBadRequest)
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	invoice, lines, err := h.service.Generate(r.Context(), tenantID, req.MeterID, periodStart, periodEnd)
	if err != nil {
		metrics.ObserveInvoiceGenerate(metrics.ResultError, time.Since(started))
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	metrics.ObserveInvoiceGenerate(metrics.ResultSuccess, time.Since(started))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"invoice": invoiceView(invoice),
		"lines":   lineViews(lines),
	})
	h.logAudit(r, invoice, "invoice.generate", map[string]any{
		"meter_id":     req.MeterID,
		"period_start": req.PeriodStart,
		"period_end":   req.PeriodEnd,
		"version":      invoice.Version,
	})
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request, id string) {
	invoice, err := h.service.Issue(r.Context(), auth.TenantIDFromContext(r.Context()), id)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(invoiceView(invoice))
	h.logAudit(r, invoice, "invoice.issue", nil)
}

func (h *Handler) handleVoid(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		http.Error(w, "reason required", http.StatusBadRequest)
		return
	}
	invoice, err := h.service.Void(r.Context(), auth.TenantIDFromContext(r.Context()), id, req.Reason)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(invoiceView(invoice))
	h.logAudit(r, invoice, "invoice.void", map[string]any{"reason": req.Reason})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	invoice, err := h.service.Get(r.Context(), auth.TenantIDFromContext(r.Context()), id)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(invoiceView(invoice))
}

func (h *Handler) handleLines(w http.ResponseWriter, r *http.Request, id string) {
	lines, err := h.service.Lines(r.Context(), auth.TenantIDFromContext(r.Context()), id)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(lineViews(lines))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), auth.TenantIDFromContext(r.Context()), r.URL.Query().Get("meter_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	views := make([]map[string]any, 0, len(list))
	for _, invoice := range list {
		views = append(views, invoiceView(invoice))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request, id, format string) {
	started := time.Now()
	tenantID := auth.TenantIDFromContext(r.Context())
	invoice, err := h.service.Get(r.Context(), tenantID, id)
	if err != nil {
		metrics.ObserveInvoiceExport(format, metrics.ResultError, time.Since(started))
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	lines, err := h.service.Lines(r.Context(), tenantID, id)
	if err != nil {
		metrics.ObserveInvoiceExport(format, metrics.ResultError, time.Since(started))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	var payload []byte
	var contentType string
	switch format {
	case "pdf":
		payload, err = interfaces.BuildInvoicePDF(invoice, lines)
		contentType = "application/pdf"
	case "xlsx":
		payload, err = interfaces.BuildInvoiceXLSX(invoice, lines)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		http.Error(w, "unsupported format", http.StatusBadRequest)
		return
	}
	if err != nil {
		metrics.ObserveInvoiceExport(format, metrics.ResultError, time.Since(started))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.ObserveInvoiceExport(format, metrics.ResultSuccess, time.Since(started))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="invoice-`+invoice.ID+`.`+format+`"`)
	_, _ = w.Write(payload)
	h.logAudit(r, invoice, "invoice.export", map[string]any{"format": format})
}

func (h *Handler) logAudit(r *http.Request, invoice *invoices.Invoice, action string, meta map[string]any) {
	if h.auditLogger == nil || invoice == nil {
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
		ResourceType: "invoice",
		ResourceID:   invoice.ID,
		MeterID:      invoice.MeterID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func invoiceView(invoice *invoices.Invoice) map[string]any {
	view := map[string]any{
		"id":                invoice.ID,
		"meter_id":          invoice.MeterID,
		"period_start":      invoice.PeriodStart,
		"period_end":        invoice.PeriodEnd,
		"status":            invoice.Status,
		"version":           invoice.Version,
		"total_consumption": invoice.TotalConsumption,
		"total_amount":      invoice.TotalAmount,
		"amount_paid":       invoice.AmountPaid,
		"balance":           invoice.Balance(),
		"currency":          invoice.Currency,
		"created_at":        invoice.CreatedAt,
		"updated_at":        invoice.UpdatedAt,
	}
	if !invoice.IssuedAt.IsZero() {
		view["issued_at"] = invoice.IssuedAt
	}
	if !invoice.PaidAt.IsZero() {
		view["paid_at"] = invoice.PaidAt
	}
	if invoice.Status == invoices.StatusVoided {
		view["void_reason"] = invoice.VoidReason
		view["voided_at"] = invoice.VoidedAt
	}
	return view
}

func lineViews(lines []invoices.LineItem) []map[string]any {
	views := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		views = append(views, map[string]any{
			"interval_start": line.IntervalStart,
			"interval_end":   line.IntervalEnd,
			"consumption":    line.Consumption,
			"amount":         line.Amount,
			"strategy":       line.Strategy,
		})
	}
	return views
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, invoices.ErrNotFound), errors.Is(err, billing.ErrTariffNotFound):
		return http.StatusNotFound
	case errors.Is(err, invoices.ErrNotDraft),
		errors.Is(err, invoices.ErrNotIssued),
		errors.Is(err, invoices.ErrAlreadyVoided),
		errors.Is(err, invoices.ErrActiveInvoiceExists),
		errors.Is(err, invoices.ErrInsufficientReadings),
		errors.Is(err, invoices.ErrInvalidPeriod),
		errors.Is(err, invoices.ErrOverpayment),
		errors.Is(err, invoices.ErrNonPositiveAmount),
		errors.Is(err, billing.ErrUnsupportedTariffType),
		errors.Is(err, billing.ErrNoZoneMatched):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
