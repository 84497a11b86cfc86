package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"utility-cloud/internal/audit"
	"utility-cloud/internal/auth"
	invoices "utility-cloud/internal/invoices/domain"
	paymentsapp "utility-cloud/internal/payments/application"
	payments "utility-cloud/internal/payments/domain"
)

// Handler serves payment endpoints.
type Handler struct {
	service     *paymentsapp.Service
	auditLogger audit.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *paymentsapp.Service, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("payments handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP routes payment requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/payments"), "/")
	switch {
	case path == "" && r.Method == http.MethodPost:
		h.handleRecord(w, r)
	case path == "" && r.Method == http.MethodGet:
		h.handleList(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InvoiceID string          `json:"invoice_id"`
		Amount    decimal.Decimal `json:"amount"`
		Method    string          `json:"method"`
		Reference string          `json:"reference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	payment, invoice, err := h.service.Record(r.Context(), tenantID, req.InvoiceID, req.Amount, req.Method, req.Reference)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"payment":        paymentView(payment),
		"invoice_status": invoice.Status,
		"balance":        invoice.Balance(),
	})
	h.logAudit(r, payment)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantIDFromContext(r.Context())
	invoiceID := r.URL.Query().Get("invoice_id")

	var (
		list []*payments.Payment
		err  error
	)
	if invoiceID != "" {
		list, err = h.service.ListByInvoice(r.Context(), tenantID, invoiceID)
	} else {
		list, err = h.service.ListByTenant(r.Context(), tenantID)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	views := make([]map[string]any, 0, len(list))
	for _, payment := range list {
		views = append(views, paymentView(payment))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

func (h *Handler) logAudit(r *http.Request, payment *payments.Payment) {
	if h.auditLogger == nil || payment == nil {
		return
	}
	meta, _ := json.Marshal(map[string]any{
		"invoice_id": payment.InvoiceID,
		"amount":     payment.Amount.String(),
		"method":     payment.Method,
	})
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		TenantID:     payment.TenantID,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       "payment.record",
		ResourceType: "payment",
		ResourceID:   payment.ID,
		Metadata:     meta,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func paymentView(payment *payments.Payment) map[string]any {
	return map[string]any{
		"id":          payment.ID,
		"invoice_id":  payment.InvoiceID,
		"amount":      payment.Amount,
		"method":      payment.Method,
		"reference":   payment.Reference,
		"received_at": payment.ReceivedAt,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, invoices.ErrNotFound), errors.Is(err, payments.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, payments.ErrInvalidMethod),
		errors.Is(err, invoices.ErrNotIssued),
		errors.Is(err, invoices.ErrOverpayment),
		errors.Is(err, invoices.ErrNonPositiveAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
