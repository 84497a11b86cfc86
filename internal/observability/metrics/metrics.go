package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "utility_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	quoteTotal   *prometheus.CounterVec
	quoteLatency *prometheus.HistogramVec

	readingSubmitTotal    *prometheus.CounterVec
	readingReviewTotal    *prometheus.CounterVec
	readingMutationDenied prometheus.Counter

	invoiceGenerateTotal   *prometheus.CounterVec
	invoiceGenerateLatency *prometheus.HistogramVec
	invoiceExportTotal     *prometheus.CounterVec
	invoiceExportLatency   *prometheus.HistogramVec

	paymentRecordTotal *prometheus.CounterVec

	outboxDispatchTotal *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		quoteTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "tariff_quote_total",
				Help: "Total tariff quote calculations by result",
			},
			[]string{"result"},
		)
		quoteLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "tariff_quote_latency_seconds",
				Help:    "Tariff quote latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		readingSubmitTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reading_submit_total",
				Help: "Total meter reading submissions by initial status",
			},
			[]string{"status"},
		)
		readingReviewTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reading_review_total",
				Help: "Total reading review decisions by outcome",
			},
			[]string{"outcome"},
		)
		readingMutationDenied = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "reading_mutation_denied_total",
				Help: "Total occupant reading mutations denied by workflow",
			},
		)

		invoiceGenerateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "invoice_generate_total",
				Help: "Total invoice generate operations by result",
			},
			[]string{"result"},
		)
		invoiceGenerateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "invoice_generate_latency_seconds",
				Help:    "Invoice generate latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		invoiceExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "invoice_export_total",
				Help: "Total invoice export operations by format and result",
			},
			[]string{"format", "result"},
		)
		invoiceExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "invoice_export_latency_seconds",
				Help:    "Invoice export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		paymentRecordTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "payment_record_total",
				Help: "Total recorded payments by result",
			},
			[]string{"result"},
		)

		outboxDispatchTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "outbox_dispatch_total",
				Help: "Total outbox dispatch attempts by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			quoteTotal,
			quoteLatency,
			readingSubmitTotal,
			readingReviewTotal,
			readingMutationDenied,
			invoiceGenerateTotal,
			invoiceGenerateLatency,
			invoiceExportTotal,
			invoiceExportLatency,
			paymentRecordTotal,
			outboxDispatchTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveQuote records tariff quote latency and result.
func ObserveQuote(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if quoteTotal != nil {
		quoteTotal.WithLabelValues(result).Inc()
	}
	if quoteLatency != nil {
		quoteLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncReadingSubmitted increments reading submissions by initial status.
func IncReadingSubmitted(status string) {
	if status == "" {
		status = "unknown"
	}
	if readingSubmitTotal != nil {
		readingSubmitTotal.WithLabelValues(status).Inc()
	}
}

// IncReadingReview increments review decision counters.
func IncReadingReview(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	if readingReviewTotal != nil {
		readingReviewTotal.WithLabelValues(outcome).Inc()
	}
}

// IncReadingMutationDenied increments workflow denial counter.
func IncReadingMutationDenied() {
	if readingMutationDenied != nil {
		readingMutationDenied.Inc()
	}
}

// ObserveInvoiceGenerate records generate latency and result.
func ObserveInvoiceGenerate(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if invoiceGenerateTotal != nil {
		invoiceGenerateTotal.WithLabelValues(result).Inc()
	}
	if invoiceGenerateLatency != nil {
		invoiceGenerateLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveInvoiceExport records export latency and result.
func ObserveInvoiceExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if invoiceExportTotal != nil {
		invoiceExportTotal.WithLabelValues(format, result).Inc()
	}
	if invoiceExportLatency != nil {
		invoiceExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncPaymentRecorded increments payment result counters.
func IncPaymentRecorded(result string) {
	if result == "" {
		result = resultSuccess
	}
	if paymentRecordTotal != nil {
		paymentRecordTotal.WithLabelValues(result).Inc()
	}
}

// IncOutboxDispatch increments outbox dispatch counters.
func IncOutboxDispatch(result string) {
	if result == "" {
		result = resultSuccess
	}
	if outboxDispatchTotal != nil {
		outboxDispatchTotal.WithLabelValues(result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
