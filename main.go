package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"utility-cloud/internal/audit"
	"utility-cloud/internal/auth"
	billingapp "utility-cloud/internal/billing/application"
	billingrepo "utility-cloud/internal/billing/infrastructure/postgres"
	billinghttp "utility-cloud/internal/billing/interfaces/http"
	"utility-cloud/internal/eventing"
	"utility-cloud/internal/eventing/eventbus"
	eventingrepo "utility-cloud/internal/eventing/infrastructure/postgres"
	invoicemeters "utility-cloud/internal/invoices/adapters/meters"
	invoicereadings "utility-cloud/internal/invoices/adapters/readingsource"
	invoicesapp "utility-cloud/internal/invoices/application"
	invoiceevents "utility-cloud/internal/invoices/application/events"
	invoicesrepo "utility-cloud/internal/invoices/infrastructure/postgres"
	invoicesinterfaces "utility-cloud/internal/invoices/interfaces"
	invoiceshttp "utility-cloud/internal/invoices/interfaces/http"
	"utility-cloud/internal/observability/metrics"
	paymentsapp "utility-cloud/internal/payments/application"
	paymentsrepo "utility-cloud/internal/payments/infrastructure/postgres"
	paymentshttp "utility-cloud/internal/payments/interfaces/http"
	propertiesapp "utility-cloud/internal/properties/application"
	propertiesrepo "utility-cloud/internal/properties/infrastructure/postgres"
	propertieshttp "utility-cloud/internal/properties/interfaces/http"
	readingsapp "utility-cloud/internal/readings/application"
	readingevents "utility-cloud/internal/readings/application/events"
	readingsrepo "utility-cloud/internal/readings/infrastructure/postgres"
	readingsinterfaces "utility-cloud/internal/readings/interfaces"
	readingshttp "utility-cloud/internal/readings/interfaces/http"
	subscriptionsapp "utility-cloud/internal/subscriptions/application"
	subscriptionsrepo "utility-cloud/internal/subscriptions/infrastructure/postgres"
	subscriptionshttp "utility-cloud/internal/subscriptions/interfaces/http"
	usageapp "utility-cloud/internal/usage/application"
	usagerepo "utility-cloud/internal/usage/infrastructure/postgres"
	usagehttp "utility-cloud/internal/usage/interfaces/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	meterChecker := auth.NewMeterChecker(db)
	auditRepo := audit.NewRepository(db)

	baseBus := eventbus.NewInMemoryBus()
	registry := eventing.NewRegistry()
	registry.Register(readingevents.ReadingValidated{})
	registry.Register(readingevents.ReadingRejected{})
	registry.Register(invoiceevents.InvoiceIssued{})
	registry.Register(invoiceevents.InvoiceVoided{})

	outboxStore := eventingrepo.NewOutboxStore(db)
	processedStore := eventingrepo.NewProcessedStore(db)
	dlqStore := eventingrepo.NewDLQStore(db)
	dispatcher := eventing.NewDispatcher(baseBus, outboxStore, registry, dlqStore)
	publisher := eventing.NewPublisher(outboxStore, dispatcher, cfg.TenantID, baseBus)

	tariffRepo := billingrepo.NewTariffRepository(db)
	billingService, err := billingapp.NewService(tariffRepo, nil, nil)
	if err != nil {
		logger.Fatalf("billing service error: %v", err)
	}
	billingHandler, err := billinghttp.NewHandler(billingService, auditRepo)
	if err != nil {
		logger.Fatalf("billing handler error: %v", err)
	}

	propertyRepo := propertiesrepo.NewPropertyRepository(db)
	meterRepo := propertiesrepo.NewMeterRepository(db)
	propertiesService, err := propertiesapp.NewService(propertyRepo, meterRepo, nil)
	if err != nil {
		logger.Fatalf("properties service error: %v", err)
	}
	propertiesHandler, err := propertieshttp.NewHandler(propertiesService, auditRepo)
	if err != nil {
		logger.Fatalf("properties handler error: %v", err)
	}

	workflowCfg, err := readingsapp.LoadWorkflowConfig()
	if err != nil {
		logger.Fatalf("workflow config error: %v", err)
	}
	readingRepo := readingsrepo.NewReadingRepository(db)
	readingPublisher := readingsinterfaces.NewOutboxPublisher(publisher, cfg.TenantID)
	readingsService, err := readingsapp.NewService(readingRepo, meterChecker, workflowCfg, readingPublisher, nil)
	if err != nil {
		logger.Fatalf("readings service error: %v", err)
	}
	readingsHandler, err := readingshttp.NewHandler(readingsService, auditRepo)
	if err != nil {
		logger.Fatalf("readings handler error: %v", err)
	}
	workflowHandler, err := readingshttp.NewWorkflowHandler(readingsService)
	if err != nil {
		logger.Fatalf("workflow handler error: %v", err)
	}

	eventing.Subscribe(baseBus, eventbus.EventTypeOf[readingevents.ReadingValidated](), "readings.log", func(ctx context.Context, event any) error {
		evt, ok := event.(readingevents.ReadingValidated)
		if !ok {
			return eventbus.ErrInvalidEventType
		}
		logger.Printf("reading validated: tenant=%s meter=%s reading=%s", evt.TenantID, evt.MeterID, evt.ReadingID)
		return nil
	}, processedStore)

	invoiceRepo := invoicesrepo.NewInvoiceRepository(db)
	validatedReader := invoicereadings.NewValidatedReader(readingRepo)
	meterTariffs := invoicemeters.NewTariffReader(meterRepo)
	invoicePublisher := invoicesinterfaces.NewOutboxPublisher(publisher, cfg.TenantID)
	invoicesService, err := invoicesapp.NewService(invoiceRepo, validatedReader, meterTariffs, tariffRepo, nil, invoicePublisher, nil)
	if err != nil {
		logger.Fatalf("invoices service error: %v", err)
	}
	invoicesHandler, err := invoiceshttp.NewHandler(invoicesService, auditRepo)
	if err != nil {
		logger.Fatalf("invoices handler error: %v", err)
	}

	eventing.Subscribe(baseBus, eventbus.EventTypeOf[invoiceevents.InvoiceIssued](), "invoices.log", func(ctx context.Context, event any) error {
		evt, ok := event.(invoiceevents.InvoiceIssued)
		if !ok {
			return eventbus.ErrInvalidEventType
		}
		logger.Printf("invoice issued: tenant=%s invoice=%s amount=%s %s", evt.TenantID, evt.InvoiceID, evt.TotalAmount, evt.Currency)
		return nil
	}, processedStore)

	paymentRepo := paymentsrepo.NewPaymentRepository(db)
	paymentsService, err := paymentsapp.NewService(paymentRepo, invoicesService, nil)
	if err != nil {
		logger.Fatalf("payments service error: %v", err)
	}
	paymentsHandler, err := paymentshttp.NewHandler(paymentsService, auditRepo)
	if err != nil {
		logger.Fatalf("payments handler error: %v", err)
	}

	subscriptionRepo := subscriptionsrepo.NewSubscriptionRepository(db)
	subscriptionsService, err := subscriptionsapp.NewService(subscriptionRepo, nil)
	if err != nil {
		logger.Fatalf("subscriptions service error: %v", err)
	}
	subscriptionsHandler, err := subscriptionshttp.NewHandler(subscriptionsService, auditRepo)
	if err != nil {
		logger.Fatalf("subscriptions handler error: %v", err)
	}
	go func() {
		ticker := time.NewTicker(cfg.SubscriptionSweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			lapsed, err := subscriptionsService.SweepLapsed(context.Background())
			if err != nil {
				logger.Printf("subscription sweep error: %v", err)
				continue
			}
			if lapsed > 0 {
				logger.Printf("subscription sweep: %d marked past_due", lapsed)
			}
		}
	}()

	usageReader := usagerepo.NewUsageReader(db)
	usageService, err := usageapp.NewService(usageReader, nil)
	if err != nil {
		logger.Fatalf("usage service error: %v", err)
	}
	usageHandler, err := usagehttp.NewHandler(usageService)
	if err != nil {
		logger.Fatalf("usage handler error: %v", err)
	}

	go func() {
		ticker := time.NewTicker(cfg.OutboxDispatchInterval)
		defer ticker.Stop()
		for range ticker.C {
			if err := dispatcher.Dispatch(context.Background(), cfg.OutboxDispatchBatch); err != nil {
				metrics.IncOutboxDispatch(metrics.ResultError)
				logger.Printf("outbox dispatch error: %v", err)
				continue
			}
			metrics.IncOutboxDispatch(metrics.ResultSuccess)
		}
	}()

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/tariffs", billingHandler)
	mux.Handle("/api/v1/tariffs/", billingHandler)
	mux.Handle("/api/v1/readings", readingsHandler)
	mux.Handle("/api/v1/readings/", readingsHandler)
	mux.Handle("/api/v1/workflows", workflowHandler)
	mux.Handle("/api/v1/workflows/", workflowHandler)
	mux.Handle("/api/v1/invoices", invoicesHandler)
	mux.Handle("/api/v1/invoices/", invoicesHandler)
	mux.Handle("/api/v1/payments", paymentsHandler)
	mux.Handle("/api/v1/subscriptions", subscriptionsHandler)
	mux.Handle("/api/v1/subscriptions/", subscriptionsHandler)
	mux.Handle("/api/v1/usage", usageHandler)
	mux.Handle("/api/v1/properties", propertiesHandler)
	mux.Handle("/api/v1/properties/", propertiesHandler)
	mux.Handle("/api/v1/meters", propertiesHandler)
	mux.Handle("/api/v1/meters/", propertiesHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL               string
	HTTPAddr                  string
	TenantID                  string
	JWTSecret                 string
	OutboxDispatchInterval    time.Duration
	OutboxDispatchBatch       int
	SubscriptionSweepInterval time.Duration
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:               getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:                  getenvDefault("HTTP_ADDR", ":8080"),
		TenantID:                  getenvDefault("TENANT_ID", "tenant-demo"),
		JWTSecret:                 getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		OutboxDispatchInterval:    getenvDuration("OUTBOX_DISPATCH_INTERVAL", 5*time.Second),
		OutboxDispatchBatch:       getenvIntDefault("OUTBOX_DISPATCH_BATCH", 100),
		SubscriptionSweepInterval: getenvDuration("SUBSCRIPTION_SWEEP_INTERVAL", time.Hour),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
