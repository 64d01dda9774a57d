package main

import (
	"crypto/tls"
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/giacomoprezioso/affitti-brevi/backend/src/config"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/database"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/handlers"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/ledger"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/logger"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/processors"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000":    true,
			config.Cfg.FrontendBaseURL: true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-Requested-With, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag, Content-Disposition")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Affitti Brevi ledger backend starting...")

	logger.L.Info("Loading rate table...", "path", config.Cfg.RatesConfigPath)
	rates, err := processors.LoadRateTable(config.Cfg.RatesConfigPath)
	if err != nil {
		logger.L.Error("Failed to load rate table", "error", err)
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)

	ledgerStore := ledger.NewStore(database.DB)

	normalizer := processors.NewRecordNormalizer(rates)
	calculator := processors.NewCalculator(rates)
	reconciler := processors.NewReconciler(processors.NewDedupResolver())
	reportProcessor := processors.NewReportProcessor()

	importService := services.NewImportService(
		ledgerStore,
		normalizer,
		calculator,
		reconciler,
		reportProcessor,
		reportCache,
	)

	importHandler := handlers.NewImportHandler(importService)
	ledgerHandler := handlers.NewLedgerHandler(importService)
	reportHandler := handlers.NewReportHandler(importService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Affitti Brevi ledger backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", ledgerHandler.HandleHealth)

		r.Post("/import", importHandler.HandleImport)
		r.Post("/entries/manual", importHandler.HandleManualEntries)

		r.Get("/ledger", ledgerHandler.HandleGetLedger)
		r.Get("/export/ledger.xlsx", ledgerHandler.HandleExportLedger)

		r.Get("/reports/monthly", reportHandler.HandleMonthlyReport)
		r.Get("/reports/platforms", reportHandler.HandlePlatformReport)
		r.Get("/reports/costs", reportHandler.HandleCostsReport)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
		}
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
