package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/selflens/selflens/internal/api/handlers"
	mw "github.com/selflens/selflens/internal/api/middleware"
	"github.com/selflens/selflens/internal/buildconfig"
	"github.com/selflens/selflens/internal/config"
	"github.com/selflens/selflens/internal/domain"
	"github.com/selflens/selflens/internal/llm"
	"github.com/selflens/selflens/internal/service"
	"github.com/selflens/selflens/internal/store"
	"go.uber.org/zap"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router       *chi.Mux
	Discovery    *service.DiscoveryRunner
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	signalStore := store.NewSignalStore(db)
	findingStore := store.NewFindingStore(db)

	// Completion client via provider factory
	var llmClient domain.CompletionClient
	llmClient, err := llm.NewClient(config.LLMProvider(), config.LLMAPIKey())
	if err != nil {
		// The insight pipeline falls back to finding-only answers whenever
		// the client errors, so a dead provider degrades rather than kills.
		logger.Warn("LLM client initialization failed", zap.String("provider", config.LLMProvider()), zap.Error(err))
		llmClient = llm.NewMockClient()
	} else {
		logger.Info("LLM client initialized", zap.String("provider", config.LLMProvider()))
	}

	// Services
	signalSvc := service.NewSignalService(signalStore, logger)
	aggregateSvc := service.NewAggregateService(signalStore, logger)
	discoverySvc := service.NewDiscoveryService(aggregateSvc, findingStore, config.DiscoveryLookbackDays(), logger)
	healthSvc := service.NewHealthService(signalStore, findingStore, logger)
	insightSvc := service.NewInsightService(findingStore, healthSvc, llmClient, logger)
	runner := service.NewDiscoveryRunner(discoverySvc, config.DiscoveryInterval(), logger)

	// Handlers
	signalHandler := handlers.NewSignalHandler(signalSvc)
	findingHandler := handlers.NewFindingHandler(findingStore)
	discoveryHandler := handlers.NewDiscoveryHandler(discoverySvc)
	insightHandler := handlers.NewInsightHandler(insightSvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Discovery: runner,
		startTime: time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/signals", func(r chi.Router) {
			r.Post("/", signalHandler.Record)
			r.Post("/batch", signalHandler.RecordBatch)
			r.Get("/", signalHandler.Query)
		})

		r.Route("/findings", func(r chi.Router) {
			r.Get("/", findingHandler.List)
			r.Post("/", findingHandler.Upsert)
			r.Get("/{id}", findingHandler.Get)
		})

		r.Post("/discovery/run", discoveryHandler.Run)

		r.Route("/insights", func(r chi.Router) {
			r.Post("/ask", insightHandler.Ask)
			r.Get("/quick", insightHandler.Quick)
		})
	})

	return app
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"version": buildconfig.Version(),
			"commit":  buildconfig.Commit(),
		})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.SignalStore      = (*store.SignalStore)(nil)
	_ domain.FindingStore     = (*store.FindingStore)(nil)
	_ domain.HealthEvaluator  = (*service.HealthService)(nil)
	_ domain.CompletionClient = (*llm.OpenAIClient)(nil)
	_ domain.CompletionClient = (*llm.AnthropicClient)(nil)
	_ domain.CompletionClient = (*llm.GeminiClient)(nil)
	_ domain.CompletionClient = (*llm.MockClient)(nil)
)
