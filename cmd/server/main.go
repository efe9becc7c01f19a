package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nexerp-ops/procmon-backend-go/internal/ai"
	"github.com/nexerp-ops/procmon-backend-go/internal/ai/providers"
	"github.com/nexerp-ops/procmon-backend-go/internal/api"
	"github.com/nexerp-ops/procmon-backend-go/internal/api/handlers"
	"github.com/nexerp-ops/procmon-backend-go/internal/config"
	"github.com/nexerp-ops/procmon-backend-go/internal/core/alerts"
	"github.com/nexerp-ops/procmon-backend-go/internal/core/analytics"
	"github.com/nexerp-ops/procmon-backend-go/internal/core/learning"
	"github.com/nexerp-ops/procmon-backend-go/internal/core/metrics"
	"github.com/nexerp-ops/procmon-backend-go/internal/core/monitor"
	"github.com/nexerp-ops/procmon-backend-go/internal/core/rules"
	"github.com/nexerp-ops/procmon-backend-go/internal/database"
	"github.com/nexerp-ops/procmon-backend-go/internal/websocket"
	"github.com/nexerp-ops/procmon-backend-go/pkg/logger"
)

func main() {
	// Initialize logger
	log := logger.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	logger.SetLevel(log, cfg.Logging.Level)

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	// Run migrations
	if err := database.Migrate(db, cfg.Database.MigrationsPath); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Create repositories
	repos := database.NewRepositories(db)

	// Create WebSocket hub
	wsHub := websocket.NewHub(log)
	go wsHub.Run()

	// Classifier tables, optionally overlaid from a YAML file
	tables, err := alerts.LoadTables(cfg.Pipeline.ClassifierTablesPath)
	if err != nil {
		log.WithError(err).Warn("Failed to load classifier tables, using defaults")
		tables = alerts.DefaultTables()
	}
	classifier := alerts.NewClassifier(tables, log)

	// Core services
	analyticsService := analytics.NewService(cfg.Analytics.RetainedRecords, log)
	backend := rules.NewSimulatedBackend(log)
	pipelineMetrics := metrics.NewPipeline()
	engine := rules.NewEngine(repos.Rule, repos.Alert, backend, classifier, analyticsService, wsHub, pipelineMetrics, log)

	var advisor ai.Advisor = ai.Disabled{}
	if cfg.Advisor.Enabled && cfg.Advisor.APIKey != "" {
		advisor = providers.NewDeepSeekProvider(cfg.Advisor, log)
		log.WithField("provider", advisor.Name()).Info("Advisor enabled")
	}
	learner := learning.NewLearner(analyticsService, repos.Feedback, repos.Rule, backend, advisor, log)

	// Background jobs: host sampling and optimization sweeps
	sampler := monitor.NewSampler(engine, cfg.Monitor.DiskPath, log)
	scheduler := monitor.NewScheduler(cfg.Monitor, sampler, learner, repos.Rule, log)
	if err := scheduler.Start(); err != nil {
		log.Fatal("Failed to start scheduler:", err)
	}
	defer scheduler.Stop()

	// HTTP surface
	h := handlers.New(cfg, repos, engine, backend, classifier, analyticsService, learner, wsHub, log)
	router := api.NewRouter(cfg, h, wsHub, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Starting procmon backend on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Info("Server exited")
}
