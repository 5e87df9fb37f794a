package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/vulcanmes/scheduler/internal/api"
	"github.com/vulcanmes/scheduler/internal/config"
	"github.com/vulcanmes/scheduler/internal/degradation"
	"github.com/vulcanmes/scheduler/internal/event"
	"github.com/vulcanmes/scheduler/internal/job"
	"github.com/vulcanmes/scheduler/internal/observability"
	"github.com/vulcanmes/scheduler/internal/optimize"
	"github.com/vulcanmes/scheduler/internal/repository"
	"github.com/vulcanmes/scheduler/internal/repository/memory"
	"github.com/vulcanmes/scheduler/internal/repository/postgres"
	"github.com/vulcanmes/scheduler/internal/resilience"
	"github.com/vulcanmes/scheduler/internal/resource"
	"github.com/vulcanmes/scheduler/internal/service"
	"github.com/vulcanmes/scheduler/internal/solver"
	"github.com/vulcanmes/scheduler/internal/validation"
	"github.com/vulcanmes/scheduler/internal/valueobject"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	db := openDatabase(cfg, logger)
	defer db.Close()

	metrics, err := observability.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal("build metrics sink", zap.Error(err))
	}
	logSink := observability.NewZapLogSink(logger)
	tracer := observability.NewOtelTracer(otel.Tracer("scheduler"))
	dispatcher := event.NewDispatcher()
	breakers := resilience.NewRegistry(dispatcher)

	monitor, err := resource.NewMonitor(resource.Limits{
		MaxTimeSeconds:   cfg.SolverMaxTimeSeconds,
		NumSearchWorkers: cfg.SolverSearchWorkers,
		MaxMemoryMB:      cfg.SolverMaxMemoryMB,
	})
	if err != nil {
		logger.Fatal("build resource monitor", zap.Error(err))
	}

	orchestrator := optimize.NewOrchestrator(&solver.GreedyCPAdapter{}, optimize.Config{})

	svc := service.NewService(orchestrator, service.Deps{
		Monitor:     monitor,
		Breakers:    breakers,
		Degradation: degradation.NewManager(),
		Validator:   validation.NewConstraintValidator(valueobject.DefaultBusinessCalendar()),
		Metrics:     metrics,
		Logs:        logSink,
		Tracer:      tracer,
		Dispatcher:  dispatcher,
		Schedules:   db.ScheduleRepository(),
	})

	queue, err := job.NewSolveQueue(cfg.RedisAddr)
	if err != nil {
		logger.Fatal("connect solve queue", zap.Error(err))
	}
	defer queue.Close()

	worker := job.NewWorker(cfg.RedisAddr, cfg.NumSolverWorkers)
	handlers := job.NewHandlers(db, svc, valueobject.DefaultBusinessCalendar(), logSink)
	go func() {
		if err := worker.Run(handlers); err != nil {
			logger.Error("solve worker stopped", zap.Error(err))
		}
	}()
	defer worker.Shutdown()

	router := api.NewRouter(api.NewHandlers(db, svc, queue, valueobject.DefaultBusinessCalendar()))

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}
	go func() {
		logger.Info("starting metrics server", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.ServerAddr))
		if err := router.Start(cfg.ServerAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := router.Shutdown(ctx); err != nil {
		logger.Error("router shutdown error", zap.Error(err))
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("metrics server shutdown error", zap.Error(err))
	}
}

// openDatabase returns the in-memory store when SCHEDULER_MEMORY_STORE is
// "1"; otherwise it connects to PostgreSQL at DATABASE_URL and exits the
// process if that connection fails.
func openDatabase(cfg config.Config, logger *zap.Logger) repository.Database {
	if os.Getenv("SCHEDULER_MEMORY_STORE") == "1" {
		logger.Warn("using in-memory repository store; data does not survive a restart")
		return memory.New()
	}

	sqlDB, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect to postgres", zap.Error(err))
	}
	return postgres.NewStore(sqlDB)
}
