package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-service/internal/api/http"
	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/backoff"
	"github.com/spec-kit/complaint-service/internal/classifier"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/messaging"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/worker"
)

const serviceName = "complaints-consumer"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, serviceName)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	incidents, closeStore, err := persistence.OpenIncidentStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open incident store", zap.Error(err))
	}
	defer closeStore()

	pipeline := observability.NewPipelineMetrics()
	handler := messaging.NewMessageHandler(incidents, classifier.New(classifier.DefaultRules()...), pipeline, logger)

	topology := messaging.TopologyFromConfig(cfg.Broker)
	broker := messaging.NewConnectionManager(cfg.Broker.URL, messaging.ConsumerTopology{Topology: topology}, nil, logger)
	scheduler := backoff.New(backoff.Config{
		InitialDelay: cfg.Backoff.InitialDelay(),
		MaxDelay:     cfg.Backoff.MaxDelay(),
		Factor:       cfg.Backoff.Factor,
	}, logger)

	consumer := worker.NewConsumerWorker(broker, handler, scheduler, topology.Queue, cfg.Broker.ConsumerTag, logger)
	consumer.Start(ctx)

	incidentService := service.NewIncidentService(incidents)
	authService := service.NewAuthService(cfg.Auth)
	if !authService.Enabled() {
		logger.Warn("AUTH_JWT_SECRET not set; operator endpoints are unauthenticated")
	}

	httpMetrics := observability.NewMetrics()
	app := httptransport.NewApp(serviceName)
	httptransport.RegisterMiddlewares(app, logger, httpMetrics, cfg.App.RequestTimeout())
	httptransport.RegisterConsumerRoutes(app, httptransport.ConsumerRoutes{
		Health:         handlers.NewHealthHandler(serviceName, cfg.App.Version, broker, pipeline, incidentService),
		Auth:           handlers.NewAuthHandler(authService),
		Incidents:      handlers.NewIncidentsHandler(incidentService),
		Metrics:        handlers.NewMetricsHandler(pipeline, httpMetrics),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager()),
	})

	go func() {
		logger.Info("health server listening", zap.String("addr", cfg.Health.Addr()))
		if err := app.Listen(cfg.Health.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	consumer.Shutdown(shutdownCtx)
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	logger.Info("consumer stopped")
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
