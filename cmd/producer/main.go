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
	"github.com/spec-kit/complaint-service/internal/backoff"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/messaging"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/worker"
)

const serviceName = "complaints-producer"

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

	topology := messaging.TopologyFromConfig(cfg.Broker)
	broker := messaging.NewConnectionManager(cfg.Broker.URL, messaging.PublisherTopology{Topology: topology}, nil, logger)
	scheduler := backoff.New(backoff.Config{
		InitialDelay: cfg.Backoff.InitialDelay(),
		MaxDelay:     cfg.Backoff.MaxDelay(),
		Factor:       cfg.Backoff.Factor,
	}, logger)
	go worker.KeepConnected(ctx, broker, scheduler, 5*time.Second, logger)

	publisher := messaging.NewAMQPPublisher(broker, topology.Exchange, topology.RoutingKey, logger)
	complaintService := service.NewComplaintService(publisher, logger)

	httpMetrics := observability.NewMetrics()
	app := httptransport.NewApp(serviceName)
	httptransport.RegisterCORS(app, cfg.CORS)
	httptransport.RegisterMiddlewares(app, logger, httpMetrics, cfg.App.RequestTimeout())
	httptransport.RegisterProducerRoutes(app, httptransport.ProducerRoutes{
		Health:     handlers.NewHealthHandler(serviceName, cfg.App.Version, broker, nil, nil),
		Complaints: handlers.NewComplaintsHandler(complaintService),
	})

	go func() {
		logger.Info("producer listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	broker.Close(shutdownCtx)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
