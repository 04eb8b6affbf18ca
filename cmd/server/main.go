package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotel-service/config"
	"hotel-service/internal/api"
	"hotel-service/internal/booking"
	"hotel-service/internal/broker"
	"hotel-service/internal/gateway"
	"hotel-service/internal/redisclient"
	"hotel-service/internal/service"
	"hotel-service/internal/store"
	"hotel-service/internal/util"
	"hotel-service/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting hotel service", zap.String("env", cfg.Server.Env))

	tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(migrateCtx)
	migrateCancel()
	if err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}
	logger.Info("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
	defer producer.Close()
	logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicEvents))

	eventPublisher := broker.NewEventPublisher(producer)

	gatewayCfg, err := gateway.NewConfig(cfg.Gateway)
	if err != nil {
		logger.Fatal("Invalid gateway config", zap.Error(err))
	}
	policy, err := booking.NewPolicy(cfg.Business)
	if err != nil {
		logger.Fatal("Invalid booking policy", zap.Error(err))
	}

	clock := clockwork.NewRealClock()
	builder := gateway.NewRequestBuilder(gatewayCfg, clock)
	verifier := gateway.NewCallbackVerifier(gatewayCfg.HashSecret)

	paymentService := service.NewPaymentService(db, builder, redisClient, cfg.Business.PaymentURLLockTTL)
	reconciler := service.NewPaymentReconciler(db, verifier, eventPublisher, redisClient, cfg.Business.ReplayCacheTTL)
	bookingService := service.NewBookingService(db, eventPublisher, policy, clock)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	callbackConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicCallbacks, cfg.Kafka.ConsumerGroup)
	callbackWorker := worker.NewCallbackWorker(callbackConsumer, reconciler)
	go func() {
		if err := callbackWorker.Start(workerCtx); err != nil {
			logger.Error("Callback worker error", zap.Error(err))
		}
	}()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(bookingService, paymentService, reconciler, map[string]api.Pinger{
		"postgres": db,
		"redis":    redisClient,
	}, logger)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if err := callbackWorker.Stop(); err != nil {
		logger.Warn("Error stopping callback worker", zap.Error(err))
	}

	logger.Info("Server exited")
}
