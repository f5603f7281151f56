package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-inventory-service/config"
	catRepoPkg "github.com/fekuna/omnipos-inventory-service/internal/catalog/repository"
	feedListenerPkg "github.com/fekuna/omnipos-inventory-service/internal/feed/listener"
	invListenerPkg "github.com/fekuna/omnipos-inventory-service/internal/inventory/listener"
	"github.com/fekuna/omnipos-inventory-service/internal/ledger"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/broker"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/cache"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/lock"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/middleware"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/observability"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/postgres"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/rpc"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize Tracing
	shutdownTracing, err := observability.SetupTracingSDK(ctx, &observability.Config{
		ServiceName:    cfg.Otel.ServiceName,
		ServiceVersion: cfg.Otel.ServiceVersion,
		Endpoint:       cfg.Otel.Endpoint,
		URLPath:        cfg.Otel.URLPath,
		Insecure:       cfg.Otel.Insecure,
		ExportTimeout:  cfg.Otel.ExportTimeout,
	})
	if err != nil {
		appLogger.Fatal("Could not set up tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			appLogger.Warn("Tracing shutdown failed", zap.Error(err))
		}
	}()

	opts := ledger.Options{}

	// 4. Initialize Redis lock
	if cfg.Ledger.LockBackend == config.LockRedis {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

		opts.Locker = lock.NewRedis(redisClient, lock.RedisConfig{
			TTL:        cfg.Ledger.LockTTL,
			Attempts:   cfg.Ledger.LockAttempts,
			RetryDelay: cfg.Ledger.LockRetryDelay,
		}, appLogger)
	}

	// 5. Initialize Kafka Producer
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.SyncResultsTopic,
		})
		defer producer.Close()
		opts.Publisher = producer
	}

	// 6. Build the Ledger
	var l *ledger.Ledger
	switch cfg.Ledger.Store {
	case config.StorePostgres:
		db, err := postgres.NewPostgres(&postgres.Config{
			Host:            cfg.Postgres.Host,
			Port:            cfg.Postgres.Port,
			User:            cfg.Postgres.User,
			Password:        cfg.Postgres.Password,
			DBName:          cfg.Postgres.DBName,
			SSLMode:         cfg.Postgres.SSLMode,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to database", zap.Error(err))
		}
		defer db.Close()
		appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

		if cfg.Ledger.CatalogValidation {
			opts.Catalog = catRepoPkg.NewPGRepository(db)
		}
		l, err = ledger.NewPostgres(ctx, db, appLogger, opts)
		if err != nil {
			appLogger.Fatal("Could not initialise ledger", zap.Error(err))
		}
	case config.StoreMemory:
		if cfg.Ledger.CatalogValidation {
			appLogger.Warn("Catalog validation needs the postgres store, ignoring")
		}
		l = ledger.NewInMemory(appLogger, opts)
	default:
		appLogger.Fatal("Unknown ledger store", zap.String("store", cfg.Ledger.Store))
	}

	resumed, err := l.Transfers.ResumeInProgress(ctx)
	if err != nil {
		appLogger.Error("Some in-progress transfers could not be resumed", zap.Error(err))
	}
	if resumed > 0 {
		appLogger.Info("Resumed in-progress transfers", zap.Int("count", resumed))
	}

	// 7. Start Listeners
	if cfg.Kafka.Enabled {
		ordersConsumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.OrdersTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer ordersConsumer.Close()

		syncConsumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.SyncTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer syncConsumer.Close()

		go invListenerPkg.NewInventoryListener(ordersConsumer, l.Inventory, appLogger).Start(ctx)
		go feedListenerPkg.NewSyncListener(syncConsumer, l.Feeds, appLogger).Start(ctx)
		appLogger.Info("Connected to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("orders_topic", cfg.Kafka.OrdersTopic),
			zap.String("sync_topic", cfg.Kafka.SyncTopic),
		)
	}
	if cfg.Ledger.SyncCheckInterval > 0 {
		go feedListenerPkg.NewScheduler(l.Feeds, cfg.Ledger.SyncCheckInterval, appLogger).Start(ctx)
	}

	// 8. Start gRPC Server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.ContextInterceptor(),
			middleware.LoggingInterceptor(appLogger),
		),
	)

	// Register Services
	for _, svc := range l.Services(appLogger) {
		rpc.Register(grpcServer, svc)
	}

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	// Register Reflection
	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server", zap.String("port", port), zap.String("store", cfg.Ledger.Store))

	// Graceful Shutdown
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	cancel()
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}
