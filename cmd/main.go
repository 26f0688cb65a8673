package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/order-pricing/internal/config"
	h "github.com/fjod/go_cart/order-pricing/internal/http"
	"github.com/fjod/go_cart/order-pricing/internal/logger"
	"github.com/fjod/go_cart/order-pricing/internal/ordertoken"
	"github.com/fjod/go_cart/order-pricing/internal/publisher"
	"github.com/fjod/go_cart/order-pricing/internal/replay"
	"github.com/fjod/go_cart/order-pricing/internal/repository"
	"github.com/fjod/go_cart/order-pricing/internal/service"
	"github.com/fjod/go_cart/order-pricing/internal/totals"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	log := logger.New(cfg.LogLevel, os.Stdout)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("order-pricing stopped with error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	log.Info().Str("cart_store", cfg.CartStore).Msg("order-pricing starting...")
	ctx := context.Background()

	// Cart store
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()
	carts := repository.NewBreakerStore(store, repository.DefaultBreakerSettings, log)

	// Pricing and tokens
	policy, err := cfg.PricingPolicy()
	if err != nil {
		return err
	}
	engine := totals.NewEngine(carts, policy)

	codec, err := ordertoken.NewCodec([]byte(cfg.OrderTokenSecret), ordertoken.WithTTL(cfg.OrderTokenTTL))
	if err != nil {
		return fmt.Errorf("failed to create order token codec: %w", err)
	}

	opts := []service.Option{service.WithLogger(log)}

	if cfg.SingleUse {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		ledger := replay.NewRedisLedger(redisClient)
		if err := ledger.Ping(ctx); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("single-use order tokens enabled")
		opts = append(opts, service.WithLedger(ledger))
	}

	if brokers := cfg.Brokers(); len(brokers) > 0 {
		pub := publisher.NewKafkaPublisher(cfg.KafkaIntentTopic, brokers...)
		defer pub.Close()
		log.Info().Strs("brokers", brokers).Str("topic", cfg.KafkaIntentTopic).Msg("payment intent publishing enabled")
		opts = append(opts, service.WithPublisher(pub))
	}

	checkout := service.NewCheckoutService(carts, engine, codec, opts...)

	// HTTP server
	router := h.NewRouter(
		h.NewCheckoutHandler(checkout, cfg.RequestTimeout),
		carts.Ping,
		log,
		cfg.RequestTimeout,
	)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// gRPC health server
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	healthCtx, healthCancel := context.WithCancel(ctx)
	defer healthCancel()
	go watchHealth(healthCtx, carts, healthServer, log)

	errCh := make(chan error, 2)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()
	go func() {
		log.Info().Str("port", cfg.GRPCPort).Msg("gRPC health server listening")
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server error: %w", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
	case runErr = <-errCh:
	}

	log.Info().Msg("shutting down order-pricing...")
	healthServer.Shutdown()
	healthCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server forced to shutdown")
	}
	grpcServer.GracefulStop()

	log.Info().Msg("order-pricing stopped")
	return runErr
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (repository.CartStore, error) {
	switch cfg.CartStore {
	case config.StoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		db, err := repository.ConnectMongoDB(connectCtx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, err
		}
		repo := repository.NewMongoRepository(db)
		if err := repo.CreateIndexes(connectCtx); err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		log.Info().Str("db", cfg.MongoDBName).Msg("connected to MongoDB")
		return repo, nil

	case config.StoreSQLite:
		repo, err := repository.NewSQLiteRepository(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("sqlite cart store ready")
		return repo, nil

	default:
		repo, err := repository.NewPostgresRepository(&repository.Credentials{
			Host:              cfg.DBHost,
			Port:              cfg.DBPort,
			User:              cfg.DBUser,
			Password:          cfg.DBPassword,
			DBName:            cfg.DBName,
			MigrationsDirPath: cfg.MigrationsPath,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info().Str("host", cfg.DBHost).Msg("database migrations completed")
		return repo, nil
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// watchHealth reports SERVING while the cart store answers pings.
func watchHealth(ctx context.Context, store pinger, hs *health.Server, log zerolog.Logger) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		status := healthpb.HealthCheckResponse_SERVING
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := store.Ping(pingCtx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		cancel()

		if status != last {
			log.Info().Str("status", status.String()).Msg("health status changed")
			hs.SetServingStatus("", status)
			last = status
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
