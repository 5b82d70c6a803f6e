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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/monshare/monshare-backend/internal/auth"
	"github.com/monshare/monshare-backend/internal/chain"
	"github.com/monshare/monshare-backend/internal/config"
	"github.com/monshare/monshare-backend/internal/events"
	"github.com/monshare/monshare-backend/internal/handlers"
	"github.com/monshare/monshare-backend/internal/service"
	"github.com/monshare/monshare-backend/internal/store"
)

func main() {
	// Load configuration
	cfg, err := loadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Setup logger
	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Membership Share Marketplace starting up...")

	// Setup database connection
	dbPool, err := setupDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	// Initialize database schema
	pgStore := store.NewPostgresStore(dbPool, logger)
	if err := pgStore.Initialize(context.Background()); err != nil {
		logger.Fatal("Failed to initialize database schema", zap.Error(err))
	}

	// Setup chain client
	chainClient, err := chain.NewClient(&cfg.Chain, logger)
	if err != nil {
		logger.Fatal("Failed to initialize chain client", zap.Error(err))
	}
	defer chainClient.Close()

	// Setup event publisher (optional)
	var publisher *events.Publisher
	if cfg.NATS.Enabled {
		publisher, err = events.Connect(&cfg.NATS, logger)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer publisher.Close()
	}

	// Setup services
	authService := auth.NewService(&cfg.Auth, logger)
	signer := auth.NewAttestationSigner(cfg.Auth.AppSecret)
	rentalService := service.NewRentalService(pgStore, chainClient, publisher, cfg.Chain.AdminAddress, &cfg.Marketplace, logger)
	listingService := service.NewListingService(pgStore, publisher, &cfg.Marketplace, logger)
	platformService := service.NewPlatformService(pgStore, logger)

	// Background rental expiry sweeper
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	sweeper := service.NewExpirySweeper(pgStore, cfg.Marketplace.ExpirySweepInterval, logger)
	go sweeper.Run(sweeperCtx)

	// Setup HTTP server
	server := setupHTTPServer(cfg, rentalService, listingService, platformService, authService, signer, logger)

	// Setup graceful shutdown
	setupGracefulShutdown(server, cfg.Server.ShutdownTimeout, stopSweeper, logger)

	// Start server
	logger.Info("Starting HTTP server", zap.String("address", fmt.Sprintf(":%d", cfg.Server.Port)))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}

// loadConfig loads configuration from file
func loadConfig(path string) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// setupLogger initializes the logger
func setupLogger(level string) (*zap.Logger, error) {
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	config := zap.NewProductionConfig()
	config.Level = zapLevel
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return config.Build()
}

// setupDatabase initializes the database connection
func setupDatabase(cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	poolConfig, err := cfg.GetDatabaseConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established successfully")
	return pool, nil
}

// setupHTTPServer configures and returns the HTTP server
func setupHTTPServer(
	cfg *config.Config,
	rentalService *service.RentalService,
	listingService *service.ListingService,
	platformService *service.PlatformService,
	authService *auth.Service,
	signer *auth.AttestationSigner,
	logger *zap.Logger,
) *http.Server {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.ReadTimeout))

	// CORS middleware for development
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"monshare-backend"}`))
	})

	// Rentals
	r.Post("/rent", handlers.CreateRentalHandler(rentalService, logger))
	r.Get("/rent", handlers.GetUserRentalsHandler(rentalService, logger))

	// Shared membership listings
	r.Post("/share", handlers.ShareListingHandler(listingService, logger))
	r.Get("/share", handlers.ListListingsHandler(listingService, logger))
	r.Put("/share/{id}", handlers.UpdateListingHandler(listingService, logger))
	r.Delete("/share/{id}", handlers.StopSharingHandler(listingService, logger))

	// Wallet auth
	r.Post("/auth/verify", handlers.VerifyWalletHandler(authService, logger))

	// Platform verification (bearer-token protected)
	r.Group(func(r chi.Router) {
		r.Use(authService.Middleware)
		r.Get("/platforms/status", handlers.GetPlatformStatusHandler(platformService, logger))
		r.Post("/platforms/verify", handlers.SaveVerificationHandler(platformService, logger))
		r.Post("/attestation/sign", handlers.SignAttestationHandler(signer, logger))
	})

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

// setupGracefulShutdown configures graceful shutdown handling
func setupGracefulShutdown(server *http.Server, timeout time.Duration, stopSweeper context.CancelFunc, logger *zap.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Info("Received shutdown signal, shutting down gracefully...")

		stopSweeper()

		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Failed to shutdown server gracefully", zap.Error(err))
		} else {
			logger.Info("Server shutdown completed")
		}
	}()
}
