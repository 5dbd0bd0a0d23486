package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"telenonym/internal/clock"
	"telenonym/internal/config"
	"telenonym/internal/events"
	custommiddleware "telenonym/internal/middleware"
	"telenonym/internal/notify"
	"telenonym/internal/payment"
	"telenonym/internal/repository"
	"telenonym/internal/service"
	"telenonym/internal/telegram"
	"telenonym/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

// NewServer wires the full API. redisClient and producer may be nil, which
// disables rate limiting and event publishing respectively.
func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB, redisClient *redis.Client, producer *events.Producer) *Server {
	isDevelopment := cfg.Server.Env == "development"

	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, isDevelopment))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// Initialize payment machinery
	resolver := payment.NewResolver()
	manager := payment.NewManager()
	sessionCfg := payment.SessionConfig{
		CountdownSeconds: cfg.Payment.CountdownSeconds,
	}

	var poller payment.Poller
	if cfg.Payment.OracleURL != "" {
		poller = payment.NewOraclePoller(
			cfg.Payment.OracleURL,
			time.Duration(cfg.Payment.VerifyDelaySeconds)*time.Second,
			time.Duration(cfg.Payment.OracleDeadline)*time.Second,
			logger,
		)
	} else {
		poller = payment.SimulatedPoller{Delay: time.Duration(cfg.Payment.VerifyDelaySeconds) * time.Second}
	}

	sink := notify.NewMemorySink()
	clk := clock.NewSystem()

	// Initialize services
	catalogService := service.NewCatalogService(productRepo)
	orderService := service.NewOrderService(orderRepo)
	adminService := service.NewAdminService(productRepo, orderRepo, clk)
	paymentService := service.NewPaymentService(
		productRepo, orderRepo, manager, resolver, poller, sessionCfg,
		sink, producer, clk, logger,
	)

	// Initialize handlers
	catalogHandler := transport.NewCatalogHandler(catalogService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)
	paymentHandler := transport.NewPaymentHandler(paymentService, logger)
	adminHandler := transport.NewAdminHandler(adminService, logger)
	profileHandler := transport.NewProfileHandler(cfg.Telegram.AdminIDs, sink, logger)

	// Authenticated API routes
	bridge := telegram.NewBridge(cfg.Telegram.BotToken, 24*time.Hour)
	requireAdmin := custommiddleware.RequireAdmin(cfg.Telegram.AdminIDs, logger)

	router.Group(func(r chi.Router) {
		r.Use(custommiddleware.TelegramAuthMiddleware(bridge, isDevelopment, logger))
		if redisClient != nil {
			r.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
				RequestsPerWindow: 100,
				Window:            time.Minute,
				KeyPrefix:         "ratelimit:api",
			}, logger))
		}

		catalogHandler.RegisterRoutes(r)
		orderHandler.RegisterRoutes(r)
		paymentHandler.RegisterRoutes(r)
		profileHandler.RegisterRoutes(r)
		adminHandler.RegisterRoutes(r, requireAdmin)
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
