package router

import (
	"context"
	"net/http"
	"strings"

	"github.com/nandusaji2001/ServConnect-sub001/internal/api/v1/handler"
	"github.com/nandusaji2001/ServConnect-sub001/internal/config"
	"github.com/nandusaji2001/ServConnect-sub001/internal/middleware"
	"github.com/nandusaji2001/ServConnect-sub001/internal/pgmq"
	"github.com/nandusaji2001/ServConnect-sub001/internal/pubsub"
	"github.com/nandusaji2001/ServConnect-sub001/internal/repository"
	"github.com/nandusaji2001/ServConnect-sub001/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *pgxpool.Pool, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initializing")

	// 1. Open DB pool
	dsn := cfg.DBConnectionString
	// In development, ensure SSL is disabled for local testing. In production
	// the connection string must carry the correct SSL settings.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := " "
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			if strings.Contains(dsn, "?") {
				separator = "&"
			} else {
				separator = "?"
			}
		}
		dsn += separator + "sslmode=disable"
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create DB pool")
		return nil, nil, err
	}
	if err := pool.Ping(context.Background()); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	// 2. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 3. Initialize Pub/Sub publisher and notifier
	pubSubPublisher, err := pubsub.NewPublisher(context.Background(), cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create Pub/Sub publisher")
		return nil, nil, err
	}
	notifier := service.NewNotifier(pubSubPublisher, cfg.NotificationTopic, logger)

	// 4. Initialize repositories & services & handlers
	subRepo := repository.NewSubscriptionRepo(pool)
	readingRepo := repository.NewReadingRepo(pool)
	orderRepo := repository.NewOrderRepo(pool)
	userRepo := repository.NewUserRepo(pool)
	itemRepo := repository.NewItemRepo(pool)
	queueClient := pgmq.New(pool)

	orderSvc := service.NewOrderService(orderRepo, subRepo, userRepo, itemRepo, notifier, service.OrderDefaults{
		ItemName:   cfg.DefaultGasItemName,
		PriceCents: cfg.DefaultGasPriceCents,
	}, logger)
	readingSvc := service.NewReadingService(subRepo, readingRepo, orderSvc, notifier, queueClient, cfg.RetentionQueueName, logger)
	subSvc := service.NewSubscriptionService(subRepo, orderRepo, userRepo, logger)

	readingHandler := handler.NewReadingHandler(readingSvc, validate, logger)
	subHandler := handler.NewSubscriptionHandler(subSvc, validate, logger)
	orderHandler := handler.NewOrderHandler(orderSvc, validate, logger)

	// 5. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)

	// 6. Create ServeMux router
	mux := http.NewServeMux()

	gasMux := http.NewServeMux()
	readingHandler.RegisterRoutes(gasMux, authMiddleware)
	subHandler.RegisterRoutes(gasMux, authMiddleware)
	orderHandler.RegisterRoutes(gasMux, authMiddleware)

	mux.Handle("/api/v1/gas/", http.StripPrefix("/api/v1/gas", gasMux))

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "db unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// 7. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(c.Handler(mux)), pool, nil
}
