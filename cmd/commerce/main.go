package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/richxcame/engraving-commerce/internal/giftcards"
	"github.com/richxcame/engraving-commerce/internal/notifications"
	"github.com/richxcame/engraving-commerce/internal/orderproofs"
	"github.com/richxcame/engraving-commerce/internal/orders"
	"github.com/richxcame/engraving-commerce/internal/storecredit"
	"github.com/richxcame/engraving-commerce/pkg/common"
	"github.com/richxcame/engraving-commerce/pkg/config"
	"github.com/richxcame/engraving-commerce/pkg/database"
	"github.com/richxcame/engraving-commerce/pkg/eventbus"
	"github.com/richxcame/engraving-commerce/pkg/health"
	"github.com/richxcame/engraving-commerce/pkg/logger"
	"github.com/richxcame/engraving-commerce/pkg/middleware"
	"github.com/richxcame/engraving-commerce/pkg/redis"
	"github.com/richxcame/engraving-commerce/pkg/resilience"
	"github.com/richxcame/engraving-commerce/pkg/storage"
	"go.uber.org/zap"
)

const (
	serviceName       = "commerce"
	version           = "1.0.0"
	maxBodyBytes      = 1 << 20
	readinessCacheTTL = 5 * time.Second
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Server.Environment, zap.String("service", cfg.Server.ServiceName)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Server.Environment,
			Release:     serviceName + "@" + version,
		}); err != nil {
			logger.Warn("Failed to initialize Sentry", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.MigrateOnBoot {
		if err := database.Migrate(&cfg.Database); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	db, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)
	logger.Info("Connected to PostgreSQL database")

	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis")

	if !cfg.NATS.Enabled {
		logger.Fatal("The commerce service requires the event bus; set NATS_ENABLED=true")
	}
	bus, err := eventbus.New(ctx, eventbus.Config{
		URL:        cfg.NATS.URL,
		StreamName: cfg.NATS.StreamName,
		ClientName: serviceName,
	})
	if err != nil {
		logger.Fatal("Failed to connect to event bus", zap.Error(err))
	}
	defer bus.Close()
	logger.Info("Connected to NATS JetStream", zap.String("stream", cfg.NATS.StreamName))

	// Proof uploads are unavailable without object storage; everything else runs.
	var proofStore storage.Storage
	s3Store, err := storage.NewS3Storage(ctx, storage.S3Config{
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		BaseURL:   cfg.Storage.BaseURL,
	})
	if err != nil {
		logger.Warn("Object storage unavailable, proof uploads disabled", zap.Error(err))
	} else {
		proofStore = s3Store
	}

	emailBreaker := resilience.NewCircuitBreaker(
		resilience.SettingsFromConfig("email-dispatch", cfg.Breaker),
		resilience.GracefulDegradation("email"),
	)

	// Services
	mailer := notifications.NewService(bus, emailBreaker, cfg.Notifications)
	orderReader := orders.NewRepository(db)

	creditRepo := storecredit.NewRepository(db)
	creditService := storecredit.NewService(creditRepo, cfg.GiftCards.DefaultCurrency)

	cardRepo := giftcards.NewRepository(db, creditRepo)
	cardService := giftcards.NewService(cardRepo, cfg.GiftCards)
	coordinator := giftcards.NewCoordinator(cardService)

	proofRepo := orderproofs.NewRepository(db)
	proofService := orderproofs.NewService(proofRepo, orderReader, proofStore, mailer, cfg.Storage)

	// Event consumers
	cardEvents := giftcards.NewEventHandler(cardService, orderReader, mailer, proofService, redisClient, cfg.Redis.IdempotencyTTL)
	if err := cardEvents.RegisterSubscriptions(ctx, bus); err != nil {
		logger.Fatal("Failed to subscribe gift card consumers", zap.Error(err))
	}
	if err := storecredit.NewEventHandler(creditService).RegisterSubscriptions(ctx, bus); err != nil {
		logger.Fatal("Failed to subscribe store credit consumers", zap.Error(err))
	}

	router := newRouter(cfg, routerDeps{
		cards:   giftcards.NewHandler(cardService, coordinator, cfg.JWT.AdminRole),
		credits: storecredit.NewHandler(creditService, cfg.JWT.AdminRole),
		proofs:  orderproofs.NewHandler(proofService),
		checks: map[string]common.DependencyCheck{
			"database": health.NewCachedChecker(health.PostgresChecker(db), readinessCacheTTL).Check,
			"redis":    health.NewCachedChecker(health.FuncChecker("redis", redisClient.Healthy), readinessCacheTTL).Check,
			"nats":     health.NewCachedChecker(health.FuncChecker("nats", bus.Healthy), readinessCacheTTL).Check,
		},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Commerce service starting", zap.String("port", cfg.Server.Port), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down commerce service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
}

type routerDeps struct {
	cards   *giftcards.Handler
	credits *storecredit.Handler
	proofs  *orderproofs.Handler
	checks  map[string]common.DependencyCheck
}

func newRouter(cfg *config.Config, deps routerDeps) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.CorrelationID())
	router.Use(middleware.Recovery())
	if cfg.Sentry.Enabled {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics(serviceName))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.MaxBodySize(maxBodyBytes))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitOrigins(cfg.Server.CORSOrigins)
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", middleware.CorrelationIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.CorrelationIDHeader}
	router.Use(cors.New(corsConfig))

	// Health check and metrics (no auth required)
	router.GET("/healthz", common.HealthCheck(serviceName, version))
	router.GET("/health/ready", common.ReadinessCheck(serviceName, version, 5*time.Second, deps.checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(timeout.New(
		timeout.WithTimeout(time.Duration(cfg.Server.RequestTimeout)*time.Second),
		timeout.WithResponse(func(c *gin.Context) {
			common.ErrorResponse(c, http.StatusGatewayTimeout, "request timed out")
		}),
	))

	store := api.Group("/store")
	store.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		deps.cards.RegisterStoreRoutes(store)
		deps.credits.RegisterRoutes(store)
		deps.proofs.RegisterStoreRoutes(store)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg.JWT.Secret), middleware.RequireRole(cfg.JWT.AdminRole))
	{
		deps.cards.RegisterAdminRoutes(admin)
		deps.proofs.RegisterAdminRoutes(admin)
	}

	return router
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
