package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/GTDGit/gtd_forecast/internal/cache"
	"github.com/GTDGit/gtd_forecast/internal/config"
	"github.com/GTDGit/gtd_forecast/internal/database"
	"github.com/GTDGit/gtd_forecast/internal/events"
	"github.com/GTDGit/gtd_forecast/internal/handler"
	"github.com/GTDGit/gtd_forecast/internal/metrics"
	"github.com/GTDGit/gtd_forecast/internal/middleware"
	"github.com/GTDGit/gtd_forecast/internal/repository"
	"github.com/GTDGit/gtd_forecast/internal/service"
	"github.com/GTDGit/gtd_forecast/internal/tracing"
	"github.com/GTDGit/gtd_forecast/internal/utils"
	"github.com/GTDGit/gtd_forecast/pkg/llm"
)

// main is the application entrypoint for the inventory forecast service.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting gtd forecast")

	// 3. Tracing
	shutdownTracing, err := tracing.Init(context.Background(), cfg.Tracing, cfg.Env)
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
	}

	// 4. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 4a. Run migrations
	if cfg.Migration.Enabled {
		if err := database.Migrate(db.DB, cfg.Migration.Path); err != nil {
			log.Error().Err(err).Msg("migration failed")
			fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
			os.Exit(1)
		}
		log.Info().Msg("migrations completed successfully")
	}

	// 4b. Connect to Redis (optional)
	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled() {
		redisClient, err = cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, latest forecast cache disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Info().Msg("redis connected successfully")
		}
	}

	// 5. Repositories
	productRepo := repository.NewProductRepository(db)
	salesRepo := repository.NewSalesRepository(db)
	forecastRepo := repository.NewForecastRepository(db)
	shopAccessRepo := repository.NewShopAccessRepository(db)

	// 6. Classifier
	classifier, closeClassifier := buildClassifier(cfg.LLM)
	if closeClassifier != nil {
		defer closeClassifier()
	}

	// 7. Services
	authSvc := service.NewAuthService(utils.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience))
	trusted := service.NewTrustedContext(shopAccessRepo, "inventory-forecast")
	forecastSvc := service.NewForecastService(productRepo, salesRepo, forecastRepo, trusted, authSvc, classifier)

	if redisClient != nil {
		forecastSvc.SetCache(cache.NewForecastCache(redisClient, cfg.Forecast.CacheTTL))
	}

	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.ForecastTopic)
		if err != nil {
			log.Warn().Err(err).Msg("kafka unavailable, forecast events disabled")
		} else {
			defer publisher.Close()
			forecastSvc.SetPublisher(publisher)
		}
	}

	// 8. Handlers and middleware
	rateLimiter := middleware.NewInvalidAuthRateLimiter()
	defer rateLimiter.Stop()

	var redisPinger handler.RedisPinger
	if redisClient != nil {
		redisPinger = redisClient
	}
	handlers := &Handlers{
		Health:   handler.NewHealthHandler(db, redisPinger, forecastSvc.ClassifierConfigured()),
		Forecast: handler.NewForecastHandler(forecastSvc, rateLimiter),
	}
	jwtMw := middleware.NewJWTMiddleware(authSvc, rateLimiter)

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	setupRoutes(router, handlers, jwtMw)

	// 10. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 11. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 12. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health   *handler.HealthHandler
	Forecast *handler.ForecastHandler
}

func setupRoutes(r *gin.Engine, handlers *Handlers, jwtMw *middleware.JWTMiddleware) {
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Legacy function path kept for existing clients.
	r.POST("/functions/v1/inventory-forecast", handlers.Forecast.GenerateForecast)

	v1 := r.Group("/v1")
	{
		v1.GET("/health", handlers.Health.GetHealth)
		v1.POST("/forecasts", handlers.Forecast.GenerateForecast)

		shops := v1.Group("/shops/:shopId")
		shops.Use(jwtMw.Handle())
		{
			shops.GET("/forecasts", handlers.Forecast.ListForecasts)
			shops.GET("/forecasts/latest", handlers.Forecast.GetLatest)
		}
	}
}

// buildClassifier returns the configured provider, or nil when it has no
// credentials. The returned close function may be nil.
func buildClassifier(cfg config.LLMConfig) (service.Classifier, func()) {
	if !cfg.Configured() {
		log.Warn().Str("provider", cfg.Provider).Msg("AI provider not configured, forecast runs will fail")
		return nil, nil
	}

	switch cfg.Provider {
	case config.LLMProviderGemini:
		gemini, err := service.NewGeminiClassifier(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Error().Err(err).Msg("gemini client init failed, forecast runs will fail")
			return nil, nil
		}
		log.Info().Str("model", cfg.GeminiModel).Msg("using gemini classifier")
		return gemini, func() { _ = gemini.Close() }
	default:
		client := llm.NewClient(llm.Config{BaseURL: cfg.BaseURL, APIKey: cfg.APIKey, Timeout: cfg.Timeout})
		log.Info().Str("model", cfg.Model).Str("base_url", cfg.BaseURL).Msg("using gateway classifier")
		return service.NewGatewayClassifier(client, cfg.Model), nil
	}
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
