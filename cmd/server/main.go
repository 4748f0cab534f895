// @title           Study Spots Recommendation API
// @version         1.0
// @description     REST API для рекомендаций учебных мест на кампусе. Места ранжируются по доступности, расстоянию и уровню шума с объяснением выбора и предупреждениями о качестве данных.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.email  akozadaev@inbox.ru
// @contact.url    https://github.com/akozadaev/study_spots_recommender

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @schemes   http https
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/akozadaev/study_spots_recommender/docs"
	"github.com/akozadaev/study_spots_recommender/internal/config"
	"github.com/akozadaev/study_spots_recommender/internal/handlers"
	"github.com/akozadaev/study_spots_recommender/internal/logging"
	"github.com/akozadaev/study_spots_recommender/internal/recommend"
	"github.com/akozadaev/study_spots_recommender/internal/scoring"
	"github.com/akozadaev/study_spots_recommender/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := storage.Open(startCtx, cfg.StoreOptions())
	cancelStart()
	if err != nil {
		logging.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("Failed to open store")
	}
	defer store.Close()

	var catalog storage.Catalog = store
	if cfg.BreakerEnabled {
		catalog = storage.NewBreakerRepository(store, storage.BreakerSettings{
			Name:             cfg.StoreBackend,
			FailureThreshold: cfg.BreakerFailureThreshold,
			OpenTimeout:      cfg.BreakerOpenTimeout,
		})
	}

	engine := scoring.NewEngine(cfg.Scoring())
	service := recommend.NewService(catalog, engine, recommend.WithDefaultLimit(cfg.DefaultLimit))
	opts := handlers.Options{
		MaxLimit:     cfg.MaxLimit,
		StoreTimeout: cfg.StoreTimeout,
	}
	if cfg.StatusRatePerMinute > 0 {
		opts.StatusLimit = handlers.NewRateLimiter(cfg.StatusRatePerMinute, cfg.StatusRateBurst)
	}
	h := handlers.NewHandlers(service, catalog, opts)

	// Настройка роутера
	router := mux.NewRouter()
	h.Register(router)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Swagger UI
	docs.SwaggerInfo.Host = cfg.SwaggerHost
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	// Настройка сервера
	srv := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      handlers.Wrap(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logging.Info().
			Str("port", cfg.AppPort).
			Str("backend", cfg.StoreBackend).
			Bool("breaker", cfg.BreakerEnabled).
			Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Ожидание сигнала для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	logging.Info().Msg("Server exited")
}
