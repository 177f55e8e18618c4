package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/gogallery/gallery/application"
	"github.com/dfryer1193/gogallery/gallery/persistence"
	"github.com/dfryer1193/gogallery/internal/config"
	"github.com/dfryer1193/gogallery/internal/metrics"
	"github.com/dfryer1193/gogallery/internal/middleware"
	"github.com/dfryer1193/gogallery/internal/rest"
	"github.com/dfryer1193/gogallery/shared/db/sqlite"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	cfg.Log.Apply()

	database := sqlite.NewSQLiteDB(cfg.SQLite)
	if err := database.Connect(); err != nil {
		log.Fatal().Err(err).Str("path", cfg.SQLite.Path).Msg("Failed to connect to database")
	}
	defer database.Close()

	imageRepo := persistence.NewImageRepository(database.DB())
	imageService := application.NewImageService(imageRepo, cfg.PageSize)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.CustomRecovery(middleware.HandlePanics()))

	rest.NewApi(router, imageService, metrics.New(prometheus.DefaultRegisterer), prometheus.DefaultGatherer)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Int("pageSize", cfg.PageSize).Msg("Starting gallery server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown server")
	}

	log.Info().Msg("Server stopped")
}
