package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"perfect-day/internal/api"
	"perfect-day/internal/config"
	"perfect-day/internal/logging"
	"perfect-day/internal/repository"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config", zap.Error(err))
	}

	log := logging.New(cfg.LogLevel)
	defer log.Sync()

	db, err := repository.NewDB(cfg.Database.URL, log)
	if err != nil {
		log.Fatal("db", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	svc := api.NewServices(db, cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	router := api.NewRouter(svc, api.Options{
		LoginRate:  rate.Limit(cfg.Auth.RateLimit),
		LoginBurst: cfg.Auth.RateBurst,
	}, log)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", zap.Error(err))
		}
	}()

	log.Info("Perfect Day API listening", zap.String("addr", cfg.HTTP.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server stopped with error", zap.Error(err))
	}
	log.Info("Shutdown complete.")
}
