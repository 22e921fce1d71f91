package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"perfect-day/internal/bot"
	"perfect-day/internal/client"
	"perfect-day/internal/config"
	"perfect-day/internal/localstore"
	"perfect-day/internal/logging"
	"perfect-day/internal/repository"
	"perfect-day/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadBot()
	if err != nil {
		zap.NewExample().Fatal("config", zap.Error(err))
	}

	log := logging.New(cfg.LogLevel)
	defer log.Sync()

	local, closeLocal, err := openLocalStorage(ctx, cfg.Bot, log)
	if err != nil {
		log.Fatal("local storage", zap.Error(err))
	}
	defer closeLocal()

	api := client.New(cfg.Bot.APIBaseURL, cfg.Bot.APITimeout)
	telegramBot, err := bot.New(cfg.Bot.TelegramToken, api, local, log.Named("bot"))
	if err != nil {
		log.Fatal("bot", zap.Error(err))
	}

	scheduler := service.NewSchedulerService(time.Local, log)
	report := func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("report", zap.Error(err))
		}
	}
	if cfg.Bot.ReportTime != "" {
		if _, err := scheduler.ScheduleDaily(cfg.Bot.ReportTime, report); err != nil {
			log.Fatal("schedule daily report", zap.Error(err))
		}
	}
	if interval := cfg.Bot.ReportInterval(); interval > 0 {
		if _, err := scheduler.ScheduleInterval(interval, report); err != nil {
			log.Fatal("schedule reports", zap.Error(err))
		}
	}
	if scheduler.Len() > 0 {
		scheduler.Start()
		defer scheduler.Stop()
	}

	log.Info("Perfect Day bot started.", zap.String("api", cfg.Bot.APIBaseURL))
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("bot stopped with error", zap.Error(err))
	}
	log.Info("Shutdown complete.")
}

// openLocalStorage picks Redis when CACHE_URL is set, the SQLite file otherwise.
func openLocalStorage(ctx context.Context, cfg config.BotConfig, log *zap.Logger) (localstore.Provider, func(), error) {
	if cfg.CacheURL != "" {
		rdb, err := localstore.OpenRedis(ctx, cfg.CacheURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("local storage on redis")
		return localstore.NewRedisProvider(rdb), func() { rdb.Close() }, nil
	}

	db, err := repository.Open(cfg.LocalDB, log)
	if err != nil {
		return nil, nil, err
	}
	if err := localstore.Migrate(db); err != nil {
		return nil, nil, err
	}
	log.Info("local storage on sqlite", zap.String("path", cfg.LocalDB))
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return localstore.NewSQLProvider(db), closeDB, nil
}
