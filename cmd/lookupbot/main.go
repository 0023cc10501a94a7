package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lookup-bot/internal/bot"
	"lookup-bot/internal/config"
	"lookup-bot/internal/health"
	"lookup-bot/internal/logger"
	"lookup-bot/internal/repository"
	"lookup-bot/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(false)
		bootLog.Fatal().Err(err).Msg("config")
	}

	log := logger.New(cfg.Debug)

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	allowlist := repository.NewAllowlistRepository(cfg.AllowlistPath, log)
	queryRepo := repository.NewQueryLogRepository(db)

	api, err := bot.NewAPI(cfg.BotToken, log)
	if err != nil {
		log.Fatal().Err(err).Msg("bot api")
	}

	membership := bot.NewChannelMembership(api, cfg.Channel, log)
	authSvc := service.NewAuthService(cfg.OwnerID, allowlist, membership, cfg.RequireAllowlist, cfg.RequireChannelMember, log)
	lookupSvc := service.NewLookupService(cfg.LookupTimeout(), log)
	formatSvc := service.NewFormatService()
	reportSvc := service.NewReportService(queryRepo)

	telegramBot := bot.New(api, authSvc, lookupSvc, formatSvc, reportSvc, allowlist, queryRepo, &cfg, log)

	healthServer := health.NewServer(cfg.Port, log)
	healthServer.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = healthServer.Stop(shutdownCtx)
	}()

	scheduler := service.NewSchedulerService(time.Local)
	if cfg.ReportTime != "" {
		if _, err := scheduler.ScheduleDaily(cfg.ReportTime, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := telegramBot.SendDailyReport(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("daily report")
			}
		}); err != nil {
			log.Fatal().Err(err).Msg("schedule report")
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	log.Info().Msg("lookup bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("bot stopped with error")
	}
	log.Info().Msg("shutdown complete")
}
