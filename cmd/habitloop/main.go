package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"habitloop/internal/api"
	"habitloop/internal/bot"
	"habitloop/internal/config"
	"habitloop/internal/repository"
	"habitloop/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	taskSvc := service.NewTaskService(taskRepo, userRepo)
	reminderSvc := service.NewReminderService(taskRepo)
	engine := service.NewCompletionEngine(db, cfg.LenientStreaks)

	handler := api.NewHandler(taskSvc, engine, &cfg)
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.Routes(),
	}

	if cfg.TelegramToken != "" {
		reminderBot, err := bot.New(cfg.TelegramToken, userRepo, reminderSvc)
		if err != nil {
			log.Fatalf("bot: %v", err)
		}

		scheduler := service.NewSchedulerService(time.Local)
		report := func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := reminderBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("report: %v", err)
			}
		}
		if cfg.ReportInterval > 0 {
			if _, err := scheduler.ScheduleInterval(cfg.ReportInterval, report); err != nil {
				log.Fatalf("schedule reports: %v", err)
			}
		} else {
			if _, err := scheduler.ScheduleDaily(cfg.ReportTime, report); err != nil {
				log.Fatalf("schedule reports: %v", err)
			}
		}
		scheduler.Start()
		defer scheduler.Stop()

		go func() {
			if err := reminderBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("bot stopped with error: %v", err)
			}
		}()
	} else {
		log.Println("[info] TELEGRAM_TOKEN not set, reminders disabled")
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("[info] habitloop listening on %s", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
