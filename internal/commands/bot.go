package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"taskflow/internal/bot"
	"taskflow/internal/repository"
	"taskflow/internal/service"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot and the daily summary scheduler",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.RequireTelegram(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		loc, err := cfg.Location()
		if err != nil {
			return err
		}

		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		// Subscribers always live in the local database.
		db := b.db
		if db == nil {
			if db, err = repository.NewDB(cfg.DatabaseURL); err != nil {
				return fmt.Errorf("db: %w", err)
			}
			defer repository.Close(db)
		}

		telegramBot, err := bot.New(cfg.TelegramToken, bot.Deps{
			Tasks:          b.taskStore,
			Categories:     b.categoryStore,
			Subscribers:    repository.NewSubscriberRepository(db),
			Reminder:       service.NewReminderService(b.taskStore, b.categoryStore),
			ConfirmTimeout: cfg.ConfirmTimeout,
			Location:       loc,
		})
		if err != nil {
			return err
		}

		report := func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("report: %v", err)
			}
		}

		scheduler := service.NewSchedulerService(loc)
		sched := service.ReportSchedule{Daily: cfg.ReportTime, Every: cfg.ReportInterval}
		if err := scheduler.ScheduleReports(sched, report); err != nil {
			return fmt.Errorf("schedule reports: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
		log.Printf("[info] next summary at %s", scheduler.Next().Format(time.RFC1123))

		log.Println("[info] taskflow bot started")
		if err := telegramBot.Start(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("bot stopped with error: %w", err)
		}
		log.Println("[info] shutdown complete")
		return nil
	},
}
