package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fadetogo/config"
	"fadetogo/models"
	"fadetogo/services/notification"
	"fadetogo/services/tasks"
	"fadetogo/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RedisOpt is the asynq connection shared by the worker and the publisher.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// NewBookingMux routes booking tasks to the notification service.
func NewBookingMux(notifSvc notification.NotificationService) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeBookingCreated, handleBookingEvent(notifSvc))
	mux.HandleFunc(tasks.TypeBookingStatusChanged, handleBookingEvent(notifSvc))
	mux.HandleFunc(tasks.TypeSendReminder, handleReminderTask(notifSvc))
	return mux
}

// InitBookingWorker runs the async worker in background and returns the
// server so the caller can shut it down.
func InitBookingWorker(notifSvc notification.NotificationService) *asynq.Server {
	logger := utils.GetLogger()
	srv := asynq.NewServer(
		RedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	mux := NewBookingMux(notifSvc)

	go func() {
		logger.Info("Starting booking worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				return
			}
			logger.Error("Booking worker failed to start",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("Booking worker gave up, events will queue until restart")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

func handleBookingEvent(notifSvc notification.NotificationService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.BookingEventPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			utils.GetLogger().Error("Invalid booking event payload", zap.String("type", task.Type()), zap.Error(err))
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return notifSvc.NotifyBookingEvent(ctx, task.Type(), p)
	}
}

func handleReminderTask(notifSvc notification.NotificationService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			utils.GetLogger().Error("Invalid reminder payload", zap.Error(err))
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		switch p.Target {
		case "customer", "provider":
			return notifSvc.SendReminder(ctx, p)
		default:
			utils.GetLogger().Warn("Unknown reminder target", zap.String("target", p.Target))
			return nil
		}
	}
}
