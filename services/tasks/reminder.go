package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"fadetogo/models"

	"github.com/hibiken/asynq"
)

const (
	TypeBookingCreated       = "booking:created"
	TypeBookingStatusChanged = "booking:status_changed"
	TypeSendReminder         = "booking:reminder"
)

// NewBookingEventTask builds a booking event task of the given type.
func NewBookingEventTask(taskType string, payload models.BookingEventPayload) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, b, asynq.MaxRetry(5)), nil
}

// NewReminderTask builds a reminder that fires at fireAt. The task id makes
// re-enqueueing the same reminder a no-op.
func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(fmt.Sprintf("reminder:%s:%s", payload.BookingID, payload.Target)),
	}
	return task, opts, nil
}
