package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	TaskTypeDailyReminder = "course:daily_reminder"
)

const (
	QueueDefault = "default"
	QueueLow     = "low"
)

// NewDailyReminderTask nudges every enrolled learner whose next day is open.
// The task carries no payload; the handler reads the live roster.
func NewDailyReminderTask() *asynq.Task {
	return asynq.NewTask(TaskTypeDailyReminder, nil, asynq.Queue(QueueLow))
}
