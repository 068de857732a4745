package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"enstore_storefront/internal/models"
)

// BuildScheduledTask is a helper to build ScheduledTask records generically
func BuildScheduledTask(taskName string, args interface{}, due time.Time, recurringInterval *string, taskType models.ScheduledTaskType, maxAttempt int) (*models.ScheduledTask, error) {
	argsBytes, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal args: %w", err)
	}

	var mapArgs map[string]interface{}
	if err := json.Unmarshal(argsBytes, &mapArgs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into map: %w", err)
	}

	return &models.ScheduledTask{
		TaskName:          taskName,
		Arguments:         mapArgs,
		Due:               due,
		RecurringInterval: recurringInterval,
		Status:            models.ScheduledTaskStatusActive,
		TaskType:          taskType,
		MaxAttempt:        maxAttempt,
	}, nil
}

// decodeArgs copies a task's argument map into a typed struct.
func decodeArgs(task models.ScheduledTask, dest interface{}) error {
	if len(task.Arguments) == 0 {
		return nil
	}
	raw, err := json.Marshal(task.Arguments)
	if err != nil {
		return fmt.Errorf("failed to marshal args: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to unmarshal args: %w", err)
	}
	return nil
}

func recurring(rule string) *string {
	return &rule
}

// DefaultSchedule is the set of recurring tasks the worker keeps alive.
func DefaultSchedule(now time.Time) ([]*models.ScheduledTask, error) {
	schedule := []struct {
		name string
		args interface{}
		rule string
	}{
		{TaskSweepPending, SweepArgs{StaleAfterSeconds: 60, Limit: 50}, "FREQ=MINUTELY;INTERVAL=1"},
		{TaskSendStatusNotification, NotificationArgs{Limit: 50}, "FREQ=MINUTELY;INTERVAL=2"},
		{TaskRefreshCatalog, struct{}{}, "FREQ=MINUTELY;INTERVAL=30"},
	}

	out := make([]*models.ScheduledTask, 0, len(schedule))
	for _, s := range schedule {
		task, err := BuildScheduledTask(s.name, s.args, now, recurring(s.rule), models.ScheduledTaskTypeRecurring, 3)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", s.name, err)
		}
		out = append(out, task)
	}
	return out, nil
}
