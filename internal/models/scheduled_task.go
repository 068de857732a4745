package models

import (
	"time"

	"github.com/teambition/rrule-go"
	"gorm.io/gorm"
)

type ScheduledTaskStatus string

const (
	ScheduledTaskStatusActive   ScheduledTaskStatus = "active"
	ScheduledTaskStatusDone     ScheduledTaskStatus = "done"
	ScheduledTaskStatusFailure  ScheduledTaskStatus = "failure"
	ScheduledTaskStatusDisabled ScheduledTaskStatus = "disabled"
)

type ScheduledTaskType string

const (
	ScheduledTaskTypeOneTime   ScheduledTaskType = "onetime"
	ScheduledTaskTypeRecurring ScheduledTaskType = "recurring"
)

// TaskRunStatus is the outcome of one attempt, kept in the history table.
type TaskRunStatus string

const (
	TaskRunSuccess         TaskRunStatus = "success"
	TaskRunFailure         TaskRunStatus = "failure"
	TaskRunHandlerNotFound TaskRunStatus = "handler_not_found"
)

// ScheduledTask is a unit of worker work: a cache refresh, a sweep of
// pending transactions, a receipt notification.
type ScheduledTask struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	TaskName   string                 `gorm:"type:varchar(100);index" json:"task_name"`
	Arguments  map[string]interface{} `gorm:"serializer:json" json:"arguments"`
	Status     ScheduledTaskStatus    `gorm:"type:varchar(20);index:idx_task_due,priority:1" json:"status"`
	Due        time.Time              `gorm:"index:idx_task_due,priority:2" json:"due"`
	LastRun    *time.Time             `json:"last_run"`
	TaskType   ScheduledTaskType      `gorm:"type:varchar(20);default:'onetime'" json:"task_type"`
	MaxAttempt int                    `gorm:"default:3" json:"max_attempt"`
	// RecurringInterval is an RFC 5545 RRULE, e.g. FREQ=MINUTELY;INTERVAL=5
	RecurringInterval *string `gorm:"type:text" json:"recurring_interval"`
}

// Rule parses the recurrence anchored at the task's due time. ok is false for
// one-time tasks and for tasks without a usable rule.
func (t ScheduledTask) Rule() (rule *rrule.RRule, ok bool) {
	if t.TaskType != ScheduledTaskTypeRecurring || t.RecurringInterval == nil || *t.RecurringInterval == "" {
		return nil, false
	}
	rule, err := rrule.StrToRRule(*t.RecurringInterval)
	if err != nil {
		return nil, false
	}
	rule.DTStart(t.Due)
	return rule, true
}

// NextDue returns the first occurrence of the recurrence strictly after now.
// One-time tasks and unparsable rules keep their current due.
func (t ScheduledTask) NextDue(now time.Time) time.Time {
	rule, ok := t.Rule()
	if !ok {
		return t.Due
	}
	if next := rule.After(now, false); !next.IsZero() {
		return next
	}
	return t.Due
}

// ScheduledTaskHistory is one attempt of a scheduled task.
type ScheduledTaskHistory struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	ScheduledTaskID uint      `gorm:"index" json:"scheduled_task_id"`

	TaskName      string                 `gorm:"type:varchar(100)" json:"task_name"`
	AttemptNumber int                    `json:"attempt_number"`
	Status        TaskRunStatus          `gorm:"type:varchar(30)" json:"status"`
	RunAt         time.Time              `json:"run_at"`
	RuntimeMs     int                    `json:"runtime_ms"`
	Arguments     map[string]interface{} `gorm:"serializer:json" json:"arguments"`
	Result        map[string]interface{} `gorm:"serializer:json" json:"result"`
}
