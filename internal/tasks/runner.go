package tasks

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"enstore_storefront/internal/models"
)

// Runner executes due scheduled tasks and records their history.
type Runner struct {
	db       *gorm.DB
	registry *Registry
	now      func() time.Time
}

func NewRunner(db *gorm.DB, registry *Registry) *Runner {
	return &Runner{db: db, registry: registry, now: time.Now}
}

// EnsureDefaults creates the default recurring tasks that have no active row.
func (r *Runner) EnsureDefaults(ctx context.Context) error {
	defaults, err := DefaultSchedule(r.now())
	if err != nil {
		return err
	}
	for _, task := range defaults {
		if _, ok := r.registry.Get(task.TaskName); !ok {
			continue
		}
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.ScheduledTask{}).
			Where("task_name = ? AND status = ?", task.TaskName, models.ScheduledTaskStatusActive).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
			return err
		}
		log.Printf("Scheduled default task %s (%s)", task.TaskName, *task.RecurringInterval)
	}
	return nil
}

// RunDue executes every active task whose due time has passed.
func (r *Runner) RunDue(ctx context.Context) {
	log.Println("Checking for pending tasks...")

	var pendingTasks []models.ScheduledTask
	if err := r.db.WithContext(ctx).
		Where("status = ? AND due <= ?", models.ScheduledTaskStatusActive, r.now()).
		Order("due ASC").
		Find(&pendingTasks).Error; err != nil {
		log.Printf("Error fetching pending tasks: %v", err)
		return
	}

	if len(pendingTasks) == 0 {
		log.Println("No pending tasks found.")
		return
	}

	log.Printf("Found %d pending tasks.", len(pendingTasks))

	for _, task := range pendingTasks {
		if ctx.Err() != nil {
			return
		}
		r.execute(ctx, task)
	}
}

func (r *Runner) execute(ctx context.Context, task models.ScheduledTask) {
	log.Printf("Processing task: %s (ID: %d)", task.TaskName, task.ID)

	handler, found := r.registry.Get(task.TaskName)
	if !found {
		log.Printf("Task handler not found for: %s. Marking as failure.", task.TaskName)
		now := r.now()
		r.recordHistory(ctx, models.ScheduledTaskHistory{
			ScheduledTaskID: task.ID,
			TaskName:        task.TaskName,
			RunAt:           now,
			Status:          models.TaskRunHandlerNotFound,
			AttemptNumber:   1,
			Arguments:       task.Arguments,
			Result:          map[string]interface{}{"error": "Handler not found"},
		})
		r.updateTask(ctx, task, map[string]interface{}{
			"status":   models.ScheduledTaskStatusFailure,
			"last_run": &now,
		})
		return
	}

	maxAttempt := task.MaxAttempt
	if maxAttempt < 1 {
		maxAttempt = 1
	}

	var (
		status    models.TaskRunStatus
		startTime time.Time
	)
	for attempt := 1; attempt <= maxAttempt; attempt++ {
		startTime = r.now()
		result, err := handler(ctx, task)
		runtimeMs := int(time.Since(startTime).Milliseconds())

		status = models.TaskRunSuccess
		if err != nil {
			status = models.TaskRunFailure
			if result == nil {
				result = map[string]interface{}{}
			}
			result["error"] = err.Error()
			log.Printf("Task %s failed (attempt %d/%d): %v", task.TaskName, attempt, maxAttempt, err)
		} else {
			log.Printf("Task %s completed successfully.", task.TaskName)
		}

		r.recordHistory(ctx, models.ScheduledTaskHistory{
			ScheduledTaskID: task.ID,
			TaskName:        task.TaskName,
			RunAt:           startTime,
			RuntimeMs:       runtimeMs,
			Status:          status,
			AttemptNumber:   attempt,
			Arguments:       task.Arguments,
			Result:          result,
		})

		if status == models.TaskRunSuccess || ctx.Err() != nil {
			break
		}
	}

	r.updateTask(ctx, task, completionUpdates(task, status == models.TaskRunSuccess, startTime))
}

func (r *Runner) recordHistory(ctx context.Context, h models.ScheduledTaskHistory) {
	if err := r.db.WithContext(context.WithoutCancel(ctx)).Create(&h).Error; err != nil {
		log.Printf("Error saving history of task %s (ID: %d): %v", h.TaskName, h.ScheduledTaskID, err)
	}
}

func (r *Runner) updateTask(ctx context.Context, task models.ScheduledTask, updates map[string]interface{}) {
	if err := r.db.WithContext(context.WithoutCancel(ctx)).Model(&task).Updates(updates).Error; err != nil {
		log.Printf("Error updating task %s (ID: %d): %v", task.TaskName, task.ID, err)
	}
}

// completionUpdates decides the task row after a run. Recurring tasks move to
// their next occurrence even when the run failed, so one bad tick does not
// stop a sweep for good.
func completionUpdates(task models.ScheduledTask, succeeded bool, ranAt time.Time) map[string]interface{} {
	updates := map[string]interface{}{
		"last_run": &ranAt,
	}

	if task.TaskType == models.ScheduledTaskTypeRecurring {
		nextDue := task.NextDue(ranAt)
		if nextDue.After(task.Due) {
			updates["status"] = models.ScheduledTaskStatusActive
			updates["due"] = nextDue
			return updates
		}
		updates["status"] = models.ScheduledTaskStatusDone
		if !succeeded {
			updates["status"] = models.ScheduledTaskStatusFailure
		}
		return updates
	}

	if succeeded {
		updates["status"] = models.ScheduledTaskStatusDone
	} else {
		updates["status"] = models.ScheduledTaskStatusFailure
	}
	return updates
}
