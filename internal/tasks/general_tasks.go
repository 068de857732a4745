package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"

	"enstore_storefront/internal/models"
)

// LogInfoTaskDef encapsulates the log info task
type LogInfoTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *LogInfoTaskDef) TaskID() string {
	return TaskLogInfo
}

// HandleExecution handles logging information
func (t *LogInfoTaskDef) HandleExecution(ctx context.Context, task models.ScheduledTask) (map[string]interface{}, error) {
	message, ok := task.Arguments["message"].(string)
	if !ok {
		message = "No message provided"
	}
	log.Printf("[Task: log_info] Message: %s", message)

	return map[string]interface{}{
		"status":            "success",
		"message":           message,
		"max_attempts_info": task.MaxAttempt,
	}, nil
}

// LogInfoTask is the singleton instance of LogInfoTaskDef
var LogInfoTask = &LogInfoTaskDef{}

// CacheRefresher reloads one cached catalog list from the API.
type CacheRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// RefreshCatalogTaskDef warms the payment channel and category caches so
// storefront pages do not pay for a cold fetch.
type RefreshCatalogTaskDef struct {
	Channels   CacheRefresher
	Categories CacheRefresher
}

func (t *RefreshCatalogTaskDef) TaskID() string {
	return TaskRefreshCatalog
}

func (t *RefreshCatalogTaskDef) HandleExecution(ctx context.Context, task models.ScheduledTask) (map[string]interface{}, error) {
	result := map[string]interface{}{}
	var errs []error

	if t.Channels != nil {
		n, err := t.Channels.Refresh(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("payment channels: %w", err))
		} else {
			result["payment_channels"] = n
		}
	}
	if t.Categories != nil {
		n, err := t.Categories.Refresh(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("categories: %w", err))
		} else {
			result["categories"] = n
		}
	}

	if len(errs) > 0 {
		return result, errors.Join(errs...)
	}
	result["status"] = "success"
	return result, nil
}
