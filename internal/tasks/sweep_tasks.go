package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"enstore_storefront/internal/models"
	"enstore_storefront/internal/services"
)

const sweepLockTTL = 5 * time.Minute

// StatusFetcher reads the current state of a transaction from the API.
type StatusFetcher interface {
	Status(ctx context.Context, code string) (*models.Transaction, error)
}

// SweepStore is the part of the local mirror the sweep works on.
type SweepStore interface {
	DuePending(ctx context.Context, staleAfter time.Duration, limit int) ([]models.WatchedTransaction, error)
	Observe(ctx context.Context, tx models.Transaction, source models.StatusSource) (bool, error)
}

// Locker hands out a named lock shared by every worker replica.
type Locker interface {
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (func(), error)
}

// SweepArgs are the arguments of sweep_pending_transactions.
type SweepArgs struct {
	StaleAfterSeconds int `json:"stale_after_seconds"`
	Limit             int `json:"limit"`
}

// SweepPendingTaskDef refreshes watched transactions nobody has looked at
// recently, so abandoned status pages still settle in the local mirror.
type SweepPendingTaskDef struct {
	Transactions StatusFetcher
	Watch        SweepStore
	Locks        Locker
}

func (t *SweepPendingTaskDef) TaskID() string {
	return TaskSweepPending
}

func (t *SweepPendingTaskDef) HandleExecution(ctx context.Context, task models.ScheduledTask) (map[string]interface{}, error) {
	args := SweepArgs{StaleAfterSeconds: 60, Limit: 50}
	if err := decodeArgs(task, &args); err != nil {
		return nil, err
	}
	if args.Limit <= 0 {
		args.Limit = 50
	}

	if t.Locks != nil {
		release, err := t.Locks.AcquireLock(ctx, TaskSweepPending, sweepLockTTL)
		if errors.Is(err, services.ErrLockHeld) {
			log.Printf("[Task: %s] another worker holds the lock, skipping", TaskSweepPending)
			return map[string]interface{}{"status": "skipped", "reason": "locked"}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("acquire sweep lock: %w", err)
		}
		defer release()
	}

	rows, err := t.Watch.DuePending(ctx, time.Duration(args.StaleAfterSeconds)*time.Second, args.Limit)
	if err != nil {
		return nil, fmt.Errorf("load pending transactions: %w", err)
	}

	checked, changed := 0, 0
	var failures []string
	for _, row := range rows {
		if ctx.Err() != nil {
			break
		}
		tx, err := t.Transactions.Status(ctx, row.TransactionCode)
		if err != nil {
			log.Printf("[Task: %s] status %s: %v", TaskSweepPending, row.TransactionCode, err)
			failures = append(failures, fmt.Sprintf("%s: %v", row.TransactionCode, err))
			continue
		}
		if tx.TransactionCode == "" {
			tx.TransactionCode = row.TransactionCode
		}
		checked++

		ok, err := t.Watch.Observe(ctx, *tx, models.StatusSourceSweep)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", row.TransactionCode, err))
			continue
		}
		if ok {
			log.Printf("[Task: %s] %s is now %s", TaskSweepPending, row.TransactionCode, tx.Status)
			changed++
		}
	}

	result := map[string]interface{}{
		"status":  "success",
		"due":     len(rows),
		"checked": checked,
		"changed": changed,
		"failure": len(failures),
	}
	if len(failures) > 0 {
		result["errors"] = failures
		if checked == 0 {
			return result, fmt.Errorf("failed to check %d transactions", len(failures))
		}
	}
	return result, nil
}
