package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"

	"enstore_storefront/internal/models"
	"enstore_storefront/internal/services"
)

// ReceiptStore is the part of the local mirror that tracks receipts.
type ReceiptStore interface {
	PendingReceipts(ctx context.Context, limit int) ([]models.WatchedTransaction, error)
	MarkNotified(ctx context.Context, code string) error
}

// ReceiptSender delivers a receipt for a settled transaction.
type ReceiptSender interface {
	Notify(ctx context.Context, w models.WatchedTransaction, tx models.Transaction) error
}

// NotificationArgs are the arguments of send_status_notification.
type NotificationArgs struct {
	Limit int `json:"limit"`
}

// SendStatusNotificationTaskDef tells buyers how their transaction ended,
// using the contacts captured at checkout.
type SendStatusNotificationTaskDef struct {
	Transactions StatusFetcher
	Receipts     ReceiptStore
	Notifier     ReceiptSender
}

// TaskID returns the unique identifier for this task
func (t *SendStatusNotificationTaskDef) TaskID() string {
	return TaskSendStatusNotification
}

// HandleExecution sends a receipt for every settled, un-notified transaction.
// Transactions without a reachable contact are marked so they are not retried.
func (t *SendStatusNotificationTaskDef) HandleExecution(ctx context.Context, task models.ScheduledTask) (map[string]interface{}, error) {
	args := NotificationArgs{Limit: 50}
	if err := decodeArgs(task, &args); err != nil {
		return nil, err
	}
	if args.Limit <= 0 {
		args.Limit = 50
	}

	rows, err := t.Receipts.PendingReceipts(ctx, args.Limit)
	if err != nil {
		return nil, fmt.Errorf("load pending receipts: %w", err)
	}

	successCount := 0
	skippedCount := 0
	var failures []string

	for _, row := range rows {
		if ctx.Err() != nil {
			break
		}

		tx, err := t.Transactions.Status(ctx, row.TransactionCode)
		if err != nil {
			log.Printf("Failed to load %s for receipt: %v", row.TransactionCode, err)
			failures = append(failures, fmt.Sprintf("%s: %v", row.TransactionCode, err))
			continue
		}

		sendErr := t.Notifier.Notify(ctx, row, *tx)
		if errors.Is(sendErr, services.ErrNoChannel) {
			log.Printf("Skipping receipt for %s: no contact", row.TransactionCode)
			skippedCount++
		} else if sendErr != nil {
			log.Printf("Failed to send receipt for %s: %v", row.TransactionCode, sendErr)
			failures = append(failures, fmt.Sprintf("%s: %v", row.TransactionCode, sendErr))
			continue
		} else {
			successCount++
		}

		if err := t.Receipts.MarkNotified(ctx, row.TransactionCode); err != nil {
			log.Printf("Failed to mark %s as notified: %v", row.TransactionCode, err)
		}
	}

	result := map[string]interface{}{
		"total":   len(rows),
		"success": successCount,
		"skipped": skippedCount,
		"failure": len(failures),
	}
	if len(failures) > 0 {
		result["errors"] = failures
		return result, fmt.Errorf("failed to deliver %d receipts", len(failures))
	}
	return result, nil
}
