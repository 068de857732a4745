package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"enstore_storefront/internal/fee"
	"enstore_storefront/internal/models"
)

// ErrNoChannel is returned when a transaction has no reachable contact.
var ErrNoChannel = errors.New("no notification channel available")

// ReceiptNotifier tells the buyer how a transaction ended, by email and, when
// a phone number is known, by WhatsApp.
type ReceiptNotifier struct {
	email *EmailService
	waha  *WahaService
}

func NewReceiptNotifier(email *EmailService, waha *WahaService) *ReceiptNotifier {
	return &ReceiptNotifier{email: email, waha: waha}
}

// Notify sends the receipt of tx to the contacts stored on w. It succeeds when
// at least one channel delivered.
func (n *ReceiptNotifier) Notify(ctx context.Context, w models.WatchedTransaction, tx models.Transaction) error {
	subject, body := ReceiptMessage(tx)

	var errs []error
	sent := 0

	if w.CustomerEmail != "" && n.email.Configured() {
		if err := n.email.SendEmail([]string{w.CustomerEmail}, subject, body); err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
		} else {
			sent++
		}
	}

	if w.CustomerPhone != "" && n.waha != nil {
		if err := n.waha.SendMessage(ctx, w.CustomerPhone, "*"+subject+"*\n\n"+body); err != nil {
			errs = append(errs, fmt.Errorf("whatsapp: %w", err))
		} else {
			sent++
		}
	}

	if sent > 0 {
		return nil
	}
	if len(errs) == 0 {
		return ErrNoChannel
	}
	return errors.Join(errs...)
}

// ReceiptMessage renders the subject and plain-text body of a receipt.
func ReceiptMessage(tx models.Transaction) (string, string) {
	var headline string
	switch {
	case tx.IsSuccess():
		headline = "Payment successful"
	case tx.Status == models.TransactionExpired:
		headline = "Payment expired"
	case tx.Status == models.TransactionRefunded:
		headline = "Transaction refunded"
	case tx.IsFailed():
		headline = "Transaction failed"
	default:
		headline = "Waiting for payment"
	}
	subject := fmt.Sprintf("%s - %s", headline, tx.TransactionCode)

	var b strings.Builder
	fmt.Fprintf(&b, "Transaction: %s\n", tx.TransactionCode)
	if tx.ProductName != "" {
		fmt.Fprintf(&b, "Product: %s", tx.ProductName)
		if tx.ItemName != "" {
			fmt.Fprintf(&b, " - %s", tx.ItemName)
		}
		b.WriteString("\n")
	}
	if tx.CustomerNo != "" {
		fmt.Fprintf(&b, "Customer no: %s\n", tx.CustomerNo)
	}
	fmt.Fprintf(&b, "Total: %s\n", fee.FormatRupiah(tx.Pricing.Total))
	fmt.Fprintf(&b, "Status: %s\n", tx.Status)
	if tx.SN != "" {
		fmt.Fprintf(&b, "SN: %s\n", tx.SN)
	}
	if tx.Note != "" {
		fmt.Fprintf(&b, "Note: %s\n", tx.Note)
	}
	if tx.Refund != nil {
		fmt.Fprintf(&b, "Refund: %s (%s)\n", fee.FormatRupiah(tx.Refund.Amount), tx.Refund.Status)
	}
	return subject, b.String()
}
