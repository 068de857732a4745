package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestProductItemSelectable(t *testing.T) {
	tests := []struct {
		name string
		item ProductItem
		want bool
	}{
		{"active and available", ProductItem{IsActive: true, StockStatus: StockAvailable}, true},
		{"inactive", ProductItem{IsActive: false, StockStatus: StockAvailable}, false},
		{"empty stock", ProductItem{IsActive: true, StockStatus: StockEmpty}, false},
		{"maintenance", ProductItem{IsActive: true, StockStatus: StockMaintenance}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.Selectable(); got != tt.want {
				t.Errorf("Selectable() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestTransactionTerminal(t *testing.T) {
	tests := []struct {
		name     string
		tx       Transaction
		success  bool
		terminal bool
	}{
		{"pending", Transaction{Status: TransactionPending, PaymentStatus: "unpaid"}, false, false},
		{"processing", Transaction{Status: TransactionProcessing}, false, false},
		{"success", Transaction{Status: TransactionSuccess}, true, true},
		{"paid while processing", Transaction{Status: TransactionProcessing, PaymentStatus: PaymentStatusPaid}, true, true},
		{"failed", Transaction{Status: TransactionFailed}, false, true},
		{"expired", Transaction{Status: TransactionExpired}, false, true},
		{"refunded", Transaction{Status: TransactionRefunded}, false, true},
		{"paid then failed", Transaction{Status: TransactionFailed, PaymentStatus: PaymentStatusPaid}, false, true},
		{"paid then refunded", Transaction{Status: TransactionRefunded, PaymentStatus: PaymentStatusPaid}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tx.IsSuccess(); got != tt.success {
				t.Errorf("IsSuccess() = %v; want %v", got, tt.success)
			}
			if got := tt.tx.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v; want %v", got, tt.terminal)
			}
		})
	}
}

func TestFieldOptionAcceptsStringsAndObjects(t *testing.T) {
	payload := []byte(`{"name":"server","label":"Server","type":"select","required":true,
		"options":["Asia",{"label":"Europe (EU)","value":"eu"},{"value":"na"}]}`)

	var field InputField
	if err := json.Unmarshal(payload, &field); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if field.Kind() != FieldSelect {
		t.Fatalf("expected select kind, got %q", field.Kind())
	}
	want := []FieldOption{
		{Label: "Asia", Value: "Asia"},
		{Label: "Europe (EU)", Value: "eu"},
		{Label: "na", Value: "na"},
	}
	if len(field.Options) != len(want) {
		t.Fatalf("expected %d options, got %d", len(want), len(field.Options))
	}
	for i := range want {
		if field.Options[i] != want[i] {
			t.Errorf("option %d = %+v; want %+v", i, field.Options[i], want[i])
		}
	}
}

func TestInputFieldUnknownKindIsText(t *testing.T) {
	field := InputField{Name: "user_id", Type: "textarea"}
	if field.Kind() != FieldText {
		t.Errorf("expected text, got %q", field.Kind())
	}
	if field.DisplayLabel() != "user_id" {
		t.Errorf("expected name fallback, got %q", field.DisplayLabel())
	}
}

func TestScheduledTaskNextDue(t *testing.T) {
	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rule := "FREQ=MINUTELY;INTERVAL=5"

	recurring := ScheduledTask{Due: due, TaskType: ScheduledTaskTypeRecurring, RecurringInterval: &rule}
	now := due.Add(12 * time.Minute)
	if got, want := recurring.NextDue(now), due.Add(15*time.Minute); !got.Equal(want) {
		t.Errorf("NextDue = %s; want %s", got, want)
	}

	oneTime := ScheduledTask{Due: due, TaskType: ScheduledTaskTypeOneTime}
	if got := oneTime.NextDue(now); !got.Equal(due) {
		t.Errorf("one-time NextDue = %s; want %s", got, due)
	}
}
