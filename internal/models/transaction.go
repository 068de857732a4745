package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the fulfilment status reported by the API
type TransactionStatus string

const (
	TransactionPending    TransactionStatus = "pending"
	TransactionProcessing TransactionStatus = "processing"
	TransactionSuccess    TransactionStatus = "success"
	TransactionFailed     TransactionStatus = "failed"
	TransactionExpired    TransactionStatus = "expired"
	TransactionRefunded   TransactionStatus = "refunded"
)

// PaymentStatusPaid is the payment_status value of a settled payment
const PaymentStatusPaid = "paid"

// Pricing is the price breakdown of a transaction
type Pricing struct {
	Product  decimal.Decimal `json:"product"`
	Admin    decimal.Decimal `json:"admin"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Instruction is one titled block of payment steps
type Instruction struct {
	Title string   `json:"title"`
	Steps []string `json:"steps"`
}

// Payment is the payment sub-object of a transaction
type Payment struct {
	Method       string        `json:"method"`
	MethodName   string        `json:"method_name,omitempty"`
	QRURL        string        `json:"qr_url,omitempty"`
	QRString     string        `json:"qr_string,omitempty"`
	PaymentCode  string        `json:"payment_code,omitempty"`
	PayURL       string        `json:"pay_url,omitempty"`
	ExpiredAt    *time.Time    `json:"expired_at,omitempty"`
	PaidAt       *time.Time    `json:"paid_at,omitempty"`
	Instructions []Instruction `json:"instructions,omitempty"`
}

// Refund is present when a failed transaction has been refunded
type Refund struct {
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method,omitempty"`
	Status     string          `json:"status"`
	Note       string          `json:"note,omitempty"`
	RefundedAt *time.Time      `json:"refunded_at,omitempty"`
}

// Transaction is the status view of a purchase
type Transaction struct {
	TransactionCode string            `json:"transaction_code"`
	Status          TransactionStatus `json:"status"`
	PaymentStatus   string            `json:"payment_status"`
	ProductName     string            `json:"product_name,omitempty"`
	ItemName        string            `json:"item_name,omitempty"`
	CustomerNo      string            `json:"customer_no,omitempty"`
	CustomerEmail   string            `json:"customer_email,omitempty"`
	Pricing         Pricing           `json:"pricing"`
	Payment         Payment           `json:"payment"`
	SN              string            `json:"sn,omitempty"`
	Note            string            `json:"note,omitempty"`
	Refund          *Refund           `json:"refund,omitempty"`
	CreatedAt       *time.Time        `json:"created_at,omitempty"`
}

// IsSuccess reports a delivered transaction, or one that is paid and still
// being processed. A paid transaction the server later failed or refunded is
// not a success.
func (t Transaction) IsSuccess() bool {
	if t.Status == TransactionSuccess {
		return true
	}
	return t.PaymentStatus == PaymentStatusPaid && !t.IsFailed()
}

// IsFailed reports a transaction that can no longer succeed.
func (t Transaction) IsFailed() bool {
	switch t.Status {
	case TransactionFailed, TransactionExpired, TransactionRefunded:
		return true
	}
	return false
}

// IsTerminal reports whether polling this transaction should stop.
func (t Transaction) IsTerminal() bool {
	return t.IsSuccess() || t.IsFailed()
}

// ExpiresAt returns the payment deadline, if any.
func (t Transaction) ExpiresAt() (time.Time, bool) {
	if t.Payment.ExpiredAt == nil {
		return time.Time{}, false
	}
	return *t.Payment.ExpiredAt, true
}

// PurchaseRequest is the body of POST /transactions/purchase
type PurchaseRequest struct {
	ProductItemID uint              `json:"product_item_id"`
	PaymentMethod string            `json:"payment_method"`
	CustomerData  map[string]string `json:"customer_data"`
	CustomerEmail string            `json:"customer_email"`
}

// PurchaseResult wraps the transaction returned by purchase and postpaid pay
type PurchaseResult struct {
	Transaction Transaction `json:"transaction"`
}
