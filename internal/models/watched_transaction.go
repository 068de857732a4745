package models

import (
	"time"

	"gorm.io/gorm"
)

// StatusSource tells where a status observation came from
type StatusSource string

const (
	StatusSourcePoll   StatusSource = "poll"
	StatusSourceManual StatusSource = "manual"
	StatusSourceCancel StatusSource = "cancel"
	StatusSourceSweep  StatusSource = "sweep"
)

// WatchedTransaction is the local record of a transaction submitted through
// this storefront. The API stays the source of truth; this row only mirrors
// the last observed status so the worker can keep sweeping pending ones.
type WatchedTransaction struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	TransactionCode string            `gorm:"type:varchar(100);uniqueIndex" json:"transaction_code"`
	ProductSlug     string            `gorm:"type:varchar(255)" json:"product_slug"`
	ProductItemID   uint              `json:"product_item_id"`
	PaymentMethod   string            `gorm:"type:varchar(50)" json:"payment_method"`
	CustomerEmail   string            `gorm:"type:varchar(255)" json:"customer_email"`
	CustomerNo      string            `gorm:"type:varchar(100)" json:"customer_no"`
	CustomerPhone   string            `gorm:"type:varchar(50)" json:"customer_phone"`
	Status          TransactionStatus `gorm:"type:varchar(20);index:idx_watched_terminal_status,priority:2" json:"status"`
	PaymentStatus   string            `gorm:"type:varchar(20)" json:"payment_status"`
	ExpiredAt       *time.Time        `json:"expired_at"`
	LastCheckedAt   *time.Time        `json:"last_checked_at"`
	Terminal        bool              `gorm:"default:false;index:idx_watched_terminal_status,priority:1" json:"terminal"`
	Notified        bool              `gorm:"default:false" json:"notified"`

	History []TransactionStatusHistory `gorm:"foreignKey:TransactionCode;references:TransactionCode" json:"history,omitempty"`
}

// TransactionStatusHistory records each observed status change
type TransactionStatusHistory struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	TransactionCode string            `gorm:"type:varchar(100);index" json:"transaction_code"`
	FromStatus      TransactionStatus `gorm:"type:varchar(20)" json:"from_status"`
	ToStatus        TransactionStatus `gorm:"type:varchar(20)" json:"to_status"`
	PaymentStatus   string            `gorm:"type:varchar(20)" json:"payment_status"`
	Source          StatusSource      `gorm:"type:varchar(20)" json:"source"`
	ObservedAt      time.Time         `json:"observed_at"`
}
