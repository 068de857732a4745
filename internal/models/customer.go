package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is the logged-in storefront customer
type Customer struct {
	ID      uint            `json:"id"`
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Phone   string          `json:"phone,omitempty"`
	Balance decimal.Decimal `json:"balance"`
}

// CustomerTransaction is one row of the customer's purchase history
type CustomerTransaction struct {
	TransactionCode string            `json:"transaction_code"`
	ProductName     string            `json:"product_name"`
	ItemName        string            `json:"item_name"`
	Status          TransactionStatus `json:"status"`
	PaymentStatus   string            `json:"payment_status"`
	Total           decimal.Decimal   `json:"total"`
	CreatedAt       time.Time         `json:"created_at"`
}

// CustomerTransactionPage is one page of GET /customer/transactions
type CustomerTransactionPage struct {
	Transactions []CustomerTransaction `json:"transactions"`
	Pagination   Pagination            `json:"pagination"`
}
