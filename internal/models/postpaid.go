package models

import "github.com/shopspring/decimal"

// PostpaidDetail is one billing period of a multi-period bill
type PostpaidDetail struct {
	Period  string          `json:"period"`
	Tagihan decimal.Decimal `json:"tagihan"`
	Admin   decimal.Decimal `json:"admin"`
	Denda   decimal.Decimal `json:"denda"`
}

// PostpaidInquiryData is the bill returned by an inquiry. It only lives for the
// current form session and is referenced by inquiry_ref when paying.
type PostpaidInquiryData struct {
	InquiryRef   string           `json:"inquiry_ref"`
	CustomerNo   string           `json:"customer_no"`
	CustomerName string           `json:"customer_name"`
	Tagihan      decimal.Decimal  `json:"tagihan"`
	Admin        decimal.Decimal  `json:"admin"`
	Total        decimal.Decimal  `json:"total"`
	Details      []PostpaidDetail `json:"details,omitempty"`
}

// InquiryRequest is the body of POST /postpaid/inquiry
type InquiryRequest struct {
	ProductItemID uint   `json:"product_item_id" validate:"required,gt=0"`
	CustomerNo    string `json:"customer_no" validate:"required,numeric,min=4,max=32"`
}

// PostpaidPayRequest is the body of POST /postpaid/pay
type PostpaidPayRequest struct {
	InquiryRef    string `json:"inquiry_ref" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"required"`
	CustomerEmail string `json:"customer_email,omitempty"`
}
