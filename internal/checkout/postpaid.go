package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"enstore_storefront/internal/fee"
	"enstore_storefront/internal/models"
)

// Biller runs the two steps of a postpaid payment.
type Biller interface {
	Inquire(ctx context.Context, req models.InquiryRequest) (*models.PostpaidInquiryData, error)
	Pay(ctx context.Context, req models.PostpaidPayRequest, idempotencyKey string) (*models.Transaction, error)
}

// PostpaidCart is the checkout state of a bill payment: pick the bill type,
// check the bill for a customer number, then pay it through a channel.
type PostpaidCart struct {
	mu sync.Mutex

	product  models.Product
	channels []models.PaymentChannel

	item       *models.ProductItem
	channel    *models.PaymentChannel
	customerNo string
	email      string
	inquiry    *models.PostpaidInquiryData
	payKey     string
	busy       bool
}

// NewPostpaidCart starts an empty bill checkout.
func NewPostpaidCart(product models.Product, channels []models.PaymentChannel) *PostpaidCart {
	return &PostpaidCart{product: product, channels: channels}
}

// SelectItem picks the bill type. Changing it drops any previous inquiry.
func (c *PostpaidCart) SelectItem(id uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.product.FindItem(id)
	if !ok || !item.Selectable() {
		return ErrItemUnavailable
	}
	if c.item == nil || c.item.ID != item.ID {
		c.inquiry, c.payKey = nil, ""
	}
	c.item = &item
	return nil
}

// SelectChannel picks a payment channel.
func (c *PostpaidCart) SelectChannel(code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, ok := models.FindChannel(c.channels, code)
	if !ok || !ch.Active {
		return ErrChannelUnavailable
	}
	c.channel = &ch
	return nil
}

// SetCustomerNo stores the customer/meter number. A different number drops
// the previous inquiry.
func (c *PostpaidCart) SetCustomerNo(no string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	no = strings.TrimSpace(no)
	if no != c.customerNo {
		c.inquiry, c.payKey = nil, ""
	}
	c.customerNo = no
}

// SetEmail stores the contact email.
func (c *PostpaidCart) SetEmail(email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.email = strings.TrimSpace(email)
}

// Restore reuses an inquiry obtained earlier in the same form session.
func (c *PostpaidCart) Restore(inquiry *models.PostpaidInquiryData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inquiry = inquiry
	if inquiry != nil {
		c.customerNo = inquiry.CustomerNo
	}
}

// PayKey is the idempotency key of paying the current bill. It is issued
// with the inquiry and must travel with it, so a resubmitted pay form reuses it.
func (c *PostpaidCart) PayKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.payKey
}

// SetPayKey restores the key issued with a restored inquiry.
func (c *PostpaidCart) SetPayKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payKey = strings.TrimSpace(key)
}

// Inquiry returns the current bill, if checked.
func (c *PostpaidCart) Inquiry() *models.PostpaidInquiryData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inquiry
}

// Quote computes the fee on top of the bill total.
func (c *PostpaidCart) Quote() fee.Quote {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inquiry == nil {
		return fee.Quote{}
	}
	return fee.ForAmount(c.inquiry.Total, c.channel)
}

// Inquire checks the bill for the current customer number.
func (c *PostpaidCart) Inquire(ctx context.Context, b Biller) (*models.PostpaidInquiryData, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, ErrSubmitting
	}
	if c.item == nil {
		c.mu.Unlock()
		return nil, &ValidationError{Message: msgSelectPackage}
	}
	req := models.InquiryRequest{ProductItemID: c.item.ID, CustomerNo: c.customerNo}
	if err := validateInquiry(c.product, req); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.busy = true
	c.mu.Unlock()

	data, err := b.Inquire(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		return nil, err
	}
	c.inquiry = data
	c.payKey = newIdempotencyKey()
	return data, nil
}

// Pay settles the checked bill through the selected channel.
func (c *PostpaidCart) Pay(ctx context.Context, b Biller) (*models.Transaction, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, ErrSubmitting
	}
	if c.item == nil || c.channel == nil {
		c.mu.Unlock()
		return nil, &ValidationError{Message: msgSelectPackage}
	}
	if c.inquiry == nil || c.inquiry.InquiryRef == "" {
		c.mu.Unlock()
		return nil, &ValidationError{Message: msgInquiryRequired}
	}
	if err := validateEmail(c.email); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	req := models.PostpaidPayRequest{
		InquiryRef:    c.inquiry.InquiryRef,
		PaymentMethod: c.channel.Code,
		CustomerEmail: c.email,
	}
	if c.payKey == "" {
		c.payKey = newIdempotencyKey()
	}
	key := c.payKey
	c.busy = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	return b.Pay(ctx, req, key)
}

func validateInquiry(product models.Product, req models.InquiryRequest) error {
	label := CustomerNoLabel(product)
	if req.CustomerNo == "" {
		return &ValidationError{Message: "missing: " + label}
	}
	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return &ValidationError{Message: "invalid " + label}
		}
		return err
	}
	return nil
}

// CustomerNoLabel is the label of the product's customer_no field.
func CustomerNoLabel(product models.Product) string {
	for _, f := range product.InputFields {
		if f.Name == "customer_no" {
			return f.DisplayLabel()
		}
	}
	return "customer number"
}
