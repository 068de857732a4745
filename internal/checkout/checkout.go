// Package checkout holds the client-side state of a purchase: the selected
// item and payment channel, the product's dynamic fields and the contact email.
package checkout

import (
	"context"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"enstore_storefront/internal/fee"
	"enstore_storefront/internal/models"
)

var validate = validator.New()

// Purchaser submits a prepaid purchase.
type Purchaser interface {
	Purchase(ctx context.Context, req models.PurchaseRequest, idempotencyKey string) (*models.Transaction, error)
}

// Cart is the checkout state of one prepaid product page.
type Cart struct {
	mu sync.Mutex

	product  models.Product
	channels []models.PaymentChannel

	item       *models.ProductItem
	channel    *models.PaymentChannel
	fields     map[string]string
	email      string
	submitting bool
}

// NewCart starts an empty checkout for product, offering channels.
func NewCart(product models.Product, channels []models.PaymentChannel) *Cart {
	return &Cart{
		product:  product,
		channels: channels,
		fields:   make(map[string]string),
	}
}

// SelectItem picks a package. Inactive or out-of-stock items are refused.
func (c *Cart) SelectItem(id uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.product.FindItem(id)
	if !ok || !item.Selectable() {
		return ErrItemUnavailable
	}
	c.item = &item
	return nil
}

// SelectChannel picks a payment channel. Inactive channels are refused.
func (c *Cart) SelectChannel(code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, ok := models.FindChannel(c.channels, code)
	if !ok || !ch.Active {
		return ErrChannelUnavailable
	}
	c.channel = &ch
	return nil
}

// SetField stores the value of a dynamic input field.
func (c *Cart) SetField(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fields[name] = value
}

// SetEmail stores the contact email.
func (c *Cart) SetEmail(email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.email = strings.TrimSpace(email)
}

// Item returns the selected item, if any.
func (c *Cart) Item() *models.ProductItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.item
}

// Channel returns the selected channel, if any.
func (c *Cart) Channel() *models.PaymentChannel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel
}

// Quote computes the fee and total for the current selection.
func (c *Cart) Quote() fee.Quote {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fee.For(c.item, c.channel)
}

// Validate runs the pre-submit checks in order: selection, required fields,
// email.
func (c *Cart) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateLocked()
}

func (c *Cart) validateLocked() error {
	if c.item == nil || c.channel == nil {
		return &ValidationError{Message: msgSelectPackage}
	}
	if err := RequiredFields(c.product.InputFields, c.fields); err != nil {
		return err
	}
	return validateEmail(c.email)
}

// Request builds the purchase body from the current state.
func (c *Cart) Request() models.PurchaseRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestLocked()
}

func (c *Cart) requestLocked() models.PurchaseRequest {
	req := models.PurchaseRequest{
		CustomerData:  make(map[string]string, len(c.product.InputFields)),
		CustomerEmail: c.email,
	}
	if c.item != nil {
		req.ProductItemID = c.item.ID
	}
	if c.channel != nil {
		req.PaymentMethod = c.channel.Code
	}
	for _, field := range c.product.InputFields {
		if v := strings.TrimSpace(c.fields[field.Name]); v != "" {
			req.CustomerData[field.Name] = v
		}
	}
	return req
}

// Submit validates and sends the purchase. Validation failures never reach
// the network. API and network errors are returned untouched and are not
// retried. Only one submission may be in flight.
func (c *Cart) Submit(ctx context.Context, p Purchaser) (*models.Transaction, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrSubmitting
	}
	if err := c.validateLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	req := c.requestLocked()
	c.submitting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	return p.Purchase(ctx, req, newIdempotencyKey())
}

// RequiredFields checks that every required field has a non-blank value and
// reports all missing labels at once.
func RequiredFields(fields []models.InputField, values map[string]string) error {
	var missing []string
	for _, field := range fields {
		if !field.Required {
			continue
		}
		if strings.TrimSpace(values[field.Name]) == "" {
			missing = append(missing, field.DisplayLabel())
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Message: "missing: " + strings.Join(missing, ", ")}
	}
	return nil
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return &ValidationError{Message: msgMissingEmail}
	}
	if err := validate.Var(email, "email"); err != nil {
		return &ValidationError{Message: msgInvalidEmail}
	}
	return nil
}

func newIdempotencyKey() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
