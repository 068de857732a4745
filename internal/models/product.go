package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PaymentType distinguishes prepaid top-ups from postpaid bills
type PaymentType string

const (
	PaymentTypePrepaid  PaymentType = "prepaid"
	PaymentTypePostpaid PaymentType = "postpaid"
)

// StockStatus is the availability of a product item
type StockStatus string

const (
	StockAvailable   StockStatus = "available"
	StockEmpty       StockStatus = "empty"
	StockMaintenance StockStatus = "maintenance"
)

// FieldKind is the variant tag of a dynamic input field
type FieldKind string

const (
	FieldText   FieldKind = "text"
	FieldNumber FieldKind = "number"
	FieldEmail  FieldKind = "email"
	FieldSelect FieldKind = "select"
)

// Category groups products in the storefront navigation
type Category struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Icon     string `json:"icon,omitempty"`
	IsActive bool   `json:"is_active"`
}

// FieldOption is one choice of a select field. The API sends either plain
// strings or {label, value} objects.
type FieldOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func (o *FieldOption) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		o.Label, o.Value = plain, plain
		return nil
	}
	type raw FieldOption
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("field option: %w", err)
	}
	*o = FieldOption(r)
	if o.Label == "" {
		o.Label = o.Value
	}
	return nil
}

// InputField describes one customer-data field a product asks for
// (user id, zone id, phone number, meter number...).
type InputField struct {
	Name        string        `json:"name"`
	Label       string        `json:"label"`
	Type        FieldKind     `json:"type"`
	Required    bool          `json:"required"`
	Placeholder string        `json:"placeholder,omitempty"`
	Options     []FieldOption `json:"options,omitempty"`
}

// Kind returns the field variant, treating unknown types as text.
func (f InputField) Kind() FieldKind {
	switch f.Type {
	case FieldNumber, FieldEmail, FieldSelect:
		return f.Type
	default:
		return FieldText
	}
}

// DisplayLabel falls back to the field name when no label is configured.
func (f InputField) DisplayLabel() string {
	if strings.TrimSpace(f.Label) != "" {
		return f.Label
	}
	return f.Name
}

// ProductItem is a purchasable denomination of a product
type ProductItem struct {
	ID          uint            `json:"id"`
	ProductID   uint            `json:"product_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	StockStatus StockStatus     `json:"stock_status"`
	IsActive    bool            `json:"is_active"`
	Group       string          `json:"group,omitempty"`
}

// Selectable reports whether the item may be picked at checkout.
func (i ProductItem) Selectable() bool {
	return i.IsActive && i.StockStatus == StockAvailable
}

// Product is a storefront service (a game, a voucher, pulsa, a bill...)
type Product struct {
	ID          uint          `json:"id"`
	Slug        string        `json:"slug"`
	Name        string        `json:"name"`
	Brand       string        `json:"brand"`
	Provider    string        `json:"provider"`
	Type        string        `json:"type"`
	PaymentType PaymentType   `json:"payment_type"`
	Image       string        `json:"image,omitempty"`
	Description string        `json:"description,omitempty"`
	IsActive    bool          `json:"is_active"`
	Category    *Category     `json:"category,omitempty"`
	InputFields []InputField  `json:"input_fields"`
	Items       []ProductItem `json:"items"`
}

// IsPostpaid reports whether the product is paid through inquiry + pay.
func (p Product) IsPostpaid() bool {
	return p.PaymentType == PaymentTypePostpaid
}

// FindItem returns the item with the given id.
func (p Product) FindItem(id uint) (ProductItem, bool) {
	for _, item := range p.Items {
		if item.ID == id {
			return item, true
		}
	}
	return ProductItem{}, false
}

// ItemGroups returns the items bucketed by group, preserving first-seen order.
func (p Product) ItemGroups() []ItemGroup {
	var groups []ItemGroup
	index := make(map[string]int)
	for _, item := range p.Items {
		i, ok := index[item.Group]
		if !ok {
			i = len(groups)
			index[item.Group] = i
			groups = append(groups, ItemGroup{Name: item.Group})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// ItemGroup is a named bucket of items (e.g. "Diamonds", "Weekly Pass")
type ItemGroup struct {
	Name  string
	Items []ProductItem
}

// Pagination is the page metadata returned by list endpoints
type Pagination struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page,omitempty"`
	Total       int `json:"total"`
}

// HasMore reports whether a page after the current one exists.
func (p Pagination) HasMore() bool {
	return p.CurrentPage < p.LastPage
}

// ProductPage is one page of GET /products
type ProductPage struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}
