// Package fee computes payment-channel fees and checkout totals in whole Rupiah.
package fee

import (
	"github.com/shopspring/decimal"

	"enstore_storefront/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Quote is the price summary shown next to the pay button.
type Quote struct {
	ItemPrice decimal.Decimal
	Fee       decimal.Decimal
	Total     decimal.Decimal
}

// Calculate returns flat + percent/100*price. Only the percentage part is
// rounded to whole Rupiah, so a zero percent yields exactly the flat fee.
func Calculate(price decimal.Decimal, d models.FeeDescriptor) decimal.Decimal {
	fee := d.Flat
	if d.Percent.IsPositive() && price.IsPositive() {
		fee = fee.Add(price.Mul(d.Percent).Div(hundred).Round(0))
	}
	return fee
}

// For quotes an item against a channel. A nil channel means no fee yet; a nil
// item means nothing to pay.
func For(item *models.ProductItem, channel *models.PaymentChannel) Quote {
	if item == nil {
		return Quote{}
	}
	return ForAmount(item.Price, channel)
}

// ForAmount quotes an arbitrary base amount, e.g. a postpaid inquiry total.
func ForAmount(amount decimal.Decimal, channel *models.PaymentChannel) Quote {
	q := Quote{ItemPrice: amount, Total: amount}
	if channel == nil {
		return q
	}
	q.Fee = Calculate(amount, channel.TotalFee)
	q.Total = amount.Add(q.Fee)
	return q
}
