package models

import "github.com/shopspring/decimal"

// FeeDescriptor is a flat amount plus a percentage of the item price
type FeeDescriptor struct {
	Flat    decimal.Decimal `json:"flat"`
	Percent decimal.Decimal `json:"percent"`
}

// PaymentChannel is a payment method offered at checkout (QRIS, VA, e-wallet...)
type PaymentChannel struct {
	Code        string        `json:"code"`
	Name        string        `json:"name"`
	Group       string        `json:"group"`
	Type        string        `json:"type,omitempty"`
	IconURL     string        `json:"icon_url,omitempty"`
	FeeMerchant FeeDescriptor `json:"fee_merchant"`
	FeeCustomer FeeDescriptor `json:"fee_customer"`
	TotalFee    FeeDescriptor `json:"total_fee"`
	Active      bool          `json:"active"`
}

// ActiveChannels filters out disabled channels, keeping order.
func ActiveChannels(channels []PaymentChannel) []PaymentChannel {
	active := make([]PaymentChannel, 0, len(channels))
	for _, ch := range channels {
		if ch.Active {
			active = append(active, ch)
		}
	}
	return active
}

// FindChannel looks up a channel by code.
func FindChannel(channels []PaymentChannel, code string) (PaymentChannel, bool) {
	for _, ch := range channels {
		if ch.Code == code {
			return ch, true
		}
	}
	return PaymentChannel{}, false
}

// ChannelGroup is a named bucket of channels (e.g. "Virtual Account", "E-Wallet")
type ChannelGroup struct {
	Name     string
	Channels []PaymentChannel
}

// GroupChannels buckets channels by group, preserving first-seen order.
func GroupChannels(channels []PaymentChannel) []ChannelGroup {
	var groups []ChannelGroup
	index := make(map[string]int)
	for _, ch := range channels {
		i, ok := index[ch.Group]
		if !ok {
			i = len(groups)
			index[ch.Group] = i
			groups = append(groups, ChannelGroup{Name: ch.Group})
		}
		groups[i].Channels = append(groups[i].Channels, ch)
	}
	return groups
}
