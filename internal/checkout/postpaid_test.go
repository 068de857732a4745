package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"enstore_storefront/internal/models"
)

type stubBiller struct {
	inquiries []models.InquiryRequest
	pays      []models.PostpaidPayRequest
	keys      []string
	data      *models.PostpaidInquiryData
	tx        *models.Transaction
	err       error
}

func (s *stubBiller) Inquire(ctx context.Context, req models.InquiryRequest) (*models.PostpaidInquiryData, error) {
	s.inquiries = append(s.inquiries, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

func (s *stubBiller) Pay(ctx context.Context, req models.PostpaidPayRequest, idempotencyKey string) (*models.Transaction, error) {
	s.pays = append(s.pays, req)
	s.keys = append(s.keys, idempotencyKey)
	if s.err != nil {
		return nil, s.err
	}
	return s.tx, nil
}

func plnProduct() models.Product {
	return models.Product{
		ID:          2,
		Slug:        "pln-postpaid",
		Name:        "PLN Pascabayar",
		PaymentType: models.PaymentTypePostpaid,
		InputFields: []models.InputField{
			{Name: "customer_no", Label: "ID Pelanggan", Type: models.FieldNumber, Required: true},
		},
		Items: []models.ProductItem{
			{ID: 20, Name: "PLN", StockStatus: models.StockAvailable, IsActive: true},
		},
	}
}

func plnInquiry() *models.PostpaidInquiryData {
	return &models.PostpaidInquiryData{
		InquiryRef:   "INQ-1",
		CustomerNo:   "123456789012",
		CustomerName: "BUDI",
		Tagihan:      decimal.NewFromInt(250000),
		Admin:        decimal.NewFromInt(2500),
		Total:        decimal.NewFromInt(252500),
	}
}

func TestInquireValidation(t *testing.T) {
	b := &stubBiller{data: plnInquiry()}
	c := NewPostpaidCart(plnProduct(), testChannels())

	if _, err := c.Inquire(context.Background(), b); validationMessage(t, err) != "select package/payment" {
		t.Fatalf("unexpected error %v", err)
	}
	_ = c.SelectItem(20)
	if _, err := c.Inquire(context.Background(), b); validationMessage(t, err) != "missing: ID Pelanggan" {
		t.Fatalf("unexpected error %v", err)
	}
	c.SetCustomerNo("12ab")
	if _, err := c.Inquire(context.Background(), b); validationMessage(t, err) != "invalid ID Pelanggan" {
		t.Fatalf("unexpected error %v", err)
	}
	if len(b.inquiries) != 0 {
		t.Fatalf("expected no network call, got %d", len(b.inquiries))
	}
}

func TestInquireThenPay(t *testing.T) {
	b := &stubBiller{data: plnInquiry(), tx: &models.Transaction{TransactionCode: "TRX-PLN"}}
	c := NewPostpaidCart(plnProduct(), testChannels())
	_ = c.SelectItem(20)
	c.SetCustomerNo(" 123456789012 ")

	data, err := c.Inquire(context.Background(), b)
	if err != nil {
		t.Fatalf("inquire: %v", err)
	}
	if data.InquiryRef != "INQ-1" || b.inquiries[0].CustomerNo != "123456789012" {
		t.Fatalf("unexpected inquiry %+v / %+v", data, b.inquiries[0])
	}

	_ = c.SelectChannel("BCAVA")
	q := c.Quote()
	if !q.Fee.Equal(decimal.NewFromInt(4000)) || !q.Total.Equal(decimal.NewFromInt(256500)) {
		t.Fatalf("unexpected quote fee=%s total=%s", q.Fee, q.Total)
	}

	if _, err := c.Pay(context.Background(), b); validationMessage(t, err) != "missing email" {
		t.Fatalf("unexpected error %v", err)
	}
	c.SetEmail("budi@example.com")
	tx, err := c.Pay(context.Background(), b)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if tx.TransactionCode != "TRX-PLN" {
		t.Fatalf("unexpected transaction %+v", tx)
	}
	want := models.PostpaidPayRequest{InquiryRef: "INQ-1", PaymentMethod: "BCAVA", CustomerEmail: "budi@example.com"}
	if b.pays[0] != want {
		t.Fatalf("unexpected pay request %+v", b.pays[0])
	}
}

func TestPayRequiresInquiry(t *testing.T) {
	b := &stubBiller{}
	c := NewPostpaidCart(plnProduct(), testChannels())
	_ = c.SelectItem(20)
	_ = c.SelectChannel("QRIS")
	c.SetEmail("budi@example.com")

	if _, err := c.Pay(context.Background(), b); validationMessage(t, err) != "check the bill first" {
		t.Fatalf("unexpected error %v", err)
	}
	if len(b.pays) != 0 {
		t.Fatalf("expected no pay call")
	}
}

func TestChangingCustomerNoDropsInquiry(t *testing.T) {
	c := NewPostpaidCart(plnProduct(), testChannels())
	_ = c.SelectItem(20)
	c.Restore(plnInquiry())
	if c.Inquiry() == nil {
		t.Fatalf("expected restored inquiry")
	}
	c.SetCustomerNo("123456789012")
	if c.Inquiry() == nil {
		t.Fatalf("same number should keep the inquiry")
	}
	c.SetCustomerNo("999999999")
	if c.Inquiry() != nil {
		t.Fatalf("expected inquiry to be dropped")
	}
}

func TestInquireErrorKeepsNoBill(t *testing.T) {
	wantErr := errors.New("boom")
	b := &stubBiller{err: wantErr}
	c := NewPostpaidCart(plnProduct(), testChannels())
	_ = c.SelectItem(20)
	c.SetCustomerNo("123456789012")

	if _, err := c.Inquire(context.Background(), b); !errors.Is(err, wantErr) {
		t.Fatalf("expected boom, got %v", err)
	}
	if c.Inquiry() != nil {
		t.Fatalf("expected no inquiry after failure")
	}
	if q := c.Quote(); !q.Total.IsZero() {
		t.Fatalf("expected zero quote, got %s", q.Total)
	}
}

func TestPayKeyTravelsWithInquiry(t *testing.T) {
	b := &stubBiller{data: plnInquiry(), tx: &models.Transaction{TransactionCode: "TRX-PLN"}}
	c := NewPostpaidCart(plnProduct(), testChannels())
	_ = c.SelectItem(20)
	c.SetCustomerNo("123456789012")
	if c.PayKey() != "" {
		t.Fatal("no key before the bill is checked")
	}

	if _, err := c.Inquire(context.Background(), b); err != nil {
		t.Fatalf("inquire: %v", err)
	}
	key := c.PayKey()
	if key == "" {
		t.Fatal("expected a key with the inquiry")
	}

	_ = c.SelectChannel("QRIS")
	c.SetEmail("budi@example.com")
	for i := 0; i < 2; i++ {
		if _, err := c.Pay(context.Background(), b); err != nil {
			t.Fatalf("pay %d: %v", i, err)
		}
	}
	if len(b.keys) != 2 || b.keys[0] != key || b.keys[1] != key {
		t.Fatalf("repeated pay must reuse %q, got %v", key, b.keys)
	}

	c.SetCustomerNo("999999999")
	if c.PayKey() != "" {
		t.Fatal("a new customer number must drop the key")
	}
}

func TestRestoredPayKeyIsSent(t *testing.T) {
	b := &stubBiller{tx: &models.Transaction{TransactionCode: "TRX-PLN"}}
	c := NewPostpaidCart(plnProduct(), testChannels())
	_ = c.SelectItem(20)
	c.Restore(plnInquiry())
	c.SetPayKey(" key-from-form ")
	_ = c.SelectChannel("QRIS")
	c.SetEmail("budi@example.com")

	if _, err := c.Pay(context.Background(), b); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if b.keys[0] != "key-from-form" {
		t.Fatalf("unexpected key %q", b.keys[0])
	}
}
