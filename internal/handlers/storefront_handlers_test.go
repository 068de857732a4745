package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"enstore_storefront/internal/apiclient"
	"enstore_storefront/internal/models"
)

func TestListServicesAccumulatesPagesWithoutDuplicates(t *testing.T) {
	f := newStorefrontFixture()
	f.catalog.pages = map[string]*models.ProductPage{
		"1": {
			Products:   []models.Product{{ID: 1, Slug: "mlbb", Name: "Mobile Legends"}, {ID: 2, Slug: "ff", Name: "Free Fire"}},
			Pagination: models.Pagination{CurrentPage: 1, LastPage: 3},
		},
		"2": {
			Products:   []models.Product{{ID: 2, Slug: "ff", Name: "Free Fire"}, {ID: 3, Slug: "pubg", Name: "PUBG Mobile"}},
			Pagination: models.Pagination{CurrentPage: 2, LastPage: 3},
		},
	}

	c, rec := newContext(http.MethodGet, "/services?category=games&page=2", nil)
	if err := f.handler.ListServices(c); err != nil {
		t.Fatalf("ListServices: %v", err)
	}

	body := rec.Body.String()
	for _, id := range []string{`id="product-1"`, `id="product-2"`, `id="product-3"`} {
		if n := strings.Count(body, id); n != 1 {
			t.Errorf("expected %s once, got %d", id, n)
		}
	}
	if !strings.Contains(body, "page=3") {
		t.Errorf("expected a link to page 3")
	}
	if len(f.catalog.queries) != 2 || f.catalog.queries[0]["category.slug"] != "games" {
		t.Fatalf("unexpected queries %v", f.catalog.queries)
	}
}

func TestListServicesShowsError(t *testing.T) {
	f := newStorefrontFixture()
	f.catalog.listErr = &apiclient.NetworkError{}

	c, rec := newContext(http.MethodGet, "/services", nil)
	if err := f.handler.ListServices(c); err != nil {
		t.Fatalf("ListServices: %v", err)
	}
	if !strings.Contains(rec.Body.String(), apiclient.DefaultErrorMessage) {
		t.Fatalf("expected error message in body")
	}
}

func TestShowServiceUnknownProduct(t *testing.T) {
	f := newStorefrontFixture()
	c, _ := newContext(http.MethodGet, "/services/nope", nil, "slug", "nope")
	if code := httpCode(f.handler.ShowService(c)); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		name    string
		channel string
		fee     int64
		total   int64
	}{
		{name: "flat fee", channel: "QRIS", fee: 1500, total: 51500},
		{name: "percent fee", channel: "BCAVA", fee: 1000, total: 51000},
		{name: "no channel yet", channel: "", fee: 0, total: 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newStorefrontFixture()
			c, rec := newContext(http.MethodGet, "/services/mlbb/quote?item=10&channel="+tt.channel, nil, "slug", "mlbb")
			if err := f.handler.Quote(c); err != nil {
				t.Fatalf("Quote: %v", err)
			}

			var q QuoteResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &q); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !q.Fee.Equal(decimal.NewFromInt(tt.fee)) || !q.Total.Equal(decimal.NewFromInt(tt.total)) {
				t.Fatalf("expected fee %d total %d, got %s %s", tt.fee, tt.total, q.Fee, q.Total)
			}
		})
	}
}

func TestCheckoutRejectsMissingSelectionBeforeNetwork(t *testing.T) {
	f := newStorefrontFixture()
	form := url.Values{"field_user_id": {"123"}, "email": {"a@b.co"}}

	c, rec := newContext(http.MethodPost, "/services/mlbb/checkout", form, "slug", "mlbb")
	if err := f.handler.Checkout(c); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "select package/payment") {
		t.Fatalf("expected selection error in body")
	}
	if len(f.transactions.purchases) != 0 {
		t.Fatalf("purchase must not be called")
	}
}

func TestCheckoutRejectsUnavailableItem(t *testing.T) {
	f := newStorefrontFixture()
	form := url.Values{"field_user_id": {"123"}, "email": {"a@b.co"}, "item_id": {"11"}, "payment_method": {"QRIS"}}

	c, rec := newContext(http.MethodPost, "/services/mlbb/checkout", form, "slug", "mlbb")
	if err := f.handler.Checkout(c); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity || len(f.transactions.purchases) != 0 {
		t.Fatalf("expected 422 without purchase, got %d / %d", rec.Code, len(f.transactions.purchases))
	}
}

func TestCheckoutRedirectsAndTracks(t *testing.T) {
	f := newStorefrontFixture()
	f.transactions.purchaseTx = &models.Transaction{TransactionCode: "TRX-1", Status: models.TransactionPending}
	form := url.Values{
		"field_user_id":  {"123"},
		"email":          {"a@b.co"},
		"item_id":        {"10"},
		"payment_method": {"QRIS"},
	}

	c, rec := newContext(http.MethodPost, "/services/mlbb/checkout", form, "slug", "mlbb")
	if err := f.handler.Checkout(c); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/transactions/TRX-1" {
		t.Fatalf("expected redirect to status page, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	req := f.transactions.purchases[0]
	if req.ProductItemID != 10 || req.PaymentMethod != "QRIS" || req.CustomerData["user_id"] != "123" || req.CustomerEmail != "a@b.co" {
		t.Fatalf("unexpected purchase %+v", req)
	}
	if len(f.watch.tracked) != 1 {
		t.Fatalf("expected transaction to be tracked")
	}
	meta := f.watch.tracked[0].meta
	if meta.ProductSlug != "mlbb" || meta.CustomerNo != "123" || meta.PaymentMethod != "QRIS" {
		t.Fatalf("unexpected meta %+v", meta)
	}
}

func TestCheckoutSurfacesApiError(t *testing.T) {
	f := newStorefrontFixture()
	f.transactions.purchaseErr = &apiclient.ApiError{
		StatusCode: http.StatusUnprocessableEntity,
		Message:    "Data tidak valid",
		Errors:     map[string][]string{"user_id": {"ID tidak ditemukan"}},
	}
	form := url.Values{"field_user_id": {"123"}, "email": {"a@b.co"}, "item_id": {"10"}, "payment_method": {"QRIS"}}

	c, rec := newContext(http.MethodPost, "/services/mlbb/checkout", form, "slug", "mlbb")
	if err := f.handler.Checkout(c); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	body := rec.Body.String()
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(body, "Data tidak valid") || !strings.Contains(body, "user_id: ID tidak ditemukan") {
		t.Fatalf("expected api error on page, got %d", rec.Code)
	}
	if len(f.transactions.purchases) != 1 {
		t.Fatalf("purchase must not be retried, got %d calls", len(f.transactions.purchases))
	}
	if len(f.watch.tracked) != 0 {
		t.Fatalf("failed purchase must not be tracked")
	}
}

func TestPostpaidInquiryThenPay(t *testing.T) {
	f := newStorefrontFixture()
	f.biller.inquiry = &models.PostpaidInquiryData{
		InquiryRef:   "INQ-1",
		CustomerName: "BUDI",
		Tagihan:      decimal.NewFromInt(250000),
		Admin:        decimal.NewFromInt(2500),
		Total:        decimal.NewFromInt(252500),
	}

	c, rec := newContext(http.MethodPost, "/services/pln-postpaid/inquiry",
		url.Values{"item_id": {"20"}, "customer_no": {"5551234"}}, "slug", "pln-postpaid")
	if err := f.handler.PostpaidInquiry(c); err != nil {
		t.Fatalf("PostpaidInquiry: %v", err)
	}
	body := rec.Body.String()
	if rec.Code != http.StatusOK || !strings.Contains(body, "BUDI") || !strings.Contains(body, `value="INQ-1"`) {
		t.Fatalf("expected inquiry on page, got %d", rec.Code)
	}

	f.biller.tx = &models.Transaction{TransactionCode: "TRX-2", Status: models.TransactionPending}
	pay := url.Values{
		"item_id":        {"20"},
		"inquiry_ref":    {"INQ-1"},
		"customer_no":    {"5551234"},
		"customer_name":  {"BUDI"},
		"total":          {"252500"},
		"payment_method": {"QRIS"},
		"email":          {"a@b.co"},
	}
	c, rec = newContext(http.MethodPost, "/services/pln-postpaid/pay", pay, "slug", "pln-postpaid")
	if err := f.handler.PostpaidPay(c); err != nil {
		t.Fatalf("PostpaidPay: %v", err)
	}
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/transactions/TRX-2" {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if len(f.biller.payments) != 1 || f.biller.payments[0].InquiryRef != "INQ-1" || f.biller.payments[0].PaymentMethod != "QRIS" {
		t.Fatalf("unexpected payments %+v", f.biller.payments)
	}
	if len(f.watch.tracked) != 1 || f.watch.tracked[0].meta.CustomerNo != "5551234" {
		t.Fatalf("unexpected tracking %+v", f.watch.tracked)
	}
}

func TestPostpaidInquiryIssuesPayKey(t *testing.T) {
	f := newStorefrontFixture()
	f.biller.inquiry = &models.PostpaidInquiryData{InquiryRef: "INQ-1", CustomerName: "BUDI", Total: decimal.NewFromInt(252500)}

	c, rec := newContext(http.MethodPost, "/services/pln-postpaid/inquiry",
		url.Values{"item_id": {"20"}, "customer_no": {"5551234"}}, "slug", "pln-postpaid")
	if err := f.handler.PostpaidInquiry(c); err != nil {
		t.Fatalf("PostpaidInquiry: %v", err)
	}
	body := rec.Body.String()
	if strings.Contains(body, `name="pay_key" value=""`) || !strings.Contains(body, `name="pay_key" value="`) {
		t.Fatalf("expected a pay key in the pay form")
	}
	if strings.Count(body, "data-submit>") != 2 {
		t.Fatalf("both postpaid buttons must disable on submit")
	}
}

func TestPostpaidPayReusesPostedKey(t *testing.T) {
	f := newStorefrontFixture()
	f.biller.tx = &models.Transaction{TransactionCode: "TRX-2", Status: models.TransactionPending}
	pay := url.Values{
		"item_id":        {"20"},
		"inquiry_ref":    {"INQ-1"},
		"customer_no":    {"5551234"},
		"total":          {"252500"},
		"payment_method": {"QRIS"},
		"email":          {"a@b.co"},
		"pay_key":        {"key-1"},
	}
	for i := 0; i < 2; i++ {
		c, _ := newContext(http.MethodPost, "/services/pln-postpaid/pay", pay, "slug", "pln-postpaid")
		if err := f.handler.PostpaidPay(c); err != nil {
			t.Fatalf("PostpaidPay: %v", err)
		}
	}
	if len(f.biller.keys) != 2 || f.biller.keys[0] != "key-1" || f.biller.keys[1] != "key-1" {
		t.Fatalf("resubmitted form must reuse its key, got %v", f.biller.keys)
	}
}

func TestPostpaidPayWithoutTransaction(t *testing.T) {
	f := newStorefrontFixture()
	f.biller.tx = &models.Transaction{}
	pay := url.Values{
		"item_id":        {"20"},
		"inquiry_ref":    {"INQ-1"},
		"customer_no":    {"5551234"},
		"customer_name":  {"BUDI"},
		"total":          {"252500"},
		"payment_method": {"QRIS"},
		"email":          {"a@b.co"},
	}
	c, rec := newContext(http.MethodPost, "/services/pln-postpaid/pay", pay, "slug", "pln-postpaid")
	if err := f.handler.PostpaidPay(c); err != nil {
		t.Fatalf("PostpaidPay: %v", err)
	}
	if rec.Code != http.StatusOK || rec.Header().Get("Location") != "" {
		t.Fatalf("expected confirmation page, got %d to %q", rec.Code, rec.Header().Get("Location"))
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Bill paid") || strings.Contains(body, "Pay bill") {
		t.Fatalf("expected paid notice without the pay form")
	}
	if len(f.watch.tracked) != 0 {
		t.Fatalf("nothing to track without a code, got %+v", f.watch.tracked)
	}
}

func TestPostpaidPayRequiresInquiry(t *testing.T) {
	f := newStorefrontFixture()
	pay := url.Values{"item_id": {"20"}, "payment_method": {"QRIS"}, "email": {"a@b.co"}}

	c, rec := newContext(http.MethodPost, "/services/pln-postpaid/pay", pay, "slug", "pln-postpaid")
	if err := f.handler.PostpaidPay(c); err != nil {
		t.Fatalf("PostpaidPay: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "check the bill first") {
		t.Fatalf("expected inquiry error, got %d", rec.Code)
	}
	if len(f.biller.payments) != 0 {
		t.Fatalf("pay must not be called")
	}
}

func TestPostpaidInquiryRejectsBadNumber(t *testing.T) {
	f := newStorefrontFixture()
	c, rec := newContext(http.MethodPost, "/services/pln-postpaid/inquiry",
		url.Values{"item_id": {"20"}, "customer_no": {"12ab"}}, "slug", "pln-postpaid")
	if err := f.handler.PostpaidInquiry(c); err != nil {
		t.Fatalf("PostpaidInquiry: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "invalid Meter number") {
		t.Fatalf("expected validation error, got %d", rec.Code)
	}
}
