package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"enstore_storefront/internal/apiclient"
	"enstore_storefront/internal/models"
	"enstore_storefront/internal/services"
)

type stubCatalog struct {
	products map[string]*models.Product
	pages    map[string]*models.ProductPage
	queries  []apiclient.Query
	listErr  error
}

func (s *stubCatalog) ListProducts(ctx context.Context, q apiclient.Query) (*models.ProductPage, error) {
	s.queries = append(s.queries, q)
	if s.listErr != nil {
		return nil, s.listErr
	}
	page, ok := s.pages[q["page"]]
	if !ok {
		return &models.ProductPage{}, nil
	}
	return page, nil
}

func (s *stubCatalog) GetProduct(ctx context.Context, slug string) (*models.Product, error) {
	p, ok := s.products[slug]
	if !ok {
		return nil, &apiclient.ApiError{StatusCode: http.StatusNotFound, Message: "Produk tidak ditemukan"}
	}
	return p, nil
}

type stubCategories struct{}

func (stubCategories) List(ctx context.Context) ([]models.Category, error) {
	return []models.Category{{ID: 1, Name: "Games", Slug: "games", IsActive: true}}, nil
}

type stubChannels struct {
	channels []models.PaymentChannel
}

func (s stubChannels) Active(ctx context.Context) ([]models.PaymentChannel, error) {
	return s.channels, nil
}

type stubTransactions struct {
	mu          sync.Mutex
	purchases   []models.PurchaseRequest
	purchaseTx  *models.Transaction
	purchaseErr error
	statuses    []models.Transaction
	statusErr   error
	statusCalls int
	cancelled   []string
	cancelErr   error
}

func (s *stubTransactions) Purchase(ctx context.Context, req models.PurchaseRequest, key string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchases = append(s.purchases, req)
	return s.purchaseTx, s.purchaseErr
}

func (s *stubTransactions) Status(ctx context.Context, code string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusCalls++
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	i := s.statusCalls - 1
	if i >= len(s.statuses) {
		i = len(s.statuses) - 1
	}
	tx := s.statuses[i]
	tx.TransactionCode = code
	return &tx, nil
}

func (s *stubTransactions) Cancel(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, code)
	return s.cancelErr
}

func (s *stubTransactions) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusCalls
}

type stubBiller struct {
	inquiry  *models.PostpaidInquiryData
	payments []models.PostpaidPayRequest
	keys     []string
	tx       *models.Transaction
	err      error
}

func (s *stubBiller) Inquire(ctx context.Context, req models.InquiryRequest) (*models.PostpaidInquiryData, error) {
	if s.err != nil {
		return nil, s.err
	}
	data := *s.inquiry
	data.CustomerNo = req.CustomerNo
	return &data, nil
}

func (s *stubBiller) Pay(ctx context.Context, req models.PostpaidPayRequest, idempotencyKey string) (*models.Transaction, error) {
	s.payments = append(s.payments, req)
	s.keys = append(s.keys, idempotencyKey)
	return s.tx, s.err
}

type trackedTx struct {
	tx   models.Transaction
	meta services.TrackMeta
}

type stubWatcher struct {
	mu       sync.Mutex
	tracked  []trackedTx
	observed []models.StatusSource
}

func (s *stubWatcher) Track(ctx context.Context, tx models.Transaction, meta services.TrackMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracked = append(s.tracked, trackedTx{tx: tx, meta: meta})
	return nil
}

func (s *stubWatcher) Observe(ctx context.Context, tx models.Transaction, source models.StatusSource) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observed = append(s.observed, source)
	return true, nil
}

func (s *stubWatcher) sources() []models.StatusSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.StatusSource(nil), s.observed...)
}

func gameProduct() *models.Product {
	return &models.Product{
		ID:          1,
		Slug:        "mlbb",
		Name:        "Mobile Legends",
		PaymentType: models.PaymentTypePrepaid,
		IsActive:    true,
		InputFields: []models.InputField{
			{Name: "user_id", Label: "User ID", Type: models.FieldNumber, Required: true},
		},
		Items: []models.ProductItem{
			{ID: 10, Name: "86 Diamonds", Price: decimal.NewFromInt(50000), StockStatus: models.StockAvailable, IsActive: true},
			{ID: 11, Name: "172 Diamonds", Price: decimal.NewFromInt(98000), StockStatus: models.StockEmpty, IsActive: true},
		},
	}
}

func billProduct() *models.Product {
	return &models.Product{
		ID:          2,
		Slug:        "pln-postpaid",
		Name:        "PLN Postpaid",
		PaymentType: models.PaymentTypePostpaid,
		IsActive:    true,
		InputFields: []models.InputField{
			{Name: "customer_no", Label: "Meter number", Type: models.FieldNumber, Required: true},
		},
		Items: []models.ProductItem{
			{ID: 20, Name: "PLN Postpaid", StockStatus: models.StockAvailable, IsActive: true},
		},
	}
}

func testChannels() []models.PaymentChannel {
	return []models.PaymentChannel{
		{Code: "QRIS", Name: "QRIS", Group: "E-Wallet", Active: true, TotalFee: models.FeeDescriptor{Flat: decimal.NewFromInt(1500)}},
		{Code: "BCAVA", Name: "BCA Virtual Account", Group: "Virtual Account", Active: true, TotalFee: models.FeeDescriptor{Percent: decimal.NewFromInt(2)}},
	}
}

type storefrontFixture struct {
	catalog      *stubCatalog
	transactions *stubTransactions
	biller       *stubBiller
	watch        *stubWatcher
	handler      *StorefrontHandler
}

func newStorefrontFixture() *storefrontFixture {
	f := &storefrontFixture{
		catalog: &stubCatalog{products: map[string]*models.Product{
			"mlbb":         gameProduct(),
			"pln-postpaid": billProduct(),
		}},
		transactions: &stubTransactions{},
		biller:       &stubBiller{},
		watch:        &stubWatcher{},
	}
	f.handler = NewStorefrontHandler(f.catalog, stubCategories{}, stubChannels{channels: testChannels()}, f.transactions, f.biller, f.watch)
	return f
}

func newContext(method, target string, form url.Values, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}

func httpCode(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}
