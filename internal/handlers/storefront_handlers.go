package handlers

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"enstore_storefront/internal/catalog"
	"enstore_storefront/internal/checkout"
	"enstore_storefront/internal/fee"
	"enstore_storefront/internal/models"
	"enstore_storefront/internal/services"
	"enstore_storefront/web/templates/pages"
)

// maxListingPages caps how many pages a "load more" link may accumulate
const maxListingPages = 10

// StorefrontHandler serves the catalog, the product pages and checkout
type StorefrontHandler struct {
	products     ProductCatalog
	categories   CategoryLister
	channels     ChannelLister
	transactions TransactionAPI
	bills        checkout.Biller
	watch        Watcher
}

// NewStorefrontHandler creates a new StorefrontHandler. watch may be nil when
// no database is configured.
func NewStorefrontHandler(products ProductCatalog, categories CategoryLister, channels ChannelLister, transactions TransactionAPI, bills checkout.Biller, watch Watcher) *StorefrontHandler {
	return &StorefrontHandler{
		products:     products,
		categories:   categories,
		channels:     channels,
		transactions: transactions,
		bills:        bills,
		watch:        watch,
	}
}

// ListServices renders the product listing. page=N renders pages 1..N merged
// without duplicates so "load more" works without client state.
func (h *StorefrontHandler) ListServices(c echo.Context) error {
	ctx := c.Request().Context()

	filter := catalog.Filter{
		CategorySlug: strings.TrimSpace(c.QueryParam("category")),
		Search:       strings.TrimSpace(c.QueryParam("search")),
		ActiveOnly:   true,
	}
	through := parsePage(c.QueryParam("page"))
	if through > maxListingPages {
		through = maxListingPages
	}

	props := pages.ServicesListProps{
		Layout:   layout(c, "Services", "services", "Services", ""),
		Category: filter.CategorySlug,
		Search:   filter.Search,
	}

	categories, err := h.categories.List(ctx)
	if err != nil {
		log.Printf("Failed to load categories: %v", err)
	}
	props.Categories = categories

	listing := catalog.NewListing(h.products)
	products, err := listing.LoadThrough(ctx, filter, through)
	if err != nil {
		_, props.Error, _ = userMessage(err)
		log.Printf("Failed to load products: %v", err)
	}
	props.Products = products
	props.HasMore = err == nil && listing.HasMore()
	props.NextPage = listing.Pagination().CurrentPage + 1

	return pages.ServicesList(props).Render(ctx, c.Response())
}

// ShowService renders the purchase page of a product. ?item= and ?channel=
// preselect the package and payment method.
func (h *StorefrontHandler) ShowService(c echo.Context) error {
	ctx := c.Request().Context()
	product, channels, err := h.load(ctx, c.Param("slug"))
	if err != nil {
		return err
	}

	if product.IsPostpaid() {
		cart := checkout.NewPostpaidCart(*product, channels)
		_ = selectPostpaid(cart, c.QueryParam("item"), c.QueryParam("channel"))
		return h.renderPostpaid(c, http.StatusOK, product, channels, cart, c.QueryParam("item"), c.QueryParam("channel"), nil)
	}

	cart := checkout.NewCart(*product, channels)
	_ = selectPrepaid(cart, c.QueryParam("item"), c.QueryParam("channel"))
	return h.renderPrepaid(c, http.StatusOK, product, channels, cart, nil, nil)
}

// QuoteResponse is the live price summary of the product page
type QuoteResponse struct {
	ItemPrice          decimal.Decimal `json:"item_price"`
	Fee                decimal.Decimal `json:"fee"`
	Total              decimal.Decimal `json:"total"`
	ItemPriceFormatted string          `json:"item_price_formatted"`
	FeeFormatted       string          `json:"fee_formatted"`
	TotalFormatted     string          `json:"total_formatted"`
}

// Quote returns the fee and total for ?item= and ?channel=
func (h *StorefrontHandler) Quote(c echo.Context) error {
	ctx := c.Request().Context()
	product, channels, err := h.load(ctx, c.Param("slug"))
	if err != nil {
		return err
	}

	cart := checkout.NewCart(*product, channels)
	_ = selectPrepaid(cart, c.QueryParam("item"), c.QueryParam("channel"))
	return c.JSON(http.StatusOK, newQuoteResponse(cart.Quote()))
}

// Checkout submits a prepaid purchase and redirects to its status page
func (h *StorefrontHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	product, channels, err := h.load(ctx, c.Param("slug"))
	if err != nil {
		return err
	}
	if product.IsPostpaid() {
		return echo.NewHTTPError(http.StatusBadRequest, "This product is paid through a bill check.")
	}

	cart := checkout.NewCart(*product, channels)
	values := make(map[string]string, len(product.InputFields))
	for _, field := range product.InputFields {
		v := c.FormValue(pages.FieldFormName(field.Name))
		values[field.Name] = v
		cart.SetField(field.Name, v)
	}
	cart.SetEmail(c.FormValue("email"))

	if err := selectPrepaid(cart, c.FormValue("item_id"), c.FormValue("payment_method")); err != nil {
		return h.renderPrepaid(c, 0, product, channels, cart, values, err)
	}

	tx, err := cart.Submit(ctx, h.transactions)
	if err != nil {
		log.Printf("Checkout of %s failed: %v", product.Slug, err)
		return h.renderPrepaid(c, 0, product, channels, cart, values, err)
	}

	req := cart.Request()
	h.track(ctx, *tx, services.TrackMeta{
		ProductSlug:   product.Slug,
		ProductItemID: req.ProductItemID,
		PaymentMethod: req.PaymentMethod,
		CustomerEmail: req.CustomerEmail,
		CustomerNo:    firstValue(values, "customer_no", "user_id", "phone", "phone_number"),
		CustomerPhone: firstValue(values, "phone", "phone_number", "whatsapp"),
	})

	return c.Redirect(http.StatusSeeOther, "/transactions/"+url.PathEscape(tx.TransactionCode))
}

// PostpaidInquiry checks the bill for the posted customer number
func (h *StorefrontHandler) PostpaidInquiry(c echo.Context) error {
	ctx := c.Request().Context()
	product, channels, err := h.load(ctx, c.Param("slug"))
	if err != nil {
		return err
	}
	if !product.IsPostpaid() {
		return echo.NewHTTPError(http.StatusBadRequest, "This product has no bill to check.")
	}

	cart := checkout.NewPostpaidCart(*product, channels)
	itemID, channel := c.FormValue("item_id"), c.FormValue("payment_method")
	cart.SetCustomerNo(c.FormValue("customer_no"))
	cart.SetEmail(c.FormValue("email"))
	if err := selectPostpaid(cart, itemID, channel); err != nil {
		return h.renderPostpaid(c, 0, product, channels, cart, itemID, channel, err)
	}

	if _, err := cart.Inquire(ctx, h.bills); err != nil {
		log.Printf("Inquiry for %s failed: %v", product.Slug, err)
		return h.renderPostpaid(c, 0, product, channels, cart, itemID, channel, err)
	}
	return h.renderPostpaid(c, http.StatusOK, product, channels, cart, itemID, channel, nil)
}

// PostpaidPay pays a bill checked earlier in the same form session
func (h *StorefrontHandler) PostpaidPay(c echo.Context) error {
	ctx := c.Request().Context()
	product, channels, err := h.load(ctx, c.Param("slug"))
	if err != nil {
		return err
	}
	if !product.IsPostpaid() {
		return echo.NewHTTPError(http.StatusBadRequest, "This product has no bill to pay.")
	}

	cart := checkout.NewPostpaidCart(*product, channels)
	itemID, channel := c.FormValue("item_id"), c.FormValue("payment_method")
	if err := selectPostpaid(cart, itemID, ""); err != nil {
		return h.renderPostpaid(c, 0, product, channels, cart, itemID, channel, err)
	}
	cart.Restore(inquiryFromForm(c))
	cart.SetPayKey(c.FormValue("pay_key"))
	cart.SetEmail(c.FormValue("email"))
	if channel != "" {
		if err := cart.SelectChannel(channel); err != nil {
			return h.renderPostpaid(c, 0, product, channels, cart, itemID, channel, err)
		}
	}

	tx, err := cart.Pay(ctx, h.bills)
	if err != nil {
		log.Printf("Bill payment for %s failed: %v", product.Slug, err)
		return h.renderPostpaid(c, 0, product, channels, cart, itemID, channel, err)
	}

	// A bare success envelope carries no transaction to follow
	if tx.TransactionCode == "" {
		props := h.postpaidProps(c, product, channels, cart, itemID, channel)
		props.Paid = true
		props.Notice = "Bill paid. The receipt is sent to " + props.Email + "."
		return renderPage(c, http.StatusOK, pages.PostpaidDetail(props))
	}

	inquiry := cart.Inquiry()
	h.track(ctx, *tx, services.TrackMeta{
		ProductSlug:   product.Slug,
		ProductItemID: parseUint(itemID),
		PaymentMethod: channel,
		CustomerEmail: strings.TrimSpace(c.FormValue("email")),
		CustomerNo:    inquiry.CustomerNo,
	})

	return c.Redirect(http.StatusSeeOther, "/transactions/"+url.PathEscape(tx.TransactionCode))
}

func (h *StorefrontHandler) load(ctx context.Context, slug string) (*models.Product, []models.PaymentChannel, error) {
	if slug == "" {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid product")
	}
	product, err := h.products.GetProduct(ctx, slug)
	if err != nil {
		return nil, nil, notFound(err, "Product not found")
	}
	if !product.IsActive {
		return nil, nil, echo.NewHTTPError(http.StatusNotFound, "Product not found")
	}
	channels, err := h.channels.Active(ctx)
	if err != nil {
		return nil, nil, err
	}
	return product, channels, nil
}

func (h *StorefrontHandler) track(ctx context.Context, tx models.Transaction, meta services.TrackMeta) {
	if h.watch == nil {
		return
	}
	if err := h.watch.Track(context.WithoutCancel(ctx), tx, meta); err != nil {
		log.Printf("Failed to track transaction %s: %v", tx.TransactionCode, err)
	}
}

// renderPrepaid renders the product page. A zero code derives the status
// from err.
func (h *StorefrontHandler) renderPrepaid(c echo.Context, code int, product *models.Product, channels []models.PaymentChannel, cart *checkout.Cart, values map[string]string, err error) error {
	props := pages.ServiceDetailProps{
		Layout:        layout(c, product.Name, "services", "Services", "/services", product.Name, ""),
		Product:       *product,
		ItemGroups:    product.ItemGroups(),
		ChannelGroups: models.GroupChannels(channels),
		Fields:        pages.FieldViews(product.InputFields, values),
		Email:         cart.Request().CustomerEmail,
		Quote:         cart.Quote(),
	}
	if item := cart.Item(); item != nil {
		props.SelectedItem = item.ID
	}
	if ch := cart.Channel(); ch != nil {
		props.SelectedChannel = ch.Code
	}
	if err != nil {
		var status int
		status, props.Error, props.FieldErrors = userMessage(err)
		if code == 0 {
			code = status
		}
	}
	if code == 0 {
		code = http.StatusOK
	}

	return renderPage(c, code, pages.ServiceDetail(props))
}

func (h *StorefrontHandler) renderPostpaid(c echo.Context, code int, product *models.Product, channels []models.PaymentChannel, cart *checkout.PostpaidCart, itemID, channel string, err error) error {
	props := h.postpaidProps(c, product, channels, cart, itemID, channel)
	if err != nil {
		var status int
		status, props.Error, props.FieldErrors = userMessage(err)
		if code == 0 {
			code = status
		}
	}
	if code == 0 {
		code = http.StatusOK
	}

	return renderPage(c, code, pages.PostpaidDetail(props))
}

func (h *StorefrontHandler) postpaidProps(c echo.Context, product *models.Product, channels []models.PaymentChannel, cart *checkout.PostpaidCart, itemID, channel string) pages.PostpaidDetailProps {
	props := pages.PostpaidDetailProps{
		Layout:          layout(c, product.Name, "services", "Services", "/services", product.Name, ""),
		Product:         *product,
		Items:           product.Items,
		ChannelGroups:   models.GroupChannels(channels),
		CustomerLabel:   checkout.CustomerNoLabel(*product),
		CustomerNo:      strings.TrimSpace(c.FormValue("customer_no")),
		Inquiry:         cart.Inquiry(),
		SelectedItem:    parseUint(itemID),
		SelectedChannel: channel,
		Email:           strings.TrimSpace(c.FormValue("email")),
		Quote:           cart.Quote(),
		PayKey:          cart.PayKey(),
	}
	if props.Inquiry != nil {
		props.CustomerNo = props.Inquiry.CustomerNo
	}
	return props
}

// selectPrepaid applies a posted selection. Empty values are left unselected
// so Validate reports them.
func selectPrepaid(cart *checkout.Cart, itemID, channel string) error {
	if id := parseUint(itemID); id != 0 {
		if err := cart.SelectItem(id); err != nil {
			return err
		}
	}
	if channel != "" {
		if err := cart.SelectChannel(channel); err != nil {
			return err
		}
	}
	return nil
}

func selectPostpaid(cart *checkout.PostpaidCart, itemID, channel string) error {
	if id := parseUint(itemID); id != 0 {
		if err := cart.SelectItem(id); err != nil {
			return err
		}
	}
	if channel != "" {
		if err := cart.SelectChannel(channel); err != nil {
			return err
		}
	}
	return nil
}

// inquiryFromForm rebuilds the inquiry carried in the pay form's hidden
// fields. Without an inquiry_ref there is nothing to restore.
func inquiryFromForm(c echo.Context) *models.PostpaidInquiryData {
	ref := strings.TrimSpace(c.FormValue("inquiry_ref"))
	if ref == "" {
		return nil
	}
	amount := func(key string) decimal.Decimal {
		d, err := decimal.NewFromString(strings.TrimSpace(c.FormValue(key)))
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	return &models.PostpaidInquiryData{
		InquiryRef:   ref,
		CustomerNo:   strings.TrimSpace(c.FormValue("customer_no")),
		CustomerName: c.FormValue("customer_name"),
		Tagihan:      amount("tagihan"),
		Admin:        amount("admin"),
		Total:        amount("total"),
	}
}

func newQuoteResponse(q fee.Quote) QuoteResponse {
	return QuoteResponse{
		ItemPrice:          q.ItemPrice,
		Fee:                q.Fee,
		Total:              q.Total,
		ItemPriceFormatted: fee.FormatRupiah(q.ItemPrice),
		FeeFormatted:       fee.FormatRupiah(q.Fee),
		TotalFormatted:     fee.FormatRupiah(q.Total),
	}
}

func firstValue(values map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(values[k]); v != "" {
			return v
		}
	}
	return ""
}
