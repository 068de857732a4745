package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"enstore_storefront/internal/apiclient"
	"enstore_storefront/internal/catalog"
	"enstore_storefront/internal/checkout"
	"enstore_storefront/internal/fee"
	"enstore_storefront/internal/models"
	"enstore_storefront/internal/status"
)

func runProducts(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("products", flag.ExitOnError)
	category := fs.String("category", "", "Category slug")
	search := fs.String("search", "", "Search text")
	pages := fs.Int("pages", 1, "Number of pages to load")
	fs.Parse(args)

	listing := catalog.NewListing(a.products)
	products, err := listing.LoadThrough(ctx, catalog.Filter{
		CategorySlug: *category,
		Search:       *search,
		ActiveOnly:   true,
	}, *pages)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tNAME\tCATEGORY\tPAYMENT")
	for _, p := range products {
		cat := "-"
		if p.Category != nil {
			cat = p.Category.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Slug, p.Name, cat, p.PaymentType)
	}
	w.Flush()

	page := listing.Pagination()
	fmt.Printf("\n%d products, page %d of %d\n", len(products), page.CurrentPage, page.LastPage)
	if listing.HasMore() {
		fmt.Printf("More available: -pages %d\n", page.CurrentPage+1)
	}
	return nil
}

func runShow(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	slug := fs.String("product", "", "Product slug")
	fs.Parse(args)

	product, err := a.loadProduct(ctx, *slug)
	if err != nil {
		return err
	}
	printProduct(os.Stdout, *product)
	return nil
}

func runChannels(ctx context.Context, a *app, args []string) error {
	channels, err := a.channels.Active(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME\tGROUP\tFEE")
	for _, ch := range channels {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ch.Code, ch.Name, ch.Group, describeFee(ch.TotalFee))
	}
	return w.Flush()
}

func runQuote(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("quote", flag.ExitOnError)
	slug := fs.String("product", "", "Product slug")
	itemID := fs.Uint("item", 0, "Item id")
	channel := fs.String("channel", "", "Payment channel code")
	fs.Parse(args)

	product, channels, err := a.loadCheckout(ctx, *slug)
	if err != nil {
		return err
	}
	cart := checkout.NewCart(*product, channels)
	if err := cart.SelectItem(*itemID); err != nil {
		return err
	}
	if *channel != "" {
		if err := cart.SelectChannel(*channel); err != nil {
			return err
		}
	}
	printQuote(os.Stdout, cart.Quote())
	return nil
}

func runBuy(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("buy", flag.ExitOnError)
	slug := fs.String("product", "", "Product slug")
	itemID := fs.Uint("item", 0, "Item id")
	channel := fs.String("channel", "", "Payment channel code")
	email := fs.String("email", "", "Buyer email")
	watch := fs.Bool("watch", false, "Follow the transaction status after buying")
	fs.Parse(args)

	product, channels, err := a.loadCheckout(ctx, *slug)
	if err != nil {
		return err
	}
	if product.IsPostpaid() {
		return fmt.Errorf("%s is a bill, use inquiry and pay", product.Slug)
	}

	cart := checkout.NewCart(*product, channels)
	for _, kv := range fs.Args() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("field %q must be name=value", kv)
		}
		cart.SetField(name, value)
	}
	cart.SetEmail(*email)
	if err := cart.SelectItem(*itemID); err != nil {
		return err
	}
	if err := cart.SelectChannel(*channel); err != nil {
		return err
	}

	printQuote(os.Stdout, cart.Quote())
	tx, err := cart.Submit(ctx, a.transactions)
	if err != nil {
		return err
	}
	printTransaction(os.Stdout, *tx)

	if *watch {
		return watchTransaction(ctx, a, tx.TransactionCode)
	}
	return nil
}

func runWatch(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	code := fs.String("code", "", "Transaction code")
	fs.Parse(args)
	if *code == "" {
		return errors.New("-code is required")
	}
	return watchTransaction(ctx, a, *code)
}

func runCancel(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	code := fs.String("code", "", "Transaction code")
	fs.Parse(args)
	if *code == "" {
		return errors.New("-code is required")
	}

	tx, err := a.transactions.Status(ctx, *code)
	if err != nil {
		return err
	}
	expired := false
	if deadline, ok := tx.ExpiresAt(); ok && !time.Now().Before(deadline) {
		expired = true
	}
	if !status.Cancellable(*tx, expired) {
		return status.ErrCancelNotAllowed
	}

	if err := a.transactions.Cancel(ctx, *code); err != nil {
		return err
	}
	tx, err = a.transactions.Status(ctx, *code)
	if err != nil {
		return err
	}
	printTransaction(os.Stdout, *tx)
	return nil
}

func runInquiry(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("inquiry", flag.ExitOnError)
	slug := fs.String("product", "", "Product slug")
	itemID := fs.Uint("item", 0, "Item id")
	customer := fs.String("customer", "", "Customer number")
	fs.Parse(args)

	cart, err := a.postpaidCart(ctx, *slug, *itemID, *customer)
	if err != nil {
		return err
	}
	bill, err := cart.Inquire(ctx, a.postpaid)
	if err != nil {
		return err
	}
	printBill(os.Stdout, *bill)
	return nil
}

func runPay(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("pay", flag.ExitOnError)
	slug := fs.String("product", "", "Product slug")
	itemID := fs.Uint("item", 0, "Item id")
	customer := fs.String("customer", "", "Customer number")
	channel := fs.String("channel", "", "Payment channel code")
	email := fs.String("email", "", "Buyer email")
	watch := fs.Bool("watch", false, "Follow the transaction status after paying")
	fs.Parse(args)

	cart, err := a.postpaidCart(ctx, *slug, *itemID, *customer)
	if err != nil {
		return err
	}
	bill, err := cart.Inquire(ctx, a.postpaid)
	if err != nil {
		return err
	}
	printBill(os.Stdout, *bill)

	if err := cart.SelectChannel(*channel); err != nil {
		return err
	}
	cart.SetEmail(*email)
	printQuote(os.Stdout, cart.Quote())

	tx, err := cart.Pay(ctx, a.postpaid)
	if err != nil {
		return err
	}
	if tx.TransactionCode == "" {
		fmt.Println("Bill paid.")
		return nil
	}
	printTransaction(os.Stdout, *tx)

	if *watch {
		return watchTransaction(ctx, a, tx.TransactionCode)
	}
	return nil
}

func (a *app) loadProduct(ctx context.Context, slug string) (*models.Product, error) {
	if slug == "" {
		return nil, errors.New("-product is required")
	}
	return a.products.GetProduct(ctx, slug)
}

func (a *app) loadCheckout(ctx context.Context, slug string) (*models.Product, []models.PaymentChannel, error) {
	product, err := a.loadProduct(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	channels, err := a.channels.Active(ctx)
	if err != nil {
		return nil, nil, err
	}
	return product, channels, nil
}

func (a *app) postpaidCart(ctx context.Context, slug string, itemID uint, customer string) (*checkout.PostpaidCart, error) {
	product, channels, err := a.loadCheckout(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !product.IsPostpaid() {
		return nil, fmt.Errorf("%s is not a bill, use buy", product.Slug)
	}
	cart := checkout.NewPostpaidCart(*product, channels)
	if err := cart.SelectItem(itemID); err != nil {
		return nil, err
	}
	cart.SetCustomerNo(customer)
	return cart, nil
}

func describeError(err error) string {
	var apiErr *apiclient.ApiError
	var netErr *apiclient.NetworkError
	var valErr *checkout.ValidationError
	switch {
	case errors.As(err, &valErr):
		return valErr.Message
	case errors.As(err, &apiErr):
		msg := apiErr.Message
		if fields := apiErr.FieldErrors(); len(fields) > 0 {
			msg += "\n  " + strings.Join(fields, "\n  ")
		}
		return msg
	case errors.As(err, &netErr):
		return fmt.Sprintf("%s (%v)", apiclient.DefaultErrorMessage, netErr.Err)
	}
	return err.Error()
}

func describeFee(d models.FeeDescriptor) string {
	switch {
	case d.Percent.IsZero():
		return fee.FormatRupiah(d.Flat)
	case d.Flat.IsZero():
		return d.Percent.String() + "%"
	}
	return fmt.Sprintf("%s + %s%%", fee.FormatRupiah(d.Flat), d.Percent.String())
}

func printProduct(out io.Writer, p models.Product) {
	fmt.Fprintf(out, "%s (%s)\n", p.Name, p.Slug)
	if p.Description != "" {
		fmt.Fprintln(out, p.Description)
	}
	if len(p.InputFields) > 0 {
		fmt.Fprintln(out, "\nFields:")
		for _, f := range p.InputFields {
			req := ""
			if f.Required {
				req = " (required)"
			}
			fmt.Fprintf(out, "  %s: %s%s\n", f.Name, f.DisplayLabel(), req)
		}
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tITEM\tGROUP\tPRICE\tSTOCK")
	for _, item := range p.Items {
		stock := string(item.StockStatus)
		if !item.Selectable() {
			stock += " (unavailable)"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", item.ID, item.Name, item.Group, fee.FormatRupiah(item.Price), stock)
	}
	w.Flush()
}

func printQuote(out io.Writer, q fee.Quote) {
	fmt.Fprintf(out, "Price: %s\nFee:   %s\nTotal: %s\n\n",
		fee.FormatRupiah(q.ItemPrice), fee.FormatRupiah(q.Fee), fee.FormatRupiah(q.Total))
}

func printBill(out io.Writer, bill models.PostpaidInquiryData) {
	fmt.Fprintf(out, "Customer: %s (%s)\n", bill.CustomerName, bill.CustomerNo)
	for _, d := range bill.Details {
		fmt.Fprintf(out, "  %s  bill %s  admin %s  fine %s\n",
			d.Period, fee.FormatRupiah(d.Tagihan), fee.FormatRupiah(d.Admin), fee.FormatRupiah(d.Denda))
	}
	fmt.Fprintf(out, "Bill:  %s\nAdmin: %s\nTotal: %s\n\n",
		fee.FormatRupiah(bill.Tagihan), fee.FormatRupiah(bill.Admin), fee.FormatRupiah(bill.Total))
}

func printTransaction(out io.Writer, tx models.Transaction) {
	fmt.Fprintf(out, "Transaction %s: %s", tx.TransactionCode, tx.Status)
	if tx.PaymentStatus != "" {
		fmt.Fprintf(out, " (payment %s)", tx.PaymentStatus)
	}
	fmt.Fprintln(out)
	if tx.Pricing.Total.IsPositive() {
		fmt.Fprintf(out, "Total: %s\n", fee.FormatRupiah(tx.Pricing.Total))
	}

	p := tx.Payment
	if p.PaymentCode != "" {
		fmt.Fprintf(out, "Payment code: %s\n", p.PaymentCode)
	}
	if p.PayURL != "" {
		fmt.Fprintf(out, "Pay at: %s\n", p.PayURL)
	}
	if p.QRURL != "" {
		fmt.Fprintf(out, "QR: %s\n", p.QRURL)
	}
	if p.ExpiredAt != nil {
		fmt.Fprintf(out, "Pay before: %s\n", p.ExpiredAt.Local().Format("02 Jan 2006 15:04"))
	}
	for _, ins := range p.Instructions {
		fmt.Fprintf(out, "\n%s\n", ins.Title)
		for i, step := range ins.Steps {
			fmt.Fprintf(out, "  %d. %s\n", i+1, step)
		}
	}
	if tx.SN != "" {
		fmt.Fprintf(out, "SN: %s\n", tx.SN)
	}
	if tx.Refund != nil {
		fmt.Fprintf(out, "Refund: %s (%s)\n", fee.FormatRupiah(tx.Refund.Amount), tx.Refund.Status)
	}
}
