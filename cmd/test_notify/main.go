package main

import (
	"context"
	"flag"
	"log"
	"time"

	"enstore_storefront/internal/apiclient"
	"enstore_storefront/internal/config"
	"enstore_storefront/internal/models"
	"enstore_storefront/internal/services"
)

// test_notify sends the receipt of one transaction to the given contacts, to
// check SMTP and WhatsApp gateway settings without waiting for the worker.
func main() {
	code := flag.String("code", "", "Transaction code (mandatory)")
	email := flag.String("email", "", "Email address to send the receipt to")
	phone := flag.String("phone", "", "WhatsApp number (e.g. 628123456789)")
	flag.Parse()

	if *code == "" {
		log.Fatal("Please provide a transaction code using -code")
	}
	if *email == "" && *phone == "" {
		log.Fatal("Please provide -email and/or -phone")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	api := apiclient.New(cfg.APIBaseURL, cfg.APITimeout, apiclient.StaticToken(cfg.APIToken))
	tx, err := services.NewTransactionService(api).Status(ctx, *code)
	if err != nil {
		log.Fatalf("Failed to load transaction: %v", err)
	}
	if tx.TransactionCode == "" {
		tx.TransactionCode = *code
	}

	notifier := services.NewReceiptNotifier(
		services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFrom),
		services.NewWahaService(cfg.WahaBaseURL, cfg.WahaAPIKey),
	)

	subject, _ := services.ReceiptMessage(*tx)
	log.Printf("Sending %q to email=%q phone=%q", subject, *email, *phone)

	target := models.WatchedTransaction{
		TransactionCode: tx.TransactionCode,
		CustomerEmail:   *email,
		CustomerPhone:   *phone,
	}
	if err := notifier.Notify(ctx, target, *tx); err != nil {
		log.Fatalf("Failed to send receipt: %v", err)
	}

	log.Println("Receipt sent successfully!")
}
