package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"enstore_storefront/internal/apiclient"
	"enstore_storefront/internal/config"
	"enstore_storefront/internal/services"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, app *app, args []string) error
}

var commands = []command{
	{"products", "products [-category slug] [-search text] [-pages n]", runProducts},
	{"show", "show -product slug", runShow},
	{"channels", "channels", runChannels},
	{"quote", "quote -product slug -item id [-channel code]", runQuote},
	{"buy", "buy -product slug -item id -channel code -email addr [-watch] name=value...", runBuy},
	{"watch", "watch -code TRX", runWatch},
	{"cancel", "cancel -code TRX", runCancel},
	{"inquiry", "inquiry -product slug -item id -customer no", runInquiry},
	{"pay", "pay -product slug -item id -customer no -channel code [-email addr] [-watch]", runPay},
}

// app holds the services shared by every command.
type app struct {
	cfg          config.Config
	products     *services.ProductService
	channels     *services.PaymentChannelService
	transactions *services.TransactionService
	postpaid     *services.PostpaidService
}

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// The CLI talks to the API directly; the terminal keeps no cache
	api := apiclient.New(cfg.APIBaseURL, cfg.APITimeout, apiclient.StaticToken(cfg.APIToken))
	a := &app{
		cfg:          cfg,
		products:     services.NewProductService(api, nil, cfg.CacheTTL),
		channels:     services.NewPaymentChannelService(api, nil, cfg.CacheTTL),
		transactions: services.NewTransactionService(api),
		postpaid:     services.NewPostpaidService(api),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	name := os.Args[1]
	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		if err := cmd.run(ctx, a, os.Args[2:]); err != nil {
			log.Fatalf("%s: %s", name, describeError(err))
		}
		return
	}

	fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
	usage()
	os.Exit(2)
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: storefront <command> [flags]")
	fmt.Fprintln(os.Stderr)
	for _, cmd := range commands {
		fmt.Fprintf(os.Stderr, "  %s\n", cmd.usage)
	}
}
