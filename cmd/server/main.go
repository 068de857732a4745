package main

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"enstore_storefront/internal/apiclient"
	"enstore_storefront/internal/config"
	"enstore_storefront/internal/handlers"
	appMiddleware "enstore_storefront/internal/middleware"
	"enstore_storefront/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	ctx := context.Background()

	// Initialize Firebase
	authClient, err := services.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
	}
	if authClient == nil {
		log.Println("Ops sign-in disabled until valid Firebase credentials are provided")
	}

	// Initialize Database
	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = services.InitDB(cfg.DBDriver, cfg.DatabaseURL, !cfg.IsProduction())
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := services.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run database migrations: %v", err)
		}
	} else {
		log.Println("Warning: DATABASE_URL not set, transaction tracking disabled")
	}

	var cache *services.RedisCache
	if cfg.RedisURL != "" {
		cache, err = services.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Printf("Warning: Redis unavailable, caching disabled: %v", err)
			cache = nil
		}
	}

	events, err := services.NewEventPublisher(cfg.NatsURL)
	if err != nil {
		log.Printf("Warning: NATS unavailable, status events disabled: %v", err)
		events = nil
	}
	defer events.Close()

	// Browser requests carry the customer's own bearer token
	api := apiclient.New(cfg.APIBaseURL, cfg.APITimeout, apiclient.ContextToken{})

	products := services.NewProductService(api, cache, cfg.CacheTTL)
	categories := services.NewCategoryService(api, cache, cfg.CacheTTL)
	channels := services.NewPaymentChannelService(api, cache, cfg.CacheTTL)
	transactions := services.NewTransactionService(api)
	postpaid := services.NewPostpaidService(api)
	customers := services.NewCustomerService(api)

	// Interfaces stay nil, not typed-nil, when the backing store is missing
	var (
		watcher   handlers.Watcher
		browser   handlers.WatchBrowser
		exchanger handlers.TokenExchanger
		verifier  appMiddleware.SessionVerifier
	)
	checks := map[string]handlers.Pinger{}
	if db != nil {
		watch := services.NewWatchService(db, events)
		watcher = watch
		browser = watch
		checks["database"] = services.DBPinger{DB: db}
	}
	if cache != nil {
		checks["redis"] = cache
	}
	if authClient != nil {
		exchanger = authClient
		verifier = authClient
	}

	storefrontHandler := handlers.NewStorefrontHandler(products, categories, channels, transactions, postpaid, watcher)
	transactionHandler := handlers.NewTransactionHandler(transactions, watcher, cfg.StatusPollInterval)
	accountHandler := handlers.NewAccountHandler(customers, cfg.IsProduction())
	authHandler := handlers.NewAuthHandler(exchanger, handlers.LoginConfig{
		APIKey:     cfg.FirebaseAPIKey,
		AuthDomain: cfg.FirebaseAuthDomain,
		ProjectID:  cfg.FirebaseProjectID,
		Secure:     cfg.IsProduction(),
	})
	opsHandler := handlers.NewOpsHandler(browser)
	healthHandler := handlers.NewHealthHandler(checks)

	// Create Echo instance
	e := echo.New()
	e.HTTPErrorHandler = appMiddleware.CustomErrorHandler

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(appMiddleware.CustomerSession())

	// Static file serving
	e.Static("/static", "web/static")

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusTemporaryRedirect, "/services")
	})
	e.GET("/healthz", healthHandler.Health)

	// Storefront
	e.GET("/services", storefrontHandler.ListServices)
	e.GET("/services/:slug", storefrontHandler.ShowService)
	e.GET("/services/:slug/quote", storefrontHandler.Quote)
	e.POST("/services/:slug/checkout", storefrontHandler.Checkout)
	e.POST("/services/:slug/inquiry", storefrontHandler.PostpaidInquiry)
	e.POST("/services/:slug/pay", storefrontHandler.PostpaidPay)

	// Transaction status
	e.GET("/transactions/:code", transactionHandler.ShowStatus)
	e.GET("/transactions/:code/status", transactionHandler.CheckStatus)
	e.GET("/transactions/:code/events", transactionHandler.Events)
	e.POST("/transactions/:code/cancel", transactionHandler.Cancel)

	// Customer account
	e.POST("/account/session", accountHandler.StoreSession)
	e.POST("/account/logout", accountHandler.Logout)
	account := e.Group("/account")
	account.Use(appMiddleware.RequireCustomer())
	account.GET("/transactions", accountHandler.History)

	// Operators
	e.GET("/ops/login", authHandler.LoginPage)
	e.POST("/ops/auth/login", authHandler.HandleLogin)
	e.POST("/ops/auth/logout", authHandler.HandleLogout)

	ops := e.Group("/ops")
	ops.Use(appMiddleware.RequireAuth(verifier))
	ops.GET("/transactions", opsHandler.ListTransactions)
	ops.GET("/transactions/:code", opsHandler.ShowTransaction)

	log.Printf("Server starting on port %s", cfg.Port)
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
