package handlers

import (
	"context"

	"enstore_storefront/internal/apiclient"
	"enstore_storefront/internal/models"
	"enstore_storefront/internal/services"
)

// ProductCatalog reads products from the API
type ProductCatalog interface {
	ListProducts(ctx context.Context, query apiclient.Query) (*models.ProductPage, error)
	GetProduct(ctx context.Context, slug string) (*models.Product, error)
}

// CategoryLister lists the navigation categories
type CategoryLister interface {
	List(ctx context.Context) ([]models.Category, error)
}

// ChannelLister lists the payment channels offered at checkout
type ChannelLister interface {
	Active(ctx context.Context) ([]models.PaymentChannel, error)
}

// TransactionAPI creates, reads and cancels transactions. It satisfies both
// checkout.Purchaser and status.Fetcher.
type TransactionAPI interface {
	Purchase(ctx context.Context, req models.PurchaseRequest, idempotencyKey string) (*models.Transaction, error)
	Status(ctx context.Context, code string) (*models.Transaction, error)
	Cancel(ctx context.Context, code string) error
}

// Watcher mirrors submitted transactions locally
type Watcher interface {
	Track(ctx context.Context, tx models.Transaction, meta services.TrackMeta) error
	Observe(ctx context.Context, tx models.Transaction, source models.StatusSource) (bool, error)
}

// WatchBrowser backs the operator pages
type WatchBrowser interface {
	List(ctx context.Context, f services.WatchFilter) ([]models.WatchedTransaction, int64, error)
	Get(ctx context.Context, code string) (*models.WatchedTransaction, error)
}

// CustomerAPI reads the signed-in customer's data
type CustomerAPI interface {
	Profile(ctx context.Context) (*models.Customer, error)
	Transactions(ctx context.Context, page int) (*models.CustomerTransactionPage, error)
}
