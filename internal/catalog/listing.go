// Package catalog keeps the loaded product list behind filters and
// incremental pagination.
package catalog

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"enstore_storefront/internal/apiclient"
	"enstore_storefront/internal/models"
)

// DefaultPerPage is the page size requested from the API.
const DefaultPerPage = 20

// ErrStale is returned when a response belongs to a filter that has since
// been replaced.
var ErrStale = errors.New("catalog: response superseded by a newer filter")

// ErrNoMorePages is returned by LoadMore on the last page.
var ErrNoMorePages = errors.New("catalog: no more pages")

// Filter narrows the product list.
type Filter struct {
	CategorySlug string
	Search       string
	ActiveOnly   bool
	PerPage      int
}

// Query renders the filter as GET /products parameters for page.
func (f Filter) Query(page int) apiclient.Query {
	perPage := f.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	q := apiclient.Query{}
	q.Set("category.slug", f.CategorySlug)
	q.Set("search", f.Search)
	if f.ActiveOnly {
		q.Set("is_active", "true")
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	return q
}

// Source fetches one page of products.
type Source interface {
	ListProducts(ctx context.Context, query apiclient.Query) (*models.ProductPage, error)
}

// Listing is the product list shown to the user. A filter change resets it to
// page 1; LoadMore appends the next page without duplicating ids.
type Listing struct {
	source Source

	mu         sync.Mutex
	filter     Filter
	generation uint64
	products   []models.Product
	seen       map[uint]struct{}
	pagination models.Pagination
	loading    bool
}

func NewListing(source Source) *Listing {
	return &Listing{source: source, seen: make(map[uint]struct{})}
}

// SetFilter replaces the filter and loads page 1. Only the latest filter's
// response is applied; older ones return ErrStale.
func (l *Listing) SetFilter(ctx context.Context, f Filter) ([]models.Product, error) {
	l.mu.Lock()
	l.generation++
	gen := l.generation
	l.filter = f
	l.loading = true
	l.mu.Unlock()

	page, err := l.source.ListProducts(ctx, f.Query(1))

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		return nil, ErrStale
	}
	l.loading = false
	if err != nil {
		return nil, err
	}

	l.products = l.products[:0]
	l.seen = make(map[uint]struct{}, len(page.Products))
	l.appendLocked(page.Products)
	l.pagination = page.Pagination
	return l.productsLocked(), nil
}

// LoadMore fetches the next page for the current filter and appends the
// products not already listed.
func (l *Listing) LoadMore(ctx context.Context) ([]models.Product, error) {
	l.mu.Lock()
	if !l.pagination.HasMore() {
		l.mu.Unlock()
		return nil, ErrNoMorePages
	}
	gen := l.generation
	f := l.filter
	next := l.pagination.CurrentPage + 1
	l.loading = true
	l.mu.Unlock()

	page, err := l.source.ListProducts(ctx, f.Query(next))

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		return nil, ErrStale
	}
	l.loading = false
	if err != nil {
		return nil, err
	}

	l.appendLocked(page.Products)
	l.pagination = page.Pagination
	return l.productsLocked(), nil
}

// LoadThrough applies f and keeps loading until page pages is reached or the
// list runs out. Used by server-rendered "load more" links that carry the page
// number instead of client state.
func (l *Listing) LoadThrough(ctx context.Context, f Filter, pages int) ([]models.Product, error) {
	products, err := l.SetFilter(ctx, f)
	if err != nil {
		return nil, err
	}
	for l.Pagination().CurrentPage < pages {
		more, err := l.LoadMore(ctx)
		if errors.Is(err, ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, err
		}
		products = more
	}
	return products, nil
}

// Products returns a copy of the loaded list.
func (l *Listing) Products() []models.Product {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.productsLocked()
}

func (l *Listing) Pagination() models.Pagination {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pagination
}

func (l *Listing) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pagination.HasMore()
}

func (l *Listing) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

func (l *Listing) Filter() Filter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter
}

func (l *Listing) appendLocked(products []models.Product) {
	for _, p := range products {
		if _, dup := l.seen[p.ID]; dup {
			continue
		}
		l.seen[p.ID] = struct{}{}
		l.products = append(l.products, p)
	}
}

func (l *Listing) productsLocked() []models.Product {
	out := make([]models.Product, len(l.products))
	copy(out, l.products)
	return out
}

