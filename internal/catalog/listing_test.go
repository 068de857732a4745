package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"enstore_storefront/internal/apiclient"
	"enstore_storefront/internal/models"
)

type pageKey struct {
	search string
	page   string
}

type stubSource struct {
	mu      sync.Mutex
	pages   map[pageKey]*models.ProductPage
	queries []apiclient.Query
	gate    map[pageKey]chan struct{}
	err     error
}

func (s *stubSource) ListProducts(ctx context.Context, q apiclient.Query) (*models.ProductPage, error) {
	key := pageKey{search: q["search"], page: q["page"]}
	s.mu.Lock()
	s.queries = append(s.queries, q)
	gate := s.gate[key]
	page := s.pages[key]
	err := s.err
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	if page == nil {
		return &models.ProductPage{}, nil
	}
	return page, nil
}

func products(ids ...uint) []models.Product {
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Product{ID: id, Name: "product"})
	}
	return out
}

func ids(ps []models.Product) []uint {
	out := make([]uint, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func equalIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterQuery(t *testing.T) {
	q := Filter{CategorySlug: "games", Search: "mobile", ActiveOnly: true}.Query(2)
	want := map[string]string{"category.slug": "games", "search": "mobile", "is_active": "true", "page": "2", "per_page": "20"}
	for k, v := range want {
		if q[k] != v {
			t.Errorf("%s: expected %q got %q", k, v, q[k])
		}
	}

	q = Filter{PerPage: 5}.Query(1)
	if _, ok := q["search"]; ok {
		t.Error("empty search should be omitted")
	}
	if _, ok := q["is_active"]; ok {
		t.Error("is_active should be omitted when not filtering")
	}
	if q["per_page"] != "5" {
		t.Errorf("expected per_page 5 got %q", q["per_page"])
	}
}

func TestLoadMoreDeduplicates(t *testing.T) {
	src := &stubSource{pages: map[pageKey]*models.ProductPage{
		{page: "1"}: {Products: products(1, 2, 3), Pagination: models.Pagination{CurrentPage: 1, LastPage: 2}},
		{page: "2"}: {Products: products(3, 4, 5), Pagination: models.Pagination{CurrentPage: 2, LastPage: 2}},
	}}
	l := NewListing(src)

	if _, err := l.SetFilter(context.Background(), Filter{}); err != nil {
		t.Fatalf("set filter: %v", err)
	}
	got, err := l.LoadMore(context.Background())
	if err != nil {
		t.Fatalf("load more: %v", err)
	}
	if want := []uint{1, 2, 3, 4, 5}; !equalIDs(ids(got), want) {
		t.Fatalf("expected %v got %v", want, ids(got))
	}
	if l.HasMore() {
		t.Fatal("expected last page")
	}
	if _, err := l.LoadMore(context.Background()); !errors.Is(err, ErrNoMorePages) {
		t.Fatalf("expected ErrNoMorePages, got %v", err)
	}
}

func TestSetFilterReplacesList(t *testing.T) {
	src := &stubSource{pages: map[pageKey]*models.ProductPage{
		{page: "1"}:                 {Products: products(1, 2), Pagination: models.Pagination{CurrentPage: 1, LastPage: 3}},
		{search: "pln", page: "1"}: {Products: products(9), Pagination: models.Pagination{CurrentPage: 1, LastPage: 1}},
	}}
	l := NewListing(src)

	_, _ = l.SetFilter(context.Background(), Filter{})
	got, err := l.SetFilter(context.Background(), Filter{Search: "pln"})
	if err != nil {
		t.Fatalf("set filter: %v", err)
	}
	if want := []uint{9}; !equalIDs(ids(got), want) {
		t.Fatalf("expected %v got %v", want, ids(got))
	}
	if src.queries[1]["page"] != "1" {
		t.Fatalf("filter change must restart at page 1, got %q", src.queries[1]["page"])
	}
}

func TestLastFilterWins(t *testing.T) {
	slow := make(chan struct{})
	src := &stubSource{
		pages: map[pageKey]*models.ProductPage{
			{search: "old", page: "1"}: {Products: products(1), Pagination: models.Pagination{CurrentPage: 1, LastPage: 1}},
			{search: "new", page: "1"}: {Products: products(2), Pagination: models.Pagination{CurrentPage: 1, LastPage: 1}},
		},
		gate: map[pageKey]chan struct{}{{search: "old", page: "1"}: slow},
	}
	l := NewListing(src)

	oldDone := make(chan error, 1)
	go func() {
		_, err := l.SetFilter(context.Background(), Filter{Search: "old"})
		oldDone <- err
	}()

	// Wait for the old request to be issued before replacing the filter.
	for {
		src.mu.Lock()
		n := len(src.queries)
		src.mu.Unlock()
		if n == 1 {
			break
		}
	}

	if _, err := l.SetFilter(context.Background(), Filter{Search: "new"}); err != nil {
		t.Fatalf("new filter: %v", err)
	}
	close(slow)

	if err := <-oldDone; !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale for old filter, got %v", err)
	}
	if want := []uint{2}; !equalIDs(ids(l.Products()), want) {
		t.Fatalf("expected %v got %v", want, ids(l.Products()))
	}
	if l.Filter().Search != "new" {
		t.Fatalf("unexpected filter %+v", l.Filter())
	}
}

func TestLoadThrough(t *testing.T) {
	src := &stubSource{pages: map[pageKey]*models.ProductPage{
		{page: "1"}: {Products: products(1, 2), Pagination: models.Pagination{CurrentPage: 1, LastPage: 2}},
		{page: "2"}: {Products: products(2, 3), Pagination: models.Pagination{CurrentPage: 2, LastPage: 2}},
	}}
	l := NewListing(src)

	got, err := l.LoadThrough(context.Background(), Filter{}, 5)
	if err != nil {
		t.Fatalf("load through: %v", err)
	}
	if want := []uint{1, 2, 3}; !equalIDs(ids(got), want) {
		t.Fatalf("expected %v got %v", want, ids(got))
	}
	if len(src.queries) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(src.queries))
	}
}

func TestSetFilterErrorKeepsPreviousList(t *testing.T) {
	src := &stubSource{pages: map[pageKey]*models.ProductPage{
		{page: "1"}: {Products: products(1), Pagination: models.Pagination{CurrentPage: 1, LastPage: 1}},
	}}
	l := NewListing(src)
	_, _ = l.SetFilter(context.Background(), Filter{})

	src.err = &apiclient.NetworkError{Err: errors.New("timeout")}
	if _, err := l.SetFilter(context.Background(), Filter{Search: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if want := []uint{1}; !equalIDs(ids(l.Products()), want) {
		t.Fatalf("expected %v got %v", want, ids(l.Products()))
	}
	if l.Loading() {
		t.Fatal("loading flag not cleared")
	}
}
