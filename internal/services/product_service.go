package services

import (
	"context"
	"net/url"
	"time"

	"enstore_storefront/internal/apiclient"
	"enstore_storefront/internal/models"
)

// ProductService reads the product catalogue. Product detail is cached for
// ttl because it rarely changes and every checkout page needs it.
type ProductService struct {
	api   *apiclient.Client
	cache *RedisCache
	ttl   time.Duration
}

func NewProductService(api *apiclient.Client, cache *RedisCache, ttl time.Duration) *ProductService {
	return &ProductService{api: api, cache: cache, ttl: ttl}
}

// ListProducts fetches one page of GET /products.
func (s *ProductService) ListProducts(ctx context.Context, query apiclient.Query) (*models.ProductPage, error) {
	var page models.ProductPage
	if err := s.api.Get(ctx, "/products", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetProduct fetches a product with its items and input fields.
func (s *ProductService) GetProduct(ctx context.Context, slug string) (*models.Product, error) {
	product, err := GetOrSet(s.cache, ctx, cacheKeyProductPrefix+slug, s.ttl, func() (models.Product, error) {
		var p models.Product
		err := s.api.Get(ctx, "/products/"+url.PathEscape(slug), nil, &p)
		return p, err
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Invalidate drops the cached detail of slug.
func (s *ProductService) Invalidate(ctx context.Context, slug string) error {
	return s.cache.Delete(ctx, cacheKeyProductPrefix+slug)
}

// CategoryService reads the storefront categories.
type CategoryService struct {
	api   *apiclient.Client
	cache *RedisCache
	ttl   time.Duration
}

func NewCategoryService(api *apiclient.Client, cache *RedisCache, ttl time.Duration) *CategoryService {
	return &CategoryService{api: api, cache: cache, ttl: ttl}
}

// List returns the active categories, cached.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return GetOrSet(s.cache, ctx, cacheKeyCategories, s.ttl, func() ([]models.Category, error) {
		return s.Fetch(ctx)
	})
}

// Fetch bypasses the cache.
func (s *CategoryService) Fetch(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.api.Get(ctx, "/categories", apiclient.Query{"is_active": "true"}, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Refresh re-fetches the categories and overwrites the cache.
func (s *CategoryService) Refresh(ctx context.Context) (int, error) {
	categories, err := s.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	return len(categories), s.cache.Set(ctx, cacheKeyCategories, categories, s.ttl)
}
