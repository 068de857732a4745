package services

import (
	"context"
	"time"

	"enstore_storefront/internal/apiclient"
	"enstore_storefront/internal/models"
)

// PaymentChannelService lists the payment channels offered at checkout.
type PaymentChannelService struct {
	api   *apiclient.Client
	cache *RedisCache
	ttl   time.Duration
}

func NewPaymentChannelService(api *apiclient.Client, cache *RedisCache, ttl time.Duration) *PaymentChannelService {
	return &PaymentChannelService{api: api, cache: cache, ttl: ttl}
}

// List returns every channel, active or not, served from cache when possible.
func (s *PaymentChannelService) List(ctx context.Context) ([]models.PaymentChannel, error) {
	return GetOrSet(s.cache, ctx, cacheKeyPaymentChannels, s.ttl, func() ([]models.PaymentChannel, error) {
		return s.Fetch(ctx)
	})
}

// Active returns only the channels that can be selected.
func (s *PaymentChannelService) Active(ctx context.Context) ([]models.PaymentChannel, error) {
	channels, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return models.ActiveChannels(channels), nil
}

// Fetch bypasses the cache.
func (s *PaymentChannelService) Fetch(ctx context.Context) ([]models.PaymentChannel, error) {
	var channels []models.PaymentChannel
	if err := s.api.Get(ctx, "/payment-channels", nil, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

// Refresh re-fetches the channels and overwrites the cache.
func (s *PaymentChannelService) Refresh(ctx context.Context) (int, error) {
	channels, err := s.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	return len(channels), s.cache.Set(ctx, cacheKeyPaymentChannels, channels, s.ttl)
}
