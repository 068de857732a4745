package services

import (
	"context"

	"enstore_storefront/internal/apiclient"
	"enstore_storefront/internal/models"
)

// PostpaidService runs bill inquiries and payments.
type PostpaidService struct {
	api *apiclient.Client
}

func NewPostpaidService(api *apiclient.Client) *PostpaidService {
	return &PostpaidService{api: api}
}

// Inquire looks up the bill of a customer number.
func (s *PostpaidService) Inquire(ctx context.Context, req models.InquiryRequest) (*models.PostpaidInquiryData, error) {
	var data models.PostpaidInquiryData
	if err := s.api.Post(ctx, "/postpaid/inquiry", req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Pay settles an inquired bill. The API may answer with only a success
// envelope, in which case the returned transaction has no code. The
// idempotency key is the one issued with the inquiry.
func (s *PostpaidService) Pay(ctx context.Context, req models.PostpaidPayRequest, idempotencyKey string) (*models.Transaction, error) {
	var res models.PurchaseResult
	var opts []apiclient.RequestOption
	if idempotencyKey != "" {
		opts = append(opts, apiclient.WithHeader("Idempotency-Key", idempotencyKey))
	}
	if err := s.api.Post(ctx, "/postpaid/pay", req, &res, opts...); err != nil {
		return nil, err
	}
	return &res.Transaction, nil
}
