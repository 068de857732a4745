package services

import (
	"context"
	"net/url"

	"enstore_storefront/internal/apiclient"
	"enstore_storefront/internal/models"
)

// TransactionService submits purchases and reads their status.
type TransactionService struct {
	api *apiclient.Client
}

func NewTransactionService(api *apiclient.Client) *TransactionService {
	return &TransactionService{api: api}
}

// Purchase submits a prepaid purchase. The idempotency key lets the API
// recognise a resubmitted form.
func (s *TransactionService) Purchase(ctx context.Context, req models.PurchaseRequest, idempotencyKey string) (*models.Transaction, error) {
	var res models.PurchaseResult
	var opts []apiclient.RequestOption
	if idempotencyKey != "" {
		opts = append(opts, apiclient.WithHeader("Idempotency-Key", idempotencyKey))
	}
	if err := s.api.Post(ctx, "/transactions/purchase", req, &res, opts...); err != nil {
		return nil, err
	}
	return &res.Transaction, nil
}

// Status fetches the current status of code.
func (s *TransactionService) Status(ctx context.Context, code string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.api.Get(ctx, "/transactions/"+url.PathEscape(code)+"/status", nil, &tx); err != nil {
		return nil, err
	}
	if tx.TransactionCode == "" {
		tx.TransactionCode = code
	}
	return &tx, nil
}

// Cancel asks the API to cancel code.
func (s *TransactionService) Cancel(ctx context.Context, code string) error {
	return s.api.Post(ctx, "/transactions/"+url.PathEscape(code)+"/cancel", struct{}{}, nil)
}
