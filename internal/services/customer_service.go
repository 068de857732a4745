package services

import (
	"context"
	"strconv"

	"enstore_storefront/internal/apiclient"
	"enstore_storefront/internal/models"
)

// CustomerService reads the logged-in customer's profile and history. Calls
// are authenticated with the bearer token carried by ctx.
type CustomerService struct {
	api *apiclient.Client
}

func NewCustomerService(api *apiclient.Client) *CustomerService {
	return &CustomerService{api: api}
}

func (s *CustomerService) Profile(ctx context.Context) (*models.Customer, error) {
	var c models.Customer
	if err := s.api.Get(ctx, "/customer/profile", nil, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Transactions returns one page of the purchase history.
func (s *CustomerService) Transactions(ctx context.Context, page int) (*models.CustomerTransactionPage, error) {
	if page < 1 {
		page = 1
	}
	var res models.CustomerTransactionPage
	if err := s.api.Get(ctx, "/customer/transactions", apiclient.Query{"page": strconv.Itoa(page)}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
