package services

import (
	"context"

	"github.com/ajopay/ajo-cli/internal/api"
	"github.com/ajopay/ajo-cli/internal/models"
)

// Payments covers contribution and payout records.
type Payments struct {
	client *api.Client
}

// CreatePaymentRequest initiates a payment.
type CreatePaymentRequest struct {
	GroupID     string `json:"groupId"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency,omitempty"`
}

// List returns pending and recent payments.
func (p *Payments) List(ctx context.Context) ([]models.Payment, error) {
	var payments []models.Payment
	if err := getInto(ctx, p.client, "/payments", &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// History returns the settled payment history.
func (p *Payments) History(ctx context.Context) ([]models.Payment, error) {
	var payments []models.Payment
	if err := getInto(ctx, p.client, "/payments/history", &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// Create initiates a payment. Queued while offline like any mutation.
func (p *Payments) Create(ctx context.Context, req CreatePaymentRequest) (*models.Payment, error) {
	data, err := p.client.Post(ctx, "/payments", req)
	if err != nil {
		return nil, err
	}
	var payment models.Payment
	if err := decode(data, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}
