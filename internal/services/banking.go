package services

import (
	"context"

	"github.com/ajopay/ajo-cli/internal/api"
	"github.com/ajopay/ajo-cli/internal/models"
)

// Banking covers linked settlement accounts.
type Banking struct {
	client *api.Client
}

// AddAccountRequest links a new bank account.
type AddAccountRequest struct {
	BankCode      string `json:"bankCode"`
	AccountNumber string `json:"accountNumber"`
	IsDefault     bool   `json:"isDefault,omitempty"`
}

// Accounts returns the user's linked accounts.
func (b *Banking) Accounts(ctx context.Context) ([]models.BankAccount, error) {
	var accounts []models.BankAccount
	if err := getInto(ctx, b.client, "/banking/accounts", &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// AddAccount links a new account.
func (b *Banking) AddAccount(ctx context.Context, req AddAccountRequest) (*models.BankAccount, error) {
	data, err := b.client.Post(ctx, "/banking/accounts", req)
	if err != nil {
		return nil, err
	}
	var account models.BankAccount
	if err := decode(data, &account); err != nil {
		return nil, err
	}
	return &account, nil
}
