package services

import (
	"context"

	"github.com/ajopay/ajo-cli/internal/api"
	"github.com/ajopay/ajo-cli/internal/models"
)

// Profile covers the editable user record.
type Profile struct {
	client *api.Client
}

// Get returns the user's profile.
func (p *Profile) Get(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := getInto(ctx, p.client, "/profile", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Update applies profile changes.
func (p *Profile) Update(ctx context.Context, changes models.Profile) (*models.User, error) {
	data, err := p.client.Put(ctx, "/profile", changes)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := decode(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
