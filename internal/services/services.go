// Package services provides typed domain wrappers over the API client, one
// per backend area. Each service owns its endpoint paths; callers never
// hand-build URLs.
package services

import (
	"context"
	"encoding/json"

	"github.com/ajopay/ajo-cli/internal/api"
)

// Services bundles every domain service over one client.
type Services struct {
	Auth          *Auth
	Groups        *Groups
	Payments      *Payments
	Banking       *Banking
	Notifications *Notifications
	Profile       *Profile
}

// New creates the service bundle.
func New(client *api.Client) *Services {
	return &Services{
		Auth:          &Auth{client: client},
		Groups:        &Groups{client: client},
		Payments:      &Payments{client: client},
		Banking:       &Banking{client: client},
		Notifications: &Notifications{client: client},
		Profile:       &Profile{client: client},
	}
}

// decode unmarshals a raw API payload into out.
func decode(data json.RawMessage, out any) error {
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// getInto fetches endpoint and decodes the payload into out.
func getInto(ctx context.Context, client *api.Client, endpoint string, out any, opts ...api.GetOption) error {
	data, err := client.Get(ctx, endpoint, opts...)
	if err != nil {
		return err
	}
	return decode(data, out)
}
