package services

import (
	"context"
	"fmt"

	"github.com/ajopay/ajo-cli/internal/api"
	"github.com/ajopay/ajo-cli/internal/models"
)

// Groups covers savings-circle browsing, membership, and contributions.
type Groups struct {
	client *api.Client
}

// CreateGroupRequest are the parameters for a new circle.
type CreateGroupRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	ContributionMinor int64  `json:"contributionAmount"`
	Currency          string `json:"currency"`
	Frequency         string `json:"frequency"`
	MaxMembers        int    `json:"maxMembers"`
}

// List returns all joinable groups.
func (g *Groups) List(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := getInto(ctx, g.client, "/groups", &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Mine returns the groups the user belongs to.
func (g *Groups) Mine(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := getInto(ctx, g.client, "/groups/my-groups", &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Get returns one group.
func (g *Groups) Get(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	if err := getInto(ctx, g.client, "/groups/"+id, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// Members returns a group's membership in payout order.
func (g *Groups) Members(ctx context.Context, id string) ([]models.GroupMember, error) {
	var members []models.GroupMember
	if err := getInto(ctx, g.client, fmt.Sprintf("/groups/%s/members", id), &members); err != nil {
		return nil, err
	}
	return members, nil
}

// Join requests membership in a group. While offline this queues and
// returns the QUEUED error carrying the action ID.
func (g *Groups) Join(ctx context.Context, id string) error {
	_, err := g.client.Post(ctx, fmt.Sprintf("/groups/%s/join", id), nil)
	return err
}

// Create opens a new group.
func (g *Groups) Create(ctx context.Context, req CreateGroupRequest) (*models.Group, error) {
	data, err := g.client.Post(ctx, "/groups", req)
	if err != nil {
		return nil, err
	}
	var group models.Group
	if err := decode(data, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// Contribute records a round contribution to a group.
func (g *Groups) Contribute(ctx context.Context, id string, amountMinor int64) (*models.Payment, error) {
	data, err := g.client.Post(ctx, fmt.Sprintf("/groups/%s/contribute", id), map[string]any{
		"amount": amountMinor,
	})
	if err != nil {
		return nil, err
	}
	var payment models.Payment
	if err := decode(data, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}
