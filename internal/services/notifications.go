package services

import (
	"context"

	"github.com/ajopay/ajo-cli/internal/api"
	"github.com/ajopay/ajo-cli/internal/models"
)

// Notifications covers the user's inbox.
type Notifications struct {
	client *api.Client
}

// List returns the notification inbox, newest first.
func (n *Notifications) List(ctx context.Context) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := getInto(ctx, n.client, "/notifications", &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead marks one notification as read.
func (n *Notifications) MarkRead(ctx context.Context, id string) error {
	_, err := n.client.Put(ctx, "/notifications/"+id+"/read", nil)
	return err
}
