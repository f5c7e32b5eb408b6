package commands

import (
	"github.com/spf13/cobra"

	"github.com/ajopay/ajo-cli/internal/apierr"
)

// NewNotificationsCmd creates the notifications command group.
func NewNotificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Read your notification inbox",
	}

	cmd.AddCommand(
		newNotificationsListCmd(),
		newNotificationsReadCmd(),
	)

	return cmd
}

func newNotificationsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			if err := requireAuth(a); err != nil {
				return err
			}
			notifications, err := a.Services.Notifications.List(cmd.Context())
			if err != nil {
				return err
			}
			return a.Output.OK(notifications, summarize(len(notifications), "notification"))
		},
	}
}

func newNotificationsReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <notification-id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			if err := requireAuth(a); err != nil {
				return err
			}
			err := a.Services.Notifications.MarkRead(cmd.Context(), args[0])
			if e := apierr.From(err); e != nil && e.IsQueued() {
				return a.Output.OK(map[string]string{"actionId": e.ActionID()},
					"You're offline. The notification will be marked when you reconnect.")
			}
			if err != nil {
				return err
			}
			return a.Output.OK(nil, "Marked "+args[0]+" as read")
		},
	}
}
