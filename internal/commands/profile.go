package commands

import (
	"github.com/spf13/cobra"

	"github.com/ajopay/ajo-cli/internal/apierr"
	"github.com/ajopay/ajo-cli/internal/models"
)

// NewProfileCmd creates the profile command group.
func NewProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "View and edit your profile",
	}

	cmd.AddCommand(
		newProfileShowCmd(),
		newProfileUpdateCmd(),
	)

	return cmd
}

func newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			if err := requireAuth(a); err != nil {
				return err
			}
			user, err := a.Services.Profile.Get(cmd.Context())
			if err != nil {
				return err
			}
			return a.Output.OK(user, user.FirstName+" "+user.LastName)
		},
	}
}

func newProfileUpdateCmd() *cobra.Command {
	var changes models.Profile

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			if err := requireAuth(a); err != nil {
				return err
			}
			user, err := a.Services.Profile.Update(cmd.Context(), changes)
			if e := apierr.From(err); e != nil && e.IsQueued() {
				return a.Output.OK(map[string]string{"actionId": e.ActionID()},
					"You're offline. The profile change will apply when you reconnect.")
			}
			if err != nil {
				return err
			}
			return a.Output.OK(user, "Profile updated")
		},
	}

	cmd.Flags().StringVar(&changes.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&changes.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&changes.Phone, "phone", "", "Phone number")
	return cmd
}
