package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajopay/ajo-cli/internal/apierr"
	"github.com/ajopay/ajo-cli/internal/services"
)

// NewGroupsCmd creates the groups command group.
func NewGroupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Browse and manage savings circles",
	}

	cmd.AddCommand(
		newGroupsListCmd(),
		newGroupsMineCmd(),
		newGroupsShowCmd(),
		newGroupsMembersCmd(),
		newGroupsJoinCmd(),
		newGroupsCreateCmd(),
		newGroupsContributeCmd(),
	)

	return cmd
}

func newGroupsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List joinable groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			if err := requireAuth(a); err != nil {
				return err
			}
			groups, err := a.Services.Groups.List(cmd.Context())
			if err != nil {
				return err
			}
			return a.Output.OK(groups, summarize(len(groups), "group"))
		},
	}
}

func newGroupsMineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List groups you belong to",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			if err := requireAuth(a); err != nil {
				return err
			}
			groups, err := a.Services.Groups.Mine(cmd.Context())
			if err != nil {
				return err
			}
			return a.Output.OK(groups, summarize(len(groups), "group"))
		},
	}
}

func newGroupsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <group-id>",
		Short: "Show one group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			if err := requireAuth(a); err != nil {
				return err
			}
			group, err := a.Services.Groups.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.Output.OK(group, group.Name)
		},
	}
}

func newGroupsMembersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "members <group-id>",
		Short: "List a group's members in payout order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			if err := requireAuth(a); err != nil {
				return err
			}
			members, err := a.Services.Groups.Members(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.Output.OK(members, summarize(len(members), "member"))
		},
	}
}

func newGroupsJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <group-id>",
		Short: "Join a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			if err := requireAuth(a); err != nil {
				return err
			}
			err := a.Services.Groups.Join(cmd.Context(), args[0])
			if e := apierr.From(err); e != nil && e.IsQueued() {
				// Deferred success: tell the user, exit zero.
				return a.Output.OK(map[string]string{"actionId": e.ActionID()},
					"You're offline. The join will complete when you reconnect.")
			}
			if err != nil {
				return err
			}
			return a.Output.OK(nil, "Joined group "+args[0])
		},
	}
}

func newGroupsCreateCmd() *cobra.Command {
	var req services.CreateGroupRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new group",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			if err := requireAuth(a); err != nil {
				return err
			}
			group, err := a.Services.Groups.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.Output.OK(group, "Created group "+group.Name)
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Group name")
	cmd.Flags().StringVar(&req.Description, "description", "", "Group description")
	cmd.Flags().Int64Var(&req.ContributionMinor, "contribution", 0, "Contribution per round in minor units")
	cmd.Flags().StringVar(&req.Currency, "currency", "NGN", "Currency code")
	cmd.Flags().StringVar(&req.Frequency, "frequency", "monthly", "Round frequency (weekly, biweekly, monthly)")
	cmd.Flags().IntVar(&req.MaxMembers, "max-members", 10, "Maximum members")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("contribution")
	return cmd
}

func newGroupsContributeCmd() *cobra.Command {
	var amount int64

	cmd := &cobra.Command{
		Use:   "contribute <group-id>",
		Short: "Contribute to the current round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			if err := requireAuth(a); err != nil {
				return err
			}
			payment, err := a.Services.Groups.Contribute(cmd.Context(), args[0], amount)
			if e := apierr.From(err); e != nil && e.IsQueued() {
				return a.Output.OK(map[string]string{"actionId": e.ActionID()},
					"You're offline. The contribution will complete when you reconnect.")
			}
			if err != nil {
				return err
			}
			return a.Output.OK(payment, fmt.Sprintf("Contribution %s is %s", payment.ID, payment.Status))
		},
	}

	cmd.Flags().Int64Var(&amount, "amount", 0, "Amount in minor units")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
