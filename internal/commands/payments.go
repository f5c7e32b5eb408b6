package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajopay/ajo-cli/internal/apierr"
	"github.com/ajopay/ajo-cli/internal/services"
)

// NewPaymentsCmd creates the payments command group.
func NewPaymentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "View and initiate payments",
	}

	cmd.AddCommand(
		newPaymentsListCmd(),
		newPaymentsHistoryCmd(),
		newPaymentsCreateCmd(),
	)

	return cmd
}

func newPaymentsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending and recent payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			if err := requireAuth(a); err != nil {
				return err
			}
			payments, err := a.Services.Payments.List(cmd.Context())
			if err != nil {
				return err
			}
			return a.Output.OK(payments, summarize(len(payments), "payment"))
		},
	}
}

func newPaymentsHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List settled payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			if err := requireAuth(a); err != nil {
				return err
			}
			payments, err := a.Services.Payments.History(cmd.Context())
			if err != nil {
				return err
			}
			return a.Output.OK(payments, summarize(len(payments), "payment"))
		},
	}
}

func newPaymentsCreateCmd() *cobra.Command {
	var req services.CreatePaymentRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Initiate a payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			if err := requireAuth(a); err != nil {
				return err
			}
			payment, err := a.Services.Payments.Create(cmd.Context(), req)
			if e := apierr.From(err); e != nil && e.IsQueued() {
				return a.Output.OK(map[string]string{"actionId": e.ActionID()},
					"You're offline. The payment will be sent when you reconnect.")
			}
			if err != nil {
				return err
			}
			return a.Output.OK(payment, fmt.Sprintf("Payment %s is %s", payment.ID, payment.Status))
		},
	}

	cmd.Flags().StringVar(&req.GroupID, "group", "", "Group the payment belongs to")
	cmd.Flags().Int64Var(&req.AmountMinor, "amount", 0, "Amount in minor units")
	cmd.Flags().StringVar(&req.Currency, "currency", "", "Currency code")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
