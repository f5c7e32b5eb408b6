package commands

import (
	"github.com/spf13/cobra"

	"github.com/ajopay/ajo-cli/internal/apierr"
	"github.com/ajopay/ajo-cli/internal/services"
)

// NewBankingCmd creates the banking command group.
func NewBankingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "banking",
		Short: "Manage linked bank accounts",
	}

	cmd.AddCommand(
		newBankingAccountsCmd(),
		newBankingAddCmd(),
	)

	return cmd
}

func newBankingAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List linked bank accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			if err := requireAuth(a); err != nil {
				return err
			}
			accounts, err := a.Services.Banking.Accounts(cmd.Context())
			if err != nil {
				return err
			}
			return a.Output.OK(accounts, summarize(len(accounts), "account"))
		},
	}
}

func newBankingAddCmd() *cobra.Command {
	var req services.AddAccountRequest

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Link a new bank account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			if err := requireAuth(a); err != nil {
				return err
			}
			account, err := a.Services.Banking.AddAccount(cmd.Context(), req)
			if e := apierr.From(err); e != nil && e.IsQueued() {
				return a.Output.OK(map[string]string{"actionId": e.ActionID()},
					"You're offline. The account will be linked when you reconnect.")
			}
			if err != nil {
				return err
			}
			return a.Output.OK(account, "Linked account "+account.AccountNumber)
		},
	}

	cmd.Flags().StringVar(&req.BankCode, "bank-code", "", "Bank code")
	cmd.Flags().StringVar(&req.AccountNumber, "account-number", "", "Account number")
	cmd.Flags().BoolVar(&req.IsDefault, "default", false, "Make this the default account")
	_ = cmd.MarkFlagRequired("bank-code")
	_ = cmd.MarkFlagRequired("account-number")
	return cmd
}
