package commands

import (
	"github.com/spf13/cobra"

	"github.com/ajopay/ajo-cli/internal/services"
)

// NewAuthCmd creates the auth command group.
func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in, sign up, and manage the session",
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthRegisterCmd(),
		newAuthLogoutCmd(),
		newAuthStatusCmd(),
		newAuthMeCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)

			var err error
			if email == "" {
				if email, err = promptLine("Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptLine("Password: "); err != nil {
					return err
				}
			}

			user, err := a.Services.Auth.Login(cmd.Context(), services.LoginRequest{
				Email:    email,
				Password: password,
			})
			if err != nil {
				return err
			}
			return a.Output.OK(user, "Signed in as "+user.Email)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted if omitted)")
	return cmd
}

func newAuthRegisterCmd() *cobra.Command {
	var req services.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)

			var err error
			if req.Email == "" {
				if req.Email, err = promptLine("Email: "); err != nil {
					return err
				}
			}
			if req.Password == "" {
				if req.Password, err = promptLine("Password: "); err != nil {
					return err
				}
			}

			user, err := a.Services.Auth.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.Output.OK(user, "Account created for "+user.Email)
		},
	}

	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (prompted if omitted)")
	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and destroy stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			if err := a.Services.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			return a.Output.OK(nil, "Signed out")
		},
	}
}

func newAuthMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Fetch the signed-in user from the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			if err := requireAuth(a); err != nil {
				return err
			}
			user, err := a.Services.Auth.Me(cmd.Context())
			if err != nil {
				return err
			}
			return a.Output.OK(user, user.Email)
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)

			status := map[string]any{
				"authenticated": a.Session.Authenticated(),
				"userId":        a.Session.UserID(),
				"keyring":       a.Store.UsingKeyring(),
			}
			summary := "Not signed in"
			if a.Session.Authenticated() {
				summary = "Signed in"
			}
			return a.Output.OK(status, summary)
		},
	}
}
