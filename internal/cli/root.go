// Package cli assembles the root command and owns process exit codes.
package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajopay/ajo-cli/internal/apierr"
	"github.com/ajopay/ajo-cli/internal/appctx"
	"github.com/ajopay/ajo-cli/internal/commands"
	"github.com/ajopay/ajo-cli/internal/config"
	"github.com/ajopay/ajo-cli/internal/output"
	"github.com/ajopay/ajo-cli/internal/version"
)

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	var flags appctx.GlobalFlags

	cmd := &cobra.Command{
		Use:           "ajo",
		Short:         "Command-line interface for AjoPay savings circles",
		Long:          "ajo manages rotating-savings groups, contributions, and payouts,\nand keeps working offline by queueing mutations until connectivity returns.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}

			cfg, err := config.Load(config.FlagOverrides{
				BaseURL:  flags.BaseURL,
				CacheDir: flags.CacheDir,
				NoCache:  flags.NoCache,
			})
			if err != nil {
				return err
			}

			app := appctx.NewApp(cfg, flags)
			if err := app.Initialize(cmd.Context()); err != nil {
				return err
			}

			cmd.SetContext(appctx.WithApp(cmd.Context(), app))
			return nil
		},
	}

	cmd.Flags().SetInterspersed(true)
	cmd.PersistentFlags().SetInterspersed(true)

	cmd.PersistentFlags().BoolVarP(&flags.JSON, "json", "j", false, "Output as JSON")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Output data only, no envelope")
	cmd.PersistentFlags().StringVar(&flags.BaseURL, "base-url", "", "API base URL")
	cmd.PersistentFlags().StringVar(&flags.CacheDir, "cache-dir", "", "Cache directory")
	cmd.PersistentFlags().BoolVar(&flags.NoCache, "no-cache", false, "Bypass the response cache")
	cmd.PersistentFlags().BoolVar(&flags.Offline, "offline", false, "Act as if the network were down")
	cmd.PersistentFlags().CountVarP(&flags.Verbose, "verbose", "v", "Verbose logging (-v for info, -vv for debug)")

	return cmd
}

// Execute runs the root command and exits the process with the mapped code.
func Execute() {
	cmd := NewRootCmd()

	cmd.AddCommand(commands.NewAuthCmd())
	cmd.AddCommand(commands.NewGroupsCmd())
	cmd.AddCommand(commands.NewPaymentsCmd())
	cmd.AddCommand(commands.NewBankingCmd())
	cmd.AddCommand(commands.NewNotificationsCmd())
	cmd.AddCommand(commands.NewProfileCmd())
	cmd.AddCommand(commands.NewQueueCmd())
	cmd.AddCommand(commands.NewAPICmd())
	cmd.AddCommand(commands.NewDoctorCmd())

	executedCmd, err := cmd.ExecuteC()
	if err == nil {
		return
	}

	// Cobra's own parse and validation failures are usage errors, not API
	// errors; they never carry the normalized shape.
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(output.ExitUsage)
	}

	if app := appctx.FromContext(executedCmd.Context()); app != nil {
		_ = app.Output.Err(err)
	} else {
		_ = output.New(output.FormatJSON, os.Stdout).Err(err)
	}
	os.Exit(output.ExitCodeFor(apiErr))
}
