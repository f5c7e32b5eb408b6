package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewQueueCmd creates the queue command group for inspecting and draining
// the offline mutation queue.
func NewQueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and drain the offline queue",
	}

	cmd.AddCommand(
		newQueueStatusCmd(),
		newQueueListCmd(),
		newQueueReplayCmd(),
		newQueueClearCmd(),
		newQueueWatchCmd(),
	)

	return cmd
}

func newQueueStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pending and dropped counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			st, err := a.Queue.Status()
			if err != nil {
				return err
			}
			return a.Output.OK(st, summarize(st.Count, "pending action"))
		},
	}
}

func newQueueListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending actions in replay order",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			actions, err := a.Queue.Pending()
			if err != nil {
				return err
			}
			return a.Output.OK(actions, summarize(len(actions), "pending action"))
		},
	}
}

func newQueueReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Replay pending actions now",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			before, err := a.Queue.Status()
			if err != nil {
				return err
			}
			if err := a.Queue.Process(cmd.Context()); err != nil {
				return err
			}
			after, err := a.Queue.Status()
			if err != nil {
				return err
			}
			return a.Output.OK(after,
				fmt.Sprintf("Replayed %d of %d pending actions", before.Count-after.Count, before.Count))
		},
	}
}

func newQueueClearCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Discard all pending actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			if !force {
				return fmt.Errorf("refusing to discard pending actions without --force")
			}
			st, err := a.Queue.Status()
			if err != nil {
				return err
			}
			if err := a.Queue.Clear(); err != nil {
				return err
			}
			return a.Output.OK(nil, fmt.Sprintf("Discarded %d pending actions", st.Count))
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm discarding queued actions")
	return cmd
}

func newQueueWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the queue file and replay on change until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.Monitor.Start(ctx)
			defer a.Monitor.Stop()

			a.Logger.Info("watching offline queue", "dir", a.Config.CacheDir)
			if err := a.Queue.Watch(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return a.Output.OK(nil, "Stopped watching")
		},
	}
}
