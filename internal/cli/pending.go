package cli

import (
	"github.com/spf13/cobra"
)

// NewPendingCommand creates the pending command: replay queued batches
// that previously failed to synchronize.
func NewPendingCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Replay the pending queue against the remote store",
		Long: `Replay rows that failed to synchronize remotely through the normal
merge path. Replay is idempotent: queued rows carry their record ids, so
rows that already reached the remote store merge to a no-op.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPending(rootOpts, cmd)
		},
	}
	return cmd
}

func runPending(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	adapter, _, log, err := buildAdapter(opts)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "configure sync", Err: err}
	}
	defer log.Sync()

	n, err := adapter.SyncPending(cmd.Context())
	if err != nil {
		return &ExitError{Code: ExitFailure, Message: "pending replay failed", Err: err}
	}
	if f.JSON() {
		return f.PrintJSON(map[string]any{"replayed": n})
	}
	if n == 0 {
		f.Printf("No pending rows.\n")
	} else {
		f.Printf("Replayed %d pending rows.\n", n)
	}
	return nil
}
