package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dvidovic/lokator/internal/config"
	"github.com/dvidovic/lokator/internal/store"
)

// NewSnapshotCommand creates the snapshot command: write the ledger as an
// SQLite binary snapshot for downstream tooling.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:           "snapshot [ledger-file]",
		Short:         "Write an SQLite snapshot of a ledger file",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(rootOpts, cmd, args, out)
		},
	}
	cmd.Flags().StringVar(&out, "out", "data/Tracker.snapshot.db", "snapshot output path")
	return cmd
}

func runSnapshot(opts *RootOptions, cmd *cobra.Command, args []string, out string) error {
	f := newFormatter(opts, cmd)
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "load config", Err: err}
	}
	path := cfg.Local.LedgerPath
	if len(args) == 1 {
		path = args[0]
	}

	ledger, found, err := store.ReadLedgerFile(path, cfg.Sync.SeparatorRune())
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("read %s", path), Err: err}
	}
	if !found {
		return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("no ledger at %s", path)}
	}
	if err := store.WriteSnapshot(out, ledger); err != nil {
		return &ExitError{Code: ExitCommandError, Message: "write snapshot", Err: err}
	}

	if f.JSON() {
		return f.PrintJSON(map[string]any{"snapshot": out, "rows": len(ledger)})
	}
	f.Printf("Wrote %d rows to %s.\n", len(ledger), out)
	return nil
}
