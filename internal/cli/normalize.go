package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dvidovic/lokator/internal/config"
	"github.com/dvidovic/lokator/internal/merge"
	"github.com/dvidovic/lokator/internal/store"
)

// NewNormalizeCommand creates the normalize command: re-canonicalize a
// ledger file in place (stamp, dedupe last-wins, sort descending).
func NewNormalizeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize [ledger-file]",
		Short: "Rewrite a ledger file in canonical form",
		Long: `Rewrite a ledger file in canonical form: headers mapped onto the
canonical schema, records stamped with identity and bookkeeping fields,
duplicates resolved last-write-wins, rows sorted newest first.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runNormalize(opts *RootOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "load config", Err: err}
	}
	path := cfg.Local.LedgerPath
	if len(args) == 1 {
		path = args[0]
	}
	sep := cfg.Sync.SeparatorRune()

	ledger, found, err := store.ReadLedgerFile(path, sep)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("read %s", path), Err: err}
	}
	if !found {
		f.VerboseLog("no ledger at %s; nothing to normalize", path)
		if f.JSON() {
			return f.PrintJSON(map[string]any{"normalized": false, "reason": "file not found"})
		}
		f.Printf("No ledger at %s; skipping.\n", path)
		return nil
	}

	before := len(ledger)
	out := merge.Merge(nil, merge.Stamper{}.Stamp(ledger, "normalize"))
	if err := store.WriteLedgerFile(path, out, sep); err != nil {
		return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("write %s", path), Err: err}
	}

	if f.JSON() {
		return f.PrintJSON(map[string]any{"normalized": true, "rows_in": before, "rows_out": len(out)})
	}
	f.Printf("Normalized %s: %d rows in, %d rows out (desc, last-wins).\n", path, before, len(out))
	return nil
}
