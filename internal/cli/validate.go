package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dvidovic/lokator/internal/config"
	"github.com/dvidovic/lokator/internal/merge"
	"github.com/dvidovic/lokator/internal/store"
)

// ValidationResult holds a ledger schema check outcome.
type ValidationResult struct {
	Valid     bool            `json:"valid"`
	Rows      int             `json:"rows"`
	Anomalies []anomalyOutput `json:"anomalies,omitempty"`
}

type anomalyOutput struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Key     string `json:"key,omitempty"`
}

// NewValidateCommand creates the validate command: check a ledger file
// against the canonical schema invariants.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [ledger-file]",
		Short: "Check a ledger file against the canonical schema",
		Long: `Check a ledger file against the canonical schema: identity key
uniqueness, parseable dates, and person identification. Exits non-zero
when anomalies are found.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, args []string, cmd *cobra.Command) error {
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

	anomalies := merge.Validate(ledger)
	result := ValidationResult{Valid: len(anomalies) == 0, Rows: len(ledger)}
	for _, a := range anomalies {
		result.Anomalies = append(result.Anomalies, anomalyOutput{
			Code:    string(a.Code),
			Message: a.Message,
			Key:     a.Key,
		})
	}

	if f.JSON() {
		if err := f.PrintJSON(result); err != nil {
			return err
		}
	} else if result.Valid {
		f.Printf("Schema OK (%d rows).\n", result.Rows)
	} else {
		f.Printf("Schema issues detected:\n")
		for _, a := range anomalies {
			f.Printf("- %s\n", a)
		}
	}
	if !result.Valid {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d anomalies", len(anomalies))}
	}
	return nil
}
