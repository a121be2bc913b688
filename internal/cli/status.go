package cli

import (
	"github.com/spf13/cobra"

	"github.com/dvidovic/lokator/internal/remote"
)

// NewStatusCommand creates the status command: sync state plus the admin
// healthcheck. The healthcheck is PIN-gated; the PIN is the system's only
// admin secret.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	var pin string
	cmd := &cobra.Command{
		Use:           "status",
		Short:         "Show sync status and run the admin healthcheck",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd, pin)
		},
	}
	cmd.Flags().StringVar(&pin, "pin", "", "admin PIN (enables the remote healthcheck)")
	return cmd
}

func runStatus(opts *RootOptions, cmd *cobra.Command, pin string) error {
	f := newFormatter(opts, cmd)
	adapter, cfg, log, err := buildAdapter(opts)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "configure sync", Err: err}
	}
	defer log.Sync()

	// A load refreshes the observable status; fatal remote errors still
	// yield the cached view, so keep going and report. Undecodable
	// remote content yields no result at all; bail with the error
	// rather than reporting rows that were never obtained.
	res, loadErr := adapter.Load(cmd.Context())
	if res == nil {
		return &ExitError{Code: ExitFailure, Message: "remote ledger unreadable", Err: loadErr}
	}
	status := adapter.Status()

	out := map[string]any{
		"origin":   status.Origin,
		"degraded": status.Degraded,
		"pending":  status.PendingCount,
		"rows":     len(res.Ledger),
		"remote":   cfg.Remote.Enabled(),
	}
	if status.Notice != "" {
		out["notice"] = status.Notice
	}
	if loadErr != nil {
		out["error"] = loadErr.Error()
	}

	admin := pin != "" && cfg.CheckPIN(pin)
	if pin != "" && !admin {
		return &ExitError{Code: ExitFailure, Message: "invalid PIN"}
	}
	if admin && cfg.Remote.Enabled() {
		if gh, ok := adapter.Remote.(*remote.GitHubClient); ok {
			if remaining, limit, err := gh.RateLimit(cmd.Context()); err == nil {
				out["rate_remaining"] = remaining
				out["rate_limit"] = limit
			}
			if scopes, err := gh.TokenScopes(cmd.Context()); err == nil {
				out["token_scopes"] = scopes
			}
		}
	}

	if f.JSON() {
		return f.PrintJSON(out)
	}
	f.Printf("Origin:   %s\n", status.Origin)
	f.Printf("Rows:     %d\n", len(res.Ledger))
	f.Printf("Pending:  %d\n", status.PendingCount)
	if status.Degraded {
		f.Printf("Degraded: yes (%s)\n", status.Notice)
	}
	if admin {
		if v, ok := out["rate_remaining"]; ok {
			f.Printf("Rate:     %v/%v\n", v, out["rate_limit"])
		}
		if v, ok := out["token_scopes"]; ok {
			f.Printf("Scopes:   %v\n", v)
		}
	}
	if loadErr != nil {
		return &ExitError{Code: ExitFailure, Message: "remote unavailable", Err: loadErr}
	}
	return nil
}
