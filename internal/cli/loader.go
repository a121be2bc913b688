package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dvidovic/lokator/internal/config"
	"github.com/dvidovic/lokator/internal/logger"
	"github.com/dvidovic/lokator/internal/remote"
	"github.com/dvidovic/lokator/internal/tracker"
)

// newFormatter builds the per-command output formatter from the global
// options.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// buildAdapter assembles the sync adapter from configuration. Without a
// configured remote the adapter runs local-only, which every command
// supports.
func buildAdapter(opts *RootOptions) (*tracker.Adapter, *config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, nil, err
	}
	mode := cfg.LogMode
	if opts.Verbose {
		mode = "dev"
	}
	log, err := logger.New(mode)
	if err != nil {
		return nil, nil, nil, err
	}

	a := &tracker.Adapter{
		RemotePath:  cfg.Remote.Path,
		Separator:   cfg.Sync.SeparatorRune(),
		CachePath:   cfg.Local.CachePath,
		PendingPath: cfg.Local.PendingPath,
		TrimCleared: cfg.Sync.TrimCleared,
		Log:         log,
	}
	if cfg.Remote.Enabled() {
		a.Remote = &remote.GitHubClient{
			Repo:           cfg.Remote.Repo,
			Branch:         cfg.Remote.Branch,
			Token:          cfg.Remote.Token,
			CommitterName:  cfg.Remote.CommitterName,
			CommitterEmail: cfg.Remote.CommitterEmail,
			MaxRetries:     cfg.Sync.MaxRetries,
		}
	}
	return a, cfg, log, nil
}
