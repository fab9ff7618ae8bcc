package cli

import (
	"github.com/spf13/cobra"

	"github.com/marketvet-labs/marketvet/internal/branding"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` validates a plugin marketplace repository: per-plugin
manifests, the marketplace catalog, their cross-document consistency, and
the structural compliance of every skill directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}
