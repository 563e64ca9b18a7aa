package cli

import (
	"fmt"

	"github.com/maloquacious/semver"
	"github.com/spf13/cobra"

	"github.com/roach88/barcodebuddy/internal/catalog"
)

var version = semver.Version{Minor: 1, Build: semver.Commit()}

// VersionInfo is the output of version.
type VersionInfo struct {
	Version  string `json:"version"`
	MinGrocy string `json:"min_grocy"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print the bbuddy version",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, rootOpts)
			info := VersionInfo{Version: version.String(), MinGrocy: catalog.MinVersion}
			if formatter.IsJSON() {
				return formatter.Success(info)
			}
			fmt.Fprintf(formatter.Writer, "bbuddy %s (Grocy %s or newer)\n", info.Version, info.MinGrocy)
			return nil
		},
	}
}
