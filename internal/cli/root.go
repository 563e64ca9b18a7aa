// Package cli implements the bbuddy command line: the scan entry point, the
// HTTP server, and the admin commands for the local registries.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/barcodebuddy/internal/catalog"
	"github.com/roach88/barcodebuddy/internal/scan"
	"github.com/roach88/barcodebuddy/internal/state"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Config   string // bootstrap file
	Database string // overrides the bootstrap database path

	// Catalog overrides the Grocy client (for testing).
	Catalog catalog.Client

	// Lookup overrides the descriptive lookup (for testing).
	Lookup scan.DescriptiveLookup

	// Clock overrides the state machine clock (for testing).
	Clock state.Clock

	// NewID overrides the outcome id generator (for testing).
	NewID func() string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the bbuddy CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bbuddy",
		Short: "Barcode Buddy - barcode scanning for Grocy",
		Long: `Barcode Buddy turns barcode scans into Grocy stock actions.

Scans of known products consume, purchase, open or list them depending on
the current mode. Unknown barcodes are collected locally with a suggested
product so they can be assigned later.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "bootstrap config file (yaml|toml|json)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")

	// Add subcommands
	cmd.AddCommand(NewScanCommand(opts))
	cmd.AddCommand(NewStateCommand(opts))
	cmd.AddCommand(NewBarcodesCommand(opts))
	cmd.AddCommand(NewTagsCommand(opts))
	cmd.AddCommand(NewChoresCommand(opts))
	cmd.AddCommand(NewQuantityCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewLogsCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
