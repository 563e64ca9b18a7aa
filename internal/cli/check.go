package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/barcodebuddy/internal/catalog"
)

// CheckResult is the output of check.
type CheckResult struct {
	URL     string `json:"url"`
	Version string `json:"version"`
}

// connectionChecker is implemented by *grocy.Client.
type connectionChecker interface {
	CheckConnection(ctx context.Context) (string, error)
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the Grocy connection",
		Long: `Verify that Grocy is reachable with the stored credentials and runs
version ` + catalog.MinVersion + ` or newer.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, cmd)
		},
	}
}

func runCheck(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	url, _, err := a.settings.GrocyCredentials(ctx)
	if err != nil {
		return a.failStore("failed to read credentials", err)
	}

	version, err := checkConnection(ctx, a.catalog)
	if err != nil {
		return a.failRemote("Grocy check failed", err)
	}

	result := CheckResult{URL: url, Version: version}
	if a.out.IsJSON() {
		return a.out.Success(result)
	}
	return a.out.Success(fmt.Sprintf("✓ Grocy %s at %s", version, url))
}

func checkConnection(ctx context.Context, c catalog.Client) (string, error) {
	if checker, ok := c.(connectionChecker); ok {
		return checker.CheckConnection(ctx)
	}
	version, err := c.SystemVersion(ctx)
	if err != nil {
		return "", err
	}
	if !catalog.IsSupportedVersion(version) {
		return version, catalog.NewError(catalog.ErrCodeUnsupportedVersion, "check connection",
			fmt.Sprintf("Grocy %s or newer required, running %s", catalog.MinVersion, version), nil)
	}
	return version, nil
}
