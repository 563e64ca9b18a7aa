package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/barcodebuddy/internal/config"
)

// SettingRow is one stored setting.
type SettingRow struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// secretKeys are masked in text output.
var secretKeys = []string{config.KeyGrocyAPIKey}

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and change stored settings",
		Long: `Read and change the settings stored in the database.

These are the runtime settings (mode barcodes, REVERT_TIME, Grocy
credentials). The bootstrap file given with --config only locates the
database and the remote services.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:           "list",
			Short:         "List every setting",
			Args:          cobra.NoArgs,
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigList(rootOpts, cmd)
			},
		},
		&cobra.Command{
			Use:           "get <key>",
			Short:         "Print one setting",
			Args:          cobra.ExactArgs(1),
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigGet(rootOpts, args[0], cmd)
			},
		},
		&cobra.Command{
			Use:           "set <key> <value>",
			Short:         "Change one setting",
			Args:          cobra.ExactArgs(2),
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigSet(rootOpts, args[0], args[1], cmd)
			},
		},
	)

	return cmd
}

func runConfigList(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	all, err := a.settings.All(cmd.Context())
	if err != nil {
		return a.failStore("failed to read settings", err)
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	rows := make([]SettingRow, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, SettingRow{Key: k, Value: all[k]})
	}

	if a.out.IsJSON() {
		return a.out.Success(rows)
	}
	for _, r := range rows {
		fmt.Fprintf(a.out.Writer, "%-20s %s\n", r.Key, displayValue(r.Key, r.Value))
	}
	return nil
}

func runConfigGet(opts *RootOptions, key string, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	value, err := a.settings.Get(cmd.Context(), key)
	if err != nil {
		return a.failSetting("failed to read setting", err)
	}
	if a.out.IsJSON() {
		return a.out.Success(SettingRow{Key: key, Value: value})
	}
	fmt.Fprintln(a.out.Writer, value)
	return nil
}

func runConfigSet(opts *RootOptions, key, value string, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if err := a.settings.Update(ctx, key, value); err != nil {
		return a.failSetting("failed to change setting", err)
	}
	// Read back the normalised value, bools are stored as 0/1.
	stored, err := a.settings.Get(ctx, key)
	if err != nil {
		return a.failStore("failed to read setting", err)
	}
	if a.out.IsJSON() {
		return a.out.Success(SettingRow{Key: key, Value: stored})
	}
	return a.out.Success(fmt.Sprintf("%s = %s", key, displayValue(key, stored)))
}

// failSetting reports a rejected key or value as bad input.
func (a *app) failSetting(message string, err error) error {
	if config.IsValidationError(err) {
		return a.failInput(err.Error())
	}
	return a.failStore(message, err)
}

func displayValue(key, value string) string {
	if value != "" && slices.Contains(secretKeys, key) {
		return "********"
	}
	return value
}
