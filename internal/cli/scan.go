package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/barcodebuddy/internal/scan"
)

// ScanResult holds the outcomes of one scan command.
type ScanResult struct {
	Outcomes []scan.Outcome `json:"outcomes"`
	Failed   int            `json:"failed"`
}

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <barcode>...",
		Short: "Process barcode scans",
		Long: `Process one or more barcode scans, in order, exactly as a scanner would.

Each barcode is checked against chore barcodes, mode barcodes and quantity
barcodes before the current mode is applied to the product Grocy resolves
it to. Unknown barcodes are stored locally.

Examples:
  bbuddy scan 4006381333931
  bbuddy scan BBUDDY-P BBUDDY-Q-6 4006381333931
  bbuddy scan 4006381333931 --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runScan(opts *RootOptions, barcodes []string, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	proc := a.processor(nil)
	result := ScanResult{Outcomes: make([]scan.Outcome, 0, len(barcodes))}
	for _, barcode := range barcodes {
		out, err := proc.ProcessScan(cmd.Context(), barcode)
		if err != nil {
			result.Failed++
			a.out.VerboseLog("scan %s failed: %v", barcode, err)
		}
		result.Outcomes = append(result.Outcomes, out)
	}

	if a.out.IsJSON() {
		return outputScanJSON(cmd, result)
	}
	return outputScanText(cmd, result)
}

func outputScanJSON(cmd *cobra.Command, result ScanResult) error {
	response := CLIResponse{Status: StatusOK, Data: result}
	if result.Failed > 0 {
		response.Status = StatusError
		response.Error = &CLIError{
			Code:    firstErrorCode(result.Outcomes),
			Message: fmt.Sprintf("%d scan(s) failed", result.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scan(s) failed", result.Failed))
	}
	return nil
}

func outputScanText(cmd *cobra.Command, result ScanResult) error {
	w := cmd.OutOrStdout()
	for _, out := range result.Outcomes {
		mark := "✓"
		if out.Kind == scan.KindFailed {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s\n", mark, out.Message)
		if out.Warning != "" {
			fmt.Fprintf(w, "  warning: %s\n", out.Warning)
		}
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scan(s) failed", result.Failed))
	}
	return nil
}

func firstErrorCode(outcomes []scan.Outcome) string {
	for _, out := range outcomes {
		if out.ErrorCode != "" {
			return out.ErrorCode
		}
	}
	return ErrCodeRemote
}
