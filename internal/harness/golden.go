package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RenderTrace renders a trace as the text stored in golden files.
// The format is line oriented so diffs point at the step that changed.
func RenderTrace(scenarioName string, trace []TraceEvent) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", scenarioName)
	for _, ev := range trace {
		fmt.Fprintf(&b, "step %d: scan %q\n", ev.Seq, ev.Barcode)
		if ev.Advance != "" {
			fmt.Fprintf(&b, "  advanced: %s\n", ev.Advance)
		}
		fmt.Fprintf(&b, "  outcome: %s\n", outcomeLine(ev))
		fmt.Fprintf(&b, "  message: %s\n", ev.Outcome.Message)
		if len(ev.Calls) > 0 {
			fmt.Fprintf(&b, "  calls: %s\n", strings.Join(ev.Calls, ", "))
		}
		fmt.Fprintf(&b, "  state: %s\n", ev.State)
	}
	return []byte(b.String())
}

func outcomeLine(ev TraceEvent) string {
	o := ev.Outcome
	parts := []string{o.ID, string(o.Kind)}
	add := func(key string, value any) {
		parts = append(parts, fmt.Sprintf("%s=%v", key, value))
	}
	if o.Action != "" {
		add("action", o.Action)
	}
	if o.State != "" {
		add("state", o.State)
	}
	if o.ChoreID != 0 {
		add("chore", o.ChoreID)
	}
	if o.ProductID != 0 {
		add("product", o.ProductID)
	}
	if o.Amount != 0 {
		add("amount", o.Amount)
	}
	if o.Multiplier != 0 {
		add("multiplier", o.Multiplier)
	}
	if o.SuggestedProductID != 0 {
		add("suggested", o.SuggestedProductID)
	}
	if o.BestBeforeDate != "" {
		add("best_before", o.BestBeforeDate)
	}
	if o.Reverted {
		parts = append(parts, "reverted")
	}
	if o.ErrorCode != "" {
		add("error_code", o.ErrorCode)
	}
	return strings.Join(parts, " ")
}

// RunWithGolden executes a scenario and compares the trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result's trace against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, RenderTrace(scenarioName, result.Trace))
}
