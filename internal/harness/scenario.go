package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/barcodebuddy/internal/catalog"
	"github.com/roach88/barcodebuddy/internal/config"
	"github.com/roach88/barcodebuddy/internal/state"
)

// Scenario defines one scan scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Settings override stored settings before the flow starts.
	Settings map[string]string `yaml:"settings,omitempty"`

	// Catalog seeds the in-memory remote catalog.
	Catalog CatalogSeed `yaml:"catalog"`

	// Setup seeds the local store.
	Setup SetupSeed `yaml:"setup,omitempty"`

	// Flow is the sequence of scans.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// CatalogSeed lists the remote products and chores.
type CatalogSeed struct {
	Products []ProductSeed   `yaml:"products,omitempty"`
	Chores   []catalog.Chore `yaml:"chores,omitempty"`
}

// ProductSeed is one remote product with its stock.
type ProductSeed struct {
	ID                    int64    `yaml:"id"`
	Name                  string   `yaml:"name"`
	Barcodes              []string `yaml:"barcodes,omitempty"`
	Stock                 int64    `yaml:"stock,omitempty"`
	Unit                  string   `yaml:"unit,omitempty"`
	DefaultBestBeforeDays int      `yaml:"default_best_before_days,omitempty"`
}

// SetupSeed lists local registry rows and descriptive lookup answers.
type SetupSeed struct {
	Tags          []TagSeed          `yaml:"tags,omitempty"`
	ChoreBarcodes []ChoreBarcodeSeed `yaml:"chore_barcodes,omitempty"`
	Quantities    []QuantitySeed     `yaml:"quantities,omitempty"`

	// Lookup maps barcodes to names the descriptive lookup returns.
	Lookup map[string]string `yaml:"lookup,omitempty"`
}

// TagSeed is one tag.
type TagSeed struct {
	Word      string `yaml:"word"`
	ProductID int64  `yaml:"product_id"`
}

// ChoreBarcodeSeed binds a barcode to a chore.
type ChoreBarcodeSeed struct {
	ChoreID int64  `yaml:"chore_id"`
	Barcode string `yaml:"barcode"`
}

// QuantitySeed registers a quantity barcode.
type QuantitySeed struct {
	Barcode    string `yaml:"barcode"`
	Multiplier int64  `yaml:"multiplier"`
}

// FlowStep is one scan.
type FlowStep struct {
	// Scan is the barcode text.
	Scan string `yaml:"scan"`

	// Advance moves the clock forward before the scan (Go duration syntax).
	Advance string `yaml:"advance,omitempty"`

	// Fail makes one catalog operation fail during this step only.
	Fail *FailClause `yaml:"fail,omitempty"`

	// Expect checks the outcome. Nil skips the check.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// FailClause is an injected catalog failure.
type FailClause struct {
	Op      string `yaml:"op"`
	Code    string `yaml:"code"`
	Message string `yaml:"message,omitempty"`
}

// ExpectClause is a subset match on the outcome. Zero fields are not checked.
type ExpectClause struct {
	Kind               string `yaml:"kind"`
	Action             string `yaml:"action,omitempty"`
	State              string `yaml:"state,omitempty"`
	ChoreID            int64  `yaml:"chore_id,omitempty"`
	ProductID          int64  `yaml:"product_id,omitempty"`
	Amount             int64  `yaml:"amount,omitempty"`
	Multiplier         int64  `yaml:"multiplier,omitempty"`
	SuggestedProductID int64  `yaml:"suggested_product_id,omitempty"`
	ErrorCode          string `yaml:"error_code,omitempty"`
	Reverted           *bool  `yaml:"reverted,omitempty"`
}

// Assertion validates final state.
type Assertion struct {
	Type string `yaml:"type"`

	State         string   `yaml:"state,omitempty"`
	Barcode       string   `yaml:"barcode,omitempty"`
	Name          string   `yaml:"name,omitempty"`
	Amount        *int64   `yaml:"amount,omitempty"`
	PossibleMatch *int64   `yaml:"possible_match,omitempty"`
	Calls         []string `yaml:"calls,omitempty"`
	ProductID     int64    `yaml:"product_id,omitempty"`
	Product       string   `yaml:"product,omitempty"`
	Multiplier    int64    `yaml:"multiplier,omitempty"`
	Contains      string   `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertState           = "state"
	AssertCachedBarcode   = "cached_barcode"
	AssertCatalogCalls    = "catalog_calls"
	AssertStock           = "stock"
	AssertShoppingList    = "shopping_list"
	AssertPendingQuantity = "pending_quantity"
	AssertLastScanned     = "last_scanned"
	AssertLogContains     = "log_contains"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow must have at least one step")
	}

	for k := range s.Settings {
		if !config.IsKnownKey(k) {
			return fmt.Errorf("settings: unknown key %q", k)
		}
	}

	for i, step := range s.Flow {
		if step.Advance != "" {
			if d, err := time.ParseDuration(step.Advance); err != nil || d < 0 {
				return fmt.Errorf("flow[%d]: invalid advance %q", i, step.Advance)
			}
		}
		if step.Fail != nil && (step.Fail.Op == "" || step.Fail.Code == "") {
			return fmt.Errorf("flow[%d]: fail needs op and code", i)
		}
		if step.Expect != nil && step.Expect.Kind == "" {
			return fmt.Errorf("flow[%d]: expect.kind is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case AssertState:
		if _, err := state.Parse(a.State); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertCachedBarcode:
		if a.Barcode == "" {
			return fmt.Errorf("assertions[%d]: barcode is required for cached_barcode", index)
		}
	case AssertCatalogCalls:
		// An empty list asserts no calls.
	case AssertStock, AssertShoppingList:
		if a.ProductID == 0 || a.Amount == nil {
			return fmt.Errorf("assertions[%d]: product_id and amount are required for %s", index, a.Type)
		}
	case AssertPendingQuantity:
		if a.Multiplier < 1 {
			return fmt.Errorf("assertions[%d]: multiplier must be positive", index)
		}
	case AssertLastScanned:
		if a.Barcode == "" {
			return fmt.Errorf("assertions[%d]: barcode is required for last_scanned", index)
		}
	case AssertLogContains:
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for log_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
