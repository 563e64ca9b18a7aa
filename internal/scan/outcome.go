package scan

// Kind classifies what a scan did.
type Kind string

const (
	// KindChoreExecuted means the barcode triggered a chore.
	KindChoreExecuted Kind = "chore_executed"

	// KindStateChanged means the barcode selected a new transaction state.
	KindStateChanged Kind = "state_changed"

	// KindQuantitySet means the barcode set the multiplier for the next scan.
	KindQuantitySet Kind = "quantity_set"

	// KindUnresolved means the catalog did not know the barcode and it was
	// recorded in the local cache.
	KindUnresolved Kind = "unresolved"

	// KindActionApplied means the current action was applied to a product.
	KindActionApplied Kind = "action_applied"

	// KindFailed means the scan could not be completed. Error and ErrorCode
	// say why.
	KindFailed Kind = "failed"
)

// Outcome is the single decided result of one scan.
type Outcome struct {
	ID      string `json:"id" yaml:"id"`
	Barcode string `json:"barcode" yaml:"barcode"`
	Kind    Kind   `json:"kind" yaml:"kind"`

	// Action is the transaction state the scan was interpreted under.
	Action string `json:"action,omitempty" yaml:"action,omitempty"`

	// State is the state selected by a mode barcode.
	State string `json:"state,omitempty" yaml:"state,omitempty"`

	ChoreID int64 `json:"chore_id,omitempty" yaml:"chore_id,omitempty"`

	// Multiplier is the stored multiplier for KindQuantitySet and the
	// multiplier applied for KindActionApplied.
	Multiplier int64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`

	ProductID   int64  `json:"product_id,omitempty" yaml:"product_id,omitempty"`
	ProductName string `json:"product_name,omitempty" yaml:"product_name,omitempty"`
	Amount      int64  `json:"amount,omitempty" yaml:"amount,omitempty"`
	StockAmount string `json:"stock_amount,omitempty" yaml:"stock_amount,omitempty"`
	Unit        string `json:"unit,omitempty" yaml:"unit,omitempty"`

	BestBeforeDate string `json:"best_before_date,omitempty" yaml:"best_before_date,omitempty"`

	// DescriptiveName is the label found for an unresolved barcode.
	DescriptiveName string `json:"descriptive_name,omitempty" yaml:"descriptive_name,omitempty"`

	// SuggestedProductID is the tag match for an unresolved barcode.
	SuggestedProductID int64 `json:"suggested_product_id,omitempty" yaml:"suggested_product_id,omitempty"`

	// Reverted is true when the scan returned the state to Consume.
	Reverted bool `json:"reverted,omitempty" yaml:"reverted,omitempty"`

	// Warning reports a follow-up step that failed after the action succeeded.
	Warning string `json:"warning,omitempty" yaml:"warning,omitempty"`

	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty" yaml:"error_code,omitempty"`

	// Message is the line written to the scan log.
	Message string `json:"message" yaml:"message"`
}

func (o *Outcome) fail(code string, err error) {
	o.Kind = KindFailed
	o.Error = err.Error()
	o.ErrorCode = code
}
