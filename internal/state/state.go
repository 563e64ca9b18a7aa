package state

import (
	"fmt"
	"strings"
)

// State is the pending meaning of the next product scan.
type State int

// The six transaction states. The numeric values are persisted and must not change.
const (
	Consume State = iota
	ConsumeSpoiled
	Purchase
	Open
	GetStock
	AddToShoppingList
)

var stateNames = map[State]string{
	Consume:           "consume",
	ConsumeSpoiled:    "consume_spoiled",
	Purchase:          "purchase",
	Open:              "open",
	GetStock:          "get_stock",
	AddToShoppingList: "add_to_shopping_list",
}

// String returns the state's wire name.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Valid reports whether s is one of the six states.
func (s State) Valid() bool {
	_, ok := stateNames[s]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid state %d", int(s))
	}
	return []byte(s.String()), nil
}

// All returns the states in numeric order.
func All() []State {
	return []State{Consume, ConsumeSpoiled, Purchase, Open, GetStock, AddToShoppingList}
}

// Parse resolves a wire name (case-insensitive, "-" or "_") to a State.
func Parse(name string) (State, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for s, n := range stateNames {
		if n == normalized {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown state %q", name)
}
