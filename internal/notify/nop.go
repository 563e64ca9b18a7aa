package notify

import "github.com/roach88/barcodebuddy/internal/state"

// Nop discards every message. Used when websockets are disabled.
type Nop struct{}

// BroadcastStateChange does nothing.
func (Nop) BroadcastStateChange(state.State) error { return nil }

// Publish does nothing.
func (Nop) Publish(Message) error { return nil }
