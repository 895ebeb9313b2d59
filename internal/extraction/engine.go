package extraction

import (
	"context"

	"github.com/shopspring/decimal"
)

// AvailabilityState says whether a generative engine can be called
type AvailabilityState int

const (
	StateUnavailable AvailabilityState = iota
	StateAvailable
)

// Availability is the result of probing a generative engine.
// An available engine may still fail when called.
type Availability struct {
	State  AvailabilityState
	Reason string
}

// Available reports an engine that can be called
func Available() Availability {
	return Availability{State: StateAvailable}
}

// Unavailable reports an engine that cannot be called, with the reason
func Unavailable(reason string) Availability {
	return Availability{State: StateUnavailable, Reason: reason}
}

// IsAvailable reports whether the engine can be called
func (a Availability) IsAvailable() bool {
	return a.State == StateAvailable
}

// EngineResult is the typed object a generative engine produces
type EngineResult struct {
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	PaymentMethod string          `json:"paymentMethod"`
}

// Engine is a best-effort natural language understanding service
type Engine interface {
	// Availability probes whether the engine can be used right now
	Availability(ctx context.Context) Availability
	// Generate runs the instructions against the prompt and returns a typed result
	Generate(ctx context.Context, instructions, prompt string) (*EngineResult, error)
}
