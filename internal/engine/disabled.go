package engine

import (
	"context"

	"github.com/zombor/expense-tracker/internal/extraction"
)

// Disabled is an engine that is never available
type Disabled struct{}

// Availability implements extraction.Engine
func (Disabled) Availability(ctx context.Context) extraction.Availability {
	return extraction.Unavailable("generative engine disabled")
}

// Generate implements extraction.Engine
func (Disabled) Generate(ctx context.Context, instructions, prompt string) (*extraction.EngineResult, error) {
	return nil, extraction.ErrEngineUnavailable
}

// Close is a no-op
func (Disabled) Close() error {
	return nil
}
