package extraction

import "errors"

var (
	// ErrNoAmountFound means no positive monetary token matched the required pattern
	ErrNoAmountFound = errors.New("no amount found")

	// ErrEmptyReceiptResult means the receipt had neither line items nor a total
	ErrEmptyReceiptResult = errors.New("no line items or total found in receipt")

	// ErrEngineUnavailable is reported by engines that cannot run on this host.
	// The dispatcher treats unavailability as the trigger for deterministic parsing.
	ErrEngineUnavailable = errors.New("generative engine unavailable")

	// ErrEngineCallFailed wraps a runtime failure of an available engine
	ErrEngineCallFailed = errors.New("generative engine call failed")

	// ErrEmptyInput means there was no text to extract from
	ErrEmptyInput = errors.New("empty input text")
)
