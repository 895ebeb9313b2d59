package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Extractor turns text into expense candidates
type Extractor interface {
	Extract(ctx context.Context, text string, mode Mode) ([]ExtractedExpense, error)
}

// Generative extracts a single candidate through a generative engine
type Generative struct {
	engine     Engine
	categories CategorySet
	metrics    *Metrics
	timeSource TimeSource
}

// NewGenerative creates a Generative extractor
func NewGenerative(engine Engine, categories CategorySet, metrics *Metrics, timeSrc TimeSource) *Generative {
	return &Generative{
		engine:     engine,
		categories: categories,
		metrics:    metrics,
		timeSource: timeSrc,
	}
}

// Extract implements Extractor. Engine failures are returned wrapped in
// ErrEngineCallFailed; nothing else is tried.
func (g *Generative) Extract(ctx context.Context, text string, mode Mode) ([]ExtractedExpense, error) {
	result, err := g.engine.Generate(ctx, instructionsFor(mode, g.categories), promptFor(mode, text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineCallFailed, err)
	}
	if result == nil {
		return nil, fmt.Errorf("%w: no result", ErrEngineCallFailed)
	}
	if !result.Amount.IsPositive() {
		return nil, fmt.Errorf("engine returned amount %s: %w", result.Amount, ErrNoAmountFound)
	}

	candidate := ExtractedExpense{
		Amount:        result.Amount,
		Description:   result.Description,
		PaymentMethod: result.PaymentMethod,
		Date:          g.timeSource.Now(),
	}

	category, coerced := g.categories.Coerce(result.Category)
	candidate.Category = category
	if coerced {
		candidate.CoercedFrom = result.Category
		g.metrics.recordCoercion(mode)
		slog.Warn("Engine returned unknown category, using Other",
			"mode", mode.String(),
			"category", result.Category,
		)
	}

	if candidate.Description == "" {
		if mode == ModeReceipt {
			candidate.Description = receiptScanDescription
		} else {
			candidate.Description = text
		}
	}
	if candidate.PaymentMethod == "" {
		candidate.PaymentMethod = DefaultPaymentMethod
	}

	return []ExtractedExpense{candidate}, nil
}

// Dispatcher picks the generative or deterministic extractor on every call,
// depending on the engine's current availability.
type Dispatcher struct {
	engine        Engine
	categories    CategorySet
	generative    Extractor
	deterministic Extractor
	metrics       *Metrics
}

// NewDispatcher creates a Dispatcher using the system clock
func NewDispatcher(engine Engine, categories CategorySet, metrics *Metrics) *Dispatcher {
	return NewDispatcherWithDeps(engine, categories, metrics, &defaultTimeSource{})
}

// NewDispatcherWithDeps creates a Dispatcher with custom metrics and clock
func NewDispatcherWithDeps(engine Engine, categories CategorySet, metrics *Metrics, timeSrc TimeSource) *Dispatcher {
	return &Dispatcher{
		engine:        engine,
		categories:    categories,
		generative:    NewGenerative(engine, categories, metrics, timeSrc),
		deterministic: NewDeterministicWithTimeSource(categories, timeSrc),
		metrics:       metrics,
	}
}

// Categories returns the configured category set
func (d *Dispatcher) Categories() CategorySet {
	return d.categories
}

// Extract runs the pipeline for mode and returns one or more candidates
func (d *Dispatcher) Extract(ctx context.Context, text string, mode Mode) ([]ExtractedExpense, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	extractor, path := d.selectExtractor(ctx, mode)
	candidates, err := extractor.Extract(ctx, text, mode)
	d.metrics.recordExtraction(mode, path, err)
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// ExtractFromUtterance extracts the single expense described by a spoken sentence
func (d *Dispatcher) ExtractFromUtterance(ctx context.Context, text string) (ExtractedExpense, error) {
	candidates, err := d.Extract(ctx, text, ModeUtterance)
	if err != nil {
		return ExtractedExpense{}, err
	}
	return candidates[0], nil
}

// ExtractFromReceipt extracts the expenses found in receipt OCR text
func (d *Dispatcher) ExtractFromReceipt(ctx context.Context, text string) ([]ExtractedExpense, error) {
	return d.Extract(ctx, text, ModeReceipt)
}

func (d *Dispatcher) selectExtractor(ctx context.Context, mode Mode) (Extractor, string) {
	availability := d.engine.Availability(ctx)
	if availability.IsAvailable() {
		return d.generative, pathGenerative
	}
	slog.Debug("Generative engine unavailable, using deterministic parser",
		"mode", mode.String(),
		"reason", availability.Reason,
	)
	return d.deterministic, pathDeterministic
}
