package extraction

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	pathGenerative    = "generative"
	pathDeterministic = "deterministic"
)

// Metrics counts extraction outcomes
type Metrics struct {
	extractions *prometheus.CounterVec
	coercions   *prometheus.CounterVec
}

// NewMetrics creates extraction metrics registered with reg.
// A nil registerer leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		extractions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expense_extractions_total",
				Help: "Total number of extraction requests by mode, path and outcome",
			},
			[]string{"mode", "path", "outcome"},
		),
		coercions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expense_category_coercions_total",
				Help: "Total number of engine categories outside the configured set that were replaced with Other",
			},
			[]string{"mode"},
		),
	}
}

func (m *Metrics) recordExtraction(mode Mode, path string, err error) {
	m.extractions.WithLabelValues(mode.String(), path, outcome(err)).Inc()
}

func (m *Metrics) recordCoercion(mode Mode) {
	m.coercions.WithLabelValues(mode.String()).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrEngineCallFailed):
		return "engine_failed"
	case errors.Is(err, ErrNoAmountFound):
		return "no_amount"
	case errors.Is(err, ErrEmptyReceiptResult):
		return "empty_receipt"
	}
	return "error"
}
