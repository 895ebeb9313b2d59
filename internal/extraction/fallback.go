package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// receiptScanDescription labels a candidate built from a receipt total alone
const receiptScanDescription = "Receipt scan"

// Deterministic is the regex and keyword based parser used when no
// generative engine is available. It holds no mutable state.
type Deterministic struct {
	utterance    *Categorizer
	receipt      *Categorizer
	receiptItems *Categorizer
	timeSource   TimeSource
}

// NewDeterministic creates a Deterministic parser for the category set
func NewDeterministic(categories CategorySet) *Deterministic {
	return NewDeterministicWithTimeSource(categories, &defaultTimeSource{})
}

// NewDeterministicWithTimeSource creates a Deterministic parser with a custom clock for testing
func NewDeterministicWithTimeSource(categories CategorySet, timeSrc TimeSource) *Deterministic {
	return &Deterministic{
		utterance:    NewCategorizer(UtteranceRules, categories),
		receipt:      NewCategorizer(ReceiptRules, categories),
		receiptItems: NewCategorizer(ReceiptItemRules, categories),
		timeSource:   timeSrc,
	}
}

// Extract implements Extractor
func (d *Deterministic) Extract(_ context.Context, text string, mode Mode) ([]ExtractedExpense, error) {
	switch mode {
	case ModeUtterance:
		candidate, err := d.ParseUtterance(text)
		if err != nil {
			return nil, err
		}
		return []ExtractedExpense{candidate}, nil
	case ModeReceipt:
		return d.ParseReceipt(text)
	}
	return nil, fmt.Errorf("unsupported mode %s", mode)
}

// ParseUtterance turns one spoken sentence into a single candidate.
// Any number in the sentence is taken as the amount.
func (d *Deterministic) ParseUtterance(text string) (ExtractedExpense, error) {
	match, ok := FindAmount(strings.ToLower(text))
	if !ok || !match.Value.IsPositive() {
		return ExtractedExpense{}, ErrNoAmountFound
	}

	return ExtractedExpense{
		Amount:        match.Value,
		Category:      d.utterance.Categorize(text),
		Description:   text,
		PaymentMethod: DefaultPaymentMethod,
		Date:          d.timeSource.Now(),
	}, nil
}

type lineItem struct {
	description string
	amount      decimal.Decimal
}

// ParseReceipt turns OCR text into one candidate per priced line item.
// Lines labelled as a total or amount never become items; the largest of them
// is used for a single "Receipt scan" candidate when no items were found.
func (d *Deterministic) ParseReceipt(text string) ([]ExtractedExpense, error) {
	var (
		items []lineItem
		total decimal.Decimal
	)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		match, ok := FindReceiptAmount(line)
		if !ok {
			continue
		}

		lower := strings.ToLower(line)
		if strings.Contains(lower, "total") || strings.Contains(lower, "amount") {
			if match.Value.GreaterThan(total) {
				total = match.Value
			}
			continue
		}

		description := strings.TrimSpace(line[:match.Start] + line[match.End:])
		if description != "" && match.Value.IsPositive() {
			items = append(items, lineItem{description: description, amount: match.Value})
		}
	}

	now := d.timeSource.Now()

	if len(items) > 0 {
		candidates := make([]ExtractedExpense, 0, len(items))
		for _, item := range items {
			candidates = append(candidates, ExtractedExpense{
				Amount:        item.amount,
				Category:      d.receiptItems.Categorize(item.description),
				Description:   item.description,
				PaymentMethod: DefaultPaymentMethod,
				Date:          now,
			})
		}
		return candidates, nil
	}

	if total.IsPositive() {
		return []ExtractedExpense{{
			Amount:        total,
			Category:      d.receipt.Categorize(text),
			Description:   receiptScanDescription,
			PaymentMethod: DefaultPaymentMethod,
			Date:          now,
		}}, nil
	}

	return nil, ErrEmptyReceiptResult
}
