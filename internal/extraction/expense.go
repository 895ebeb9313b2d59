package extraction

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category is an expense category label
type Category string

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Shopping      Category = "Shopping"
	Entertainment Category = "Entertainment"
	Utilities     Category = "Utilities"
	Health        Category = "Health"
	Education     Category = "Education"
	Income        Category = "Income"
	Travel        Category = "Travel"
	Other         Category = "Other"
)

// DefaultPaymentMethod is used whenever the payment method cannot be inferred
const DefaultPaymentMethod = "Cash"

// CategorySet is an ordered, closed set of category labels
type CategorySet []Category

// DefaultCategories returns the eight labels offered to the generative engine
func DefaultCategories() CategorySet {
	return CategorySet{Food, Transport, Shopping, Entertainment, Utilities, Health, Education, Other}
}

// ExtendedCategories returns the default labels plus Income and Travel
func ExtendedCategories() CategorySet {
	return CategorySet{Food, Transport, Shopping, Entertainment, Utilities, Health, Education, Income, Travel, Other}
}

// ParseCategorySet builds a category set from configuration.
// "default" and "extended" select the predefined sets, anything else is read
// as a comma separated list of labels. Other is always part of the result.
func ParseCategorySet(value string) (CategorySet, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "default":
		return DefaultCategories(), nil
	case "extended":
		return ExtendedCategories(), nil
	}

	set := CategorySet{}
	for _, label := range strings.Split(value, ",") {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		if set.Contains(Category(label)) {
			return nil, fmt.Errorf("duplicate category %q", label)
		}
		set = append(set, Category(label))
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no categories in %q", value)
	}
	if !set.Contains(Other) {
		set = append(set, Other)
	}
	return set, nil
}

// Contains reports whether the label is part of the set (case-sensitive)
func (s CategorySet) Contains(c Category) bool {
	for _, label := range s {
		if label == c {
			return true
		}
	}
	return false
}

// Coerce maps a label onto the set. Unknown labels become Other and the
// second return value reports that the label was rewritten.
func (s CategorySet) Coerce(label string) (Category, bool) {
	if s.Contains(Category(label)) {
		return Category(label), false
	}
	return Other, true
}

// Strings returns the labels as plain strings
func (s CategorySet) Strings() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = string(c)
	}
	return out
}

// String renders the set as a comma separated list for prompts
func (s CategorySet) String() string {
	return strings.Join(s.Strings(), ", ")
}

// Mode selects which pipeline handles the input text
type Mode int

const (
	// ModeUtterance handles one spoken sentence describing a single expense
	ModeUtterance Mode = iota
	// ModeReceipt handles multi-line OCR text from a receipt
	ModeReceipt
)

func (m Mode) String() string {
	switch m {
	case ModeUtterance:
		return "utterance"
	case ModeReceipt:
		return "receipt"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode parses "utterance" (or "voice") and "receipt"
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "utterance", "voice":
		return ModeUtterance, nil
	case "receipt":
		return ModeReceipt, nil
	}
	return 0, fmt.Errorf("unknown extraction mode %q", value)
}

// ExtractedExpense is a candidate expense produced by either extraction path.
// It is not persisted; callers turn it into a stored record.
type ExtractedExpense struct {
	Amount        decimal.Decimal `json:"amount"`
	Category      Category        `json:"category"`
	Description   string          `json:"description"`
	PaymentMethod string          `json:"payment_method"`
	Date          time.Time       `json:"date"`

	// CoercedFrom holds the engine's original label when it was outside the
	// configured set and got replaced with Other.
	CoercedFrom string `json:"coerced_from,omitempty"`
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}
