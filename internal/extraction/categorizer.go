package extraction

import (
	"slices"
	"strings"
)

// KeywordRule assigns a category when any keyword is contained in the text
type KeywordRule struct {
	Category Category
	Keywords []string
}

// priority is the fixed order in which categories are tested; earlier wins
var priority = []Category{Food, Transport, Shopping, Entertainment, Utilities, Health, Education}

// UtteranceRules is the broad vocabulary for free-form spoken expenses
var UtteranceRules = []KeywordRule{
	{Food, []string{"food", "lunch", "dinner", "restaurant", "groceries"}},
	{Transport, []string{"uber", "taxi", "transport", "gas", "bus"}},
	{Shopping, []string{"shopping", "clothes", "store"}},
	{Entertainment, []string{"movie", "entertainment", "concert"}},
	{Utilities, []string{"electricity", "water", "utilities", "bill"}},
	{Health, []string{"doctor", "medicine", "health", "hospital"}},
	{Education, []string{"book", "course", "education", "tuition"}},
}

// ReceiptRules classifies a receipt as a whole by merchant or venue words
var ReceiptRules = []KeywordRule{
	{Food, []string{"restaurant", "cafe", "food"}},
	{Transport, []string{"gas", "station"}},
	{Shopping, []string{"market", "store", "shop"}},
}

// ReceiptItemRules classifies a single receipt line item
var ReceiptItemRules = []KeywordRule{
	{Food, []string{"food", "meal", "coffee"}},
	{Transport, []string{"gas", "fuel", "parking"}},
}

// Categorizer maps text to a category by case-insensitive keyword containment
type Categorizer struct {
	rules []KeywordRule
}

// NewCategorizer creates a Categorizer over the given rules.
// Rules are ordered by the fixed category priority, and rules whose category
// is not part of the set are dropped so results always stay inside it.
func NewCategorizer(rules []KeywordRule, categories CategorySet) *Categorizer {
	kept := make([]KeywordRule, 0, len(rules))
	for _, rule := range rules {
		if !categories.Contains(rule.Category) {
			continue
		}
		keywords := make([]string, len(rule.Keywords))
		for i, k := range rule.Keywords {
			keywords[i] = strings.ToLower(k)
		}
		kept = append(kept, KeywordRule{Category: rule.Category, Keywords: keywords})
	}

	slices.SortStableFunc(kept, func(a, b KeywordRule) int {
		return rank(a.Category) - rank(b.Category)
	})

	return &Categorizer{rules: kept}
}

// rank puts categories outside the fixed priority list after all listed ones
func rank(c Category) int {
	if i := slices.Index(priority, c); i >= 0 {
		return i
	}
	return len(priority)
}

// Categorize returns the first matching category, or Other
func (c *Categorizer) Categorize(text string) Category {
	lower := strings.ToLower(text)
	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lower, keyword) {
				return rule.Category
			}
		}
	}
	return Other
}
