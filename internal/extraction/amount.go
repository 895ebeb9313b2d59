package extraction

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// spoken amounts rarely carry cents, so any integer counts
	looseAmountPattern = regexp.MustCompile(`\$?\d+(?:\.\d+)?`)

	// printed receipts use two decimals; this skips percentages, counts and phone numbers
	receiptAmountPattern = regexp.MustCompile(`\$?\d+\.\d{2}`)
)

// AmountMatch is a monetary token found in a line of text.
// Start and End are byte offsets of the token (including any "$") in the line.
type AmountMatch struct {
	Value decimal.Decimal
	Start int
	End   int
}

// FindAmount returns the first loose monetary token in the line
func FindAmount(line string) (AmountMatch, bool) {
	return findFirst(looseAmountPattern, line)
}

// FindReceiptAmount returns the first two-decimal monetary token in the line
func FindReceiptAmount(line string) (AmountMatch, bool) {
	return findFirst(receiptAmountPattern, line)
}

func findFirst(pattern *regexp.Regexp, line string) (AmountMatch, bool) {
	loc := pattern.FindStringIndex(line)
	if loc == nil {
		return AmountMatch{}, false
	}
	value, err := decimal.NewFromString(strings.TrimPrefix(line[loc[0]:loc[1]], "$"))
	if err != nil {
		return AmountMatch{}, false
	}
	return AmountMatch{Value: value, Start: loc[0], End: loc[1]}, true
}
