package expense

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zombor/expense-tracker/internal/extraction"
)

// Source records how an expense entered the tracker
type Source string

const (
	SourceVoice   Source = "voice"
	SourceReceipt Source = "receipt"
	SourceManual  Source = "manual"
)

// Expense is a stored expense record
type Expense struct {
	ID            string              `json:"id"`
	Amount        decimal.Decimal     `json:"amount"`
	Category      extraction.Category `json:"category"`
	Description   string              `json:"description"`
	PaymentMethod string              `json:"payment_method"`
	Source        Source              `json:"source"`
	Date          time.Time           `json:"date"`
	ReceiptFile   string              `json:"receipt_file,omitempty"` // stored image this expense was scanned from
	ContentType   string              `json:"content_type,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// CategoryTotal is the amount spent in one category
type CategoryTotal struct {
	Category extraction.Category `json:"category"`
	Amount   decimal.Decimal     `json:"amount"`
}

// DailyTotal is the amount spent on one calendar day
type DailyTotal struct {
	Day    time.Time       `json:"day"`
	Amount decimal.Decimal `json:"amount"`
}

// Period limits listings and summaries to recent expenses
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// ParsePeriod parses a period name. Unknown or empty values mean all.
func ParsePeriod(value string) Period {
	switch p := Period(strings.ToLower(strings.TrimSpace(value))); p {
	case PeriodWeek, PeriodMonth, PeriodYear:
		return p
	}
	return PeriodAll
}
