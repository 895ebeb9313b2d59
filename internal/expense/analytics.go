package expense

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zombor/expense-tracker/internal/extraction"
)

// since returns the earliest date included in the period
func since(period Period, now time.Time) (time.Time, bool) {
	switch period {
	case PeriodWeek:
		return now.AddDate(0, 0, -7), true
	case PeriodMonth:
		return now.AddDate(0, -1, 0), true
	case PeriodYear:
		return now.AddDate(-1, 0, 0), true
	}
	return time.Time{}, false
}

// filterByPeriod keeps expenses dated on or after the start of the period
func filterByPeriod(expenses []*Expense, period Period, now time.Time) []*Expense {
	start, ok := since(period, now)
	if !ok {
		return expenses
	}
	filtered := make([]*Expense, 0, len(expenses))
	for _, e := range expenses {
		if !e.Date.Before(start) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// categoryTotals sums expenses per category, largest first
func categoryTotals(expenses []*Expense) []CategoryTotal {
	sums := make(map[extraction.Category]decimal.Decimal)
	for _, e := range expenses {
		sums[e.Category] = sums[e.Category].Add(e.Amount)
	}

	totals := make([]CategoryTotal, 0, len(sums))
	for category, amount := range sums {
		totals = append(totals, CategoryTotal{Category: category, Amount: amount})
	}
	slices.SortFunc(totals, func(a, b CategoryTotal) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return strings.Compare(string(a.Category), string(b.Category))
	})
	return totals
}

// dailyTotals sums expenses per calendar day, oldest first
func dailyTotals(expenses []*Expense) []DailyTotal {
	sums := make(map[time.Time]decimal.Decimal)
	for _, e := range expenses {
		y, m, d := e.Date.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, e.Date.Location())
		sums[day] = sums[day].Add(e.Amount)
	}

	totals := make([]DailyTotal, 0, len(sums))
	for day, amount := range sums {
		totals = append(totals, DailyTotal{Day: day, Amount: amount})
	}
	slices.SortFunc(totals, func(a, b DailyTotal) int {
		return a.Day.Compare(b.Day)
	})
	return totals
}

// sortNewestFirst orders expenses by date, then creation time, newest first
func sortNewestFirst(expenses []*Expense) {
	slices.SortStableFunc(expenses, func(a, b *Expense) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
