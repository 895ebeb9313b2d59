package expense

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/expense-tracker/internal/extraction"
)

var _ = Describe("analytics", func() {
	now := time.Date(2025, 9, 11, 12, 0, 0, 0, time.UTC)

	Describe("ParsePeriod", func() {
		DescribeTable("parses period names",
			func(input string, expected Period) {
				Expect(ParsePeriod(input)).To(Equal(expected))
			},
			Entry("week", "week", PeriodWeek),
			Entry("mixed case", " Month ", PeriodMonth),
			Entry("year", "year", PeriodYear),
			Entry("all", "all", PeriodAll),
			Entry("empty", "", PeriodAll),
			Entry("unknown", "fortnight", PeriodAll),
		)
	})

	Describe("filterByPeriod", func() {
		var expenses []*Expense

		BeforeEach(func() {
			expenses = []*Expense{
				{ID: "edge", Date: now.AddDate(0, 0, -7)},
				{ID: "eight-days", Date: now.AddDate(0, 0, -8)},
				{ID: "two-months", Date: now.AddDate(0, -2, 0)},
				{ID: "two-years", Date: now.AddDate(-2, 0, 0)},
			}
		})

		DescribeTable("keeps expenses on or after the period start",
			func(period Period, ids []string) {
				var got []string
				for _, e := range filterByPeriod(expenses, period, now) {
					got = append(got, e.ID)
				}
				Expect(got).To(Equal(ids))
			},
			Entry("week", PeriodWeek, []string{"edge"}),
			Entry("month", PeriodMonth, []string{"edge", "eight-days"}),
			Entry("year", PeriodYear, []string{"edge", "eight-days", "two-months"}),
			Entry("all", PeriodAll, []string{"edge", "eight-days", "two-months", "two-years"}),
		)
	})

	Describe("categoryTotals", func() {
		It("sorts by amount then name", func() {
			totals := categoryTotals([]*Expense{
				{Category: extraction.Transport, Amount: mustDecimal("5")},
				{Category: extraction.Food, Amount: mustDecimal("5")},
				{Category: extraction.Health, Amount: mustDecimal("7.25")},
				{Category: extraction.Food, Amount: mustDecimal("0.75")},
			})

			Expect(totals).To(HaveLen(3))
			Expect(totals[0].Category).To(Equal(extraction.Health))
			Expect(totals[1].Category).To(Equal(extraction.Food))
			Expect(totals[1].Amount.StringFixed(2)).To(Equal("5.75"))
			Expect(totals[2].Category).To(Equal(extraction.Transport))
		})

		It("returns an empty list for no expenses", func() {
			Expect(categoryTotals(nil)).To(BeEmpty())
		})
	})

	Describe("dailyTotals", func() {
		It("groups by calendar day, oldest first", func() {
			totals := dailyTotals([]*Expense{
				{Date: time.Date(2025, 9, 11, 23, 59, 0, 0, time.UTC), Amount: mustDecimal("1.10")},
				{Date: time.Date(2025, 9, 9, 8, 0, 0, 0, time.UTC), Amount: mustDecimal("3")},
				{Date: time.Date(2025, 9, 11, 0, 1, 0, 0, time.UTC), Amount: mustDecimal("2.20")},
			})

			Expect(totals).To(HaveLen(2))
			Expect(totals[0].Day).To(Equal(time.Date(2025, 9, 9, 0, 0, 0, 0, time.UTC)))
			Expect(totals[1].Day).To(Equal(time.Date(2025, 9, 11, 0, 0, 0, 0, time.UTC)))
			Expect(totals[1].Amount.StringFixed(2)).To(Equal("3.30"))
		})
	})

	Describe("sortNewestFirst", func() {
		It("breaks date ties with creation time", func() {
			expenses := []*Expense{
				{ID: "first", Date: now, CreatedAt: now},
				{ID: "second", Date: now, CreatedAt: now.Add(time.Second)},
				{ID: "older", Date: now.Add(-time.Hour), CreatedAt: now.Add(time.Hour)},
			}
			sortNewestFirst(expenses)
			Expect(expenses[0].ID).To(Equal("second"))
			Expect(expenses[1].ID).To(Equal("first"))
			Expect(expenses[2].ID).To(Equal("older"))
		})
	})
})
