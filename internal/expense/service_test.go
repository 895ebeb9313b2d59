package expense

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/zombor/expense-tracker/internal/extraction"
	"github.com/zombor/expense-tracker/internal/ocr"
)

var _ = Describe("Service", func() {
	var (
		ctx       context.Context
		db        *mockDB
		storage   *mockStorage
		extractor *mockExtractor
		reader    *mockReader
		idGen     *mockIDGenerator
		now       time.Time
		service   *Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		db = newMockDB()
		storage = newMockStorage()
		extractor = newMockExtractor()
		reader = &mockReader{text: "Coffee $4.50\nTOTAL $4.50"}
		idGen = &mockIDGenerator{ids: []string{"test-id-123", "test-id-456", "test-id-789"}}
		now = time.Date(2025, 9, 11, 10, 0, 0, 0, time.UTC)
		service = NewServiceWithDeps(db, extractor, reader, storage, idGen, &mockTimeSource{now: now})
	})

	Describe("RecordUtterance", func() {
		var (
			expense *Expense
			err     error
		)

		JustBeforeEach(func() {
			expense, err = service.RecordUtterance(ctx, "Lunch at a restaurant cost $15.50")
		})

		When("extraction succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should copy the candidate onto the record", func() {
				Expect(expense.ID).To(Equal("test-id-123"))
				Expect(expense.Amount.StringFixed(2)).To(Equal("15.50"))
				Expect(expense.Category).To(Equal(extraction.Food))
				Expect(expense.Description).To(Equal("Lunch at a restaurant"))
				Expect(expense.PaymentMethod).To(Equal("Cash"))
				Expect(expense.Source).To(Equal(SourceVoice))
			})

			It("should date the record now when the candidate has no date", func() {
				Expect(expense.Date).To(Equal(now))
				Expect(expense.CreatedAt).To(Equal(now))
				Expect(expense.UpdatedAt).To(Equal(now))
			})

			It("should save the record", func() {
				Expect(db.expenses).To(HaveKeyWithValue("test-id-123", expense))
			})

			It("should pass the transcript through", func() {
				Expect(extractor.lastText).To(Equal("Lunch at a restaurant cost $15.50"))
				Expect(extractor.lastMode).To(Equal(extraction.ModeUtterance))
			})
		})

		When("the candidate carries a date", func() {
			BeforeEach(func() {
				extractor.candidates[0].Date = now.Add(-time.Hour)
			})

			It("keeps it", func() {
				Expect(expense.Date).To(Equal(now.Add(-time.Hour)))
			})
		})

		When("no amount can be found", func() {
			BeforeEach(func() {
				extractor.err = extraction.ErrNoAmountFound
			})

			It("returns the extraction error", func() {
				Expect(err).To(MatchError(extraction.ErrNoAmountFound))
			})

			It("saves nothing", func() {
				Expect(db.expenses).To(BeEmpty())
			})
		})

		When("the database fails", func() {
			BeforeEach(func() {
				db.saveErr = errors.New("disk full")
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(ContainSubstring("disk full")))
			})
		})
	})

	Describe("RecordReceiptText", func() {
		var (
			expenses []*Expense
			err      error
		)

		BeforeEach(func() {
			extractor.candidates = []extraction.ExtractedExpense{
				{Amount: mustDecimal("4.50"), Category: extraction.Food, Description: "Coffee", PaymentMethod: "Cash"},
				{Amount: mustDecimal("2.00"), Category: extraction.Transport, Description: "Parking", PaymentMethod: "Cash"},
			}
		})

		JustBeforeEach(func() {
			expenses, err = service.RecordReceiptText(ctx, "Coffee  $4.50\nParking  $2.00\nTotal  $6.50")
		})

		It("should record one expense per candidate", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(expenses).To(HaveLen(2))
			Expect(expenses[0].ID).To(Equal("test-id-123"))
			Expect(expenses[1].ID).To(Equal("test-id-456"))
			Expect(db.expenses).To(HaveLen(2))
		})

		It("should mark them as receipt expenses without a file", func() {
			for _, e := range expenses {
				Expect(e.Source).To(Equal(SourceReceipt))
				Expect(e.ReceiptFile).To(BeEmpty())
			}
		})

		It("should use receipt mode", func() {
			Expect(extractor.lastMode).To(Equal(extraction.ModeReceipt))
		})

		When("the receipt yields nothing", func() {
			BeforeEach(func() {
				extractor.err = extraction.ErrEmptyReceiptResult
			})

			It("returns ErrEmptyReceiptResult", func() {
				Expect(err).To(MatchError(extraction.ErrEmptyReceiptResult))
				Expect(expenses).To(BeNil())
			})
		})
	})

	Describe("RecordReceiptImage", func() {
		var (
			expenses []*Expense
			err      error
		)

		JustBeforeEach(func() {
			expenses, err = service.RecordReceiptImage(ctx, "IMG 2025-09-11 (1).jpg", []byte("fake image data"), "image/jpeg")
		})

		When("processing succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should save the file under a sanitized, prefixed name", func() {
				Expect(storage.files).To(HaveKey("test-id-123_IMG 2025-09-11 1.jpg"))
			})

			It("should link the expenses to the file", func() {
				Expect(expenses).To(HaveLen(1))
				Expect(expenses[0].ID).To(Equal("test-id-456"))
				Expect(expenses[0].ReceiptFile).To(Equal("test-id-123_IMG 2025-09-11 1.jpg"))
				Expect(expenses[0].ContentType).To(Equal("image/jpeg"))
			})

			It("should extract from the OCR text", func() {
				Expect(reader.lastContentType).To(Equal("image/jpeg"))
				Expect(extractor.lastText).To(Equal("Coffee $4.50\nTOTAL $4.50"))
				Expect(extractor.lastMode).To(Equal(extraction.ModeReceipt))
			})
		})

		When("storage save fails", func() {
			BeforeEach(func() {
				storage.saveErr = errors.New("storage error")
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(ContainSubstring("storage error")))
			})
		})

		When("OCR fails", func() {
			BeforeEach(func() {
				reader.err = ocr.ErrUnavailable
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(ocr.ErrUnavailable))
			})

			It("cleans up the saved file", func() {
				Expect(storage.files).To(BeEmpty())
			})
		})

		When("extraction fails", func() {
			BeforeEach(func() {
				extractor.err = extraction.ErrEmptyReceiptResult
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(extraction.ErrEmptyReceiptResult))
			})

			It("cleans up the saved file", func() {
				Expect(storage.files).To(BeEmpty())
			})
		})
	})

	Describe("Preview", func() {
		It("returns candidates without saving", func() {
			candidates, err := service.Preview(ctx, "coffee 4", extraction.ModeUtterance)
			Expect(err).NotTo(HaveOccurred())
			Expect(candidates).To(HaveLen(1))
			Expect(db.expenses).To(BeEmpty())
		})

		It("wraps extraction errors", func() {
			extractor.err = extraction.ErrEngineCallFailed
			_, err := service.Preview(ctx, "coffee 4", extraction.ModeUtterance)
			Expect(err).To(MatchError(extraction.ErrEngineCallFailed))
		})
	})

	Describe("AddManual", func() {
		var (
			entry   ManualEntry
			expense *Expense
			err     error
		)

		BeforeEach(func() {
			entry = ManualEntry{
				Amount:        mustDecimal("42.00"),
				Category:      "Utilities",
				Description:   "Water bill",
				PaymentMethod: "Debit Card",
				Date:          time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
			}
		})

		JustBeforeEach(func() {
			expense, err = service.AddManual(ctx, entry)
		})

		It("should store the entry as given", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(expense.Category).To(Equal(extraction.Utilities))
			Expect(expense.Description).To(Equal("Water bill"))
			Expect(expense.PaymentMethod).To(Equal("Debit Card"))
			Expect(expense.Date).To(Equal(entry.Date))
			Expect(expense.Source).To(Equal(SourceManual))
			Expect(db.expenses).To(HaveKey("test-id-123"))
		})

		When("optional fields are empty", func() {
			BeforeEach(func() {
				entry = ManualEntry{Amount: mustDecimal("3")}
			})

			It("applies the defaults", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(expense.Category).To(Equal(extraction.Other))
				Expect(expense.PaymentMethod).To(Equal("Cash"))
				Expect(expense.Description).To(Equal("Manual entry"))
				Expect(expense.Date).To(Equal(now))
			})
		})

		When("the amount is not positive", func() {
			BeforeEach(func() {
				entry.Amount = decimal.Zero
			})

			It("returns ErrInvalidExpense", func() {
				Expect(err).To(MatchError(ErrInvalidExpense))
				Expect(db.expenses).To(BeEmpty())
			})
		})

		When("the category is not configured", func() {
			BeforeEach(func() {
				entry.Category = "Travel"
			})

			It("returns ErrInvalidExpense", func() {
				Expect(err).To(MatchError(ErrInvalidExpense))
			})
		})
	})

	Describe("ListExpenses", func() {
		BeforeEach(func() {
			db.expenses["old"] = &Expense{ID: "old", Amount: mustDecimal("1"), Date: now.AddDate(0, -2, 0)}
			db.expenses["recent"] = &Expense{ID: "recent", Amount: mustDecimal("2"), Date: now.AddDate(0, 0, -3)}
			db.expenses["today"] = &Expense{ID: "today", Amount: mustDecimal("3"), Date: now}
		})

		It("returns all expenses newest first", func() {
			expenses, err := service.ListExpenses(PeriodAll)
			Expect(err).NotTo(HaveOccurred())
			Expect(expenses).To(HaveLen(3))
			Expect(expenses[0].ID).To(Equal("today"))
			Expect(expenses[1].ID).To(Equal("recent"))
			Expect(expenses[2].ID).To(Equal("old"))
		})

		It("filters by period", func() {
			expenses, err := service.ListExpenses(PeriodWeek)
			Expect(err).NotTo(HaveOccurred())
			Expect(expenses).To(HaveLen(2))
		})

		It("wraps database errors", func() {
			db.listErr = errors.New("corrupt")
			_, err := service.ListExpenses(PeriodAll)
			Expect(err).To(MatchError(ContainSubstring("listing expenses: corrupt")))
		})
	})

	Describe("DeleteExpense", func() {
		BeforeEach(func() {
			storage.files["scan.jpg"] = []byte("image")
			db.expenses["a"] = &Expense{ID: "a", ReceiptFile: "scan.jpg"}
			db.expenses["b"] = &Expense{ID: "b", ReceiptFile: "scan.jpg"}
		})

		It("keeps the file while another expense uses it", func() {
			Expect(service.DeleteExpense("a")).To(Succeed())
			Expect(db.expenses).NotTo(HaveKey("a"))
			Expect(storage.files).To(HaveKey("scan.jpg"))
		})

		It("removes the file with the last expense", func() {
			Expect(service.DeleteExpense("a")).To(Succeed())
			Expect(service.DeleteExpense("b")).To(Succeed())
			Expect(storage.files).To(BeEmpty())
		})

		It("still deletes the record when the file is already gone", func() {
			delete(storage.files, "scan.jpg")
			delete(db.expenses, "b")
			Expect(service.DeleteExpense("a")).To(Succeed())
			Expect(db.expenses).To(BeEmpty())
		})

		It("returns ErrNotFound for unknown expenses", func() {
			Expect(service.DeleteExpense("missing")).To(MatchError(ErrNotFound))
		})
	})

	Describe("GetExpenseFile", func() {
		BeforeEach(func() {
			storage.files["scan.png"] = []byte("png bytes")
			db.expenses["a"] = &Expense{ID: "a", ReceiptFile: "scan.png", ContentType: "image/png"}
			db.expenses["manual"] = &Expense{ID: "manual"}
		})

		It("returns the file and content type", func() {
			data, contentType, err := service.GetExpenseFile("a")
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("png bytes")))
			Expect(contentType).To(Equal("image/png"))
		})

		It("returns ErrNotFound when the expense has no file", func() {
			_, _, err := service.GetExpenseFile("manual")
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("analytics", func() {
		BeforeEach(func() {
			day := func(d int) time.Time { return time.Date(2025, 9, d, 9, 0, 0, 0, time.UTC) }
			db.expenses["1"] = &Expense{ID: "1", Amount: mustDecimal("10"), Category: extraction.Food, Date: day(10)}
			db.expenses["2"] = &Expense{ID: "2", Amount: mustDecimal("25"), Category: extraction.Transport, Date: day(10)}
			db.expenses["3"] = &Expense{ID: "3", Amount: mustDecimal("20"), Category: extraction.Food, Date: day(11)}
			db.expenses["4"] = &Expense{ID: "4", Amount: mustDecimal("99"), Category: extraction.Shopping, Date: day(11).AddDate(-1, 0, 0)}
		})

		It("sums categories within the period, largest first", func() {
			totals, err := service.CategoryTotals(PeriodMonth)
			Expect(err).NotTo(HaveOccurred())
			Expect(totals).To(HaveLen(2))
			Expect(totals[0].Category).To(Equal(extraction.Food))
			Expect(totals[0].Amount.String()).To(Equal("30"))
			Expect(totals[1].Category).To(Equal(extraction.Transport))
		})

		It("sums days within the period, oldest first", func() {
			totals, err := service.DailySpending(PeriodWeek)
			Expect(err).NotTo(HaveOccurred())
			Expect(totals).To(HaveLen(2))
			Expect(totals[0].Day).To(Equal(time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)))
			Expect(totals[0].Amount.String()).To(Equal("35"))
			Expect(totals[1].Amount.String()).To(Equal("20"))
		})
	})

	It("exposes the configured categories", func() {
		Expect(service.Categories()).To(Equal(extraction.DefaultCategories()))
	})
})

var _ = Describe("sanitizeFilename", func() {
	DescribeTable("cleans names",
		func(input, expected string) {
			Expect(sanitizeFilename(input)).To(Equal(expected))
		},
		Entry("plain", "receipt.jpg", "receipt.jpg"),
		Entry("special characters", "IMG_2025@#!.HEIC", "IMG_2025.HEIC"),
		Entry("directories", "../../etc/passwd", "passwd"),
		Entry("nothing left", "@@@.png", "receipt.png"),
		Entry("no extension", "scan", "scan"),
	)

	It("truncates long names", func() {
		long := "a_very_long_file_name_generated_by_a_phone_camera_app_123456789.jpg"
		Expect(sanitizeFilename(long)).To(HaveLen(54))
	})
})
