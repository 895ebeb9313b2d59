package expense

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zombor/expense-tracker/internal/extraction"
	"github.com/zombor/expense-tracker/internal/ocr"
)

// ErrInvalidExpense is returned for manual entries that fail validation
var ErrInvalidExpense = errors.New("invalid expense")

const manualDescription = "Manual entry"

// Extractor turns raw text into expense candidates
type Extractor interface {
	Extract(ctx context.Context, text string, mode extraction.Mode) ([]extraction.ExtractedExpense, error)
	ExtractFromUtterance(ctx context.Context, text string) (extraction.ExtractedExpense, error)
	ExtractFromReceipt(ctx context.Context, text string) ([]extraction.ExtractedExpense, error)
	Categories() extraction.CategorySet
}

// IDGenerator generates unique IDs for expenses
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// ManualEntry is an expense typed in by the user
type ManualEntry struct {
	Amount        decimal.Decimal
	Category      string
	Description   string
	PaymentMethod string
	Date          time.Time // zero means today
}

// Service records and reports expenses
type Service struct {
	db          DB
	extractor   Extractor
	reader      ocr.Reader
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with uuid IDs and the wall clock
func NewService(db DB, extractor Extractor, reader ocr.Reader, storage Storage) *Service {
	return NewServiceWithDeps(db, extractor, reader, storage, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, extractor Extractor, reader ocr.Reader, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		reader:      reader,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename shortens phone-generated file names and strips special characters
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	ext := unsafeFilenameChars.ReplaceAllString(filepath.Ext(filename), "")
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = strings.TrimSpace(repeatedSpaces.ReplaceAllString(base, " "))
	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" || base == "." {
		base = "receipt"
	}
	if ext == "" {
		return base
	}
	return base + "." + ext
}

// newExpense turns a candidate into a record ready to store
func (s *Service) newExpense(candidate extraction.ExtractedExpense, source Source, now time.Time) *Expense {
	date := candidate.Date
	if date.IsZero() {
		date = now
	}
	return &Expense{
		ID:            s.idGenerator.Generate(),
		Amount:        candidate.Amount,
		Category:      candidate.Category,
		Description:   candidate.Description,
		PaymentMethod: candidate.PaymentMethod,
		Source:        source,
		Date:          date,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// RecordUtterance extracts one expense from a speech transcript and stores it
func (s *Service) RecordUtterance(ctx context.Context, transcript string) (*Expense, error) {
	candidate, err := s.extractor.ExtractFromUtterance(ctx, transcript)
	if err != nil {
		return nil, fmt.Errorf("extracting expense: %w", err)
	}

	expense := s.newExpense(candidate, SourceVoice, s.timeSource.Now())
	if err := s.db.SaveExpense(expense); err != nil {
		return nil, fmt.Errorf("saving expense to database: %w", err)
	}

	slog.Info("Recorded expense",
		"id", expense.ID,
		"source", expense.Source,
		"amount", expense.Amount.String(),
		"category", expense.Category,
	)
	return expense, nil
}

// RecordReceiptText extracts expenses from receipt text and stores them
func (s *Service) RecordReceiptText(ctx context.Context, text string) ([]*Expense, error) {
	return s.recordReceipt(ctx, text, "", "")
}

func (s *Service) recordReceipt(ctx context.Context, text, receiptFile, contentType string) ([]*Expense, error) {
	candidates, err := s.extractor.ExtractFromReceipt(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extracting expenses: %w", err)
	}

	now := s.timeSource.Now()
	expenses := make([]*Expense, 0, len(candidates))
	for _, candidate := range candidates {
		expense := s.newExpense(candidate, SourceReceipt, now)
		expense.ReceiptFile = receiptFile
		expense.ContentType = contentType
		expenses = append(expenses, expense)
	}

	if err := s.db.SaveExpenses(expenses); err != nil {
		return nil, fmt.Errorf("saving expenses to database: %w", err)
	}

	slog.Info("Recorded receipt", "expenses", len(expenses), "receipt_file", receiptFile)
	return expenses, nil
}

// RecordReceiptImage stores a receipt photo, reads its text and records the expenses on it
func (s *Service) RecordReceiptImage(ctx context.Context, filename string, data []byte, contentType string) ([]*Expense, error) {
	name := fmt.Sprintf("%s_%s", s.idGenerator.Generate(), sanitizeFilename(filename))
	savedName, err := s.storage.Save(name, data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	text, err := s.reader.ReadText(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to read receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		s.removeFile(savedName)
		return nil, fmt.Errorf("reading receipt: %w", err)
	}

	expenses, err := s.recordReceipt(ctx, text, savedName, contentType)
	if err != nil {
		s.removeFile(savedName)
		return nil, err
	}
	return expenses, nil
}

func (s *Service) removeFile(name string) {
	if err := s.storage.Delete(name); err != nil {
		slog.Warn("Failed to delete file", "filename", name, "error", err)
	}
}

// Preview extracts candidates without storing anything
func (s *Service) Preview(ctx context.Context, text string, mode extraction.Mode) ([]extraction.ExtractedExpense, error) {
	candidates, err := s.extractor.Extract(ctx, text, mode)
	if err != nil {
		return nil, fmt.Errorf("extracting expenses: %w", err)
	}
	return candidates, nil
}

// AddManual stores an expense entered by hand
func (s *Service) AddManual(ctx context.Context, entry ManualEntry) (*Expense, error) {
	if !entry.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidExpense)
	}

	category := extraction.Other
	if label := strings.TrimSpace(entry.Category); label != "" {
		var coerced bool
		category, coerced = s.extractor.Categories().Coerce(label)
		if coerced {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidExpense, label)
		}
	}

	candidate := extraction.ExtractedExpense{
		Amount:        entry.Amount,
		Category:      category,
		Description:   strings.TrimSpace(entry.Description),
		PaymentMethod: strings.TrimSpace(entry.PaymentMethod),
		Date:          entry.Date,
	}
	if candidate.Description == "" {
		candidate.Description = manualDescription
	}
	if candidate.PaymentMethod == "" {
		candidate.PaymentMethod = extraction.DefaultPaymentMethod
	}

	expense := s.newExpense(candidate, SourceManual, s.timeSource.Now())
	if err := s.db.SaveExpense(expense); err != nil {
		return nil, fmt.Errorf("saving expense to database: %w", err)
	}
	return expense, nil
}

// GetExpense retrieves an expense by ID
func (s *Service) GetExpense(id string) (*Expense, error) {
	expense, err := s.db.GetExpense(id)
	if err != nil {
		return nil, fmt.Errorf("getting expense: %w", err)
	}
	return expense, nil
}

// ListExpenses returns the expenses in the period, newest first
func (s *Service) ListExpenses(period Period) ([]*Expense, error) {
	expenses, err := s.db.ListExpenses()
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	expenses = filterByPeriod(expenses, period, s.timeSource.Now())
	sortNewestFirst(expenses)
	return expenses, nil
}

// DeleteExpense removes an expense, and its receipt file once no other expense uses it
func (s *Service) DeleteExpense(id string) error {
	expense, err := s.db.GetExpense(id)
	if err != nil {
		return fmt.Errorf("getting expense for deletion: %w", err)
	}

	if err := s.db.DeleteExpense(id); err != nil {
		return fmt.Errorf("deleting expense from database: %w", err)
	}

	if expense.ReceiptFile == "" {
		return nil
	}
	remaining, err := s.db.ListExpenses()
	if err != nil {
		slog.Warn("Failed to check receipt file usage", "filename", expense.ReceiptFile, "error", err)
		return nil
	}
	for _, other := range remaining {
		if other.ReceiptFile == expense.ReceiptFile {
			return nil
		}
	}
	s.removeFile(expense.ReceiptFile)
	return nil
}

// GetExpenseFile returns the receipt image an expense was scanned from
func (s *Service) GetExpenseFile(id string) ([]byte, string, error) {
	expense, err := s.db.GetExpense(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting expense: %w", err)
	}
	if expense.ReceiptFile == "" {
		return nil, "", fmt.Errorf("%w: expense %s has no receipt file", ErrNotFound, id)
	}

	data, err := s.storage.Get(expense.ReceiptFile)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}
	return data, expense.ContentType, nil
}

// CategoryTotals sums spending per category over the period, largest first
func (s *Service) CategoryTotals(period Period) ([]CategoryTotal, error) {
	expenses, err := s.ListExpenses(period)
	if err != nil {
		return nil, err
	}
	return categoryTotals(expenses), nil
}

// DailySpending sums spending per day over the period, oldest first
func (s *Service) DailySpending(period Period) ([]DailyTotal, error) {
	expenses, err := s.ListExpenses(period)
	if err != nil {
		return nil, err
	}
	return dailyTotals(expenses), nil
}

// Categories returns the configured category labels
func (s *Service) Categories() extraction.CategorySet {
	return s.extractor.Categories()
}
