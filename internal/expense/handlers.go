package expense

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/zombor/expense-tracker/internal/extraction"
	"github.com/zombor/expense-tracker/internal/ocr"
)

const maxUploadSize = int64(50 << 20) // 50MB, high-resolution phone photos

type voiceRequest struct {
	Transcript string `json:"transcript" validate:"required,max=2000"`
}

type receiptTextRequest struct {
	Text string `json:"text" validate:"required,max=20000"`
}

type extractRequest struct {
	Text string `json:"text" validate:"required,max=20000"`
	Mode string `json:"mode" validate:"required,oneof=utterance voice receipt"`
}

type manualRequest struct {
	Amount        json.Number `json:"amount" validate:"required,numeric"`
	Category      string      `json:"category" validate:"max=50"`
	Description   string      `json:"description" validate:"max=200"`
	PaymentMethod string      `json:"payment_method" validate:"max=50"`
	Date          string      `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// writeError writes a JSON error body
func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidExpense):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, extraction.ErrEmptyInput),
		errors.Is(err, extraction.ErrNoAmountFound),
		errors.Is(err, extraction.ErrEmptyReceiptResult):
		return http.StatusUnprocessableEntity
	case errors.Is(err, extraction.ErrEngineCallFailed):
		return http.StatusBadGateway
	case errors.Is(err, ocr.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeServiceError logs err and writes it with the matching status
func writeServiceError(w http.ResponseWriter, action string, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		slog.Error("Error "+action, "error", err)
		writeError(w, "Internal server error", code)
		return
	}
	slog.Warn("Request failed", "action", action, "status", code, "error", err)
	writeError(w, err.Error(), code)
}

// decodeRequest reads a JSON body into v and validates it
func (s *Server) decodeRequest(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	if err := s.validate.Struct(v); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			fields := make([]string, 0, len(validationErrs))
			for _, fe := range validationErrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return fmt.Errorf("invalid request: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// handleRecordVoice records an expense from a speech transcript
func (s *Server) handleRecordVoice(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	expense, err := s.service.RecordUtterance(r.Context(), req.Transcript)
	if err != nil {
		writeServiceError(w, "recording voice expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

// handleRecordReceiptText records expenses from already transcribed receipt text
func (s *Server) handleRecordReceiptText(w http.ResponseWriter, r *http.Request) {
	var req receiptTextRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	expenses, err := s.service.RecordReceiptText(r.Context(), req.Text)
	if err != nil {
		writeServiceError(w, "recording receipt text", err)
		return
	}
	writeJSON(w, http.StatusCreated, expenses)
}

// contentTypeFor picks the upload's MIME type, guessing from the extension when the client sent none
func contentTypeFor(header *multipart.FileHeader) string {
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		switch strings.ToLower(filepath.Ext(header.Filename)) {
		case ".jpg", ".jpeg":
			contentType = "image/jpeg"
		case ".png":
			contentType = "image/png"
		case ".pdf":
			contentType = "application/pdf"
		case ".heic":
			contentType = "image/heic"
		case ".heif":
			contentType = "image/heif"
		default:
			contentType = "application/octet-stream"
		}
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// handleUploadReceipt stores a receipt photo and records the expenses read from it
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, "File is too large. Maximum size is 50MB. Please compress or resize your image.", http.StatusBadRequest)
			return
		}
		writeError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		writeError(w, "No file was selected. Please choose a file to upload.", http.StatusBadRequest)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	expenses, err := s.service.RecordReceiptImage(r.Context(), header.Filename, data, contentTypeFor(header))
	if err != nil {
		writeServiceError(w, "recording receipt image", err)
		return
	}
	writeJSON(w, http.StatusCreated, expenses)
}

// handlePreview returns extracted candidates without storing them
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	mode, err := extraction.ParseMode(req.Mode)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	candidates, err := s.service.Preview(r.Context(), req.Text, mode)
	if err != nil {
		writeServiceError(w, "previewing extraction", err)
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

// handleAddManual records an expense typed in by the user
func (s *Server) handleAddManual(w http.ResponseWriter, r *http.Request) {
	var req manualRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		writeError(w, "invalid amount", http.StatusBadRequest)
		return
	}

	entry := ManualEntry{
		Amount:        amount,
		Category:      req.Category,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
	}
	if req.Date != "" {
		// validated above
		entry.Date, _ = time.Parse("2006-01-02", req.Date)
	}

	expense, err := s.service.AddManual(r.Context(), entry)
	if err != nil {
		writeServiceError(w, "adding manual expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

// handleListExpenses returns expenses in the requested period, newest first
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.service.ListExpenses(ParsePeriod(r.URL.Query().Get("period")))
	if err != nil {
		writeServiceError(w, "listing expenses", err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

// handleGetExpense returns a single expense
func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := s.service.GetExpense(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "getting expense", err)
		return
	}
	writeJSON(w, http.StatusOK, expense)
}

// handleGetExpenseFile returns the receipt image for an expense
func (s *Server) handleGetExpenseFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetExpenseFile(r.PathValue("id"))
	if err != nil {
		slog.Warn("Receipt file unavailable", "id", r.PathValue("id"), "error", err)
		writeError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteExpense deletes an expense
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteExpense(r.PathValue("id")); err != nil {
		writeServiceError(w, "deleting expense", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCategoryTotals returns spending per category, largest first
func (s *Server) handleCategoryTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.service.CategoryTotals(ParsePeriod(r.URL.Query().Get("period")))
	if err != nil {
		writeServiceError(w, "summarizing categories", err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

// handleDailySpending returns spending per day, oldest first
func (s *Server) handleDailySpending(w http.ResponseWriter, r *http.Request) {
	totals, err := s.service.DailySpending(ParsePeriod(r.URL.Query().Get("period")))
	if err != nil {
		writeServiceError(w, "summarizing daily spending", err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

// handleCategories returns the configured category labels
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Categories().Strings())
}
