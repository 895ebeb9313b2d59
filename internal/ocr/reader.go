// Package ocr turns receipt photos and PDFs into raw text.
package ocr

import (
	"context"
	"errors"
	"strings"
)

// ErrUnavailable is returned by readers that are not configured
var ErrUnavailable = errors.New("ocr unavailable")

// Reader extracts raw multi-line text from a receipt image or PDF
type Reader interface {
	// ReadText returns the receipt's text, one printed line per line
	ReadText(ctx context.Context, imageData []byte, contentType string) (string, error)
	// Close releases resources held by the reader
	Close() error
}

// transcribePrompt is shared by all vision model readers
const transcribePrompt = `You are reading a photographed purchase receipt. Transcribe every line of printed text exactly as it appears, top to bottom.

Rules:
- Keep one receipt line per output line, including item names with their prices on the same line
- Keep prices, totals and currency symbols exactly as printed (e.g. "$4.50")
- Do not summarize, translate, correct or reorder anything
- Do not add any commentary before or after the text
- Do not use markdown code blocks`

// cleanTranscript strips markdown fences and blank edges a model may add
func cleanTranscript(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx != -1 {
			text = text[idx+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// Disabled is a Reader that always fails with ErrUnavailable
type Disabled struct{}

// ReadText implements Reader
func (Disabled) ReadText(ctx context.Context, imageData []byte, contentType string) (string, error) {
	return "", ErrUnavailable
}

// Close implements Reader
func (Disabled) Close() error {
	return nil
}
