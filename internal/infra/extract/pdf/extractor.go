package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNotPDF is returned for payloads without a PDF header.
var ErrNotPDF = errors.New("payload is not a PDF document")

// Extractor reads plain text out of PDF bytes.
type Extractor struct {
	// MaxBytes caps the accepted document size. Zero means no limit.
	MaxBytes int64
}

func NewExtractor(maxBytes int64) *Extractor {
	return &Extractor{MaxBytes: maxBytes}
}

// Extract returns the concatenated page text. Image-only documents yield "".
func (e *Extractor) Extract(ctx context.Context, data []byte) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-")) {
		return "", ErrNotPDF
	}
	if e.MaxBytes > 0 && int64(len(data)) > e.MaxBytes {
		return "", fmt.Errorf("pdf is %d bytes, limit is %d", len(data), e.MaxBytes)
	}

	// the reader panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("read pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
