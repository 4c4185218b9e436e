package analysis

import (
	"context"
	"io"
)

// Repository port (history persistence). Implementations wrap I/O failures
// with ErrPersistence.
type Repository interface {
	Insert(ctx context.Context, d Draft) (*Record, error)
	// List returns matching records newest first.
	List(ctx context.Context, f Filter) ([]*Record, error)
	// Delete reports whether a record was removed.
	Delete(ctx context.Context, id ID) (bool, error)
	// Clear removes every record and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// PromptBuilder port
type PromptBuilder interface {
	SystemPrompt() string
	Build(text string, lang Language) (string, error)
}

// PDFExtractor port
type PDFExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// ArticleFetcher port. Returns the article text and the final URL after redirects.
type ArticleFetcher interface {
	Fetch(ctx context.Context, rawURL string) (text string, finalURL string, err error)
}

// ExportStore port (object storage for export archives)
type ExportStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}
