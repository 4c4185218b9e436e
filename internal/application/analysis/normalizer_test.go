package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/bryanwahyu/newscheck/internal/domain/analysis"
)

type stubPDF struct {
	text  string
	err   error
	calls int
}

func (s *stubPDF) Extract(_ context.Context, _ []byte) (string, error) {
	s.calls++
	return s.text, s.err
}

type stubFetcher struct {
	text  string
	final string
	err   error
	block bool
	calls int
}

func (s *stubFetcher) Fetch(ctx context.Context, rawURL string) (string, string, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return "", "", ctx.Err()
	}
	final := s.final
	if final == "" {
		final = rawURL
	}
	return s.text, final, s.err
}

func TestNormalize_PastedText(t *testing.T) {
	n := &Normalizer{}
	art, err := n.Normalize(context.Background(), domain.Input{Kind: domain.KindPastedText, Text: "  Scientists confirm coffee cures all diseases.\n"})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if art.Text != "Scientists confirm coffee cures all diseases." {
		t.Fatalf("text = %q", art.Text)
	}
	if art.SourceURL != "" {
		t.Fatalf("pasted text must not carry a source url, got %q", art.SourceURL)
	}
	if art.Stats.Words != 6 {
		t.Fatalf("words = %d", art.Stats.Words)
	}
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name string
		n    *Normalizer
		in   domain.Input
		want error
	}{
		{"blank text", &Normalizer{}, domain.Input{Kind: domain.KindPastedText, Text: " \n\t "}, domain.ErrEmptyInput},
		{"empty pdf", &Normalizer{PDF: &stubPDF{text: "x"}}, domain.Input{Kind: domain.KindPdfUpload}, domain.ErrEmptyInput},
		{"pdf without text", &Normalizer{PDF: &stubPDF{text: "  "}}, domain.Input{Kind: domain.KindPdfUpload, PDF: []byte("%PDF-1.4")}, domain.ErrExtraction},
		{"pdf corrupt", &Normalizer{PDF: &stubPDF{err: errors.New("malformed xref")}}, domain.Input{Kind: domain.KindPdfUpload, PDF: []byte("%PDF-1.4")}, domain.ErrExtraction},
		{"pdf not configured", &Normalizer{}, domain.Input{Kind: domain.KindPdfUpload, PDF: []byte("%PDF-1.4")}, domain.ErrExtraction},
		{"empty url", &Normalizer{Fetcher: &stubFetcher{}}, domain.Input{Kind: domain.KindURLFetch, URL: "  "}, domain.ErrEmptyInput},
		{"bad scheme", &Normalizer{Fetcher: &stubFetcher{}}, domain.Input{Kind: domain.KindURLFetch, URL: "ftp://example.com/a"}, domain.ErrFetch},
		{"fetch failure", &Normalizer{Fetcher: &stubFetcher{err: errors.New("404 Not Found")}}, domain.Input{Kind: domain.KindURLFetch, URL: "https://example.com/a"}, domain.ErrFetch},
		{"page without text", &Normalizer{Fetcher: &stubFetcher{text: ""}}, domain.Input{Kind: domain.KindURLFetch, URL: "https://example.com/a"}, domain.ErrFetch},
		{"unknown kind", &Normalizer{}, domain.Input{Kind: "audio"}, domain.ErrUnknownInputKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.n.Normalize(context.Background(), tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNormalize_PDF(t *testing.T) {
	pdf := &stubPDF{text: "\nPage one text.\nPage two text.\n"}
	fetcher := &stubFetcher{}
	n := &Normalizer{PDF: pdf, Fetcher: fetcher}

	art, err := n.Normalize(context.Background(), domain.Input{Kind: domain.KindPdfUpload, PDF: []byte("%PDF-1.7 ...")})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if art.Text != "Page one text.\nPage two text." {
		t.Fatalf("text = %q", art.Text)
	}
	if pdf.calls != 1 || fetcher.calls != 0 {
		t.Fatalf("collaborators called pdf=%d fetch=%d", pdf.calls, fetcher.calls)
	}
}

func TestNormalize_URLKeepsSubmittedURL(t *testing.T) {
	fetcher := &stubFetcher{text: "Article body.", final: "https://example.com/amp/story"}
	n := &Normalizer{Fetcher: fetcher}

	art, err := n.Normalize(context.Background(), domain.Input{Kind: domain.KindURLFetch, URL: " https://example.com/story "})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if art.SourceURL != "https://example.com/story" {
		t.Fatalf("source url = %q", art.SourceURL)
	}
	if art.Text != "Article body." {
		t.Fatalf("text = %q", art.Text)
	}
}

func TestNormalize_URLTimeout(t *testing.T) {
	n := &Normalizer{Fetcher: &stubFetcher{block: true}, FetchTimeout: 20 * time.Millisecond}

	_, err := n.Normalize(context.Background(), domain.Input{Kind: domain.KindURLFetch, URL: "https://slow.example.com"})
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}
