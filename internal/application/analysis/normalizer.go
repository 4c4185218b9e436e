package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	domain "github.com/bryanwahyu/newscheck/internal/domain/analysis"
)

// Normalizer turns any supported input into plain article text.
type Normalizer struct {
	PDF          domain.PDFExtractor
	Fetcher      domain.ArticleFetcher
	FetchTimeout time.Duration
}

// Normalize dispatches on the input kind. Only the matching collaborator is
// invoked; no other side effects happen here.
func (n *Normalizer) Normalize(ctx context.Context, in domain.Input) (domain.Article, error) {
	var (
		text      string
		sourceURL string
		err       error
	)
	switch in.Kind {
	case domain.KindPastedText:
		text, err = n.pasted(in.Text)
	case domain.KindPdfUpload:
		text, err = n.pdf(ctx, in.PDF)
	case domain.KindURLFetch:
		sourceURL = strings.TrimSpace(in.URL)
		text, err = n.fetch(ctx, sourceURL)
	default:
		err = fmt.Errorf("%w: %q", domain.ErrUnknownInputKind, in.Kind)
	}
	if err != nil {
		return domain.Article{}, err
	}
	return domain.Article{Text: text, SourceURL: sourceURL, Stats: domain.ComputeStats(text)}, nil
}

func (n *Normalizer) pasted(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", domain.ErrEmptyInput
	}
	return text, nil
}

func (n *Normalizer) pdf(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", domain.ErrEmptyInput
	}
	if n.PDF == nil {
		return "", fmt.Errorf("%w: pdf extraction is not configured", domain.ErrExtraction)
	}
	text, err := n.PDF.Extract(ctx, data)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: pdf extraction: %v", domain.ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: document has no text layer", domain.ErrExtraction)
	}
	return text, nil
}

func (n *Normalizer) fetch(ctx context.Context, rawURL string) (string, error) {
	if rawURL == "" {
		return "", domain.ErrEmptyInput
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: invalid url %q", domain.ErrFetch, rawURL)
	}
	if n.Fetcher == nil {
		return "", fmt.Errorf("%w: url fetching is not configured", domain.ErrFetch)
	}

	fetchCtx := ctx
	if n.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, n.FetchTimeout)
		defer cancel()
	}

	text, _, err := n.Fetcher.Fetch(fetchCtx, rawURL)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: fetching %s", domain.ErrTimeout, rawURL)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: no article text at %s", domain.ErrFetch, rawURL)
	}
	return text, nil
}
