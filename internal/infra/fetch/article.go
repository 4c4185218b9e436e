package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultUserAgent = "Mozilla/5.0 (compatible; newscheck/1.0)"
	defaultMaxBytes  = 5 << 20
)

// ErrEmptyArticle is returned when a page has no readable text.
var ErrEmptyArticle = errors.New("no article text found on page")

// StatusError is a non-2xx response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string { return "fetch returned " + e.Status }

// RetryPolicy configures exponential backoff between attempts.
type RetryPolicy struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

// GetRetryDelay returns the wait before the given attempt (1-based).
func (rp RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	delay := float64(rp.InitialDelay)
	for i := 2; i < attempt; i++ {
		delay *= rp.BackoffMultiplier
	}
	if rp.MaxDelay > 0 && time.Duration(delay) > rp.MaxDelay {
		return rp.MaxDelay
	}
	return time.Duration(delay)
}

// Options configures a Fetcher.
type Options struct {
	UserAgent string
	MaxBytes  int64
	Retry     RetryPolicy
}

// Fetcher downloads a page and extracts its article text.
type Fetcher struct {
	client *http.Client
	opts   Options
	logger *slog.Logger
}

func NewFetcher(client *http.Client, opts Options, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry.MaxAttempts = 1
	}
	if opts.Retry.BackoffMultiplier <= 0 {
		opts.Retry.BackoffMultiplier = 2
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fetcher{client: client, opts: opts, logger: logger}
}

// Fetch retrieves rawURL and returns the article text and the final URL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, string, error) {
	var lastErr error
	for attempt := 1; attempt <= f.opts.Retry.MaxAttempts; attempt++ {
		if delay := f.opts.Retry.GetRetryDelay(attempt); delay > 0 {
			f.logger.Debug("retrying fetch", "url", rawURL, "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return "", "", ctx.Err()
			case <-time.After(delay):
			}
		}

		doc, finalURL, err := f.fetchDocument(ctx, rawURL)
		if err == nil {
			text := ExtractText(doc)
			if text == "" {
				return "", finalURL, ErrEmptyArticle
			}
			return text, finalURL, nil
		}
		lastErr = err
		if ctx.Err() != nil || !isRetryable(err) {
			break
		}
	}
	return "", "", lastErr
}

func (f *Fetcher) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, f.opts.MaxBytes))
	if err != nil {
		return nil, "", fmt.Errorf("parse document: %w", err)
	}
	return doc, resp.Request.URL.String(), nil
}

func isRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return isRetryableStatus(se.Code)
	}
	// transport errors (reset, refused) are worth another attempt
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout,
		http.StatusTooManyRequests, http.StatusRequestTimeout:
		return true
	}
	return false
}

// ExtractText prefers paragraphs inside article or main, then any paragraph,
// then the whole body.
func ExtractText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, nav, footer, header, aside, form, iframe").Remove()

	for _, sel := range []string{"article p", "main p", "p"} {
		if text := joinParagraphs(doc.Find(sel)); text != "" {
			return text
		}
	}
	return collapseSpace(doc.Find("body").Text())
}

func joinParagraphs(s *goquery.Selection) string {
	var parts []string
	s.Each(func(_ int, p *goquery.Selection) {
		if t := collapseSpace(p.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
