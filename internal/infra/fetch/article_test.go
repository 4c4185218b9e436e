package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const articlePage = `<html><head><title>t</title><script>var x = 1;</script></head>
<body>
<nav><p>Home | World | Sport</p></nav>
<article>
  <h1>Council approves budget</h1>
  <p>The city council approved the   new budget on Monday.</p>
  <p>Spending on transit rises by 4%.</p>
</article>
<footer><p>Copyright</p></footer>
</body></html>`

func TestExtractText_PrefersArticleParagraphs(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(articlePage))
	if err != nil {
		t.Fatal(err)
	}
	got := ExtractText(doc)
	want := "The city council approved the new budget on Monday.\nSpending on transit rises by 4%."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExtractText_FallsBackToBody(t *testing.T) {
	t.Parallel()

	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(`<html><body><div>Only   a div</div><script>x()</script></body></html>`))
	if got := ExtractText(doc); got != "Only a div" {
		t.Fatalf("got %q", got)
	}
}

func TestFetch_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("missing user agent")
		}
		_, _ = w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	text, final, err := NewFetcher(srv.Client(), Options{}, nil).Fetch(context.Background(), srv.URL+"/news")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(text, "approved the new budget") {
		t.Fatalf("unexpected text %q", text)
	}
	if final != srv.URL+"/news" {
		t.Fatalf("final url = %q", final)
	}
}

func TestFetch_RetriesServiceUnavailable(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), Options{Retry: RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond}}, nil)
	if _, _, err := f.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestFetch_NotFoundIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), Options{Retry: RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond}}, nil)
	_, _, err := f.Fetch(context.Background(), srv.URL)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want 404 StatusError", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestFetch_EmptyPage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><script>only()</script></body></html>`))
	}))
	defer srv.Close()

	_, _, err := NewFetcher(srv.Client(), Options{}, nil).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrEmptyArticle) {
		t.Fatalf("err = %v, want ErrEmptyArticle", err)
	}
}

func TestRetryPolicy_GetRetryDelay(t *testing.T) {
	t.Parallel()

	rp := RetryPolicy{InitialDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, BackoffMultiplier: 2}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 0},
		{2, 100 * time.Millisecond},
		{3, 200 * time.Millisecond},
		{4, 300 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := rp.GetRetryDelay(tt.attempt); got != tt.want {
			t.Errorf("GetRetryDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
