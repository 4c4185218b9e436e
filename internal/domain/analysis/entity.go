package analysis

import (
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// ID of a stored analysis record
type ID int64

// Verdict enum
type Verdict string

const (
	VerdictFake      Verdict = "Fake"
	VerdictReal      Verdict = "Real"
	VerdictUncertain Verdict = "Uncertain"
)

// Verdicts lists every verdict in display order.
var Verdicts = []Verdict{VerdictFake, VerdictReal, VerdictUncertain}

// NormalizeVerdict maps any token case-insensitively onto one of the three
// verdicts. Unknown tokens become Uncertain.
func NormalizeVerdict(s string) Verdict {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fake":
		return VerdictFake
	case "real":
		return VerdictReal
	default:
		return VerdictUncertain
	}
}

// ParseVerdictFilter parses a user supplied verdict filter. Empty and "all"
// mean no filter.
func ParseVerdictFilter(s string) (Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return "", nil
	case "fake":
		return VerdictFake, nil
	case "real":
		return VerdictReal, nil
	case "uncertain":
		return VerdictUncertain, nil
	}
	return "", ErrInvalidFilter
}

// Language enum
type Language string

const (
	LanguageEnglish Language = "English"
	LanguageHindi   Language = "Hindi"
	LanguageTelugu  Language = "Telugu"
	LanguageSpanish Language = "Spanish"
	LanguageFrench  Language = "French"
)

// Languages lists the supported analysis languages.
var Languages = []Language{LanguageEnglish, LanguageHindi, LanguageTelugu, LanguageSpanish, LanguageFrench}

var languageCodes = map[string]Language{
	"en": LanguageEnglish,
	"hi": LanguageHindi,
	"te": LanguageTelugu,
	"es": LanguageSpanish,
	"fr": LanguageFrench,
}

// ParseLanguage accepts a language name or its ISO 639-1 code, case-insensitively.
// Empty input selects English.
func ParseLanguage(s string) (Language, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return LanguageEnglish, nil
	}
	if l, ok := languageCodes[v]; ok {
		return l, nil
	}
	for _, l := range Languages {
		if strings.ToLower(string(l)) == v {
			return l, nil
		}
	}
	return "", ErrUnsupportedLanguage
}

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	for _, v := range Languages {
		if v == l {
			return true
		}
	}
	return false
}

// InputKind is the closed set of article sources.
type InputKind string

const (
	KindPastedText InputKind = "text"
	KindPdfUpload  InputKind = "pdf"
	KindURLFetch   InputKind = "url"
)

// ParseInputKind maps API/CLI spellings onto an InputKind.
func ParseInputKind(s string) (InputKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "pasted_text", "paste":
		return KindPastedText, nil
	case "pdf", "pdf_upload":
		return KindPdfUpload, nil
	case "url", "url_fetch":
		return KindURLFetch, nil
	}
	return "", ErrUnknownInputKind
}

// Input is one raw article submission. Only the field matching Kind is read.
type Input struct {
	Kind InputKind
	Text string
	PDF  []byte
	URL  string
}

// Article is normalized article text ready for prompting.
type Article struct {
	Text      string
	SourceURL string
	Stats     TextStats
}

// TextStats describes the normalized text.
type TextStats struct {
	Characters int `json:"characters"`
	Words      int `json:"words"`
	Lines      int `json:"lines"`
}

// ComputeStats counts runes, whitespace separated words and lines.
func ComputeStats(text string) TextStats {
	if text == "" {
		return TextStats{}
	}
	return TextStats{
		Characters: len([]rune(text)),
		Words:      len(strings.Fields(text)),
		Lines:      strings.Count(text, "\n") + 1,
	}
}

// Draft is a record before the store assigns ID and timestamp.
type Draft struct {
	InputExcerpt     string
	SourceURL        string
	Language         Language
	Verdict          Verdict
	CredibilityScore int
	Rationale        string
	Model            string
	InputKind        InputKind
}

// Record is one persisted analysis.
type Record struct {
	ID               ID        `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	InputExcerpt     string    `json:"input_excerpt"`
	SourceURL        string    `json:"source_url,omitempty"`
	Language         Language  `json:"language"`
	Verdict          Verdict   `json:"verdict"`
	CredibilityScore int       `json:"credibility_score"`
	Rationale        string    `json:"rationale"`
	Model            string    `json:"model,omitempty"`
	InputKind        InputKind `json:"input_kind,omitempty"`
}

// NewRecord materializes a draft under an assigned id. Verdict and score are
// normalized again so no backend can persist an out-of-range value.
func NewRecord(id ID, ts time.Time, d Draft) *Record {
	return &Record{
		ID:               id,
		Timestamp:        ts.UTC(),
		InputExcerpt:     d.InputExcerpt,
		SourceURL:        d.SourceURL,
		Language:         d.Language,
		Verdict:          NormalizeVerdict(string(d.Verdict)),
		CredibilityScore: ClampScore(d.CredibilityScore),
		Rationale:        d.Rationale,
		Model:            d.Model,
		InputKind:        d.InputKind,
	}
}

// Filter narrows List results. Zero value matches everything.
type Filter struct {
	Verdict Verdict
	Search  string
}

// Match applies the filter in memory, for backends without a query engine.
func (f Filter) Match(r *Record) bool {
	if f.Verdict != "" && r.Verdict != f.Verdict {
		return false
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		return strings.Contains(strings.ToLower(r.InputExcerpt), strings.ToLower(q))
	}
	return true
}

const (
	MinScore     = 0
	MaxScore     = 100
	DefaultScore = 50
)

// ClampScore forces a score into [0,100].
func ClampScore(n int) int {
	if n < MinScore {
		return MinScore
	}
	if n > MaxScore {
		return MaxScore
	}
	return n
}

// DefaultExcerptWidth is the display width kept from the article text.
const DefaultExcerptWidth = 300

// Excerpt truncates text to width display columns, appending "..." when cut.
// A width <= 0 keeps the full text.
func Excerpt(text string, width int) string {
	if width <= 0 || runewidth.StringWidth(text) <= width {
		return text
	}
	return runewidth.Truncate(text, width, "") + "..."
}
