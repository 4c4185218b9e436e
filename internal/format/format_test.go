package format

import (
	"strings"
	"testing"
	"time"

	"github.com/bryanwahyu/newscheck/internal/domain/analysis"
)

func sample() []*analysis.Record {
	ts := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	return []*analysis.Record{
		{ID: 2, Timestamp: ts.Add(time.Minute), Verdict: analysis.VerdictReal, CredibilityScore: 91, Language: analysis.LanguageEnglish, InputExcerpt: "Council approves\nbudget", Rationale: "Matches official minutes."},
		{ID: 1, Timestamp: ts, Verdict: analysis.VerdictFake, CredibilityScore: 4, Language: analysis.LanguageHindi, InputExcerpt: "Coffee cures all diseases", Rationale: "No evidence."},
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ASCII, "table": ASCII, "MD": Markdown, "markdown": Markdown} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMode("html"); err == nil {
		t.Fatal("expected error for html")
	}
}

func TestHistory(t *testing.T) {
	out := History(sample(), ASCII)
	for _, want := range []string{"Council approves budget", "Coffee cures all diseases", "2024-05-01 09:31:00", "Fake", "91"} {
		if !strings.Contains(out, want) {
			t.Errorf("history table missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Council") > strings.Index(out, "Coffee") {
		t.Fatal("row order not preserved")
	}
}

func TestHistoryMarkdown(t *testing.T) {
	out := History(sample(), Markdown)
	if !strings.HasPrefix(out, "| ID |") {
		t.Fatalf("markdown table = %q", out)
	}
}

func TestRecord(t *testing.T) {
	r := sample()[0]
	r.SourceURL = "https://news.example.com/budget"
	out := Record(r, ASCII)
	if !strings.Contains(out, "91/100") || !strings.Contains(out, "https://news.example.com/budget") {
		t.Fatalf("record table:\n%s", out)
	}
}

func TestDashboard(t *testing.T) {
	records := sample()
	out := Dashboard(analysis.BuildDashboard(records), ASCII)
	for _, want := range []string{"47.5", "50.0%", "90-100", "Recent analyses"} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard missing %q:\n%s", want, out)
		}
	}

	empty := Dashboard(analysis.BuildDashboard(nil), ASCII)
	if !strings.Contains(empty, "0.0%") || strings.Contains(empty, "Recent analyses") {
		t.Fatalf("empty dashboard:\n%s", empty)
	}
}

func TestBar(t *testing.T) {
	if bar(0, 5, 10) != "" || bar(5, 5, 10) != strings.Repeat("#", 10) || bar(1, 100, 10) != "#" {
		t.Fatal("bar scaling off")
	}
}
