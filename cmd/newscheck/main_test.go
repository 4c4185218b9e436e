package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	domain "github.com/bryanwahyu/newscheck/internal/domain/analysis"
	"github.com/bryanwahyu/newscheck/internal/infra/db/jsonfile"
)

// seededStore writes two records and returns the store path.
func seededStore(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"STORE_DRIVER", "STORE_PATH", "LOG_LEVEL", "PORT", "MODEL_BASE_URL"} {
		t.Setenv(k, "")
	}
	path := filepath.Join(t.TempDir(), "history.json")
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	st, err := jsonfile.Open(path, func() time.Time { now = now.Add(time.Minute); return now })
	if err != nil {
		t.Fatal(err)
	}
	drafts := []domain.Draft{
		{InputExcerpt: "Coffee cures all diseases", Language: domain.LanguageEnglish, Verdict: domain.VerdictFake, CredibilityScore: 4, Rationale: "No evidence.", InputKind: domain.KindPastedText},
		{InputExcerpt: "Council approves budget", Language: domain.LanguageEnglish, Verdict: domain.VerdictReal, CredibilityScore: 92, Rationale: "Matches minutes.", InputKind: domain.KindURLFetch, SourceURL: "https://news.example.com/budget"},
	}
	for _, d := range drafts {
		if _, err := st.Insert(context.Background(), d); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func baseArgs(store string) []string {
	return []string{"--config", filepath.Join(filepath.Dir(store), "absent.yaml"), "--store", store}
}

func TestHistoryCommand(t *testing.T) {
	store := seededStore(t)

	out, err := execute(t, append(baseArgs(store), "history")...)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if strings.Index(out, "Council approves budget") > strings.Index(out, "Coffee cures all diseases") {
		t.Fatalf("history not newest first:\n%s", out)
	}

	out, err = execute(t, append(baseArgs(store), "history", "--verdict", "Fake", "-o", "json")...)
	if err != nil {
		t.Fatalf("history json: %v", err)
	}
	var recs []domain.Record
	if err := json.Unmarshal([]byte(out), &recs); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(recs) != 1 || recs[0].ID != 1 {
		t.Fatalf("filtered = %+v", recs)
	}

	out, err = execute(t, append(baseArgs(store), "history", "--search", "nothing-matches")...)
	if err != nil || !strings.Contains(out, "No analyses found.") {
		t.Fatalf("empty search: %v %q", err, out)
	}

	if _, err := execute(t, append(baseArgs(store), "history", "--verdict", "Maybe")...); !errors.Is(err, domain.ErrInvalidFilter) {
		t.Fatalf("bad verdict err = %v", err)
	}
}

func TestStatsCommand(t *testing.T) {
	store := seededStore(t)

	out, err := execute(t, append(baseArgs(store), "stats", "-o", "json")...)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var d domain.Dashboard
	if err := json.Unmarshal([]byte(out), &d); err != nil {
		t.Fatal(err)
	}
	if d.Count != 2 || d.AverageScore != 48 || d.VerdictCounts[domain.VerdictUncertain] != 0 {
		t.Fatalf("dashboard = %+v", d)
	}

	out, err = execute(t, append(baseArgs(store), "stats")...)
	if err != nil || !strings.Contains(out, "48.0") {
		t.Fatalf("stats table: %v\n%s", err, out)
	}
}

func TestDeleteAndClearCommands(t *testing.T) {
	store := seededStore(t)

	out, err := execute(t, append(baseArgs(store), "delete", "1")...)
	if err != nil || !strings.Contains(out, "Deleted analysis #1") {
		t.Fatalf("delete: %v %q", err, out)
	}
	if _, err := execute(t, append(baseArgs(store), "delete", "1")...); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
	if _, err := execute(t, append(baseArgs(store), "delete", "x")...); err == nil {
		t.Fatal("non-numeric id should fail")
	}

	if _, err := execute(t, append(baseArgs(store), "clear")...); !errors.Is(err, errNeedConfirm) {
		t.Fatalf("clear without --yes err = %v", err)
	}
	out, err = execute(t, append(baseArgs(store), "clear", "--yes")...)
	if err != nil || !strings.Contains(out, "Removed 1 analyses") {
		t.Fatalf("clear: %v %q", err, out)
	}
}

func TestExportCommand(t *testing.T) {
	store := seededStore(t)
	dir := t.TempDir()

	out, err := execute(t, append(baseArgs(store), "export", "--format", "csv", "--out", dir)...)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "fake_news_analysis_*.csv"))
	if len(matches) != 1 || !strings.Contains(out, matches[0]) {
		t.Fatalf("export files = %v, out = %q", matches, out)
	}
	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[1][0] != "2" {
		t.Fatalf("rows = %v", rows)
	}

	out, err = execute(t, append(baseArgs(store), "export", "--format", "json", "--out", "-")...)
	if err != nil {
		t.Fatalf("export stdout: %v", err)
	}
	var recs []domain.Record
	if err := json.Unmarshal([]byte(out), &recs); err != nil || len(recs) != 2 {
		t.Fatalf("json export = %v %q", err, out)
	}

	if _, err := execute(t, append(baseArgs(store), "export", "--format", "xml")...); err == nil {
		t.Fatal("xml format should fail")
	}
}

func TestAnalyzeFlagValidation(t *testing.T) {
	store := seededStore(t)

	if _, err := execute(t, append(baseArgs(store), "analyze")...); err == nil {
		t.Fatal("analyze without input should fail")
	}
	if _, err := execute(t, append(baseArgs(store), "analyze", "--text", "a", "--url", "https://example.com")...); err == nil {
		t.Fatal("two inputs should fail")
	}
	if _, err := execute(t, append(baseArgs(store), "analyze", "--url", "http://127.0.0.1/x")...); !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("loopback url err = %v", err)
	}
	if _, err := execute(t, append(baseArgs(store), "analyze", "--text", "   ")...); !errors.Is(err, domain.ErrEmptyInput) {
		t.Fatalf("blank text err = %v", err)
	}
}
