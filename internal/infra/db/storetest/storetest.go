// Package storetest exercises any analysis.Repository the same way, so the
// file, sqlite, mysql and postgres stores share one behavioural suite.
package storetest

import (
	"context"
	"testing"

	"github.com/bryanwahyu/newscheck/internal/domain/analysis"
)

// Run expects an empty repository.
func Run(t *testing.T, repo analysis.Repository) {
	t.Helper()
	ctx := context.Background()

	fake, err := repo.Insert(ctx, analysis.Draft{
		InputExcerpt: "Coffee cures 100% of diseases", Language: analysis.LanguageEnglish,
		Verdict: analysis.VerdictFake, CredibilityScore: 4, Rationale: "no trials",
		Model: "gemini-1.5-flash", InputKind: analysis.KindPastedText,
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	budget, err := repo.Insert(ctx, analysis.Draft{
		InputExcerpt: "City Budget approved", Language: analysis.LanguageFrench,
		Verdict: analysis.VerdictReal, CredibilityScore: 88, Rationale: "officiel",
		Model: "gemini-1.5-flash", InputKind: analysis.KindURLFetch, SourceURL: "https://example.com/budget",
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if budget.ID <= fake.ID || budget.Timestamp.IsZero() {
		t.Fatalf("ids not increasing or timestamp unset: %+v %+v", fake, budget)
	}

	all, err := repo.List(ctx, analysis.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].ID != budget.ID || all[1].ID != fake.ID {
		t.Fatalf("List order = %+v", all)
	}
	got := all[0]
	if !got.Timestamp.Equal(budget.Timestamp) || got.SourceURL != budget.SourceURL || got.Language != analysis.LanguageFrench ||
		got.Verdict != analysis.VerdictReal || got.CredibilityScore != 88 || got.InputKind != analysis.KindURLFetch {
		t.Fatalf("round trip lost fields: got %+v, want %+v", got, budget)
	}

	for _, tc := range []struct {
		filter analysis.Filter
		want   analysis.ID
	}{
		{analysis.Filter{Search: "budget"}, budget.ID},
		{analysis.Filter{Search: "100%"}, fake.ID},
		{analysis.Filter{Verdict: analysis.VerdictFake}, fake.ID},
		{analysis.Filter{Verdict: analysis.VerdictReal, Search: "CITY"}, budget.ID},
	} {
		hits, err := repo.List(ctx, tc.filter)
		if err != nil {
			t.Fatalf("List(%+v): %v", tc.filter, err)
		}
		if len(hits) != 1 || hits[0].ID != tc.want {
			t.Fatalf("List(%+v) = %+v", tc.filter, hits)
		}
	}
	if hits, _ := repo.List(ctx, analysis.Filter{Search: "snake_case"}); len(hits) != 0 {
		t.Fatalf("wildcard leaked into search: %+v", hits)
	}

	ok, err := repo.Delete(ctx, fake.ID)
	if err != nil || !ok {
		t.Fatalf("Delete = %v, %v", ok, err)
	}
	if ok, err := repo.Delete(ctx, fake.ID); err != nil || ok {
		t.Fatalf("second Delete = %v, %v", ok, err)
	}

	n, err := repo.Clear(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Clear = %d, %v", n, err)
	}
	if all, _ := repo.List(ctx, analysis.Filter{}); len(all) != 0 {
		t.Fatalf("records after Clear: %+v", all)
	}

	next, err := repo.Insert(ctx, analysis.Draft{
		InputExcerpt: "after clear", Language: analysis.LanguageEnglish,
		Verdict: analysis.VerdictUncertain, CredibilityScore: analysis.DefaultScore, Rationale: "r",
		InputKind: analysis.KindPastedText,
	})
	if err != nil {
		t.Fatalf("Insert after Clear: %v", err)
	}
	if next.ID <= budget.ID {
		t.Fatalf("id %d reused after clear (last %d)", next.ID, budget.ID)
	}
}

// Reset empties a repository left over from an earlier run.
func Reset(t *testing.T, repo analysis.Repository) {
	t.Helper()
	if _, err := repo.Clear(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
}
