package analysis

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func rec(id ID, score int, v Verdict, at time.Time) *Record {
	return &Record{ID: id, Timestamp: at, CredibilityScore: score, Verdict: v, Language: LanguageEnglish}
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	got := Summarize(nil)
	want := Summary{
		Count:         0,
		AverageScore:  0,
		VerdictCounts: map[Verdict]int{VerdictFake: 0, VerdictReal: 0, VerdictUncertain: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Summarize(nil) mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize_AverageAndCounts(t *testing.T) {
	t.Parallel()

	now := time.Now()
	got := Summarize([]*Record{rec(2, 90, VerdictReal, now), rec(1, 10, VerdictFake, now)})
	if got.Count != 2 {
		t.Fatalf("count = %d, want 2", got.Count)
	}
	if got.AverageScore != 50 {
		t.Fatalf("average = %v, want 50", got.AverageScore)
	}
	sum := 0
	for _, n := range got.VerdictCounts {
		sum += n
	}
	if sum != 2 {
		t.Fatalf("verdict counts sum = %d, want 2", sum)
	}
	if got.VerdictCounts[VerdictUncertain] != 0 {
		t.Fatalf("uncertain = %d, want 0", got.VerdictCounts[VerdictUncertain])
	}
}

func TestBuildDashboard(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var records []*Record
	for i := 7; i >= 1; i-- {
		records = append(records, rec(ID(i), i*14, VerdictUncertain, base.Add(time.Duration(i)*time.Minute)))
	}
	d := BuildDashboard(records)

	if len(d.Recent) != RecentLimit {
		t.Fatalf("recent = %d, want %d", len(d.Recent), RecentLimit)
	}
	if d.Recent[0].ID != 7 {
		t.Fatalf("first recent id = %d, want 7", d.Recent[0].ID)
	}
	if len(d.ScoreHistogram) != 10 {
		t.Fatalf("histogram buckets = %d, want 10", len(d.ScoreHistogram))
	}
	total := 0
	for _, b := range d.ScoreHistogram {
		total += b.Count
	}
	if total != 7 {
		t.Fatalf("histogram total = %d, want 7", total)
	}
	// 98 lands in the last bucket
	if d.ScoreHistogram[9].Count != 1 || d.ScoreHistogram[9].High != 100 {
		t.Fatalf("last bucket = %+v", d.ScoreHistogram[9])
	}
}

func TestHistogram_PerfectScore(t *testing.T) {
	t.Parallel()

	h := Histogram([]*Record{rec(1, 100, VerdictReal, time.Now()), rec(2, 0, VerdictFake, time.Now())})
	if h[9].Count != 1 || h[0].Count != 1 {
		t.Fatalf("histogram = %+v", h)
	}
}

func TestSortNewestFirst(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []*Record{
		rec(1, 0, VerdictFake, at),
		rec(3, 0, VerdictFake, at.Add(time.Hour)),
		rec(2, 0, VerdictFake, at),
	}
	SortNewestFirst(records)
	var ids []ID
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]ID{3, 2, 1}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}
