package analysis

import "sort"

// Summary holds aggregate statistics over a record set.
type Summary struct {
	Count         int             `json:"count"`
	AverageScore  float64         `json:"average_score"`
	VerdictCounts map[Verdict]int `json:"verdict_counts"`
}

// Summarize computes count, mean score and verdict distribution. The average
// of an empty set is reported as 0. All three verdicts are always present.
func Summarize(records []*Record) Summary {
	s := Summary{VerdictCounts: make(map[Verdict]int, len(Verdicts))}
	for _, v := range Verdicts {
		s.VerdictCounts[v] = 0
	}
	total := 0
	for _, r := range records {
		s.Count++
		total += r.CredibilityScore
		s.VerdictCounts[NormalizeVerdict(string(r.Verdict))]++
	}
	if s.Count > 0 {
		s.AverageScore = float64(total) / float64(s.Count)
	}
	return s
}

// ScoreBucket counts records whose score falls in [Low, High].
type ScoreBucket struct {
	Low   int `json:"low"`
	High  int `json:"high"`
	Count int `json:"count"`
}

// Dashboard is the summary plus the score histogram and latest records.
type Dashboard struct {
	Summary
	ScoreHistogram []ScoreBucket `json:"score_histogram"`
	Recent         []*Record     `json:"recent"`
}

// RecentLimit is the number of records shown on the dashboard.
const RecentLimit = 5

// BuildDashboard derives the dashboard from records ordered newest first.
func BuildDashboard(records []*Record) Dashboard {
	d := Dashboard{Summary: Summarize(records), ScoreHistogram: Histogram(records)}
	n := min(len(records), RecentLimit)
	d.Recent = append([]*Record{}, records[:n]...)
	return d
}

// Histogram buckets scores by tens: 0-9, 10-19, ..., 90-100.
func Histogram(records []*Record) []ScoreBucket {
	buckets := make([]ScoreBucket, 10)
	for i := range buckets {
		buckets[i] = ScoreBucket{Low: i * 10, High: i*10 + 9}
	}
	buckets[9].High = MaxScore
	for _, r := range records {
		idx := ClampScore(r.CredibilityScore) / 10
		if idx > 9 {
			idx = 9
		}
		buckets[idx].Count++
	}
	return buckets
}

// SortNewestFirst orders records by timestamp then id, both descending.
func SortNewestFirst(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		return records[i].ID > records[j].ID
	})
}
