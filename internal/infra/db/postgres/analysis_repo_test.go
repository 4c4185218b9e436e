package postgres

import (
	"strings"
	"testing"

	"github.com/bryanwahyu/newscheck/internal/domain/analysis"
)

func TestListQuery_DollarPlaceholders(t *testing.T) {
	t.Parallel()

	q, args, err := listQuery(analysis.Filter{Verdict: analysis.VerdictReal, Search: "Budget"}).ToSql()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(q, "verdict = $1") || !strings.Contains(q, "LIKE $2") {
		t.Fatalf("unexpected placeholders: %s", q)
	}
	if len(args) != 2 || args[1] != "%budget%" {
		t.Fatalf("args = %v", args)
	}
}

func TestEscapeLikePattern(t *testing.T) {
	t.Parallel()

	if got := escapeLikePattern(`a_b%c\d`); got != `a\_b\%c\\d` {
		t.Fatalf("got %q", got)
	}
}
