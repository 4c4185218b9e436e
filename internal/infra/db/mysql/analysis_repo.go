package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/bryanwahyu/newscheck/internal/domain/analysis"
)

const table = "fake_news_analyses"

const schema = `
CREATE TABLE IF NOT EXISTS fake_news_analyses (
  id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
  created_at DATETIME(6) NOT NULL,
  input_excerpt TEXT NOT NULL,
  source_url VARCHAR(2048) NOT NULL DEFAULT '',
  language VARCHAR(16) NOT NULL,
  verdict VARCHAR(16) NOT NULL,
  credibility_score TINYINT UNSIGNED NOT NULL,
  rationale TEXT NOT NULL,
  model VARCHAR(128) NOT NULL DEFAULT '',
  input_kind VARCHAR(8) NOT NULL DEFAULT 'text',
  KEY idx_fake_news_analyses_created (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

var columns = []string{
	"id", "created_at", "input_excerpt", "source_url", "language",
	"verdict", "credibility_score", "rationale", "model", "input_kind",
}

type AnalysisRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewAnalysisRepository(db *sql.DB, now func() time.Time) *AnalysisRepository {
	if now == nil {
		now = time.Now
	}
	return &AnalysisRepository{db: db, now: now}
}

// EnsureSchema creates the history table when missing.
func (r *AnalysisRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return persistErr("create schema", err)
	}
	return nil
}

func (r *AnalysisRepository) Insert(ctx context.Context, d analysis.Draft) (*analysis.Record, error) {
	// DATETIME(6) keeps microseconds
	ts := r.now().UTC().Truncate(time.Microsecond)
	rec := analysis.NewRecord(0, ts, d)

	q, args, err := sq.Insert(table).
		Columns(columns[1:]...).
		Values(rec.Timestamp, rec.InputExcerpt, rec.SourceURL, string(rec.Language),
			string(rec.Verdict), rec.CredibilityScore, rec.Rationale, rec.Model, string(rec.InputKind)).
		ToSql()
	if err != nil {
		return nil, persistErr("build insert", err)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, persistErr("insert analysis", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, persistErr("insert analysis", err)
	}
	rec.ID = analysis.ID(id)
	return rec, nil
}

func (r *AnalysisRepository) List(ctx context.Context, f analysis.Filter) ([]*analysis.Record, error) {
	q, args, err := listQuery(f).ToSql()
	if err != nil {
		return nil, persistErr("build list", err)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, persistErr("list analyses", err)
	}
	defer rows.Close()

	out := []*analysis.Record{}
	for rows.Next() {
		var rec analysis.Record
		var lang, verdict, kind string
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.InputExcerpt, &rec.SourceURL, &lang,
			&verdict, &rec.CredibilityScore, &rec.Rationale, &rec.Model, &kind); err != nil {
			return nil, persistErr("scan analysis", err)
		}
		rec.Language = analysis.Language(lang)
		rec.Verdict = analysis.NormalizeVerdict(verdict)
		rec.InputKind = analysis.InputKind(kind)
		rec.Timestamp = rec.Timestamp.UTC()
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list analyses", err)
	}
	return out, nil
}

func listQuery(f analysis.Filter) sq.SelectBuilder {
	b := sq.Select(columns...).From(table).OrderBy("created_at DESC", "id DESC")
	if f.Verdict != "" {
		b = b.Where(sq.Eq{"verdict": string(f.Verdict)})
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		b = b.Where("LOWER(input_excerpt) LIKE ?", "%"+escapeLikePattern(strings.ToLower(s))+"%")
	}
	return b
}

func (r *AnalysisRepository) Delete(ctx context.Context, id analysis.ID) (bool, error) {
	q, args, err := sq.Delete(table).Where(sq.Eq{"id": int64(id)}).ToSql()
	if err != nil {
		return false, persistErr("build delete", err)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, persistErr("delete analysis", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, persistErr("delete analysis", err)
	}
	return n > 0, nil
}

// Clear deletes rows instead of TRUNCATE so AUTO_INCREMENT keeps counting.
func (r *AnalysisRepository) Clear(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM "+table)
	if err != nil {
		return 0, persistErr("clear analyses", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, persistErr("clear analyses", err)
	}
	return int(n), nil
}
