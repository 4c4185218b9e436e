package sqlite

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bryanwahyu/newscheck/internal/domain/analysis"
)

// analysisRow is the gorm model of one history row.
type analysisRow struct {
	ID               int64     `gorm:"primaryKey;autoIncrement"`
	CreatedAt        time.Time `gorm:"index;not null"`
	InputExcerpt     string    `gorm:"not null"`
	SourceURL        string    `gorm:"not null;default:''"`
	Language         string    `gorm:"size:16;not null"`
	Verdict          string    `gorm:"size:16;not null;index"`
	CredibilityScore int       `gorm:"not null"`
	Rationale        string    `gorm:"not null"`
	Model            string    `gorm:"size:128;not null;default:''"`
	InputKind        string    `gorm:"size:8;not null;default:'text'"`
}

func (analysisRow) TableName() string { return "fake_news_analyses" }

func (r analysisRow) record() *analysis.Record {
	return &analysis.Record{
		ID:               analysis.ID(r.ID),
		Timestamp:        r.CreatedAt.UTC(),
		InputExcerpt:     r.InputExcerpt,
		SourceURL:        r.SourceURL,
		Language:         analysis.Language(r.Language),
		Verdict:          analysis.NormalizeVerdict(r.Verdict),
		CredibilityScore: r.CredibilityScore,
		Rationale:        r.Rationale,
		Model:            r.Model,
		InputKind:        analysis.InputKind(r.InputKind),
	}
}

type AnalysisRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// Open opens (or creates) the database file and migrates the history table.
func Open(path string, now func() time.Time) (*AnalysisRepository, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", analysis.ErrPersistence, err)
	}
	if err := db.AutoMigrate(&analysisRow{}); err != nil {
		return nil, fmt.Errorf("%w: migrate: %v", analysis.ErrPersistence, err)
	}
	if now == nil {
		now = time.Now
	}
	return &AnalysisRepository{db: db, now: now}, nil
}

// Close releases the underlying connection pool.
func (r *AnalysisRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the database connection.
func (r *AnalysisRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *AnalysisRepository) Insert(ctx context.Context, d analysis.Draft) (*analysis.Record, error) {
	rec := analysis.NewRecord(0, r.now().UTC().Truncate(time.Microsecond), d)
	row := analysisRow{
		CreatedAt:        rec.Timestamp,
		InputExcerpt:     rec.InputExcerpt,
		SourceURL:        rec.SourceURL,
		Language:         string(rec.Language),
		Verdict:          string(rec.Verdict),
		CredibilityScore: rec.CredibilityScore,
		Rationale:        rec.Rationale,
		Model:            rec.Model,
		InputKind:        string(rec.InputKind),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("%w: insert analysis: %v", analysis.ErrPersistence, err)
	}
	rec.ID = analysis.ID(row.ID)
	return rec, nil
}

func (r *AnalysisRepository) List(ctx context.Context, f analysis.Filter) ([]*analysis.Record, error) {
	q := r.db.WithContext(ctx).Model(&analysisRow{}).Order("created_at DESC").Order("id DESC")
	if f.Verdict != "" {
		q = q.Where("verdict = ?", string(f.Verdict))
	}
	var rows []analysisRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: list analyses: %v", analysis.ErrPersistence, err)
	}
	out := make([]*analysis.Record, 0, len(rows))
	for _, row := range rows {
		// SQLite's LOWER only folds ASCII, so search runs here.
		if rec := row.record(); f.Match(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *AnalysisRepository) Delete(ctx context.Context, id analysis.ID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&analysisRow{}, int64(id))
	if res.Error != nil {
		return false, fmt.Errorf("%w: delete analysis: %v", analysis.ErrPersistence, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *AnalysisRepository) Clear(ctx context.Context) (int, error) {
	res := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&analysisRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("%w: clear analyses: %v", analysis.ErrPersistence, res.Error)
	}
	return int(res.RowsAffected), nil
}
