package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/newscheck/internal/application"
	"github.com/bryanwahyu/newscheck/internal/domain/ai"
	domain "github.com/bryanwahyu/newscheck/internal/domain/analysis"
)

// ErrArchiveDisabled is returned by ExportArchive when no bucket is configured.
var ErrArchiveDisabled = errors.New("export archive storage is not configured")

// Service runs the analysis pipeline and serves the history views.
type Service struct {
	Repo       domain.Repository
	Normalizer *Normalizer
	Prompts    domain.PromptBuilder
	Model      ai.Client
	Exports    domain.ExportStore
	Clock      application.Clock
	Logger     *slog.Logger

	ModelTimeout time.Duration
	// DefaultLanguage applies when a command names no language.
	DefaultLanguage string
	// ExcerptWidth is the stored excerpt width in columns; 0 keeps full text.
	ExcerptWidth int
}

// AnalyzeCommand is one user submission.
type AnalyzeCommand struct {
	Input    domain.Input
	Language string
}

// AnalyzeResult is the stored record plus details of how it was produced.
type AnalyzeResult struct {
	Record      *domain.Record     `json:"record"`
	Stats       domain.TextStats   `json:"stats"`
	ParseMethod domain.ParseMethod `json:"parse_method"`
	RequestID   string             `json:"request_id"`
}

// Analyze runs normalize, prompt, model, parse and insert in sequence.
// Acquisition failures abort before anything is stored. A model reply that
// cannot be parsed, or a failed model call other than timeout or quota,
// still produces an Uncertain record.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (*AnalyzeResult, error) {
	reqID := uuid.NewString()
	log := s.logger().With("request_id", reqID, "input_kind", cmd.Input.Kind)

	requested := cmd.Language
	if strings.TrimSpace(requested) == "" {
		requested = s.DefaultLanguage
	}
	lang, err := domain.ParseLanguage(requested)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, requested)
	}

	article, err := s.Normalizer.Normalize(ctx, cmd.Input)
	if err != nil {
		log.Warn("input rejected", "error", err)
		return nil, err
	}
	log.Debug("input normalized", "chars", article.Stats.Characters, "words", article.Stats.Words)

	userPrompt, err := s.Prompts.Build(article.Text, lang)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	reply, err := s.callModel(ctx, ai.Prompt{System: s.Prompts.SystemPrompt(), User: userPrompt})
	var parsed domain.ParsedVerdict
	switch {
	case err == nil:
		parsed = domain.ParseResponse(reply)
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, ai.ErrQuotaExceeded), errors.Is(err, context.Canceled):
		log.Warn("model call aborted", "error", err, "elapsed", time.Since(started))
		return nil, err
	default:
		log.Error("model call failed, recording uncertain result", "error", err)
		parsed = domain.Unparsed()
		parsed.Rationale = "Model request failed: " + err.Error()
	}
	if parsed.Method != domain.MethodStructured {
		log.Warn("model reply not structured", "method", parsed.Method)
	}

	rec, err := s.Repo.Insert(ctx, domain.Draft{
		InputExcerpt:     domain.Excerpt(article.Text, s.ExcerptWidth),
		SourceURL:        article.SourceURL,
		Language:         lang,
		Verdict:          parsed.Verdict,
		CredibilityScore: parsed.Score,
		Rationale:        parsed.Rationale,
		Model:            s.Model.ModelName(),
		InputKind:        cmd.Input.Kind,
	})
	if err != nil {
		log.Error("store insert failed", "error", err)
		return nil, err
	}

	log.Info("analysis stored",
		"id", rec.ID,
		"verdict", rec.Verdict,
		"score", rec.CredibilityScore,
		"method", parsed.Method,
		"elapsed", time.Since(started),
	)
	return &AnalyzeResult{Record: rec, Stats: article.Stats, ParseMethod: parsed.Method, RequestID: reqID}, nil
}

func (s *Service) callModel(ctx context.Context, p ai.Prompt) (string, error) {
	callCtx := ctx
	if s.ModelTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.ModelTimeout)
		defer cancel()
	}
	reply, err := s.Model.Analyze(callCtx, p)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: model call exceeded %s", domain.ErrTimeout, s.ModelTimeout)
	}
	return reply, err
}

// History lists records newest first. verdict accepts "", "All" or a verdict name.
func (s *Service) History(ctx context.Context, verdict, search string) ([]*domain.Record, error) {
	v, err := domain.ParseVerdictFilter(verdict)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, verdict)
	}
	return s.Repo.List(ctx, domain.Filter{Verdict: v, Search: search})
}

// Delete removes one record. Deleting an unknown id reports false.
func (s *Service) Delete(ctx context.Context, id domain.ID) (bool, error) {
	ok, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	s.logger().Info("analysis deleted", "id", id, "removed", ok)
	return ok, nil
}

// Clear removes the whole history.
func (s *Service) Clear(ctx context.Context) (int, error) {
	n, err := s.Repo.Clear(ctx)
	if err != nil {
		return 0, err
	}
	s.logger().Info("history cleared", "removed", n)
	return n, nil
}

// Summary is recomputed from the full current history on every call.
func (s *Service) Summary(ctx context.Context) (domain.Summary, error) {
	records, err := s.Repo.List(ctx, domain.Filter{})
	if err != nil {
		return domain.Summary{}, err
	}
	return domain.Summarize(records), nil
}

// Dashboard adds the score histogram and latest records to the summary.
func (s *Service) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	records, err := s.Repo.List(ctx, domain.Filter{})
	if err != nil {
		return domain.Dashboard{}, err
	}
	return domain.BuildDashboard(records), nil
}

// Export writes the full unfiltered history and returns the suggested file name.
func (s *Service) Export(ctx context.Context, w io.Writer, f domain.Format) (string, error) {
	records, err := s.Repo.List(ctx, domain.Filter{})
	if err != nil {
		return "", err
	}
	if err := domain.Write(w, f, records); err != nil {
		return "", fmt.Errorf("write %s export: %w", f, err)
	}
	return domain.ExportFileName(f, s.now()), nil
}

// ArchivedExport describes one uploaded export file.
type ArchivedExport struct {
	Format  domain.Format `json:"format"`
	Key     string        `json:"key"`
	URL     string        `json:"url"`
	Records int           `json:"records"`
	Bytes   int           `json:"bytes"`
}

// ExportArchive renders CSV and JSON from one List call and uploads both
// concurrently.
func (s *Service) ExportArchive(ctx context.Context) ([]ArchivedExport, error) {
	if s.Exports == nil {
		return nil, ErrArchiveDisabled
	}
	records, err := s.Repo.List(ctx, domain.Filter{})
	if err != nil {
		return nil, err
	}

	now := s.now()
	prefix := fmt.Sprintf("exports/%s/%s", now.Format("2006-01-02"), uuid.NewString())
	formats := []domain.Format{domain.FormatCSV, domain.FormatJSON}
	out := make([]ArchivedExport, len(formats))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range formats {
		i, f := i, f
		var buf bytes.Buffer
		if err := domain.Write(&buf, f, records); err != nil {
			return nil, fmt.Errorf("write %s export: %w", f, err)
		}
		key := prefix + "/" + domain.ExportFileName(f, now)
		g.Go(func() error {
			size := buf.Len()
			u, err := s.Exports.Upload(gctx, key, &buf, int64(size), f.ContentType())
			if err != nil {
				return fmt.Errorf("upload %s: %w", key, err)
			}
			out[i] = ArchivedExport{Format: f, Key: key, URL: u, Records: len(records), Bytes: size}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.logger().Info("export archived", "prefix", prefix, "records", len(records))
	return out, nil
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
