package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appanalysis "github.com/bryanwahyu/newscheck/internal/application/analysis"
	domai "github.com/bryanwahyu/newscheck/internal/domain/ai"
	domain "github.com/bryanwahyu/newscheck/internal/domain/analysis"
	"github.com/bryanwahyu/newscheck/internal/middleware"
)

// errBadRequest marks malformed request bodies and parameters.
var errBadRequest = errors.New("bad request")

// DefaultMaxUploadBytes bounds the multipart PDF upload.
const DefaultMaxUploadBytes = 20 << 20

// Options configures the HTTP surface.
type Options struct {
	Logger         *slog.Logger
	Metrics        *middleware.Metrics
	RateLimiter    *middleware.RateLimiter
	HealthCheckers map[string]middleware.HealthChecker
	AllowedOrigins []string
	MaxUploadBytes int64
}

type Router struct {
	svc     *appanalysis.Service
	log     *slog.Logger
	metrics *middleware.Metrics
	maxPDF  int64
}

func NewRouter(svc *appanalysis.Service, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = middleware.NewMetrics()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	r := &Router{svc: svc, log: opts.Logger, metrics: opts.Metrics, maxPDF: opts.MaxUploadBytes}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.LoggingMiddleware(opts.Logger))
	mux.Use(opts.Metrics.Middleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
	if opts.RateLimiter != nil {
		mux.Use(middleware.RateLimitMiddleware(opts.RateLimiter))
	}

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/ready", middleware.ReadinessHandler(opts.HealthCheckers))
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", opts.Metrics.Handler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/analyses", r.wrap(r.handleAnalyze))
		rt.Post("/analyses/pdf", r.wrap(r.handleAnalyzePDF))
		rt.Get("/analyses", r.wrap(r.handleHistory))
		rt.Delete("/analyses", r.wrap(r.handleClear))
		rt.Delete("/analyses/{id}", r.wrap(r.handleDelete))
		rt.Get("/dashboard", r.wrap(r.handleDashboard))
		rt.Get("/export", r.wrap(r.handleExport))
		rt.Post("/export/archive", r.wrap(r.handleExportArchive))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				r.log.Error("request failed", "path", req.URL.Path, "error", err)
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
		}
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrEmptyInput),
		errors.Is(err, domain.ErrUnknownInputKind),
		errors.Is(err, domain.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnsupportedLanguage),
		errors.Is(err, domain.ErrExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domai.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrFetch):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, appanalysis.ErrArchiveDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// POST /v1/analyses
// Body: {"kind": "text|url", "text": "...", "url": "...", "language": "English"}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Kind     string `json:"kind"`
		Text     string `json:"text"`
		URL      string `json:"url"`
		Language string `json:"language"`
	}
	dec := json.NewDecoder(io.LimitReader(req.Body, r.maxPDF))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	kind := body.Kind
	if kind == "" {
		kind = string(domain.KindPastedText)
		if body.URL != "" && body.Text == "" {
			kind = string(domain.KindURLFetch)
		}
	}
	k, err := domain.ParseInputKind(kind)
	if err != nil {
		return err
	}

	in := domain.Input{Kind: k}
	switch k {
	case domain.KindPastedText:
		in.Text = middleware.SanitizeString(body.Text)
	case domain.KindURLFetch:
		in.URL = strings.TrimSpace(body.URL)
		if in.URL == "" {
			return domain.ErrEmptyInput
		}
		if err := middleware.ValidateURL(in.URL); err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
	case domain.KindPdfUpload:
		return fmt.Errorf("%w: pdf input goes to /v1/analyses/pdf", errBadRequest)
	}

	return r.analyze(w, req, appanalysis.AnalyzeCommand{Input: in, Language: body.Language})
}

// POST /v1/analyses/pdf (multipart: file, language)
func (r *Router) handleAnalyzePDF(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxPDF+1<<20)
	if err := req.ParseMultipartForm(8 << 20); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	f, _, err := req.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return domain.ErrEmptyInput
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, r.maxPDF+1))
	if err != nil {
		return fmt.Errorf("%w: read upload: %v", errBadRequest, err)
	}
	if int64(len(data)) > r.maxPDF {
		return fmt.Errorf("%w: upload exceeds %d bytes", domain.ErrExtraction, r.maxPDF)
	}

	return r.analyze(w, req, appanalysis.AnalyzeCommand{
		Input:    domain.Input{Kind: domain.KindPdfUpload, PDF: data},
		Language: req.FormValue("language"),
	})
}

func (r *Router) analyze(w http.ResponseWriter, req *http.Request, cmd appanalysis.AnalyzeCommand) error {
	res, err := r.svc.Analyze(req.Context(), cmd)
	if err != nil {
		r.metrics.RecordAnalysisFailure()
		return err
	}
	r.metrics.RecordAnalysis(string(res.Record.Verdict))
	writeJSON(w, http.StatusCreated, res)
	return nil
}

// GET /v1/analyses?verdict=&q=
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	list, err := r.svc.History(req.Context(), q.Get("verdict"), middleware.SanitizeSearch(q.Get("q")))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(list), "records": list})
	return nil
}

// DELETE /v1/analyses/{id}
func (r *Router) handleDelete(w http.ResponseWriter, req *http.Request) error {
	id, err := middleware.ValidateRecordID(chi.URLParam(req, "id"))
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	ok, err := r.svc.Delete(req.Context(), domain.ID(id))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: record %d", domain.ErrNotFound, id)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// DELETE /v1/analyses
func (r *Router) handleClear(w http.ResponseWriter, req *http.Request) error {
	n, err := r.svc.Clear(req.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
	return nil
}

// GET /v1/dashboard
func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) error {
	d, err := r.svc.Dashboard(req.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, d)
	return nil
}

// GET /v1/export?format=csv|json
func (r *Router) handleExport(w http.ResponseWriter, req *http.Request) error {
	f, err := domain.ParseFormat(req.URL.Query().Get("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	// Rendered in memory first so a store failure can still become a JSON error.
	var buf strings.Builder
	name, err := r.svc.Export(req.Context(), &buf, f)
	if err != nil {
		return err
	}
	r.metrics.RecordExport()
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, err = io.WriteString(w, buf.String())
	return err
}

// POST /v1/export/archive
func (r *Router) handleExportArchive(w http.ResponseWriter, req *http.Request) error {
	out, err := r.svc.ExportArchive(req.Context())
	if err != nil {
		return err
	}
	r.metrics.RecordExport()
	writeJSON(w, http.StatusCreated, map[string]any{"exports": out})
	return nil
}
