package analysis

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Format of an export file.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts "csv" or "json", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON, "":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType for HTTP responses and object uploads.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json"
}

// ExportFileName follows fake_news_analysis_YYYYMMDD_HHMMSS.<ext>.
func ExportFileName(f Format, at time.Time) string {
	return fmt.Sprintf("fake_news_analysis_%s.%s", at.Format("20060102_150405"), f)
}

var csvHeader = []string{
	"id", "timestamp", "verdict", "credibility_score", "language",
	"model", "input_kind", "source_url", "input_excerpt", "rationale",
}

// Write serializes records in the given format, preserving their order.
func Write(w io.Writer, f Format, records []*Record) error {
	if f == FormatCSV {
		return WriteCSV(w, records)
	}
	return WriteJSON(w, records)
}

// WriteCSV writes one header row and one row per record.
func WriteCSV(w io.Writer, records []*Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			strconv.FormatInt(int64(r.ID), 10),
			r.Timestamp.UTC().Format(time.RFC3339),
			string(r.Verdict),
			strconv.Itoa(r.CredibilityScore),
			string(r.Language),
			r.Model,
			string(r.InputKind),
			r.SourceURL,
			r.InputExcerpt,
			r.Rationale,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes an indented array. Non-ASCII text is kept as is.
func WriteJSON(w io.Writer, records []*Record) error {
	if records == nil {
		records = []*Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}
