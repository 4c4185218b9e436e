package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	domain "github.com/bryanwahyu/newscheck/internal/domain/analysis"
)

type exportOptions struct {
	format  string
	out     string
	archive bool
}

func newExportCmd(root *rootOptions) *cobra.Command {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the full history as CSV or JSON",
		Long: "Writes every stored analysis, newest first. Without --out the file is\n" +
			"named fake_news_analysis_<timestamp>.<ext> in the current directory;\n" +
			"--out - writes to stdout. --archive uploads both formats to the\n" +
			"configured MinIO bucket instead.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, root, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.format, "format", "csv", "csv or json")
	f.StringVar(&opts.out, "out", "", "Output path, directory, or - for stdout")
	f.BoolVar(&opts.archive, "archive", false, "Upload CSV and JSON to object storage")
	cmd.MarkFlagsMutuallyExclusive("archive", "out")
	return cmd
}

func runExport(cmd *cobra.Command, root *rootOptions, opts *exportOptions) error {
	fm, err := domain.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	a, err := openApp(cmd, root)
	if err != nil {
		return err
	}
	defer a.Close()
	out := cmd.OutOrStdout()

	if opts.archive {
		archived, err := a.Service.ExportArchive(cmd.Context())
		if err != nil {
			return err
		}
		if root.jsonOutput() {
			return writeJSON(out, archived)
		}
		for _, e := range archived {
			fmt.Fprintf(out, "%s\t%d records\t%s\n", e.Format, e.Records, e.URL)
		}
		return nil
	}

	var buf bytes.Buffer
	name, err := a.Service.Export(cmd.Context(), &buf, fm)
	if err != nil {
		return err
	}
	if opts.out == "-" {
		_, err := out.Write(buf.Bytes())
		return err
	}

	path := name
	if opts.out != "" {
		path = opts.out
		if info, err := os.Stat(opts.out); err == nil && info.IsDir() {
			path = filepath.Join(opts.out, name)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(out, "Exported to %s\n", path)
	return nil
}
