package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/newscheck/internal/app"
	"github.com/bryanwahyu/newscheck/internal/config"
	"github.com/bryanwahyu/newscheck/internal/format"
	"github.com/bryanwahyu/newscheck/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootOptions struct {
	configPath string
	storePath  string
	output     string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "newscheck",
		Short: "Assess news credibility with a language model and keep a local history",
		Long: "newscheck sends pasted text, a PDF or a fetched article to a chat model,\n" +
			"records its Fake/Real/Uncertain verdict with a 0-100 credibility score,\n" +
			"and lets you browse, summarize and export the history.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", config.PathFromEnv(), "Path to config.yaml")
	pf.StringVar(&opts.storePath, "store", "", "Override store.path from config")
	pf.StringVarP(&opts.output, "output", "o", "table", "Output: table, markdown or json")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Log pipeline steps to stderr")

	root.AddCommand(
		newAnalyzeCmd(opts),
		newHistoryCmd(opts),
		newDeleteCmd(opts),
		newClearCmd(opts),
		newStatsCmd(opts),
		newExportCmd(opts),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openApp loads config and wires the service. Logs go to stderr and are
// silent unless --verbose is set.
func openApp(cmd *cobra.Command, opts *rootOptions) (*app.App, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.storePath != "" {
		cfg.Store.Path = opts.storePath
	}
	logger := logging.Discard()
	if opts.verbose {
		logger = logging.NewWithWriter(cmd.ErrOrStderr(), "debug", "text")
	}
	return app.New(cmd.Context(), cfg, logger)
}

func (o *rootOptions) jsonOutput() bool { return o.output == "json" }

func (o *rootOptions) tableMode() (format.Mode, error) {
	return format.ParseMode(o.output)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
