package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/logwhy/logwhy/internal/ai"
	"github.com/logwhy/logwhy/internal/common"
	"github.com/logwhy/logwhy/internal/config"
	"github.com/logwhy/logwhy/internal/formatter"
	"github.com/logwhy/logwhy/internal/grouper"
	"github.com/logwhy/logwhy/internal/parser"
)

var (
	investigateFormat      string
	investigateAI          bool
	investigateProvider    string
	investigateModel       string
	investigateConcurrency int
	investigateNoCache     bool
	investigateMaxLines    int
	investigateTimeout     time.Duration
	investigateMinSeverity string
	investigateOutputFile  string
)

func newInvestigateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "investigate [file]",
		Short: "Group log errors and explain them with AI",
		Long: `Investigate log files for recurring errors.

If no file is specified, reads from stdin. Entries are normalized and
grouped by pattern, then each group is analyzed by the configured AI
provider unless --ai=false.

Examples:
  logwhy investigate app.log
  logwhy investigate --format json --min-severity error access.log
  cat app.log | logwhy investigate --ai=false
  logwhy investigate --provider openai --model gpt-4o app.log`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInvestigate,
	}

	cmd.Flags().StringVarP(&investigateFormat, "format", "f", "auto", "log format (auto, json, logfmt, text)")
	cmd.Flags().BoolVar(&investigateAI, "ai", true, "analyze groups with the AI provider")
	cmd.Flags().StringVar(&investigateProvider, "provider", "", "AI provider (ollama, openai)")
	cmd.Flags().StringVar(&investigateModel, "model", "", "AI model override")
	cmd.Flags().IntVar(&investigateConcurrency, "concurrency", 0, "concurrent AI calls (1-20)")
	cmd.Flags().BoolVar(&investigateNoCache, "no-cache", false, "bypass the response cache")
	cmd.Flags().IntVar(&investigateMaxLines, "max-lines", parser.DefaultMaxLines, "maximum lines to read")
	cmd.Flags().DurationVar(&investigateTimeout, "timeout", 5*time.Minute, "overall run timeout")
	cmd.Flags().StringVar(&investigateMinSeverity, "min-severity", "", "lowest severity to group (trace..fatal)")
	cmd.Flags().StringVar(&investigateOutputFile, "output-file", "", "save output to file instead of stdout")

	return cmd
}

func runInvestigate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigWithOverrides(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), investigateTimeout)
	defer cancel()

	reader, cleanup, err := setupInputReader(args)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	entries, err := parser.Parse(reader, investigateFormat, investigateMaxLines)
	if err != nil {
		return err
	}
	if isVerbose() {
		fmt.Fprintf(os.Stderr, "Parsed %d log entries\n", len(entries))
	}

	groups := groupEntries(cfg, entries)
	if isVerbose() {
		fmt.Fprintf(os.Stderr, "Found %d error groups\n", len(groups))
	}

	report := &formatter.Report{
		GeneratedAt:  time.Now(),
		TotalEntries: len(entries),
		Groups:       groups,
	}

	if investigateAI && len(groups) > 0 {
		results, stats, err := analyzeGroups(ctx, cfg, groups)
		if err != nil {
			return err
		}
		report.Results = results
		report.Statistics = stats
	}

	return renderReport(cfg, report)
}

// loadConfigWithOverrides loads configuration and applies flag overrides.
func loadConfigWithOverrides(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if investigateProvider != "" {
		cfg.AI.Provider = investigateProvider
	}
	if investigateModel != "" {
		cfg.AI.Model = investigateModel
	}
	if investigateConcurrency != 0 {
		cfg.AI.Concurrency = investigateConcurrency
	}
	if investigateNoCache {
		cfg.AI.CacheEnabled = false
	}
	if investigateMinSeverity != "" {
		cfg.Grouping.MinSeverity = investigateMinSeverity
	}
	if cmd.Flag("output").Changed {
		cfg.Output.Format = getOutputFormat()
	}
	if noColor {
		cfg.Output.NoColor = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// groupEntries runs the grouping pass with configured options.
func groupEntries(cfg *config.Config, entries []*common.LogEntry) []*grouper.ErrorGroup {
	opts := grouper.Options{
		BySeverity:  cfg.Grouping.BySeverity,
		MinSeverity: common.ParseSeverity(cfg.Grouping.MinSeverity),
		MaxExamples: cfg.Grouping.MaxExamples,
	}
	if opts.MinSeverity == common.SeverityUnknown {
		opts.MinSeverity = common.SeverityWarn
	}
	return grouper.New(opts).Group(entries)
}

// analyzeGroups runs the AI analysis pipeline over the groups.
func analyzeGroups(ctx context.Context, cfg *config.Config, groups []*grouper.ErrorGroup) ([]ai.GroupResult, *ai.Statistics, error) {
	provider, err := createProvider(cfg)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := provider.Close(); err != nil && isVerbose() {
			fmt.Fprintf(os.Stderr, "Warning: failed to close provider: %v\n", err)
		}
	}()

	var cache *ai.Cache
	if cfg.AI.CacheEnabled {
		cache, _, err = openCacheAt(cfg)
		if err != nil {
			// Cache trouble degrades to uncached analysis.
			fmt.Fprintf(os.Stderr, "Warning: cache unavailable: %v\n", err)
			cache = nil
		} else {
			defer func() { _ = cache.Close() }()
		}
	}

	orchestrator, err := createOrchestrator(provider, cache, cfg)
	if err != nil {
		return nil, nil, err
	}

	showProgress := cfg.Output.ShowProgress && cfg.Output.Format != "json"
	if showProgress {
		orchestrator.OnProgress = func(snap ai.Snapshot) {
			fmt.Fprintf(os.Stderr, "\r%s", snap.FormatBar())
		}
	}

	if isVerbose() {
		fmt.Fprintf(os.Stderr, "Analyzing %d groups with %s/%s...\n",
			len(groups), provider.Name(), provider.Model())
	}

	results, stats, err := orchestrator.AnalyzeAll(ctx, groups)
	if showProgress {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("analysis failed: %w", err)
	}
	return results, stats, nil
}

// renderReport formats the report and writes it to the configured sink.
func renderReport(cfg *config.Config, report *formatter.Report) error {
	f, err := formatter.New(cfg.Output.Format, !cfg.Output.NoColor)
	if err != nil {
		return err
	}

	output, err := f.Format(report)
	if err != nil {
		return fmt.Errorf("format output: %w", err)
	}

	if investigateOutputFile != "" {
		if err := os.WriteFile(filepath.Clean(investigateOutputFile), output, 0o644); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
		if isVerbose() {
			fmt.Fprintf(os.Stderr, "Output saved to: %s\n", investigateOutputFile)
		}
		return nil
	}

	fmt.Print(string(output))
	return nil
}

// setupInputReader sets up the input reader based on command args.
func setupInputReader(args []string) (reader io.Reader, cleanup func(), err error) {
	if len(args) == 0 {
		if isVerbose() {
			fmt.Fprintf(os.Stderr, "Reading from stdin...\n")
		}
		return os.Stdin, nil, nil
	}

	filename := filepath.Clean(args[0])

	info, err := os.Stat(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot access file %s: %w", filename, err)
	}
	if info.IsDir() {
		return nil, nil, fmt.Errorf("path is a directory, not a file: %s", filename)
	}

	// #nosec G304 - operator-supplied path
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file %s: %w", filename, err)
	}

	cleanup = func() {
		if err := file.Close(); err != nil && isVerbose() {
			fmt.Fprintf(os.Stderr, "Warning: failed to close file: %v\n", err)
		}
	}

	if isVerbose() {
		fmt.Fprintf(os.Stderr, "Investigating file: %s\n", filename)
	}
	return file, cleanup, nil
}
