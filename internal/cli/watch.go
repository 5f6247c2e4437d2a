package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/logwhy/logwhy/internal/common"
	"github.com/logwhy/logwhy/internal/config"
	"github.com/logwhy/logwhy/internal/grouper"
	"github.com/yildizm/go-logparser"
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Watch a log file and group new errors in real time",
		Long: `Monitor a log file for changes and fold new entries into error groups
as they are written.

Each time a group gains occurrences, its updated count is printed. AI
analysis is not run in watch mode; pipe interesting output through
'logwhy investigate' instead. Press Ctrl+C to stop watching.

Examples:
  logwhy watch app.log
  logwhy watch --min-severity error /var/log/service.log`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}
	cmd.Flags().StringVar(&watchMinSeverity, "min-severity", "", "lowest severity to group (trace..fatal)")
	return cmd
}

var watchMinSeverity string

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if watchMinSeverity != "" {
		cfg.Grouping.MinSeverity = watchMinSeverity
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	filename := filepath.Clean(args[0])

	watcher, file, cleanup, err := setupFileWatcher(filename)
	if err != nil {
		return err
	}
	defer cleanup()

	return runWatchLoop(cmd.Context(), cfg, watcher, file)
}

// watchState accumulates group counts across batches so repeated errors
// show a running total instead of restarting at one.
type watchState struct {
	grouper *grouper.Grouper
	parser  logparser.Parser
	counts  map[string]int
}

func newWatchState(cfg *config.Config) *watchState {
	opts := grouper.Options{
		BySeverity:  cfg.Grouping.BySeverity,
		MinSeverity: common.ParseSeverity(cfg.Grouping.MinSeverity),
		MaxExamples: cfg.Grouping.MaxExamples,
	}
	if opts.MinSeverity == common.SeverityUnknown {
		opts.MinSeverity = common.SeverityWarn
	}
	return &watchState{
		grouper: grouper.New(opts),
		counts:  make(map[string]int),
	}
}

// processNewLines reads appended lines, groups them, and prints updated
// group counts.
func (w *watchState) processNewLines(file *os.File) error {
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	var newLines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			newLines = append(newLines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}
	if len(newLines) == 0 {
		return nil
	}

	if w.parser == nil {
		w.parser = logparser.New()
	}

	parsed, err := w.parser.ParseString(strings.Join(newLines, "\n"))
	if err != nil {
		if isVerbose() {
			fmt.Fprintf(os.Stderr, "Failed to parse lines: %v\n", err)
		}
		return nil
	}

	// Only attribute raw lines when the parser kept a one-to-one mapping,
	// otherwise a dropped or merged line would misalign every later entry.
	aligned := len(parsed) == len(newLines)

	entries := make([]*common.LogEntry, len(parsed))
	for i := range parsed {
		raw := ""
		if aligned {
			raw = newLines[i]
		}
		entries[i] = &common.LogEntry{
			Timestamp: parsed[i].Timestamp,
			Severity:  common.ParseSeverity(parsed[i].Level),
			Message:   parsed[i].Message,
			Raw:       raw,
		}
	}

	for _, group := range w.grouper.Group(entries) {
		w.counts[group.Fingerprint] += group.Count
		fmt.Printf("[%s] %s ×%d %s\n",
			group.Fingerprint,
			group.Severity,
			w.counts[group.Fingerprint],
			group.Pattern)
	}
	return nil
}

// cleanupWatcher safely closes the watcher with error logging.
func cleanupWatcher(watcher *fsnotify.Watcher) {
	if err := watcher.Close(); err != nil && isVerbose() {
		fmt.Fprintf(os.Stderr, "Warning: failed to close watcher: %v\n", err)
	}
}

// cleanupFile safely closes the file with error logging.
func cleanupFile(file *os.File) {
	if err := file.Close(); err != nil && isVerbose() {
		fmt.Fprintf(os.Stderr, "Warning: failed to close file: %v\n", err)
	}
}

// setupFileWatcher creates the fsnotify watcher and opens the file seeked
// to its end, so only appended lines are processed.
func setupFileWatcher(filename string) (*fsnotify.Watcher, *os.File, func(), error) {
	info, err := os.Stat(filename)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return nil, nil, nil, fmt.Errorf("cannot watch directory, must be a file")
	}

	if isVerbose() {
		fmt.Fprintf(os.Stderr, "Watching file: %s\n", filename)
		fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop...\n\n")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filename); err != nil {
		cleanupWatcher(watcher)
		return nil, nil, nil, fmt.Errorf("failed to watch file: %w", err)
	}

	// #nosec G304 - operator-supplied path
	file, err := os.Open(filename)
	if err != nil {
		cleanupWatcher(watcher)
		return nil, nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		cleanupWatcher(watcher)
		cleanupFile(file)
		return nil, nil, nil, fmt.Errorf("failed to seek to end of file: %w", err)
	}

	cleanup := func() {
		cleanupWatcher(watcher)
		cleanupFile(file)
	}
	return watcher, file, cleanup, nil
}

// runWatchLoop runs the main watch loop with signal handling.
func runWatchLoop(parent context.Context, cfg *config.Config, watcher *fsnotify.Watcher, file *os.File) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	state := newWatchState(cfg)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-signals:
			if isVerbose() {
				fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, stopping...\n")
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				if err := state.processNewLines(file); err != nil && isVerbose() {
					fmt.Fprintf(os.Stderr, "Error processing new lines: %v\n", err)
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			if isVerbose() {
				fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)
			}
		}
	}
}
