package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkrot/internal/config"
	"github.com/nao1215/linkrot/internal/database"
	"github.com/nao1215/linkrot/internal/intern"
	"github.com/nao1215/linkrot/internal/log"
	"github.com/nao1215/linkrot/internal/model"
	"github.com/nao1215/linkrot/internal/pipeline"
	"github.com/nao1215/linkrot/internal/report"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [site-root...]",
		Short: "Check a static site for broken internal links",
		Long: `Check scans every HTML document under the given site roots and reports
links whose target does not exist.

Hrefs are resolved the way a web server would serve them: relative to the
directory of the document they appear in, with index.html folding, and never
escaping the site root. External links (http://, https://, mailto: and
friends) are skipped; this tool checks the site against itself, offline.

Examples:
  # Check a rendered site
  linkrot check public/

  # Also verify #fragment references against id and a-name definitions
  linkrot check --check-anchors public/

  # Fingerprint the paragraph around each link for move detection
  linkrot check --check-anchors --paragraphs public/

  # Check multiple independent site roots
  linkrot check docs/site blog/site

  # Output JSON report to a file
  linkrot check --json -o report.json public/

  # Skip generated files
  linkrot check --ignore "drafts" --ignore "*/search.html" public/

Exit status is 1 when broken links or document errors are found, so the
command can gate CI jobs directly.`,
		Args: cobra.ArbitraryArgs,
		RunE: runCheckCmd,
	}

	// Scan behavior flags
	cmd.Flags().BoolP("check-anchors", "a", false,
		"Verify #fragment references against anchor definitions")
	cmd.Flags().BoolP("paragraphs", "p", false,
		"Fingerprint the paragraph enclosing each link")
	cmd.Flags().IntP("jobs", "j", config.DefaultJobs(),
		"Number of documents scanned concurrently")
	cmd.Flags().StringSliceP("ignore", "i", nil,
		"Glob pattern for root-relative paths to skip (repeatable)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .linkrot in site root, current, or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "J", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// History flags
	cmd.Flags().Bool("no-db", false,
		"Do not save this check to the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory holding the history database")

	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with paths relative to the working
	// directory
	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}
	logger := log.NewLogger(os.Stderr, cwd, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCheck(ctx, cfg, logger, cmd.OutOrStdout())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.CheckAnchors, err = cmd.Flags().GetBool("check-anchors")
	if err != nil {
		return nil, err
	}

	cfg.GetParagraphs, err = cmd.Flags().GetBool("paragraphs")
	if err != nil {
		return nil, err
	}

	cfg.Jobs, err = cmd.Flags().GetInt("jobs")
	if err != nil {
		return nil, err
	}

	cfg.IgnorePatterns, err = cmd.Flags().GetStringSlice("ignore")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.NoDB, err = cmd.Flags().GetBool("no-db")
	if err != nil {
		return nil, err
	}

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Get positional arguments (site roots)
	cfg.Roots = args

	// Overlay settings from the config file. CLI flags win.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently skip when no file is found.
	explicitConfigPath := cfg.ConfigFilePath != ""

	var siteRoot string
	if len(cfg.Roots) > 0 {
		siteRoot = cfg.Roots[0]
	}

	configPath := config.FindConfigFile(cfg.ConfigFilePath, siteRoot)
	if configPath != "" {
		f, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(f)
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	return cfg, nil
}

// runCheck executes the check over every configured site root.
func runCheck(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer) error {
	logger.Info("starting check",
		"roots", cfg.Roots,
		"checkAnchors", cfg.CheckAnchors,
		"paragraphs", cfg.GetParagraphs,
		"jobs", cfg.Jobs,
	)

	// Resolve the report destination once so multi-root checks share one
	// output file instead of overwriting each other.
	if cfg.ReportFile != "" {
		f, err := createReportFile(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		stdout = f
	}

	// Open database connection unless history is disabled
	var saver pipeline.ReportSaver
	if !cfg.NoDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		saver = db
		logger.Info("database opened", "db", cfg.DBDir)
	}

	// One shared interner across every root: hrefs repeat heavily between
	// documents and the scan workers access it concurrently.
	store := intern.NewInterner()

	factory := func(root string) *pipeline.Pipeline {
		p := pipeline.New(
			pipeline.WithLogger(logger),
		)
		p.AddSteps(
			optionsStamp{checkAnchors: cfg.CheckAnchors, getParagraphs: cfg.GetParagraphs},
			pipeline.NewDiscoverStep(
				pipeline.WithDiscoverIgnorePatterns(cfg.IgnorePatterns),
				pipeline.WithDiscoverLogger(logger),
			),
			pipeline.NewScanStep(store,
				pipeline.WithScanJobs(cfg.Jobs),
				pipeline.WithScanAnchors(cfg.CheckAnchors),
				pipeline.WithScanParagraphs(cfg.GetParagraphs),
				pipeline.WithScanLogger(logger),
			),
			pipeline.NewReconcileStep(cfg.CheckAnchors),
			pipeline.NewHistoryStep(saver, logger),
		)
		return p
	}

	// Check multiple roots concurrently
	if len(cfg.Roots) > 1 {
		return runBatchCheck(ctx, cfg, factory, logger, stdout)
	}

	// Single root
	root := cfg.Roots[0]
	rep := model.NewCheckReport(root)

	if err := factory(root).Execute(ctx, rep); err != nil {
		return fmt.Errorf("check failed for %s: %w", root, err)
	}
	rep.Elapsed = time.Since(rep.StartedAt)

	if err := outputReport(cfg, rep, stdout); err != nil {
		return err
	}

	if rep.HasFindings() {
		return ErrFindings
	}
	return nil
}

// runBatchCheck checks multiple site roots concurrently.
func runBatchCheck(ctx context.Context, cfg *config.Config, factory func(root string) *pipeline.Pipeline, logger *slog.Logger, stdout io.Writer) error {
	bp := pipeline.NewBatchProcessor(factory,
		pipeline.WithBatchConcurrency(len(cfg.Roots)),
		pipeline.WithBatchLogger(logger),
	)

	var mu sync.Mutex
	var findings bool
	var outputErr error

	err := bp.ProcessBatchWithCallback(ctx, cfg.Roots, func(rep *model.CheckReport, _ int) {
		mu.Lock()
		defer mu.Unlock()

		if err := outputReport(cfg, rep, stdout); err != nil && outputErr == nil {
			outputErr = err
		}
		if rep.HasFindings() {
			findings = true
		}
	})
	if err != nil {
		return err
	}
	if outputErr != nil {
		return outputErr
	}

	if findings {
		return ErrFindings
	}
	return nil
}

// optionsStamp records the check options on the report so they survive
// into the serialized output and the history database.
type optionsStamp struct {
	checkAnchors  bool
	getParagraphs bool
}

// Name returns the step name.
func (s optionsStamp) Name() string {
	return "stamp-options"
}

// Do records the options on the report.
func (s optionsStamp) Do(_ context.Context, rep *model.CheckReport) error {
	rep.CheckAnchors = s.checkAnchors
	rep.GetParagraphs = s.getParagraphs
	return nil
}

// createReportFile creates the report output file, making parent
// directories as needed. The file is created with 0600 permissions.
func createReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// outputReport outputs the check report in the requested format.
func outputReport(cfg *config.Config, rep *model.CheckReport, output io.Writer) error {
	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := w.Write(rep)
	return err
}
