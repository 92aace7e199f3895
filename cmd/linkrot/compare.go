package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkrot/internal/config"
	"github.com/nao1215/linkrot/internal/database"
)

// Constants for comparison direction.
const (
	directionWorsened  = "worsened"
	directionImproved  = "improved"
	directionUnchanged = "unchanged"
)

// NewCompareCmd creates the compare command.
// This command compares check results with historical data stored in the
// database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [site-root]",
		Short: "Compare check results with historical data",
		Long: `Compare displays differences between the two most recent checks of a site.

This command retrieves historical check data from the database and shows:
- Broken links that appeared since the previous check
- Broken links that were fixed
- The overall direction of change

The comparison requires at least two saved checks for the specified site
root. Use 'linkrot check' to run checks; they are saved automatically
unless --no-db is given.

Examples:
  # Compare the latest two checks of a site
  linkrot compare public/

  # List all check history for a site
  linkrot compare --list public/

  # Compare the latest check with a specific historical run by ID
  linkrot compare --with-run-id 5 public/

  # Output comparison in JSON format
  linkrot compare --json public/

  # List all site roots in the database
  linkrot compare --list-roots`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List check history for the specified site root")
	cmd.Flags().BoolP("list-roots", "L", false,
		"List all site roots in the database")

	// Comparison target flags
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare with a specific run by ID (use --list to see available IDs)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")

	// Database location
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory holding the history database")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	listRoots, err := cmd.Flags().GetBool("list-roots")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database (unless --list-roots)
	var root string
	if !listRoots {
		if len(args) == 0 {
			return errors.New("site root is required (use --list-roots to see available roots)")
		}
		root = args[0]
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	// Compare never creates the database; an empty history cannot be
	// compared anyway.
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false

	db, err := database.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("failed to open database (run 'linkrot check' first): %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	// Handle --list-roots flag
	if listRoots {
		return listCheckedRoots(ctx, db, out)
	}

	// Handle --list flag
	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listCheckHistory(ctx, db, root, out)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	withRunID, err := cmd.Flags().GetInt64("with-run-id")
	if err != nil {
		return err
	}

	return runComparison(ctx, db, root, withRunID, jsonOutput, out)
}

// listCheckedRoots lists all site roots that have check records in the
// database.
func listCheckedRoots(ctx context.Context, db *database.HistoryDB, out io.Writer) error {
	roots, err := db.ListRoots(ctx)
	if err != nil {
		return fmt.Errorf("failed to list roots: %w", err)
	}

	if len(roots) == 0 {
		fmt.Fprintln(out, "No checked site roots found in the database.")
		fmt.Fprintln(out, "\nUse 'linkrot check <site-root>' to check a site.")
		return nil
	}

	fmt.Fprintf(out, "Checked site roots (%d):\n\n", len(roots))
	for _, r := range roots {
		fmt.Fprintf(out, "  • %s\n", r)
	}
	fmt.Fprintln(out, "\nUse 'linkrot compare --list <site-root>' to see check history for a site.")

	return nil
}

// listCheckHistory lists all check records for a specific site root.
func listCheckHistory(ctx context.Context, db *database.HistoryDB, root string, out io.Writer) error {
	runs, err := db.ListRuns(ctx, root)
	if err != nil {
		return fmt.Errorf("failed to get check history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No check history found for %s\n", root)
		fmt.Fprintln(out, "\nUse 'linkrot check' to check this site.")
		return nil
	}

	fmt.Fprintf(out, "Check history for %s (%d checks):\n\n", root, len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-10s  %-8s  %s\n", "ID", "Date", "Documents", "Broken", "Errors")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 60))

	for _, run := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %-10d  %-8d  %d\n",
			run.ID,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.DocumentCount,
			run.BrokenCount,
			run.ErrorCount,
		)
	}

	fmt.Fprintln(out, "\nUse 'linkrot compare <site-root>' to compare the latest two checks.")
	fmt.Fprintln(out, "Use 'linkrot compare --with-run-id <id> <site-root>' to compare with a specific check.")

	return nil
}

// ComparisonResult holds the result of comparing two check runs.
type ComparisonResult struct {
	// Root is the site root that was checked.
	Root string `json:"root"`

	// PreviousRun contains metadata about the previous check.
	PreviousRun RunMetadata `json:"previous_run"`

	// CurrentRun contains metadata about the current check.
	CurrentRun RunMetadata `json:"current_run"`

	// NewBroken contains targets broken now but not in the previous check.
	NewBroken []string `json:"new_broken,omitempty"`

	// FixedBroken contains targets broken previously but resolved now.
	FixedBroken []string `json:"fixed_broken,omitempty"`

	// UnchangedCount is the number of targets broken in both checks.
	UnchangedCount int `json:"unchanged_count"`

	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`
}

// RunMetadata contains metadata about a check run for comparison display.
type RunMetadata struct {
	// ID is the run's database identifier.
	ID int64 `json:"id"`

	// StartedAt is when the check was performed.
	StartedAt time.Time `json:"started_at"`

	// DocumentCount is the number of documents scanned.
	DocumentCount int `json:"document_count"`

	// BrokenCount is the number of broken targets.
	BrokenCount int `json:"broken_count"`
}

// runComparison performs the actual comparison between check runs.
func runComparison(ctx context.Context, db *database.HistoryDB, root string, withRunID int64, jsonOutput bool, out io.Writer) error {
	runs, err := db.ListRuns(ctx, root)
	if err != nil {
		return fmt.Errorf("failed to get check history: %w", err)
	}

	if len(runs) == 0 {
		return fmt.Errorf("no check history found for %s", root)
	}
	if len(runs) < 2 && withRunID == 0 {
		return fmt.Errorf("at least 2 checks are required for comparison (found %d)", len(runs))
	}

	// Latest run is always the current one
	current := runs[0]

	var previous database.RunSummary
	if withRunID > 0 {
		found := false
		for _, run := range runs {
			if run.ID == withRunID {
				previous = run
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("run with ID %d not found for %s (use --list to see available IDs)", withRunID, root)
		}
	} else {
		previous = runs[1]
	}

	result, err := compareRuns(ctx, db, root, previous, current)
	if err != nil {
		return err
	}

	if jsonOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}
	return outputComparisonText(result, out)
}

// compareRuns diffs the broken targets of two runs.
func compareRuns(ctx context.Context, db *database.HistoryDB, root string, previous, current database.RunSummary) (*ComparisonResult, error) {
	previousHrefs, err := db.BrokenHrefs(ctx, previous.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load broken links of run %d: %w", previous.ID, err)
	}
	currentHrefs, err := db.BrokenHrefs(ctx, current.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load broken links of run %d: %w", current.ID, err)
	}

	result := &ComparisonResult{
		Root:        root,
		PreviousRun: runMetadata(previous),
		CurrentRun:  runMetadata(current),
	}

	previousSet := make(map[string]bool, len(previousHrefs))
	for _, href := range previousHrefs {
		previousSet[href] = true
	}
	currentSet := make(map[string]bool, len(currentHrefs))
	for _, href := range currentHrefs {
		currentSet[href] = true
	}

	// BrokenHrefs returns sorted slices, so the diff slices stay sorted.
	for _, href := range currentHrefs {
		if !previousSet[href] {
			result.NewBroken = append(result.NewBroken, href)
		} else {
			result.UnchangedCount++
		}
	}
	for _, href := range previousHrefs {
		if !currentSet[href] {
			result.FixedBroken = append(result.FixedBroken, href)
		}
	}

	switch {
	case len(result.NewBroken) > 0:
		result.Direction = directionWorsened
	case len(result.FixedBroken) > 0:
		result.Direction = directionImproved
	default:
		result.Direction = directionUnchanged
	}

	return result, nil
}

// runMetadata converts a run summary for comparison display.
func runMetadata(run database.RunSummary) RunMetadata {
	return RunMetadata{
		ID:            run.ID,
		StartedAt:     run.StartedAt,
		DocumentCount: run.DocumentCount,
		BrokenCount:   run.BrokenCount,
	}
}

// outputComparisonText outputs the comparison result in human-readable
// text format.
func outputComparisonText(result *ComparisonResult, out io.Writer) error {
	fmt.Fprintf(out, "Check Comparison: %s\n", result.Root)
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintf(out, "\nStatus: %s\n", formatDirection(result.Direction))

	fmt.Fprintf(out, "\nPrevious check: %s (run %d, %d broken)\n",
		result.PreviousRun.StartedAt.Format("2006-01-02 15:04:05"),
		result.PreviousRun.ID,
		result.PreviousRun.BrokenCount)
	fmt.Fprintf(out, "Current check:  %s (run %d, %d broken)\n",
		result.CurrentRun.StartedAt.Format("2006-01-02 15:04:05"),
		result.CurrentRun.ID,
		result.CurrentRun.BrokenCount)

	if len(result.NewBroken) > 0 {
		fmt.Fprintf(out, "\nNew broken links (%d):\n", len(result.NewBroken))
		for _, href := range result.NewBroken {
			fmt.Fprintf(out, "  [+] %s\n", href)
		}
	}

	if len(result.FixedBroken) > 0 {
		fmt.Fprintf(out, "\nFixed links (%d):\n", len(result.FixedBroken))
		for _, href := range result.FixedBroken {
			fmt.Fprintf(out, "  [-] %s\n", href)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Fprintf(out, "\nStill broken: %d link(s)\n", result.UnchangedCount)
	}

	return nil
}

// formatDirection formats the comparison direction for display.
func formatDirection(direction string) string {
	switch direction {
	case directionImproved:
		return "IMPROVED (links fixed)"
	case directionWorsened:
		return "WORSENED (new broken links)"
	default:
		return "UNCHANGED"
	}
}
