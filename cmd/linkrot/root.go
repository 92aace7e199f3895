// Package main provides the entry point for the linkrot CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ErrFindings is returned by the check command when broken links or
// document errors were found. It drives the non-zero exit code that CI
// jobs depend on.
var ErrFindings = errors.New("broken links found")

// NewRootCmd creates the root command for linkrot.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkrot",
		Short: "Offline link checker for static sites",
		Long: `Linkrot checks a rendered static site for broken internal links.

It scans every HTML document under the site root, resolves relative and
absolute hrefs against the document they appear in, and reports links whose
target does not exist. With --check-anchors it also verifies that #fragment
references point at an existing id or named anchor.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command. Findings exit with code 1 like any other
// error, so a failing check fails the CI job that ran it.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
