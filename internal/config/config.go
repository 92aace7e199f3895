package config

import (
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "linkrot"

	// DefaultConfigFile is the default configuration file name, searched
	// for in the site root, the current directory, and the home
	// directory.
	DefaultConfigFile = ".linkrot"
)

// DefaultJobs returns the default number of concurrent document scans.
// Scanning is CPU-bound (the documents are read fully into memory first),
// so one worker per CPU is the sweet spot.
func DefaultJobs() int {
	return runtime.NumCPU()
}

// Config holds all configuration options for linkrot.
// This struct is populated from CLI flags and the optional .linkrot file,
// and passed through the application via dependency injection rather than
// global state.
type Config struct {
	// Roots are the site root directories to check. Each root is checked
	// independently; hrefs never resolve across roots.
	Roots []string

	// CheckAnchors enables anchor tracking: uses keep their fragments,
	// id and a/name attributes become definitions, and a use with a
	// fragment must match a definition exactly.
	CheckAnchors bool

	// GetParagraphs enables paragraph fingerprinting so broken links are
	// reported with the fingerprint of their enclosing paragraph.
	GetParagraphs bool

	// Jobs is the maximum number of documents scanned concurrently
	// within one root.
	Jobs int

	// IgnorePatterns are glob patterns (matched against root-relative
	// paths) for files and directories to skip during discovery.
	IgnorePatterns []string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// ConfigFilePath is the path to the configuration file. If empty,
	// the tool searches for .linkrot in the current directory and then
	// in the user's home directory.
	ConfigFilePath string

	// NoDB disables scan-history persistence. When false, every check
	// is saved to the SQLite database under the XDG data directory so
	// `linkrot compare` can diff runs.
	NoDB bool

	// DBDir is the directory holding the history database.
	DBDir string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Jobs:  DefaultJobs(),
		DBDir: XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for linkrot.
// On Linux: ~/.local/share/linkrot
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for linkrot.
// On Linux: ~/.config/linkrot
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid. It returns the first
// problem found; fixing one error often makes the rest irrelevant.
func (c *Config) Validate() error {
	if len(c.Roots) == 0 {
		return ErrNoRoot
	}

	if c.Jobs <= 0 {
		return ErrInvalidJobs
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

// ApplyFile overlays settings from a loaded configuration file. CLI flags
// win: file values are applied only where the config still carries its
// zero/default value.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}

	if !c.CheckAnchors && f.CheckAnchors {
		c.CheckAnchors = true
	}
	if !c.GetParagraphs && f.Paragraphs {
		c.GetParagraphs = true
	}
	if f.Jobs > 0 && c.Jobs == DefaultJobs() {
		c.Jobs = f.Jobs
	}
	if len(f.Ignore) > 0 {
		c.IgnorePatterns = append(c.IgnorePatterns, f.Ignore...)
	}
}
