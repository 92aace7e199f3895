package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .linkrot configuration file.
type File struct {
	// CheckAnchors enables anchor tracking for every check of this site.
	CheckAnchors bool `yaml:"checkAnchors,omitempty"`

	// Paragraphs enables paragraph fingerprinting.
	Paragraphs bool `yaml:"paragraphs,omitempty"`

	// Jobs overrides the number of concurrent document scans.
	Jobs int `yaml:"jobs,omitempty"`

	// Ignore are glob patterns for root-relative paths to skip,
	// e.g. "drafts" or "*/generated.html".
	Ignore []string `yaml:"ignore,omitempty"`
}

// LoadConfigFile loads settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound. Callers should
// handle this error based on whether the path was explicitly specified by
// the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	return &f, nil
}

// FindConfigFile searches for the configuration file in the following order:
//  1. If configPath is specified, use it directly
//  2. Look for .linkrot in the site root
//  3. Look for .linkrot in the current directory
//  4. Look for .linkrot in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if
// not found.
func FindConfigFile(configPath, siteRoot string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if siteRoot != "" {
		rootConfig := filepath.Join(siteRoot, DefaultConfigFile)
		if _, err := os.Stat(rootConfig); err == nil {
			return rootConfig
		}
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
