// Package config holds the runtime configuration for linkrot.
package config
