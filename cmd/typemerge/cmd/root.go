package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile      string
	logLevel     string
	logFormat    string
	documentPath string
	typeFamily   string
)

var rootCmd = &cobra.Command{
	Use:   "typemerge",
	Short: "Duplicate element type merger for document stores",
	Long: `A CLI tool for consolidating duplicate element types in a transactional
document store so the duplicates can finally be purged.

Duplicate types resist purging while hidden instances keep referencing
them. Typemerge probes each duplicate's delete cascade to find those
instances, reassigns every reference to a replacement type in two
transactional sweeps, and verifies nothing still points at the
duplicates afterwards.

Features:
  - Trial-delete probing with guaranteed rollback
  - Two-phase reassignment tolerant of per-instance failures
  - Umbrella transaction group (one undo step per run)
  - Interactive or scripted purge/replacement selection
  - Post-merge reference verification`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "typemerge.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Document overrides
	rootCmd.PersistentFlags().StringVarP(&documentPath, "document", "d", "",
		"Override document store directory")
	rootCmd.PersistentFlags().StringVar(&typeFamily, "family", "",
		"Override the type family to operate on")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel  string
	LogFormat string
	Document  string
	Family    string
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:  logLevel,
		LogFormat: logFormat,
		Document:  documentPath,
		Family:    typeFamily,
	}
}
