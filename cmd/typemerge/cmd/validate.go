package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/typemerge/internal/config"
	"github.com/dbsmedya/typemerge/internal/docstore"
	"github.com/dbsmedya/typemerge/internal/logger"
	"github.com/dbsmedya/typemerge/internal/merger"
	"github.com/dbsmedya/typemerge/internal/selection"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and run preflight checks",
	Long: `Validate checks the configuration file and runs preflight checks
against the document store to ensure safe execution.

Checks performed:
  - Configuration syntax and required fields
  - Document store opens and loads
  - Type family has mergeable types
  - Referential integrity (dangling references)
  - Scripted selection entries resolve to types

Example:
  typemerge validate --config typemerge.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply CLI overrides
	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.Document, overrides.Family)

	// Initialize logger
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Info("Starting validation checks...")

	fmt.Printf("\n=== Configuration Validation ===\n")
	fmt.Printf("Config file: %s\n", configFile)
	fmt.Printf("Document: %s\n", cfg.Document.Path)
	fmt.Printf("Family: %s\n\n", cfg.Document.Family)

	hasErrors := false

	// Configuration fields
	if err := cfg.Validate(); err != nil {
		fmt.Printf("❌ Configuration invalid: %v\n", err)
		hasErrors = true
	} else {
		fmt.Printf("✅ Configuration valid\n")
	}

	// Document store
	ctx := context.Background()
	session, err := docstore.Open(ctx, docstore.Options{
		Path:       cfg.Document.Path,
		SyncWrites: cfg.Document.SyncWrites,
		Logger:     log,
	})
	if err != nil {
		fmt.Printf("❌ Document open failed: %v\n", err)
		return fmt.Errorf("validation found one or more problems")
	}
	defer session.Close()

	stats := session.Stats()
	fmt.Printf("✅ Document opened (%d types, %d instances, %d annotations)\n",
		stats.Types, stats.Instances, stats.Annotations)

	// Family catalog
	catalog, err := merger.NewCatalog(merger.NewSessionDocument(session))
	if err != nil {
		return fmt.Errorf("failed to create catalog: %w", err)
	}

	types, err := catalog.List(merger.FamilyFilter(cfg.Document.Family))
	switch {
	case err != nil:
		fmt.Printf("❌ Type enumeration failed: %v\n", err)
		hasErrors = true
	case len(types) < 2:
		fmt.Printf("❌ Family %q has %d type(s), a merge needs at least 2\n",
			cfg.Document.Family, len(types))
		hasErrors = true
	default:
		fmt.Printf("✅ Family %q has %d types\n", cfg.Document.Family, len(types))
	}

	// Referential integrity
	problems, err := session.Integrity()
	switch {
	case err != nil:
		fmt.Printf("❌ Integrity scan failed: %v\n", err)
		hasErrors = true
	case len(problems) > 0:
		fmt.Printf("❌ Integrity scan found %d dangling reference(s):\n", len(problems))
		for _, p := range problems {
			fmt.Printf("   - %s\n", p)
		}
		hasErrors = true
	default:
		fmt.Printf("✅ No dangling references\n")
	}

	// Scripted selection entries resolve against the family's catalog
	if cfg.Selection.Scripted() && len(types) > 0 {
		selector := selection.NewScriptedSelector(cfg.Selection, log)
		if _, err := selector.SelectTypes(types, "validate purge entries", true); err != nil {
			fmt.Printf("❌ Scripted purge entries: %v\n", err)
			hasErrors = true
		} else if _, err := selector.SelectTypes(types, "validate replacement entry", false); err != nil {
			fmt.Printf("❌ Scripted replacement entry: %v\n", err)
			hasErrors = true
		} else {
			fmt.Printf("✅ Scripted selection entries resolve\n")
		}
	}

	if hasErrors {
		return fmt.Errorf("validation found one or more problems")
	}

	fmt.Println("\n=== Validation Complete ===")
	fmt.Println("✅ Ready to merge")
	return nil
}
