package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/typemerge/internal/config"
	"github.com/dbsmedya/typemerge/internal/docstore"
	"github.com/dbsmedya/typemerge/internal/logger"
	"github.com/dbsmedya/typemerge/internal/merger"
	"github.com/dbsmedya/typemerge/internal/verifier"
)

var (
	mergePurge       []string
	mergeReplacement string
	mergeSkipVerify  bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge duplicate types into a replacement type",
	Long: `Merge reassigns every instance of the selected purge types to the
replacement type, leaving the purge types unreferenced and safe to purge.

The merge process follows these steps:
  1. Collect the family's types and select purge and replacement
  2. Probe each purge type's delete cascade (trial delete, rolled back)
  3. Reassign visible instances and commit (phase 1)
  4. Reassign cascade-only instances and commit (phase 2)
  5. Verify no references to the purge types remain

Instances that refuse reassignment are skipped and reported; the run
carries on without them. The purge types themselves are never deleted.

Example:
  typemerge merge --config typemerge.yaml
  typemerge merge --purge "Detail View 1" --replacement Standard`,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringArrayVar(&mergePurge, "purge", nil,
		"Type to purge, by name or id (repeatable, switches selection to scripted)")
	mergeCmd.Flags().StringVar(&mergeReplacement, "replacement", "",
		"Replacement type, by name or id (switches selection to scripted)")
	mergeCmd.Flags().BoolVar(&mergeSkipVerify, "skip-verify", false,
		"Skip post-merge reference verification")

	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
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
	cfg.ApplySelectionOverrides(mergePurge, mergeReplacement)
	if mergeSkipVerify {
		cfg.Verification.SkipVerification = true
	}

	// Initialize logger
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Infow("Starting merge operation",
		"document", cfg.Document.Path,
		"family", cfg.Document.Family,
		"config", configFile,
	)

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open document session. Badger's directory lock keeps concurrent
	// runs against the same store out.
	session, err := docstore.Open(ctx, docstore.Options{
		Path:       cfg.Document.Path,
		SyncWrites: cfg.Document.SyncWrites,
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	defer session.Close()

	// Create orchestrator
	orch, err := merger.NewOrchestrator(
		merger.NewSessionDocument(session),
		newSelector(cfg, log),
		log,
		merger.Options{
			Family:        cfg.Document.Family,
			ProgressEvery: cfg.Processing.ProgressEvery,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	// Handle graceful shutdown. Cancellation takes effect at the run's
	// checkpoints, which all sit before the first commit.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Warn("Received shutdown signal - cancelling before first commit...")
		cancel()
	}()

	// Execute merge operation
	outcome, runErr := orch.Run(ctx)

	// Persist whenever a commit landed, even when a later step failed
	if outcome != nil {
		if _, err := session.Save(); err != nil {
			if runErr != nil {
				return fmt.Errorf("merge failed (%v), then save failed: %w", runErr, err)
			}
			return fmt.Errorf("merge committed but save failed: %w", err)
		}
	}

	if runErr != nil && outcome == nil {
		if errors.Is(runErr, merger.ErrSelectionCancelled) {
			cmd.Println("Selection cancelled, document untouched")
			return nil
		}
		if errors.Is(runErr, context.Canceled) {
			log.Warn("Merge operation cancelled by user")
			return nil
		}
		return fmt.Errorf("merge operation failed: %w", runErr)
	}

	// Display results
	displayOutcome(cfg, outcome)

	// Post-merge verification
	if !cfg.Verification.SkipVerification {
		if err := verifyOutcome(session, log, outcome); err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("merge completed with errors: %w", runErr)
	}
	if outcome.HadErrors() {
		return fmt.Errorf("merge completed with %d failed reassignment(s)", outcome.TotalFailures())
	}

	return nil
}

// displayOutcome prints the merge summary and per-type breakdown.
func displayOutcome(cfg *config.Config, outcome *merger.Outcome) {
	fmt.Printf("\n=== Merge Complete ===\n")
	fmt.Printf("Run: %s\n", outcome.RunID)
	fmt.Printf("Document: %s\n", cfg.Document.Path)
	fmt.Printf("Stage: %s\n", outcome.Stage)
	fmt.Printf("Duration: %s\n", outcome.Duration)
	fmt.Printf("Replacement: %s\n", typeLabel(outcome.Replacement))
	fmt.Printf("Instances Reassigned: %d\n", outcome.TotalReassigned())
	fmt.Printf("Failed Reassignments: %d\n", outcome.TotalFailures())

	fmt.Printf("\nPer purge type:\n")
	for el := outcome.PerType.Front(); el != nil; el = el.Next() {
		t := el.Value
		status := color.Green.Sprint("ok")
		if t.HadErrors {
			status = color.Red.Sprintf("%d failure(s)", t.Failures)
		}
		fmt.Printf("  - %s: %d visible + %d cascade reassigned, %d stale skipped [%s]\n",
			typeLabel(t.Type), t.VisibleReassigned, t.LinkedReassigned, t.SkippedStale, status)
	}
}

// verifyOutcome checks whether the purge types are left unreferenced and
// prints the result.
func verifyOutcome(session *docstore.Session, log *logger.Logger, outcome *merger.Outcome) error {
	v, err := verifier.New(session, log)
	if err != nil {
		return err
	}

	report, err := v.RemainingReferences(outcome.PerType.Keys())
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Verification ===\n")
	for _, tr := range report.PerType {
		if tr.Removable {
			fmt.Printf("✅ %s: no remaining references, safe to purge\n", tr.Name)
		} else {
			fmt.Printf("❌ %s: %d linked instance(s) could not be converted; the type may still be safely removable later\n",
				tr.Name, tr.Remaining)
		}
	}
	fmt.Printf("\n%d of %d purge type(s) ready to purge\n",
		report.TypesRemovable, report.TypesChecked)
	return nil
}
