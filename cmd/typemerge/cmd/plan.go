package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/typemerge/internal/config"
	"github.com/dbsmedya/typemerge/internal/docstore"
	"github.com/dbsmedya/typemerge/internal/logger"
	"github.com/dbsmedya/typemerge/internal/merger"
	"github.com/dbsmedya/typemerge/internal/model"
	"github.com/dbsmedya/typemerge/internal/selection"
)

// outputWriter is used for printing output, can be overridden in tests
var outputWriter io.Writer = os.Stdout

// setOutputWriter sets the output writer (used for testing)
func setOutputWriter(w io.Writer) {
	outputWriter = w
}

// resetOutputWriter resets output to stdout (used for testing)
func resetOutputWriter() {
	outputWriter = os.Stdout
}

var (
	planPurge       []string
	planReplacement string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Preview a merge without touching the document",
	Long: `Plan builds a merge plan, probes each purge type's delete cascade
inside a transaction group that is always rolled back, and reports what
a merge run would do. The document is left untouched.

The plan shows:
  - Purge-to-replacement mapping
  - Visible instances and cascade records per purge type
  - Totals a merge run would reassign

Example:
  typemerge plan --config typemerge.yaml
  typemerge plan --purge "Detail View 1" --purge "Detail View 2" --replacement Standard`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringArrayVar(&planPurge, "purge", nil,
		"Type to purge, by name or id (repeatable, switches selection to scripted)")
	planCmd.Flags().StringVar(&planReplacement, "replacement", "",
		"Replacement type, by name or id (switches selection to scripted)")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
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
	cfg.ApplySelectionOverrides(planPurge, planReplacement)

	// Initialize logger
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx := context.Background()

	// Open document session
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

	// Build the plan and probe cascades (rolled back)
	preview, err := orch.Preview(ctx)
	if err != nil {
		if errors.Is(err, merger.ErrSelectionCancelled) {
			cmd.Println("Selection cancelled, nothing to plan")
			return nil
		}
		return fmt.Errorf("plan failed: %w", err)
	}

	displayPreview(cfg, preview)
	return nil
}

// newSelector picks the selector the configuration asks for.
func newSelector(cfg *config.Config, log *logger.Logger) merger.Selector {
	if cfg.Selection.Scripted() {
		return selection.NewScriptedSelector(cfg.Selection, log)
	}
	return selection.NewPromptSelector(log)
}

// displayPreview renders the mapping diagram, plan summary and per-type
// forecast.
func displayPreview(cfg *config.Config, preview *merger.Preview) {
	plan := preview.Plan

	totalVisible := 0
	totalCascade := 0
	labelWidth := 0
	for el := preview.PerType.Front(); el != nil; el = el.Next() {
		totalVisible += el.Value.Visible
		totalCascade += el.Value.Linked
		if w := runewidth.StringWidth(typeLabel(el.Value.Type)); w > labelWidth {
			labelWidth = w
		}
	}

	summaryLines := []string{
		"[ Plan Summary ]",
		strings.Repeat("-", 16),
		fmt.Sprintf("Family:       %s", cfg.Document.Family),
		fmt.Sprintf("Purge Types:  %d", len(plan.PurgeTypes())),
		fmt.Sprintf("Replacement:  %s", typeLabel(plan.Replacement())),
		fmt.Sprintf("Visible:      %d instance(s)", totalVisible),
		fmt.Sprintf("Cascade:      %d record(s)", totalCascade),
	}

	fmt.Fprintln(outputWriter)
	printHeader("Merge Plan")
	fmt.Fprintln(outputWriter)

	printSideBySide(renderMapping(plan), summaryLines, 4)

	fmt.Fprintln(outputWriter)
	printSection("Per-Type Forecast")
	for el := preview.PerType.Front(); el != nil; el = el.Next() {
		f := el.Value
		fmt.Fprintf(outputWriter, "  %s  visible: %-4d cascade: %d\n",
			runewidth.FillRight(typeLabel(f.Type), labelWidth), f.Visible, f.Linked)
	}

	fmt.Fprintln(outputWriter)
	fmt.Fprintf(outputWriter, "A merge run would reassign every reference above to %s.\n",
		typeLabel(plan.Replacement()))
	fmt.Fprintln(outputWriter, "The document was not modified.")
}

// typeLabel formats a type the way the operator sees it in listings.
func typeLabel(rec model.TypeRecord) string {
	return fmt.Sprintf("%s (id %s)", rec.Name, rec.ID)
}

// renderMapping draws the purge-to-replacement mapping. The arrow sits on
// the middle row: the middle purge type when the count is odd, an inserted
// junction row when it is even.
func renderMapping(plan *merger.Plan) []string {
	purge := plan.PurgeTypes()
	arrow := "──▶ " + typeLabel(plan.Replacement())

	labels := make([]string, len(purge))
	width := 0
	for i, rec := range purge {
		labels[i] = typeLabel(rec)
		if w := runewidth.StringWidth(labels[i]); w > width {
			width = w
		}
	}

	if len(labels) == 1 {
		return []string{labels[0] + " ──" + arrow}
	}

	mid := len(labels) / 2
	odd := len(labels)%2 == 1

	var lines []string
	for i, label := range labels {
		if !odd && i == mid {
			lines = append(lines, strings.Repeat(" ", width+3)+"├"+arrow)
		}

		padded := runewidth.FillRight(label, width)
		switch {
		case i == 0:
			lines = append(lines, padded+" ──┐")
		case i == len(labels)-1:
			lines = append(lines, padded+" ──┘")
		case odd && i == mid:
			lines = append(lines, padded+" ──┼"+arrow)
		default:
			lines = append(lines, padded+" ──┤")
		}
	}
	return lines
}

// printHeader prints a formatted header
func printHeader(format string, args ...interface{}) {
	title := fmt.Sprintf(format, args...)
	width := len(title) + 4
	fmt.Fprintln(outputWriter, strings.Repeat("=", width))
	fmt.Fprintf(outputWriter, "  %s\n", color.Bold.Sprint(title))
	fmt.Fprintln(outputWriter, strings.Repeat("=", width))
}

// printSection prints a section header
func printSection(title string) {
	fmt.Fprintf(outputWriter, "[%s]\n", title)
	fmt.Fprintln(outputWriter, strings.Repeat("-", len(title)+2))
}

// printSideBySide prints two blocks of text side by side
// padding is the minimum spaces between the two columns
func printSideBySide(leftLines, rightLines []string, padding int) {
	leftWidth := 0
	for _, line := range leftLines {
		if w := runewidth.StringWidth(line); w > leftWidth {
			leftWidth = w
		}
	}

	maxHeight := len(leftLines)
	if len(rightLines) > maxHeight {
		maxHeight = len(rightLines)
	}

	for i := 0; i < maxHeight; i++ {
		leftPart := ""
		if i < len(leftLines) {
			leftPart = leftLines[i]
		}
		rightPart := ""
		if i < len(rightLines) {
			rightPart = rightLines[i]
		}

		fmt.Fprint(outputWriter, leftPart)

		// Pad to align the right column, using visual width for the
		// box characters in the mapping
		spacesNeeded := leftWidth - runewidth.StringWidth(leftPart) + padding
		if spacesNeeded > 0 {
			fmt.Fprint(outputWriter, strings.Repeat(" ", spacesNeeded))
		}

		fmt.Fprintln(outputWriter, rightPart)
	}
}
