package cmd

import (
	"context"
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/typemerge/internal/config"
	"github.com/dbsmedya/typemerge/internal/docstore"
	"github.com/dbsmedya/typemerge/internal/logger"
	"github.com/dbsmedya/typemerge/internal/merger"
	"github.com/dbsmedya/typemerge/internal/model"
)

var typesAll bool

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List element types in the document",
	Long: `Types lists the element types of the configured family in catalog
order (by name, then id) together with their instance counts.

Hidden instances are the ones a purge attempt trips over: they reference
the type without showing up in a visible enumeration.

Example:
  typemerge types --config typemerge.yaml
  typemerge types --all`,
	RunE: runTypes,
}

func init() {
	typesCmd.Flags().BoolVar(&typesAll, "all", false,
		"List every family, not just the configured one")

	rootCmd.AddCommand(typesCmd)
}

func runTypes(cmd *cobra.Command, args []string) error {
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

	family := cfg.Document.Family
	if typesAll {
		family = ""
	}

	catalog, err := merger.NewCatalog(merger.NewSessionDocument(session))
	if err != nil {
		return fmt.Errorf("failed to create catalog: %w", err)
	}

	types, err := catalog.List(merger.FamilyFilter(family))
	if err != nil {
		return fmt.Errorf("failed to list types: %w", err)
	}

	if len(types) == 0 {
		if family != "" {
			cmd.Printf("No types in family %q\n", family)
		} else {
			cmd.Println("No types in document")
		}
		return nil
	}

	visible, hidden, err := instanceCounts(session)
	if err != nil {
		return fmt.Errorf("failed to count instances: %w", err)
	}

	if family != "" {
		cmd.Printf("Types in family %q (%s):\n\n", family, cfg.Document.Path)
	} else {
		cmd.Printf("Types in %s:\n\n", cfg.Document.Path)
	}

	// Size the name and family columns to their widest entry
	nameWidth := runewidth.StringWidth("Name")
	familyWidth := runewidth.StringWidth("Family")
	for _, rec := range types {
		if w := runewidth.StringWidth(rec.Name); w > nameWidth {
			nameWidth = w
		}
		if w := runewidth.StringWidth(rec.Family); w > familyWidth {
			familyWidth = w
		}
	}

	cmd.Printf("  %6s  %s  %s  %7s  %6s\n", "ID",
		runewidth.FillRight("Name", nameWidth),
		runewidth.FillRight("Family", familyWidth),
		"Visible", "Hidden")

	totalVisible := 0
	totalHidden := 0
	for _, rec := range types {
		cmd.Printf("  %6s  %s  %s  %7d  %6d\n", rec.ID,
			runewidth.FillRight(rec.Name, nameWidth),
			runewidth.FillRight(rec.Family, familyWidth),
			visible[rec.ID], hidden[rec.ID])
		totalVisible += visible[rec.ID]
		totalHidden += hidden[rec.ID]
	}

	cmd.Printf("\nTotal: %d type(s), %d visible and %d hidden instance(s)\n",
		len(types), totalVisible, totalHidden)
	return nil
}

// instanceCounts tallies visible and hidden instances per type.
func instanceCounts(session *docstore.Session) (visible, hidden map[model.ID]int, err error) {
	instances, err := session.Instances(nil)
	if err != nil {
		return nil, nil, err
	}

	visible = make(map[model.ID]int)
	hidden = make(map[model.ID]int)
	for _, rec := range instances {
		if rec.Hidden {
			hidden[rec.TypeID]++
		} else {
			visible[rec.TypeID]++
		}
	}
	return visible, hidden, nil
}
