package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/database"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/validation"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk catalog layout.
type catalogFile struct {
	Quests []models.CatalogEntry `yaml:"quests"`
}

// parseCatalog decodes and validates a YAML catalog. Unknown fields are rejected.
func parseCatalog(r io.Reader) ([]models.CatalogEntry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f catalogFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(f.Quests) == 0 {
		return nil, fmt.Errorf("catalog has no quests")
	}
	for i := range f.Quests {
		e := &f.Quests[i]
		e.QuestKey = strings.TrimSpace(e.QuestKey)
		e.Title = validation.SanitizeText(e.Title)
		e.Description = validation.SanitizeText(e.Description)
	}
	if err := validation.ValidateCatalog(f.Quests); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return f.Quests, nil
}

// NewCatalogCmd creates the quest catalog command.
func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the daily quest catalog",
	}
	cmd.AddCommand(newCatalogImportCmd())
	cmd.AddCommand(newCatalogListCmd())
	cmd.AddCommand(newCatalogSetActiveCmd("activate", true))
	cmd.AddCommand(newCatalogSetActiveCmd("deactivate", false))
	return cmd
}

func newCatalogImportCmd() *cobra.Command {
	var file string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Validate and upsert catalog entries from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer func() { _ = f.Close() }()

			entries, err := parseCatalog(f)
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "Catalog is valid: %d entries.\n", len(entries))
				return nil
			}

			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			if err := database.NewCatalogRepository(db).Upsert(context.Background(), entries); err != nil {
				return fmt.Errorf("import catalog: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d catalog entries.\n", len(entries))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Path to the catalog YAML (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate only")
	return cmd
}

func newCatalogListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog entries in catalog order",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			entries, err := database.NewCatalogRepository(db).ListAll(context.Background())
			if err != nil {
				return fmt.Errorf("list catalog: %w", err)
			}
			writeCatalog(cmd.OutOrStdout(), entries)
			return nil
		},
	}
}

func writeCatalog(w io.Writer, entries []models.CatalogEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Catalog is empty. Use 'catalog import' to load one.")
		return
	}
	for _, e := range entries {
		state := "active"
		if !e.Active {
			state = "inactive"
		}
		fmt.Fprintf(w, "%-24s %-8s target=%d reward=%d tags=%s\n  %s\n",
			e.QuestKey, state, e.BaseTarget, e.BaseRewardPoints, strings.Join(e.Tags, ","), e.Title)
	}
}

func newCatalogSetActiveCmd(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <quest_key>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			if err := database.NewCatalogRepository(db).SetActive(context.Background(), args[0], active); err != nil {
				return fmt.Errorf("%s %s: %w", use, args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %sd.\n", args[0], use)
			return nil
		},
	}
}
