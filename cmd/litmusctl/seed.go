package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/litmus-ai/backend/internal/catalog"
	"github.com/litmus-ai/backend/internal/database"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load catalog fixtures into the database",
	Long: `Loads the question bank, band guidance, training content and certification
catalog from YAML fixtures. Existing rows are left alone unless --force is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		cfg, err := loadPostgresConfig(cmd)
		if err != nil {
			return err
		}

		bundle, err := catalog.Load(cfg.Catalog.Dir)
		if err != nil {
			return err
		}

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(db); err != nil {
			return err
		}

		report, err := catalog.NewSeeder(catalog.NewStore(db)).Seed(cmd.Context(), bundle, force)
		if err != nil {
			return err
		}

		tables := make([]string, 0, len(report))
		for table := range report {
			tables = append(tables, table)
		}
		sort.Strings(tables)

		out := cmd.OutOrStdout()
		for _, table := range tables {
			c := report[table]
			fmt.Fprintf(out, "%-22s inserted=%d updated=%d skipped=%d\n", table, c.Inserted, c.Updated, c.Skipped)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().Bool("force", false, "Overwrite rows that already exist")
}
