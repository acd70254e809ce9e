package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loopercamera/4M/internal/config"
)

var syncInitSchema bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Resolve pending rows of the metadata table",
	Long: "Reads every row of merged_dataset_metadata that has a language but no\n" +
		"location yet, resolves it, and writes the five location columns back in\n" +
		"one transaction. Works against PostgreSQL or SQLite.",
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	f := syncCmd.Flags()
	f.BoolVar(&syncInitSchema, "init-schema", false, "Create the metadata table if it does not exist")
	f.String("driver", "", "Database driver: postgres or sqlite")
	f.String("dsn", "", "Connection string or SQLite file")
	f.Int("limit", 0, "Resolve at most this many rows (0 = all)")
	bind(f.Lookup("driver"), config.KeySQLDriver)
	bind(f.Lookup("dsn"), config.KeySQLDSN)
	bind(f.Lookup("limit"), config.KeySQLLimit)
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	sum, err := a.SyncSQL(cmd.Context(), syncInitSchema)
	if err != nil {
		return err
	}
	if sum.Total == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "⚡ no pending records")
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), formatSummary(newStyles(useColor()), sum))
	return nil
}
