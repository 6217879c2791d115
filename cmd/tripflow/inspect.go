package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tripflow/tripflow/pkg/inspect"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <out_root>",
	Short: "Verify a cleaned dataset with DuckDB",
	Long: `Inspect reads the cleaned hive-partitioned Parquet dataset back through
DuckDB and prints per-partition and total row counts.

Example:
  tripflow inspect ./data/clean`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	report, err := inspect.Dataset(ctx, args[0])
	if err != nil {
		return err
	}
	if len(report.Partitions) == 0 {
		return fmt.Errorf("no partition artifacts found under %s", args[0])
	}

	fmt.Print(report.Render())
	return nil
}
