package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tripflow/tripflow/pkg/clean"
	"github.com/tripflow/tripflow/pkg/config"
	tferrors "github.com/tripflow/tripflow/pkg/errors"
	"github.com/tripflow/tripflow/pkg/logging"
	"github.com/tripflow/tripflow/pkg/pipeline"
)

var (
	cleanConfigPath  string
	requireStations  bool
	requireCoords    bool
	cleanWorkers     int
	cleanCompression string
	cleanBatchSize   int
	cleanLogFile     string
	cleanNoProgress  bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean <raw_root> <out_root>",
	Short: "Clean raw trip CSVs into partitioned Parquet",
	Long: `Clean walks raw_root/YYYY/MM/*.csv, normalizes and filters every file,
resolves canonical station names per partition, and writes
out_root/year=YYYY/month=MM/data.parquet. Existing artifacts are
overwritten. A failing partition is reported and skipped; the command
exits non-zero if any partition failed.

Examples:
  tripflow clean ./data/raw ./data/clean
  tripflow clean ./data/raw ./data/clean --require-coordinates
  tripflow clean ./data/raw ./data/clean --workers 4 --compression zstd`,
	Args: cobra.ExactArgs(2),
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().StringVar(&cleanConfigPath, "config", "", "YAML config file path")
	cleanCmd.Flags().BoolVar(&requireStations, "require-station-ids", true, "Drop rows missing either station id")
	cleanCmd.Flags().BoolVar(&requireCoords, "require-coordinates", false, "Drop rows missing any coordinate")
	cleanCmd.Flags().IntVar(&cleanWorkers, "workers", 0, "Partition worker pool size (0 = NumCPU)")
	cleanCmd.Flags().StringVar(&cleanCompression, "compression", "", "Parquet compression (snappy, zstd, gzip, none)")
	cleanCmd.Flags().IntVar(&cleanBatchSize, "batch-size", 0, "Arrow record batch size for writes")
	cleanCmd.Flags().StringVar(&cleanLogFile, "log-file", "", "Run log file path")
	cleanCmd.Flags().BoolVar(&cleanNoProgress, "no-progress", false, "Disable the progress bar")
}

func runClean(cmd *cobra.Command, args []string) error {
	rawRoot, outRoot := args[0], args[1]

	cfg, err := config.Load(cleanConfigPath)
	if err != nil {
		return err
	}

	// Flags override the config file only when set.
	flags := cmd.Flags()
	if flags.Changed("require-station-ids") {
		cfg.Filter.RequireStationIDs = requireStations
	}
	if flags.Changed("require-coordinates") {
		cfg.Filter.RequireCoordinates = requireCoords
	}
	if flags.Changed("workers") {
		cfg.Clean.Workers = cleanWorkers
	}
	if flags.Changed("compression") {
		cfg.Clean.Compression = cleanCompression
	}
	if flags.Changed("batch-size") {
		cfg.Clean.BatchSize = cleanBatchSize
	}
	if flags.Changed("log-file") {
		cfg.Logging.File = cleanLogFile
	}

	logger, closeLog, err := logging.New(logging.Config{
		File:    cfg.Logging.File,
		Verbose: verbose,
	})
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := signalContext()
	defer cancel()

	result, err := pipeline.Run(ctx, pipeline.Options{
		RawRoot: rawRoot,
		OutRoot: outRoot,
		Policy: clean.Policy{
			RequireStationIDs:  cfg.Filter.RequireStationIDs,
			RequireCoordinates: cfg.Filter.RequireCoordinates,
		},
		Workers:     cfg.Clean.Workers,
		Compression: cfg.Clean.Compression,
		BatchSize:   cfg.Clean.BatchSize,
		RunID:       uuid.NewString(),
		Progress:    !cleanNoProgress,
	}, logger)
	if err != nil {
		return err
	}

	fmt.Println(result.Summary.Render())

	var failed tferrors.MultiError
	for _, outcome := range result.Failed {
		failed.Add(fmt.Errorf("partition %s: %w", outcome.Partition, outcome.Err))
	}
	return failed.Combined()
}
