// Package pipeline orchestrates a cleaning run: discovery, per-file
// cleaning, partition aggregation, and artifact writes, folded into one
// global report.
package pipeline

import (
	"context"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tripflow/tripflow/internal/model"
	"github.com/tripflow/tripflow/pkg/clean"
	"github.com/tripflow/tripflow/pkg/discover"
	"github.com/tripflow/tripflow/pkg/partition"
	"github.com/tripflow/tripflow/pkg/report"
)

// Options configures a cleaning run.
type Options struct {
	RawRoot string
	OutRoot string

	Policy      clean.Policy
	Workers     int
	Compression string
	BatchSize   int

	// RunID tags every log entry emitted by this run.
	RunID string

	// Progress renders a console progress bar over partitions.
	Progress bool
}

// Result is the outcome of a run.
type Result struct {
	Summary report.Summary
	Failed  []report.Outcome
}

// Run executes the pipeline. Partitions are independent units of work and
// are processed by a bounded worker pool; a failing partition is reported
// and skipped, never aborting the run. Only context cancellation stops the
// pool early.
func Run(ctx context.Context, opts Options, logger *zap.Logger) (Result, error) {
	log := logger.With(zap.String("run_id", opts.RunID))

	log.Info("starting cleaning run",
		zap.String("raw_root", opts.RawRoot),
		zap.String("out_root", opts.OutRoot),
		zap.Bool("require_station_ids", opts.Policy.RequireStationIDs),
		zap.Bool("require_coordinates", opts.Policy.RequireCoordinates),
		zap.Int("workers", opts.Workers))

	partitions, err := discover.Discover(opts.RawRoot, log)
	if err != nil {
		return Result{}, err
	}
	log.Info("discovered partitions", zap.Int("count", len(partitions)))

	writer := partition.NewWriter(opts.OutRoot, opts.Compression, opts.BatchSize)
	reporter := report.NewReporter()

	var bar *progressbar.ProgressBar
	if opts.Progress && len(partitions) > 0 {
		bar = progressbar.NewOptions(len(partitions),
			progressbar.OptionSetDescription("cleaning partitions"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, part := range partitions {
		part := part
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			outcome := processPartition(gctx, part, opts.Policy, writer, log)
			reporter.Add(outcome)
			if bar != nil {
				bar.Add(1)
			}

			if outcome.Err != nil {
				log.Error("partition failed",
					zap.String("partition", outcome.Partition),
					zap.Error(outcome.Err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if bar != nil {
		bar.Finish()
	}

	reporter.Log(log)

	return Result{
		Summary: reporter.Summary(),
		Failed:  reporter.Failed(),
	}, nil
}

// processPartition cleans every file of one partition, aggregates the union,
// and writes the artifact. File cleaning runs concurrently; aggregation
// waits for all files, preserving file-discovery order in the union.
func processPartition(ctx context.Context, part discover.Partition, policy clean.Policy, writer *partition.Writer, logger *zap.Logger) report.Outcome {
	key := part.Key
	log := logger.With(zap.String("partition", key.String()))
	log.Info("processing partition", zap.Int("files", len(part.Files)))

	cleaner := clean.NewFileCleaner(policy, log)

	batches := make([][]model.Trip, len(part.Files))
	fileCounters := make([]clean.Counters, len(part.Files))

	fg, fctx := errgroup.WithContext(ctx)
	for i, path := range part.Files {
		i, path := i, path
		fg.Go(func() error {
			trips, counters, err := cleaner.CleanFile(fctx, path)
			if err != nil {
				return err
			}
			batches[i] = trips
			fileCounters[i] = counters
			return nil
		})
	}
	if err := fg.Wait(); err != nil {
		return report.Outcome{Partition: key.String(), Err: err}
	}

	var counters clean.Counters
	for _, c := range fileCounters {
		counters.Fold(c)
	}

	agg := partition.Aggregate(key, batches, log)
	counters.RejectedUnresolved = agg.Rejected
	counters.RowsKept = int64(len(agg.Trips))

	path, err := writer.Write(ctx, agg)
	if err != nil {
		return report.Outcome{Partition: key.String(), Err: err}
	}
	log.Info("wrote partition artifact",
		zap.String("path", path),
		zap.Int64("rows", counters.RowsKept))

	return report.Outcome{
		Partition: key.String(),
		Counters:  counters,
		Path:      path,
	}
}
