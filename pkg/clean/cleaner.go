package clean

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tripflow/tripflow/internal/model"
)

// Counters tracks row accounting for one file or one partition. For every
// unit, RowsRead = RowsKept + the sum of the drop counters.
type Counters struct {
	RowsRead           int64
	DroppedStationIDs  int64
	DroppedCoordinates int64
	RejectedUnresolved int64
	RowsKept           int64
}

// Fold adds another unit's counters into c.
func (c *Counters) Fold(other Counters) {
	c.RowsRead += other.RowsRead
	c.DroppedStationIDs += other.DroppedStationIDs
	c.DroppedCoordinates += other.DroppedCoordinates
	c.RejectedUnresolved += other.RejectedUnresolved
	c.RowsKept += other.RowsKept
}

// FileCleaner normalizes and filters one raw file. Station-name resolution
// is not applied here: the resolver needs partition scope, so the caller
// observes the returned batch and applies names after the union.
type FileCleaner struct {
	norm   *Normalizer
	policy Policy
	logger *zap.Logger
}

// NewFileCleaner creates a FileCleaner with the given retention policy.
func NewFileCleaner(policy Policy, logger *zap.Logger) *FileCleaner {
	return &FileCleaner{
		norm:   NewNormalizer(),
		policy: policy,
		logger: logger,
	}
}

// CleanFile runs normalization and filtering over one input file, returning
// the retained batch and its counters.
func (c *FileCleaner) CleanFile(ctx context.Context, path string) ([]model.Trip, Counters, error) {
	name := filepath.Base(path)
	log := c.logger.With(zap.String("file", name))

	log.Info("loading raw file", zap.String("path", path))

	trips, err := c.norm.ReadFile(ctx, path)
	if err != nil {
		return nil, Counters{}, err
	}

	counters := Counters{RowsRead: int64(len(trips))}
	log.Info("initial rows", zap.Int64("rows", counters.RowsRead))

	result := Filter(trips, c.policy)
	counters.DroppedStationIDs = result.DroppedStationIDs
	counters.DroppedCoordinates = result.DroppedCoordinates
	counters.RowsKept = int64(len(result.Kept))

	if c.policy.RequireStationIDs {
		log.Info("dropped rows with missing station ids",
			zap.Int64("dropped", result.DroppedStationIDs))
	}
	if c.policy.RequireCoordinates {
		log.Info("dropped rows with missing coordinates",
			zap.Int64("dropped", result.DroppedCoordinates))
	}

	// Post-condition audit, not a gate: nulls may legitimately remain in
	// non-required columns.
	LogMissing(log, MissingByColumn(result.Kept))

	log.Info("cleaned rows", zap.Int64("rows", counters.RowsKept))

	return result.Kept, counters, nil
}

// MissingByColumn counts null cells per schema column. Columns with no nulls
// are omitted.
func MissingByColumn(trips []model.Trip) map[string]int64 {
	missing := make(map[string]int64)
	for i := range trips {
		for _, spec := range model.Columns {
			if trips[i].IsNull(spec.Name) {
				missing[spec.Name]++
			}
		}
	}
	return missing
}

// LogMissing reports a missing-value audit: a warning when nulls remain, an
// info line otherwise.
func LogMissing(logger *zap.Logger, missing map[string]int64) {
	var total int64
	for _, n := range missing {
		total += n
	}
	if total == 0 {
		logger.Info("no missing values after cleaning")
		return
	}

	fields := []zap.Field{zap.Int64("total", total)}
	for _, spec := range model.Columns {
		if n := missing[spec.Name]; n > 0 {
			fields = append(fields, zap.Int64(spec.Name, n))
		}
	}
	logger.Warn("missing values remain", fields...)
}
