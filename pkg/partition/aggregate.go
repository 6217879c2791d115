// Package partition aggregates per-file cleaned batches and persists one
// Parquet artifact per (year, month) partition.
package partition

import (
	"go.uber.org/zap"

	"github.com/tripflow/tripflow/internal/model"
	"github.com/tripflow/tripflow/pkg/clean"
	"github.com/tripflow/tripflow/pkg/discover"
)

// Aggregated is the unioned, name-resolved batch of one partition.
type Aggregated struct {
	Key   discover.Key
	Trips []model.Trip

	// Rejected counts rows discarded by the resolver integrity check.
	Rejected int64
}

// Aggregate concatenates the cleaned batches of one partition in
// file-discovery order, resolves canonical station names over the union,
// and re-audits missing values. Resolution must happen here, at partition
// scope: a station id seen in several files carries exactly one name in the
// written artifact.
func Aggregate(key discover.Key, batches [][]model.Trip, logger *zap.Logger) Aggregated {
	log := logger.With(zap.String("partition", key.String()))

	var total int
	for _, b := range batches {
		total += len(b)
	}
	union := make([]model.Trip, 0, total)
	for _, b := range batches {
		union = append(union, b...)
	}

	resolver := clean.NewResolver()
	resolver.Observe(union)
	start, end := resolver.Resolve()

	applied := clean.Apply(union, start, end, log)
	if applied.Rejected > 0 {
		log.Error("rows rejected by resolver integrity check",
			zap.Int64("rejected", applied.Rejected))
	}

	// Cross-file audit over the union; per-file audits cannot see these.
	clean.LogMissing(log, clean.MissingByColumn(applied.Kept))

	return Aggregated{
		Key:      key,
		Trips:    applied.Kept,
		Rejected: applied.Rejected,
	}
}
