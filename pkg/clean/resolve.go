package clean

import (
	"go.uber.org/zap"

	"github.com/tripflow/tripflow/internal/model"
)

// NameMap maps a station id to its canonical display name within one
// partition. Exactly one name per id; built deterministically.
type NameMap map[float64]string

// Resolver computes canonical station names by majority vote over observed
// (id, name) pairs. Start and end stations are counted independently.
// Resolution operates at partition scope: observe every file of a partition
// before resolving, so the union carries one name per id.
type Resolver struct {
	start map[float64]map[string]int64
	end   map[float64]map[string]int64
}

// NewResolver creates an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{
		start: make(map[float64]map[string]int64),
		end:   make(map[float64]map[string]int64),
	}
}

// Observe counts the (id, name) pairs of a batch. Rows with a null id or a
// null name contribute nothing.
func (r *Resolver) Observe(trips []model.Trip) {
	for i := range trips {
		t := &trips[i]
		if t.StartStationID != nil && t.StartStationName != nil {
			observe(r.start, *t.StartStationID, *t.StartStationName)
		}
		if t.EndStationID != nil && t.EndStationName != nil {
			observe(r.end, *t.EndStationID, *t.EndStationName)
		}
	}
}

func observe(counts map[float64]map[string]int64, id float64, name string) {
	m, ok := counts[id]
	if !ok {
		m = make(map[string]int64)
		counts[id] = m
	}
	m[name]++
}

// Resolve selects the canonical name per id: highest occurrence count wins,
// ties broken by ascending lexical order of the name. The comparator is the
// contract; re-running on identical input yields identical maps.
func (r *Resolver) Resolve() (start, end NameMap) {
	return resolve(r.start), resolve(r.end)
}

func resolve(counts map[float64]map[string]int64) NameMap {
	out := make(NameMap, len(counts))
	for id, names := range counts {
		var best string
		var bestCount int64
		for name, count := range names {
			if count > bestCount || (count == bestCount && name < best) {
				best = name
				bestCount = count
			}
		}
		out[id] = best
	}
	return out
}

// ApplyResult holds the rows surviving name resolution and the count
// rejected because their id had no map entry.
type ApplyResult struct {
	Kept     []model.Trip
	Rejected int64
}

// Apply overwrites every row's station name columns with the canonical name
// for its id. A row whose id is absent from the map is a data-integrity
// fault: it is rejected, counted, and logged — never passed through with a
// stale name.
func Apply(trips []model.Trip, start, end NameMap, logger *zap.Logger) ApplyResult {
	result := ApplyResult{Kept: make([]model.Trip, 0, len(trips))}

	for _, t := range trips {
		startName, ok := lookup(start, t.StartStationID)
		if !ok {
			result.Rejected++
			logUnresolved(logger, model.ColStartStationID, t.StartStationID)
			continue
		}
		endName, ok := lookup(end, t.EndStationID)
		if !ok {
			result.Rejected++
			logUnresolved(logger, model.ColEndStationID, t.EndStationID)
			continue
		}

		t.StartStationName = &startName
		t.EndStationName = &endName
		result.Kept = append(result.Kept, t)
	}

	return result
}

func lookup(m NameMap, id *float64) (string, bool) {
	if id == nil {
		return "", false
	}
	name, ok := m[*id]
	return name, ok
}

func logUnresolved(logger *zap.Logger, column string, id *float64) {
	fields := []zap.Field{zap.String("column", column)}
	if id != nil {
		fields = append(fields, zap.Float64("station_id", *id))
	} else {
		fields = append(fields, zap.Bool("station_id_null", true))
	}
	logger.Error("station id missing from partition name map", fields...)
}
