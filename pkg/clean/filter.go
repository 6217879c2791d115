package clean

import "github.com/tripflow/tripflow/internal/model"

// Policy is the row-retention policy. Each requirement is an independent
// toggle; both may be active in one run.
type Policy struct {
	RequireStationIDs  bool
	RequireCoordinates bool
}

// FilterResult holds the retained rows and per-stage drop counts.
type FilterResult struct {
	Kept               []model.Trip
	DroppedStationIDs  int64
	DroppedCoordinates int64
}

// Filter drops rows violating the policy. Drops are attributed to the first
// stage a row fails: station ids, then coordinates.
func Filter(trips []model.Trip, policy Policy) FilterResult {
	result := FilterResult{Kept: make([]model.Trip, 0, len(trips))}

	for _, t := range trips {
		if policy.RequireStationIDs && (t.StartStationID == nil || t.EndStationID == nil) {
			result.DroppedStationIDs++
			continue
		}
		if policy.RequireCoordinates && missingCoordinates(&t) {
			result.DroppedCoordinates++
			continue
		}
		result.Kept = append(result.Kept, t)
	}

	return result
}

func missingCoordinates(t *model.Trip) bool {
	return t.StartLat == nil || t.StartLng == nil || t.EndLat == nil || t.EndLng == nil
}
