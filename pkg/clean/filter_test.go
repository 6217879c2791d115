package clean

import (
	"testing"

	"github.com/tripflow/tripflow/internal/model"
)

func trip(startID, endID, lat *float64) model.Trip {
	return model.Trip{
		StartStationID: startID,
		EndStationID:   endID,
		StartLat:       lat,
		StartLng:       lat,
		EndLat:         lat,
		EndLng:         lat,
	}
}

func TestFilter_RequireStationIDs(t *testing.T) {
	id := model.Float64(100)
	lat := model.Float64(40.7)

	trips := []model.Trip{
		trip(id, id, lat),
		trip(nil, id, lat),
		trip(id, nil, lat),
		trip(nil, nil, lat),
	}

	result := Filter(trips, Policy{RequireStationIDs: true})
	if len(result.Kept) != 1 {
		t.Errorf("Expected 1 kept, got %d", len(result.Kept))
	}
	if result.DroppedStationIDs != 3 {
		t.Errorf("Expected 3 dropped, got %d", result.DroppedStationIDs)
	}
	if result.DroppedCoordinates != 0 {
		t.Errorf("Coordinate stage inactive, got %d drops", result.DroppedCoordinates)
	}
}

func TestFilter_RequireCoordinates(t *testing.T) {
	id := model.Float64(100)
	lat := model.Float64(40.7)

	trips := []model.Trip{
		trip(id, id, lat),
		trip(id, id, nil),
	}

	result := Filter(trips, Policy{RequireCoordinates: true})
	if len(result.Kept) != 1 {
		t.Errorf("Expected 1 kept, got %d", len(result.Kept))
	}
	if result.DroppedCoordinates != 1 {
		t.Errorf("Expected 1 coordinate drop, got %d", result.DroppedCoordinates)
	}
}

func TestFilter_BothPolicies_StageAttribution(t *testing.T) {
	id := model.Float64(100)
	lat := model.Float64(40.7)

	// Fails both requirements: attributed to the station-id stage.
	trips := []model.Trip{trip(nil, nil, nil)}

	result := Filter(trips, Policy{RequireStationIDs: true, RequireCoordinates: true})
	if result.DroppedStationIDs != 1 || result.DroppedCoordinates != 0 {
		t.Errorf("Drop attributed to wrong stage: ids=%d coords=%d",
			result.DroppedStationIDs, result.DroppedCoordinates)
	}

	// Conservation: read = kept + drops.
	trips = []model.Trip{
		trip(id, id, lat),
		trip(nil, id, lat),
		trip(id, id, nil),
	}
	result = Filter(trips, Policy{RequireStationIDs: true, RequireCoordinates: true})
	total := int64(len(result.Kept)) + result.DroppedStationIDs + result.DroppedCoordinates
	if total != int64(len(trips)) {
		t.Errorf("Conservation violated: %d != %d", total, len(trips))
	}
}

func TestFilter_NoPolicy(t *testing.T) {
	trips := []model.Trip{trip(nil, nil, nil)}
	result := Filter(trips, Policy{})
	if len(result.Kept) != 1 {
		t.Error("With no active policy every row is retained")
	}
}
