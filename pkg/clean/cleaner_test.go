package clean

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestFileCleaner_Counters(t *testing.T) {
	csv := `ride_id,start_station_name,start_station_id,end_station_name,end_station_id
R1,Main St,100,Oak Ave,200
R2,Main St,100,Oak Ave,
R3,,abc,Oak Ave,200
R4,Main St,100,Oak Ave,200
`
	cleaner := NewFileCleaner(Policy{RequireStationIDs: true}, zap.NewNop())
	trips, counters, err := cleaner.CleanFile(context.Background(), writeCSV(t, csv))
	if err != nil {
		t.Fatalf("CleanFile failed: %v", err)
	}

	if counters.RowsRead != 4 {
		t.Errorf("RowsRead = %d, want 4", counters.RowsRead)
	}
	// R2 has an empty end id, R3 a non-numeric start id: both null post
	// normalization, both dropped.
	if counters.DroppedStationIDs != 2 {
		t.Errorf("DroppedStationIDs = %d, want 2", counters.DroppedStationIDs)
	}
	if counters.RowsKept != 2 || int64(len(trips)) != 2 {
		t.Errorf("RowsKept = %d (batch %d), want 2", counters.RowsKept, len(trips))
	}

	sum := counters.RowsKept + counters.DroppedStationIDs + counters.DroppedCoordinates
	if sum != counters.RowsRead {
		t.Errorf("Conservation violated: %d != %d", sum, counters.RowsRead)
	}
}

func TestFileCleaner_FullDrop(t *testing.T) {
	csv := `ride_id,start_station_id,end_station_id
R1,,
R2,,
`
	cleaner := NewFileCleaner(Policy{RequireStationIDs: true}, zap.NewNop())
	trips, counters, err := cleaner.CleanFile(context.Background(), writeCSV(t, csv))
	if err != nil {
		t.Fatalf("CleanFile failed: %v", err)
	}
	if len(trips) != 0 {
		t.Errorf("Expected empty batch, got %d rows", len(trips))
	}
	if counters.RowsRead != 2 || counters.DroppedStationIDs != 2 {
		t.Errorf("counters = %+v", counters)
	}
}

func TestFileCleaner_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cleaner := NewFileCleaner(Policy{}, zap.NewNop())
	_, _, err := cleaner.CleanFile(ctx, writeCSV(t, "ride_id\nR1\n"))
	if err == nil {
		t.Fatal("Expected error for canceled context")
	}
}

func TestCounters_Fold(t *testing.T) {
	a := Counters{RowsRead: 10, DroppedStationIDs: 2, RowsKept: 8}
	b := Counters{RowsRead: 5, DroppedCoordinates: 1, RejectedUnresolved: 1, RowsKept: 3}

	a.Fold(b)
	if a.RowsRead != 15 || a.RowsKept != 11 || a.DroppedStationIDs != 2 ||
		a.DroppedCoordinates != 1 || a.RejectedUnresolved != 1 {
		t.Errorf("Fold wrong: %+v", a)
	}
}

func TestMissingByColumn(t *testing.T) {
	csv := `ride_id,start_station_id,end_station_id,start_lat
R1,100,200,
R2,100,200,40.7
`
	cleaner := NewFileCleaner(Policy{RequireStationIDs: true}, zap.NewNop())
	trips, _, err := cleaner.CleanFile(context.Background(), writeCSV(t, csv))
	if err != nil {
		t.Fatalf("CleanFile failed: %v", err)
	}

	missing := MissingByColumn(trips)
	if missing["start_lat"] != 1 {
		t.Errorf("start_lat missing = %d, want 1", missing["start_lat"])
	}
	// Absent columns count as missing on every row.
	if missing["member_casual"] != 2 {
		t.Errorf("member_casual missing = %d, want 2", missing["member_casual"])
	}
	if _, ok := missing["start_station_id"]; ok {
		t.Error("required column should have no missing entries post filter")
	}
}
