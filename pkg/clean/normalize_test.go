package clean

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trips.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNormalizer_Coercion(t *testing.T) {
	csv := `ride_id,rideable_type,started_at,ended_at,start_station_name,start_station_id,end_station_name,end_station_id,start_lat,start_lng,end_lat,end_lng,member_casual
R1,classic_bike,2023-01-02 10:00:00,2023-01-02 10:15:00,Main St,100,Broadway,200.5,40.7,-74.0,40.8,-73.9,member
R2,electric_bike,not-a-date,2023-01-02 11:00:00.123,Main St,abc,Broadway,200.5,bad,-74.0,40.8,-73.9,casual
`
	n := NewNormalizer()
	trips, err := n.ReadFile(context.Background(), writeCSV(t, csv))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(trips) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(trips))
	}

	r1 := trips[0]
	if r1.RideID == nil || *r1.RideID != "R1" {
		t.Errorf("ride_id not passed through: %v", r1.RideID)
	}
	if r1.StartStationID == nil || *r1.StartStationID != 100 {
		t.Errorf("start_station_id = %v, want 100", r1.StartStationID)
	}
	if r1.EndStationID == nil || *r1.EndStationID != 200.5 {
		t.Errorf("end_station_id = %v, want 200.5", r1.EndStationID)
	}
	want := time.Date(2023, 1, 2, 10, 0, 0, 0, time.UTC)
	if r1.StartedAt == nil || !r1.StartedAt.Equal(want) {
		t.Errorf("started_at = %v, want %v", r1.StartedAt, want)
	}

	r2 := trips[1]
	if r2.StartedAt != nil {
		t.Errorf("unparseable timestamp should be null, got %v", *r2.StartedAt)
	}
	if r2.EndedAt == nil {
		t.Error("fractional-second timestamp should parse")
	}
	if r2.StartStationID != nil {
		t.Errorf("non-numeric station id should be null, got %v", *r2.StartStationID)
	}
	if r2.StartLat != nil {
		t.Errorf("non-numeric latitude should be null, got %v", *r2.StartLat)
	}
	// Coercion never drops the row.
	if r2.RideID == nil || *r2.RideID != "R2" {
		t.Error("row with coercion faults must be retained")
	}
}

func TestNormalizer_AbsentColumnsTolerated(t *testing.T) {
	csv := "ride_id,start_station_id\nR1,100\n"
	n := NewNormalizer()
	trips, err := n.ReadFile(context.Background(), writeCSV(t, csv))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(trips) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(trips))
	}
	if trips[0].EndStationID != nil || trips[0].MemberCasual != nil {
		t.Error("absent columns must read as null")
	}
}

func TestNormalizer_NonFiniteFloatsAreNull(t *testing.T) {
	csv := `ride_id,start_station_id,end_station_id,start_lat,start_lng,end_lat,end_lng
R1,NaN,Inf,-Infinity,nan,inf,40.8
`
	n := NewNormalizer()
	trips, err := n.ReadFile(context.Background(), writeCSV(t, csv))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	r := trips[0]
	if r.StartStationID != nil {
		t.Errorf("NaN station id must be null, got %v", *r.StartStationID)
	}
	if r.EndStationID != nil {
		t.Errorf("Inf station id must be null, got %v", *r.EndStationID)
	}
	if r.StartLat != nil || r.StartLng != nil || r.EndLat != nil {
		t.Error("non-finite coordinates must be null")
	}
	if r.EndLng == nil || *r.EndLng != 40.8 {
		t.Errorf("finite coordinate must survive, got %v", r.EndLng)
	}

	// The null id makes the row a station-id quality drop; it never
	// reaches the resolver's integrity-fault path.
	result := Filter(trips, Policy{RequireStationIDs: true})
	if result.DroppedStationIDs != 1 || len(result.Kept) != 0 {
		t.Errorf("row with NaN id: dropped=%d kept=%d, want 1 and 0",
			result.DroppedStationIDs, len(result.Kept))
	}
}

func TestNormalizer_NullSentinels(t *testing.T) {
	csv := "ride_id,start_station_id,end_station_id\nR1,NULL,N/A\n"
	n := NewNormalizer()
	trips, err := n.ReadFile(context.Background(), writeCSV(t, csv))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if trips[0].StartStationID != nil || trips[0].EndStationID != nil {
		t.Error("null sentinels must coerce to null")
	}
}

func TestNormalizer_EmptyFile(t *testing.T) {
	n := NewNormalizer()
	if _, err := n.ReadFile(context.Background(), writeCSV(t, "")); err == nil {
		t.Fatal("Expected error for empty file")
	}
}

func TestNormalizer_HeaderOnly(t *testing.T) {
	n := NewNormalizer()
	trips, err := n.ReadFile(context.Background(), writeCSV(t, "ride_id\n"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(trips) != 0 {
		t.Errorf("Expected 0 rows, got %d", len(trips))
	}
}
