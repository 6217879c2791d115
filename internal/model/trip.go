// Package model defines the trip record model and its fixed schema table.
package model

import (
	"time"

	"github.com/apache/arrow/go/v14/arrow"
)

// Canonical column names of the raw trip-record shape.
const (
	ColRideID           = "ride_id"
	ColRideableType     = "rideable_type"
	ColStartedAt        = "started_at"
	ColEndedAt          = "ended_at"
	ColStartStationName = "start_station_name"
	ColStartStationID   = "start_station_id"
	ColEndStationName   = "end_station_name"
	ColEndStationID     = "end_station_id"
	ColStartLat         = "start_lat"
	ColStartLng         = "start_lng"
	ColEndLat           = "end_lat"
	ColEndLng           = "end_lng"
	ColMemberCasual     = "member_casual"
)

// Kind is the canonical type a raw column is coerced to.
type Kind uint8

const (
	KindString Kind = iota
	KindFloat64
	KindTimestamp
)

// ColumnSpec pairs a column name with its canonical kind.
type ColumnSpec struct {
	Name string
	Kind Kind
}

// Columns is the fixed schema table in canonical order. A raw file need not
// contain every column; absent columns read as null.
var Columns = []ColumnSpec{
	{ColRideID, KindString},
	{ColRideableType, KindString},
	{ColStartedAt, KindTimestamp},
	{ColEndedAt, KindTimestamp},
	{ColStartStationName, KindString},
	{ColStartStationID, KindFloat64},
	{ColEndStationName, KindString},
	{ColEndStationID, KindFloat64},
	{ColStartLat, KindFloat64},
	{ColStartLng, KindFloat64},
	{ColEndLat, KindFloat64},
	{ColEndLng, KindFloat64},
	{ColMemberCasual, KindString},
}

// Trip is one normalized trip record. Nullable columns are pointers; a nil
// pointer is a null cell. Station ids are retained through name resolution
// and dropped from the written output.
type Trip struct {
	RideID           *string
	RideableType     *string
	StartedAt        *time.Time
	EndedAt          *time.Time
	StartStationName *string
	StartStationID   *float64
	EndStationName   *string
	EndStationID     *float64
	StartLat         *float64
	StartLng         *float64
	EndLat           *float64
	EndLng           *float64
	MemberCasual     *string
}

// IsNull reports whether the named column is null in this record.
// Unknown column names report false.
func (t *Trip) IsNull(col string) bool {
	switch col {
	case ColRideID:
		return t.RideID == nil
	case ColRideableType:
		return t.RideableType == nil
	case ColStartedAt:
		return t.StartedAt == nil
	case ColEndedAt:
		return t.EndedAt == nil
	case ColStartStationName:
		return t.StartStationName == nil
	case ColStartStationID:
		return t.StartStationID == nil
	case ColEndStationName:
		return t.EndStationName == nil
	case ColEndStationID:
		return t.EndStationID == nil
	case ColStartLat:
		return t.StartLat == nil
	case ColStartLng:
		return t.StartLng == nil
	case ColEndLat:
		return t.EndLat == nil
	case ColEndLng:
		return t.EndLng == nil
	case ColMemberCasual:
		return t.MemberCasual == nil
	}
	return false
}

// OutputColumns are the columns of the cleaned artifact, in write order.
// The station-id columns are intentionally absent.
var OutputColumns = []string{
	ColRideID,
	ColRideableType,
	ColStartedAt,
	ColEndedAt,
	ColStartStationName,
	ColEndStationName,
	ColStartLat,
	ColStartLng,
	ColEndLat,
	ColEndLng,
	ColMemberCasual,
}

// OutputSchema returns the Arrow schema of the cleaned artifact. Station
// names are non-nullable: every retained row carries a resolved name.
func OutputSchema() *arrow.Schema {
	ts := &arrow.TimestampType{Unit: arrow.Microsecond}
	return arrow.NewSchema([]arrow.Field{
		{Name: ColRideID, Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: ColRideableType, Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: ColStartedAt, Type: ts, Nullable: true},
		{Name: ColEndedAt, Type: ts, Nullable: true},
		{Name: ColStartStationName, Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: ColEndStationName, Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: ColStartLat, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: ColStartLng, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: ColEndLat, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: ColEndLng, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: ColMemberCasual, Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)
}

// String returns a pointer to s. Convenience for building records.
func String(s string) *string { return &s }

// Float64 returns a pointer to f.
func Float64(f float64) *float64 { return &f }

// Time returns a pointer to t.
func Time(t time.Time) *time.Time { return &t }
