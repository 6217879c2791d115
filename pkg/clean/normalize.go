// Package clean implements the per-file cleaning stages: schema
// normalization, quality filtering, and station-name resolution.
package clean

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tripflow/tripflow/internal/model"
	"github.com/tripflow/tripflow/pkg/errors"
)

// timestampLayouts are tried in order. Go's parser accepts a fractional
// second after the seconds field even when the layout omits one.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Normalizer coerces raw CSV cells to the canonical trip schema. The schema
// is a superset contract: a file need not contain every column, and unknown
// columns are ignored. Coercion never drops a row; invalid numeric or
// timestamp text becomes null.
type Normalizer struct{}

// NewNormalizer creates a Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// ReadFile decodes and normalizes one raw CSV file.
func (n *Normalizer) ReadFile(ctx context.Context, path string) ([]model.Trip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnreadableFile, "failed to open input file").
			WithContext("path", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New(errors.CodeMissingHeader, "input file is empty").
				WithContext("path", path)
		}
		return nil, errors.Wrap(err, errors.CodeMissingHeader, "failed to read CSV header").
			WithContext("path", path)
	}

	// Map schema columns to their position in this file, if present.
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var trips []model.Trip
	rowNum := int64(1)

	for {
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), errors.CodeContextCanceled, "normalization canceled").
				WithContext("path", path)
		default:
		}

		record, err := r.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDecodeFailed, "failed to read CSV row").
				WithContext("path", path).
				WithContext("row", rowNum)
		}

		trips = append(trips, n.normalizeRow(record, index))
	}

	return trips, nil
}

// normalizeRow coerces one raw row per the fixed schema table.
func (n *Normalizer) normalizeRow(record []string, index map[string]int) model.Trip {
	cell := func(col string) (string, bool) {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return "", false
		}
		s := strings.TrimSpace(record[i])
		if isNullValue(s) {
			return "", false
		}
		return s, true
	}

	var t model.Trip
	for _, spec := range model.Columns {
		s, ok := cell(spec.Name)
		if !ok {
			continue
		}
		switch spec.Kind {
		case model.KindString:
			setString(&t, spec.Name, s)
		case model.KindFloat64:
			// ParseFloat accepts NaN and Inf; neither is a usable
			// identifier or coordinate, so both coerce to null.
			if v, err := strconv.ParseFloat(s, 64); err == nil &&
				!math.IsNaN(v) && !math.IsInf(v, 0) {
				setFloat64(&t, spec.Name, v)
			}
		case model.KindTimestamp:
			if ts, ok := parseTimestamp(s); ok {
				setTime(&t, spec.Name, ts)
			}
		}
	}
	return t
}

func isNullValue(s string) bool {
	switch s {
	case "", "NULL", "null", "NA", "N/A", "n/a", "None", "none", "nil", "\\N":
		return true
	}
	return false
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func setString(t *model.Trip, col, v string) {
	switch col {
	case model.ColRideID:
		t.RideID = &v
	case model.ColRideableType:
		t.RideableType = &v
	case model.ColStartStationName:
		t.StartStationName = &v
	case model.ColEndStationName:
		t.EndStationName = &v
	case model.ColMemberCasual:
		t.MemberCasual = &v
	}
}

func setFloat64(t *model.Trip, col string, v float64) {
	switch col {
	case model.ColStartStationID:
		t.StartStationID = &v
	case model.ColEndStationID:
		t.EndStationID = &v
	case model.ColStartLat:
		t.StartLat = &v
	case model.ColStartLng:
		t.StartLng = &v
	case model.ColEndLat:
		t.EndLat = &v
	case model.ColEndLng:
		t.EndLng = &v
	}
}

func setTime(t *model.Trip, col string, v time.Time) {
	switch col {
	case model.ColStartedAt:
		t.StartedAt = &v
	case model.ColEndedAt:
		t.EndedAt = &v
	}
}
