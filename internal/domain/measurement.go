package domain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
)

// MeasurementRecord is one observation at one station at one timestamp,
// from a semicolon-delimited CDC measurement series. Parameter columns are
// nullable; the source encodes missing values as -999 or a blank field.
// Column names follow the 10-minute series product files.
type MeasurementRecord struct {
	StationID string       `csv:"STATIONS_ID" json:"station_id"`
	DateStart ObsTimestamp `csv:"MESS_DATUM" json:"date_start"`
	QN        int64        `csv:"QN" json:"qn"`
	PP10      *float64     `csv:"PP_10" json:"pp_10"`
	TT10      *float64     `csv:"TT_10" json:"tt_10"`
	TM510     *float64     `csv:"TM5_10" json:"tm5_10"`
	RF10      *float64     `csv:"RF_10" json:"rf_10"`
	TD10      *float64     `csv:"TD_10" json:"td_10"`
}

// ParseMeasurementTable parses a semicolon-delimited measurement series.
// The end-of-record marker column (eor) is dropped, leading whitespace is
// trimmed, and -999 sentinels become nulls. Malformed timestamps in legacy
// 2-digit-year series decode to null rather than failing the file.
func ParseMeasurementTable(r io.Reader) ([]MeasurementRecord, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.TrimLeadingSpace = true

	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		return nil, structuralErrorf("measurement table", "read header: %v", err)
	}
	// Null sentinels are normalized to empty fields so that pointer-typed
	// columns decode to nil.
	dec.Map = func(field, _ string, _ any) string {
		if isNullSentinel(field) {
			return ""
		}
		return strings.TrimSpace(field)
	}

	var records []MeasurementRecord
	for {
		var rec MeasurementRecord
		if err := dec.Decode(&rec); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("measurement table row %d: %w", len(records)+2, err)
		}
		rec.StationID = PadStationID(rec.StationID)
		records = append(records, rec)
	}
	return records, nil
}
