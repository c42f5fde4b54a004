// Package lookup maps between the station identifier schemes of the two
// DWD catalogs: forecast stations carry WMO-style MOSMIX ids while
// observation stations use the CDC numeric ids. The bundled table covers
// the stations this service is deployed for.
package lookup

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jszwec/csvutil"

	"github.com/climatehub/dwd-cdc-etl/internal/domain"
)

//go:embed station_lookup.csv
var embeddedTable []byte

type entry struct {
	ForecastID    string `csv:"forecasts_station_id"`
	ObservationID string `csv:"observations_station_id"`
	Name          string `csv:"name"`
}

// Table resolves station ids across the forecast and observation catalogs.
type Table struct {
	entries       []entry
	byForecast    map[string]int
	byObservation map[string]int
}

// Load reads a lookup table from CSV with columns forecasts_station_id,
// observations_station_id, and name. Observation ids are normalized to
// their padded form.
func Load(r io.Reader) (*Table, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("read station lookup header: %w", err)
	}

	t := &Table{
		byForecast:    make(map[string]int),
		byObservation: make(map[string]int),
	}
	for {
		var e entry
		if err := dec.Decode(&e); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("parse station lookup: %w", err)
		}
		e.ObservationID = domain.PadStationID(e.ObservationID)
		t.byForecast[e.ForecastID] = len(t.entries)
		t.byObservation[e.ObservationID] = len(t.entries)
		t.entries = append(t.entries, e)
	}
	return t, nil
}

// Default returns the table bundled with the binary.
func Default() *Table {
	t, err := Load(bytes.NewReader(embeddedTable))
	if err != nil {
		// The embedded table is validated by tests; a parse failure here
		// means a broken build.
		panic(fmt.Sprintf("lookup: embedded station table: %v", err))
	}
	return t
}

// HasForecastID reports whether id is a known forecast station.
func (t *Table) HasForecastID(id string) bool {
	_, ok := t.byForecast[id]
	return ok
}

// ForecastIDs returns all known forecast station ids.
func (t *Table) ForecastIDs() []string {
	ids := make([]string, len(t.entries))
	for i, e := range t.entries {
		ids[i] = e.ForecastID
	}
	return ids
}

// ObservationIDs returns all known observation station ids, padded.
func (t *Table) ObservationIDs() []string {
	ids := make([]string, len(t.entries))
	for i, e := range t.entries {
		ids[i] = e.ObservationID
	}
	return ids
}

// ObservationID maps a forecast station id to its observation id.
func (t *Table) ObservationID(forecastID string) (string, bool) {
	i, ok := t.byForecast[forecastID]
	if !ok {
		return "", false
	}
	return t.entries[i].ObservationID, true
}

// ForecastID maps an observation station id to its forecast id. The input
// is padded before lookup so raw table ids work too.
func (t *Table) ForecastID(observationID string) (string, bool) {
	i, ok := t.byObservation[domain.PadStationID(observationID)]
	if !ok {
		return "", false
	}
	return t.entries[i].ForecastID, true
}
