package domain

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
)

// Station is one measurement site from a CDC station description table.
type Station struct {
	StationID string    `json:"station_id"`
	DateStart time.Time `json:"date_start"`
	DateEnd   time.Time `json:"date_end"`
	Height    *int64    `json:"height"`
	GeoLat    *float64  `json:"geo_lat"`
	GeoLon    *float64  `json:"geo_lon"`
	Name      string    `json:"name"`
	State     string    `json:"state"`
}

// stationIDWidth is the canonical zero-padded width shared by every parser.
// Station lists, measurement series, and forecast placemarks must agree on it
// for cross-referencing by station id to work.
const stationIDWidth = 5

// PadStationID left-pads a raw station id with zeros to the canonical width.
func PadStationID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) >= stationIDWidth {
		return id
	}
	return strings.Repeat("0", stationIDWidth-len(id)) + id
}

// Raw header names of the station description format, in source order.
// Renames to the canonical schema are fixed at compile time; see the Station
// field the value of each constant maps to.
const (
	rawColStationID = "Stations_id"   // station_id
	rawColDateStart = "von_datum"     // date_start
	rawColDateEnd   = "bis_datum"     // date_end
	rawColHeight    = "Stationshoehe" // height
	rawColGeoLat    = "geoBreite"     // geo_lat
	rawColGeoLon    = "geoLaenge"     // geo_lon
	rawColName      = "Stationsname"  // name
	rawColState     = "Bundesland"    // state
)

// ParseStationTable parses a fixed-width station description table. The
// source is Latin-1 encoded; the first line is a space-delimited header and
// the two lines after it are a separator and legend, skipped unconditionally.
func ParseStationTable(r io.Reader) ([]Station, error) {
	scanner := bufio.NewScanner(charmap.ISO8859_1.NewDecoder().Reader(r))

	if !scanner.Scan() {
		return nil, structuralErrorf("station table", "missing header line")
	}
	header := strings.Fields(scanner.Text())
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{
		rawColStationID, rawColDateStart, rawColDateEnd, rawColHeight,
		rawColGeoLat, rawColGeoLon, rawColName, rawColState,
	} {
		if _, ok := col[required]; !ok {
			return nil, structuralErrorf("station table", "missing column %q", required)
		}
	}

	for skip := 0; skip < 2 && scanner.Scan(); skip++ {
	}

	var stations []Station
	line := 3
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		s, err := parseStationRow(header, col, strings.Fields(text))
		if err != nil {
			return nil, fmt.Errorf("station table line %d: %w", line, err)
		}
		stations = append(stations, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read station table: %w", err)
	}
	return stations, nil
}

// parseStationRow maps one whitespace-split data row onto the canonical
// schema. The station name is the only column that may itself contain
// spaces, so any surplus tokens are folded into it.
func parseStationRow(header []string, col map[string]int, tokens []string) (Station, error) {
	if len(tokens) < len(header) {
		return Station{}, structuralErrorf("station row", "%d fields, want at least %d", len(tokens), len(header))
	}

	nameIdx := col[rawColName]
	surplus := len(tokens) - len(header)

	field := func(name string) string {
		i := col[name]
		if i > nameIdx {
			i += surplus
		}
		return tokens[i]
	}

	dateStart, err := ParseDayUTC(field(rawColDateStart))
	if err != nil {
		return Station{}, structuralErrorf("station row", "bad %s: %v", rawColDateStart, err)
	}
	dateEnd, err := ParseDayUTC(field(rawColDateEnd))
	if err != nil {
		return Station{}, structuralErrorf("station row", "bad %s: %v", rawColDateEnd, err)
	}
	height, err := nullableInt(field(rawColHeight))
	if err != nil {
		return Station{}, structuralErrorf("station row", "bad %s: %v", rawColHeight, err)
	}
	lat, err := nullableFloat(field(rawColGeoLat))
	if err != nil {
		return Station{}, structuralErrorf("station row", "bad %s: %v", rawColGeoLat, err)
	}
	lon, err := nullableFloat(field(rawColGeoLon))
	if err != nil {
		return Station{}, structuralErrorf("station row", "bad %s: %v", rawColGeoLon, err)
	}

	return Station{
		StationID: PadStationID(field(rawColStationID)),
		DateStart: dateStart,
		DateEnd:   dateEnd,
		Height:    height,
		GeoLat:    lat,
		GeoLon:    lon,
		Name:      strings.Join(tokens[nameIdx:nameIdx+surplus+1], " "),
		State:     field(rawColState),
	}, nil
}

// isNullSentinel reports whether a raw numeric field encodes a missing value.
// The source uses -999, occasionally with trailing spaces.
func isNullSentinel(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "-999"
}

func nullableInt(s string) (*int64, error) {
	if isNullSentinel(s) {
		return nil, nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func nullableFloat(s string) (*float64, error) {
	if isNullSentinel(s) {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
