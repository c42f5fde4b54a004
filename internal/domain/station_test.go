package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const stationTableHeader = "Stations_id von_datum bis_datum Stationshoehe geoBreite geoLaenge Stationsname Bundesland\n" +
	"----------- --------- --------- ------------- --------- --------- ------------ ----------\n" +
	"(Angaben im Festbreitenformat)\n"

// latin1 encodes a fixture to the on-the-wire encoding of the CDC station
// description files.
func latin1(t *testing.T, s string) *strings.Reader {
	t.Helper()
	encoded, err := charmap.ISO8859_1.NewEncoder().String(s)
	require.NoError(t, err)
	return strings.NewReader(encoded)
}

func TestParseStationTable(t *testing.T) {
	t.Run("single row", func(t *testing.T) {
		src := stationTableHeader +
			"1 19370101 19860630            478     47.8413    8.8493 Aach Nordrhein-Westfalen\n"

		stations, err := ParseStationTable(latin1(t, src))
		require.NoError(t, err)
		require.Len(t, stations, 1)

		s := stations[0]
		assert.Equal(t, "00001", s.StationID)
		assert.Equal(t, time.Date(1937, 1, 1, 0, 0, 0, 0, time.UTC), s.DateStart)
		assert.Equal(t, time.Date(1986, 6, 30, 0, 0, 0, 0, time.UTC), s.DateEnd)
		require.NotNil(t, s.Height)
		assert.Equal(t, int64(478), *s.Height)
		require.NotNil(t, s.GeoLat)
		assert.InDelta(t, 47.8413, *s.GeoLat, 1e-9)
		require.NotNil(t, s.GeoLon)
		assert.InDelta(t, 8.8493, *s.GeoLon, 1e-9)
		assert.Equal(t, "Aach", s.Name)
		assert.Equal(t, "Nordrhein-Westfalen", s.State)
	})

	t.Run("station name with spaces", func(t *testing.T) {
		src := stationTableHeader +
			"164 19950901 20251231             40     53.0316   13.9908 Angermünde (Kloster Chorin) Brandenburg\n"

		stations, err := ParseStationTable(latin1(t, src))
		require.NoError(t, err)
		require.Len(t, stations, 1)
		assert.Equal(t, "00164", stations[0].StationID)
		assert.Equal(t, "Angermünde (Kloster Chorin)", stations[0].Name)
		assert.Equal(t, "Brandenburg", stations[0].State)
	})

	t.Run("sentinel height", func(t *testing.T) {
		src := stationTableHeader +
			"44 20070401 20251231           -999     52.9336    8.2370 Großenkneten Niedersachsen\n"

		stations, err := ParseStationTable(latin1(t, src))
		require.NoError(t, err)
		require.Len(t, stations, 1)
		assert.Nil(t, stations[0].Height)
	})

	t.Run("negative height near sea level", func(t *testing.T) {
		src := stationTableHeader +
			"96 20190409 20251231             -1     53.7160    7.1580 Norderney Niedersachsen\n"

		stations, err := ParseStationTable(latin1(t, src))
		require.NoError(t, err)
		require.NotNil(t, stations[0].Height)
		assert.Equal(t, int64(-1), *stations[0].Height)
	})

	t.Run("blank lines ignored", func(t *testing.T) {
		src := stationTableHeader +
			"1 19370101 19860630 478 47.8413 8.8493 Aach Baden-Württemberg\n" +
			"\n" +
			"2 19370101 19860630 138 50.8066 6.0996 Aachen Nordrhein-Westfalen\n"

		stations, err := ParseStationTable(latin1(t, src))
		require.NoError(t, err)
		assert.Len(t, stations, 2)
		assert.Equal(t, "Baden-Württemberg", stations[0].State)
	})

	t.Run("missing column", func(t *testing.T) {
		src := "Stations_id von_datum bis_datum\n---\n---\n"
		_, err := ParseStationTable(latin1(t, src))

		var perr *StructuralParseError
		require.ErrorAs(t, err, &perr)
		assert.Contains(t, err.Error(), "Stationshoehe")
	})

	t.Run("short row", func(t *testing.T) {
		src := stationTableHeader + "1 19370101\n"
		_, err := ParseStationTable(latin1(t, src))

		var perr *StructuralParseError
		require.ErrorAs(t, err, &perr)
	})

	t.Run("bad date", func(t *testing.T) {
		src := stationTableHeader +
			"1 1937010X 19860630 478 47.8413 8.8493 Aach Baden-Württemberg\n"
		_, err := ParseStationTable(latin1(t, src))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "von_datum")
	})

	t.Run("idempotent", func(t *testing.T) {
		src := stationTableHeader +
			"1 19370101 19860630 478 47.8413 8.8493 Aach Baden-Württemberg\n"

		first, err := ParseStationTable(latin1(t, src))
		require.NoError(t, err)
		second, err := ParseStationTable(latin1(t, src))
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestPadStationID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "00001"},
		{"44", "00044"},
		{"164", "00164"},
		{"13777", "13777"},
		{" 42 ", "00042"},
		{"P0489", "P0489"},
	}
	for _, tc := range tests {
		got := PadStationID(tc.in)
		assert.Equal(t, tc.want, got)
		assert.Len(t, got, 5)
	}
}
