package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const measurementHeader = "STATIONS_ID;MESS_DATUM;QN;PP_10;TT_10;TM5_10;RF_10;TD_10;eor\n"

func TestParseMeasurementTable(t *testing.T) {
	t.Run("regular rows", func(t *testing.T) {
		src := measurementHeader +
			"   3;202003131040;    3;  990.8;   7.3;   9.1;  71.2;   2.4;eor\n" +
			"   3;202003131050;    3;  990.6;   7.5;   9.4;  70.1;   2.4;eor\n"

		records, err := ParseMeasurementTable(strings.NewReader(src))
		require.NoError(t, err)
		require.Len(t, records, 2)

		r := records[0]
		assert.Equal(t, "00003", r.StationID)
		require.True(t, r.DateStart.Valid)
		assert.Equal(t, time.Date(2020, 3, 13, 10, 40, 0, 0, time.UTC), r.DateStart.Time)
		assert.Equal(t, int64(3), r.QN)
		require.NotNil(t, r.PP10)
		assert.InDelta(t, 990.8, *r.PP10, 1e-9)
		require.NotNil(t, r.TD10)
		assert.InDelta(t, 2.4, *r.TD10, 1e-9)
	})

	t.Run("sentinel null leaves other fields intact", func(t *testing.T) {
		src := measurementHeader +
			"   3;202003131040;    3;  -999;   7.3;   9.1;  71.2;   2.4;eor\n"

		records, err := ParseMeasurementTable(strings.NewReader(src))
		require.NoError(t, err)
		require.Len(t, records, 1)

		assert.Nil(t, records[0].PP10)
		require.NotNil(t, records[0].TT10)
		assert.InDelta(t, 7.3, *records[0].TT10, 1e-9)
	})

	t.Run("sentinel with trailing spaces", func(t *testing.T) {
		src := measurementHeader +
			"   3;202003131040;    3;-999   ;   7.3;   9.1;  71.2;   2.4;eor\n"

		records, err := ParseMeasurementTable(strings.NewReader(src))
		require.NoError(t, err)
		assert.Nil(t, records[0].PP10)
	})

	t.Run("legacy two digit year", func(t *testing.T) {
		src := measurementHeader +
			"   3;9912312350;    1;  990.8;   7.3;   9.1;  71.2;   2.4;eor\n"

		records, err := ParseMeasurementTable(strings.NewReader(src))
		require.NoError(t, err)
		require.True(t, records[0].DateStart.Valid)
		assert.Equal(t, time.Date(1999, 12, 31, 23, 50, 0, 0, time.UTC), records[0].DateStart.Time)
	})

	t.Run("unparseable timestamp yields null record not error", func(t *testing.T) {
		src := measurementHeader +
			"   3;99123123XX;    1;  990.8;   7.3;   9.1;  71.2;   2.4;eor\n"

		records, err := ParseMeasurementTable(strings.NewReader(src))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.False(t, records[0].DateStart.Valid)
		require.NotNil(t, records[0].PP10)
	})

	t.Run("missing columns tolerated for other series", func(t *testing.T) {
		src := "STATIONS_ID;MESS_DATUM;QN;TT_10;eor\n" +
			"  44;202003131040;    3;   7.3;eor\n"

		records, err := ParseMeasurementTable(strings.NewReader(src))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "00044", records[0].StationID)
		assert.Nil(t, records[0].PP10)
		require.NotNil(t, records[0].TT10)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ParseMeasurementTable(strings.NewReader(""))
		require.Error(t, err)
	})
}
