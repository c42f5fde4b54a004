package lookup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	table, err := Load(strings.NewReader(
		"forecasts_station_id,observations_station_id,name\n" +
			"10381,403,BERLIN-DAHLEM\n" +
			"10379,3376,POTSDAM\n"))
	require.NoError(t, err)

	assert.True(t, table.HasForecastID("10381"))
	assert.False(t, table.HasForecastID("99999"))
	assert.Equal(t, []string{"10381", "10379"}, table.ForecastIDs())
	assert.Equal(t, []string{"00403", "03376"}, table.ObservationIDs())
}

func TestLoad_MalformedRow(t *testing.T) {
	_, err := Load(strings.NewReader(
		"forecasts_station_id,observations_station_id,name\n" +
			"10381,403\n"))
	require.Error(t, err)
}

func TestObservationID(t *testing.T) {
	table := Default()

	obs, ok := table.ObservationID("10381")
	require.True(t, ok)
	assert.Equal(t, "00403", obs)

	_, ok = table.ObservationID("99999")
	assert.False(t, ok)
}

func TestForecastID(t *testing.T) {
	table := Default()

	t.Run("padded id", func(t *testing.T) {
		fc, ok := table.ForecastID("00403")
		require.True(t, ok)
		assert.Equal(t, "10381", fc)
	})

	t.Run("unpadded id is normalized", func(t *testing.T) {
		fc, ok := table.ForecastID("403")
		require.True(t, ok)
		assert.Equal(t, "10381", fc)
	})
}

func TestDefaultTableIsWellFormed(t *testing.T) {
	table := Default()
	require.NotEmpty(t, table.ForecastIDs())

	for _, id := range table.ObservationIDs() {
		assert.Len(t, id, 5)
	}
}
