package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climatehub/dwd-cdc-etl/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	tt := 7.3
	rec := domain.MeasurementRecord{
		StationID: "00003",
		DateStart: domain.ParseObsTimestamp("202003131040"),
		QN:        3,
		TT10:      &tt,
	}

	msg, err := serializeToMessage("10_minutes", "air_temperature", rec)
	require.NoError(t, err)

	assert.Equal(t, []byte("00003"), msg.Key)
	assert.Contains(t, string(msg.Value), `"station_id":"00003"`)
	assert.Contains(t, string(msg.Value), `"date_start":"2020-03-13T10:40:00Z"`)
	assert.Contains(t, string(msg.Value), `"tt_10":7.3`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "resolution", msg.Headers[0].Key)
	assert.Equal(t, []byte("10_minutes"), msg.Headers[0].Value)
	assert.Equal(t, "parameter", msg.Headers[1].Key)
	assert.Equal(t, []byte("air_temperature"), msg.Headers[1].Value)
}

func TestSerializeToMessageNullTimestamp(t *testing.T) {
	rec := domain.MeasurementRecord{StationID: "00044", QN: 1}

	msg, err := serializeToMessage("10_minutes", "air_temperature", rec)
	require.NoError(t, err)

	assert.Contains(t, string(msg.Value), `"date_start":null`)
}
