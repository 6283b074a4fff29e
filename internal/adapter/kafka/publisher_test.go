package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidelab/surfcast/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	taken := time.Date(2026, 4, 26, 15, 10, 0, 0, time.UTC)
	snapshot := domain.SpotSnapshot{
		ID:      42,
		Spot:    domain.Spot{UID: "abc123", Name: "Pontile Tonfano"},
		Created: taken,
		Buoy: domain.BuoyRecord{
			BuoySnapshot: domain.BuoySnapshot{
				Station: domain.StationGorgona,
				AsOf:    taken,
				WaveHeight: domain.TimeSeries{
					X: []float64{13.5, 14.0, 14.5}, Y: []float64{0.8, 0.9, 1.1}, Unit: "m",
				},
				Period: domain.TimeSeries{
					X: []float64{13.5, 14.0, 14.5}, Y: []float64{7.0, 7.2, 7.5}, Unit: "s",
				},
			},
		},
	}

	msg, err := serializeToMessage(snapshot)
	require.NoError(t, err)

	assert.Equal(t, []byte("abc123"), msg.Key)

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "station", msg.Headers[0].Key)
	assert.Equal(t, []byte("boa-gorgona"), msg.Headers[0].Value)
	assert.Equal(t, "taken", msg.Headers[1].Key)
	assert.Equal(t, []byte("2026-04-26T15:10:00Z"), msg.Headers[1].Value)

	assert.JSONEq(t, `{
		"snapshot_id": 42,
		"spot_uid": "abc123",
		"spot_name": "Pontile Tonfano",
		"taken": "2026-04-26T15:10:00Z",
		"buoy": {
			"station": "boa-gorgona",
			"as_of": "2026-04-26T15:10:00Z",
			"wave_height": 1.1,
			"wave_height_unit": "m",
			"period": 7.5,
			"period_unit": "s",
			"direction": 0,
			"direction_unit": "",
			"delay_hours": 0.67
		}
	}`, string(msg.Value))
}
