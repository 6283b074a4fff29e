package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateScore(t *testing.T) {
	tests := []struct {
		name  string
		score string
		valid bool
	}{
		{"flat", "0", true},
		{"chest high", "3", true},
		{"double overhead", "8", true},
		{"fractional", "4.5", true},
		{"below range", "-0.5", false},
		{"above range", "8.0001", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := decimal.NewFromString(tt.score)
			require.NoError(t, err)

			err = ValidateScore(score)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestDaylightGuard_Check(t *testing.T) {
	// Versilia coastline, well within CET.
	guard := DaylightGuard{Lat: 43.9866, Lon: 10.2134}

	t.Run("midday passes", func(t *testing.T) {
		noon := time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)
		assert.NoError(t, guard.Check(noon))
	})

	t.Run("midnight fails", func(t *testing.T) {
		midnight := time.Date(2024, 6, 21, 0, 30, 0, 0, time.UTC)
		err := guard.Check(midnight)
		require.ErrorIs(t, err, ErrOutsideDaylight)
	})

	t.Run("winter evening fails", func(t *testing.T) {
		evening := time.Date(2024, 12, 21, 20, 0, 0, 0, time.UTC)
		err := guard.Check(evening)
		require.ErrorIs(t, err, ErrOutsideDaylight)
	})
}
