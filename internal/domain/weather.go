package domain

import "time"

// WeatherRecord captures one interpolated real-time weather reading.
//
// All numeric fields are decimal strings exactly as the provider returned
// them, except Lat/Lon which hold the spot's registered coordinates rather
// than the provider's low-precision echo. Nullable provider fields map to
// pointers.
type WeatherRecord struct {
	ID      int64
	Created time.Time

	Lat string
	Lon string

	Temperature   string
	RH            string
	DewPoint      string
	DailyRain     *string // sometimes null upstream
	Pressure      string  // sea-level pressure
	WindDirection string
	WindCardinal  string
	WindSpeed     string
	Distance      string // distance to the nearest physical station

	// Optional daily aggregates, all nullable.
	TMin *string
	TMed *string
	TMax *string
}
