package domain

import "time"

// Spot is a named surf location with fixed coordinates.
//
// Lat and Lon are decimal strings preserved verbatim from registration.
// They are never round-tripped through floating point so repeated
// fetch/store cycles cannot drift the registered position.
type Spot struct {
	ID      int64
	UID     string
	Name    string
	Lat     string
	Lon     string
	Created time.Time

	// Provider registrations. Empty string means not registered.
	BuoyStation   StationID
	WindyWebcamID string
	IPCamAlias    string
}

// SpotSet is the batch of spots a single assembly run operates on.
type SpotSet []Spot

// Stations returns the distinct buoy stations registered across the set,
// in first-seen order. Stations are shared between spots, so the result
// can be shorter than the set.
func (s SpotSet) Stations() []StationID {
	seen := make(map[StationID]bool, len(s))
	var stations []StationID
	for _, spot := range s {
		if spot.BuoyStation == "" || seen[spot.BuoyStation] {
			continue
		}
		seen[spot.BuoyStation] = true
		stations = append(stations, spot.BuoyStation)
	}
	return stations
}
