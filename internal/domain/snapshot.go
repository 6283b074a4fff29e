package domain

import "time"

// SnapshotData bundles the freshly fetched source data for one spot before
// persistence. The assembler builds one per spot and hands the whole batch
// to the store, which commits it in a single transaction.
type SnapshotData struct {
	Spot    Spot
	Taken   time.Time
	Buoy    BuoySnapshot
	Weather WeatherRecord
	Windy   WebcamCapture
	IPCam   WebcamCapture
}

// SpotSnapshot is a persisted point-in-time bundle for one spot. It is
// created exactly once per assembly run per spot and immutable thereafter;
// bad captures are soft-discarded rather than deleted so source records
// keep their referential integrity.
type SpotSnapshot struct {
	ID        int64
	Spot      Spot
	Created   time.Time
	Discarded bool

	Buoy    BuoyRecord
	Weather WeatherRecord
	Windy   WebcamCapture
	IPCam   WebcamCapture

	// Assessment is nil until a reviewer scores the snapshot.
	Assessment *Assessment
}

// BuoyRecord is a persisted BuoySnapshot.
type BuoyRecord struct {
	ID      int64
	Created time.Time
	BuoySnapshot
}
