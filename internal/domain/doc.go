// Package domain models surf spots and the environmental data captured for them.
//
// # Data Sources
//
// Each spot registers with up to four external providers:
//
//	Buoy: the regional hydrological service publishes per-station graphs of
//	significant wave height, peak period, and peak direction. A graph query
//	is (station, graph type, date DD/MM/YYYY, hours 0-23) and returns a
//	sparse series of (hour-of-day, value) points plus a physical unit.
//	Stations are shared between nearby spots (many-to-many).
//
//	Weather: an interpolated real-time service queried by lat/lon. All
//	numeric fields arrive as decimal strings and are preserved verbatim;
//	the provider echoes low-precision coordinates which are discarded in
//	favor of the spot's registered ones.
//
//	Webcams: two providers. One serves a preview image directly by camera
//	alias; the other returns metadata plus a preview URL that must be
//	resolved to bytes with a second request.
//
// # Snapshots
//
// A snapshot bundles one record per source for one spot at one capture
// instant. Records are immutable once written; corrections require taking a
// new snapshot. A snapshot can be soft-discarded to exclude it from training
// without breaking referential integrity.
//
// # Hours Of Day
//
// Buoy series use fractional hour-of-day as the x axis (14.5 = 14:30).
// X values are monotonically non-decreasing within one record. Lag features
// are read relative to the latest x, not the capture instant, because the
// upstream feed lags the wall clock; DataDelay measures that gap.
//
// # Assessment
//
// A human reviewer attaches at most one wave-size score per snapshot, on a
// 0-8 ladder from flat to double overhead. Scores are never auto-generated.
package domain
