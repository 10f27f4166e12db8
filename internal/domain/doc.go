// Package domain models seismic event data and its per-region aggregates.
//
// # Data Sources
//
// Historical events arrive from an external loader as already-typed records:
// latitude, longitude, and magnitude are guaranteed present and numeric;
// depth, timestamp, and place label are optional. Rows missing the required
// fields are dropped upstream, so malformed historical input reaching this
// package is a caller bug.
//
// Live events come from the USGS FDSN event web service
// (https://earthquake.usgs.gov/fdsnws/event/1/) as a GeoJSON feature
// collection. Each feature carries:
//
//	properties.mag    magnitude (may be null for unreviewed events)
//	properties.time   origin time in epoch milliseconds
//	properties.place  free-text place label, e.g. "77 km SSE of Sand Point, Alaska"
//	geometry.coordinates  [lon, lat, depth_km]
//
// Optional properties (felt reports, tsunami flag, review status) are
// tolerated but ignored. Features missing a magnitude or a usable
// coordinate pair are dropped individually during parsing; a feed of zero
// usable features is a valid empty result, distinct from a fetch failure.
//
// # Attribution
//
// An event is attributed to at most one region. "Unresolved" is represented
// by a nil region pointer, never by a sentinel region name, so it cannot
// leak into region-scoped aggregates.
//
// # Risk Score
//
// Per-region risk combines frequency and magnitude severity:
//
//	risk = 0.3*count + 10*avg_magnitude + 5*max_magnitude
//
// The weights are fixed defaults kept stable for reproducibility across
// deployments; see [DefaultRiskWeights]. The score is monotonically
// non-decreasing in each input holding the others fixed.
package domain
