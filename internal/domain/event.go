package domain

import (
	"fmt"
	"math"
	"time"
)

// Event is one seismic occurrence as handed over by the historical loader or
// the live feed. Events are immutable once parsed; the core only derives new
// records from them.
type Event struct {
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Magnitude  float64   `json:"magnitude"`
	DepthKm    float64   `json:"depth_km,omitempty"`
	OccurredAt time.Time `json:"occurred_at,omitempty"` // zero for rows without a usable timestamp
	Place      string    `json:"place,omitempty"`
}

// Region is a named political/geographic area. The geometric membership test
// lives in the region package; domain code only sees the identity.
type Region struct {
	Name    string `json:"name"`
	ISOCode string `json:"iso_code,omitempty"`
}

// AttributedEvent pairs an event with the region it resolved to. A nil
// Region means unresolved; unresolved events are excluded from region-scoped
// aggregates and must never be folded into a default region.
type AttributedEvent struct {
	Event  Event   `json:"event"`
	Region *Region `json:"region,omitempty"`
}

// RegionStats is one aggregate row per region. StddevMagnitude is NaN when
// Count < 2 (sample standard deviation is undefined for a single value).
type RegionStats struct {
	Region          Region  `json:"region"`
	Count           int     `json:"count"`
	AvgMagnitude    float64 `json:"avg_magnitude"`
	MaxMagnitude    float64 `json:"max_magnitude"`
	StddevMagnitude float64 `json:"stddev_magnitude"`
	RiskScore       float64 `json:"risk_score"`
}

// FetchMetadata describes one live-feed fetch result.
type FetchMetadata struct {
	FetchedAt   time.Time `json:"fetched_at"`
	GeneratedAt time.Time `json:"generated_at,omitempty"` // source-reported generation time
	Count       int       `json:"count"`
	Stale       bool      `json:"stale"`
}

// ValidateCoordinate rejects NaN and out-of-range latitude/longitude values.
// Resolvers never attempt resolution on invalid input.
func ValidateCoordinate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return fmt.Errorf("%w: lat=%v lon=%v", ErrInvalidCoordinate, lat, lon)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: lat=%v lon=%v", ErrInvalidCoordinate, lat, lon)
	}
	return nil
}
