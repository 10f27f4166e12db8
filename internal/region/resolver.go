package region

import (
	"fmt"

	"github.com/couchcryptid/quake-region-analytics/internal/domain"
)

// Resolver attributes an event to at most one region. A nil region with a
// nil error means unresolved, which is a valid outcome, not a failure. The
// only error condition is an invalid coordinate.
type Resolver interface {
	Resolve(ev domain.Event) (*domain.Region, error)
}

// Strategy names a resolver implementation.
type Strategy string

const (
	// StrategyBoundingBox scans the definitions linearly and matches on the
	// rectangular bounds. Cheap and approximate: events in border zones or
	// unlisted areas resolve to nothing.
	StrategyBoundingBox Strategy = "bbox"

	// StrategyPolygon runs point-in-polygon containment against real
	// boundary geometry through a prebuilt S2 spatial index.
	StrategyPolygon Strategy = "polygon"
)

// ParseStrategy validates a strategy name from configuration.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyBoundingBox, StrategyPolygon:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("unknown region strategy %q (want %q or %q)", s, StrategyBoundingBox, StrategyPolygon)
	}
}
