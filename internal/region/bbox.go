package region

import (
	"github.com/couchcryptid/quake-region-analytics/internal/domain"
)

// BoundingBoxResolver matches events against each region's rectangular
// bounds with a linear scan, first listed region wins. O(1) per region,
// O(|regions|) per event. Bounds are inclusive, so a point exactly on an
// edge belongs to the region.
type BoundingBoxResolver struct {
	boxes   []BBox
	regions []domain.Region
}

// NewBoundingBoxResolver precomputes one box per region. Regions defined
// only by a polygon contribute their polygon's bounds, which over-matches
// near concave borders; that imprecision is inherent to the strategy.
func NewBoundingBoxResolver(index *Index) *BoundingBoxResolver {
	defs := index.Definitions()
	boxes := make([]BBox, len(defs))
	for i, d := range defs {
		boxes[i] = d.Bounds()
	}
	return &BoundingBoxResolver{boxes: boxes, regions: index.Regions()}
}

// Resolve returns the first listed region whose box contains the event's
// coordinate, or nil if no box matches.
func (r *BoundingBoxResolver) Resolve(ev domain.Event) (*domain.Region, error) {
	if err := domain.ValidateCoordinate(ev.Lat, ev.Lon); err != nil {
		return nil, err
	}
	for i, b := range r.boxes {
		if b.Contains(ev.Lat, ev.Lon) {
			reg := r.regions[i]
			return &reg, nil
		}
	}
	return nil, nil
}
