package region

import (
	"github.com/golang/geo/s2"

	"github.com/couchcryptid/quake-region-analytics/internal/domain"
)

// PolygonResolver tests point-in-polygon containment against real boundary
// geometry. All region polygons are loaded into a single s2.ShapeIndex, so a
// lookup touches only the shapes near the query cell instead of scanning
// every region. Containment is boundary-inclusive (VertexModelClosed):
// a point exactly on a boundary belongs to the region.
//
// Regions defined only by a bbox are indexed as the box's corner ring, which
// keeps the two strategies in agreement on interior points.
type PolygonResolver struct {
	index   *s2.ShapeIndex
	order   map[s2.Shape]int
	regions []domain.Region
}

// NewPolygonResolver builds the spatial index eagerly so the first real
// query does not pay the construction cost.
func NewPolygonResolver(index *Index) *PolygonResolver {
	shapeIndex := s2.NewShapeIndex()
	order := make(map[s2.Shape]int, index.Len())

	for i, d := range index.Definitions() {
		ring := d.Polygon
		if len(ring) == 0 {
			ring = cornerRing(*d.BBox)
		}
		poly := s2.PolygonFromLoops([]*s2.Loop{loopFromLatLons(ring)})
		shapeIndex.Add(poly)
		order[poly] = i
	}

	r := &PolygonResolver{index: shapeIndex, order: order, regions: index.Regions()}

	// Force the lazy shape index to build now rather than under the first
	// concurrent query.
	q := s2.NewContainsPointQuery(shapeIndex, s2.VertexModelClosed)
	q.ContainingShapes(s2.PointFromLatLng(s2.LatLngFromDegrees(0, 0)))

	return r
}

// Resolve returns the first listed region whose polygon contains the event's
// coordinate, or nil if none does.
func (r *PolygonResolver) Resolve(ev domain.Event) (*domain.Region, error) {
	if err := domain.ValidateCoordinate(ev.Lat, ev.Lon); err != nil {
		return nil, err
	}

	// ContainsPointQuery is cheap to construct but not safe for concurrent
	// use, so each resolution gets its own.
	q := s2.NewContainsPointQuery(r.index, s2.VertexModelClosed)
	pt := s2.PointFromLatLng(s2.LatLngFromDegrees(ev.Lat, ev.Lon))

	best := -1
	for _, shape := range q.ContainingShapes(pt) {
		if i, ok := r.order[shape]; ok && (best < 0 || i < best) {
			best = i
		}
	}
	if best < 0 {
		return nil, nil
	}
	reg := r.regions[best]
	return &reg, nil
}

// loopFromLatLons converts [lat, lon] vertices into an s2 loop normalized to
// enclose the smaller of the two areas it divides the sphere into, so vertex
// winding order in the definition file does not matter.
func loopFromLatLons(ring [][2]float64) *s2.Loop {
	points := make([]s2.Point, 0, len(ring))
	for _, v := range ring {
		points = append(points, s2.PointFromLatLng(s2.LatLngFromDegrees(v[0], v[1])))
	}
	loop := s2.LoopFromPoints(points)
	loop.Normalize()
	return loop
}

// cornerRing turns a bbox into its four-corner polygon ring. The ring's
// edges are geodesics rather than parallels, a negligible difference at the
// coarse scale of political regions.
func cornerRing(b BBox) [][2]float64 {
	return [][2]float64{
		{b.MinLat, b.MinLon},
		{b.MinLat, b.MaxLon},
		{b.MaxLat, b.MaxLon},
		{b.MaxLat, b.MinLon},
	}
}
