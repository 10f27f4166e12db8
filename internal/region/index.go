// Package region owns the region definition set and the coordinate-to-region
// resolvers. The index is loaded once at startup and immutable afterwards, so
// any number of concurrent resolution calls can share it without locking.
package region

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/quake-region-analytics/internal/domain"
)

// BBox is an inclusive latitude/longitude rectangle. Rectangles do not wrap
// the antimeridian; definitions needing that must use a polygon.
type BBox struct {
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLon float64 `yaml:"min_lon"`
	MaxLon float64 `yaml:"max_lon"`
}

// Contains reports whether the point falls inside the box, bounds inclusive.
func (b BBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Overlaps reports whether two boxes share any area.
func (b BBox) Overlaps(o BBox) bool {
	return b.MinLat <= o.MaxLat && o.MinLat <= b.MaxLat &&
		b.MinLon <= o.MaxLon && o.MinLon <= b.MaxLon
}

// Definition is one region entry from the YAML definition set. At least one
// of BBox and Polygon must be present; each strategy derives the geometry it
// lacks from the other (a polygon's bounds, a box's corner ring).
type Definition struct {
	Name    string       `yaml:"name"`
	ISOCode string       `yaml:"iso_code,omitempty"`
	BBox    *BBox        `yaml:"bbox,omitempty"`
	Polygon [][2]float64 `yaml:"polygon,omitempty"` // [lat, lon] vertices, ring closed implicitly
}

// Bounds returns the definition's bounding box, computing it from the
// polygon vertices when no explicit box is given.
func (d Definition) Bounds() BBox {
	if d.BBox != nil {
		return *d.BBox
	}
	b := BBox{MinLat: 90, MaxLat: -90, MinLon: 180, MaxLon: -180}
	for _, v := range d.Polygon {
		if v[0] < b.MinLat {
			b.MinLat = v[0]
		}
		if v[0] > b.MaxLat {
			b.MaxLat = v[0]
		}
		if v[1] < b.MinLon {
			b.MinLon = v[1]
		}
		if v[1] > b.MaxLon {
			b.MaxLon = v[1]
		}
	}
	return b
}

type fileSchema struct {
	Regions []Definition `yaml:"regions"`
}

// Index is the immutable set of region definitions, in file order. Order
// matters: when definitions overlap, the first listed region wins
// deterministically in both resolution strategies.
type Index struct {
	defs    []Definition
	regions []domain.Region
}

// LoadIndex reads and validates a YAML region definition file.
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read region definitions: %w", err)
	}
	idx, err := ParseIndex(data)
	if err != nil {
		return nil, fmt.Errorf("parse region definitions %s: %w", path, err)
	}
	return idx, nil
}

// ParseIndex parses and validates region definitions from YAML bytes.
func ParseIndex(data []byte) (*Index, error) {
	var file fileSchema
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Regions) == 0 {
		return nil, fmt.Errorf("no regions defined")
	}

	seenName := make(map[string]bool, len(file.Regions))
	seenISO := make(map[string]bool, len(file.Regions))
	regions := make([]domain.Region, 0, len(file.Regions))

	for i, d := range file.Regions {
		if err := validateDefinition(d); err != nil {
			return nil, fmt.Errorf("region %d (%q): %w", i, d.Name, err)
		}
		if seenName[d.Name] {
			return nil, fmt.Errorf("duplicate region name %q", d.Name)
		}
		seenName[d.Name] = true
		if d.ISOCode != "" {
			if seenISO[d.ISOCode] {
				return nil, fmt.Errorf("duplicate iso code %q", d.ISOCode)
			}
			seenISO[d.ISOCode] = true
		}
		regions = append(regions, domain.Region{Name: d.Name, ISOCode: d.ISOCode})
	}

	return &Index{defs: file.Regions, regions: regions}, nil
}

func validateDefinition(d Definition) error {
	if d.Name == "" {
		return fmt.Errorf("missing name")
	}
	if d.BBox == nil && len(d.Polygon) == 0 {
		return fmt.Errorf("needs a bbox or a polygon")
	}
	if b := d.BBox; b != nil {
		if b.MinLat > b.MaxLat || b.MinLon > b.MaxLon {
			return fmt.Errorf("bbox min exceeds max")
		}
		if err := domain.ValidateCoordinate(b.MinLat, b.MinLon); err != nil {
			return err
		}
		if err := domain.ValidateCoordinate(b.MaxLat, b.MaxLon); err != nil {
			return err
		}
	}
	if len(d.Polygon) > 0 {
		if len(d.Polygon) < 3 {
			return fmt.Errorf("polygon needs at least 3 vertices, got %d", len(d.Polygon))
		}
		for _, v := range d.Polygon {
			if err := domain.ValidateCoordinate(v[0], v[1]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Len returns the number of regions in the index.
func (x *Index) Len() int { return len(x.defs) }

// Definitions returns a copy of the definitions in file order.
func (x *Index) Definitions() []Definition {
	out := make([]Definition, len(x.defs))
	copy(out, x.defs)
	return out
}

// Regions returns a copy of the region identities in file order.
func (x *Index) Regions() []domain.Region {
	out := make([]domain.Region, len(x.regions))
	copy(out, x.regions)
	return out
}
