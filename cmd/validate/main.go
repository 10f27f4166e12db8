// Command validate checks a region definition file before it ships: schema
// and geometry validity, cross-strategy agreement on sampled interior
// points, and pairwise overlap between region bounds. Overlap is not fatal,
// since resolution stays deterministic by file order, but every overlapping
// pair is reported so the ordering is a decision, not an accident.
//
// Usage:
//
//	go run ./cmd/validate -regions config/regions.yaml
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/quake-region-analytics/internal/domain"
	"github.com/couchcryptid/quake-region-analytics/internal/region"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	warns  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warns = append(p.warns, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	regionsPath := flag.String("regions", "config/regions.yaml", "path to the region definition file")
	flag.Parse()

	if code := run(*regionsPath); code != 0 {
		os.Exit(code)
	}
}

func run(path string) int {
	fmt.Println("=== Region Definition Validation ===")
	fmt.Println()

	index, err := region.LoadIndex(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	fmt.Printf("loaded %d regions from %s\n\n", index.Len(), path)

	phases := []*phase{
		checkOverlaps(index),
		checkStrategyAgreement(index),
	}

	failed := false
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = "FAIL"
			failed = true
		}
		fmt.Printf("[%s] %s\n", status, p.name)
		for _, w := range p.warns {
			fmt.Printf("  warn: %s\n", w)
		}
		for _, e := range p.errors {
			fmt.Printf("  error: %s\n", e)
		}
	}

	if failed {
		return 1
	}
	fmt.Println("\nall checks passed")
	return 0
}

// checkOverlaps reports every pair of regions whose bounds intersect.
func checkOverlaps(index *region.Index) *phase {
	p := &phase{name: "pairwise bounds overlap"}
	defs := index.Definitions()

	for i := 0; i < len(defs); i++ {
		for j := i + 1; j < len(defs); j++ {
			if defs[i].Bounds().Overlaps(defs[j].Bounds()) {
				p.warnf("%q and %q overlap; %q wins in the shared area (listed first)",
					defs[i].Name, defs[j].Name, defs[i].Name)
			}
		}
	}
	return p
}

// checkStrategyAgreement resolves the center of each region's bounds with
// both strategies and flags centers where the polygon strategy attributes
// the point to a different region than the bbox strategy. Disagreement is a
// warning: centers of concave regions can legitimately fall outside the
// polygon while inside the box.
func checkStrategyAgreement(index *region.Index) *phase {
	p := &phase{name: "cross-strategy center agreement"}

	bbox := region.NewBoundingBoxResolver(index)
	poly := region.NewPolygonResolver(index)

	for _, d := range index.Definitions() {
		b := d.Bounds()
		center := domain.Event{
			Lat: (b.MinLat + b.MaxLat) / 2,
			Lon: (b.MinLon + b.MaxLon) / 2,
		}

		byBox, err := bbox.Resolve(center)
		if err != nil {
			p.errorf("%q center: bbox resolve: %v", d.Name, err)
			continue
		}
		byPoly, err := poly.Resolve(center)
		if err != nil {
			p.errorf("%q center: polygon resolve: %v", d.Name, err)
			continue
		}

		switch {
		case byBox == nil:
			p.errorf("%q center not inside any bounds; definition likely broken", d.Name)
		case byPoly == nil:
			p.warnf("%q center (%.2f, %.2f) is outside all polygons", d.Name, center.Lat, center.Lon)
		case byBox.Name != byPoly.Name:
			p.warnf("%q center resolves to %q by bbox but %q by polygon",
				d.Name, byBox.Name, byPoly.Name)
		}
	}
	return p
}
