// Command genmock generates a synthetic historical event fixture: random
// seismic events scattered inside (and, for a configurable fraction, outside)
// the loaded region bounds. The output is the JSON array the historical
// stats endpoint accepts, so the fixture can be POSTed straight at a running
// service.
//
// Usage:
//
//	go run ./cmd/genmock -regions config/regions.yaml -n 500 -out data/mock/events.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/quake-region-analytics/internal/domain"
	"github.com/couchcryptid/quake-region-analytics/internal/region"
)

var baseDate = time.Date(2024, time.April, 26, 0, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	regionsPath := flag.String("regions", "config/regions.yaml", "path to the region definition file")
	n := flag.Int("n", 500, "number of events to generate")
	unresolvedFrac := flag.Float64("unresolved", 0.1, "fraction of events placed outside all regions")
	seed := flag.Int64("seed", 1, "RNG seed, fixed by default for reproducible fixtures")
	out := flag.String("out", "", "output path for the event fixture")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	index, err := region.LoadIndex(*regionsPath)
	if err != nil {
		return err
	}
	defs := index.Definitions()
	rng := rand.New(rand.NewSource(*seed))

	events := make([]domain.Event, 0, *n)
	for i := 0; i < *n; i++ {
		var ev domain.Event
		if rng.Float64() < *unresolvedFrac {
			// Mid-Atlantic, outside every shipped region.
			ev = randomEventIn(rng, region.BBox{MinLat: -30, MaxLat: 30, MinLon: -40, MaxLon: -20})
		} else {
			ev = randomEventIn(rng, defs[rng.Intn(len(defs))].Bounds())
		}
		events = append(events, ev)
	}

	if err := writeJSON(*out, events); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote %d events: %s", len(events), *out)
	return nil
}

func randomEventIn(rng *rand.Rand, b region.BBox) domain.Event {
	// Gutenberg-Richter-ish skew: most events small, few large.
	mag := 2.0 + rng.ExpFloat64()*0.8
	if mag > 9.0 {
		mag = 9.0
	}
	return domain.Event{
		Lat:        b.MinLat + rng.Float64()*(b.MaxLat-b.MinLat),
		Lon:        b.MinLon + rng.Float64()*(b.MaxLon-b.MinLon),
		Magnitude:  mag,
		DepthKm:    rng.Float64() * 300,
		OccurredAt: baseDate.Add(time.Duration(rng.Intn(86400)) * time.Second),
		Place:      fmt.Sprintf("synthetic event %d", rng.Intn(1_000_000)),
	}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
