package domain

import (
	"math"
	"sort"
	"time"
)

// RiskWeights parameterize the composite risk score. The defaults are fixed
// for reproducibility; deployments that tune them should do so explicitly
// via configuration, never by editing the constants.
type RiskWeights struct {
	Count        float64
	AvgMagnitude float64
	MaxMagnitude float64
}

// DefaultRiskWeights returns the canonical weights:
// risk = 0.3*count + 10*avg_magnitude + 5*max_magnitude.
func DefaultRiskWeights() RiskWeights {
	return RiskWeights{Count: 0.3, AvgMagnitude: 10, MaxMagnitude: 5}
}

// Score computes the composite risk score for one region's aggregates.
func (w RiskWeights) Score(count int, avgMag, maxMag float64) float64 {
	return w.Count*float64(count) + w.AvgMagnitude*avgMag + w.MaxMagnitude*maxMag
}

// Filters bound which attributed events enter an aggregation. Both bounds
// are inclusive. Zero From/To leave that side of the time range open. When a
// time bound is set, events without a timestamp are excluded because they
// cannot be compared against it.
type Filters struct {
	MinMagnitude float64
	From         time.Time
	To           time.Time
}

func (f Filters) match(ev Event) bool {
	if ev.Magnitude < f.MinMagnitude {
		return false
	}
	if f.From.IsZero() && f.To.IsZero() {
		return true
	}
	if ev.OccurredAt.IsZero() {
		return false
	}
	if !f.From.IsZero() && ev.OccurredAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && ev.OccurredAt.After(f.To) {
		return false
	}
	return true
}

// AggregateByRegion groups attributed events by region and computes per-region
// count, magnitude statistics, and risk score. Unresolved events and events
// outside the filters are discarded first; stats are always recomputed from
// the filtered set. An empty filtered set yields an empty slice, not an error.
// Output order is unspecified; callers that need a ranking sort explicitly.
func AggregateByRegion(events []AttributedEvent, f Filters, w RiskWeights) []RegionStats {
	groups := make(map[string][]float64)
	regions := make(map[string]Region)

	for _, ae := range events {
		if ae.Region == nil {
			continue
		}
		if !f.match(ae.Event) {
			continue
		}
		groups[ae.Region.Name] = append(groups[ae.Region.Name], ae.Event.Magnitude)
		regions[ae.Region.Name] = *ae.Region
	}

	stats := make([]RegionStats, 0, len(groups))
	for name, mags := range groups {
		count := len(mags)
		sum, maxMag := 0.0, math.Inf(-1)
		for _, m := range mags {
			sum += m
			if m > maxMag {
				maxMag = m
			}
		}
		avg := sum / float64(count)

		row := RegionStats{
			Region:          regions[name],
			Count:           count,
			AvgMagnitude:    avg,
			MaxMagnitude:    maxMag,
			StddevMagnitude: sampleStddev(mags, avg),
			RiskScore:       w.Score(count, avg, maxMag),
		}
		stats = append(stats, row)
	}
	return stats
}

// sampleStddev returns the sample standard deviation, or NaN for fewer than
// two observations.
func sampleStddev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

// SortByCount orders stats by descending event count, stable.
func SortByCount(stats []RegionStats) {
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Count > stats[j].Count })
}

// SortByMaxMagnitude orders stats by descending maximum magnitude, stable.
func SortByMaxMagnitude(stats []RegionStats) {
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].MaxMagnitude > stats[j].MaxMagnitude })
}

// SortByRiskScore orders stats by descending risk score, stable.
func SortByRiskScore(stats []RegionStats) {
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].RiskScore > stats[j].RiskScore })
}
