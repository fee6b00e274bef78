// Package trend shapes normalized trendline samples into chart-ready series.
//
// Everything here is a pure function over immutable input:
//
//	Aggregate   sums samples into daily, weekly (ISO, Monday start) or monthly buckets
//	Synthesizer spreads weekly totals across days with deterministic weights
//	Pad         inserts zero samples at the edges of sparse event series
//	AlignZero   computes a primary-axis minimum that lines up two zero points
//
// Volume is conserved by Aggregate, and by the Synthesizer for every full week.
package trend

import (
	"sort"

	"github.com/rewired-gh/trendline/internal/models"
	"github.com/rewired-gh/trendline/internal/period"
)

// Aggregate groups samples into g-sized buckets, summing volume and reach, and
// returns them in ascending chronological order labelled at granularity g.
// Samples that share a bucket are summed, never overwritten, so aggregating an
// already-aggregated series at the same granularity only relabels it.
func Aggregate(samples []models.Sample, g period.Granularity) []models.Sample {
	buckets := make(map[int64]*models.Sample)
	var keys []int64

	for _, s := range samples {
		start := period.Start(s.Date, g)
		key := start.Unix()
		b, exists := buckets[key]
		if !exists {
			b = &models.Sample{
				Period: period.Format(start, g),
				Date:   start,
			}
			buckets[key] = b
			keys = append(keys, key)
		}
		b.Volume += s.Volume
		b.Reach += s.Reach
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	result := make([]models.Sample, 0, len(keys))
	for _, key := range keys {
		result = append(result, *buckets[key])
	}
	return result
}

// TotalVolume sums the volume of every sample.
func TotalVolume(samples []models.Sample) int64 {
	var total int64
	for _, s := range samples {
		total += s.Volume
	}
	return total
}
