package trend

import (
	"sort"

	"github.com/rewired-gh/trendline/internal/models"
)

// Axis returns the union of the samples' period labels in chronological order.
// All inputs are expected to share one granularity.
func Axis(series ...[]models.Sample) []string {
	dates := make(map[string]int64)
	for _, samples := range series {
		for _, s := range samples {
			if _, exists := dates[s.Period]; !exists {
				dates[s.Period] = s.Date.Unix()
			}
		}
	}

	labels := make([]string, 0, len(dates))
	for label := range dates {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		return dates[labels[i]] < dates[labels[j]]
	})
	return labels
}

// Pad places points on the shared axis and inserts a zero point immediately
// before the first and after the last real point, when those axis positions
// exist and hold no value yet. This keeps a line chart from bridging the gap
// between an event's sparse series and unrelated periods.
//
// The result is ordered by axis position. Points whose label is not on the axis
// are kept after the axis-ordered points in their original order.
func Pad(axis []string, points []models.Point) []models.Point {
	if len(points) == 0 {
		return []models.Point{}
	}

	position := make(map[string]int, len(axis))
	for i, label := range axis {
		position[label] = i
	}

	populated := make(map[string]bool, len(points))
	first, last := -1, -1
	var onAxis, offAxis []models.Point
	for _, p := range points {
		populated[p.Label] = true
		pos, ok := position[p.Label]
		if !ok {
			offAxis = append(offAxis, p)
			continue
		}
		onAxis = append(onAxis, p)
		if first == -1 || pos < first {
			first = pos
		}
		if pos > last {
			last = pos
		}
	}

	if first > 0 && !populated[axis[first-1]] {
		onAxis = append(onAxis, models.Point{Label: axis[first-1], Value: 0})
	}
	if last >= 0 && last+1 < len(axis) && !populated[axis[last+1]] {
		onAxis = append(onAxis, models.Point{Label: axis[last+1], Value: 0})
	}

	sort.SliceStable(onAxis, func(i, j int) bool {
		return position[onAxis[i].Label] < position[onAxis[j].Label]
	})
	return append(onAxis, offAxis...)
}
