package trend

import "time"

// Mixing constants for the day-weight generator. They are part of the output
// format: changing any of them changes every synthesized daily series.
const (
	lcgMultiplier uint32 = 1664525
	lcgIncrement  uint32 = 1013904223
	seedDayMix    uint32 = 31
	seedRecordMix uint32 = 131

	minWeight   = 0.5
	weightRange = 1.5 // weights fall in [0.5, 2.0)
)

// daySeed derives the generator seed for one day of a week from the week's
// start date, the day offset within the week and the fixture record index.
// Month index is zero-based.
func daySeed(year, monthIndex, day, offset, record int) uint32 {
	s := uint32(year)*10000 + uint32(monthIndex)*100 + uint32(day)
	s = s*seedDayMix + uint32(offset)
	s = s*seedRecordMix + uint32(record)
	return s
}

// mix runs two LCG steps with an xor-shift in between and maps the state onto
// [minWeight, minWeight+weightRange).
func mix(seed uint32) float64 {
	x := seed*lcgMultiplier + lcgIncrement
	x ^= x >> 16
	x = x*lcgMultiplier + lcgIncrement
	return minWeight + weightRange*(float64(x)/4294967296.0)
}

// WeekWeights returns the seven day weights for the week starting on start,
// for the given fixture record. The result depends only on its arguments.
func WeekWeights(start time.Time, record int) [7]float64 {
	var w [7]float64
	for offset := range w {
		w[offset] = mix(daySeed(start.Year(), int(start.Month())-1, start.Day(), offset, record))
	}
	return w
}
