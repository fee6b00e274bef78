package trend

import "math"

// AlignZero returns the primary-axis minimum that puts the primary zero at the
// same height as the secondary zero, given the primary maximum and the
// secondary range:
//
//	r          = |secondaryMin| / (secondaryMax - secondaryMin)
//	primaryMin = -primaryMax * r / (1 - r)
//
// A secondary range with no negative values, or a degenerate range
// (secondaryMax == secondaryMin), needs no extension and yields 0. When the
// secondary range has no positive values (r >= 1) no finite minimum aligns the
// zeros; -primaryMax is returned so the primary zero sits mid-axis.
func AlignZero(primaryMax, secondaryMin, secondaryMax float64) float64 {
	span := secondaryMax - secondaryMin
	if span <= 0 || secondaryMin >= 0 {
		return 0
	}

	r := math.Abs(secondaryMin) / span
	if r >= 1 {
		return -primaryMax
	}
	return -primaryMax * r / (1 - r)
}
