package segment

import (
	"math"
	"sort"
)

// neutralScore is assigned when there is no sample to rank against.
const neutralScore = 3

// Quartiles computes the 0/25/50/75/100th percentile boundaries of a
// sample by positional indexing into a sorted copy (no interpolation).
// Boundaries are non-decreasing. An empty sample yields NaN boundaries,
// which Score resolves to the neutral score.
func Quartiles(values []float64) [5]float64 {
	if len(values) == 0 {
		nan := math.NaN()
		return [5]float64{nan, nan, nan, nan, nan}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	n := len(sorted)
	return [5]float64{
		sorted[0],
		sorted[n*25/100],
		sorted[n*50/100],
		sorted[n*75/100],
		sorted[n-1],
	}
}

// Score maps a value to a 1..5 rank against quartile boundaries. The
// inner boundaries are inclusive and the top boundary is exclusive, so
// the batch maximum always ranks 5 while ties on the lower boundaries
// keep the smaller bucket. inverted flips the rank (6 - bucket) for
// metrics where smaller is better, such as recency. Boundaries from an
// empty sample rank everything neutral.
func Score(value float64, quartiles [5]float64, inverted bool) int {
	if math.IsNaN(quartiles[4]) {
		return neutralScore
	}

	bucket := 5
	switch {
	case value <= quartiles[1]:
		bucket = 1
	case value <= quartiles[2]:
		bucket = 2
	case value <= quartiles[3]:
		bucket = 3
	case value < quartiles[4]:
		bucket = 4
	}

	if inverted {
		return 6 - bucket
	}
	return bucket
}
