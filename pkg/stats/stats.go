// Package stats summarizes per-file metric distributions.
package stats

import (
	"cmp"
	"slices"
)

// Number is any metric value the helpers accept.
type Number interface {
	~int | ~int64 | ~float64
}

// Percentile returns the nearest-rank p-th percentile of values, which need
// not be sorted. Empty input yields 0.
func Percentile[T Number](values []T, p int) T {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Sorted(slices.Values(values))
	idx := min(p*len(sorted)/100, len(sorted)-1)
	return sorted[max(idx, 0)]
}

// Mean returns the arithmetic mean, or 0 for empty input.
func Mean[T Number](values []T) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += float64(v)
	}
	return total / float64(len(values))
}

// Max returns the largest value, or 0 for empty input.
func Max[T cmp.Ordered](values []T) T {
	var zero T
	if len(values) == 0 {
		return zero
	}
	return slices.Max(values)
}
