package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	values := []int{30, 1, 12, 5, 8, 3, 21, 2, 4, 9}

	assert.Equal(t, 30, Percentile(values, 90))
	assert.Equal(t, 8, Percentile(values, 50))
	assert.Equal(t, 1, Percentile(values, 0))
	assert.Equal(t, 30, Percentile(values, 100))
	assert.Equal(t, 0, Percentile([]int(nil), 90))

	// input order is preserved
	assert.Equal(t, 30, values[0])
}

func TestMean(t *testing.T) {
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-9)
	assert.InDelta(t, 0.0, Mean([]int{}), 1e-9)
}

func TestMax(t *testing.T) {
	assert.Equal(t, 7, Max([]int{3, 7, 1}))
	assert.Equal(t, 0, Max([]int(nil)))
}
