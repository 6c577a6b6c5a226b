package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScaleEndpoints(t *testing.T) {
	s := NewScale(Range{Min: 10_000, Max: 5_000_000})

	assert.Equal(t, int64(10_000), s.Value(0))
	assert.Equal(t, int64(5_000_000), s.Value(1))
	assert.Equal(t, int64(10_000), s.Value(-0.5), "positions below 0 clamp")
	assert.Equal(t, int64(5_000_000), s.Value(1.5), "positions above 1 clamp")

	assert.Equal(t, 0.0, s.Position(10_000))
	assert.Equal(t, 1.0, s.Position(5_000_000))
	assert.Equal(t, 0.0, s.Position(-42), "values below min clamp")
	assert.Equal(t, 1.0, s.Position(9_000_000), "values above max clamp")
}

func TestScaleQuadratic(t *testing.T) {
	s := Scale{Min: 0, Max: 4_000_000, Exponent: 2}

	// Середина слайдера даёт четверть диапазона
	assert.Equal(t, int64(1_000_000), s.Value(0.5))
	assert.InDelta(t, 0.5, s.Position(1_000_000), 1e-9)
}

func TestScaleRoundTrip(t *testing.T) {
	s := NewScale(Range{Min: 0, Max: 5_000_000})

	for _, v := range []int64{0, 1, 999, 50_000, 123_456, 1_000_000, 2_500_000, 4_999_999, 5_000_000} {
		got := s.Value(s.Position(v))
		assert.InDelta(t, float64(v), float64(got), 1, "value %d did not survive the round trip", v)
	}
}

func TestScaleDegenerateRange(t *testing.T) {
	s := Scale{Min: 100, Max: 100, Exponent: 2}

	assert.Equal(t, int64(100), s.Value(0.5))
	assert.Equal(t, 0.0, s.Position(100))
}
