package engine

import "math"

// Scale maps a slider position in [0,1] to a dollar value and back
// using a power law, so the low end of the range gets finer steps
// than the high end.
type Scale struct {
	Min      int64
	Max      int64
	Exponent float64
}

// NewScale returns the quadratic scale used by the guess slider
func NewScale(r Range) Scale {
	return Scale{Min: r.Min, Max: r.Max, Exponent: 2} // Квадратичная шкала
}

// Value converts a position in [0,1] to a dollar value inside the
// range. Positions outside [0,1] clamp to the nearest bound.
func (s Scale) Value(pos float64) int64 {
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	if s.Max <= s.Min {
		return s.Min
	}
	span := float64(s.Max - s.Min)
	v := float64(s.Min) + math.Pow(pos, s.Exponent)*span
	return int64(math.Round(v))
}

// Position converts a dollar value back to its slider position in
// [0,1]. Values outside the range clamp to 0 or 1.
func (s Scale) Position(value int64) float64 {
	if s.Max <= s.Min {
		return 0
	}
	if value <= s.Min {
		return 0
	}
	if value >= s.Max {
		return 1
	}
	frac := float64(value-s.Min) / float64(s.Max-s.Min)
	return math.Pow(frac, 1/s.Exponent)
}
