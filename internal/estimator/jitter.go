package estimator

import "math"

// JitterFilter reports an x within deadZone of the last emitted x as the last emitted x.
type JitterFilter struct {
	deadZone float64
	last     float64
	hasLast  bool
}

func NewJitterFilter(deadZone float64) *JitterFilter {
	return &JitterFilter{deadZone: deadZone}
}

func (f *JitterFilter) Filter(x float64) float64 {
	if f.hasLast && math.Abs(x-f.last) <= f.deadZone {
		return f.last
	}
	f.last = x
	f.hasLast = true
	return x
}

func (f *JitterFilter) Reset() {
	f.last = 0
	f.hasLast = false
}
