package noise

import "math"

// runningStat accumulates mean and variance in a single numerically
// stable pass (Welford's method). The zero value is ready to use.
type runningStat struct {
	n  int
	m1 float64 // running mean
	m2 float64 // running sum of squared deviations
}

// add folds one value into the accumulator.
func (s *runningStat) add(x float64) {
	n1 := s.n
	s.n++
	delta := x - s.m1
	deltaN := delta / float64(s.n)
	s.m1 += deltaN
	s.m2 += delta * deltaN * float64(n1)
}

// mean returns the running mean, 0 for an empty accumulator.
func (s *runningStat) mean() float64 { return s.m1 }

// sampleVariance returns the unbiased variance. The caller must ensure
// n > 1; with fewer values the divisor n-1 is degenerate.
func (s *runningStat) sampleVariance() float64 {
	return s.m2 / float64(s.n-1)
}

// stddev returns the sample standard deviation.
func (s *runningStat) stddev() float64 {
	return math.Sqrt(s.sampleVariance())
}
