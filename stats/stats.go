// Package stats provides the running statistics used to summarize
// self-play batches.
package stats

import "math"

const (
	Epsilon = 1e-6
)

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Statistic accumulates a mean and variance incrementally with
// Welford's algorithm; m2 is the running sum of squared deviations
// from the current mean.
type Statistic struct {
	count int
	last  float64
	mean  float64
	m2    float64
}

func (s *Statistic) Push(val float64) {
	s.count++
	s.last = val
	delta := val - s.mean
	s.mean += delta / float64(s.count)
	s.m2 += delta * (val - s.mean)
}

func (s *Statistic) Mean() float64 {
	return s.mean
}

// Variance is the sample variance (n-1 denominator).
func (s *Statistic) Variance() float64 {
	if s.count <= 1 {
		return 0.0
	}
	return s.m2 / float64(s.count-1)
}

func (s *Statistic) Stdev() float64 {
	return math.Sqrt(s.Variance())
}

func (s *Statistic) Count() int {
	return s.count
}

func (s *Statistic) Last() float64 {
	return s.last
}

// StandardError returns the standard error of the mean scaled by the
// z-value for the given confidence interval, i.e. the half-width of
// the CI.
func (s *Statistic) StandardError(confidenceInterval float64) float64 {
	if s.count == 0 {
		return 0
	}
	return ZVal(confidenceInterval) * s.Stdev() / math.Sqrt(float64(s.count))
}
