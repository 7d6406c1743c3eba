package stats

import (
	"testing"

	"github.com/matryer/is"
)

func TestRunningStat(t *testing.T) {
	is := is.New(t)
	type tc struct {
		scores []int
		mean   float64
		stdev  float64
	}
	cases := []tc{
		{[]int{10, 12, 23, 23, 16, 23, 21, 16}, 18, 5.2372293656638},
		{[]int{14, 35, 71, 124, 10, 24, 55, 33, 87, 19}, 47.2, 36.937785531891},
		{[]int{1}, 1, 0},
		{[]int{}, 0, 0},
		{[]int{1, 1}, 1, 0},
	}
	for _, c := range cases {
		s := &Statistic{}
		for _, score := range c.scores {
			s.Push(float64(score))
		}
		is.True(FuzzyEqual(s.Mean(), c.mean))
		is.True(FuzzyEqual(s.Stdev(), c.stdev))
		is.Equal(s.Count(), len(c.scores))
	}
}

func TestZVal(t *testing.T) {
	is := is.New(t)
	is.True(FuzzyEqual(ZVal(0), 0))
	// The well-known two-tailed values.
	is.True(math95(ZVal(95)))
	is.True(ZVal(99) > ZVal(95))
}

func math95(z float64) bool {
	return z > 1.9599 && z < 1.9601
}

func TestStandardError(t *testing.T) {
	is := is.New(t)
	s := &Statistic{}
	is.True(FuzzyEqual(s.StandardError(95), 0))
	for _, v := range []float64{10, 20, 30, 40} {
		s.Push(v)
	}
	// stdev ~= 12.909944, n = 4 -> se ~= 6.4549722; z(95) ~= 1.959964.
	want := 1.9599639845 * 12.9099444874 / 2
	is.True(FuzzyEqual(s.StandardError(95), want))
}
