package stats

import "gonum.org/v1/gonum/stat/distuv"

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// ZVal returns the two-tailed z-value for a confidence interval given
// in percent (e.g. 95 -> ~1.96).
func ZVal(confidenceInterval float64) float64 {
	return stdNormal.Quantile((1 + confidenceInterval/100) / 2)
}
