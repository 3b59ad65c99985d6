package spei

import (
	"fmt"
	"math"
)

// cdfClamp keeps probabilities away from 0 and 1 so the normal quantile stays
// finite for values far outside the fitted distribution.
const cdfClamp = 1e-8

// Params holds a fitted three-parameter log-logistic distribution.
type Params struct {
	Alpha float64 `msgpack:"alpha"` // scale
	Beta  float64 `msgpack:"beta"`  // shape
	Gamma float64 `msgpack:"gamma"` // origin
}

// FitLogLogistic fits a three-parameter log-logistic distribution to a sample
// using unbiased probability-weighted moments.
func FitLogLogistic(sample []float64) (Params, error) {
	b0, b1, b2, err := unbiasedPWMs(sample)
	if err != nil {
		return Params{}, err
	}

	denom := 6*b1 - b0 - 6*b2
	if denom == 0 {
		return Params{}, fmt.Errorf("degenerate sample: zero shape denominator")
	}
	beta := (b0 - 2*b1) / denom
	if beta <= 0 || math.IsInf(beta, 0) || math.IsNaN(beta) {
		return Params{}, fmt.Errorf("degenerate sample: shape parameter %.4f out of range", beta)
	}

	// Γ(1+1/β)Γ(1−1/β) requires β > 1 for finite moments.
	if beta <= 1 {
		return Params{}, fmt.Errorf("shape parameter %.4f too small for moment-based fit", beta)
	}
	g := math.Gamma(1+1/beta) * math.Gamma(1-1/beta)

	alpha := (2*b1 - b0) * beta / g
	if alpha <= 0 || math.IsNaN(alpha) {
		return Params{}, fmt.Errorf("degenerate sample: scale parameter %.4f out of range", alpha)
	}
	gamma := b0 - alpha*g

	return Params{Alpha: alpha, Beta: beta, Gamma: gamma}, nil
}

// CDF evaluates the fitted distribution function, clamped to (cdfClamp,
// 1−cdfClamp). Values at or below the origin map to the lower clamp.
func (p Params) CDF(x float64) float64 {
	if math.IsNaN(x) {
		return math.NaN()
	}
	if x <= p.Gamma {
		return cdfClamp
	}
	f := 1.0 / (1.0 + math.Pow(p.Alpha/(x-p.Gamma), p.Beta))
	if f < cdfClamp {
		return cdfClamp
	}
	if f > 1-cdfClamp {
		return 1 - cdfClamp
	}
	return f
}
