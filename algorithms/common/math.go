package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SilenceFloor is the RMS below which a signal is treated as silent
const SilenceFloor = 1e-10

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Norm(data, 2) / math.Sqrt(float64(len(data)))
}

// Energy returns the sum of squares
func Energy(data []float64) float64 {
	return floats.Dot(data, data)
}

// NormalizedCrossCorrelation returns the zero-lag Pearson correlation of a
// and b over their common length, in [-1, 1]. Constant or empty inputs
// correlate to 0.
func NormalizedCrossCorrelation(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n < 2 {
		return 0.0
	}
	a, b = a[:n], b[:n]

	if stat.StdDev(a, nil) < SilenceFloor || stat.StdDev(b, nil) < SilenceFloor {
		return 0.0
	}
	return stat.Correlation(a, b, nil)
}

// MaxNormalizedCrossCorrelation returns the largest |NCC| of a against b
// shifted by -maxLag..maxLag samples.
func MaxNormalizedCrossCorrelation(a, b []float64, maxLag int) float64 {
	best := 0.0
	for lag := -maxLag; lag <= maxLag; lag++ {
		var x, y []float64
		if lag >= 0 {
			if lag >= len(a) {
				continue
			}
			x, y = a[lag:], b
		} else {
			if -lag >= len(b) {
				continue
			}
			x, y = a, b[-lag:]
		}
		best = math.Max(best, math.Abs(NormalizedCrossCorrelation(x, y)))
	}
	return best
}

// MatchRMS scales signal in place so that its RMS equals target. Silent
// signals are left untouched. Returns the applied gain.
func MatchRMS(signal []float64, target float64) float64 {
	current := RMS(signal)
	if current < SilenceFloor || target < SilenceFloor {
		return 1.0
	}
	gain := target / current
	floats.Scale(gain, signal)
	return gain
}

// IsFinite reports whether every sample is neither NaN nor ±Inf
func IsFinite(data []float64) bool {
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
