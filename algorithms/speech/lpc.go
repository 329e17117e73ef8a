package speech

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrSilentFrame is returned by Analyze for frames with zero energy; such a
// frame has no meaningful predictor.
var ErrSilentFrame = errors.New("zero energy signal")

// DefaultWhiteNoiseCorrection lifts R[0] by this relative amount before the
// recursion, bounding the prediction gain of near-sinusoidal frames.
const DefaultWhiteNoiseCorrection = 1e-9

// LPCAnalyzer performs Linear Predictive Coding analysis with the
// autocorrelation method. LPC models the vocal tract as an all-pole filter;
// the prediction error (residual) carries the excitation.
//
// Convention: a[0] = 1 and the predictor is x̂[n] = Σ_{k=1..p} a[k]·x[n-k],
// so the inverse filter is A(z) = 1 - Σ a[k]·z^-k.
type LPCAnalyzer struct {
	order                int
	whiteNoiseCorrection float64
}

// LPCResult contains LPC analysis results
type LPCResult struct {
	Coefficients    []float64 `json:"coefficients"`     // a[0]=1, a[1..p]
	ReflectionCoeff []float64 `json:"reflection_coeff"` // k[1..p]
	Gain            float64   `json:"gain"`             // sqrt(ResidualEnergy)
	ResidualEnergy  float64   `json:"residual_energy"`  // final prediction error energy
	Order           int       `json:"order"`            // LPC order used
	StabilityCheck  bool      `json:"stability_check"`  // all |k| < 1
}

// NewLPCAnalyzer creates a new LPC analyzer of the given order
func NewLPCAnalyzer(order int) (*LPCAnalyzer, error) {
	if order <= 0 {
		return nil, fmt.Errorf("LPC order must be positive, got %d", order)
	}

	return &LPCAnalyzer{
		order:                order,
		whiteNoiseCorrection: DefaultWhiteNoiseCorrection,
	}, nil
}

// Order returns the prediction order
func (lpc *LPCAnalyzer) Order() int {
	return lpc.order
}

// Analyze estimates the predictor for frame. The frame must be longer than
// the prediction order.
func (lpc *LPCAnalyzer) Analyze(frame []float64) (*LPCResult, error) {
	if len(frame) <= lpc.order {
		return nil, fmt.Errorf("signal length %d too short for LPC analysis of order %d", len(frame), lpc.order)
	}

	R := Autocorrelation(frame, lpc.order)
	if R[0] <= 0 {
		return nil, ErrSilentFrame
	}
	R[0] *= 1 + lpc.whiteNoiseCorrection

	coeffs, reflectionCoeffs, residualEnergy := levinsonDurbin(R, lpc.order)

	return &LPCResult{
		Coefficients:    coeffs,
		ReflectionCoeff: reflectionCoeffs,
		Gain:            math.Sqrt(residualEnergy),
		ResidualEnergy:  residualEnergy,
		Order:           lpc.order,
		StabilityCheck:  checkStability(reflectionCoeffs),
	}, nil
}

// Autocorrelation returns R[0..maxLag] of signal (biased, unnormalised).
func Autocorrelation(signal []float64, maxLag int) []float64 {
	R := make([]float64, maxLag+1)
	n := len(signal)
	for lag := 0; lag <= maxLag && lag < n; lag++ {
		R[lag] = floats.Dot(signal[:n-lag], signal[lag:])
	}
	return R
}

// levinsonDurbin solves the normal equations for R. The recursion stops
// early if a reflection coefficient reaches the unit circle, leaving the
// higher-order coefficients at zero so the synthesis filter stays stable.
func levinsonDurbin(R []float64, order int) ([]float64, []float64, float64) {
	a := make([]float64, order+1)
	prev := make([]float64, order+1)
	k := make([]float64, order)
	E := R[0]

	a[0] = 1.0

	for i := 1; i <= order; i++ {
		numerator := R[i]
		for j := 1; j < i; j++ {
			numerator -= a[j] * R[i-j]
		}

		ki := numerator / E
		if math.IsNaN(ki) || math.Abs(ki) >= 1 {
			break
		}

		copy(prev[:i], a[:i])
		a[i] = ki
		for j := 1; j < i; j++ {
			a[j] = prev[j] - ki*prev[i-j]
		}

		k[i-1] = ki
		E *= 1 - ki*ki
	}

	return a, k, E
}

// checkStability reports whether every reflection coefficient lies strictly
// inside the unit circle, which is equivalent to a stable 1/A(z)
func checkStability(reflectionCoeffs []float64) bool {
	for _, k := range reflectionCoeffs {
		if math.Abs(k) >= 1.0 {
			return false
		}
	}
	return true
}

// InverseFilter computes the LPC residual e[n] = x[n] - Σ a[k]·x[n-k],
// starting from a zero filter state.
func InverseFilter(signal []float64, coeffs []float64) []float64 {
	residual := make([]float64, len(signal))

	for n := range signal {
		prediction := 0.0
		for k := 1; k < len(coeffs) && k <= n; k++ {
			prediction += coeffs[k] * signal[n-k]
		}
		residual[n] = signal[n] - prediction
	}

	return residual
}

// Synthesize runs excitation through the all-pole filter 1/A(z):
// y[n] = e[n] + Σ a[k]·y[n-k], starting from a zero filter state.
// It is the exact inverse of InverseFilter.
func Synthesize(excitation []float64, coeffs []float64) []float64 {
	out := make([]float64, len(excitation))

	for n := range excitation {
		prediction := 0.0
		for k := 1; k < len(coeffs) && k <= n; k++ {
			prediction += coeffs[k] * out[n-k]
		}
		out[n] = excitation[n] + prediction
	}

	return out
}

// GetSpectralEnvelope evaluates gain/|A(e^jω)| on nfft/2+1 bins from DC to Nyquist
func GetSpectralEnvelope(coeffs []float64, gain float64, nfft int) []float64 {
	if nfft <= 0 {
		nfft = 512
	}

	envelope := make([]float64, nfft/2+1)

	for bin := range envelope {
		omega := 2 * math.Pi * float64(bin) / float64(nfft)

		realPart := 1.0
		imagPart := 0.0
		for i := 1; i < len(coeffs); i++ {
			angle := float64(i) * omega
			realPart -= coeffs[i] * math.Cos(angle)
			imagPart += coeffs[i] * math.Sin(angle)
		}

		magnitude := math.Hypot(realPart, imagPart)
		if magnitude > 0 {
			envelope[bin] = gain / magnitude
		}
	}

	return envelope
}

// ConvertToReflectionCoeffs converts LPC coefficients back to reflection
// coefficients with the step-down recursion. It is the inverse of the
// Levinson-Durbin coefficient update.
func ConvertToReflectionCoeffs(lpcCoeffs []float64) []float64 {
	p := len(lpcCoeffs) - 1
	if p <= 0 {
		return []float64{}
	}

	k := make([]float64, p)
	a := make([]float64, p+1)
	copy(a, lpcCoeffs)
	next := make([]float64, p+1)

	for i := p; i >= 1; i-- {
		k[i-1] = a[i]

		denominator := 1 - k[i-1]*k[i-1]
		if denominator <= 0 {
			break
		}

		for j := 1; j < i; j++ {
			next[j] = (a[j] + k[i-1]*a[i-j]) / denominator
		}
		copy(a[1:i], next[1:i])
	}

	return k
}
