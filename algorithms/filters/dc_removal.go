package filters

import (
	"fmt"
	"math"
)

// DCBlocker is the one-pole DC blocking high-pass
//
//	y[n] = x[n] - x[n-1] + R·y[n-1]
//
// References:
//   - Julius O. Smith III, "Introduction to Digital Filters with Audio Applications"
//     https://ccrma.stanford.edu/~jos/filters/DC_Blocker.html
type DCBlocker struct {
	pole float64 // R, 0 < R < 1

	x1 float64
	y1 float64
}

// NewDCBlocker creates a blocker with its -3 dB point near cutoffHz, using
// R ≈ 1 - 2π·fc/fs. The cutoff must lie in (0, sampleRate/2).
func NewDCBlocker(sampleRate int, cutoffHz float64) (*DCBlocker, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if !(cutoffHz > 0) || cutoffHz >= float64(sampleRate)/2 {
		return nil, fmt.Errorf("cutoff %v Hz must be in (0, %d)", cutoffHz, sampleRate/2)
	}

	pole := 1 - 2*math.Pi*cutoffHz/float64(sampleRate)
	// Clamp to valid range
	pole = math.Max(0.001, math.Min(0.999999, pole))

	return &DCBlocker{pole: pole}, nil
}

// Process filters signal in place, continuing from the previous call
func (dc *DCBlocker) Process(signal []float64) {
	for i, x := range signal {
		y := x - dc.x1 + dc.pole*dc.y1
		dc.x1 = x
		dc.y1 = y
		signal[i] = y
	}
}

// Reset clears the filter history. Call it between unrelated signals.
func (dc *DCBlocker) Reset() {
	dc.x1 = 0
	dc.y1 = 0
}

// ResponseAt returns the magnitude response at freqHz
func (dc *DCBlocker) ResponseAt(freqHz float64, sampleRate int) float64 {
	omega := 2 * math.Pi * freqHz / float64(sampleRate)
	// H(e^jω) = (1 - e^-jω) / (1 - R·e^-jω)
	num := math.Hypot(1-math.Cos(omega), math.Sin(omega))
	den := math.Hypot(1-dc.pole*math.Cos(omega), dc.pole*math.Sin(omega))
	return num / den
}
