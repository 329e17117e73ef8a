package spectral

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Polar is the magnitude/phase form of the non-negative frequency half of a
// real signal's spectrum. Bins run from DC to Nyquist (Size/2+1 entries);
// the negative frequencies are implied by Hermitian symmetry.
type Polar struct {
	Magnitude []float64 `json:"magnitude"`
	Phase     []float64 `json:"phase"` // radians in [0, 2π)
	Size      int       `json:"size"`  // transform length
}

// Bins returns the number of frequency bins for a transform of the given size
func Bins(size int) int {
	return size/2 + 1
}

// HasNyquist reports whether bin Size/2 is the (real-valued) Nyquist bin
func (p *Polar) HasNyquist() bool {
	return p.Size%2 == 0
}

// ToPolar transforms frame (zero-padded to size) into its polar spectrum.
func (f *FFT) ToPolar(frame []float64, size int) (*Polar, error) {
	if size <= 0 {
		return nil, fmt.Errorf("transform size must be positive, got %d", size)
	}
	if len(frame) > size {
		return nil, fmt.Errorf("frame length (%d) exceeds transform size (%d)", len(frame), size)
	}

	spectrum := f.ComputeSize(frame, size)
	bins := Bins(size)

	p := &Polar{
		Magnitude: make([]float64, bins),
		Phase:     make([]float64, bins),
		Size:      size,
	}

	for i := range bins {
		p.Magnitude[i] = cmplx.Abs(spectrum[i])
		p.Phase[i] = WrapPhase(cmplx.Phase(spectrum[i]))
	}

	return p, nil
}

// FromPolar rebuilds the real time-domain signal of length p.Size.
// The negative-frequency half is mirrored as the complex conjugate, so the
// inverse transform is real up to rounding; DC and Nyquist keep only the
// real part of their polar value.
func (f *FFT) FromPolar(p *Polar) ([]float64, error) {
	if p == nil || p.Size <= 0 {
		return nil, fmt.Errorf("empty polar spectrum")
	}

	bins := Bins(p.Size)
	if len(p.Magnitude) != bins || len(p.Phase) != bins {
		return nil, fmt.Errorf("polar spectrum has %d/%d bins, want %d",
			len(p.Magnitude), len(p.Phase), bins)
	}

	spectrum := make([]complex128, p.Size)
	for i := range bins {
		spectrum[i] = cmplx.Rect(p.Magnitude[i], p.Phase[i])
	}

	spectrum[0] = complex(real(spectrum[0]), 0)
	if p.HasNyquist() {
		spectrum[p.Size/2] = complex(real(spectrum[p.Size/2]), 0)
	}

	for i := 1; i < bins; i++ {
		mirror := p.Size - i
		if mirror != i {
			spectrum[mirror] = cmplx.Conj(spectrum[i])
		}
	}

	return f.ComputeInverseReal(spectrum), nil
}

// WrapPhase maps an angle in radians onto [0, 2π)
func WrapPhase(phi float64) float64 {
	wrapped := math.Mod(phi, 2*math.Pi)
	if wrapped < 0 {
		wrapped += 2 * math.Pi
	}
	// Mod of values just below a multiple of 2π can round up to 2π itself
	if wrapped >= 2*math.Pi {
		wrapped = 0
	}
	return wrapped
}
