package windowing

import (
	"fmt"
	"strings"
)

// Form selects how the window's cosine argument is sampled.
type Form int

const (
	// Symmetric samples i/(L-1): both end points lie on the window edge.
	Symmetric Form = iota
	// Periodic samples i/L, the DFT-even form used for spectral analysis.
	Periodic
	// Interior samples (i+1)/(L+1), dropping the two zero end points of the
	// symmetric window of length L+2. Every coefficient of a Hann window is
	// then strictly positive, which keeps overlap-add weight sums away from zero.
	Interior
)

func (f Form) String() string {
	switch f {
	case Symmetric:
		return "symmetric"
	case Periodic:
		return "periodic"
	case Interior:
		return "interior"
	default:
		return "unknown"
	}
}

// Window is the common surface of all window functions in this package.
type Window interface {
	// Size returns the number of coefficients
	Size() int
	// At returns coefficient i without copying
	At(i int) float64
	// GetCoefficients returns a copy of the coefficients
	GetCoefficients() []float64
	// ApplyInPlace multiplies signal by the window elementwise
	ApplyInPlace(signal []float64) error
	// GetType returns the window name as accepted by New
	GetType() string
}

// New builds a window by name. Recognised names are "hann", "hamming",
// "blackman" and "rectangular".
func New(name string, size int, form Form) (Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "hann", "hanning":
		return NewHann(size, form), nil
	case "hamming":
		return NewHamming(size, form), nil
	case "blackman":
		return NewBlackman(size, form), nil
	case "rectangular", "rect", "boxcar":
		return NewRectangular(size), nil
	default:
		return nil, fmt.Errorf("unknown window type %q", name)
	}
}

// coefficients holds the generated weights shared by every window type
type coefficients struct {
	name   string
	values []float64
}

func (c *coefficients) Size() int { return len(c.values) }

func (c *coefficients) At(i int) float64 { return c.values[i] }

func (c *coefficients) GetCoefficients() []float64 {
	out := make([]float64, len(c.values))
	copy(out, c.values)
	return out
}

func (c *coefficients) ApplyInPlace(signal []float64) error {
	if len(signal) != len(c.values) {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), len(c.values))
	}

	for i, w := range c.values {
		signal[i] *= w
	}

	return nil
}

// Apply returns a windowed copy of signal, or nil on a length mismatch
func (c *coefficients) Apply(signal []float64) []float64 {
	if len(signal) != len(c.values) {
		return nil
	}

	windowed := make([]float64, len(signal))
	for i, w := range c.values {
		windowed[i] = signal[i] * w
	}

	return windowed
}

func (c *coefficients) GetType() string { return c.name }

// phase returns the normalised position of sample i in [0, 1] for the form
func phase(i, size int, form Form) float64 {
	switch form {
	case Periodic:
		return float64(i) / float64(size)
	case Interior:
		return float64(i+1) / float64(size+1)
	default:
		if size == 1 {
			// Degenerate symmetric window: centre of the lobe
			return 0.5
		}
		return float64(i) / float64(size-1)
	}
}
