package windowing

import (
	"math"
)

// Hann represents a Hann window function:
//
//	w[i] = 0.5 * (1 - cos(2π·p(i)))
//
// where p(i) is the sample position selected by Form.
type Hann struct {
	coefficients
	form Form
}

// NewHann creates a new Hann window
func NewHann(size int, form Form) *Hann {
	h := &Hann{
		coefficients: coefficients{name: "hann"},
		form:         form,
	}
	h.generate(size)
	return h
}

func (h *Hann) generate(size int) {
	h.values = make([]float64, size)
	for i := range size {
		h.values[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*phase(i, size, h.form)))
	}
}

// Form returns the sampling form the window was generated with
func (h *Hann) Form() Form {
	return h.form
}
