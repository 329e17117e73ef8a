package windowing

import (
	"math"
)

// Hamming represents a Hamming window function
type Hamming struct {
	coefficients
	form Form
}

// NewHamming creates a new Hamming window
func NewHamming(size int, form Form) *Hamming {
	h := &Hamming{
		coefficients: coefficients{name: "hamming"},
		form:         form,
	}
	h.generate(size)
	return h
}

func (h *Hamming) generate(size int) {
	h.values = make([]float64, size)
	for i := range size {
		h.values[i] = 0.54 - 0.46*math.Cos(2*math.Pi*phase(i, size, h.form))
	}
}
