package windowing

import (
	"math"
)

// Blackman represents a three-term Blackman window function
type Blackman struct {
	coefficients
	form Form
}

// NewBlackman creates a new Blackman window
func NewBlackman(size int, form Form) *Blackman {
	b := &Blackman{
		coefficients: coefficients{name: "blackman"},
		form:         form,
	}
	b.generate(size)
	return b
}

func (b *Blackman) generate(size int) {
	b.values = make([]float64, size)

	a0, a1, a2 := 0.42, 0.5, 0.08

	for i := range size {
		arg := 2 * math.Pi * phase(i, size, b.form)
		// Clamp the -1e-17 rounding residue at the symmetric end points
		b.values[i] = math.Max(0, a0-a1*math.Cos(arg)+a2*math.Cos(2*arg))
	}
}
