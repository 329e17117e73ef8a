package windowing

// Rectangular represents a rectangular (boxcar) window function
type Rectangular struct {
	coefficients
}

// NewRectangular creates a new rectangular window
func NewRectangular(size int) *Rectangular {
	r := &Rectangular{
		coefficients: coefficients{name: "rectangular"},
	}
	r.values = make([]float64, size)
	for i := range r.values {
		r.values[i] = 1.0
	}
	return r
}
