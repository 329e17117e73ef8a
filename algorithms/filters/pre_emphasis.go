package filters

import (
	"fmt"
)

// PreEmphasis implements the first-order pre-emphasis filter
//
//	H(z) = 1 - α·z^-1,   y[n] = x[n] - α·x[n-1]
//
// and its inverse, the de-emphasis filter 1/H(z). Pre-emphasis flattens the
// spectral tilt of voiced speech before linear prediction, which improves the
// conditioning of the normal equations.
//
// References:
//   - L.R. Rabiner, R.W. Schafer, "Digital Processing of Speech Signals",
//     Prentice-Hall, 1978, Chapter 8
type PreEmphasis struct {
	coefficient float64
	lastInput   float64 // x[n-1] for Process
	lastOutput  float64 // y[n-1] for Restore
}

// NewPreEmphasis creates a pre-emphasis filter with coefficient α in [0, 1).
// α = 0 is a pass-through.
func NewPreEmphasis(coefficient float64) (*PreEmphasis, error) {
	if coefficient < 0 || coefficient >= 1 {
		return nil, fmt.Errorf("pre-emphasis coefficient must be in [0, 1), got %v", coefficient)
	}
	return &PreEmphasis{coefficient: coefficient}, nil
}

// Process applies pre-emphasis in place, continuing from the previous call
func (pe *PreEmphasis) Process(signal []float64) {
	for i, x := range signal {
		signal[i] = x - pe.coefficient*pe.lastInput
		pe.lastInput = x
	}
}

// Restore applies de-emphasis in place, continuing from the previous call.
// Restore after Process with the same history reproduces the input.
func (pe *PreEmphasis) Restore(signal []float64) {
	for i, y := range signal {
		x := y + pe.coefficient*pe.lastOutput
		signal[i] = x
		pe.lastOutput = x
	}
}

// Reset clears the filter history
func (pe *PreEmphasis) Reset() {
	pe.lastInput = 0
	pe.lastOutput = 0
}

// EmphasizeFrame pre-emphasises a single frame from a zero state
func (pe *PreEmphasis) EmphasizeFrame(frame []float64) {
	prev := 0.0
	for i, x := range frame {
		frame[i] = x - pe.coefficient*prev
		prev = x
	}
}

// DeEmphasizeFrame undoes EmphasizeFrame on a single frame from a zero state
func (pe *PreEmphasis) DeEmphasizeFrame(frame []float64) {
	prev := 0.0
	for i, y := range frame {
		frame[i] = y + pe.coefficient*prev
		prev = frame[i]
	}
}
