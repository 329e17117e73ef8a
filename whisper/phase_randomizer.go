package whisper

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/RyanBlaney/susurro/algorithms/spectral"
)

// PhaseRandomizer replaces the phase of every frequency bin with a uniform
// random angle and keeps the magnitudes. The amount is accepted for
// configuration symmetry with LPCWhisperiser but the phase is always fully
// randomised.
type PhaseRandomizer struct {
	fft     *spectral.FFT
	fftSize int
	amount  float64
}

// NewPhaseRandomizer creates the effect with transform length fftSize (≥ 2)
func NewPhaseRandomizer(fftSize int, amount float64) (*PhaseRandomizer, error) {
	if fftSize < 2 {
		return nil, &ConfigurationError{Key: "phase_frame_length", Value: fmt.Sprint(fftSize), Err: errors.New("must be at least 2")}
	}
	return &PhaseRandomizer{
		fft:     spectral.NewFFT(),
		fftSize: fftSize,
		amount:  clampAmount(amount),
	}, nil
}

func (p *PhaseRandomizer) Name() string { return "phase_randomizer" }

func (p *PhaseRandomizer) FrameLength() int { return p.fftSize }

// Amount returns the clamped whisper amount. It does not affect Transform.
func (p *PhaseRandomizer) Amount() float64 { return p.amount }

// Transform randomises the phase spectrum of frame in place. Frames shorter
// than the transform length are zero-padded and the first len(frame)
// samples of the result kept.
func (p *PhaseRandomizer) Transform(frame []float64, rng *rand.Rand) error {
	polar, err := p.fft.ToPolar(frame, p.fftSize)
	if err != nil {
		return err
	}

	randomizePhase(polar, rng)

	out, err := p.fft.FromPolar(polar)
	if err != nil {
		return err
	}
	copy(frame, out)
	return nil
}

// randomizePhase draws one uniform angle per bin. DC and Nyquist must stay
// real, so their angle is rounded to 0 or π.
func randomizePhase(polar *spectral.Polar, rng *rand.Rand) {
	for i := range polar.Phase {
		polar.Phase[i] = 2 * math.Pi * rng.Float64()
	}

	last := len(polar.Phase) - 1
	realBins := []int{0}
	if polar.HasNyquist() && last > 0 {
		realBins = append(realBins, last)
	}
	for _, i := range realBins {
		if polar.Phase[i] < math.Pi {
			polar.Phase[i] = 0
		} else {
			polar.Phase[i] = math.Pi
		}
	}
}
