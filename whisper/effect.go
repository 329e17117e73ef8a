// Package whisper turns voiced audio into whispered audio. Two per-frame
// effects are provided: LPCWhisperiser swaps the excitation of a linear
// prediction model for noise, PhaseRandomizer scrambles the phase spectrum.
// Pipeline runs either effect over a waveform with windowed overlap-add, and
// Processor drives it from WAV file to WAV file.
package whisper

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/RyanBlaney/susurro/config"
)

// ConfigurationError reports an invalid effect or pipeline parameter
type ConfigurationError = config.ConfigurationError

// Effect is a per-frame transform. Transform rewrites frame in place and
// must draw all of its randomness from rng. Implementations must be safe
// for concurrent use on distinct frames.
type Effect interface {
	Name() string
	FrameLength() int
	Transform(frame []float64, rng *rand.Rand) error
}

// NewEffect builds the effect selected by cfg
func NewEffect(cfg config.Config) (Effect, error) {
	switch cfg.Effect {
	case config.EffectLPC:
		var opts []LPCOption
		if cfg.PreEmphasis > 0 {
			opts = append(opts, WithPreEmphasis(cfg.PreEmphasis))
		}
		return NewLPCWhisperiser(cfg.PredictionOrder, cfg.LPCFrameLength, cfg.WhisperAmount, opts...)
	case config.EffectPhase:
		return NewPhaseRandomizer(cfg.PhaseFrameLength, cfg.WhisperAmount)
	default:
		return nil, &ConfigurationError{Key: "effect", Value: string(cfg.Effect), Err: fmt.Errorf("unknown effect")}
	}
}

// clampAmount limits a whisper amount to [0, 1]; NaN counts as 0
func clampAmount(amount float64) float64 {
	if math.IsNaN(amount) {
		return 0
	}
	return math.Max(0, math.Min(1, amount))
}
