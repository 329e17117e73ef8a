// Package config holds the process-wide whisperisation settings and their
// documented defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultEffect           = EffectLPC
	DefaultLPCFrameLength   = 512
	DefaultPhaseFrameLength = 64
	DefaultPredictionOrder  = 20
	DefaultWhisperAmount    = 1.0
	DefaultHopDivisor       = 4
	DefaultWindow           = "hann"
	DefaultLogLevel         = "info"
)

// Effect names the per-frame transform applied by the pipeline
type Effect string

const (
	// EffectLPC replaces the LPC residual with noise
	EffectLPC Effect = "lpc"
	// EffectPhase randomises the phase spectrum
	EffectPhase Effect = "phase"
)

// ParseEffect normalises a user supplied effect name. The result still needs
// IsValid.
func ParseEffect(s string) Effect {
	return Effect(strings.ToLower(strings.TrimSpace(s)))
}

// IsValid reports whether e names a known effect
func (e Effect) IsValid() bool {
	return e == EffectLPC || e == EffectPhase
}

// Config holds the whisperiser configuration.
type Config struct {
	Effect           Effect  `yaml:"effect" json:"effect"`
	LPCFrameLength   int     `yaml:"lpc_frame_length" json:"lpc_frame_length"`
	PhaseFrameLength int     `yaml:"phase_frame_length" json:"phase_frame_length"`
	PredictionOrder  int     `yaml:"prediction_order" json:"prediction_order"`
	WhisperAmount    float64 `yaml:"whisper_amount" json:"whisper_amount"`
	HopDivisor       int     `yaml:"hop_divisor" json:"hop_divisor"`
	Window           string  `yaml:"window" json:"window"`
	SynthesisWindow  bool    `yaml:"synthesis_window" json:"synthesis_window"`
	MatchLoudness    bool    `yaml:"match_loudness" json:"match_loudness"`
	PreEmphasis      float64 `yaml:"pre_emphasis" json:"pre_emphasis"`
	DCCutoff         float64 `yaml:"dc_cutoff" json:"dc_cutoff"` // Hz, 0 = off
	Workers          int     `yaml:"workers" json:"workers"`
	Seed             uint64  `yaml:"seed" json:"seed"`
	LogLevel         string  `yaml:"log_level" json:"log_level"`
}

// Default returns the configuration with every documented default applied
func Default() Config {
	return Config{
		Effect:           DefaultEffect,
		LPCFrameLength:   DefaultLPCFrameLength,
		PhaseFrameLength: DefaultPhaseFrameLength,
		PredictionOrder:  DefaultPredictionOrder,
		WhisperAmount:    DefaultWhisperAmount,
		HopDivisor:       DefaultHopDivisor,
		Window:           DefaultWindow,
		SynthesisWindow:  true,
		MatchLoudness:    true,
		LogLevel:         DefaultLogLevel,
	}
}

// FrameLength returns the frame length used by the configured effect
func (c Config) FrameLength() int {
	if c.Effect == EffectPhase {
		return c.PhaseFrameLength
	}
	return c.LPCFrameLength
}

// HopSize returns the hop used for the configured effect's frames
func (c Config) HopSize() int {
	return Hop(c.FrameLength(), c.HopDivisor)
}

// Hop returns frameLength / divisor, at least 1. A non-positive divisor
// means no overlap.
func Hop(frameLength, divisor int) int {
	if divisor <= 0 {
		return max(frameLength, 1)
	}
	return max(frameLength/divisor, 1)
}

// Validate checks the configuration and returns every problem found joined
// into one error. WhisperAmount is not checked: effects clamp it.
func (c Config) Validate() error {
	var errs []error

	if !c.Effect.IsValid() {
		errs = append(errs, &ConfigurationError{Key: "effect", Value: string(c.Effect), Err: errors.New("valid values: lpc, phase")})
	}
	if c.LPCFrameLength <= 0 {
		errs = append(errs, &ConfigurationError{Key: "lpc_frame_length", Value: fmt.Sprint(c.LPCFrameLength), Err: errors.New("must be positive")})
	}
	if c.PhaseFrameLength < 2 {
		errs = append(errs, &ConfigurationError{Key: "phase_frame_length", Value: fmt.Sprint(c.PhaseFrameLength), Err: errors.New("must be at least 2")})
	}
	if c.PredictionOrder <= 0 {
		errs = append(errs, &ConfigurationError{Key: "prediction_order", Value: fmt.Sprint(c.PredictionOrder), Err: errors.New("must be positive")})
	} else if c.LPCFrameLength > 0 && c.PredictionOrder >= c.LPCFrameLength {
		errs = append(errs, &ConfigurationError{
			Key:   "prediction_order",
			Value: fmt.Sprint(c.PredictionOrder),
			Err:   fmt.Errorf("must be less than lpc_frame_length (%d)", c.LPCFrameLength),
		})
	}
	if c.HopDivisor <= 0 {
		errs = append(errs, &ConfigurationError{Key: "hop_divisor", Value: fmt.Sprint(c.HopDivisor), Err: errors.New("must be positive")})
	}
	if c.PreEmphasis < 0 || c.PreEmphasis >= 1 {
		errs = append(errs, &ConfigurationError{Key: "pre_emphasis", Value: fmt.Sprint(c.PreEmphasis), Err: errors.New("must be in [0, 1)")})
	}
	if c.DCCutoff < 0 {
		errs = append(errs, &ConfigurationError{Key: "dc_cutoff", Value: fmt.Sprint(c.DCCutoff), Err: errors.New("must not be negative")})
	}
	if c.Workers < 0 {
		errs = append(errs, &ConfigurationError{Key: "workers", Value: fmt.Sprint(c.Workers), Err: errors.New("must not be negative")})
	}
	switch strings.ToLower(c.Window) {
	case "hann", "hanning", "hamming", "blackman", "rectangular", "rect", "boxcar":
	default:
		errs = append(errs, &ConfigurationError{Key: "window", Value: c.Window, Err: errors.New("valid values: hann, hamming, blackman, rectangular")})
	}

	return errors.Join(errs...)
}

// ConfigurationError reports a malformed or inconsistent configuration value
type ConfigurationError struct {
	Key   string
	Value string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("config: %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("config: %s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
