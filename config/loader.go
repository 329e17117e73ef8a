package config

import (
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment keys read by Loader
const (
	EnvConfigFile       = "SUSURRO_CONFIG_FILE"
	EnvEffect           = "SUSURRO_EFFECT"
	EnvLPCFrameLength   = "SUSURRO_LPC_FRAME_LENGTH"
	EnvPhaseFrameLength = "SUSURRO_PHASE_FRAME_LENGTH"
	EnvPredictionOrder  = "SUSURRO_PREDICTION_ORDER"
	EnvWhisperAmount    = "SUSURRO_WHISPER_AMOUNT"
	EnvHopDivisor       = "SUSURRO_HOP_DIVISOR"
	EnvWindow           = "SUSURRO_WINDOW"
	EnvSynthesisWindow  = "SUSURRO_SYNTHESIS_WINDOW"
	EnvMatchLoudness    = "SUSURRO_MATCH_LOUDNESS"
	EnvPreEmphasis      = "SUSURRO_PRE_EMPHASIS"
	EnvDCCutoff         = "SUSURRO_DC_CUTOFF"
	EnvWorkers          = "SUSURRO_WORKERS"
	EnvSeed             = "SUSURRO_SEED"
	EnvLogLevel         = "SUSURRO_LOG_LEVEL"
)

// Loader assembles a Config from defaults, an optional YAML file and
// environment variables, in that order. Tests override Lookup to inject
// deterministic maps.
type Loader struct {
	Lookup func(string) (string, bool)
	// File is a YAML config path; when empty SUSURRO_CONFIG_FILE is used
	File string
}

// Load returns the validated configuration
func (l Loader) Load() (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}

	cfg := Default()

	path := l.File
	if path == "" {
		if v, ok := l.Lookup(EnvConfigFile); ok {
			path = strings.TrimSpace(v)
		}
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := l.applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return &ConfigurationError{Key: "config_file", Value: path, Err: err}
	}
	defer f.Close()

	if err := DecodeYAML(f, cfg); err != nil {
		return &ConfigurationError{Key: "config_file", Value: path, Err: errors.Unwrap(err)}
	}
	return nil
}

// DecodeYAML overlays the YAML document in r onto cfg. Unknown keys are
// rejected; keys absent from the document keep their current value.
func DecodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &ConfigurationError{Key: "yaml", Err: err}
	}
	return nil
}

func (l Loader) applyEnv(cfg *Config) error {
	var effect string
	overrideString(l.Lookup, EnvEffect, &effect)
	if effect != "" {
		cfg.Effect = ParseEffect(effect)
	}
	overrideString(l.Lookup, EnvWindow, &cfg.Window)
	overrideString(l.Lookup, EnvLogLevel, &cfg.LogLevel)

	ints := []struct {
		key    string
		target *int
	}{
		{EnvLPCFrameLength, &cfg.LPCFrameLength},
		{EnvPhaseFrameLength, &cfg.PhaseFrameLength},
		{EnvPredictionOrder, &cfg.PredictionOrder},
		{EnvHopDivisor, &cfg.HopDivisor},
		{EnvWorkers, &cfg.Workers},
	}
	for _, o := range ints {
		if err := overrideInt(l.Lookup, o.key, o.target); err != nil {
			return err
		}
	}

	if err := overrideFloat(l.Lookup, EnvWhisperAmount, &cfg.WhisperAmount); err != nil {
		return err
	}
	if err := overrideFloat(l.Lookup, EnvPreEmphasis, &cfg.PreEmphasis); err != nil {
		return err
	}
	if err := overrideFloat(l.Lookup, EnvDCCutoff, &cfg.DCCutoff); err != nil {
		return err
	}
	if err := overrideBool(l.Lookup, EnvSynthesisWindow, &cfg.SynthesisWindow); err != nil {
		return err
	}
	if err := overrideBool(l.Lookup, EnvMatchLoudness, &cfg.MatchLoudness); err != nil {
		return err
	}
	if err := overrideUint(l.Lookup, EnvSeed, &cfg.Seed); err != nil {
		return err
	}
	return nil
}

func lookupTrimmed(lookup func(string) (string, bool), key string) (string, bool) {
	value, ok := lookup(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if value, ok := lookupTrimmed(lookup, key); ok {
		*target = value
	}
}

func overrideFloat(lookup func(string) (string, bool), key string, target *float64) error {
	if value, ok := lookupTrimmed(lookup, key); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return &ConfigurationError{Key: key, Value: value, Err: err}
		}
		*target = parsed
	}
	return nil
}

func overrideInt(lookup func(string) (string, bool), key string, target *int) error {
	if value, ok := lookupTrimmed(lookup, key); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return &ConfigurationError{Key: key, Value: value, Err: err}
		}
		*target = parsed
	}
	return nil
}

func overrideUint(lookup func(string) (string, bool), key string, target *uint64) error {
	if value, ok := lookupTrimmed(lookup, key); ok {
		parsed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return &ConfigurationError{Key: key, Value: value, Err: err}
		}
		*target = parsed
	}
	return nil
}

func overrideBool(lookup func(string) (string, bool), key string, target *bool) error {
	if value, ok := lookupTrimmed(lookup, key); ok {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return &ConfigurationError{Key: key, Value: value, Err: err}
		}
		*target = parsed
	}
	return nil
}
