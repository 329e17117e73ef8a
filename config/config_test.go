package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mapLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Loader{Lookup: mapLookup(nil)}.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Fatalf("Load()=%+v, want defaults %+v", cfg, Default())
	}
	if cfg.FrameLength() != 512 || cfg.HopSize() != 128 {
		t.Fatalf("frame=%d hop=%d", cfg.FrameLength(), cfg.HopSize())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	cfg, err := Loader{Lookup: mapLookup(map[string]string{
		EnvEffect:           " PHASE ",
		EnvPhaseFrameLength: "128",
		EnvWhisperAmount:    "0.5",
		EnvSynthesisWindow:  "false",
		EnvWorkers:          "3",
		EnvSeed:             "42",
		EnvLogLevel:         "debug",
		EnvDCCutoff:         "25",
		EnvWindow:           "",
	})}.Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Effect != EffectPhase {
		t.Fatalf("Effect=%q", cfg.Effect)
	}
	if cfg.FrameLength() != 128 || cfg.HopSize() != 32 {
		t.Fatalf("frame=%d hop=%d", cfg.FrameLength(), cfg.HopSize())
	}
	if cfg.WhisperAmount != 0.5 || cfg.SynthesisWindow || cfg.Workers != 3 || cfg.Seed != 42 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.DCCutoff != 25 {
		t.Fatalf("DCCutoff=%v", cfg.DCCutoff)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel=%q", cfg.LogLevel)
	}
	// Blank values leave the default alone
	if cfg.Window != DefaultWindow {
		t.Fatalf("Window=%q", cfg.Window)
	}
}

func TestLoadRejectsMalformedEnv(t *testing.T) {
	_, err := Loader{Lookup: mapLookup(map[string]string{
		EnvPredictionOrder: "twenty",
	})}.Load()

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cfgErr.Key != EnvPredictionOrder || cfgErr.Value != "twenty" {
		t.Fatalf("unexpected error fields: %+v", cfgErr)
	}
}

func TestLoadYAMLFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "susurro.yaml")
	doc := "effect: phase\nphase_frame_length: 256\nhop_divisor: 2\nseed: 7\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Loader{
		Lookup: mapLookup(map[string]string{
			EnvConfigFile: path,
			EnvSeed:       "9",
		}),
	}.Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Effect != EffectPhase || cfg.PhaseFrameLength != 256 || cfg.HopDivisor != 2 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Seed != 9 {
		t.Fatalf("env should win over file, Seed=%d", cfg.Seed)
	}
	// Keys absent from the file keep their defaults
	if cfg.PredictionOrder != DefaultPredictionOrder || !cfg.MatchLoudness {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestDecodeYAMLRejectsUnknownKeys(t *testing.T) {
	cfg := Default()
	err := DecodeYAML(strings.NewReader("frame_len: 12\n"), &cfg)

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestDecodeYAMLEmptyDocument(t *testing.T) {
	cfg := Default()
	if err := DecodeYAML(strings.NewReader(""), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Fatalf("empty document changed config: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Loader{
		Lookup: mapLookup(nil),
		File:   filepath.Join(t.TempDir(), "absent.yaml"),
	}.Load()
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Key != "config_file" {
		t.Fatalf("expected config_file ConfigurationError, got %v", err)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "susurro.yaml")
	if err := os.WriteFile(path, []byte("effect: [lpc\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Loader{Lookup: mapLookup(nil), File: path}.Load()
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cfgErr.Key != "config_file" || cfgErr.Value != path {
		t.Fatalf("unexpected error fields: %+v", cfgErr)
	}
}

func TestParseEffect(t *testing.T) {
	tests := []struct {
		in   string
		want Effect
	}{
		{"lpc", EffectLPC},
		{"PHASE", EffectPhase},
		{" Phase\t", EffectPhase},
		{"robot", Effect("robot")},
	}
	for _, tt := range tests {
		if got := ParseEffect(tt.in); got != tt.want {
			t.Errorf("ParseEffect(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHop(t *testing.T) {
	tests := []struct {
		frame, divisor, want int
	}{
		{512, 4, 128},
		{64, 4, 16},
		{63, 4, 15},
		{3, 4, 1},
		{64, 0, 64},
	}
	for _, tt := range tests {
		if got := Hop(tt.frame, tt.divisor); got != tt.want {
			t.Errorf("Hop(%d, %d)=%d, want %d", tt.frame, tt.divisor, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"unknown effect", func(c *Config) { c.Effect = "robot" }, "effect"},
		{"order not below frame", func(c *Config) { c.LPCFrameLength = 20 }, "prediction_order"},
		{"zero order", func(c *Config) { c.PredictionOrder = 0 }, "prediction_order"},
		{"tiny phase frame", func(c *Config) { c.PhaseFrameLength = 1 }, "phase_frame_length"},
		{"zero hop divisor", func(c *Config) { c.HopDivisor = 0 }, "hop_divisor"},
		{"pre-emphasis of one", func(c *Config) { c.PreEmphasis = 1 }, "pre_emphasis"},
		{"negative dc cutoff", func(c *Config) { c.DCCutoff = -5 }, "dc_cutoff"},
		{"negative workers", func(c *Config) { c.Workers = -2 }, "workers"},
		{"unknown window", func(c *Config) { c.Window = "gauss" }, "window"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
			if cfgErr.Key != tt.key {
				t.Fatalf("Key=%q, want %q", cfgErr.Key, tt.key)
			}
		})
	}

	cfg := Default()
	cfg.WhisperAmount = 3
	if err := cfg.Validate(); err != nil {
		t.Fatalf("out-of-range amount is clamped later, got %v", err)
	}
}
