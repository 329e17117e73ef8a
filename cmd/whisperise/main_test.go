package main

import (
	"testing"

	"github.com/RyanBlaney/susurro/config"
)

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name    string
		effect  string
		seed    uint64
		verbose bool
		want    func(config.Config) config.Config
	}{
		{
			name: "no flags keep config",
			want: func(c config.Config) config.Config { return c },
		},
		{
			name:   "effect is case insensitive",
			effect: " PHASE",
			want: func(c config.Config) config.Config {
				c.Effect = config.EffectPhase
				return c
			},
		},
		{
			name:    "seed and verbose",
			effect:  "Lpc",
			seed:    11,
			verbose: true,
			want: func(c config.Config) config.Config {
				c.Effect = config.EffectLPC
				c.Seed = 11
				c.LogLevel = "debug"
				return c
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := config.Default()
			base.Seed = 3

			got := base
			applyFlags(&got, tt.effect, tt.seed, tt.verbose)
			if want := tt.want(base); got != want {
				t.Fatalf("got %+v, want %+v", got, want)
			}
			if err := got.Validate(); err != nil {
				t.Fatalf("flags produced an invalid config: %v", err)
			}
		})
	}
}
