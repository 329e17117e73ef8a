package whisper

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"github.com/RyanBlaney/susurro/algorithms/common"
	"github.com/RyanBlaney/susurro/algorithms/filters"
	"github.com/RyanBlaney/susurro/config"
	"github.com/RyanBlaney/susurro/logging"
	"github.com/RyanBlaney/susurro/transcode"
)

// Output file suffixes per effect
const (
	SuffixLPC   = "_lpcwhisperised.wav"
	SuffixPhase = "_whisperised.wav"
)

// Processor whisperises whole recordings. It is not safe for concurrent use:
// every call advances the shared random source.
type Processor struct {
	config   config.Config
	effect   Effect
	pipeline *Pipeline
	rng      *rand.Rand
	logger   logging.Logger
}

// ProcessorOption configures a Processor
type ProcessorOption func(*Processor)

// WithRand makes the processor draw every seed from rng
func WithRand(rng *rand.Rand) ProcessorOption {
	return func(p *Processor) {
		p.rng = rng
	}
}

// WithLogger replaces the global logger
func WithLogger(logger logging.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// NewProcessor validates cfg and builds the configured effect and pipeline.
// Without WithRand the generator is seeded from cfg.Seed, or from the clock
// when the seed is 0.
func NewProcessor(cfg config.Config, opts ...ProcessorOption) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Processor{config: cfg}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logging.GetGlobalLogger()
	}
	p.logger = p.logger.WithFields(logging.Fields{"component": "whisper_processor"})

	if p.rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		p.rng = rand.New(rand.NewPCG(seed, seed>>32|seed<<32))
	}

	effect, err := NewEffect(cfg)
	if err != nil {
		return nil, err
	}
	p.effect = effect

	pc := PipelineConfigFrom(cfg)
	pc.Logger = p.logger
	pipeline, err := NewPipeline(pc)
	if err != nil {
		return nil, err
	}
	p.pipeline = pipeline

	return p, nil
}

// Effect returns the configured effect
func (p *Processor) Effect() Effect {
	return p.effect
}

// OutputPath returns the path ProcessFile writes for inPath: the input with
// its extension replaced by the effect's suffix.
func OutputPath(inPath string, effect config.Effect) string {
	stem := strings.TrimSuffix(inPath, filepath.Ext(inPath))
	if effect == config.EffectPhase {
		return stem + SuffixPhase
	}
	return stem + SuffixLPC
}

// ProcessFile whisperises the WAV file at inPath and writes the result next
// to it, returning the output path. Sample rate, channel count and sample
// encoding are kept.
func (p *Processor) ProcessFile(ctx context.Context, inPath string) (string, error) {
	outPath := OutputPath(inPath, p.config.Effect)
	logger := p.logger.WithFields(logging.Fields{
		"function": "ProcessFile",
		"input":    inPath,
		"output":   outPath,
	})

	start := time.Now()
	in, err := transcode.DecodeFile(inPath)
	if err != nil {
		return "", err
	}

	out, err := p.ProcessAudio(logging.ContextWithFields(ctx, logging.Fields{"input": inPath}), in)
	if err != nil {
		return "", fmt.Errorf("whisperise %s: %w", inPath, err)
	}

	if err := transcode.EncodeFile(outPath, out); err != nil {
		return "", err
	}

	logger.Info("File whisperised", logging.Fields{
		"effect":       p.effect.Name(),
		"frame_length": p.config.FrameLength(),
		"hop_size":     p.config.HopSize(),
		"channels":     out.Channels,
		"duration":     out.Duration.String(),
		"elapsed":      time.Since(start).String(),
	})
	return outPath, nil
}

// ProcessAudio whisperises every channel of in independently, each with its
// own seed stream, and returns new audio in the same format.
func (p *Processor) ProcessAudio(ctx context.Context, in *transcode.AudioData) (*transcode.AudioData, error) {
	if in == nil {
		return nil, fmt.Errorf("whisper: nil audio")
	}

	channels, err := transcode.Deinterleave(in.PCM, in.Channels)
	if err != nil {
		return nil, &transcode.UnsupportedFormatError{Reason: err.Error()}
	}

	processed := make([][]float64, len(channels))
	for c, samples := range channels {
		chRng := rand.New(rand.NewPCG(p.rng.Uint64(), p.rng.Uint64()))

		processed[c], err = p.pipeline.Process(ctx, samples, p.effect, chRng)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", c, err)
		}

		if p.config.DCCutoff > 0 {
			if err := p.blockDC(processed[c], samples, in.SampleRate); err != nil {
				return nil, err
			}
		}
	}

	pcm, err := transcode.Interleave(processed)
	if err != nil {
		return nil, err
	}

	return &transcode.AudioData{
		PCM:           pcm,
		SampleRate:    in.SampleRate,
		Channels:      in.Channels,
		BitsPerSample: in.BitsPerSample,
		Format:        in.Format,
		Duration:      in.Duration,
	}, nil
}

// blockDC high-passes a processed channel to strip the offset left by
// frames whose DC bin flipped sign, then restores the input loudness.
func (p *Processor) blockDC(out, in []float64, sampleRate int) error {
	blocker, err := filters.NewDCBlocker(sampleRate, p.config.DCCutoff)
	if err != nil {
		return &ConfigurationError{Key: "dc_cutoff", Value: fmt.Sprint(p.config.DCCutoff), Err: err}
	}
	blocker.Process(out)
	if p.config.MatchLoudness {
		common.MatchRMS(out, common.RMS(in))
	}
	return nil
}
