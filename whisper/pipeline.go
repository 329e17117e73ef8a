package whisper

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/susurro/algorithms/common"
	"github.com/RyanBlaney/susurro/algorithms/framing"
	"github.com/RyanBlaney/susurro/algorithms/windowing"
	"github.com/RyanBlaney/susurro/config"
	"github.com/RyanBlaney/susurro/logging"
)

// framesPerWorker sizes a fan-out batch relative to the worker count
const framesPerWorker = 8

// PipelineConfig holds the framing and scheduling settings of a Pipeline
type PipelineConfig struct {
	Window          string `json:"window"`
	HopDivisor      int    `json:"hop_divisor"`
	LeadIn          bool   `json:"lead_in"`
	SynthesisWindow bool   `json:"synthesis_window"`
	MatchLoudness   bool   `json:"match_loudness"`
	Workers         int    `json:"workers"` // 0 = runtime.NumCPU()

	Logger logging.Logger `json:"-"`
}

// DefaultPipelineConfig returns a Hann window at quarter-frame hops with
// lead-in, synthesis windowing and loudness matching enabled.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Window:          config.DefaultWindow,
		HopDivisor:      config.DefaultHopDivisor,
		LeadIn:          true,
		SynthesisWindow: true,
		MatchLoudness:   true,
	}
}

// PipelineConfigFrom maps the process configuration onto pipeline settings
func PipelineConfigFrom(cfg config.Config) PipelineConfig {
	pc := DefaultPipelineConfig()
	pc.Window = cfg.Window
	pc.HopDivisor = cfg.HopDivisor
	pc.SynthesisWindow = cfg.SynthesisWindow
	pc.MatchLoudness = cfg.MatchLoudness
	pc.Workers = cfg.Workers
	return pc
}

// Pipeline frames a waveform, applies an Effect to every frame in parallel
// and overlap-adds the results in frame order.
type Pipeline struct {
	config PipelineConfig
	logger logging.Logger
}

// NewPipeline validates cfg and creates a pipeline
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.HopDivisor <= 0 {
		return nil, &ConfigurationError{Key: "hop_divisor", Value: fmt.Sprint(cfg.HopDivisor), Err: errors.New("must be positive")}
	}
	if cfg.Workers < 0 {
		return nil, &ConfigurationError{Key: "workers", Value: fmt.Sprint(cfg.Workers), Err: errors.New("must not be negative")}
	}
	if _, err := windowing.New(cfg.Window, 1, windowing.Interior); err != nil {
		return nil, &ConfigurationError{Key: "window", Value: cfg.Window, Err: err}
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &Pipeline{
		config: cfg,
		logger: logger.WithFields(logging.Fields{"component": "whisper_pipeline"}),
	}, nil
}

// Config returns the effective configuration
func (p *Pipeline) Config() PipelineConfig {
	return p.config
}

// Process runs effect over samples and returns a waveform of the same
// length. For every frame, in order, one seed is drawn from rng and the frame
// is transformed with its own generator seeded from it, so the output
// depends on rng alone and not on the worker count.
func (p *Pipeline) Process(ctx context.Context, samples []float64, effect Effect, rng *rand.Rand) ([]float64, error) {
	if effect == nil {
		return nil, errors.New("whisper: nil effect")
	}
	if rng == nil {
		return nil, errors.New("whisper: nil random source")
	}

	size := effect.FrameLength()
	if size <= 0 {
		return nil, &ConfigurationError{Key: "frame_length", Value: fmt.Sprint(size), Err: errors.New("must be positive")}
	}
	hop := config.Hop(size, p.config.HopDivisor)

	win, err := windowing.New(p.config.Window, size, windowing.Interior)
	if err != nil {
		return nil, &ConfigurationError{Key: "window", Value: p.config.Window, Err: err}
	}

	var srcOpts []framing.SourceOption
	if p.config.LeadIn {
		srcOpts = append(srcOpts, framing.WithLeadIn())
	}
	src, err := framing.NewSource(samples, win, hop, srcOpts...)
	if err != nil {
		return nil, err
	}

	var recOpts []framing.ReconstructorOption
	if p.config.SynthesisWindow {
		recOpts = append(recOpts, framing.WithSynthesisWindow())
	}
	rec := framing.NewReconstructor(win, len(samples), recOpts...)

	logger := p.logger.WithContext(ctx).WithFields(logging.Fields{
		"effect": effect.Name(),
		"frames": src.Total(),
		"frame":  size,
		"hop":    hop,
	})
	logger.Debug("Processing waveform")

	out := make([]float64, 0, len(samples))
	batchSize := p.config.Workers * framesPerWorker

	for src.Remaining() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch := make([]*framing.Frame, 0, batchSize)
		seeds := make([]uint64, 0, batchSize)
		for len(batch) < batchSize {
			frame, ok := src.Next()
			if !ok {
				break
			}
			batch = append(batch, frame)
			seeds = append(seeds, rng.Uint64())
		}

		if err := p.transformBatch(ctx, batch, seeds, effect); err != nil {
			logger.Error(err, "Frame transform failed")
			return nil, err
		}

		for _, frame := range batch {
			chunk, err := rec.Add(frame)
			if err != nil {
				return nil, err
			}
			out = append(out, chunk...)
		}
	}
	out = append(out, rec.Flush()...)

	if p.config.MatchLoudness {
		gain := common.MatchRMS(out, common.RMS(samples))
		logger.Debug("Loudness matched", logging.Fields{"gain": gain})
	}

	return out, nil
}

func (p *Pipeline) transformBatch(ctx context.Context, batch []*framing.Frame, seeds []uint64, effect Effect) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Workers)

	for i, frame := range batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			frameRng := rand.New(rand.NewPCG(seeds[i], uint64(frame.Index)))
			if err := effect.Transform(frame.Samples, frameRng); err != nil {
				return fmt.Errorf("%s: frame %d: %w", effect.Name(), frame.Index, err)
			}
			return nil
		})
	}

	return g.Wait()
}
