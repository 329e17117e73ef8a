package whisper

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/RyanBlaney/susurro/algorithms/common"
	"github.com/RyanBlaney/susurro/algorithms/filters"
	"github.com/RyanBlaney/susurro/algorithms/speech"
)

// LPCWhisperiser replaces the excitation of each frame's linear prediction
// model with uniform noise scaled to the model gain. The vocal tract
// envelope is kept; the pitch carried by the residual is lost.
type LPCWhisperiser struct {
	analyzer    *speech.LPCAnalyzer
	frameLength int

	amount         float64
	oneMinusAmount float64

	preEmphasis *filters.PreEmphasis
}

// LPCOption configures an LPCWhisperiser
type LPCOption func(*lpcSettings)

type lpcSettings struct {
	preEmphasis float64
}

// WithPreEmphasis applies a first-order pre-emphasis filter before analysis
// and the matching de-emphasis after resynthesis. 0 disables it.
func WithPreEmphasis(alpha float64) LPCOption {
	return func(s *lpcSettings) {
		s.preEmphasis = alpha
	}
}

// NewLPCWhisperiser creates the effect for frames of frameLength samples.
// predictionOrder must be in [1, frameLength); amount is clamped to [0, 1].
func NewLPCWhisperiser(predictionOrder, frameLength int, amount float64, opts ...LPCOption) (*LPCWhisperiser, error) {
	if frameLength <= 0 {
		return nil, &ConfigurationError{Key: "lpc_frame_length", Value: fmt.Sprint(frameLength), Err: errors.New("must be positive")}
	}
	if predictionOrder <= 0 || predictionOrder >= frameLength {
		return nil, &ConfigurationError{
			Key:   "prediction_order",
			Value: fmt.Sprint(predictionOrder),
			Err:   fmt.Errorf("must be in [1, %d)", frameLength),
		}
	}

	var settings lpcSettings
	for _, opt := range opts {
		opt(&settings)
	}

	analyzer, err := speech.NewLPCAnalyzer(predictionOrder)
	if err != nil {
		return nil, &ConfigurationError{Key: "prediction_order", Value: fmt.Sprint(predictionOrder), Err: err}
	}

	amount = clampAmount(amount)
	w := &LPCWhisperiser{
		analyzer:       analyzer,
		frameLength:    frameLength,
		amount:         amount,
		oneMinusAmount: 1 - amount,
	}

	if settings.preEmphasis != 0 {
		pe, err := filters.NewPreEmphasis(settings.preEmphasis)
		if err != nil {
			return nil, &ConfigurationError{Key: "pre_emphasis", Value: fmt.Sprint(settings.preEmphasis), Err: err}
		}
		w.preEmphasis = pe
	}

	return w, nil
}

func (w *LPCWhisperiser) Name() string { return "lpc_whisperiser" }

func (w *LPCWhisperiser) FrameLength() int { return w.frameLength }

// Amount returns the clamped whisper amount
func (w *LPCWhisperiser) Amount() float64 { return w.amount }

// PredictionOrder returns the LPC model order
func (w *LPCWhisperiser) PredictionOrder() int { return w.analyzer.Order() }

// Transform whisperises frame in place. Silent frames, and frames whose
// resynthesis is not finite, are left unchanged.
func (w *LPCWhisperiser) Transform(frame []float64, rng *rand.Rand) error {
	if len(frame) <= w.analyzer.Order() {
		return fmt.Errorf("frame length %d must exceed prediction order %d", len(frame), w.analyzer.Order())
	}

	work := make([]float64, len(frame))
	copy(work, frame)
	if w.preEmphasis != nil {
		w.preEmphasis.EmphasizeFrame(work)
	}

	model, err := w.analyzer.Analyze(work)
	if errors.Is(err, speech.ErrSilentFrame) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lpc analysis: %w", err)
	}

	residual := speech.InverseFilter(work, model.Coefficients)
	excitation := w.whisperResidual(residual, model.Gain, rng)
	out := speech.Synthesize(excitation, model.Coefficients)

	if w.preEmphasis != nil {
		w.preEmphasis.DeEmphasizeFrame(out)
	}
	if !common.IsFinite(out) {
		return nil
	}

	copy(frame, out)
	return nil
}

// whisperResidual blends residual with uniform noise of spread 4·sqrt(gain²/L).
// The noise part carries (4/3)·gain² energy over the frame.
func (w *LPCWhisperiser) whisperResidual(residual []float64, gain float64, rng *rand.Rand) []float64 {
	spread := 4 * math.Sqrt(gain*gain/float64(len(residual)))

	out := make([]float64, len(residual))
	for i, r := range residual {
		out[i] = w.amount*spread*(rng.Float64()-0.5) + w.oneMinusAmount*r
	}
	return out
}
