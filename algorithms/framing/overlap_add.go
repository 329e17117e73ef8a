package framing

import (
	"fmt"

	"github.com/RyanBlaney/susurro/algorithms/windowing"
)

// weightFloor is the smallest accumulated window weight a sample is divided by
const weightFloor = 1e-12

// Reconstructor rebuilds a continuous waveform from processed frames by
// weighted overlap-add. Each frame is added at its offset, optionally
// multiplied by the synthesis window, and the per-sample sum of the window
// weights used is accumulated alongside. A sample is final once no later
// frame can reach it; it is then emitted as acc[n] / weight[n], which undoes
// the overlap gain.
//
// With the synthesis window the weight at a sample is Σ w², without it Σ w;
// either way an unmodified frame sequence reproduces the source exactly.
type Reconstructor struct {
	window     windowing.Window
	length     int
	synthesize bool

	// acc[i] and weight[i] belong to sample base+i
	acc    []float64
	weight []float64
	base   int

	emitted    int
	lastOffset int
	started    bool
}

// ReconstructorOption configures a Reconstructor
type ReconstructorOption func(*Reconstructor)

// WithSynthesisWindow multiplies every frame by the window again before
// adding it, tapering discontinuities that an effect introduced at the
// frame edges.
func WithSynthesisWindow() ReconstructorOption {
	return func(r *Reconstructor) {
		r.synthesize = true
	}
}

// NewReconstructor creates a reconstructor for frames analysed with win.
// length is the original waveform length; output beyond it is padding and
// is dropped.
func NewReconstructor(win windowing.Window, length int, opts ...ReconstructorOption) *Reconstructor {
	r := &Reconstructor{
		window: win,
		length: max(length, 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add folds frame into the accumulator and returns the samples that became
// final. Frames must arrive in non-decreasing offset order.
func (r *Reconstructor) Add(frame *Frame) ([]float64, error) {
	size := r.window.Size()
	if len(frame.Samples) != size {
		return nil, fmt.Errorf("frame size (%d) doesn't match window size (%d)", len(frame.Samples), size)
	}
	if r.started && frame.Offset < r.lastOffset {
		return nil, fmt.Errorf("frame %d at offset %d arrived after offset %d", frame.Index, frame.Offset, r.lastOffset)
	}

	if !r.started {
		r.base = frame.Offset
		r.started = true
	}
	r.lastOffset = frame.Offset

	// Everything before this frame's offset is final now
	out := r.release(frame.Offset)

	r.grow(frame.Offset + size - r.base)
	start := frame.Offset - r.base
	for i, v := range frame.Samples {
		w := r.window.At(i)
		if r.synthesize {
			v *= w
			w *= w
		}
		r.acc[start+i] += v
		r.weight[start+i] += w
	}

	return out, nil
}

// Flush emits every remaining sample up to the original length. Samples no
// frame reached are emitted as zero.
func (r *Reconstructor) Flush() []float64 {
	out := r.release(r.length)
	if r.emitted < r.length {
		out = append(out, make([]float64, r.length-r.emitted)...)
		r.emitted = r.length
	}
	return out
}

// Reconstruct adds every frame and flushes, returning the whole waveform
func (r *Reconstructor) Reconstruct(frames []*Frame) ([]float64, error) {
	out := make([]float64, 0, r.length)
	for _, f := range frames {
		chunk, err := r.Add(f)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return append(out, r.Flush()...), nil
}

// Emitted returns the number of output samples produced so far
func (r *Reconstructor) Emitted() int {
	return r.emitted
}

// release finalises samples [base, upTo) and drops them from the buffers.
// Only indices inside [0, length) are returned.
func (r *Reconstructor) release(upTo int) []float64 {
	count := min(upTo-r.base, len(r.acc))
	if count <= 0 {
		return nil
	}

	var out []float64
	for i := range count {
		n := r.base + i
		if n < r.emitted || n >= r.length {
			continue
		}
		// Gap before the first reachable sample (cannot happen with a hop ≤ L)
		for r.emitted < n {
			out = append(out, 0)
			r.emitted++
		}
		v := r.acc[i]
		if r.weight[i] > weightFloor {
			v /= r.weight[i]
		}
		out = append(out, v)
		r.emitted++
	}

	r.acc = append(r.acc[:0], r.acc[count:]...)
	r.weight = append(r.weight[:0], r.weight[count:]...)
	r.base += count

	return out
}

// grow extends the buffers to hold n samples from base
func (r *Reconstructor) grow(n int) {
	if n <= len(r.acc) {
		return
	}
	extra := n - len(r.acc)
	r.acc = append(r.acc, make([]float64, extra)...)
	r.weight = append(r.weight, make([]float64, extra)...)
}
