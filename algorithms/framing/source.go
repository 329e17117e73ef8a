// Package framing splits a waveform into overlapping windowed frames and
// recombines processed frames by weighted overlap-add.
package framing

import (
	"fmt"

	"github.com/RyanBlaney/susurro/algorithms/windowing"
)

// Frame is one windowed block of the source waveform. Effects mutate
// Samples in place; Offset is the position of Samples[0] in the source and
// is negative for frames that start in the lead-in.
type Frame struct {
	Index   int
	Offset  int
	Samples []float64
}

// Source produces the windowed frames of a waveform lazily. Frame k covers
// samples [start + k·hop, start + k·hop + L), where start is 0, or -(L-hop)
// with WithLeadIn. Samples outside the waveform read as zero, so the final
// frame is zero-padded to L.
//
// A Source is finite and cannot be restarted.
type Source struct {
	samples []float64
	window  windowing.Window
	hop     int
	start   int

	next  int
	total int
}

// SourceOption configures a Source
type SourceOption func(*Source)

// WithLeadIn starts framing L-hop samples before the waveform so the first
// samples are covered by as many frames as interior ones.
func WithLeadIn() SourceOption {
	return func(s *Source) {
		s.start = -(s.window.Size() - s.hop)
	}
}

// NewSource frames samples with window win and hop size hop (0 < hop ≤ L).
// The samples slice is read, never modified.
func NewSource(samples []float64, win windowing.Window, hop int, opts ...SourceOption) (*Source, error) {
	if win == nil || win.Size() <= 0 {
		return nil, fmt.Errorf("frame source needs a non-empty window")
	}
	if hop <= 0 || hop > win.Size() {
		return nil, fmt.Errorf("hop size %d must be in [1, %d]", hop, win.Size())
	}

	s := &Source{
		samples: samples,
		window:  win,
		hop:     hop,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.total = frameCount(len(samples), win.Size(), hop, s.start)

	return s, nil
}

// frameCount returns the number of frames needed so that every sample of a
// waveform of length n is covered, starting at offset start.
func frameCount(n, size, hop, start int) int {
	if n == 0 {
		return 0
	}
	// Smallest K with start + (K-1)·hop + size >= n
	span := n - start - size
	if span <= 0 {
		return 1
	}
	return 1 + (span+hop-1)/hop
}

// Next returns the next frame, or false once the waveform is exhausted
func (s *Source) Next() (*Frame, bool) {
	if s.next >= s.total {
		return nil, false
	}

	size := s.window.Size()
	offset := s.start + s.next*s.hop

	frame := &Frame{
		Index:   s.next,
		Offset:  offset,
		Samples: make([]float64, size),
	}

	lo := max(offset, 0)
	hi := min(offset+size, len(s.samples))
	if lo < hi {
		copy(frame.Samples[lo-offset:], s.samples[lo:hi])
	}
	for i := range frame.Samples {
		frame.Samples[i] *= s.window.At(i)
	}

	s.next++
	return frame, true
}

// Total returns the number of frames the source produces overall
func (s *Source) Total() int {
	return s.total
}

// Remaining returns the number of frames not yet returned by Next
func (s *Source) Remaining() int {
	return s.total - s.next
}

// FrameLength returns L
func (s *Source) FrameLength() int {
	return s.window.Size()
}

// HopSize returns the hop between consecutive frame offsets
func (s *Source) HopSize() int {
	return s.hop
}

// Window returns the analysis window
func (s *Source) Window() windowing.Window {
	return s.window
}
