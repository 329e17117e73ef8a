// Package transcode reads and writes the WAV files the whisperiser works on
// and converts between interleaved and per-channel sample layouts.
package transcode

import (
	"fmt"
	"time"
)

// SampleFormat is the on-disk sample encoding of a WAV file
type SampleFormat uint16

const (
	FormatPCM   SampleFormat = 1
	FormatFloat SampleFormat = 3
)

func (f SampleFormat) String() string {
	switch f {
	case FormatPCM:
		return "pcm"
	case FormatFloat:
		return "float"
	default:
		return fmt.Sprintf("format(%d)", uint16(f))
	}
}

// AudioData represents decoded audio data
type AudioData struct {
	PCM           []float64     `json:"-"` // Interleaved samples in [-1, 1)
	SampleRate    int           `json:"sample_rate"`
	Channels      int           `json:"channels"`
	BitsPerSample int           `json:"bits_per_sample"`
	Format        SampleFormat  `json:"format"`
	Duration      time.Duration `json:"duration"`
}

// Frames returns the number of sample frames (samples per channel)
func (a *AudioData) Frames() int {
	if a.Channels <= 0 {
		return 0
	}
	return len(a.PCM) / a.Channels
}

func durationOf(frames, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}

// Deinterleave splits interleaved PCM into one slice per channel. A trailing
// partial frame is dropped.
func Deinterleave(pcm []float64, channels int) ([][]float64, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", channels)
	}
	frames := len(pcm) / channels
	out := make([][]float64, channels)
	for c := range out {
		out[c] = make([]float64, frames)
	}
	for i := range frames {
		for c := range channels {
			out[c][i] = pcm[i*channels+c]
		}
	}
	return out, nil
}

// Interleave merges equal-length channel slices into one interleaved slice
func Interleave(channels [][]float64) ([]float64, error) {
	if len(channels) == 0 {
		return nil, nil
	}
	frames := len(channels[0])
	for c, ch := range channels {
		if len(ch) != frames {
			return nil, fmt.Errorf("channel %d has %d samples, channel 0 has %d", c, len(ch), frames)
		}
	}

	out := make([]float64, frames*len(channels))
	for i := range frames {
		for c, ch := range channels {
			out[i*len(channels)+c] = ch[i]
		}
	}
	return out, nil
}

// IOError reports a file that could not be read or written
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// UnsupportedFormatError reports audio whose encoding cannot be handled
type UnsupportedFormatError struct {
	Path   string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Path == "" {
		return "unsupported audio format: " + e.Reason
	}
	return fmt.Sprintf("unsupported audio format in %s: %s", e.Path, e.Reason)
}
