package transcode

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/mjibson/go-dsp/wav"

	"github.com/RyanBlaney/susurro/logging"
)

// DecodeFile reads a WAV file into interleaved float samples
func DecodeFile(path string) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "wav_codec",
		"function":  "DecodeFile",
		"path":      path,
	})

	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	audio, err := decode(bufio.NewReader(f), path)
	if err != nil {
		logger.Error(err, "Failed to decode WAV file")
		return nil, err
	}

	logger.Debug("WAV file decoded", logging.Fields{
		"sample_rate":     audio.SampleRate,
		"channels":        audio.Channels,
		"bits_per_sample": audio.BitsPerSample,
		"format":          audio.Format.String(),
		"frames":          audio.Frames(),
	})
	return audio, nil
}

// Decode reads a WAV stream. Supported encodings are 8 and 16 bit PCM and
// 32 bit IEEE float; samples are scaled to [-1, 1).
func Decode(r io.Reader) (*AudioData, error) {
	return decode(r, "")
}

func decode(r io.Reader, path string) (audio *AudioData, err error) {
	// wav.New divides by the header's bit depth before it can be checked
	defer func() {
		if p := recover(); p != nil {
			audio = nil
			err = &UnsupportedFormatError{Path: path, Reason: fmt.Sprintf("malformed header: %v", p)}
		}
	}()

	w, err := wav.New(r)
	if err != nil {
		return nil, &UnsupportedFormatError{Path: path, Reason: err.Error()}
	}

	format := SampleFormat(w.AudioFormat)
	bits := int(w.BitsPerSample)
	channels := int(w.NumChannels)
	if err := checkEncoding(format, bits); err != nil {
		return nil, &UnsupportedFormatError{Path: path, Reason: err.Error()}
	}
	if channels == 0 || w.SampleRate == 0 {
		return nil, &UnsupportedFormatError{Path: path, Reason: "header declares no channels or a zero sample rate"}
	}

	pcm := make([]float64, 0, w.Samples+8)
	if w.Samples > 0 {
		raw, err := w.ReadSamples(w.Samples)
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return nil, &UnsupportedFormatError{Path: path, Reason: "data chunk is shorter than declared"}
			}
			return nil, &IOError{Op: "read", Path: path, Err: err}
		}
		if pcm, err = appendSamples(pcm, raw); err != nil {
			return nil, &UnsupportedFormatError{Path: path, Reason: err.Error()}
		}
	}

	// go-dsp rounds Samples down to a multiple of 8; the remainder of the
	// data chunk is read one sample at a time until it runs out.
	for {
		raw, err := w.ReadSamples(1)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return nil, &IOError{Op: "read", Path: path, Err: err}
		}
		if pcm, err = appendSamples(pcm, raw); err != nil {
			return nil, &UnsupportedFormatError{Path: path, Reason: err.Error()}
		}
	}

	// Drop a trailing partial frame
	pcm = pcm[:len(pcm)-len(pcm)%channels]

	return &AudioData{
		PCM:           pcm,
		SampleRate:    int(w.SampleRate),
		Channels:      channels,
		BitsPerSample: bits,
		Format:        format,
		Duration:      durationOf(len(pcm)/channels, int(w.SampleRate)),
	}, nil
}

// appendSamples scales the raw samples returned by go-dsp to [-1, 1) and
// appends them to dst
func appendSamples(dst []float64, raw any) ([]float64, error) {
	switch s := raw.(type) {
	case []uint8:
		for _, v := range s {
			dst = append(dst, (float64(v)-128)/128)
		}
	case []int16:
		for _, v := range s {
			dst = append(dst, float64(v)/32768)
		}
	case []float32:
		for _, v := range s {
			dst = append(dst, float64(v))
		}
	default:
		return dst, fmt.Errorf("unexpected sample type %T", raw)
	}
	return dst, nil
}

func checkEncoding(format SampleFormat, bits int) error {
	switch format {
	case FormatPCM:
		if bits != 8 && bits != 16 {
			return fmt.Errorf("%d bit PCM is not supported (8 or 16)", bits)
		}
	case FormatFloat:
		if bits != 32 {
			return fmt.Errorf("%d bit float is not supported (32)", bits)
		}
	default:
		return fmt.Errorf("audio format %s is not supported", format)
	}
	return nil
}

// EncodeFile writes audio to path as a WAV file. A partially written file is
// removed on failure.
func EncodeFile(path string, audio *AudioData) error {
	logger := logging.WithFields(logging.Fields{
		"component": "wav_codec",
		"function":  "EncodeFile",
		"path":      path,
	})

	f, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}

	bw := bufio.NewWriter(f)
	err = encode(bw, audio, path)
	if err == nil {
		if ferr := bw.Flush(); ferr != nil {
			err = &IOError{Op: "write", Path: path, Err: ferr}
		}
	}
	if cerr := f.Close(); cerr != nil && err == nil {
		err = &IOError{Op: "close", Path: path, Err: cerr}
	}
	if err != nil {
		os.Remove(path)
		logger.Error(err, "Failed to encode WAV file")
		return err
	}

	logger.Debug("WAV file written", logging.Fields{
		"frames":   audio.Frames(),
		"channels": audio.Channels,
	})
	return nil
}

// Encode writes audio as a RIFF/WAVE stream in audio.Format and
// audio.BitsPerSample (16 bit PCM when unset). PCM samples are clipped to
// the representable range.
func Encode(w io.Writer, audio *AudioData) error {
	return encode(w, audio, "")
}

type fmtChunk struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

func encode(w io.Writer, audio *AudioData, path string) error {
	if audio == nil || audio.Channels <= 0 || audio.SampleRate <= 0 {
		return &UnsupportedFormatError{Path: path, Reason: "audio needs a positive channel count and sample rate"}
	}

	format, bits := audio.Format, audio.BitsPerSample
	if format == 0 {
		format, bits = FormatPCM, 16
	}
	if err := checkEncoding(format, bits); err != nil {
		return &UnsupportedFormatError{Path: path, Reason: err.Error()}
	}

	frames := audio.Frames()
	bytesPerSample := bits / 8
	dataSize := frames * audio.Channels * bytesPerSample
	if uint64(dataSize)+36 > math.MaxUint32 {
		return &UnsupportedFormatError{Path: path, Reason: "audio too long for a RIFF file"}
	}

	header := fmtChunk{
		AudioFormat:   uint16(format),
		NumChannels:   uint16(audio.Channels),
		SampleRate:    uint32(audio.SampleRate),
		ByteRate:      uint32(audio.SampleRate * audio.Channels * bytesPerSample),
		BlockAlign:    uint16(audio.Channels * bytesPerSample),
		BitsPerSample: uint16(bits),
	}

	le := binary.LittleEndian
	buf := make([]byte, 0, 44+dataSize)
	buf = append(buf, "RIFF"...)
	buf = le.AppendUint32(buf, uint32(36+dataSize))
	buf = append(buf, "WAVE"...)
	buf = append(buf, "fmt "...)
	buf = le.AppendUint32(buf, 16)
	buf, _ = binary.Append(buf, le, header)
	buf = append(buf, "data"...)
	buf = le.AppendUint32(buf, uint32(dataSize))

	for _, v := range audio.PCM[:frames*audio.Channels] {
		switch {
		case format == FormatFloat:
			buf = le.AppendUint32(buf, math.Float32bits(float32(v)))
		case bits == 16:
			buf = le.AppendUint16(buf, uint16(quantize(v, 32768)))
		default:
			buf = append(buf, uint8(quantize(v, 128)+128))
		}
	}

	if _, err := w.Write(buf); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// quantize maps v in [-1, 1) to an integer in [-scale, scale-1], clipping
// out-of-range values. NaN becomes 0.
func quantize(v, scale float64) int {
	if math.IsNaN(v) {
		return 0
	}
	q := math.Round(v * scale)
	return int(math.Max(-scale, math.Min(scale-1, q)))
}
