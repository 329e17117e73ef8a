package framing

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/RyanBlaney/susurro/algorithms/windowing"
)

func noise(n int, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}

// roundTrip frames x, leaves every frame untouched and overlap-adds it back,
// collecting the streamed chunks and the flushed tail.
func roundTrip(t *testing.T, x []float64, win windowing.Window, hop int, srcOpts []SourceOption, recOpts []ReconstructorOption) []float64 {
	t.Helper()

	src, err := NewSource(x, win, hop, srcOpts...)
	if err != nil {
		t.Fatal(err)
	}
	rec := NewReconstructor(win, len(x), recOpts...)

	var out []float64
	for {
		frame, ok := src.Next()
		if !ok {
			break
		}
		chunk, err := rec.Add(frame)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, chunk...)
	}
	return append(out, rec.Flush()...)
}

func TestIdentityRoundTrip(t *testing.T) {
	x := noise(1000, 1)

	cases := []struct {
		size, hop int
	}{
		{64, 16}, {64, 64}, {64, 1}, {512, 128}, {33, 10}, {100, 99}, {1, 1},
	}
	policies := []struct {
		name    string
		srcOpts []SourceOption
		recOpts []ReconstructorOption
	}{
		{"plain", nil, nil},
		{"synthesis", nil, []ReconstructorOption{WithSynthesisWindow()}},
		{"leadin", []SourceOption{WithLeadIn()}, nil},
		{"leadin+synthesis", []SourceOption{WithLeadIn()}, []ReconstructorOption{WithSynthesisWindow()}},
	}

	for _, tc := range cases {
		for _, p := range policies {
			t.Run(fmt.Sprintf("L%d_H%d_%s", tc.size, tc.hop, p.name), func(t *testing.T) {
				win := windowing.NewHann(tc.size, windowing.Interior)
				y := roundTrip(t, x, win, tc.hop, p.srcOpts, p.recOpts)
				if len(y) != len(x) {
					t.Fatalf("output length %d, want %d", len(y), len(x))
				}
				for i := range x {
					if math.Abs(y[i]-x[i]) > 1e-9 {
						t.Fatalf("sample %d: %v, want %v", i, y[i], x[i])
					}
				}
			})
		}
	}
}

func TestShortWaveformYieldsOnePaddedFrame(t *testing.T) {
	x := []float64{0.5, -0.25, 1}
	win := windowing.NewRectangular(8)

	src, err := NewSource(x, win, 2)
	if err != nil {
		t.Fatal(err)
	}
	if src.Total() != 1 {
		t.Fatalf("Total=%d, want 1", src.Total())
	}

	frame, ok := src.Next()
	if !ok {
		t.Fatal("expected one frame")
	}
	want := []float64{0.5, -0.25, 1, 0, 0, 0, 0, 0}
	for i := range want {
		if frame.Samples[i] != want[i] {
			t.Fatalf("frame[%d]=%v, want %v", i, frame.Samples[i], want[i])
		}
	}
	if _, ok := src.Next(); ok {
		t.Fatal("expected the source to be exhausted")
	}

	rec := NewReconstructor(win, len(x))
	y, err := rec.Reconstruct([]*Frame{frame})
	if err != nil {
		t.Fatal(err)
	}
	if len(y) != len(x) {
		t.Fatalf("output length %d, want %d", len(y), len(x))
	}
	for i := range x {
		if y[i] != x[i] {
			t.Fatalf("y[%d]=%v, want %v", i, y[i], x[i])
		}
	}
}

func TestFrameOffsetsAndWindowing(t *testing.T) {
	x := make([]float64, 20)
	for i := range x {
		x[i] = 1
	}
	win := windowing.NewHann(8, windowing.Periodic)

	src, err := NewSource(x, win, 4)
	if err != nil {
		t.Fatal(err)
	}
	// Frames at 0, 4, 8, 12: the last one spans [12, 20)
	if src.Total() != 4 {
		t.Fatalf("Total=%d, want 4", src.Total())
	}
	for k := 0; ; k++ {
		frame, ok := src.Next()
		if !ok {
			if k != 4 {
				t.Fatalf("got %d frames, want 4", k)
			}
			break
		}
		if frame.Index != k || frame.Offset != 4*k {
			t.Fatalf("frame %d: index=%d offset=%d", k, frame.Index, frame.Offset)
		}
		for i, v := range frame.Samples {
			if v != win.At(i) {
				t.Fatalf("frame %d sample %d = %v, want %v", k, i, v, win.At(i))
			}
		}
		if src.Remaining() != 3-k {
			t.Fatalf("Remaining=%d, want %d", src.Remaining(), 3-k)
		}
	}
}

func TestLeadInOffsets(t *testing.T) {
	win := windowing.NewHann(8, windowing.Interior)
	src, err := NewSource(make([]float64, 16), win, 2, WithLeadIn())
	if err != nil {
		t.Fatal(err)
	}
	frame, _ := src.Next()
	if frame.Offset != -6 {
		t.Fatalf("first offset=%d, want -6", frame.Offset)
	}
	// Last frame must still reach sample 15: -6 + (K-1)·2 + 8 >= 16 → K = 8
	if src.Total() != 8 {
		t.Fatalf("Total=%d, want 8", src.Total())
	}
}

func TestEmptyWaveform(t *testing.T) {
	win := windowing.NewHann(16, windowing.Interior)
	src, err := NewSource(nil, win, 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := src.Next(); ok {
		t.Fatal("empty waveform should produce no frames")
	}
	if out := NewReconstructor(win, 0).Flush(); len(out) != 0 {
		t.Fatalf("flush of empty reconstructor = %v", out)
	}
}

func TestSourceValidation(t *testing.T) {
	win := windowing.NewHann(16, windowing.Interior)
	for _, hop := range []int{0, -1, 17} {
		if _, err := NewSource(nil, win, hop); err == nil {
			t.Fatalf("expected error for hop %d", hop)
		}
	}
	if _, err := NewSource(nil, nil, 1); err == nil {
		t.Fatal("expected error for nil window")
	}
}

func TestReconstructorRejectsBadFrames(t *testing.T) {
	win := windowing.NewHann(4, windowing.Interior)
	rec := NewReconstructor(win, 10)

	if _, err := rec.Add(&Frame{Offset: 0, Samples: make([]float64, 3)}); err == nil {
		t.Fatal("expected size mismatch error")
	}
	if _, err := rec.Add(&Frame{Index: 0, Offset: 4, Samples: make([]float64, 4)}); err != nil {
		t.Fatal(err)
	}
	if _, err := rec.Add(&Frame{Index: 1, Offset: 2, Samples: make([]float64, 4)}); err == nil {
		t.Fatal("expected out-of-order error")
	}
}

func TestReconstructorStreamsFinalSamples(t *testing.T) {
	win := windowing.NewRectangular(4)
	rec := NewReconstructor(win, 8)

	out, err := rec.Add(&Frame{Index: 0, Offset: 0, Samples: []float64{1, 1, 1, 1}})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Fatalf("nothing is final after the first frame, got %v", out)
	}

	out, err = rec.Add(&Frame{Index: 1, Offset: 2, Samples: []float64{3, 3, 3, 3}})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0] != 1 || out[1] != 1 {
		t.Fatalf("expected samples 0..1 final, got %v", out)
	}

	// Overlap [2, 4) averages 1 and 3; [4, 6) is 3; [6, 8) was never reached
	tail := rec.Flush()
	want := []float64{2, 2, 3, 3, 0, 0}
	if len(tail) != len(want) {
		t.Fatalf("tail=%v, want %v", tail, want)
	}
	for i := range want {
		if tail[i] != want[i] {
			t.Fatalf("tail[%d]=%v, want %v", i, tail[i], want[i])
		}
	}
	if rec.Emitted() != 8 {
		t.Fatalf("Emitted=%d, want 8", rec.Emitted())
	}
}
