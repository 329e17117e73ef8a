package filters

import (
	"math"
	"testing"
)

func TestDCBlockerRemovesOffset(t *testing.T) {
	dc, err := NewDCBlocker(16000, 20)
	if err != nil {
		t.Fatal(err)
	}

	signal := make([]float64, 16000)
	for i := range signal {
		signal[i] = 0.5 + 0.25*math.Sin(2*math.Pi*440*float64(i)/16000)
	}
	dc.Process(signal)

	// After the transient the mean of the last quarter second is ~0
	mean := 0.0
	for _, v := range signal[12000:] {
		mean += v
	}
	mean /= 4000
	if math.Abs(mean) > 1e-3 {
		t.Fatalf("residual DC %v", mean)
	}

	if r := dc.ResponseAt(0, 16000); r != 0 {
		t.Fatalf("response at DC = %v, want 0", r)
	}
	if r := dc.ResponseAt(440, 16000); math.Abs(r-1) > 0.01 {
		t.Fatalf("response at 440 Hz = %v, want ~1", r)
	}
}

func TestDCBlockerStreamsAcrossCalls(t *testing.T) {
	a, _ := NewDCBlocker(8000, 10)
	b, _ := NewDCBlocker(8000, 10)

	whole := []float64{1, 2, 3, 4, 5, 6}
	split := append([]float64(nil), whole...)

	a.Process(whole)
	b.Process(split[:3])
	b.Process(split[3:])
	for i := range whole {
		if whole[i] != split[i] {
			t.Fatalf("sample %d: %v vs %v", i, whole[i], split[i])
		}
	}

	b.Reset()
	again := []float64{1, 2, 3}
	b.Process(again)
	for i := range again {
		if again[i] != whole[i] {
			t.Fatalf("after Reset sample %d: %v, want %v", i, again[i], whole[i])
		}
	}
}

func TestDCBlockerValidation(t *testing.T) {
	for _, tc := range []struct {
		rate   int
		cutoff float64
	}{
		{0, 10}, {8000, 0}, {8000, -1}, {8000, 4000}, {8000, math.NaN()},
	} {
		if _, err := NewDCBlocker(tc.rate, tc.cutoff); err == nil {
			t.Fatalf("expected error for rate %d cutoff %v", tc.rate, tc.cutoff)
		}
	}
}
