package svf

import (
	"math"
	"math/rand"
	"testing"
)

const testSampleRate = 48000.0

func TestNewValidation(t *testing.T) {
	t.Parallel()

	if _, err := New(0); err == nil {
		t.Error("expected error for zero sample rate")
	}

	if _, err := New(testSampleRate, WithChannels(0)); err == nil {
		t.Error("expected error for zero channels")
	}

	if _, err := New(testSampleRate, WithCutoffSlewRate(-1)); err == nil {
		t.Error("expected error for negative cutoff slew")
	}
}

func TestBoundedUnderRandomModulation(t *testing.T) {
	t.Parallel()

	f, err := New(testSampleRate)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rng := rand.New(rand.NewSource(3))

	const (
		blockSize = 128
		blocks    = 200
	)

	in := [][]float64{make([]float64, blockSize)}
	low := [][]float64{make([]float64, blockSize)}
	high := [][]float64{make([]float64, blockSize)}
	band := [][]float64{make([]float64, blockSize)}
	cutoff := make([]float64, blockSize)
	res := make([]float64, blockSize)

	for b := range blocks {
		for i := range blockSize {
			in[0][i] = rng.Float64()*2 - 1
			cutoff[i] = rng.Float64() * testSampleRate / 4
			res[i] = 1e-3 + rng.Float64()*(2*math.Pi-1e-3)
		}

		err := f.ProcessBlock(low, high, band, in, cutoff, res)
		if err != nil {
			t.Fatalf("ProcessBlock() error = %v", err)
		}

		for i := range blockSize {
			for _, v := range []float64{low[0][i], high[0][i], band[0][i]} {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("block %d frame %d: non-finite output %v", b, i, v)
				}

				if math.Abs(v) > 100 {
					t.Fatalf("block %d frame %d: unbounded output %v", b, i, v)
				}
			}
		}
	}
}

func TestLowPassPassesDC(t *testing.T) {
	t.Parallel()

	f, err := New(testSampleRate)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := [][]float64{make([]float64, 128)}
	low := [][]float64{make([]float64, 128)}
	high := [][]float64{make([]float64, 128)}
	band := [][]float64{make([]float64, 128)}

	for i := range in[0] {
		in[0][i] = 1
	}

	cutoff := []float64{1000}
	res := []float64{0.7}

	// Let the filter settle.
	for range 100 {
		if err := f.ProcessBlock(low, high, band, in, cutoff, res); err != nil {
			t.Fatalf("ProcessBlock() error = %v", err)
		}
	}

	last := len(low[0]) - 1
	if math.Abs(low[0][last]-1) > 1e-3 {
		t.Errorf("settled low-pass DC gain = %v, want 1", low[0][last])
	}

	if math.Abs(high[0][last]) > 1e-3 {
		t.Errorf("settled high-pass DC output = %v, want 0", high[0][last])
	}
}

func TestHighPassAttenuatesLowSine(t *testing.T) {
	t.Parallel()

	f, err := New(testSampleRate)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const (
		blockSize = 128
		freq      = 50.0
	)

	in := [][]float64{make([]float64, blockSize)}
	low := [][]float64{make([]float64, blockSize)}
	high := [][]float64{make([]float64, blockSize)}
	band := [][]float64{make([]float64, blockSize)}
	cutoff := []float64{8000}
	res := []float64{0.7}

	var peak float64

	n := 0
	for b := range 100 {
		for i := range blockSize {
			in[0][i] = math.Sin(2 * math.Pi * freq * float64(n) / testSampleRate)
			n++
		}

		if err := f.ProcessBlock(low, high, band, in, cutoff, res); err != nil {
			t.Fatalf("ProcessBlock() error = %v", err)
		}

		// Skip the transient before measuring.
		if b < 50 {
			continue
		}

		for i := range blockSize {
			if a := math.Abs(high[0][i]); a > peak {
				peak = a
			}
		}
	}

	if peak > 0.05 {
		t.Errorf("high-pass output peak = %v for 50 Hz input under 8 kHz cutoff", peak)
	}
}

func TestChannelsIndependentState(t *testing.T) {
	t.Parallel()

	f, err := New(testSampleRate, WithChannels(2))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const blockSize = 64

	in := [][]float64{make([]float64, blockSize), make([]float64, blockSize)}
	low := [][]float64{make([]float64, blockSize), make([]float64, blockSize)}
	high := [][]float64{make([]float64, blockSize), make([]float64, blockSize)}
	band := [][]float64{make([]float64, blockSize), make([]float64, blockSize)}

	for i := range blockSize {
		in[0][i] = 1
		in[1][i] = 0
	}

	err = f.ProcessBlock(low, high, band, in, []float64{2000}, []float64{0.7})
	if err != nil {
		t.Fatalf("ProcessBlock() error = %v", err)
	}

	for i := range blockSize {
		if low[1][i] != 0 {
			t.Fatalf("silent channel produced output %v at frame %d", low[1][i], i)
		}
	}

	if low[0][blockSize-1] == 0 {
		t.Error("driven channel produced no output")
	}
}

func BenchmarkProcessBlock(b *testing.B) {
	f, err := New(testSampleRate)
	if err != nil {
		b.Fatalf("New() error = %v", err)
	}

	const blockSize = 128

	in := [][]float64{make([]float64, blockSize)}
	low := [][]float64{make([]float64, blockSize)}
	high := [][]float64{make([]float64, blockSize)}
	band := [][]float64{make([]float64, blockSize)}

	for i := range blockSize {
		in[0][i] = math.Sin(2 * math.Pi * float64(i) / 37)
	}

	cutoff := []float64{2000}
	res := []float64{1.2}

	b.ResetTimer()

	for range b.N {
		_ = f.ProcessBlock(low, high, band, in, cutoff, res)
	}
}
