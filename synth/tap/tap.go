package tap

import (
	"fmt"
	"math"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

const minLevelDB = -120.0

// Meter accumulates recent samples in a ring and reports peak and RMS
// levels over the retained window. Feed runs on the render plane; readers
// run on the control plane.
type Meter struct {
	mu     sync.Mutex
	ring   []float64
	pos    int
	filled bool
}

// NewMeter creates a meter retaining size samples.
func NewMeter(size int) (*Meter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("meter size must be > 0: %d", size)
	}

	return &Meter{ring: make([]float64, size)}, nil
}

// Feed appends one rendered block. It satisfies graph.TapFunc.
func (m *Meter) Feed(block []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range block {
		m.ring[m.pos] = v

		m.pos++
		if m.pos >= len(m.ring) {
			m.pos = 0
			m.filled = true
		}
	}
}

// Peak returns the largest absolute sample in the retained window.
func (m *Meter) Peak() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return vecmath.MaxAbs(m.valid())
}

// RMS returns the root-mean-square level of the retained window.
func (m *Meter) RMS() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	x := m.valid()
	if len(x) == 0 {
		return 0
	}

	return math.Sqrt(vecmath.DotProduct(x, x) / float64(len(x)))
}

// PeakDB returns the peak level in decibels, floored at -120 dB.
func (m *Meter) PeakDB() float64 { return linearToDB(m.Peak()) }

// RMSDB returns the RMS level in decibels, floored at -120 dB.
func (m *Meter) RMSDB() float64 { return linearToDB(m.RMS()) }

// Waveform copies the retained window into dst in arrival order, oldest
// first, and returns the number of samples written.
func (m *Meter) Waveform(dst []float64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.filled {
		return copy(dst, m.ring[:m.pos])
	}

	n := copy(dst, m.ring[m.pos:])
	n += copy(dst[n:], m.ring[:m.pos])

	return n
}

// Reset clears the retained window.
func (m *Meter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.ring {
		m.ring[i] = 0
	}

	m.pos = 0
	m.filled = false
}

// valid returns the written portion of the ring. Callers hold mu.
func (m *Meter) valid() []float64 {
	if m.filled {
		return m.ring
	}

	return m.ring[:m.pos]
}

func linearToDB(v float64) float64 {
	if v <= 0 {
		return minLevelDB
	}

	db := 20 * math.Log10(v)
	if db < minLevelDB {
		return minLevelDB
	}

	return db
}

// Analyzer computes Hann-windowed magnitude spectra over a sliding sample
// ring. Its FFT plan and scratch buffers are allocated once.
//
// The ring mutex is held only while copying samples in or out, never
// across the FFT, so Feed on the render plane cannot stall behind an
// in-flight analysis.
type Analyzer struct {
	mu sync.Mutex

	plan     *algofft.Plan[complex128]
	size     int
	binHz    float64
	window   []float64
	ring     []float64
	pos      int
	filled   bool
	fftMu    sync.Mutex
	snapshot []float64
	packed   []complex128
	spectra  []complex128
	re       []float64
	im       []float64
}

// NewAnalyzer creates an analyzer with a power-of-two FFT size.
func NewAnalyzer(fftSize int, sampleRate float64) (*Analyzer, error) {
	if fftSize < 16 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("fft size must be a power of two >= 16: %d", fftSize)
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0: %f", sampleRate)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("NewPlan64: %w", err)
	}

	window := make([]float64, fftSize)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(fftSize-1)))
	}

	return &Analyzer{
		plan:     plan,
		size:     fftSize,
		binHz:    sampleRate / float64(fftSize),
		window:   window,
		ring:     make([]float64, fftSize),
		snapshot: make([]float64, fftSize),
		packed:   make([]complex128, fftSize),
		spectra:  make([]complex128, fftSize),
		re:       make([]float64, fftSize),
		im:       make([]float64, fftSize),
	}, nil
}

// Bins returns the number of non-negative-frequency bins a spectrum holds.
func (a *Analyzer) Bins() int { return a.size/2 + 1 }

// BinFrequency returns the center frequency of bin i in Hz.
func (a *Analyzer) BinFrequency(i int) float64 { return float64(i) * a.binHz }

// Feed appends one rendered block. It satisfies graph.TapFunc.
func (a *Analyzer) Feed(block []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, v := range block {
		a.ring[a.pos] = v

		a.pos++
		if a.pos >= len(a.ring) {
			a.pos = 0
			a.filled = true
		}
	}
}

// Magnitudes computes the magnitude spectrum of the most recent fftSize
// samples into dst, which must hold Bins() values. Until the ring has
// filled once the missing history reads as silence.
func (a *Analyzer) Magnitudes(dst []float64) error {
	if len(dst) < a.Bins() {
		return fmt.Errorf("spectrum needs %d bins, dst holds %d", a.Bins(), len(dst))
	}

	a.fftMu.Lock()
	defer a.fftMu.Unlock()

	// Snapshot the ring under the brief lock Feed shares, then window and
	// transform outside it.
	a.mu.Lock()
	pos := a.pos
	copy(a.snapshot, a.ring)
	a.mu.Unlock()

	for i := 0; i < a.size; i++ {
		idx := pos + i
		if idx >= a.size {
			idx -= a.size
		}

		a.packed[i] = complex(a.snapshot[idx]*a.window[i], 0)
	}

	err := a.plan.Forward(a.spectra, a.packed)
	if err != nil {
		return fmt.Errorf("fft forward: %w", err)
	}

	bins := a.Bins()
	for i := 0; i < bins; i++ {
		a.re[i] = real(a.spectra[i])
		a.im[i] = imag(a.spectra[i])
	}

	vecmath.Magnitude(dst[:bins], a.re[:bins], a.im[:bins])

	// Single-sided scaling: interior bins carry both spectrum halves.
	norm := 2 / float64(a.size)
	vecmath.ScaleBlockInPlace(dst[:bins], norm)
	dst[0] *= 0.5
	dst[bins-1] *= 0.5

	return nil
}
