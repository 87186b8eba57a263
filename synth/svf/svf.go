package svf

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/synth/core"
	"github.com/cwbudde/algo-synth/synth/param"
)

const (
	defaultChannels     = 1
	defaultCutoffSlewMs = 200.0 // Hz per ms
	defaultResSlewMs    = 0.05  // Q units per ms
	maxCutoffRatio      = 0.49
	resonanceEpsilon    = 1e-3
	maxChannels         = 32
)

// Option mutates filter construction parameters.
type Option func(*config) error

type config struct {
	channels        int
	cutoffSlewPerMs float64
	resSlewPerMs    float64
}

// WithChannels sets the channel count; each channel keeps independent
// integrator state while sharing the slewed control values.
func WithChannels(n int) Option {
	return func(cfg *config) error {
		if n < 1 || n > maxChannels {
			return fmt.Errorf("svf channels must be in [1, %d]: %d", maxChannels, n)
		}

		cfg.channels = n

		return nil
	}
}

// WithCutoffSlewRate overrides the cutoff slew bound in Hz per millisecond.
func WithCutoffSlewRate(hzPerMs float64) Option {
	return func(cfg *config) error {
		if hzPerMs <= 0 || math.IsNaN(hzPerMs) || math.IsInf(hzPerMs, 0) {
			return fmt.Errorf("svf cutoff slew rate must be > 0: %f", hzPerMs)
		}

		cfg.cutoffSlewPerMs = hzPerMs

		return nil
	}
}

// WithResonanceSlewRate overrides the resonance slew bound in Q units per
// millisecond.
func WithResonanceSlewRate(qPerMs float64) Option {
	return func(cfg *config) error {
		if qPerMs <= 0 || math.IsNaN(qPerMs) || math.IsInf(qPerMs, 0) {
			return fmt.Errorf("svf resonance slew rate must be > 0: %f", qPerMs)
		}

		cfg.resSlewPerMs = qPerMs

		return nil
	}
}

// Filter is the state-variable filter kernel.
type Filter struct {
	cfg        config
	sampleRate float64

	slewCutoff *param.Slew
	slewRes    *param.Slew

	s1 []float64
	s2 []float64
}

// New creates a Filter for the given sample rate.
func New(sampleRate float64, opts ...Option) (*Filter, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("svf sample rate must be > 0: %f", sampleRate)
	}

	cfg := config{
		channels:        defaultChannels,
		cutoffSlewPerMs: defaultCutoffSlewMs,
		resSlewPerMs:    defaultResSlewMs,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		err := opt(&cfg)
		if err != nil {
			return nil, err
		}
	}

	slewCutoff, err := param.NewSlew(sampleRate)
	if err != nil {
		return nil, err
	}

	slewRes, err := param.NewSlew(sampleRate)
	if err != nil {
		return nil, err
	}

	return &Filter{
		cfg:        cfg,
		sampleRate: sampleRate,
		slewCutoff: slewCutoff,
		slewRes:    slewRes,
		s1:         make([]float64, cfg.channels),
		s2:         make([]float64, cfg.channels),
	}, nil
}

// Channels returns the configured channel count.
func (f *Filter) Channels() int { return f.cfg.channels }

// Reset clears integrator and slew state.
func (f *Filter) Reset() {
	for i := range f.s1 {
		f.s1[i] = 0
		f.s2[i] = 0
	}

	f.slewCutoff.Reset()
	f.slewRes.Reset()
}

// ProcessFrame filters one frame: in, low, high, and band each hold
// Channels() samples. The control values are slewed once per frame and
// shared across channels.
func (f *Filter) ProcessFrame(low, high, band, in []float64, cutoffHz, resQ float64) {
	g, r := f.coefficients(cutoffHz, resQ)

	a := 1 / (g*g + 2*r*g + 1)

	for ch := range f.s1 {
		x := core.Sanitize(in[ch], 0)

		hp := a * (x - (g+2*r)*f.s1[ch] - f.s2[ch])
		bp := hp*g + f.s1[ch]
		lp := bp*g + f.s2[ch]

		f.s1[ch] = core.FlushDenormals(hp*g + bp)
		f.s2[ch] = core.FlushDenormals(bp*g + lp)

		low[ch] = lp
		high[ch] = hp
		band[ch] = bp
	}
}

// ProcessBlock filters a block per channel. in, low, high, and band hold
// Channels() rows of equal length; cutoff and resQ may be a-rate or k-rate.
func (f *Filter) ProcessBlock(low, high, band, in [][]float64, cutoff, resQ []float64) error {
	ch := f.cfg.channels
	if len(in) < ch || len(low) < ch || len(high) < ch || len(band) < ch {
		return fmt.Errorf("svf needs %d channel buffers", ch)
	}

	n := len(in[0])

	for i := range n {
		g, r := f.coefficients(param.Sample(cutoff, i), param.Sample(resQ, i))
		a := 1 / (g*g + 2*r*g + 1)

		for c := range ch {
			x := core.Sanitize(in[c][i], 0)

			hp := a * (x - (g+2*r)*f.s1[c] - f.s2[c])
			bp := hp*g + f.s1[c]
			lp := bp*g + f.s2[c]

			f.s1[c] = core.FlushDenormals(hp*g + bp)
			f.s2[c] = core.FlushDenormals(bp*g + lp)

			low[c][i] = lp
			high[c][i] = hp
			band[c][i] = bp
		}
	}

	return nil
}

// coefficients slews the controls and derives the prewarped integrator gain
// g and damping r for one frame.
func (f *Filter) coefficients(cutoffHz, resQ float64) (g, r float64) {
	cutoffHz = f.slewCutoff.Next(cutoffHz, f.cfg.cutoffSlewPerMs)
	resQ = f.slewRes.Next(resQ, f.cfg.resSlewPerMs)

	cutoffHz = core.Clamp(cutoffHz, 0, f.sampleRate*maxCutoffRatio)

	t := math.Tan(math.Pi * cutoffHz / f.sampleRate)
	g = t / (1 + t)
	r = 1 / (2 * math.Max(resQ, resonanceEpsilon))

	return g, r
}
