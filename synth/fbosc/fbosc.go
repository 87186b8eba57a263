package fbosc

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/synth/core"
	"github.com/cwbudde/algo-synth/synth/param"
)

const defaultFeedbackSlewMs = 0.02

// Option mutates oscillator construction parameters.
type Option func(*config) error

type config struct {
	feedbackSlewPerMs float64
}

// WithFeedbackSlewRate overrides the feedback slew bound per millisecond.
func WithFeedbackSlewRate(perMs float64) Option {
	return func(cfg *config) error {
		if perMs <= 0 || math.IsNaN(perMs) || math.IsInf(perMs, 0) {
			return fmt.Errorf("oscillator feedback slew rate must be > 0: %f", perMs)
		}

		cfg.feedbackSlewPerMs = perMs

		return nil
	}
}

// Oscillator is the feedback oscillator kernel.
type Oscillator struct {
	cfg        config
	sampleRate float64

	globalTime      float64
	prevFrequency   float64
	phaseCorrection float64
	history         float64

	slewFeedback *param.Slew
}

// New creates an Oscillator for the given sample rate.
func New(sampleRate float64, opts ...Option) (*Oscillator, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("oscillator sample rate must be > 0: %f", sampleRate)
	}

	cfg := config{feedbackSlewPerMs: defaultFeedbackSlewMs}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		err := opt(&cfg)
		if err != nil {
			return nil, err
		}
	}

	slew, err := param.NewSlew(sampleRate)
	if err != nil {
		return nil, err
	}

	return &Oscillator{
		cfg:          cfg,
		sampleRate:   sampleRate,
		slewFeedback: slew,
	}, nil
}

// Reset clears all accumulators and history.
func (o *Oscillator) Reset() {
	o.globalTime = 0
	o.prevFrequency = 0
	o.phaseCorrection = 0
	o.history = 0
	o.slewFeedback.Reset()
}

// ProcessSample advances one sample at the given frequency (Hz) and
// feedback amount.
//
// Frequency changes adjust the phase-correction accumulator so the phase
// stays continuous across the change. The correction is re-based modulo 1
// each sample; a phase offset is periodic in 1, so the wrap is exact and
// keeps the accumulator bounded over arbitrarily long runs.
func (o *Oscillator) ProcessSample(frequency, feedback float64) float64 {
	frequency = core.Sanitize(frequency, 0)
	feedback = o.slewFeedback.Next(feedback, o.cfg.feedbackSlewPerMs)

	o.phaseCorrection += o.globalTime * (o.prevFrequency - frequency)
	o.phaseCorrection = math.Mod(o.phaseCorrection, 1)
	o.prevFrequency = frequency

	phase := math.Mod(o.globalTime*frequency+o.phaseCorrection, 1)

	feedbackTerm := feedback * o.history
	if feedback < 0 {
		feedbackTerm *= feedbackTerm
	}

	out := math.Sin(2*math.Pi*phase + feedbackTerm)

	o.history = (out + o.history) / 2
	o.globalTime += 1 / o.sampleRate

	return out
}

// ProcessBlock renders a block. frequency and feedback may be a-rate or
// k-rate.
func (o *Oscillator) ProcessBlock(dst, frequency, feedback []float64) {
	for i := range dst {
		dst[i] = o.ProcessSample(param.Sample(frequency, i), param.Sample(feedback, i))
	}
}
