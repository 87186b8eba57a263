package param

import (
	"fmt"

	"github.com/cwbudde/algo-synth/synth/core"
)

// SlewLimiter bounds the per-sample rate of change of named control values.
// Control parameters typically update once per block while the signal path
// runs per sample; unslewed step changes produce audible discontinuities
// and can destabilize feedback paths.
type SlewLimiter struct {
	msPerSample float64
	history     map[string]float64
}

// NewSlewLimiter creates a limiter for the given sample rate.
func NewSlewLimiter(sampleRate float64) (*SlewLimiter, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("slew limiter sample rate must be > 0: %f", sampleRate)
	}

	return &SlewLimiter{
		msPerSample: 1000 / sampleRate,
		history:     make(map[string]float64),
	}, nil
}

// Slew advances the named history toward value, bounding the step to
// ±maxPerMs converted to per-sample units. The first call for a name seeds
// the history with value directly.
func (s *SlewLimiter) Slew(name string, value, maxPerMs float64) float64 {
	value = core.Sanitize(value, 0)

	prev, ok := s.history[name]
	if !ok {
		s.history[name] = value
		return value
	}

	maxStep := maxPerMs * s.msPerSample
	if maxStep < 0 {
		maxStep = -maxStep
	}

	out := core.Clamp(value, prev-maxStep, prev+maxStep)
	s.history[name] = out

	return out
}

// Reset drops all slew histories.
func (s *SlewLimiter) Reset() {
	for k := range s.history {
		delete(s.history, k)
	}
}

// Slew is a single unnamed slew history for kernels that rate-limit exactly
// one value; it avoids the map lookup of SlewLimiter in hot loops.
type Slew struct {
	msPerSample float64
	value       float64
	primed      bool
}

// NewSlew creates a single-value slew for the given sample rate.
func NewSlew(sampleRate float64) (*Slew, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("slew sample rate must be > 0: %f", sampleRate)
	}

	return &Slew{msPerSample: 1000 / sampleRate}, nil
}

// Next advances toward value with the given max rate per millisecond.
func (s *Slew) Next(value, maxPerMs float64) float64 {
	value = core.Sanitize(value, 0)

	if !s.primed {
		s.primed = true
		s.value = value

		return value
	}

	maxStep := maxPerMs * s.msPerSample
	if maxStep < 0 {
		maxStep = -maxStep
	}

	s.value = core.Clamp(value, s.value-maxStep, s.value+maxStep)

	return s.value
}

// Reset clears the history so the next call seeds directly.
func (s *Slew) Reset() {
	s.primed = false
	s.value = 0
}
