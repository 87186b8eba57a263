package reverb

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/synth/core"
	"github.com/cwbudde/algo-synth/synth/delay"
	"github.com/cwbudde/algo-synth/synth/param"
	"github.com/cwbudde/algo-synth/synth/rotmix"
)

const (
	numLines = 4

	referenceSampleRate = 44100.0

	defaultDecay    = 0.85
	defaultDamp     = 0.3
	defaultModRate  = 0.35
	defaultModDepth = 0.0015
	defaultAngle    = 0.79
	defaultCross    = 0.63

	maxDecay    = 0.99
	maxModDepth = 0.01

	decaySlewPerMs = 0.01

	delayHeadroom = 4
)

// Mutually incommensurate base lengths, in samples at the reference rate.
var baseDelaySamples = [numLines]float64{1201, 1559, 1901, 2243}

// Per-line LFO rate ratios decorrelate the modulation so the lines never
// sweep in lockstep.
var lfoRateRatio = [numLines]float64{1.0, 0.81, 1.27, 0.67}

// feedbackDest routes mixer output j into delay line feedbackDest[j]; the
// permutation is deliberately not the identity, so every line's feedback
// destination differs from its source.
var feedbackDest = [numLines]int{1, 2, 3, 0}

// Reverb is the FDN orchestrator.
type Reverb struct {
	sampleRate float64

	decay    float64
	damp     float64
	modRate  float64
	modDepth float64
	angle    float64
	cross    float64

	delayScale      float64
	modDepthSamples float64

	lines       [numLines]*delay.Line
	filterState [numLines]float64
	lfoPhase    [numLines]float64

	mixer     *rotmix.Mixer4
	slewDecay *param.Slew
}

// New creates a Reverb configured for the provided sample rate.
func New(sampleRate float64) (*Reverb, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("fdn reverb sample rate must be > 0: %f", sampleRate)
	}

	mixer, err := rotmix.NewMixer4(sampleRate)
	if err != nil {
		return nil, err
	}

	slewDecay, err := param.NewSlew(sampleRate)
	if err != nil {
		return nil, err
	}

	r := &Reverb{
		sampleRate: sampleRate,
		decay:      defaultDecay,
		damp:       defaultDamp,
		modRate:    defaultModRate,
		modDepth:   defaultModDepth,
		angle:      defaultAngle,
		cross:      defaultCross,
		delayScale: sampleRate / referenceSampleRate,
		mixer:      mixer,
		slewDecay:  slewDecay,
	}

	r.modDepthSamples = r.modDepth * sampleRate

	for i := range r.lines {
		size := int(math.Ceil(baseDelaySamples[i]*r.delayScale+r.modDepthSamples)) + delayHeadroom

		line, err := delay.New(size)
		if err != nil {
			return nil, err
		}

		r.lines[i] = line
	}

	return r, nil
}

// SetDecay sets the shared feedback decay gain in [0, 0.99]. Values at or
// above one would make the loop unstable and are rejected.
func (r *Reverb) SetDecay(v float64) error {
	if v < 0 || v > maxDecay || math.IsNaN(v) {
		return fmt.Errorf("fdn reverb decay must be in [0, %g]: %f", maxDecay, v)
	}

	r.decay = v

	return nil
}

// SetDamp sets the one-pole low-pass damping in [0, 1).
func (r *Reverb) SetDamp(v float64) error {
	if v < 0 || v >= 1 || math.IsNaN(v) {
		return fmt.Errorf("fdn reverb damp must be in [0, 1): %f", v)
	}

	r.damp = v

	return nil
}

// SetModRate sets the base line-modulation rate in Hz.
func (r *Reverb) SetModRate(hz float64) error {
	if hz < 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
		return fmt.Errorf("fdn reverb mod rate must be >= 0: %f", hz)
	}

	r.modRate = hz

	return nil
}

// SetModDepth sets the line-modulation depth in seconds.
func (r *Reverb) SetModDepth(seconds float64) error {
	if seconds < 0 || seconds > maxModDepth || math.IsNaN(seconds) {
		return fmt.Errorf("fdn reverb mod depth must be in [0, %g]: %f", maxModDepth, seconds)
	}

	r.modDepth = seconds
	r.modDepthSamples = seconds * r.sampleRate

	return nil
}

// SetRotation sets the pair rotation angle in radians.
func (r *Reverb) SetRotation(theta float64) error {
	if math.IsNaN(theta) || math.IsInf(theta, 0) {
		return fmt.Errorf("fdn reverb rotation must be finite: %f", theta)
	}

	r.angle = theta

	return nil
}

// SetCrossRotation sets the cross-pair rotation angle in radians.
func (r *Reverb) SetCrossRotation(iota float64) error {
	if math.IsNaN(iota) || math.IsInf(iota, 0) {
		return fmt.Errorf("fdn reverb cross rotation must be finite: %f", iota)
	}

	r.cross = iota

	return nil
}

// Decay returns the shared decay gain.
func (r *Reverb) Decay() float64 { return r.decay }

// Damp returns the damping amount.
func (r *Reverb) Damp() float64 { return r.damp }

// ModRate returns the base modulation rate in Hz.
func (r *Reverb) ModRate() float64 { return r.modRate }

// ModDepth returns the modulation depth in seconds.
func (r *Reverb) ModDepth() float64 { return r.modDepth }

// Reset clears all delay, filter, modulation, and slew state.
func (r *Reverb) Reset() {
	for i := range r.lines {
		r.lines[i].Reset()
		r.filterState[i] = 0
		r.lfoPhase[i] = 0
	}

	r.mixer.Reset()
	r.slewDecay.Reset()
}

// ProcessSample feeds one input sample through the network and returns the
// two output buses.
func (r *Reverb) ProcessSample(in float64) (left, right float64) {
	in = core.Sanitize(in, 0)

	// Read each line through its modulated tap and soft-saturate; the
	// saturator keeps any transient overshoot from compounding around the
	// loop.
	var lineOut [numLines]float64

	for i := range lineOut {
		mod := 0.5 * (1 + math.Sin(r.lfoPhase[i]))
		tap := baseDelaySamples[i]*r.delayScale + r.modDepthSamples*mod
		lineOut[i] = math.Tanh(r.lines[i].ReadFractional(tap))

		r.lfoPhase[i] += 2 * math.Pi * r.modRate * lfoRateRatio[i] / r.sampleRate
		if r.lfoPhase[i] >= 2*math.Pi {
			r.lfoPhase[i] -= 2 * math.Pi
		}
	}

	mixed := r.mixer.ProcessSample(lineOut, r.angle, r.cross)

	decay := r.slewDecay.Next(r.decay, decaySlewPerMs)
	if decay > maxDecay {
		decay = maxDecay
	}

	// Scale, permute, damp, write back.
	inputGain := 1 / math.Sqrt(numLines)

	for j := range mixed {
		dest := feedbackDest[j]

		v := in*inputGain + mixed[j]*decay
		filtered := v*(1-r.damp) + r.filterState[dest]*r.damp
		r.filterState[dest] = core.FlushDenormals(filtered)

		r.lines[dest].Write(filtered)
	}

	left = (lineOut[0] + lineOut[2]) * 0.5
	right = (lineOut[1] + lineOut[3]) * 0.5

	return left, right
}

// ProcessBlock renders a block into the two output buses.
func (r *Reverb) ProcessBlock(left, right, in []float64) {
	for i := range left {
		left[i], right[i] = r.ProcessSample(param.Sample(in, i))
	}
}

// SampleRate returns the configured sample rate.
func (r *Reverb) SampleRate() float64 { return r.sampleRate }
