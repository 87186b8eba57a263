package rotmix

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/synth/param"
)

// defaultAngleSlewPerMs bounds angle changes to avoid discontinuities when
// a control-rate angle steps between blocks.
const defaultAngleSlewPerMs = 0.05

// Rotate2 rotates (a, b) by theta. The matrix is orthonormal, so
// x² + y² == a² + b² for any theta.
func Rotate2(a, b, theta float64) (x, y float64) {
	sin, cos := math.Sincos(theta)

	return a*cos - b*sin, a*sin + b*cos
}

// Rotate4 composes two orthonormal rotations over four channels: pairs
// (0,1) and (2,3) rotate by theta, then the cross pairs (r0,r2) and (r1,r3)
// rotate by cross. The composition remains orthonormal.
func Rotate4(in [4]float64, theta, cross float64) [4]float64 {
	r0, r1 := Rotate2(in[0], in[1], theta)
	r2, r3 := Rotate2(in[2], in[3], theta)

	o0, o2 := Rotate2(r0, r2, cross)
	o1, o3 := Rotate2(r1, r3, cross)

	return [4]float64{o0, o1, o2, o3}
}

// Option mutates mixer construction parameters.
type Option func(*config) error

type config struct {
	angleSlewPerMs float64
}

// WithAngleSlewRate overrides the angle slew bound in radians per
// millisecond.
func WithAngleSlewRate(radPerMs float64) Option {
	return func(cfg *config) error {
		if radPerMs <= 0 || math.IsNaN(radPerMs) || math.IsInf(radPerMs, 0) {
			return fmt.Errorf("angle slew rate must be > 0: %f", radPerMs)
		}

		cfg.angleSlewPerMs = radPerMs

		return nil
	}
}

func applyOptions(opts []Option) (config, error) {
	cfg := config{angleSlewPerMs: defaultAngleSlewPerMs}
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		err := opt(&cfg)
		if err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// Mixer2 is the two-channel rotation mixer with a slewed control-rate angle.
type Mixer2 struct {
	cfg  config
	slew *param.Slew
}

// NewMixer2 creates a two-channel mixer for the given sample rate.
func NewMixer2(sampleRate float64, opts ...Option) (*Mixer2, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	slew, err := param.NewSlew(sampleRate)
	if err != nil {
		return nil, err
	}

	return &Mixer2{cfg: cfg, slew: slew}, nil
}

// ProcessSample rotates one frame by the slewed angle.
func (m *Mixer2) ProcessSample(a, b, angle float64) (x, y float64) {
	return Rotate2(a, b, m.slew.Next(angle, m.cfg.angleSlewPerMs))
}

// ProcessBlock rotates a block. angle may be a-rate or k-rate.
func (m *Mixer2) ProcessBlock(outA, outB, inA, inB, angle []float64) {
	for i := range outA {
		outA[i], outB[i] = m.ProcessSample(
			param.Sample(inA, i),
			param.Sample(inB, i),
			param.Sample(angle, i),
		)
	}
}

// Reset clears the slew history.
func (m *Mixer2) Reset() {
	m.slew.Reset()
}

// Mixer4 is the four-channel rotation mixer with two slewed angles.
type Mixer4 struct {
	cfg       config
	slewMain  *param.Slew
	slewCross *param.Slew
}

// NewMixer4 creates a four-channel mixer for the given sample rate.
func NewMixer4(sampleRate float64, opts ...Option) (*Mixer4, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	slewMain, err := param.NewSlew(sampleRate)
	if err != nil {
		return nil, err
	}

	slewCross, err := param.NewSlew(sampleRate)
	if err != nil {
		return nil, err
	}

	return &Mixer4{cfg: cfg, slewMain: slewMain, slewCross: slewCross}, nil
}

// ProcessSample rotates one four-channel frame by the slewed angles.
func (m *Mixer4) ProcessSample(in [4]float64, angle, cross float64) [4]float64 {
	theta := m.slewMain.Next(angle, m.cfg.angleSlewPerMs)
	iota := m.slewCross.Next(cross, m.cfg.angleSlewPerMs)

	return Rotate4(in, theta, iota)
}

// ProcessBlock rotates four input blocks into four output blocks. The angle
// buffers may be a-rate or k-rate.
func (m *Mixer4) ProcessBlock(out, in *[4][]float64, angle, cross []float64) error {
	if out == nil || in == nil {
		return fmt.Errorf("rotation mixer requires 4 input and 4 output buffers")
	}

	n := len(out[0])
	for i := range in {
		if len(in[i]) < n || len(out[i]) < n {
			return fmt.Errorf("rotation mixer channel %d shorter than block: %d < %d", i, len(in[i]), n)
		}
	}

	for i := range n {
		frame := m.ProcessSample(
			[4]float64{in[0][i], in[1][i], in[2][i], in[3][i]},
			param.Sample(angle, i),
			param.Sample(cross, i),
		)

		for ch := range frame {
			out[ch][i] = frame[ch]
		}
	}

	return nil
}

// Reset clears both slew histories.
func (m *Mixer4) Reset() {
	m.slewMain.Reset()
	m.slewCross.Reset()
}
