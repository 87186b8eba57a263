package xfade

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/synth/core"
	"github.com/cwbudde/algo-synth/synth/param"
)

// ErrUnknownCurve is returned for an unrecognized curve name.
var ErrUnknownCurve = errors.New("unknown crossfade curve")

// Curve selects the blend law.
type Curve int

const (
	// CurveLinear blends a + t*(b-a).
	CurveLinear Curve = iota
	// CurveSmoothstep shapes t through t²(3-2t) before the linear blend.
	CurveSmoothstep
	// CurveConstantPower blends a·cos(tπ/2) + b·sin(tπ/2), keeping perceived
	// loudness constant across the sweep.
	CurveConstantPower
)

// ParseCurve resolves a curve name.
func ParseCurve(name string) (Curve, error) {
	switch name {
	case "linear":
		return CurveLinear, nil
	case "smoothstep":
		return CurveSmoothstep, nil
	case "constantpower", "constant-power":
		return CurveConstantPower, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurve, name)
	}
}

func (c Curve) String() string {
	switch c {
	case CurveLinear:
		return "linear"
	case CurveSmoothstep:
		return "smoothstep"
	case CurveConstantPower:
		return "constantpower"
	default:
		return "unknown"
	}
}

func validCurve(c Curve) bool {
	return c >= CurveLinear && c <= CurveConstantPower
}

// Blend mixes a and b by t in [0,1] with the given curve. t is clamped
// before use regardless of curve.
func Blend(a, b, t float64, curve Curve) float64 {
	t = core.ClampUnit(t)

	switch curve {
	case CurveSmoothstep:
		t = t * t * (3 - 2*t)
		return a + t*(b-a)
	case CurveConstantPower:
		return a*math.Cos(t*math.Pi/2) + b*math.Sin(t*math.Pi/2)
	default:
		return a + t*(b-a)
	}
}

// Crossfade blends two inputs under a per-sample mix parameter.
type Crossfade struct {
	curve Curve
}

// New creates a Crossfade with the given curve.
func New(curve Curve) (*Crossfade, error) {
	if !validCurve(curve) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCurve, curve)
	}

	return &Crossfade{curve: curve}, nil
}

// Curve returns the configured curve.
func (c *Crossfade) Curve() Curve { return c.curve }

// ProcessBlock writes the blend of a and b into dst, sampling mix per
// frame. mix may be a-rate or k-rate.
func (c *Crossfade) ProcessBlock(dst, a, b, mix []float64) {
	for i := range dst {
		c.processFrame(dst, a, b, mix, i)
	}
}

func (c *Crossfade) processFrame(dst, a, b, mix []float64, i int) {
	dst[i] = Blend(param.Sample(a, i), param.Sample(b, i), param.Sample(mix, i), c.curve)
}
