package graph

import (
	"math"

	"github.com/cwbudde/algo-synth/synth/arith"
	"github.com/cwbudde/algo-synth/synth/delay"
	"github.com/cwbudde/algo-synth/synth/envelope"
	"github.com/cwbudde/algo-synth/synth/fbosc"
	"github.com/cwbudde/algo-synth/synth/param"
	"github.com/cwbudde/algo-synth/synth/reverb"
	"github.com/cwbudde/algo-synth/synth/rotmix"
	"github.com/cwbudde/algo-synth/synth/svf"
	"github.com/cwbudde/algo-synth/synth/xfade"
)

// Module kinds registered by DefaultRegistry. Arithmetic kinds use the
// operator name directly ("add", "max", ...).
const (
	KindCrossfade  = "xfade"
	KindRotMix2    = "rotmix2"
	KindRotMix4    = "rotmix4"
	KindFilter     = "svf"
	KindOscillator = "fbosc"
	KindEnvelope   = "envelope"
	KindReverb     = "reverb"
	KindGain       = "gain"
	KindDelay      = "delay"
)

const maxDelaySeconds = 2.0

// DefaultRegistry returns a registry with every built-in kernel module
// loaded. Hosts can register additional primitive operators alongside.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	registerArith(r)
	registerCrossfade(r)
	registerRotMix(r)
	registerFilter(r)
	registerOscillator(r)
	registerEnvelope(r)
	registerReverb(r)
	registerPrimitives(r)

	return r
}

func registerArith(r *Registry) {
	for _, name := range []string{
		"add", "sub", "mult", "div", "min", "max",
		"negate", "sin", "cos", "sindeg", "cosdeg",
	} {
		op, err := arith.ParseOp(name)
		if err != nil {
			continue
		}

		spec := Spec{
			Kind:    name,
			Inlets:  []string{"a", "b"},
			Outlets: []string{"out"},
		}
		if op.Unary() {
			spec.Inlets = []string{"a"}
		}

		r.MustRegister(name, func() (Module, error) {
			return Module{
				Spec: spec,
				New: func(Context) (Processor, error) {
					p, err := arith.New(op)
					if err != nil {
						return nil, err
					}

					return &arithProcessor{proc: p, unary: op.Unary()}, nil
				},
			}, nil
		})
	}
}

func registerCrossfade(r *Registry) {
	curves := map[string]xfade.Curve{
		KindCrossfade:         xfade.CurveConstantPower,
		"xfade:linear":        xfade.CurveLinear,
		"xfade:smoothstep":    xfade.CurveSmoothstep,
		"xfade:constantpower": xfade.CurveConstantPower,
	}

	for kind, curve := range curves {
		r.MustRegister(kind, func() (Module, error) {
			return Module{
				Spec: Spec{
					Kind:    kind,
					Inlets:  []string{"a", "b"},
					Outlets: []string{"out"},
					Params: []param.Spec{
						{Name: "mix", Min: 0, Max: 1, Default: 0.5, Rate: param.RateAudio},
					},
				},
				New: func(Context) (Processor, error) {
					c, err := xfade.New(curve)
					if err != nil {
						return nil, err
					}

					return &xfadeProcessor{fade: c}, nil
				},
			}, nil
		})
	}
}

func registerRotMix(r *Registry) {
	angleSpec := param.Spec{Name: "angle", Min: -2 * math.Pi, Max: 2 * math.Pi, Rate: param.RateControl}
	crossSpec := param.Spec{Name: "cross", Min: -2 * math.Pi, Max: 2 * math.Pi, Rate: param.RateControl}

	r.MustRegister(KindRotMix2, func() (Module, error) {
		return Module{
			Spec: Spec{
				Kind:    KindRotMix2,
				Inlets:  []string{"a", "b"},
				Outlets: []string{"x", "y"},
				Params:  []param.Spec{angleSpec},
			},
			New: func(ctx Context) (Processor, error) {
				m, err := rotmix.NewMixer2(ctx.SampleRate)
				if err != nil {
					return nil, err
				}

				return &rotmix2Processor{mixer: m}, nil
			},
		}, nil
	})

	r.MustRegister(KindRotMix4, func() (Module, error) {
		return Module{
			Spec: Spec{
				Kind:    KindRotMix4,
				Inlets:  []string{"in0", "in1", "in2", "in3"},
				Outlets: []string{"out0", "out1", "out2", "out3"},
				Params:  []param.Spec{angleSpec, crossSpec},
			},
			New: func(ctx Context) (Processor, error) {
				m, err := rotmix.NewMixer4(ctx.SampleRate)
				if err != nil {
					return nil, err
				}

				return &rotmix4Processor{mixer: m}, nil
			},
		}, nil
	})
}

func registerFilter(r *Registry) {
	r.MustRegister(KindFilter, func() (Module, error) {
		return Module{
			Spec: Spec{
				Kind:    KindFilter,
				Inlets:  []string{"in"},
				Outlets: []string{"low", "high", "band"},
				Params: []param.Spec{
					{Name: "cutoff", Min: 10, Max: 20000, Default: 1000, Rate: param.RateAudio, Scale: param.ScaleExponential},
					{Name: "resonance", Min: 1e-3, Max: 10, Default: 0.707, Rate: param.RateAudio},
				},
			},
			New: func(ctx Context) (Processor, error) {
				f, err := svf.New(ctx.SampleRate)
				if err != nil {
					return nil, err
				}

				return &svfProcessor{filter: f}, nil
			},
		}, nil
	})
}

func registerOscillator(r *Registry) {
	r.MustRegister(KindOscillator, func() (Module, error) {
		return Module{
			Spec: Spec{
				Kind:    KindOscillator,
				Outlets: []string{"out"},
				Params: []param.Spec{
					{Name: "frequency", Min: 0, Max: 20000, Default: 440, Rate: param.RateAudio, Scale: param.ScaleLinear},
					{Name: "feedback", Min: -1, Max: 1, Default: 0, Rate: param.RateAudio},
				},
			},
			New: func(ctx Context) (Processor, error) {
				o, err := fbosc.New(ctx.SampleRate)
				if err != nil {
					return nil, err
				}

				return &fboscProcessor{osc: o}, nil
			},
		}, nil
	})
}

func registerEnvelope(r *Registry) {
	for _, setName := range []string{"adsr", "ar", "asr", "ads"} {
		kind := KindEnvelope
		if setName != "adsr" {
			kind = KindEnvelope + ":" + setName
		}

		stageSet, err := envelope.ParseStageSet(setName)
		if err != nil {
			continue
		}

		r.MustRegister(kind, func() (Module, error) {
			return Module{
				Spec: Spec{
					Kind:    kind,
					Inlets:  []string{"gate"},
					Outlets: []string{"out"},
					Params: []param.Spec{
						{Name: "attack", Min: 1e-4, Max: 10, Default: 0.01, Rate: param.RateControl, Scale: param.ScaleExponential},
						{Name: "decay", Min: 1e-4, Max: 10, Default: 0.1, Rate: param.RateControl, Scale: param.ScaleExponential},
						{Name: "sustain", Min: 0, Max: 1, Default: 0.7, Rate: param.RateControl},
						{Name: "release", Min: 1e-4, Max: 10, Default: 0.3, Rate: param.RateControl, Scale: param.ScaleExponential},
						{Name: "shape", Min: 1e-3, Max: 4, Default: 0.5, Rate: param.RateControl},
					},
				},
				New: func(ctx Context) (Processor, error) {
					gen, err := envelope.New(ctx.SampleRate, stageSet)
					if err != nil {
						return nil, err
					}

					return &envelopeProcessor{gen: gen}, nil
				},
			}, nil
		})
	}
}

func registerReverb(r *Registry) {
	r.MustRegister(KindReverb, func() (Module, error) {
		return Module{
			Spec: Spec{
				Kind:    KindReverb,
				Inlets:  []string{"in"},
				Outlets: []string{"left", "right"},
				Params: []param.Spec{
					{Name: "decay", Min: 0, Max: 0.99, Default: 0.85, Rate: param.RateControl},
					{Name: "damp", Min: 0, Max: 0.99, Default: 0.3, Rate: param.RateControl},
					{Name: "modrate", Min: 0, Max: 10, Default: 0.35, Rate: param.RateControl},
					{Name: "moddepth", Min: 0, Max: 0.01, Default: 0.0015, Rate: param.RateControl},
					{Name: "rotation", Min: -2 * math.Pi, Max: 2 * math.Pi, Default: 0.79, Rate: param.RateControl},
					{Name: "cross", Min: -2 * math.Pi, Max: 2 * math.Pi, Default: 0.63, Rate: param.RateControl},
				},
			},
			New: func(ctx Context) (Processor, error) {
				rv, err := reverb.New(ctx.SampleRate)
				if err != nil {
					return nil, err
				}

				return &reverbProcessor{rev: rv}, nil
			},
		}, nil
	})
}

func registerPrimitives(r *Registry) {
	r.MustRegister(KindGain, func() (Module, error) {
		return Module{
			Spec: Spec{
				Kind:    KindGain,
				Inlets:  []string{"in"},
				Outlets: []string{"out"},
				Params: []param.Spec{
					{Name: "level", Min: 0, Max: 4, Default: 1, Rate: param.RateAudio},
				},
			},
			New: func(Context) (Processor, error) {
				return &gainProcessor{}, nil
			},
		}, nil
	})

	r.MustRegister(KindDelay, func() (Module, error) {
		return Module{
			Spec: Spec{
				Kind:    KindDelay,
				Inlets:  []string{"in"},
				Outlets: []string{"out"},
				Params: []param.Spec{
					{Name: "time", Min: 0, Max: maxDelaySeconds, Default: 0.25, Rate: param.RateAudio},
				},
			},
			New: func(ctx Context) (Processor, error) {
				size := int(math.Ceil(maxDelaySeconds*ctx.SampleRate)) + 4

				line, err := delay.New(size)
				if err != nil {
					return nil, err
				}

				return &delayProcessor{line: line, sampleRate: ctx.SampleRate}, nil
			},
		}, nil
	})
}
