package envelope

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/synth/core"
	"github.com/cwbudde/algo-synth/synth/param"
)

// Stage is the envelope state machine position.
type Stage int

const (
	StageIdle Stage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	default:
		return "unknown"
	}
}

// StageSet selects which stages the generator runs through.
type StageSet int

const (
	// StageSetADSR is the full attack-decay-sustain-release envelope.
	StageSetADSR StageSet = iota
	// StageSetAR runs attack then release with no sustain plateau.
	StageSetAR
	// StageSetASR skips the decay stage.
	StageSetASR
	// StageSetADS has no release stage; a falling gate returns to idle.
	StageSetADS
)

func (s StageSet) String() string {
	switch s {
	case StageSetADSR:
		return "adsr"
	case StageSetAR:
		return "ar"
	case StageSetASR:
		return "asr"
	case StageSetADS:
		return "ads"
	default:
		return "unknown"
	}
}

// ParseStageSet resolves a stage-set name.
func ParseStageSet(name string) (StageSet, error) {
	switch name {
	case "adsr":
		return StageSetADSR, nil
	case "ar":
		return StageSetAR, nil
	case "asr":
		return StageSetASR, nil
	case "ads":
		return StageSetADS, nil
	default:
		return 0, fmt.Errorf("unknown envelope stage set: %s", name)
	}
}

func validStageSet(s StageSet) bool {
	return s >= StageSetADSR && s <= StageSetADS
}

const (
	gateThreshold  = 0.5
	completeEps    = 1e-3
	minShape       = 1e-3
	maxShape       = 4.0
	minDurationSec = 1e-4
)

// Generator is the envelope kernel.
type Generator struct {
	sampleRate float64
	stageSet   StageSet

	stage    Stage
	value    float64
	prevGate bool
}

// New creates a Generator for the given sample rate and stage set.
func New(sampleRate float64, stageSet StageSet) (*Generator, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("envelope sample rate must be > 0: %f", sampleRate)
	}

	if !validStageSet(stageSet) {
		return nil, fmt.Errorf("invalid envelope stage set: %d", stageSet)
	}

	return &Generator{sampleRate: sampleRate, stageSet: stageSet}, nil
}

// Stage returns the current state machine position.
func (g *Generator) Stage() Stage { return g.stage }

// Value returns the current output value.
func (g *Generator) Value() float64 { return g.value }

// StageSet returns the configured stage set.
func (g *Generator) StageSet() StageSet { return g.stageSet }

// Reset forces the generator to idle with zero output.
func (g *Generator) Reset() {
	g.stage = StageIdle
	g.value = 0
	g.prevGate = false
}

// hasRelease reports whether the configured set includes a release stage.
func (g *Generator) hasRelease() bool {
	return g.stageSet != StageSetADS
}

// hasDecay reports whether the configured set includes a decay stage.
func (g *Generator) hasDecay() bool {
	return g.stageSet == StageSetADSR || g.stageSet == StageSetADS
}

// hasSustain reports whether the configured set holds a sustain plateau.
func (g *Generator) hasSustain() bool {
	return g.stageSet != StageSetAR
}

// ProcessSample advances the envelope by one sample. gate is the 0/1 gate
// signal; attack, decay, and release are stage durations in seconds;
// sustain is the hold level in [0,1]; shape controls the exponential knee.
func (g *Generator) ProcessSample(gate, attack, decay, sustain, release, shape float64) float64 {
	gateHigh := core.Sanitize(gate, 0) >= gateThreshold

	if gateHigh && !g.prevGate {
		// Retrigger from the current value, never from zero.
		g.stage = StageAttack
	}

	if !gateHigh && g.prevGate && g.stage != StageIdle {
		if g.hasRelease() {
			g.stage = StageRelease
		} else {
			g.stage = StageIdle
		}
	}

	g.prevGate = gateHigh

	shape = core.Clamp(core.Sanitize(shape, minShape), minShape, maxShape)
	sustain = core.ClampUnit(core.Sanitize(sustain, 0))

	switch g.stage {
	case StageAttack:
		g.value = core.Lerp(g.value, 1+shape, g.coefficient(attack, shape))
		if g.value >= 1 {
			g.value = 1
			g.advanceFromAttack()
		}

	case StageDecay:
		g.value = core.Lerp(g.value, sustain-shape, g.coefficient(decay, shape))
		if g.value <= sustain+completeEps {
			g.value = sustain
			g.stage = StageSustain
		}

	case StageSustain:
		g.value = sustain

	case StageRelease:
		g.value = core.Lerp(g.value, -shape, g.coefficient(release, shape))
		if g.value < completeEps {
			g.stage = StageIdle
		}

	case StageIdle:
	}

	if g.stage == StageIdle {
		g.value = 0
	}

	return g.value
}

func (g *Generator) advanceFromAttack() {
	switch {
	case g.hasDecay():
		g.stage = StageDecay
	case g.hasSustain():
		g.stage = StageSustain
	default:
		g.stage = StageRelease
	}
}

// coefficient derives the per-sample exponential approach factor for a stage
// of the given duration. A larger shape pushes the target further past the
// completion threshold, hardening the knee.
func (g *Generator) coefficient(durationSec, shape float64) float64 {
	durationSec = math.Max(core.Sanitize(durationSec, minDurationSec), minDurationSec)
	durationSamples := durationSec * g.sampleRate

	return 1 - math.Exp(-math.Log((1+shape)/shape)/durationSamples)
}

// ProcessBlock renders a block of envelope values. gate may be a-rate; the
// remaining parameters are typically k-rate.
func (g *Generator) ProcessBlock(dst, gate, attack, decay, sustain, release, shape []float64) {
	for i := range dst {
		dst[i] = g.ProcessSample(
			param.Sample(gate, i),
			param.Sample(attack, i),
			param.Sample(decay, i),
			param.Sample(sustain, i),
			param.Sample(release, i),
			param.Sample(shape, i),
		)
	}
}
