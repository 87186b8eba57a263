package envelope

import (
	"math"
	"testing"
)

const testSampleRate = 48000.0

func newADSR(t *testing.T) *Generator {
	t.Helper()

	g, err := New(testSampleRate, StageSetADSR)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return g
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	if _, err := New(0, StageSetADSR); err == nil {
		t.Error("expected error for zero sample rate")
	}

	if _, err := New(testSampleRate, StageSet(9)); err == nil {
		t.Error("expected error for invalid stage set")
	}
}

func TestParseStageSet(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]StageSet{
		"adsr": StageSetADSR,
		"ar":   StageSetAR,
		"asr":  StageSetASR,
		"ads":  StageSetADS,
	} {
		got, err := ParseStageSet(name)
		if err != nil {
			t.Errorf("ParseStageSet(%s) error = %v", name, err)
		}

		if got != want {
			t.Errorf("ParseStageSet(%s) = %v, want %v", name, got, want)
		}
	}

	if _, err := ParseStageSet("adsrr"); err == nil {
		t.Error("expected error for unknown stage set")
	}
}

func TestRisingEdgeEntersAttackMonotonically(t *testing.T) {
	t.Parallel()

	g := newADSR(t)

	const (
		attack  = 0.01
		decay   = 0.05
		sustain = 0.5
		release = 0.05
		shape   = 0.5
	)

	g.ProcessSample(1, attack, decay, sustain, release, shape)

	if g.Stage() != StageAttack {
		t.Fatalf("stage after rising edge = %v, want attack", g.Stage())
	}

	prev := g.Value()
	for g.Stage() == StageAttack {
		out := g.ProcessSample(1, attack, decay, sustain, release, shape)
		if out < prev {
			t.Fatalf("attack not monotonic: %v after %v", out, prev)
		}

		if out > 1+shape {
			t.Fatalf("attack overshot target: %v", out)
		}

		prev = out
	}

	// Attack hands over to decay at the completion threshold.
	if g.Stage() != StageDecay {
		t.Errorf("stage after attack = %v, want decay", g.Stage())
	}

	if math.Abs(prev-1) > 1e-9 {
		t.Errorf("attack completed at %v, want 1", prev)
	}
}

func TestDecayReachesSustain(t *testing.T) {
	t.Parallel()

	g := newADSR(t)

	const (
		attack  = 0.001
		decay   = 0.01
		sustain = 0.4
		release = 0.05
		shape   = 0.5
	)

	for range int(testSampleRate) {
		g.ProcessSample(1, attack, decay, sustain, release, shape)
		if g.Stage() == StageSustain {
			break
		}
	}

	if g.Stage() != StageSustain {
		t.Fatalf("never reached sustain, stage = %v", g.Stage())
	}

	if g.Value() != sustain {
		t.Errorf("sustain value = %v, want %v", g.Value(), sustain)
	}
}

func TestFallingEdgeReleasesToZero(t *testing.T) {
	t.Parallel()

	g := newADSR(t)

	const (
		attack  = 0.002
		decay   = 0.01
		sustain = 0.6
		release = 0.01
		shape   = 0.5
	)

	// Hold the gate well into sustain.
	for range 4800 {
		g.ProcessSample(1, attack, decay, sustain, release, shape)
	}

	out := g.ProcessSample(0, attack, decay, sustain, release, shape)

	if g.Stage() != StageRelease {
		t.Fatalf("stage after falling edge = %v, want release", g.Stage())
	}

	prev := out
	for g.Stage() == StageRelease {
		out = g.ProcessSample(0, attack, decay, sustain, release, shape)
		if out > prev {
			t.Fatalf("release not monotonic: %v after %v", out, prev)
		}

		prev = out
	}

	if g.Stage() != StageIdle {
		t.Fatalf("stage after release = %v, want idle", g.Stage())
	}

	if g.Value() != 0 {
		t.Errorf("idle output = %v, want exactly 0", g.Value())
	}
}

func TestFallingEdgeDuringAttackReleasesFromCurrentValue(t *testing.T) {
	t.Parallel()

	g := newADSR(t)

	const (
		attack  = 0.1
		decay   = 0.05
		sustain = 0.5
		release = 0.05
		shape   = 0.5
	)

	// Interrupt a slow attack halfway.
	for range 1000 {
		g.ProcessSample(1, attack, decay, sustain, release, shape)
	}

	mid := g.Value()
	if mid <= 0 || mid >= 1 {
		t.Fatalf("attack value = %v, want mid-rise", mid)
	}

	out := g.ProcessSample(0, attack, decay, sustain, release, shape)

	if g.Stage() != StageRelease {
		t.Fatalf("stage = %v, want release", g.Stage())
	}

	if out > mid {
		t.Errorf("release start %v exceeds interrupted value %v", out, mid)
	}
}

func TestLegatoRetriggerKeepsCurrentValue(t *testing.T) {
	t.Parallel()

	g := newADSR(t)

	const (
		attack  = 0.005
		decay   = 0.02
		sustain = 0.7
		release = 0.2
		shape   = 0.5
	)

	// Reach sustain, release briefly, then retrigger.
	for range 4800 {
		g.ProcessSample(1, attack, decay, sustain, release, shape)
	}

	for range 100 {
		g.ProcessSample(0, attack, decay, sustain, release, shape)
	}

	beforeRetrigger := g.Value()
	if beforeRetrigger <= 0 {
		t.Fatalf("release value = %v, want > 0", beforeRetrigger)
	}

	out := g.ProcessSample(1, attack, decay, sustain, release, shape)

	if g.Stage() != StageAttack {
		t.Fatalf("stage after retrigger = %v, want attack", g.Stage())
	}

	if out < beforeRetrigger {
		t.Errorf("retrigger dropped value: %v < %v", out, beforeRetrigger)
	}
}

func TestARSkipsSustain(t *testing.T) {
	t.Parallel()

	g, err := New(testSampleRate, StageSetAR)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const (
		attack  = 0.001
		release = 0.01
		shape   = 0.5
	)

	sawRelease := false
	for range int(testSampleRate) {
		g.ProcessSample(1, attack, 0, 0, release, shape)

		if g.Stage() == StageSustain || g.Stage() == StageDecay {
			t.Fatalf("AR entered %v", g.Stage())
		}

		if g.Stage() == StageRelease {
			sawRelease = true
		}

		if g.Stage() == StageIdle {
			break
		}
	}

	if !sawRelease {
		t.Error("AR never entered release")
	}
}

func TestADSFallingEdgeGoesIdle(t *testing.T) {
	t.Parallel()

	g, err := New(testSampleRate, StageSetADS)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for range 4800 {
		g.ProcessSample(1, 0.001, 0.005, 0.5, 0.01, 0.5)
	}

	out := g.ProcessSample(0, 0.001, 0.005, 0.5, 0.01, 0.5)

	if g.Stage() != StageIdle {
		t.Fatalf("ADS stage after falling edge = %v, want idle", g.Stage())
	}

	if out != 0 {
		t.Errorf("ADS idle output = %v, want 0", out)
	}
}

func TestProcessBlockKRateParams(t *testing.T) {
	t.Parallel()

	g := newADSR(t)

	const blockSize = 128

	dst := make([]float64, blockSize)
	gate := make([]float64, blockSize)

	for i := range gate {
		gate[i] = 1
	}

	g.ProcessBlock(dst, gate,
		[]float64{0.001}, []float64{0.01}, []float64{0.5}, []float64{0.01}, []float64{0.5})

	if dst[blockSize-1] <= dst[0] {
		t.Errorf("envelope did not rise across block: first=%v last=%v", dst[0], dst[blockSize-1])
	}
}
