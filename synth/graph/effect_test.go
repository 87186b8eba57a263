package graph

import (
	"errors"
	"math"
	"testing"
)

// buildGainEffect wires an effect whose wet path doubles the signal.
func buildGainEffect(t *testing.T, g *Graph) (*Effect, *Source) {
	t.Helper()

	wet, err := g.AddNode("double", KindGain)
	if err != nil {
		t.Fatalf("AddNode() error: %v", err)
	}

	level, err := wet.Param("level")
	if err != nil {
		t.Fatalf("Param() error: %v", err)
	}

	level.Set(2)

	fx, err := NewEffect(g, "fx", wet, wet)
	if err != nil {
		t.Fatalf("NewEffect() error: %v", err)
	}

	srcNode, src, err := g.AddSource("src")
	if err != nil {
		t.Fatalf("AddSource() error: %v", err)
	}

	if _, err := srcNode.Connect(fx.In(), 0, 0); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}

	return fx, src
}

func TestEffectMixEndpoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mix  float64
		want float64
	}{
		{name: "full dry", mix: 0, want: 1},
		{name: "full wet", mix: 1, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := newTestGraph(t)
			fx, src := buildGainEffect(t, g)

			block := make([]float64, g.Context().BlockSize)
			for i := range block {
				block[i] = 1
			}

			src.Write(block)

			if err := fx.SetMix(tt.mix); err != nil {
				t.Fatalf("SetMix() error: %v", err)
			}

			if err := g.Render(); err != nil {
				t.Fatalf("Render() error: %v", err)
			}

			out, err := g.OutletBlock(fx.Out(), 0)
			if err != nil {
				t.Fatalf("OutletBlock() error: %v", err)
			}

			for i, v := range out {
				if math.Abs(v-tt.want) > 1e-6 {
					t.Fatalf("out[%d] = %f, want %f", i, v, tt.want)
				}
			}
		})
	}
}

func TestEffectFailureLeavesGraphUnchanged(t *testing.T) {
	t.Parallel()

	// No crossfade module is registered, so NewEffect cannot finish.
	g, err := New(Context{SampleRate: 44100, BlockSize: 32}, NewRegistry())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	wet, err := g.AddBus("wet")
	if err != nil {
		t.Fatalf("AddBus() error: %v", err)
	}

	if _, err := NewEffect(g, "fx", wet, wet); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("NewEffect() error = %v, want ErrNotInitialized", err)
	}

	for _, name := range []string{"fx/in", "fx/mix"} {
		if _, err := g.Node(name); !errors.Is(err, ErrUnknownNode) {
			t.Errorf("Node(%q) after failed NewEffect() error = %v, want ErrUnknownNode", name, err)
		}
	}

	if len(g.edges) != 0 {
		t.Fatalf("graph has %d edges after failed NewEffect(), want 0", len(g.edges))
	}

	if err := g.Render(); err != nil {
		t.Fatalf("Render() after failed NewEffect() error: %v", err)
	}
}

func TestEffectMixClamps(t *testing.T) {
	t.Parallel()

	g := newTestGraph(t)
	fx, _ := buildGainEffect(t, g)

	if err := fx.SetMix(1.7); err != nil {
		t.Fatalf("SetMix() error: %v", err)
	}

	mix, err := fx.Mix()
	if err != nil {
		t.Fatalf("Mix() error: %v", err)
	}

	if mix != 1 {
		t.Fatalf("Mix() = %f, want 1", mix)
	}
}

func TestEffectWetPathAlwaysRenders(t *testing.T) {
	t.Parallel()

	g := newTestGraph(t)
	fx, src := buildGainEffect(t, g)

	block := make([]float64, g.Context().BlockSize)
	for i := range block {
		block[i] = 0.5
	}

	src.Write(block)

	if err := fx.SetMix(0); err != nil {
		t.Fatalf("SetMix() error: %v", err)
	}

	if err := g.Render(); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	// Even at full dry the wet node renders its block.
	wet, err := g.Node("double")
	if err != nil {
		t.Fatalf("Node() error: %v", err)
	}

	wetOut, err := g.OutletBlock(wet, 0)
	if err != nil {
		t.Fatalf("OutletBlock() error: %v", err)
	}

	if wetOut[0] != 1 {
		t.Fatalf("wet path output = %f, want 1", wetOut[0])
	}
}
