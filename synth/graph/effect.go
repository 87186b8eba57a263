package graph

import (
	"fmt"

	"github.com/cwbudde/algo-synth/synth/core"
)

// Effect composes a dry path and a wet subgraph behind a crossfade kernel
// with a single mix parameter in [0, 1]. Both paths render every block
// regardless of the mix value; mix only blends, it never bypasses, so
// feedback and modulation state inside the wet subgraph stays warm across
// control changes.
type Effect struct {
	input *Node
	fade  *Node
}

// NewEffect wires an effect around the wet subgraph spanning wetIn to
// wetOut. The crossfade module (kind "xfade") must be loaded in the graph's
// registry.
func NewEffect(g *Graph, name string, wetIn, wetOut *Node) (*Effect, error) {
	if wetIn == nil || wetOut == nil {
		return nil, fmt.Errorf("effect %q needs wet in and out nodes", name)
	}

	input, err := g.AddBus(name + "/in")
	if err != nil {
		return nil, err
	}

	fade, err := g.AddNode(name+"/mix", KindCrossfade)
	if err != nil {
		_ = g.Remove(input.Name())
		return nil, err
	}

	// Any failure from here on removes both added nodes, leaving the graph
	// as it was before the call.
	fail := func(err error) (*Effect, error) {
		_ = g.Remove(input.Name())
		_ = g.Remove(fade.Name())

		return nil, err
	}

	if fade.State() != LifecycleInitialized {
		return fail(fmt.Errorf("%w: crossfade module for effect %q", ErrNotInitialized, name))
	}

	if _, err := input.Connect(fade, 0, 0); err != nil {
		return fail(err)
	}

	if _, err := input.Connect(wetIn, 0, 0); err != nil {
		return fail(err)
	}

	if _, err := wetOut.Connect(fade, 0, 1); err != nil {
		return fail(err)
	}

	return &Effect{input: input, fade: fade}, nil
}

// In returns the node feeding both the dry path and the wet subgraph.
func (e *Effect) In() *Node { return e.input }

// Out returns the blended output node.
func (e *Effect) Out() *Node { return e.fade }

// SetMix sets the dry/wet blend in [0, 1]; out-of-range values clamp.
func (e *Effect) SetMix(v float64) error {
	p, err := e.fade.Param("mix")
	if err != nil {
		return err
	}

	p.Set(core.ClampUnit(v))

	return nil
}

// Mix returns the current blend value.
func (e *Effect) Mix() (float64, error) {
	p, err := e.fade.Param("mix")
	if err != nil {
		return 0, err
	}

	return p.Value(), nil
}
