package graph

import (
	"errors"
	"testing"
)

func testModule(kind string) Module {
	return Module{
		Spec: Spec{Kind: kind, Inlets: []string{"in"}, Outlets: []string{"out"}},
		New: func(Context) (Processor, error) {
			return busProcessor{}, nil
		},
	}
}

func TestRegistryRequestBeforeLoad(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	var order []int

	r.Request("svf", func(Module) { order = append(order, 1) })
	r.Request("svf", func(Module) { order = append(order, 2) })

	if len(order) != 0 {
		t.Fatalf("continuations fired before resolution: %v", order)
	}

	if got := r.State("svf"); got != StateUnregistered {
		t.Fatalf("State() = %v, want %v", got, StateUnregistered)
	}

	r.Begin("svf")

	if got := r.State("svf"); got != StateLoading {
		t.Fatalf("State() = %v, want %v", got, StateLoading)
	}

	err := r.Resolve("svf", testModule("svf"))
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("continuations fired out of order: %v", order)
	}
}

func TestRegistryRequestAfterLoadIsSynchronous(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.MustRegister("bus", func() (Module, error) { return testModule("bus"), nil })

	fired := false
	r.Request("bus", func(m Module) {
		fired = true

		if m.Spec.Kind != "bus" {
			t.Errorf("Kind = %q, want %q", m.Spec.Kind, "bus")
		}
	})

	if !fired {
		t.Fatal("continuation did not fire synchronously for a loaded module")
	}
}

func TestRegistryResolveTwice(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	if err := r.Resolve("dup", testModule("dup")); err != nil {
		t.Fatalf("first Resolve() error: %v", err)
	}

	err := r.Resolve("dup", testModule("dup"))
	if !errors.Is(err, ErrModuleLoaded) {
		t.Fatalf("second Resolve() error = %v, want ErrModuleLoaded", err)
	}
}

func TestRegistryResolveFiresExactlyOnce(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	count := 0
	r.Request("once", func(Module) { count++ })

	if err := r.Resolve("once", testModule("once")); err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	// A failed double resolve must not replay the continuations.
	_ = r.Resolve("once", testModule("once"))

	if count != 1 {
		t.Fatalf("continuation fired %d times, want 1", count)
	}
}

func TestRegistryLookup(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	if _, ok := r.Lookup("missing"); ok {
		t.Fatal("Lookup() found a module that was never registered")
	}

	r.Begin("loading")

	if _, ok := r.Lookup("loading"); ok {
		t.Fatal("Lookup() found a module that is still loading")
	}

	r.MustRegister("ready", func() (Module, error) { return testModule("ready"), nil })

	m, ok := r.Lookup("ready")
	if !ok || m.Spec.Kind != "ready" {
		t.Fatalf("Lookup() = %+v, %v; want loaded module", m.Spec, ok)
	}
}

func TestDefaultRegistryKinds(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()

	kinds := []string{
		"add", "sub", "mult", "div", "min", "max",
		"negate", "sin", "cos", "sindeg", "cosdeg",
		KindCrossfade, "xfade:linear", "xfade:smoothstep",
		KindRotMix2, KindRotMix4,
		KindFilter, KindOscillator, KindEnvelope, KindReverb,
		KindGain, KindDelay,
	}

	for _, kind := range kinds {
		if got := r.State(kind); got != StateLoaded {
			t.Errorf("State(%q) = %v, want %v", kind, got, StateLoaded)
		}
	}
}
