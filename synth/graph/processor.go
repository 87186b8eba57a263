package graph

import "github.com/cwbudde/algo-synth/synth/param"

// Context carries the fixed-cadence render settings handed to every
// processor.
type Context struct {
	SampleRate float64
	BlockSize  int
}

// Processor is the per-node render contract. Process consumes exactly one
// block: in holds one buffer per inlet, out one buffer per outlet, and
// params one buffer per declared parameter in declaration order. Parameter
// buffers are a-rate (BlockSize values) when a signal modulates the
// parameter and k-rate (one value) otherwise.
//
// Process runs inside the render callback: it must not block, allocate
// unboundedly, or panic.
type Processor interface {
	Process(in, out, params [][]float64)
}

// Spec declares a node kind's port and parameter surface.
type Spec struct {
	Kind    string
	Inlets  []string
	Outlets []string
	Params  []param.Spec
}

// Module pairs a kind's spec with its processor constructor.
type Module struct {
	Spec Spec
	New  func(ctx Context) (Processor, error)
}
