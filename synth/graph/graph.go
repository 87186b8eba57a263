package graph

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-synth/synth/core"
	"github.com/cwbudde/algo-synth/synth/param"
)

var (
	// ErrDuplicateNode is returned when a node name is already taken.
	ErrDuplicateNode = errors.New("duplicate node name")
	// ErrUnknownNode is returned for lookups of names never added.
	ErrUnknownNode = errors.New("unknown node")
)

// Graph owns a set of nodes, their wiring, and the render traversal order.
// All mutation happens on the control plane; Render runs on the render
// plane and must not race with mutation.
type Graph struct {
	ctx      Context
	registry *Registry

	nodes map[string]*Node
	edges []edge

	order    []*Node
	incoming map[*Node][]edge
	dirty    bool

	nextTapID int
}

// New creates an empty graph bound to a registry.
func New(ctx Context, registry *Registry) (*Graph, error) {
	if ctx.SampleRate <= 0 {
		return nil, fmt.Errorf("graph sample rate must be > 0: %f", ctx.SampleRate)
	}

	if ctx.BlockSize <= 0 {
		return nil, fmt.Errorf("graph block size must be > 0: %d", ctx.BlockSize)
	}

	if registry == nil {
		return nil, errors.New("nil registry")
	}

	return &Graph{
		ctx:      ctx,
		registry: registry,
		nodes:    make(map[string]*Node),
		incoming: make(map[*Node][]edge),
	}, nil
}

// Context returns the render settings the graph was created with.
func (g *Graph) Context() Context { return g.ctx }

// AddNode creates a node of the given module kind. If the module is already
// loaded, the node returns initialized; otherwise it stays pending-init and
// renders silence until the module resolves, at which point its init
// continuations fire.
func (g *Graph) AddNode(name, kind string) (*Node, error) {
	if name == "" {
		return nil, errors.New("empty node name")
	}

	if _, exists := g.nodes[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, name)
	}

	n := &Node{graph: g, name: name, kind: kind, state: LifecyclePendingInit}
	g.nodes[name] = n
	g.markDirty()

	g.registry.Request(kind, func(m Module) {
		n.finishInit(m)
	})

	return n, nil
}

// Node returns the named node.
func (g *Graph) Node(name string) (*Node, error) {
	n, ok := g.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, name)
	}

	return n, nil
}

// Remove deletes a node and every edge touching it.
func (g *Graph) Remove(name string) error {
	n, ok := g.nodes[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, name)
	}

	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.from != n && e.to != n {
			kept = append(kept, e)
		}
	}

	g.edges = kept

	delete(g.nodes, name)
	g.markDirty()

	return nil
}

// AddSource creates a structural entry node whose single outlet carries the
// block most recently written by the control plane.
func (g *Graph) AddSource(name string) (*Node, *Source, error) {
	src := &Source{buf: make([]float64, g.ctx.BlockSize)}

	n, err := g.addStructural(name, "source", Module{
		Spec: Spec{Kind: "source", Outlets: []string{"out"}},
		New: func(Context) (Processor, error) {
			return src, nil
		},
	})
	if err != nil {
		return nil, nil, err
	}

	return n, src, nil
}

// AddBus creates a structural pass-through node: its inlet sums every
// incoming connection and its outlet repeats the sum. Buses anchor fan-out
// points such as an effect's dry path.
func (g *Graph) AddBus(name string) (*Node, error) {
	return g.addStructural(name, "bus", Module{
		Spec: Spec{Kind: "bus", Inlets: []string{"in"}, Outlets: []string{"out"}},
		New: func(Context) (Processor, error) {
			return busProcessor{}, nil
		},
	})
}

func (g *Graph) addStructural(name, kind string, m Module) (*Node, error) {
	if name == "" {
		return nil, errors.New("empty node name")
	}

	if _, exists := g.nodes[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, name)
	}

	n := &Node{graph: g, name: name, kind: kind, state: LifecyclePendingInit}
	g.nodes[name] = n
	n.finishInit(m)

	return n, nil
}

// Tap attaches a read-only observer to outlet outIndex of node; it fires
// after the node renders each block. The returned cancel function detaches
// it.
func (g *Graph) Tap(n *Node, outIndex int, fn TapFunc) (func(), error) {
	if n == nil || fn == nil {
		return nil, errors.New("tap requires a node and a func")
	}

	if n.state != LifecycleInitialized {
		return nil, fmt.Errorf("%w: %s", ErrNotInitialized, n.name)
	}

	if outIndex < 0 || outIndex >= len(n.outBufs) {
		return nil, fmt.Errorf("%w: outlet %d of %s", ErrPortRange, outIndex, n.name)
	}

	g.nextTapID++
	id := g.nextTapID

	n.taps = append(n.taps, tapRef{id: id, outPort: outIndex, fn: fn})

	return func() {
		for i, t := range n.taps {
			if t.id == id {
				n.taps = append(n.taps[:i], n.taps[i+1:]...)
				return
			}
		}
	}, nil
}

// OutletBlock returns the block rendered on outlet outIndex of node during
// the most recent Render call. The slice is owned by the render plane.
func (g *Graph) OutletBlock(n *Node, outIndex int) ([]float64, error) {
	if n == nil || n.state != LifecycleInitialized {
		return nil, ErrNotInitialized
	}

	if outIndex < 0 || outIndex >= len(n.outBufs) {
		return nil, fmt.Errorf("%w: outlet %d", ErrPortRange, outIndex)
	}

	return n.outBufs[outIndex], nil
}

// Render pulls one block through every node in topological order.
// Uninitialized nodes render silence.
func (g *Graph) Render() error {
	if g.dirty {
		err := g.compile()
		if err != nil {
			return err
		}
	}

	for _, n := range g.order {
		g.renderNode(n)
	}

	return nil
}

func (g *Graph) renderNode(n *Node) {
	if n.state != LifecycleInitialized || n.proc == nil {
		for _, buf := range n.outBufs {
			core.Zero(buf)
		}

		return
	}

	for _, buf := range n.inBufs {
		core.Zero(buf)
	}

	// Param buffers start from the automated value; signal edges then add
	// per sample.
	modulated := g.fillParams(n)

	for _, e := range g.incoming[n] {
		src := e.from.outBufs[e.fromPort]

		if !e.isParam {
			addInto(n.inBufs[e.toPort], src)
			continue
		}

		addInto(n.paramBufs[e.toPort], src)
	}

	for i := range n.paramArgs {
		if modulated[i] {
			n.paramArgs[i] = n.paramBufs[i]
		} else {
			n.paramArgs[i] = n.paramK[i]
		}
	}

	n.proc.Process(n.inBufs, n.outBufs, n.paramArgs)

	for _, t := range n.taps {
		t.fn(n.outBufs[t.outPort])
	}
}

// fillParams seeds each parameter buffer for this block and reports which
// parameters carry signal modulation (and therefore need a-rate buffers).
func (g *Graph) fillParams(n *Node) []bool {
	names := n.params.Names()
	modulated := paramModulationScratch(n)

	for i, name := range names {
		p, err := n.params.Get(name)
		if err != nil {
			continue
		}

		if !modulated[i] {
			n.paramK[i][0] = p.Value()
			continue
		}

		v := p.Value()
		for j := range n.paramBufs[i] {
			n.paramBufs[i][j] = v
		}
	}

	return modulated
}

// paramModulationScratch marks parameter indices targeted by signal edges.
func paramModulationScratch(n *Node) []bool {
	if cap(n.modScratch) < n.params.Len() {
		n.modScratch = make([]bool, n.params.Len())
	}

	mod := n.modScratch[:n.params.Len()]
	for i := range mod {
		mod[i] = false
	}

	for _, e := range n.graph.incoming[n] {
		if e.isParam {
			mod[e.toPort] = true
		}
	}

	return mod
}

func addInto(dst, src []float64) {
	for i := range dst {
		dst[i] += param.Sample(src, i)
	}
}

func (g *Graph) markDirty() { g.dirty = true }

func (g *Graph) addEdge(e edge) error {
	g.edges = append(g.edges, e)
	g.markDirty()

	err := g.compile()
	if err != nil {
		g.edges = g.edges[:len(g.edges)-1]
		g.markDirty()

		return err
	}

	return nil
}

func (g *Graph) removeEdges(from, to *Node) {
	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.from == from && (to == nil || e.to == to) {
			continue
		}

		kept = append(kept, e)
	}

	g.edges = kept
	g.markDirty()
}

// compile rebuilds the incoming-edge index and the topological traversal
// order (Kahn's algorithm).
func (g *Graph) compile() error {
	incoming := make(map[*Node][]edge, len(g.nodes))
	outgoing := make(map[*Node][]edge, len(g.nodes))
	indegree := make(map[*Node]int, len(g.nodes))

	for _, n := range g.nodes {
		indegree[n] = 0
	}

	for _, e := range g.edges {
		incoming[e.to] = append(incoming[e.to], e)
		outgoing[e.from] = append(outgoing[e.from], e)
		indegree[e.to]++
	}

	queue := make([]*Node, 0, len(g.nodes))

	for _, n := range g.nodes {
		if indegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	order := make([]*Node, 0, len(g.nodes))

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		order = append(order, n)

		for _, e := range outgoing[n] {
			indegree[e.to]--
			if indegree[e.to] == 0 {
				queue = append(queue, e.to)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return ErrCycle
	}

	g.order = order
	g.incoming = incoming
	g.dirty = false

	return nil
}

// Source feeds the control plane's audio into a graph. Write and Render
// must not race; write between blocks.
type Source struct {
	buf []float64
}

// Write copies block into the source; short blocks leave the remainder of
// the previous contents in place, so write full blocks.
func (s *Source) Write(block []float64) {
	copy(s.buf, block)
}

// Process implements Processor.
func (s *Source) Process(_, out, _ [][]float64) {
	copy(out[0], s.buf)
}

type busProcessor struct{}

func (busProcessor) Process(in, out, _ [][]float64) {
	copy(out[0], in[0])
}
