package graph

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-synth/synth/param"
)

// Lifecycle is a node's position in construct → pending-init → initialized.
type Lifecycle int

const (
	// LifecycleConstructed means the node exists but has not requested its
	// module yet.
	LifecycleConstructed Lifecycle = iota
	// LifecyclePendingInit means the node is waiting for its module to
	// load; it renders silence until then.
	LifecyclePendingInit
	// LifecycleInitialized means the processor is wired and rendering.
	LifecycleInitialized
)

func (l Lifecycle) String() string {
	switch l {
	case LifecycleConstructed:
		return "constructed"
	case LifecyclePendingInit:
		return "pending-init"
	case LifecycleInitialized:
		return "initialized"
	default:
		return "unknown"
	}
}

var (
	// ErrNoOutlet is returned when connecting from a node without outlets.
	ErrNoOutlet = errors.New("node has no outlet")
	// ErrPortRange is returned for an out-of-range port index.
	ErrPortRange = errors.New("port index out of range")
	// ErrNotInitialized is returned when a node's port or parameter surface
	// is accessed before its deferred initialization completes; guard such
	// access with OnInit.
	ErrNotInitialized = errors.New("node not initialized")
	// ErrCycle is returned when a connection would close a feedback loop in
	// the control graph. Feedback belongs inside kernels, not between nodes.
	ErrCycle = errors.New("connection would create a cycle")
)

// edge is one wiring from a source outlet to either a target inlet or a
// target parameter (additive modulation).
type edge struct {
	from     *Node
	fromPort int
	to       *Node
	toPort   int
	isParam  bool
}

type tapRef struct {
	id      int
	outPort int
	fn      TapFunc
}

// TapFunc observes one rendered outlet block. The slice is owned by the
// render plane: taps must treat it as read-only and return promptly.
type TapFunc func(block []float64)

// Node is one processing unit in a graph: a kind, named ports, a parameter
// set, and a lifecycle.
type Node struct {
	graph *Graph
	name  string
	kind  string
	state Lifecycle

	spec    Spec
	proc    Processor
	params  *param.Set
	initErr error

	onInit []func()
	taps   []tapRef

	inBufs     [][]float64
	outBufs    [][]float64
	paramBufs  [][]float64 // block-length scratch, used when modulated
	paramK     [][]float64 // single-value views, used otherwise
	paramArgs  [][]float64 // buffers handed to Process this block
	modScratch []bool
}

// Name returns the node's unique name within its graph.
func (n *Node) Name() string { return n.name }

// Kind returns the module kind the node was created from.
func (n *Node) Kind() string { return n.kind }

// State returns the lifecycle state.
func (n *Node) State() Lifecycle { return n.state }

// InitErr returns the processor construction error, if any. A node whose
// module failed to construct stays a silent stand-in.
func (n *Node) InitErr() error { return n.initErr }

// OnInit registers a single-shot continuation for initialization. If the
// node is already initialized the continuation runs synchronously.
func (n *Node) OnInit(fn func()) {
	if fn == nil {
		return
	}

	if n.state == LifecycleInitialized {
		fn()
		return
	}

	n.onInit = append(n.onInit, fn)
}

// Param returns the named control parameter. Parameters only exist once the
// node is initialized.
func (n *Node) Param(name string) (*param.Parameter, error) {
	if n.state != LifecycleInitialized {
		return nil, fmt.Errorf("%w: %s", ErrNotInitialized, n.name)
	}

	return n.params.Get(name)
}

// Inlets returns the declared inlet names, or nil before initialization.
func (n *Node) Inlets() []string { return n.spec.Inlets }

// Outlets returns the declared outlet names, or nil before initialization.
func (n *Node) Outlets() []string { return n.spec.Outlets }

// Connect wires outlet outIndex of this node into inlet inIndex of target
// and returns target, enabling chained wiring. Multiple connections into
// one inlet sum. The connection is rejected, leaving the graph unchanged,
// if either node is uninitialized, a port is out of range, this node has no
// outlets, or the edge would close a cycle.
func (n *Node) Connect(target *Node, outIndex, inIndex int) (*Node, error) {
	if target == nil {
		return nil, errors.New("nil connection target")
	}

	err := n.checkOutlet(outIndex)
	if err != nil {
		return nil, err
	}

	if target.state != LifecycleInitialized {
		return nil, fmt.Errorf("%w: %s", ErrNotInitialized, target.name)
	}

	if inIndex < 0 || inIndex >= len(target.spec.Inlets) {
		return nil, fmt.Errorf("%w: inlet %d of %s", ErrPortRange, inIndex, target.name)
	}

	err = n.graph.addEdge(edge{from: n, fromPort: outIndex, to: target, toPort: inIndex})
	if err != nil {
		return nil, err
	}

	return target, nil
}

// ConnectParam wires outlet outIndex additively into the named control
// parameter of target: each rendered sample adds onto the parameter's
// automated value. It returns this node, so a source can fan out to several
// parameters in one chain.
func (n *Node) ConnectParam(target *Node, paramName string, outIndex int) (*Node, error) {
	if target == nil {
		return nil, errors.New("nil connection target")
	}

	err := n.checkOutlet(outIndex)
	if err != nil {
		return nil, err
	}

	if target.state != LifecycleInitialized {
		return nil, fmt.Errorf("%w: %s", ErrNotInitialized, target.name)
	}

	idx := target.params.Index(paramName)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s.%s", param.ErrUnknownParam, target.name, paramName)
	}

	err = n.graph.addEdge(edge{from: n, fromPort: outIndex, to: target, toPort: idx, isParam: true})
	if err != nil {
		return nil, err
	}

	return n, nil
}

func (n *Node) checkOutlet(outIndex int) error {
	if n.state != LifecycleInitialized {
		return fmt.Errorf("%w: %s", ErrNotInitialized, n.name)
	}

	if len(n.spec.Outlets) == 0 {
		return fmt.Errorf("%w: %s", ErrNoOutlet, n.name)
	}

	if outIndex < 0 || outIndex >= len(n.spec.Outlets) {
		return fmt.Errorf("%w: outlet %d of %s", ErrPortRange, outIndex, n.name)
	}

	return nil
}

// Disconnect removes every outgoing edge to target. A nil target removes
// all outgoing edges.
func (n *Node) Disconnect(target *Node) {
	n.graph.removeEdges(n, target)
}

// finishInit wires the resolved module into the node, allocates render
// buffers, and fires the queued init continuations exactly once.
func (n *Node) finishInit(m Module) {
	blockSize := n.graph.ctx.BlockSize

	proc, err := m.New(n.graph.ctx)
	if err != nil {
		n.initErr = fmt.Errorf("construct %q (%s): %w", n.name, n.kind, err)
		proc = nil
	}

	set, err := param.NewSet(m.Spec.Params...)
	if err != nil {
		n.initErr = fmt.Errorf("declare params of %q (%s): %w", n.name, n.kind, err)
		proc = nil
		set, _ = param.NewSet()
	}

	n.spec = m.Spec
	n.proc = proc
	n.params = set

	n.inBufs = makeBuffers(len(m.Spec.Inlets), blockSize)
	n.outBufs = makeBuffers(len(m.Spec.Outlets), blockSize)
	n.paramBufs = makeBuffers(set.Len(), blockSize)
	n.paramK = makeBuffers(set.Len(), 1)
	n.paramArgs = make([][]float64, set.Len())

	n.state = LifecycleInitialized
	n.graph.markDirty()

	pending := n.onInit
	n.onInit = nil

	for _, fn := range pending {
		fn()
	}
}

func makeBuffers(count, size int) [][]float64 {
	bufs := make([][]float64, count)
	for i := range bufs {
		bufs[i] = make([]float64, size)
	}

	return bufs
}
