package arith

import (
	"errors"
	"fmt"
	"math"
)

const divisorEpsilon = 1e-5

// ErrUnknownOp is returned for an unrecognized operator name.
var ErrUnknownOp = errors.New("unknown arithmetic operator")

// Op selects the transfer function of a Processor.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMult
	OpDiv
	OpMin
	OpMax
	OpNegate
	OpSin
	OpCos
	OpSinDeg
	OpCosDeg
)

var opNames = map[string]Op{
	"add":    OpAdd,
	"sub":    OpSub,
	"mult":   OpMult,
	"div":    OpDiv,
	"min":    OpMin,
	"max":    OpMax,
	"negate": OpNegate,
	"sin":    OpSin,
	"cos":    OpCos,
	"sindeg": OpSinDeg,
	"cosdeg": OpCosDeg,
}

// ParseOp resolves an operator name.
func ParseOp(name string) (Op, error) {
	op, ok := opNames[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownOp, name)
	}

	return op, nil
}

func (o Op) String() string {
	for name, op := range opNames {
		if op == o {
			return name
		}
	}

	return "unknown"
}

// Unary reports whether the operator ignores its second input.
func (o Op) Unary() bool {
	switch o {
	case OpNegate, OpSin, OpCos, OpSinDeg, OpCosDeg:
		return true
	default:
		return false
	}
}

func valid(o Op) bool {
	return o >= OpAdd && o <= OpCosDeg
}

// Processor applies one operator sample by sample. Two accumulation inputs
// A and B feed the operator; unary operators read A only.
type Processor struct {
	op Op
}

// New creates a Processor for the given operator.
func New(op Op) (*Processor, error) {
	if !valid(op) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOp, op)
	}

	return &Processor{op: op}, nil
}

// NewNamed creates a Processor from an operator name.
func NewNamed(name string) (*Processor, error) {
	op, err := ParseOp(name)
	if err != nil {
		return nil, err
	}

	return New(op)
}

// Op returns the configured operator.
func (p *Processor) Op() Op { return p.op }

// ProcessSample applies the operator to one sample pair.
func (p *Processor) ProcessSample(a, b float64) float64 {
	switch p.op {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMult:
		return a * b
	case OpDiv:
		if math.Abs(b) < divisorEpsilon {
			return 0
		}

		return a / b
	case OpMin:
		return math.Min(a, b)
	case OpMax:
		return math.Max(a, b)
	case OpNegate:
		return -a
	case OpSin:
		return math.Sin(a)
	case OpCos:
		return math.Cos(a)
	case OpSinDeg:
		return math.Sin(a * math.Pi / 180)
	case OpCosDeg:
		return math.Cos(a * math.Pi / 180)
	default:
		return 0
	}
}

// ProcessBlock applies the operator element-wise. Inputs shorter than dst
// hold their last value, so k-rate and a-rate buffers mix transparently.
func (p *Processor) ProcessBlock(dst, a, b []float64) {
	for i := range dst {
		dst[i] = p.ProcessSample(sampleHeld(a, i), sampleHeld(b, i))
	}
}

func sampleHeld(buf []float64, i int) float64 {
	if len(buf) == 0 {
		return 0
	}

	if i < len(buf) {
		return buf[i]
	}

	return buf[len(buf)-1]
}
