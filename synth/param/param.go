package param

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/synth/core"
)

// Rate selects the automation granularity of a parameter.
type Rate int

const (
	// RateControl parameters carry one value per render block.
	RateControl Rate = iota
	// RateAudio parameters carry one value per sample frame.
	RateAudio
)

func (r Rate) String() string {
	switch r {
	case RateControl:
		return "control"
	case RateAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// Scale selects how a normalized [0,1] write maps onto [Min, Max].
type Scale int

const (
	// ScaleLinear maps normalized values linearly.
	ScaleLinear Scale = iota
	// ScaleExponential maps normalized values exponentially; it requires a
	// strictly positive range and suits frequency and time parameters.
	ScaleExponential
)

// Spec declares one control parameter: its name, range, default value,
// automation rate, and normalized-write mapping.
type Spec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
	Rate    Rate
	Scale   Scale
}

var (
	errEmptyParamName = errors.New("empty parameter name")
	errDuplicateParam = errors.New("duplicate parameter")
	// ErrUnknownParam is returned when a parameter name is not declared.
	ErrUnknownParam = errors.New("unknown parameter")
)

func (s Spec) validate() error {
	if s.Name == "" {
		return errEmptyParamName
	}

	if math.IsNaN(s.Min) || math.IsNaN(s.Max) || s.Min > s.Max {
		return fmt.Errorf("parameter %q has invalid range [%f, %f]", s.Name, s.Min, s.Max)
	}

	if s.Scale == ScaleExponential && s.Min <= 0 {
		return fmt.Errorf("parameter %q: exponential scale requires min > 0", s.Name)
	}

	return nil
}

// Parameter is a single named control value. External writes are always
// clamped to the declared range.
type Parameter struct {
	spec  Spec
	value float64
}

// Spec returns the declaring spec.
func (p *Parameter) Spec() Spec { return p.spec }

// Name returns the parameter name.
func (p *Parameter) Name() string { return p.spec.Name }

// Value returns the current clamped value.
func (p *Parameter) Value() float64 { return p.value }

// Set writes value, clamped to [Min, Max]. NaN and Inf fall back to Default.
func (p *Parameter) Set(value float64) {
	value = core.Sanitize(value, p.spec.Default)
	p.value = core.Clamp(value, p.spec.Min, p.spec.Max)
}

// SetNormalized writes a [0,1] value mapped through the declared scale.
func (p *Parameter) SetNormalized(norm float64) {
	norm = core.ClampUnit(core.Sanitize(norm, 0))

	switch p.spec.Scale {
	case ScaleExponential:
		p.value = p.spec.Min * math.Pow(p.spec.Max/p.spec.Min, norm)
	default:
		p.value = p.spec.Min + norm*(p.spec.Max-p.spec.Min)
	}
}

// Reset restores the default value.
func (p *Parameter) Reset() {
	p.value = core.Clamp(p.spec.Default, p.spec.Min, p.spec.Max)
}

// Set is an ordered collection of parameters, embedded by any node that
// exposes named control values.
type Set struct {
	order  []string
	params map[string]*Parameter
}

// NewSet declares the given parameters in order.
func NewSet(specs ...Spec) (*Set, error) {
	s := &Set{params: make(map[string]*Parameter, len(specs))}

	for _, spec := range specs {
		err := s.Declare(spec)
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Declare adds one parameter; the name must be unique within the set.
func (s *Set) Declare(spec Spec) error {
	err := spec.validate()
	if err != nil {
		return err
	}

	if _, exists := s.params[spec.Name]; exists {
		return fmt.Errorf("%w: %s", errDuplicateParam, spec.Name)
	}

	p := &Parameter{spec: spec}
	p.Reset()

	s.order = append(s.order, spec.Name)
	s.params[spec.Name] = p

	return nil
}

// Get returns the named parameter.
func (s *Set) Get(name string) (*Parameter, error) {
	p, ok := s.params[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}

	return p, nil
}

// Names returns parameter names in declaration order.
func (s *Set) Names() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of declared parameters.
func (s *Set) Len() int { return len(s.order) }

// Index returns the declaration position of name, or -1.
func (s *Set) Index(name string) int {
	for i, n := range s.order {
		if n == name {
			return i
		}
	}

	return -1
}

// Sample reads buf at index i, transparently handling both a-rate buffers
// (one value per frame) and k-rate buffers (a single value per block): an
// out-of-range index holds the last element, an empty buffer yields 0.
func Sample(buf []float64, i int) float64 {
	if len(buf) == 0 {
		return 0
	}

	if i >= 0 && i < len(buf) {
		return buf[i]
	}

	return buf[len(buf)-1]
}
