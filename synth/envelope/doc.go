// Package envelope implements the gated multi-stage envelope generator.
//
// Each stage is an exponential approach toward a target value with a
// shape-controllable knee. A rising gate edge retriggers the attack from the
// current output rather than zero, which keeps legato retriggering
// click free.
package envelope
