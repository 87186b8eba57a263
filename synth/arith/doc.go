// Package arith implements the per-sample signal arithmetic kernel: a
// binary or unary operator selected at construction, applied independently
// to each output channel.
package arith
