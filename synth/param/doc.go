// Package param implements the control-parameter surface shared by every
// kernel: declared ranges, clamped writes, transparent a-rate/k-rate buffer
// sampling, and rate-limited (slewed) per-sample updates.
package param
