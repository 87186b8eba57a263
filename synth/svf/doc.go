// Package svf implements a zero-delay-feedback state-variable filter with
// simultaneous low-pass, high-pass, and band-pass outputs.
//
// The instantaneous feedback around the two integrators is solved
// algebraically per sample, which keeps the filter stable and correctly
// tuned under audio-rate modulation of cutoff and resonance, where naive
// difference-equation forms warp or blow up.
package svf
