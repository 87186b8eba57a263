// Package fbosc implements the self-modulating sine oscillator: a phase
// accumulator with continuous-phase frequency changes and an output-feedback
// term that morphs the tone from sine toward saw-like or square-like
// spectra. High feedback settings intentionally produce chaotic, aliased
// spectra; that is musical behavior, not an error.
package fbosc
