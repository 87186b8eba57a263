// Package delay provides a circular delay line with integer and fractional
// (cubic Hermite) reads. It backs the reverb's modulated delay taps and
// doubles as the reference implementation of the host's primitive delay
// operator.
package delay
