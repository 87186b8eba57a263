// Package rotmix implements the energy-conserving rotation mixer: an
// orthonormal sine/cosine mixing stage whose output energy equals its input
// energy for any angle. The feedback-delay-network reverb relies on this so
// its loop gain is governed solely by the explicit decay parameter.
package rotmix
