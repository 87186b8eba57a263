// Package xfade implements the two-input crossfade kernel used for dry/wet
// effect blending.
package xfade
