// Package reverb implements the feedback-delay-network reverb orchestrator:
// four modulated delay lines cross-coupled through the orthonormal rotation
// mixer and a shared decay gain.
//
// Because the mixing stage conserves energy, the loop gain is governed
// solely by the decay parameter, which stays strictly below one; the
// per-line soft saturator bounds any transient overshoot.
package reverb
