// Package core provides numeric guard helpers shared by all kernels.
//
// Render-plane code must never panic or produce NaN/Inf, so every kernel
// funnels untrusted values through these helpers instead of raising errors.
package core
