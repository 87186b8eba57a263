// Package tap provides observation sinks for graph outlets: a level meter
// with a waveform ring, and a magnitude-spectrum analyzer. Feed methods are
// shaped to plug directly into graph.Tap.
package tap
