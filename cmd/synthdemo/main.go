// Command synthdemo plays a small feedback-oscillator patch through the
// graph runtime: oscillator into state-variable filter into an envelope
// VCA, blended with a modulated FDN reverb tail.
//
// Usage:
//
//	synthdemo [flags]
//
// Examples:
//
//	synthdemo -freq 220 -feedback 0.4 -mix 0.5
//	synthdemo -duration 10s -cutoff 800 -decay 0.9
//	synthdemo -spectrum
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/algo-synth/synth/core"
	"github.com/cwbudde/algo-synth/synth/graph"
	"github.com/cwbudde/algo-synth/synth/tap"
)

func main() {
	freq := flag.Float64("freq", 220, "oscillator frequency in Hz")
	feedback := flag.Float64("feedback", 0.35, "oscillator feedback amount [-1, 1]")
	cutoff := flag.Float64("cutoff", 1200, "filter cutoff in Hz")
	resonance := flag.Float64("resonance", 1.2, "filter resonance Q")
	mix := flag.Float64("mix", 0.4, "reverb dry/wet mix [0, 1]")
	decay := flag.Float64("decay", 0.85, "reverb decay [0, 0.99]")
	noteLen := flag.Duration("note", 500*time.Millisecond, "gate on/off interval")
	duration := flag.Duration("duration", 6*time.Second, "total play time")
	sampleRate := flag.Int("rate", 44100, "sample rate in Hz")
	spectrum := flag.Bool("spectrum", false, "print the dominant output frequency on exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: synthdemo [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Plays a feedback-oscillator patch with filter, envelope and reverb.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	err := run(patchConfig{
		freq:       *freq,
		feedback:   *feedback,
		cutoff:     *cutoff,
		resonance:  *resonance,
		mix:        *mix,
		decay:      *decay,
		noteLen:    *noteLen,
		duration:   *duration,
		sampleRate: *sampleRate,
		spectrum:   *spectrum,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "synthdemo: %v\n", err)
		os.Exit(1)
	}
}

type patchConfig struct {
	freq       float64
	feedback   float64
	cutoff     float64
	resonance  float64
	mix        float64
	decay      float64
	noteLen    time.Duration
	duration   time.Duration
	sampleRate int
	spectrum   bool
}

func run(cfg patchConfig) error {
	rc := core.ApplyRenderOptions(core.WithSampleRate(float64(cfg.sampleRate)))

	p, err := buildPatch(rc, cfg)
	if err != nil {
		return err
	}

	meter, err := tap.NewMeter(int(rc.SampleRate))
	if err != nil {
		return err
	}

	cancelMeter, err := p.g.Tap(p.left, 0, meter.Feed)
	if err != nil {
		return err
	}
	defer cancelMeter()

	var analyzer *tap.Analyzer

	if cfg.spectrum {
		analyzer, err = tap.NewAnalyzer(4096, rc.SampleRate)
		if err != nil {
			return err
		}

		cancelSpec, err := p.g.Tap(p.left, 0, analyzer.Feed)
		if err != nil {
			return err
		}
		defer cancelSpec()
	}

	op := &oto.NewContextOptions{
		SampleRate:   cfg.sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   50 * time.Millisecond,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	player := ctx.NewPlayer(p)
	player.Play()

	time.Sleep(cfg.duration)

	err = player.Close()
	if err != nil {
		return fmt.Errorf("close player: %w", err)
	}

	fmt.Printf("peak %6.2f dB  rms %6.2f dB\n", meter.PeakDB(), meter.RMSDB())

	if analyzer != nil {
		printDominantBin(analyzer)
	}

	return nil
}

func printDominantBin(a *tap.Analyzer) {
	mags := make([]float64, a.Bins())

	err := a.Magnitudes(mags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "synthdemo: spectrum: %v\n", err)
		return
	}

	peak := 0
	for i, v := range mags {
		if v > mags[peak] {
			peak = i
		}
	}

	fmt.Printf("dominant frequency %.1f Hz\n", a.BinFrequency(peak))
}

// patch owns the graph and renders stereo blocks on demand through Read,
// which the audio device drives.
type patch struct {
	g     *graph.Graph
	gate  *graph.Source
	left  *graph.Node
	right *graph.Node

	gateBlock []float64
	gateOn    bool
	clock     int
	notePer   int

	frames  []byte
	pending []byte
}

func buildPatch(rc core.RenderConfig, cfg patchConfig) (*patch, error) {
	g, err := graph.New(graph.Context{
		SampleRate: rc.SampleRate,
		BlockSize:  rc.BlockSize,
	}, graph.DefaultRegistry())
	if err != nil {
		return nil, err
	}

	osc, err := g.AddNode("osc", graph.KindOscillator)
	if err != nil {
		return nil, err
	}

	filt, err := g.AddNode("filter", graph.KindFilter)
	if err != nil {
		return nil, err
	}

	env, err := g.AddNode("env", graph.KindEnvelope)
	if err != nil {
		return nil, err
	}

	vca, err := g.AddNode("vca", "mult")
	if err != nil {
		return nil, err
	}

	rev, err := g.AddNode("reverb", graph.KindReverb)
	if err != nil {
		return nil, err
	}

	mixL, err := g.AddNode("mix/l", graph.KindCrossfade)
	if err != nil {
		return nil, err
	}

	mixR, err := g.AddNode("mix/r", graph.KindCrossfade)
	if err != nil {
		return nil, err
	}

	gateNode, gateSrc, err := g.AddSource("gate")
	if err != nil {
		return nil, err
	}

	if _, err := osc.Connect(filt, 0, 0); err != nil {
		return nil, err
	}

	// Low-pass output drives the VCA; the envelope is the other factor.
	if _, err := filt.Connect(vca, 0, 0); err != nil {
		return nil, err
	}

	if _, err := gateNode.Connect(env, 0, 0); err != nil {
		return nil, err
	}

	if _, err := env.Connect(vca, 0, 1); err != nil {
		return nil, err
	}

	if _, err := vca.Connect(rev, 0, 0); err != nil {
		return nil, err
	}

	if _, err := vca.Connect(mixL, 0, 0); err != nil {
		return nil, err
	}

	if _, err := rev.Connect(mixL, 0, 1); err != nil {
		return nil, err
	}

	if _, err := vca.Connect(mixR, 0, 0); err != nil {
		return nil, err
	}

	if _, err := rev.Connect(mixR, 1, 1); err != nil {
		return nil, err
	}

	err = setParams(map[*graph.Node]map[string]float64{
		osc:  {"frequency": cfg.freq, "feedback": cfg.feedback},
		filt: {"cutoff": cfg.cutoff, "resonance": cfg.resonance},
		rev:  {"decay": cfg.decay},
		mixL: {"mix": cfg.mix},
		mixR: {"mix": cfg.mix},
	})
	if err != nil {
		return nil, err
	}

	notePer := int(rc.SampleRate * cfg.noteLen.Seconds())
	if notePer < rc.BlockSize {
		notePer = rc.BlockSize
	}

	return &patch{
		g:         g,
		gate:      gateSrc,
		left:      mixL,
		right:     mixR,
		gateBlock: make([]float64, rc.BlockSize),
		notePer:   notePer,
	}, nil
}

func setParams(settings map[*graph.Node]map[string]float64) error {
	for node, params := range settings {
		for name, value := range params {
			p, err := node.Param(name)
			if err != nil {
				return err
			}

			p.Set(value)
		}
	}

	return nil
}

// Read implements io.Reader for the audio device: little-endian float32
// stereo frames, rendered block by block.
func (p *patch) Read(buf []byte) (int, error) {
	n := 0

	for n < len(buf) {
		if len(p.pending) == 0 {
			err := p.renderBlock()
			if err != nil {
				return n, err
			}
		}

		c := copy(buf[n:], p.pending)
		p.pending = p.pending[c:]
		n += c
	}

	return n, nil
}

func (p *patch) renderBlock() error {
	for i := range p.gateBlock {
		if p.clock%p.notePer == 0 {
			p.gateOn = !p.gateOn
		}

		if p.gateOn {
			p.gateBlock[i] = 1
		} else {
			p.gateBlock[i] = 0
		}

		p.clock++
	}

	p.gate.Write(p.gateBlock)

	err := p.g.Render()
	if err != nil {
		return err
	}

	left, err := p.g.OutletBlock(p.left, 0)
	if err != nil {
		return err
	}

	right, err := p.g.OutletBlock(p.right, 0)
	if err != nil {
		return err
	}

	if len(p.frames) != len(left)*8 {
		p.frames = make([]byte, len(left)*8)
	}

	frames := p.frames
	for i := range left {
		l := float32(core.Clamp(left[i], -1, 1))
		r := float32(core.Clamp(right[i], -1, 1))

		binary.LittleEndian.PutUint32(frames[i*8:], math.Float32bits(l))
		binary.LittleEndian.PutUint32(frames[i*8+4:], math.Float32bits(r))
	}

	p.pending = frames

	return nil
}
