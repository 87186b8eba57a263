package graph

import (
	"github.com/cwbudde/algo-synth/synth/arith"
	"github.com/cwbudde/algo-synth/synth/delay"
	"github.com/cwbudde/algo-synth/synth/envelope"
	"github.com/cwbudde/algo-synth/synth/fbosc"
	"github.com/cwbudde/algo-synth/synth/param"
	"github.com/cwbudde/algo-synth/synth/reverb"
	"github.com/cwbudde/algo-synth/synth/rotmix"
	"github.com/cwbudde/algo-synth/synth/svf"
	"github.com/cwbudde/algo-synth/synth/xfade"
)

// Adapters between the node render contract and the kernel packages. Each
// kernel already tolerates k-rate (short) parameter buffers, so the buffers
// pass through unchanged.

type arithProcessor struct {
	proc  *arith.Processor
	unary bool
}

func (p *arithProcessor) Process(in, out, _ [][]float64) {
	var b []float64
	if !p.unary {
		b = in[1]
	}

	p.proc.ProcessBlock(out[0], in[0], b)
}

type xfadeProcessor struct {
	fade *xfade.Crossfade
}

func (p *xfadeProcessor) Process(in, out, params [][]float64) {
	p.fade.ProcessBlock(out[0], in[0], in[1], params[0])
}

type rotmix2Processor struct {
	mixer *rotmix.Mixer2
}

func (p *rotmix2Processor) Process(in, out, params [][]float64) {
	p.mixer.ProcessBlock(out[0], out[1], in[0], in[1], params[0])
}

type rotmix4Processor struct {
	mixer  *rotmix.Mixer4
	inArr  [4][]float64
	outArr [4][]float64
}

func (p *rotmix4Processor) Process(in, out, params [][]float64) {
	for i := range p.inArr {
		p.inArr[i] = in[i]
		p.outArr[i] = out[i]
	}

	_ = p.mixer.ProcessBlock(&p.outArr, &p.inArr, params[0], params[1])
}

type svfProcessor struct {
	filter *svf.Filter

	low  [1][]float64
	high [1][]float64
	band [1][]float64
	src  [1][]float64
}

func (p *svfProcessor) Process(in, out, params [][]float64) {
	p.low[0] = out[0]
	p.high[0] = out[1]
	p.band[0] = out[2]
	p.src[0] = in[0]

	_ = p.filter.ProcessBlock(p.low[:], p.high[:], p.band[:], p.src[:], params[0], params[1])
}

type fboscProcessor struct {
	osc *fbosc.Oscillator
}

func (p *fboscProcessor) Process(_, out, params [][]float64) {
	p.osc.ProcessBlock(out[0], params[0], params[1])
}

type envelopeProcessor struct {
	gen *envelope.Generator
}

func (p *envelopeProcessor) Process(in, out, params [][]float64) {
	p.gen.ProcessBlock(out[0], in[0], params[0], params[1], params[2], params[3], params[4])
}

type reverbProcessor struct {
	rev *reverb.Reverb
}

func (p *reverbProcessor) Process(in, out, params [][]float64) {
	// Reverb parameters are control-rate: the block's first value wins.
	_ = p.rev.SetDecay(param.Sample(params[0], 0))
	_ = p.rev.SetDamp(param.Sample(params[1], 0))
	_ = p.rev.SetModRate(param.Sample(params[2], 0))
	_ = p.rev.SetModDepth(param.Sample(params[3], 0))
	_ = p.rev.SetRotation(param.Sample(params[4], 0))
	_ = p.rev.SetCrossRotation(param.Sample(params[5], 0))

	p.rev.ProcessBlock(out[0], out[1], in[0])
}

type gainProcessor struct{}

func (gainProcessor) Process(in, out, params [][]float64) {
	for i := range out[0] {
		out[0][i] = in[0][i] * param.Sample(params[0], i)
	}
}

type delayProcessor struct {
	line       *delay.Line
	sampleRate float64
}

func (p *delayProcessor) Process(in, out, params [][]float64) {
	maxDelay := p.line.MaxFractionalDelay()

	for i := range out[0] {
		p.line.Write(in[0][i])

		d := param.Sample(params[0], i) * p.sampleRate
		if d < 0 {
			d = 0
		}

		if d > maxDelay {
			d = maxDelay
		}

		out[0][i] = p.line.ReadFractional(d)
	}
}
