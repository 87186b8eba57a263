package delay

import (
	"fmt"
	"math"
)

// Line is a circular delay line of fixed size.
type Line struct {
	buffer   []float64
	writePos int
}

// New returns a delay line holding size samples.
func New(size int) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay size must be > 0: %d", size)
	}

	return &Line{buffer: make([]float64, size)}, nil
}

// Len returns the internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// MaxFractionalDelay returns the largest delay ReadFractional can serve;
// the Hermite kernel needs two samples of headroom past the read point.
func (d *Line) MaxFractionalDelay() float64 {
	return float64(len(d.buffer) - 3)
}

// Write pushes one sample.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample

	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read returns the sample delay frames before the most recent write.
// Out-of-range delays clamp to the buffer bounds.
func (d *Line) Read(delay int) float64 {
	size := len(d.buffer)
	if size == 0 {
		return 0
	}

	if delay < 0 {
		delay = 0
	}

	if delay >= size {
		delay = size - 1
	}

	readPos := (d.writePos - 1 - delay + 2*size) % size

	return d.buffer[readPos]
}

// ReadFractional reads a fractional delay with cubic Hermite interpolation.
func (d *Line) ReadFractional(delay float64) float64 {
	size := len(d.buffer)
	if size < 4 {
		return d.Read(int(math.Round(delay)))
	}

	if delay < 0 || math.IsNaN(delay) {
		delay = 0
	}

	if maxDelay := d.MaxFractionalDelay(); delay > maxDelay {
		delay = maxDelay
	}

	p := int(math.Floor(delay))
	t := delay - float64(p)

	xm1 := d.Read(maxInt(0, p-1))
	x0 := d.Read(p)
	x1 := d.Read(p + 1)
	x2 := d.Read(p + 2)

	return hermite4(t, xm1, x0, x1, x2)
}

// Reset clears the buffer.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}

	d.writePos = 0
}

// hermite4 evaluates 4-point cubic Hermite interpolation at t in [0,1).
func hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c := (x1 - xm1) * 0.5
	v := x0 - x1
	w := c + v
	a := w + v + (x2-x0)*0.5
	b := w + a

	return ((a*t-b)*t+c)*t + x0
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}
