package delay

import (
	"math"
	"testing"
)

func TestNewValidation(t *testing.T) {
	t.Parallel()

	if _, err := New(0); err == nil {
		t.Error("expected error for zero size")
	}

	if _, err := New(-4); err == nil {
		t.Error("expected error for negative size")
	}
}

func TestIntegerRead(t *testing.T) {
	t.Parallel()

	d, err := New(8)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for i := 1; i <= 5; i++ {
		d.Write(float64(i))
	}

	// delay 0 is the most recent write.
	if got := d.Read(0); got != 5 {
		t.Errorf("Read(0) = %v, want 5", got)
	}

	if got := d.Read(4); got != 1 {
		t.Errorf("Read(4) = %v, want 1", got)
	}

	// Out-of-range delays clamp instead of wrapping.
	if got := d.Read(100); got != 0 {
		t.Errorf("Read(100) = %v, want 0", got)
	}

	if got := d.Read(-3); got != 5 {
		t.Errorf("Read(-3) = %v, want 5", got)
	}
}

func TestWrapAround(t *testing.T) {
	t.Parallel()

	d, err := New(4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for i := 1; i <= 10; i++ {
		d.Write(float64(i))
	}

	if got := d.Read(0); got != 10 {
		t.Errorf("Read(0) = %v, want 10", got)
	}

	if got := d.Read(3); got != 7 {
		t.Errorf("Read(3) = %v, want 7", got)
	}
}

func TestFractionalReadOnRamp(t *testing.T) {
	t.Parallel()

	d, err := New(32)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// A linear ramp interpolates exactly under cubic Hermite.
	for i := range 32 {
		d.Write(float64(i))
	}

	got := d.ReadFractional(2.5)
	want := 31 - 2.5

	if math.Abs(got-want) > 1e-9 {
		t.Errorf("ReadFractional(2.5) = %v, want %v", got, want)
	}
}

func TestFractionalReadClampsDelay(t *testing.T) {
	t.Parallel()

	d, err := New(16)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for i := range 16 {
		d.Write(float64(i))
	}

	if got := d.ReadFractional(-5); got != d.ReadFractional(0) {
		t.Errorf("negative delay should clamp to 0, got %v", got)
	}

	if got := d.ReadFractional(1e9); math.IsNaN(got) || math.IsInf(got, 0) {
		t.Errorf("oversized delay produced non-finite %v", got)
	}

	if got := d.ReadFractional(math.NaN()); math.IsNaN(got) {
		t.Error("NaN delay must not surface NaN")
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	d, err := New(8)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for i := range 8 {
		d.Write(float64(i + 1))
	}

	d.Reset()

	for i := range 8 {
		if got := d.Read(i); got != 0 {
			t.Fatalf("Read(%d) after reset = %v, want 0", i, got)
		}
	}
}
