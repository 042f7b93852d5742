package attn

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestCompare_WithinTolerance(t *testing.T) {
	ref := []float32{1.0, 2.0, 3.0}
	got := []float32{1.0005, 1.9995, 3.0}
	if err := Compare(ref, got, Tolerance); err != nil {
		t.Errorf("expected match within tolerance, got %v", err)
	}
}

func TestCompare_ReportsFirstMismatch(t *testing.T) {
	ref := []float32{1.0, 2.0, 3.0, 4.0}
	got := []float32{1.0, 2.5, 9.0, 4.0}

	err := Compare(ref, got, Tolerance)
	if !errors.Is(err, ErrNumericalMismatch) {
		t.Fatalf("got %v, want ErrNumericalMismatch", err)
	}
	// First offending index and both values must be in the message.
	msg := err.Error()
	for _, want := range []string{"index 1", "2.0", "2.5"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}

func TestCompare_NaNFails(t *testing.T) {
	ref := []float32{1.0}
	got := []float32{float32(math.NaN())}
	if err := Compare(ref, got, Tolerance); !errors.Is(err, ErrNumericalMismatch) {
		t.Errorf("NaN should fail comparison, got %v", err)
	}
}

func TestCompare_LengthMismatch(t *testing.T) {
	err := Compare([]float32{1, 2}, []float32{1}, Tolerance)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
}

func TestFillRandom_Deterministic(t *testing.T) {
	a := make([]float32, 256)
	b := make([]float32, 256)
	FillRandom(a, DefaultSeed)
	FillRandom(b, DefaultSeed)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at index %d: %f vs %f", i, a[i], b[i])
		}
	}

	c := make([]float32, 256)
	FillRandom(c, DefaultSeed+1)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical data")
	}
}

func TestFillRandom_Range(t *testing.T) {
	x := make([]float32, 4096)
	FillRandom(x, DefaultSeed)
	for i, v := range x {
		if v < -0.05 || v >= 0.05 {
			t.Fatalf("value %f at index %d outside [-0.05, 0.05)", v, i)
		}
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"naive", "tiled", "flash"} {
		s, err := ByName(name, Options{})
		if err != nil {
			t.Errorf("ByName(%q) failed: %v", name, err)
			continue
		}
		if s.Name() != name {
			t.Errorf("ByName(%q).Name() = %q", name, s.Name())
		}
	}
	s, err := ByName("shared", Options{})
	if err != nil {
		t.Errorf("ByName(%q) failed: %v", "shared", err)
	} else if s.Name() != "tiled" {
		t.Errorf("ByName(%q).Name() = %q, want %q", "shared", s.Name(), "tiled")
	}
	if _, err := ByName("fused", Options{}); err == nil {
		t.Error("ByName should reject unknown strategies")
	}
}
