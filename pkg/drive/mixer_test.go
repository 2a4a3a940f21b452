package drive

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

func equalPowers(a, b WheelPowers) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func TestMix(t *testing.T) {
	tests := []struct {
		name       string
		motion     r3.Vector
		multiplier float64
		expected   WheelPowers
	}{
		{"stopped", r3.Vector{}, 1, WheelPowers{0, 0, 0, 0}},
		{"strafe", r3.Vector{X: 1}, 1, WheelPowers{1, 1, 1, 1}},
		{"strafe reversed", r3.Vector{X: 1}, -1, WheelPowers{-1, -1, -1, -1}},
		{"forward", r3.Vector{Y: 1}, 1, WheelPowers{-1, 1, 1, -1}},
		{"rotate", r3.Vector{Z: 1}, 1, WheelPowers{-1, 1, -1, 1}},
		{"half strafe", r3.Vector{X: 0.5}, 1, WheelPowers{0.5, 0.5, 0.5, 0.5}},
		// Raw powers {-1, 3, 1, 1} exceed 1 and are scaled by 1/3.
		{"combined", r3.Vector{X: 1, Y: 1, Z: 1}, 1, WheelPowers{-1.0 / 3, 1, 1.0 / 3, 1.0 / 3}},
	}

	for _, tt := range tests {
		got := Mix(tt.motion, tt.multiplier)
		if !equalPowers(got, tt.expected) {
			t.Errorf("%s: Mix(%v, %v) = %v, want %v", tt.name, tt.motion, tt.multiplier, got, tt.expected)
		}
	}
}

func TestMix_NeverExceedsOne(t *testing.T) {
	for _, x := range []float64{-1, -0.3, 0, 0.7, 1} {
		for _, y := range []float64{-1, -0.5, 0, 1} {
			for _, z := range []float64{-2, -1, 0, 0.25, 2} {
				for _, p := range Mix(r3.Vector{X: x, Y: y, Z: z}, 1) {
					if math.Abs(p) > 1+1e-9 {
						t.Fatalf("Mix(%v, %v, %v) produced %v", x, y, z, p)
					}
				}
			}
		}
	}
}

func TestMix_ScalingKeepsRatios(t *testing.T) {
	base := r3.Vector{X: 0.6, Y: -0.8, Z: 0.9}
	ref := Mix(base, 1)

	for _, k := range []float64{1.5, 2, 10} {
		got := Mix(base.Mul(k), 1)
		// Both results are normalized to the same max magnitude once clipped.
		refMax, gotMax := 0.0, 0.0
		for i := range got {
			refMax = math.Max(refMax, math.Abs(ref[i]))
			gotMax = math.Max(gotMax, math.Abs(got[i]))
		}
		for i := range got {
			if math.Abs(got[i]/gotMax-ref[i]/refMax) > 1e-9 {
				t.Errorf("k=%v: wheel %v ratio = %v, want %v", k, Wheel(i), got[i]/gotMax, ref[i]/refMax)
			}
		}
	}
}

func TestMixer_Motion(t *testing.T) {
	m := NewMixer()
	got := m.Motion(0.5, -1, 0.25, 0.75)
	want := r3.Vector{X: -0.5, Y: 1, Z: -0.5}
	if got != want {
		t.Errorf("Motion() = %v, want %v", got, want)
	}

	m.ToggleDirection()
	got = m.Motion(0.5, -1, 0.25, 0.75)
	want = r3.Vector{X: -0.5, Y: 1, Z: 0.5}
	if got != want {
		t.Errorf("reversed Motion() = %v, want %v", got, want)
	}
}

func TestMixer_ToggleDirection(t *testing.T) {
	m := NewMixer()
	forward := m.Update(-0.4, -0.7, 0, 0)

	m.ToggleDirection()
	if m.Multiplier() != -1 {
		t.Fatalf("Multiplier() = %v, want -1", m.Multiplier())
	}
	reversed := m.Update(-0.4, -0.7, 0, 0)
	for i := range forward {
		if math.Abs(reversed[i]+forward[i]) > 1e-9 {
			t.Errorf("wheel %v: reversed = %v, want %v", Wheel(i), reversed[i], -forward[i])
		}
	}

	m.ToggleDirection()
	if m.Multiplier() != 1 {
		t.Fatalf("Multiplier() = %v, want 1", m.Multiplier())
	}
	if again := m.Update(-0.4, -0.7, 0, 0); !equalPowers(again, forward) {
		t.Errorf("after two toggles = %v, want %v", again, forward)
	}
}

func TestMixer_RotationSurvivesToggle(t *testing.T) {
	m := NewMixer()
	spin := m.Update(0, 0, 1, 0)
	m.ToggleDirection()
	if got := m.Update(0, 0, 1, 0); !equalPowers(got, spin) {
		t.Errorf("reversed spin = %v, want %v", got, spin)
	}
}
