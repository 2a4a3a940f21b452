// Package drive mixes strafe, forward and rotate commands into wheel powers
// for a four-wheel mecanum drivetrain.
package drive

import (
	"math"

	"github.com/golang/geo/r3"
)

// Wheel indexes WheelPowers.
type Wheel int

// Wheels in mixing order.
const (
	FrontLeft Wheel = iota
	FrontRight
	BackLeft
	BackRight
)

func (w Wheel) String() string {
	switch w {
	case FrontLeft:
		return "front_left"
	case FrontRight:
		return "front_right"
	case BackLeft:
		return "back_left"
	case BackRight:
		return "back_right"
	}
	return "unknown"
}

// AllWheels returns the wheels in mixing order.
func AllWheels() []Wheel {
	return []Wheel{FrontLeft, FrontRight, BackLeft, BackRight}
}

// WheelPowers holds one power in [-1, 1] per wheel.
type WheelPowers [4]float64

// DirectionMatrix holds, per wheel, the contribution of the strafe (X),
// forward (Y) and rotate (Z) components. Motor directions are assumed to be
// normalized so that positive power drives every wheel forward.
var DirectionMatrix = [4]r3.Vector{
	FrontLeft:  {X: 1, Y: -1, Z: -1},
	FrontRight: {X: 1, Y: 1, Z: 1},
	BackLeft:   {X: 1, Y: 1, Z: -1},
	BackRight:  {X: 1, Y: -1, Z: 1},
}

// Mix multiplies motion by the direction matrix, scales the result down so
// that no wheel exceeds 1, and applies the speed multiplier.
func Mix(motion r3.Vector, multiplier float64) WheelPowers {
	var raw WheelPowers
	maxPower := 0.0
	for i, row := range DirectionMatrix {
		raw[i] = row.Dot(motion)
		maxPower = math.Max(maxPower, math.Abs(raw[i]))
	}

	var out WheelPowers
	for i, p := range raw {
		if maxPower > 1 {
			p /= maxPower
		}
		out[i] = p * multiplier
	}
	return out
}

// Mixer tracks the drive direction and turns stick readings into wheel
// powers. The zero value is not usable; call NewMixer.
type Mixer struct {
	multiplier float64
}

// NewMixer returns a mixer driving forward.
func NewMixer() *Mixer {
	return &Mixer{multiplier: 1}
}

// ToggleDirection reverses the drive direction.
func (m *Mixer) ToggleDirection() {
	m.multiplier *= -1
}

// Multiplier returns the current speed multiplier, 1 or -1.
func (m *Mixer) Multiplier() float64 {
	return m.multiplier
}

// Motion builds the motion vector from raw axis readings. Stick axes read
// negative when pushed up, so strafe and forward are inverted. Rotation
// follows the multiplier's sign so turning stays the same when driving
// reversed.
func (m *Mixer) Motion(strafe, forward, rotateLeft, rotateRight float64) r3.Vector {
	return r3.Vector{
		X: -strafe,
		Y: -forward,
		Z: (rotateLeft - rotateRight) * sign(m.multiplier),
	}
}

// Update returns the wheel powers for the given axis readings.
func (m *Mixer) Update(strafe, forward, rotateLeft, rotateRight float64) WheelPowers {
	return Mix(m.Motion(strafe, forward, rotateLeft, rotateRight), m.multiplier)
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
