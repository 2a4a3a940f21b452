// Package gamepad models controller samples and the per-tick input
// abstractions built on them: snapshots, bindings, edge detection and the
// button registry.
package gamepad

import (
	"fmt"
	"math"
)

// Gamepad is one sample of a controller's buttons and axes.
// Sticks are in [-1, 1] (up is negative), triggers in [0, 1].
type Gamepad struct {
	LeftStickX   float64
	LeftStickY   float64
	RightStickX  float64
	RightStickY  float64
	LeftTrigger  float64
	RightTrigger float64

	A           bool
	B           bool
	X           bool
	Y           bool
	LeftBumper  bool
	RightBumper bool
	DpadUp      bool
	DpadDown    bool
	DpadLeft    bool
	DpadRight   bool
	Back        bool
	Start       bool
	Guide       bool
	LeftStick   bool
	RightStick  bool
}

// Axis identifies a float-valued field of a Gamepad.
type Axis uint8

// Axes.
const (
	LeftStickX Axis = iota + 1
	LeftStickY
	RightStickX
	RightStickY
	LeftTrigger
	RightTrigger
)

var axisNames = map[Axis]string{
	LeftStickX:   "left_stick_x",
	LeftStickY:   "left_stick_y",
	RightStickX:  "right_stick_x",
	RightStickY:  "right_stick_y",
	LeftTrigger:  "left_trigger",
	RightTrigger: "right_trigger",
}

// AllAxes returns every axis in declaration order.
func AllAxes() []Axis {
	return []Axis{LeftStickX, LeftStickY, RightStickX, RightStickY, LeftTrigger, RightTrigger}
}

func (a Axis) String() string {
	if name, ok := axisNames[a]; ok {
		return name
	}
	return fmt.Sprintf("axis(%d)", uint8(a))
}

// ParseAxis returns the axis with the given name, e.g. "right_stick_y".
func ParseAxis(name string) (Axis, error) {
	for a, n := range axisNames {
		if n == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown axis %q", name)
}

// Button identifies a boolean field of a Gamepad.
type Button uint8

// Buttons.
const (
	ButtonA Button = iota + 1
	ButtonB
	ButtonX
	ButtonY
	ButtonLeftBumper
	ButtonRightBumper
	ButtonDpadUp
	ButtonDpadDown
	ButtonDpadLeft
	ButtonDpadRight
	ButtonBack
	ButtonStart
	ButtonGuide
	ButtonLeftStick
	ButtonRightStick
)

var buttonNames = map[Button]string{
	ButtonA:           "a",
	ButtonB:           "b",
	ButtonX:           "x",
	ButtonY:           "y",
	ButtonLeftBumper:  "left_bumper",
	ButtonRightBumper: "right_bumper",
	ButtonDpadUp:      "dpad_up",
	ButtonDpadDown:    "dpad_down",
	ButtonDpadLeft:    "dpad_left",
	ButtonDpadRight:   "dpad_right",
	ButtonBack:        "back",
	ButtonStart:       "start",
	ButtonGuide:       "guide",
	ButtonLeftStick:   "left_stick_button",
	ButtonRightStick:  "right_stick_button",
}

func (b Button) String() string {
	if name, ok := buttonNames[b]; ok {
		return name
	}
	return fmt.Sprintf("button(%d)", uint8(b))
}

// ParseButton returns the button with the given name, e.g. "dpad_up".
func ParseButton(name string) (Button, error) {
	for b, n := range buttonNames {
		if n == name {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown button %q", name)
}

// Axis returns the value of the given axis, or 0 for an unknown axis.
func (g *Gamepad) Axis(a Axis) float64 {
	switch a {
	case LeftStickX:
		return g.LeftStickX
	case LeftStickY:
		return g.LeftStickY
	case RightStickX:
		return g.RightStickX
	case RightStickY:
		return g.RightStickY
	case LeftTrigger:
		return g.LeftTrigger
	case RightTrigger:
		return g.RightTrigger
	}
	return 0
}

// SetAxis sets the given axis. Unknown axes are ignored.
func (g *Gamepad) SetAxis(a Axis, v float64) {
	switch a {
	case LeftStickX:
		g.LeftStickX = v
	case LeftStickY:
		g.LeftStickY = v
	case RightStickX:
		g.RightStickX = v
	case RightStickY:
		g.RightStickY = v
	case LeftTrigger:
		g.LeftTrigger = v
	case RightTrigger:
		g.RightTrigger = v
	}
}

// Button reports whether the given button is held, false for an unknown button.
func (g *Gamepad) Button(b Button) bool {
	if p := g.buttonField(b); p != nil {
		return *p
	}
	return false
}

// SetButton sets the given button. Unknown buttons are ignored.
func (g *Gamepad) SetButton(b Button, down bool) {
	if p := g.buttonField(b); p != nil {
		*p = down
	}
}

func (g *Gamepad) buttonField(b Button) *bool {
	switch b {
	case ButtonA:
		return &g.A
	case ButtonB:
		return &g.B
	case ButtonX:
		return &g.X
	case ButtonY:
		return &g.Y
	case ButtonLeftBumper:
		return &g.LeftBumper
	case ButtonRightBumper:
		return &g.RightBumper
	case ButtonDpadUp:
		return &g.DpadUp
	case ButtonDpadDown:
		return &g.DpadDown
	case ButtonDpadLeft:
		return &g.DpadLeft
	case ButtonDpadRight:
		return &g.DpadRight
	case ButtonBack:
		return &g.Back
	case ButtonStart:
		return &g.Start
	case ButtonGuide:
		return &g.Guide
	case ButtonLeftStick:
		return &g.LeftStick
	case ButtonRightStick:
		return &g.RightStick
	}
	return nil
}

// Validate reports whether every axis is finite and within [-1, 1].
func (g *Gamepad) Validate() error {
	for _, a := range AllAxes() {
		v := g.Axis(a)
		if math.IsNaN(v) || v < -1 || v > 1 {
			return fmt.Errorf("%s out of range: %v", a, v)
		}
	}
	return nil
}
