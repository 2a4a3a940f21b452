package gamepad

import "fmt"

// Input is a named controller field resolved against a Snapshot.
type Input[T float64 | bool] interface {
	// Get returns the value from the current sample.
	Get(s *Snapshot) T
	// Prev returns the value from the previous sample.
	Prev(s *Snapshot) T
	fmt.Stringer
}

// AxisBinding resolves one axis of one controller.
type AxisBinding struct {
	Player Player
	Axis   Axis
}

// ButtonBinding resolves one button of one controller.
type ButtonBinding struct {
	Player Player
	Button Button
}

var (
	_ Input[float64] = AxisBinding{}
	_ Input[bool]    = ButtonBinding{}
)

// BindAxis returns a binding for axis a of controller p.
func BindAxis(p Player, a Axis) AxisBinding {
	return AxisBinding{Player: p, Axis: a}
}

// BindButton returns a binding for button b of controller p.
func BindButton(p Player, b Button) ButtonBinding {
	return ButtonBinding{Player: p, Button: b}
}

func (b AxisBinding) Get(s *Snapshot) float64 {
	g := s.Current(b.Player)
	return g.Axis(b.Axis)
}

func (b AxisBinding) Prev(s *Snapshot) float64 {
	g := s.Previous(b.Player)
	return g.Axis(b.Axis)
}

func (b AxisBinding) String() string {
	return fmt.Sprintf("%s.%s", b.Player, b.Axis)
}

func (b ButtonBinding) Get(s *Snapshot) bool {
	g := s.Current(b.Player)
	return g.Button(b.Button)
}

func (b ButtonBinding) Prev(s *Snapshot) bool {
	g := s.Previous(b.Player)
	return g.Button(b.Button)
}

// Edge classifies the button's transition between the previous and current
// sample. It is computed on every call.
func (b ButtonBinding) Edge(s *Snapshot) Edge {
	return Classify(b.Get(s), b.Prev(s))
}

func (b ButtonBinding) String() string {
	return fmt.Sprintf("%s.%s", b.Player, b.Button)
}

// Edge is the transition of a boolean input between two consecutive ticks.
type Edge uint8

// Edges.
const (
	Invariant Edge = iota
	RisingEdge
	FallingEdge
)

func (e Edge) String() string {
	switch e {
	case RisingEdge:
		return "rising"
	case FallingEdge:
		return "falling"
	default:
		return "invariant"
	}
}

// Classify derives the edge from the current and previous state of a button.
func Classify(current, previous bool) Edge {
	switch {
	case current && !previous:
		return RisingEdge
	case !current && previous:
		return FallingEdge
	}
	return Invariant
}
