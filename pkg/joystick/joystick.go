// Package joystick reads controllers through the Linux joystick API
// (/dev/input/jsN) and keeps the latest gamepad sample for the control loop.
package joystick

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gwillem/teleopbot/pkg/gamepad"
)

// Button and axis numbers for a DualShock 4 on the hid-sony driver:
//
// Buttons
//
//	Cross     = 0
//	Circle    = 1
//	Triangle  = 2
//	Square    = 3
//	L1        = 4
//	R1        = 5
//	L2        = 6 (also an axis)
//	R2        = 7 (also an axis)
//	Share     = 8
//	Options   = 9
//	PS        = 10
//	L stick   = 11
//	R stick   = 12
//
// Axes
//
//	L stick l/r = 0 (left = -32767; right = +32767)
//	        u/d = 1 (up = -32767; down = +32767)
//	L2          = 2 (unpressed = -32767; fully-pressed = 32767)
//	R stick l/r = 3
//	        u/d = 4
//	R2          = 5
//	D-pad   l/r = 6 (left = -32767; right = +32767)
//	        u/d = 7 (up = -32767; down = +32767)

type EventType uint8

const (
	EventTypeButton EventType = 1
	EventTypeAxis   EventType = 2
	// EventTypeInit is or'ed into the synthetic events the driver sends on
	// open to report the initial state.
	EventTypeInit EventType = 0x80
)

const (
	ButtonCross    = 0
	ButtonCircle   = 1
	ButtonTriangle = 2
	ButtonSquare   = 3
	ButtonL1       = 4
	ButtonR1       = 5
	ButtonL2       = 6
	ButtonR2       = 7
	ButtonShare    = 8
	ButtonOptions  = 9
	ButtonPS       = 10
	ButtonLStick   = 11
	ButtonRStick   = 12

	AxisLStickX = 0
	AxisLStickY = 1
	AxisL2      = 2
	AxisRStickX = 3
	AxisRStickY = 4
	AxisR2      = 5
	AxisDPadX   = 6
	AxisDPadY   = 7
)

const axisMax = 32767.0

var buttonMap = map[uint8]gamepad.Button{
	ButtonCross:    gamepad.ButtonA,
	ButtonCircle:   gamepad.ButtonB,
	ButtonSquare:   gamepad.ButtonX,
	ButtonTriangle: gamepad.ButtonY,
	ButtonL1:       gamepad.ButtonLeftBumper,
	ButtonR1:       gamepad.ButtonRightBumper,
	ButtonShare:    gamepad.ButtonBack,
	ButtonOptions:  gamepad.ButtonStart,
	ButtonPS:       gamepad.ButtonGuide,
	ButtonLStick:   gamepad.ButtonLeftStick,
	ButtonRStick:   gamepad.ButtonRightStick,
}

var stickMap = map[uint8]gamepad.Axis{
	AxisLStickX: gamepad.LeftStickX,
	AxisLStickY: gamepad.LeftStickY,
	AxisRStickX: gamepad.RightStickX,
	AxisRStickY: gamepad.RightStickY,
}

func (e EventType) String() string {
	switch e &^ EventTypeInit {
	case EventTypeAxis:
		return "axis"
	case EventTypeButton:
		return "button"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(e))
	}
}

type rawEvent struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

type Event struct {
	Time   time.Time
	Value  int16
	Type   EventType
	Number uint8
}

func (e *Event) String() string {
	return fmt.Sprintf("%v(%v)=%v", e.Type, e.Number, e.Value)
}

// Joystick is an open joystick device.
type Joystick struct {
	device io.ReadCloser

	deviceEpoch    uint32
	wallclockEpoch time.Time

	mu        sync.Mutex
	state     gamepad.Gamepad
	connected bool
}

// NewJoystick opens a joystick device such as /dev/input/js0.
func NewJoystick(device string) (*Joystick, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, err
	}
	return newJoystick(f), nil
}

func newJoystick(r io.ReadCloser) *Joystick {
	return &Joystick{device: r, connected: true}
}

// ReadEvent blocks until the next event arrives.
func (j *Joystick) ReadEvent() (*Event, error) {
	var rawEvent rawEvent
	err := binary.Read(j.device, binary.LittleEndian, &rawEvent)
	if err != nil {
		return nil, err
	}

	if j.deviceEpoch == 0 {
		j.deviceEpoch = rawEvent.Time
		j.wallclockEpoch = time.Now()
	}

	return &Event{
		Time:   j.wallclockEpoch.Add(time.Duration(rawEvent.Time-j.deviceEpoch) * time.Millisecond),
		Value:  rawEvent.Value,
		Type:   EventType(rawEvent.Type),
		Number: rawEvent.Number,
	}, nil
}

// Run reads events into the current state until the device fails or ctx is
// done. The device is marked disconnected when Run returns.
func (j *Joystick) Run(ctx context.Context) error {
	defer func() {
		j.mu.Lock()
		j.connected = false
		j.mu.Unlock()
	}()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			j.device.Close()
		case <-stop:
		}
	}()

	for {
		ev, err := j.ReadEvent()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		j.mu.Lock()
		Apply(&j.state, ev)
		j.mu.Unlock()
	}
}

// Sample returns a copy of the current state, or nil once the device has
// been lost.
func (j *Joystick) Sample() *gamepad.Gamepad {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.connected {
		return nil
	}
	g := j.state
	return &g
}

// Close closes the device.
func (j *Joystick) Close() error {
	return j.device.Close()
}

// Apply updates g with one event. Sticks are scaled to [-1, 1], triggers to
// [0, 1] and the d-pad axes become the four d-pad buttons.
func Apply(g *gamepad.Gamepad, ev *Event) {
	switch ev.Type &^ EventTypeInit {
	case EventTypeButton:
		if b, ok := buttonMap[ev.Number]; ok {
			g.SetButton(b, ev.Value != 0)
		}
	case EventTypeAxis:
		v := scaleAxis(ev.Value)
		switch ev.Number {
		case AxisL2:
			g.LeftTrigger = (v + 1) / 2
		case AxisR2:
			g.RightTrigger = (v + 1) / 2
		case AxisDPadX:
			g.DpadLeft = ev.Value < 0
			g.DpadRight = ev.Value > 0
		case AxisDPadY:
			g.DpadUp = ev.Value < 0
			g.DpadDown = ev.Value > 0
		default:
			if a, ok := stickMap[ev.Number]; ok {
				g.SetAxis(a, v)
			}
		}
	}
}

func scaleAxis(v int16) float64 {
	f := float64(v) / axisMax
	if f < -1 {
		return -1
	}
	return f
}
