// Package arm maps stick readings to arm base, spindle, wrist and claw
// commands.
package arm

import "math"

// Gains, limits and set points.
const (
	ArmGain = 0.5

	SpindleGain      = 0.35
	SpindleHoldPower = 0.04
	// SpindleLimit is the lowest encoder reading, in ticks, at which the
	// spindle is driven from the sticks. Readings below it mean the spindle
	// sits against its hard stop.
	SpindleLimit = -5

	WristPitchRate = 0.002
	WristPitchMin  = 0.25
	WristPitchMax  = 0.9

	WristRollRate = 0.005
	WristRollMin  = 0.0
	WristRollMax  = 0.54

	ClawOpenPosition   = 0.8
	ClawClosedPosition = 0.5
)

// Side selects a claw.
type Side int

// Claw sides.
const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// ClawState is the commanded claw state.
type ClawState int

// Claw states.
const (
	Closed ClawState = iota
	Open
)

func (c ClawState) String() string {
	if c == Open {
		return "open"
	}
	return "closed"
}

// Position returns the servo position for the claw state.
func (c ClawState) Position() float64 {
	if c == Open {
		return ClawOpenPosition
	}
	return ClawClosedPosition
}

// SpindleMode is the state of the spindle soft limit.
type SpindleMode int

// Spindle modes.
const (
	SpindleNormal SpindleMode = iota
	SpindleLimitHold
)

func (m SpindleMode) String() string {
	if m == SpindleLimitHold {
		return "limit_hold"
	}
	return "normal"
}

// Inputs are the stick readings used for one update, each in [-1, 1].
type Inputs struct {
	Base           float64
	SpindleExtend  float64
	SpindleRetract float64
	WristPitch     float64
	WristRoll      float64
}

// State is the full set of arm commands after an update.
type State struct {
	BasePower       float64
	SpindlePower    float64
	SpindleMode     SpindleMode
	SpindlePosition int
	WristPitch      float64
	WristRoll       float64
	Claws           [2]float64
}

// Config holds the starting wrist positions and the spindle release band.
type Config struct {
	WristPitch float64 `json:"wrist_pitch"`
	WristRoll  float64 `json:"wrist_roll"`
	// SpindleHysteresis widens the threshold for leaving the hold state:
	// once holding, the spindle is released only at SpindleLimit plus this
	// many ticks. Zero releases as soon as the reading is back at the limit.
	SpindleHysteresis int `json:"spindle_hysteresis,omitempty"`
}

// Controller integrates wrist positions and applies the spindle soft limit.
// It is not safe for concurrent use.
type Controller struct {
	cfg   Config
	state State
}

// New returns a controller with the wrist at the configured start positions,
// clamped into range, and both claws closed.
func New(cfg Config) *Controller {
	c := &Controller{cfg: cfg}
	c.state.WristPitch = clamp(cfg.WristPitch, WristPitchMin, WristPitchMax)
	c.state.WristRoll = clamp(cfg.WristRoll, WristRollMin, WristRollMax)
	c.state.Claws = [2]float64{ClawClosedPosition, ClawClosedPosition}
	return c
}

// Update computes one tick of arm commands from the stick readings and the
// spindle encoder position.
func (c *Controller) Update(in Inputs, spindlePosition int) State {
	c.state.BasePower = -in.Base * ArmGain

	c.state.SpindlePosition = spindlePosition
	c.state.SpindleMode = c.nextSpindleMode(spindlePosition)
	if c.state.SpindleMode == SpindleNormal {
		c.state.SpindlePower = (in.SpindleExtend - in.SpindleRetract) * SpindleGain
	} else {
		c.state.SpindlePower = SpindleHoldPower
	}

	c.state.WristPitch = clamp(c.state.WristPitch+in.WristPitch*WristPitchRate, WristPitchMin, WristPitchMax)
	c.state.WristRoll = clamp(c.state.WristRoll+in.WristRoll*WristRollRate, WristRollMin, WristRollMax)

	return c.state
}

func (c *Controller) nextSpindleMode(position int) SpindleMode {
	if position < SpindleLimit {
		return SpindleLimitHold
	}
	if c.state.SpindleMode == SpindleLimitHold && position < SpindleLimit+c.cfg.SpindleHysteresis {
		return SpindleLimitHold
	}
	return SpindleNormal
}

// SetClaw commands one claw to a fixed position.
func (c *Controller) SetClaw(side Side, state ClawState) {
	if side != Left && side != Right {
		return
	}
	c.state.Claws[side] = state.Position()
}

// State returns the commands from the last update.
func (c *Controller) State() State {
	return c.state
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
