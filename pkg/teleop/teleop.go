// Package teleop runs the driver-controlled loop: it samples two gamepads,
// fires button actions on presses, mixes the drivetrain and drives the arm.
package teleop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/edaniels/golog"

	"github.com/gwillem/teleopbot/pkg/gamepad"
)

// DefaultHz is the control frequency used when none is configured.
const DefaultHz = 50

// InputSource supplies the latest gamepad sample. A nil sample means the
// controller is not available.
type InputSource interface {
	Sample() *gamepad.Gamepad
}

// Controller manages the teleoperation control loop.
type Controller struct {
	robot  *Robot
	pads   [2]InputSource
	hz     int
	logger golog.Logger

	mu      sync.RWMutex
	running bool
	stateCh chan State
	logCh   chan string

	lastInputErr string
	lastWriteErr string
}

// Config holds configuration for the controller.
type Config struct {
	Hz int
}

// NewController creates a controller ticking r with samples from pad1 and
// pad2. Either source may be nil; its controller then reads as idle.
func NewController(r *Robot, pad1, pad2 InputSource, cfg Config, logger golog.Logger) *Controller {
	if cfg.Hz <= 0 {
		cfg.Hz = DefaultHz
	}
	return &Controller{
		robot:   r,
		pads:    [2]InputSource{pad1, pad2},
		hz:      cfg.Hz,
		logger:  logger,
		stateCh: make(chan State, 1),
		logCh:   make(chan string, 10),
	}
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// Hz returns the control frequency.
func (c *Controller) Hz() int {
	return c.hz
}

// Running reports whether the loop is active.
func (c *Controller) Running() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

func (c *Controller) log(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	c.logger.Info(text)
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), text)
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Start initializes the robot and runs the control loop until ctx is done.
// Motors are stopped on the way out.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()

	if err := c.robot.Initialize(ctx); err != nil {
		c.log("Warning: %v", err)
	} else {
		c.log("Claws closed, motors stopped")
	}

	c.log("Teleoperation started at %d Hz", c.hz)

	ticker := time.NewTicker(time.Second / time.Duration(c.hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case <-ticker.C:
			c.step(ctx)
		}
	}
}

func (c *Controller) sample(i int) *gamepad.Gamepad {
	if c.pads[i] == nil {
		return &gamepad.Gamepad{}
	}
	return c.pads[i].Sample()
}

func (c *Controller) step(ctx context.Context) {
	state, err := c.robot.Tick(ctx, c.sample(0), c.sample(1))

	// Report errors when they change, not on every tick.
	if msg := errString(state.InputErr); msg != c.lastInputErr {
		if msg != "" {
			c.log("Input error: %s", msg)
		} else {
			c.log("Input recovered")
		}
		c.lastInputErr = msg
	}
	if msg := errString(err); msg != c.lastWriteErr {
		if msg != "" {
			c.log("Write error: %s", msg)
		}
		c.lastWriteErr = msg
	}

	for _, b := range state.Fired {
		c.log("%s pressed", b)
	}

	c.sendState(state)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	if err := c.robot.Stop(context.Background()); err != nil {
		c.log("Warning: failed to stop motors: %v", err)
	} else {
		c.log("Motors stopped")
	}
	c.log("Teleoperation stopped")
}
