package teleop

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/edaniels/golog"

	"github.com/gwillem/teleopbot/pkg/arm"
	"github.com/gwillem/teleopbot/pkg/gamepad"
	"github.com/gwillem/teleopbot/pkg/robot"
)

type fakeSource struct {
	mu sync.Mutex
	g  *gamepad.Gamepad
}

func (f *fakeSource) Sample() *gamepad.Gamepad {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.g == nil {
		return nil
	}
	g := *f.g
	return &g
}

func (f *fakeSource) set(g *gamepad.Gamepad) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.g = g
}

func TestNewController_DefaultHz(t *testing.T) {
	r := NewRobot(robot.NewSim(), arm.Config{}, golog.NewTestLogger(t))
	c := NewController(r, nil, nil, Config{}, golog.NewTestLogger(t))
	if c.Hz() != DefaultHz {
		t.Errorf("Hz() = %d, want %d", c.Hz(), DefaultHz)
	}
}

func TestController_Run(t *testing.T) {
	sim := robot.NewSim()
	logger := golog.NewTestLogger(t)
	r := NewRobot(sim, arm.Config{}, logger)
	if err := DefaultProfile().Apply(r); err != nil {
		t.Fatal(err)
	}

	pad1 := &fakeSource{g: &gamepad.Gamepad{RightStickY: -1}}
	c := NewController(r, pad1, nil, Config{Hz: 200}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- c.Start(ctx) }()

	select {
	case s := <-c.States():
		if s.Wheels[0] != 1 {
			t.Errorf("Wheels = %v, want full strafe", s.Wheels)
		}
	case <-time.After(time.Second):
		t.Fatal("no state received")
	}
	if !c.Running() {
		t.Error("Running() = false while started")
	}
	if err := c.Start(ctx); err == nil {
		t.Error("second Start() = nil, want error")
	}

	pad1.set(nil)
	time.Sleep(50 * time.Millisecond)

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Start() = %v, want context.Canceled", err)
	}
	if c.Running() {
		t.Error("Running() = true after stop")
	}
	for _, name := range robot.AllMotors() {
		if p := sim.Power(name); p != 0 {
			t.Errorf("%s power = %v after stop", name, p)
		}
	}

	var logs []string
	for len(c.Logs()) > 0 {
		logs = append(logs, <-c.Logs())
	}
	all := strings.Join(logs, "\n")
	for _, want := range []string{"Teleoperation started at 200 Hz", "Input error"} {
		if !strings.Contains(all, want) {
			t.Errorf("logs missing %q:\n%s", want, all)
		}
	}
}
