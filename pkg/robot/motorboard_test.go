package robot

import (
	"context"
	"errors"
	"testing"
	"time"

	"periph.io/x/periph/conn/gpio"
)

type fakeConn struct {
	writes [][]byte
	err    error
}

func (f *fakeConn) Tx(w, r []byte) error {
	f.writes = append(f.writes, append([]byte(nil), w...))
	return f.err
}

func (f *fakeConn) lastCounts(t *testing.T, channel int) uint16 {
	t.Helper()
	reg := byte(regLEDBase + channel*4)
	for i := len(f.writes) - 1; i >= 0; i-- {
		w := f.writes[i]
		if len(w) == 5 && w[0] == reg {
			return uint16(w[3]) | uint16(w[4])<<8
		}
	}
	t.Fatalf("channel %d never written", channel)
	return 0
}

func TestPulseCounts(t *testing.T) {
	tests := []struct {
		power    float64
		expected uint16
	}{
		{0, 307},   // 1.5ms
		{1, 410},   // 2.0ms
		{-1, 205},  // 1.0ms
		{0.5, 358}, // 1.75ms
		{3, 410},   // clamped
		{-3, 205},  // clamped
	}

	for _, tt := range tests {
		if got := pulseCounts(tt.power); got != tt.expected {
			t.Errorf("pulseCounts(%v) = %d, want %d", tt.power, got, tt.expected)
		}
	}
}

func TestMotorBoard_Configure(t *testing.T) {
	conn := &fakeConn{}
	b := newMotorBoard(conn, nil)
	if err := b.configure(); err != nil {
		t.Fatalf("configure() = %v", err)
	}
	want := [][]byte{{regMode1, 0x11}, {regPreScale, 0x79}, {regMode1, 0x01}, {regMode1, 0x81}}
	if len(conn.writes) != len(want) {
		t.Fatalf("got %d writes, want %d", len(conn.writes), len(want))
	}
	for i := range want {
		if string(conn.writes[i]) != string(want[i]) {
			t.Errorf("write %d = %x, want %x", i, conn.writes[i], want[i])
		}
	}
}

func TestMotorBoard_SetPowers(t *testing.T) {
	conn := &fakeConn{}
	b := newMotorBoard(conn, DefaultConfig().Motors.Channels)

	err := b.SetPowers(context.Background(), map[MotorName]float64{
		LeftFrontDrive:  1, // reversed
		RightFrontDrive: 1,
		SpindleDrive:    -1, // reversed
	})
	if err != nil {
		t.Fatalf("SetPowers() = %v", err)
	}

	if got := conn.lastCounts(t, 0); got != 205 {
		t.Errorf("lfdrive counts = %d, want 205", got)
	}
	if got := conn.lastCounts(t, 1); got != 410 {
		t.Errorf("rfdrive counts = %d, want 410", got)
	}
	if got := conn.lastCounts(t, 5); got != 410 {
		t.Errorf("spindledrive counts = %d, want 410", got)
	}
}

func TestMotorBoard_UnknownMotor(t *testing.T) {
	conn := &fakeConn{}
	b := newMotorBoard(conn, map[MotorName]MotorChannel{ArmBaseDrive: {Channel: 4}})

	err := b.SetPowers(context.Background(), map[MotorName]float64{
		ArmBaseDrive: 0.5,
		SpindleDrive: 0.5,
	})
	if err == nil {
		t.Error("SetPowers with an unmapped motor should fail")
	}
	if got := conn.lastCounts(t, 4); got != 358 {
		t.Errorf("armbasedrive counts = %d, want 358", got)
	}
}

func TestMotorBoard_Stop(t *testing.T) {
	conn := &fakeConn{}
	b := newMotorBoard(conn, DefaultConfig().Motors.Channels)
	if err := b.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() = %v", err)
	}
	for ch := 0; ch < 6; ch++ {
		if got := conn.lastCounts(t, ch); got != 307 {
			t.Errorf("channel %d counts = %d, want 307", ch, got)
		}
	}

	conn.err = errors.New("nack")
	if err := b.Stop(context.Background()); err == nil {
		t.Error("Stop should report bus errors")
	}
}

type fakePin struct {
	level gpio.Level
	edges int
	waits int
}

func (p *fakePin) Read() gpio.Level { return p.level }

// WaitForEdge returns immediately, like a pin without edge detection.
func (p *fakePin) WaitForEdge(timeout time.Duration) bool {
	p.waits++
	if p.edges == 0 {
		return false
	}
	p.edges--
	return true
}

func TestEncoder_Step(t *testing.T) {
	a := &fakePin{}
	b := &fakePin{}
	e := newEncoder(a, b, false)

	// A leads B: A changes while B differs.
	a.level, b.level = gpio.High, gpio.Low
	e.step()
	a.level, b.level = gpio.Low, gpio.High
	e.step()
	if got := e.Position(); got != 2 {
		t.Errorf("forward Position() = %d, want 2", got)
	}

	// B leads A.
	for i := 0; i < 5; i++ {
		a.level, b.level = gpio.High, gpio.High
		e.step()
	}
	if got := e.Position(); got != -3 {
		t.Errorf("Position() = %d, want -3", got)
	}

	e.Reset()
	if got := e.Position(); got != 0 {
		t.Errorf("after Reset, Position() = %d", got)
	}
}

func TestEncoder_Reversed(t *testing.T) {
	a := &fakePin{level: gpio.High}
	b := &fakePin{level: gpio.Low}
	e := newEncoder(a, b, true)
	e.step()
	if got := e.Position(); got != -1 {
		t.Errorf("Position() = %d, want -1", got)
	}
}

func TestEncoder_Run(t *testing.T) {
	a := &fakePin{level: gpio.High, edges: 4}
	b := &fakePin{level: gpio.Low}
	e := newEncoder(a, b, false)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	e.Run(ctx)

	if got := e.Position(); got != 4 {
		t.Errorf("Position() = %d, want 4", got)
	}
}

func TestEncoder_RunIdle(t *testing.T) {
	tests := []struct {
		name     string
		edges    int
		maxWaits int
	}{
		{"no edges", 0, 3},
		{"edges then idle", 10, 13},
	}

	for _, tt := range tests {
		a := &fakePin{level: gpio.High, edges: tt.edges}
		e := newEncoder(a, &fakePin{}, false)

		ctx, cancel := context.WithTimeout(context.Background(), edgeTimeout*3/2)
		e.Run(ctx)
		cancel()

		if a.waits > tt.maxWaits {
			t.Errorf("%s: WaitForEdge called %d times, want at most %d", tt.name, a.waits, tt.maxWaits)
		}
		if got := e.Position(); got != tt.edges {
			t.Errorf("%s: Position() = %d, want %d", tt.name, got, tt.edges)
		}
	}
}

func TestTouchSensor_Pressed(t *testing.T) {
	p := &fakePin{level: gpio.High}
	s := &TouchSensor{pin: p}
	if s.Pressed() {
		t.Error("released switch reads pressed")
	}
	p.level = gpio.Low
	if !s.Pressed() {
		t.Error("closed switch reads released")
	}
}
