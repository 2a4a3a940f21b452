package robot

import (
	"context"
	"sync"
)

// Sim is an in-memory rig. It records the last power and position written
// to every device, and reports sensor values set by the caller.
type Sim struct {
	mu        sync.Mutex
	powers    map[MotorName]float64
	positions map[ServoName]float64
	spindle   int
	pressed   bool
	writes    int
	err       error
}

var _ Hardware = (*Sim)(nil)

// NewSim returns a simulated rig with every motor stopped.
func NewSim() *Sim {
	s := &Sim{
		powers:    make(map[MotorName]float64),
		positions: make(map[ServoName]float64),
	}
	for _, name := range AllMotors() {
		s.powers[name] = 0
	}
	return s
}

func (s *Sim) SetPowers(ctx context.Context, powers map[MotorName]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.err != nil {
		return s.err
	}
	for name, p := range powers {
		s.powers[name] = p
	}
	return nil
}

func (s *Sim) SetPositions(ctx context.Context, positions map[ServoName]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.err != nil {
		return s.err
	}
	for name, p := range positions {
		s.positions[name] = p
	}
	return nil
}

func (s *Sim) SpindlePosition() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spindle
}

func (s *Sim) ArmBottomPressed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pressed
}

// Power returns the last power written to a motor.
func (s *Sim) Power(name MotorName) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.powers[name]
}

// Position returns the last position written to a servo and whether one was written.
func (s *Sim) Position(name ServoName) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[name]
	return p, ok
}

// Writes returns the number of write calls, failed ones included.
func (s *Sim) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// SetSpindlePosition sets the encoder reading.
func (s *Sim) SetSpindlePosition(ticks int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spindle = ticks
}

// SetArmBottomPressed sets the touch sensor state.
func (s *Sim) SetArmBottomPressed(pressed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pressed = pressed
}

// FailWrites makes every following write return err; nil restores writes.
func (s *Sim) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Sim) Close() error {
	return nil
}
