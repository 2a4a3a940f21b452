package robot

import (
	"context"
	"sync"

	"github.com/hipsterbrown/feetech-servo/feetech"
	"github.com/pkg/errors"
)

// ServoBus drives the wrist and claw servos on a Feetech serial bus.
//
// Targets are sent with one sync write per call, and only for servos whose
// raw target changed since the last successful write. The teleop loop
// commands every servo on every tick, so most ticks send nothing.
type ServoBus struct {
	port        string
	bus         *feetech.Bus
	group       *feetech.ServoGroup
	calibration Calibration

	mu   sync.Mutex
	sent map[int]int // servo ID -> last raw target written
}

// NewServoBus opens the serial port and groups the calibrated servos.
func NewServoBus(port string, cal Calibration) (*ServoBus, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open servo bus %s", port)
	}

	s := newServoBus(cal)
	s.port = port
	s.bus = bus
	s.group = feetech.NewServoGroupByIDs(bus, cal.ServoIDs()...)
	return s, nil
}

func newServoBus(cal Calibration) *ServoBus {
	return &ServoBus{calibration: cal, sent: make(map[int]int)}
}

// Close releases the serial port.
func (s *ServoBus) Close() error {
	return errors.Wrapf(s.bus.Close(), "close servo bus %s", s.port)
}

// Enable turns torque on. Targets are re-sent on the next write.
func (s *ServoBus) Enable(ctx context.Context) error {
	s.forget()
	return errors.Wrap(s.group.EnableAll(ctx), "enable servos")
}

// Disable turns torque off so the servos can be moved by hand.
func (s *ServoBus) Disable(ctx context.Context) error {
	s.forget()
	return errors.Wrap(s.group.DisableAll(ctx), "disable servos")
}

// ReadPositions reads back every calibrated servo as a position in [0, 1].
func (s *ServoBus) ReadPositions(ctx context.Context) (map[ServoName]float64, error) {
	raw, err := s.group.Positions(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read servo positions")
	}
	positions := make(map[ServoName]float64, len(raw))
	for id, ticks := range raw {
		if name, cal, ok := s.calibration.ByID(id); ok {
			positions[name] = cal.Position(ticks)
		}
	}
	return positions, nil
}

// SetPositions implements Actuators. Servos without calibration are skipped.
func (s *ServoBus) SetPositions(ctx context.Context, positions map[ServoName]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.pending(positions)
	if len(pending) == 0 {
		return nil
	}

	targets := make(feetech.PositionMap, len(pending))
	for id, ticks := range pending {
		targets[id] = ticks
	}
	if err := s.group.SetPositions(ctx, targets); err != nil {
		// The bus state is unknown; send everything next time.
		s.sent = make(map[int]int)
		return errors.Wrap(err, "write servo positions")
	}
	for id, ticks := range pending {
		s.sent[id] = ticks
	}
	return nil
}

// pending converts positions to raw targets and drops the ones already sent.
func (s *ServoBus) pending(positions map[ServoName]float64) map[int]int {
	out := make(map[int]int, len(positions))
	for name, pos := range positions {
		cal, ok := s.calibration[name]
		if !ok {
			continue
		}
		ticks := cal.Raw(pos)
		if last, ok := s.sent[cal.ID]; ok && last == ticks {
			continue
		}
		out[cal.ID] = ticks
	}
	return out
}

func (s *ServoBus) forget() {
	s.mu.Lock()
	s.sent = make(map[int]int)
	s.mu.Unlock()
}
