package robot

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
)

// PCA9685 registers and timing.
const (
	DefaultMotorBoardAddress = 0x40

	regMode1    = 0x00
	regLEDBase  = 0x06
	regPreScale = 0xfe

	pwmPeriod = 20 * time.Millisecond
	pwmMax    = 4095

	// ESC pulse widths for full reverse, stop and full forward.
	pulseMin     = 1000 * time.Microsecond
	pulseNeutral = 1500 * time.Microsecond
	pulseMax     = 2000 * time.Microsecond
)

// registerConn is the part of an I2C device the board needs.
type registerConn interface {
	Tx(w, r []byte) error
}

// MotorBoard drives DC motor speed controllers from a PCA9685 PWM board.
// Power in [-1, 1] maps linearly onto a 1000-2000µs pulse.
type MotorBoard struct {
	mu       sync.Mutex
	dev      registerConn
	bus      i2c.BusCloser
	channels map[MotorName]MotorChannel
}

// OpenMotorBoard opens the I2C bus (empty name picks the first bus),
// configures the board for 50Hz and stops every motor. The periph host
// drivers must already be initialized.
func OpenMotorBoard(cfg MotorBoardConfig) (*MotorBoard, error) {
	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, errors.Wrapf(err, "open i2c bus %q", cfg.Bus)
	}
	addr := cfg.Address
	if addr == 0 {
		addr = DefaultMotorBoardAddress
	}
	b := newMotorBoard(&i2c.Dev{Bus: bus, Addr: addr}, cfg.Channels)
	b.bus = bus
	if err := b.configure(); err != nil {
		bus.Close()
		return nil, errors.Wrap(err, "configure motor board")
	}
	if err := b.Stop(context.Background()); err != nil {
		bus.Close()
		return nil, err
	}
	return b, nil
}

func newMotorBoard(dev registerConn, channels map[MotorName]MotorChannel) *MotorBoard {
	return &MotorBoard{dev: dev, channels: channels}
}

func (b *MotorBoard) writeReg(reg byte, data ...byte) error {
	return b.dev.Tx(append([]byte{reg}, data...), nil)
}

func (b *MotorBoard) configure() error {
	// Sleep, set the pre-scaler for 50Hz, reset, then enable auto-increment.
	if err := b.writeReg(regMode1, 0x11); err != nil {
		return err
	}
	if err := b.writeReg(regPreScale, 0x79); err != nil {
		return err
	}
	if err := b.writeReg(regMode1, 0x01); err != nil {
		return err
	}
	time.Sleep(time.Millisecond)
	return b.writeReg(regMode1, 0x81)
}

// SetPowers sets the pulse for each named motor. Unknown motors are an error;
// the remaining motors are still written.
func (b *MotorBoard) SetPowers(ctx context.Context, powers map[MotorName]float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var firstErr error
	for name, power := range powers {
		ch, ok := b.channels[name]
		if !ok {
			if firstErr == nil {
				firstErr = errors.Errorf("motor %s has no channel", name)
			}
			continue
		}
		if ch.Reversed {
			power = -power
		}
		if err := b.writeChannel(ch.Channel, pulseCounts(power)); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "set %s", name)
		}
	}
	return firstErr
}

// Stop sets every configured motor to neutral.
func (b *MotorBoard) Stop(ctx context.Context) error {
	powers := make(map[MotorName]float64, len(b.channels))
	for name := range b.channels {
		powers[name] = 0
	}
	return b.SetPowers(ctx, powers)
}

func (b *MotorBoard) writeChannel(channel int, counts uint16) error {
	if channel < 0 || channel > 15 {
		return errors.Errorf("pwm channel %d out of range", channel)
	}
	reg := byte(regLEDBase + channel*4)
	return b.writeReg(reg, 0, 0, byte(counts&0xff), byte(counts>>8))
}

// Close stops the motors and releases the bus.
func (b *MotorBoard) Close() error {
	err := b.Stop(context.Background())
	if b.bus != nil {
		if cerr := b.bus.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// pulseCounts converts a power in [-1, 1] to PWM off-counts.
func pulseCounts(power float64) uint16 {
	power = math.Max(-1, math.Min(1, power))
	span := pulseMax - pulseNeutral
	if power < 0 {
		span = pulseNeutral - pulseMin
	}
	pulse := float64(pulseNeutral) + power*float64(span)
	return uint16(math.Round(pwmMax * pulse / float64(pwmPeriod)))
}
