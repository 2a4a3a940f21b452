package robot

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
)

const edgeTimeout = 100 * time.Millisecond

type levelPin interface {
	Read() gpio.Level
}

type edgePin interface {
	levelPin
	WaitForEdge(timeout time.Duration) bool
}

func openInput(name string, pull gpio.Pull, edge gpio.Edge) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errors.Errorf("gpio pin %q not found", name)
	}
	if err := p.In(pull, edge); err != nil {
		return nil, errors.Wrapf(err, "configure %s", name)
	}
	return p, nil
}

// Encoder counts quadrature ticks from two GPIO channels. Every edge of
// channel A is counted, its direction given by channel B.
type Encoder struct {
	a     edgePin
	b     levelPin
	sign  int64
	count atomic.Int64
}

// OpenEncoder configures the encoder pins. Call Run to start counting.
func OpenEncoder(cfg EncoderConfig) (*Encoder, error) {
	a, err := openInput(cfg.PinA, gpio.PullUp, gpio.BothEdges)
	if err != nil {
		return nil, err
	}
	b, err := openInput(cfg.PinB, gpio.PullUp, gpio.NoEdge)
	if err != nil {
		return nil, err
	}
	return newEncoder(a, b, cfg.Reversed), nil
}

func newEncoder(a edgePin, b levelPin, reversed bool) *Encoder {
	e := &Encoder{a: a, b: b, sign: 1}
	if reversed {
		e.sign = -1
	}
	return e
}

// Run counts edges until ctx is done. A pin that returns from WaitForEdge
// early without an edge is polled at most once per edgeTimeout.
func (e *Encoder) Run(ctx context.Context) {
	for ctx.Err() == nil {
		start := time.Now()
		if e.a.WaitForEdge(edgeTimeout) {
			e.step()
			continue
		}
		if rest := edgeTimeout - time.Since(start); rest > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(rest):
			}
		}
	}
}

func (e *Encoder) step() {
	if e.a.Read() == e.b.Read() {
		e.count.Add(-e.sign)
	} else {
		e.count.Add(e.sign)
	}
}

// Position returns the tick count since start or the last Reset.
func (e *Encoder) Position() int {
	return int(e.count.Load())
}

// Reset zeroes the tick count.
func (e *Encoder) Reset() {
	e.count.Store(0)
}

// TouchSensor is a normally-open switch to ground on a pulled-up input.
type TouchSensor struct {
	pin levelPin
}

// OpenTouchSensor configures the sensor pin.
func OpenTouchSensor(cfg TouchSensorConfig) (*TouchSensor, error) {
	p, err := openInput(cfg.Pin, gpio.PullUp, gpio.NoEdge)
	if err != nil {
		return nil, err
	}
	return &TouchSensor{pin: p}, nil
}

// Pressed reports whether the switch is closed.
func (t *TouchSensor) Pressed() bool {
	return t.pin.Read() == gpio.Low
}
