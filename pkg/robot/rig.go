package robot

import (
	"context"
	"fmt"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"periph.io/x/periph/host"
)

// Rig is the physical robot: servo bus, motor board and sensors.
type Rig struct {
	servos  *ServoBus
	motors  *MotorBoard
	encoder *Encoder
	touch   *TouchSensor

	cancel context.CancelFunc
	done   chan struct{}
	logger golog.Logger
}

var _ Hardware = (*Rig)(nil)

// Open brings up every device in cfg and starts the encoder. Devices opened
// before a failure are closed again.
func Open(cfg *Config, logger golog.Logger) (*Rig, error) {
	if !cfg.Servos.IsCalibrated() {
		return nil, errors.New("servos not calibrated")
	}
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "initialize periph host")
	}

	r := &Rig{logger: logger, done: make(chan struct{})}
	if err := r.openDevices(cfg); err != nil {
		if cerr := r.closeDevices(); cerr != nil {
			logger.Warnw("failed to release devices", "error", cerr)
		}
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	go func() {
		defer close(r.done)
		r.encoder.Run(ctx)
	}()

	if err := r.servos.Enable(ctx); err != nil {
		logger.Warnw("failed to enable servos", "error", err)
	}

	return r, nil
}

func (r *Rig) openDevices(cfg *Config) error {
	var err error
	if r.servos, err = NewServoBus(cfg.Servos.Port, cfg.Servos.Calibration); err != nil {
		return err
	}
	r.logger.Infow("servo bus open", "port", cfg.Servos.Port, "ids", cfg.Servos.Calibration.ServoIDs())

	if r.motors, err = OpenMotorBoard(cfg.Motors); err != nil {
		return err
	}
	r.logger.Infow("motor board open", "bus", cfg.Motors.Bus, "address", fmt.Sprintf("%#x", cfg.Motors.Address))

	if r.encoder, err = OpenEncoder(cfg.Spindle); err != nil {
		return errors.Wrap(err, "spindle encoder")
	}
	if r.touch, err = OpenTouchSensor(cfg.ArmBottom); err != nil {
		return errors.Wrap(err, "arm bottom sensor")
	}
	return nil
}

// SetPowers implements Actuators.
func (r *Rig) SetPowers(ctx context.Context, powers map[MotorName]float64) error {
	return r.motors.SetPowers(ctx, powers)
}

// SetPositions implements Actuators.
func (r *Rig) SetPositions(ctx context.Context, positions map[ServoName]float64) error {
	return r.servos.SetPositions(ctx, positions)
}

// ServoPositions reads the servo positions back from the bus.
func (r *Rig) ServoPositions(ctx context.Context) (map[ServoName]float64, error) {
	return r.servos.ReadPositions(ctx)
}

// SpindlePosition implements Sensors.
func (r *Rig) SpindlePosition() int {
	return r.encoder.Position()
}

// ArmBottomPressed implements Sensors.
func (r *Rig) ArmBottomPressed() bool {
	return r.touch.Pressed()
}

// Close stops the motors, relaxes the servos and releases every device.
func (r *Rig) Close() error {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
	return r.closeDevices()
}

func (r *Rig) closeDevices() error {
	var errs []error
	if r.motors != nil {
		if err := r.motors.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.servos != nil {
		if err := r.servos.Disable(context.Background()); err != nil {
			r.logger.Warnw("failed to disable servos", "error", err)
		}
		if err := r.servos.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
