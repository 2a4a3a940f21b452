package robot

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/gwillem/teleopbot/pkg/arm"
)

// DefaultConfigFile is where setup writes the rig configuration.
const DefaultConfigFile = "teleopbot.json"

// Config holds the rig configuration
type Config struct {
	Servos    ServoBusConfig    `json:"servos"`
	Motors    MotorBoardConfig  `json:"motors"`
	Spindle   EncoderConfig     `json:"spindle_encoder"`
	ArmBottom TouchSensorConfig `json:"arm_bottom"`
	Arm       arm.Config        `json:"arm"`
	// Gamepads lists the joystick device for controller 1 and 2
	Gamepads [2]string `json:"gamepads"`
}

// ServoBusConfig holds configuration for the servo bus
type ServoBusConfig struct {
	Port        string      `json:"port"`
	Calibration Calibration `json:"calibration,omitempty"`
}

// IsCalibrated returns true if every servo has calibration data
func (s *ServoBusConfig) IsCalibrated() bool {
	for _, name := range AllServos() {
		if _, ok := s.Calibration[name]; !ok {
			return false
		}
	}
	return true
}

// MotorBoardConfig holds configuration for the PWM motor board
type MotorBoardConfig struct {
	Bus      string                     `json:"i2c_bus"`
	Address  uint16                     `json:"address"`
	Channels map[MotorName]MotorChannel `json:"channels"`
}

// MotorChannel maps a motor to a PWM output
type MotorChannel struct {
	Channel  int  `json:"channel"`
	Reversed bool `json:"reversed,omitempty"`
}

// EncoderConfig names the GPIO pins of a quadrature encoder
type EncoderConfig struct {
	PinA string `json:"pin_a"`
	PinB string `json:"pin_b"`
	// Reversed flips the count direction
	Reversed bool `json:"reversed,omitempty"`
}

// TouchSensorConfig names the GPIO pin of a touch sensor
type TouchSensorConfig struct {
	Pin string `json:"pin"`
}

// DefaultConfig returns a configuration with the stock wiring and no servo
// bus port or calibration.
func DefaultConfig() *Config {
	return &Config{
		Motors: MotorBoardConfig{
			Address: DefaultMotorBoardAddress,
			Channels: map[MotorName]MotorChannel{
				// positive power drives every wheel forward
				LeftFrontDrive:  {Channel: 0, Reversed: true},
				RightFrontDrive: {Channel: 1},
				LeftBackDrive:   {Channel: 2, Reversed: true},
				RightBackDrive:  {Channel: 3},
				ArmBaseDrive:    {Channel: 4, Reversed: true},
				SpindleDrive:    {Channel: 5, Reversed: true},
			},
		},
		Spindle:   EncoderConfig{PinA: "GPIO17", PinB: "GPIO27"},
		ArmBottom: TouchSensorConfig{Pin: "GPIO22"},
		Arm:       arm.Config{WristPitch: 0.5, WristRoll: 0.27},
		Gamepads:  [2]string{"/dev/input/js0", "/dev/input/js1"},
	}
}

// ReadConfig reads a rig configuration. Fields missing from the file keep
// their DefaultConfig values; the result is validated.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read rig config")
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid %s", path)
	}
	return cfg, nil
}

// Write stores the configuration as indented JSON. The file is replaced
// atomically so an interrupted setup never leaves half a config behind.
func (c *Config) Write(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode rig config")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "write rig config")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write rig config")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "write rig config")
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return errors.Wrap(err, "write rig config")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "write rig config")
}

// Validate checks the wiring: every motor on its own PWM channel, distinct
// encoder pins, a touch sensor pin, and usable servo calibration. Missing
// calibration is not an error; see IsCalibrated.
func (c *Config) Validate() error {
	used := make(map[int]MotorName)
	for _, name := range AllMotors() {
		ch, ok := c.Motors.Channels[name]
		if !ok {
			return errors.Errorf("motor %s has no channel", name)
		}
		if ch.Channel < 0 || ch.Channel > 15 {
			return errors.Errorf("motor %s: channel %d out of range 0-15", name, ch.Channel)
		}
		if other, ok := used[ch.Channel]; ok {
			return errors.Errorf("motors %s and %s share channel %d", other, name, ch.Channel)
		}
		used[ch.Channel] = name
	}

	if c.Spindle.PinA == "" || c.Spindle.PinB == "" || c.Spindle.PinA == c.Spindle.PinB {
		return errors.Errorf("spindle encoder needs two distinct pins, got %q and %q", c.Spindle.PinA, c.Spindle.PinB)
	}
	if c.ArmBottom.Pin == "" {
		return errors.New("arm bottom sensor has no pin")
	}

	ids := make(map[int]ServoName)
	for _, name := range AllServos() {
		sc, ok := c.Servos.Calibration[name]
		if !ok {
			continue
		}
		if sc.RangeMin == sc.RangeMax {
			return errors.Errorf("servo %s has an empty range", name)
		}
		if other, ok := ids[sc.ID]; ok {
			return errors.Errorf("servos %s and %s share ID %d", other, name, sc.ID)
		}
		ids[sc.ID] = name
	}
	return nil
}
