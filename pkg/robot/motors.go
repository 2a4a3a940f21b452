// Package robot provides the hardware behind the teleop loop: drive and arm
// motors, servos, and the spindle and arm sensors.
package robot

import "context"

// MotorName identifies a DC motor.
type MotorName string

// Motor names, matching the device names in the rig configuration.
const (
	LeftFrontDrive  MotorName = "lfdrive"
	RightFrontDrive MotorName = "rfdrive"
	LeftBackDrive   MotorName = "lbdrive"
	RightBackDrive  MotorName = "rbdrive"
	ArmBaseDrive    MotorName = "armbasedrive"
	SpindleDrive    MotorName = "spindledrive"
)

// DriveMotors returns the drivetrain motors in mixing order
// (front-left, front-right, back-left, back-right).
func DriveMotors() []MotorName {
	return []MotorName{
		LeftFrontDrive,
		RightFrontDrive,
		LeftBackDrive,
		RightBackDrive,
	}
}

// AllMotors returns every motor.
func AllMotors() []MotorName {
	return append(DriveMotors(), ArmBaseDrive, SpindleDrive)
}

// ServoName identifies a positional servo.
type ServoName string

// Servo names.
const (
	WristPitch ServoName = "verticalwrist"
	WristRoll  ServoName = "horizontalwrist"
	LeftClaw   ServoName = "lclawservo"
	RightClaw  ServoName = "rclawservo"
)

// AllServos returns every servo in order (matching servo IDs 1-4).
func AllServos() []ServoName {
	return []ServoName{
		WristPitch,
		WristRoll,
		LeftClaw,
		RightClaw,
	}
}

// Actuators accepts motor powers and servo positions.
type Actuators interface {
	// SetPowers sets motor powers in [-1, 1]. Motors not in the map are left alone.
	SetPowers(ctx context.Context, powers map[MotorName]float64) error
	// SetPositions sets servo positions in [0, 1].
	SetPositions(ctx context.Context, positions map[ServoName]float64) error
}

// Sensors reports the spindle encoder and the arm-bottom touch sensor.
type Sensors interface {
	SpindlePosition() int
	ArmBottomPressed() bool
}

// Hardware is a complete rig.
type Hardware interface {
	Actuators
	Sensors
	Close() error
}
