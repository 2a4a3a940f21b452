// Package teleopbot drives a mecanum-wheeled robot with a two-stage arm from
// two gamepads.
//
// Gamepad 1 drives: the right stick strafes and moves forward, the triggers
// rotate and A reverses the drive direction. Gamepad 2 runs the arm: the left
// stick moves the arm base, the triggers extend and retract the spindle, the
// right stick moves the wrist and A/B/X/Y open and close the claws.
//
// # Installation
//
//	go install github.com/gwillem/teleopbot/cmd/teleopbot@latest
//
// # Usage
//
// First, run setup to find the servo bus, pick the gamepads and calibrate
// the wrist and claw servos:
//
//	teleopbot setup
//
// Then start teleoperation:
//
//	teleopbot teleoperate
//
// Use --sim to try the bindings without hardware, and --profile to load
// custom bindings written by
//
//	teleopbot profile -o bindings.yaml
//
// # Packages
//
//   - cmd/teleopbot: CLI with setup, teleoperate, profile and info commands
//   - pkg/gamepad: controller samples, edge detection and the button registry
//   - pkg/drive: mecanum wheel mixing
//   - pkg/arm: arm base, spindle soft limit, wrist and claws
//   - pkg/robot: motor board, servo bus, sensors, configuration
//   - pkg/joystick: Linux joystick reader
//   - pkg/teleop: per-tick robot logic, control loop and bindings profiles
package teleopbot
