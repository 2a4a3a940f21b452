package teleop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edaniels/golog"

	"github.com/gwillem/teleopbot/pkg/arm"
	"github.com/gwillem/teleopbot/pkg/drive"
	"github.com/gwillem/teleopbot/pkg/gamepad"
	"github.com/gwillem/teleopbot/pkg/robot"
)

// Hardware is what the robot writes commands to and reads sensors from.
type Hardware interface {
	robot.Actuators
	robot.Sensors
}

// DriveBindings are the axes feeding the drivetrain mixer.
type DriveBindings struct {
	Strafe      gamepad.AxisBinding
	Forward     gamepad.AxisBinding
	RotateLeft  gamepad.AxisBinding
	RotateRight gamepad.AxisBinding
}

// ArmBindings are the axes feeding the arm controller.
type ArmBindings struct {
	Base           gamepad.AxisBinding
	SpindleExtend  gamepad.AxisBinding
	SpindleRetract gamepad.AxisBinding
	WristPitch     gamepad.AxisBinding
	WristRoll      gamepad.AxisBinding
}

// State is the outcome of one tick.
type State struct {
	Wheels           drive.WheelPowers
	Multiplier       float64
	Arm              arm.State
	ArmBottomPressed bool
	// Fired lists the buttons whose actions ran this tick.
	Fired []gamepad.ButtonBinding
	// InputErr is set when a controller sample was rejected and the
	// previous sample was used instead.
	InputErr  error
	Timestamp time.Time
}

// Robot maps controller input to actuator commands, one tick at a time.
// It is not safe for concurrent use; the Controller serializes ticks.
type Robot struct {
	hw     Hardware
	logger golog.Logger

	snapshot gamepad.Snapshot
	buttons  gamepad.Registry[*Robot]
	mixer    *drive.Mixer
	arm      *arm.Controller

	drive DriveBindings
	armIn ArmBindings
}

// NewRobot creates a robot driving hw. Until bindings are registered every
// axis reads zero and no button does anything.
func NewRobot(hw Hardware, cfg arm.Config, logger golog.Logger) *Robot {
	return &Robot{
		hw:     hw,
		logger: logger,
		mixer:  drive.NewMixer(),
		arm:    arm.New(cfg),
	}
}

// Initialize closes both claws, moves the wrist to its start position and
// stops every motor.
func (r *Robot) Initialize(ctx context.Context) error {
	r.arm.SetClaw(arm.Left, arm.Closed)
	r.arm.SetClaw(arm.Right, arm.Closed)
	err := r.write(ctx, drive.WheelPowers{}, r.arm.State())
	if err != nil {
		return fmt.Errorf("initialize devices: %w", err)
	}
	r.logger.Info("initialized devices")
	return nil
}

// RegisterButton runs action on every press of b, replacing any earlier action.
func (r *Robot) RegisterButton(b gamepad.ButtonBinding, action func(*Robot)) {
	r.buttons.Register(b, action)
}

// RegisterButtonFunc is RegisterButton for actions that do not need the robot.
func (r *Robot) RegisterButtonFunc(b gamepad.ButtonBinding, action func()) {
	r.buttons.RegisterFunc(b, action)
}

// RegisterDrivetrainButtons sets the drivetrain axes.
func (r *Robot) RegisterDrivetrainButtons(strafe, forward, rotateLeft, rotateRight gamepad.AxisBinding) {
	r.drive = DriveBindings{
		Strafe:      strafe,
		Forward:     forward,
		RotateLeft:  rotateLeft,
		RotateRight: rotateRight,
	}
}

// RegisterArmButtons sets the arm axes.
func (r *Robot) RegisterArmButtons(base, spindleExtend, spindleRetract, wristPitch, wristRoll gamepad.AxisBinding) {
	r.armIn = ArmBindings{
		Base:           base,
		SpindleExtend:  spindleExtend,
		SpindleRetract: spindleRetract,
		WristPitch:     wristPitch,
		WristRoll:      wristRoll,
	}
}

// Buttons returns the bound buttons.
func (r *Robot) Buttons() []gamepad.ButtonBinding {
	return r.buttons.Bindings()
}

// SwitchDirection reverses the drivetrain.
func (r *Robot) SwitchDirection() {
	r.mixer.ToggleDirection()
}

// SetClaw commands a claw. The position is written on the next tick.
func (r *Robot) SetClaw(side arm.Side, state arm.ClawState) {
	r.arm.SetClaw(side, state)
}

// Tick runs one control cycle with fresh samples from both controllers.
// A nil or malformed sample is reported in State.InputErr and the previous
// sample is reused. The returned error reports failed hardware writes; the
// state is valid either way.
func (r *Robot) Tick(ctx context.Context, pad1, pad2 *gamepad.Gamepad) (State, error) {
	state := State{Timestamp: time.Now()}
	state.InputErr = r.snapshot.Update(pad1, pad2)

	state.Fired = r.buttons.Dispatch(&r.snapshot, r)
	for _, b := range state.Fired {
		r.logger.Debugw("button pressed", "input", b.String())
	}

	s := &r.snapshot
	state.Wheels = r.mixer.Update(
		r.drive.Strafe.Get(s),
		r.drive.Forward.Get(s),
		r.drive.RotateLeft.Get(s),
		r.drive.RotateRight.Get(s),
	)
	state.Multiplier = r.mixer.Multiplier()

	state.Arm = r.arm.Update(arm.Inputs{
		Base:           r.armIn.Base.Get(s),
		SpindleExtend:  r.armIn.SpindleExtend.Get(s),
		SpindleRetract: r.armIn.SpindleRetract.Get(s),
		WristPitch:     r.armIn.WristPitch.Get(s),
		WristRoll:      r.armIn.WristRoll.Get(s),
	}, r.hw.SpindlePosition())
	state.ArmBottomPressed = r.hw.ArmBottomPressed()

	return state, r.write(ctx, state.Wheels, state.Arm)
}

// Stop sets every motor to zero power.
func (r *Robot) Stop(ctx context.Context) error {
	powers := make(map[robot.MotorName]float64, len(robot.AllMotors()))
	for _, name := range robot.AllMotors() {
		powers[name] = 0
	}
	return r.hw.SetPowers(ctx, powers)
}

func (r *Robot) write(ctx context.Context, wheels drive.WheelPowers, a arm.State) error {
	powers := make(map[robot.MotorName]float64, len(robot.AllMotors()))
	for i, name := range robot.DriveMotors() {
		powers[name] = wheels[i]
	}
	powers[robot.ArmBaseDrive] = a.BasePower
	powers[robot.SpindleDrive] = a.SpindlePower

	positions := map[robot.ServoName]float64{
		robot.WristPitch: a.WristPitch,
		robot.WristRoll:  a.WristRoll,
		robot.LeftClaw:   a.Claws[arm.Left],
		robot.RightClaw:  a.Claws[arm.Right],
	}

	var errs []error
	if err := r.hw.SetPowers(ctx, powers); err != nil {
		errs = append(errs, fmt.Errorf("set motor powers: %w", err))
	}
	if err := r.hw.SetPositions(ctx, positions); err != nil {
		errs = append(errs, fmt.Errorf("set servo positions: %w", err))
	}
	return errors.Join(errs...)
}
