package teleop

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"

	"github.com/gwillem/teleopbot/pkg/arm"
	"github.com/gwillem/teleopbot/pkg/gamepad"
)

// Actions available to button bindings in a profile.
var actions = map[string]func(*Robot){
	"switch_direction": (*Robot).SwitchDirection,
	"open_left_claw":   func(r *Robot) { r.SetClaw(arm.Left, arm.Open) },
	"close_left_claw":  func(r *Robot) { r.SetClaw(arm.Left, arm.Closed) },
	"open_right_claw":  func(r *Robot) { r.SetClaw(arm.Right, arm.Open) },
	"close_right_claw": func(r *Robot) { r.SetClaw(arm.Right, arm.Closed) },
}

// ActionNames returns the names usable in a profile, sorted.
func ActionNames() []string {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InputRef names a controller field in a profile.
type InputRef struct {
	Gamepad int    `yaml:"gamepad"`
	Button  string `yaml:"button,omitempty"`
	Axis    string `yaml:"axis,omitempty"`
}

func (in InputRef) player() (gamepad.Player, error) {
	p := gamepad.Player(in.Gamepad)
	if !p.Valid() {
		return 0, fmt.Errorf("gamepad must be 1 or 2, got %d", in.Gamepad)
	}
	return p, nil
}

func (in InputRef) button() (gamepad.ButtonBinding, error) {
	p, err := in.player()
	if err != nil {
		return gamepad.ButtonBinding{}, err
	}
	b, err := gamepad.ParseButton(in.Button)
	if err != nil {
		return gamepad.ButtonBinding{}, err
	}
	return gamepad.BindButton(p, b), nil
}

func (in InputRef) axis() (gamepad.AxisBinding, error) {
	p, err := in.player()
	if err != nil {
		return gamepad.AxisBinding{}, err
	}
	a, err := gamepad.ParseAxis(in.Axis)
	if err != nil {
		return gamepad.AxisBinding{}, err
	}
	return gamepad.BindAxis(p, a), nil
}

// ButtonAction binds a button to a named action.
type ButtonAction struct {
	InputRef `yaml:",inline"`
	Action   string `yaml:"action"`
}

// DriveProfile names the drivetrain axes.
type DriveProfile struct {
	Strafe      InputRef `yaml:"strafe"`
	Forward     InputRef `yaml:"forward"`
	RotateLeft  InputRef `yaml:"rotate_left"`
	RotateRight InputRef `yaml:"rotate_right"`
}

// ArmProfile names the arm axes.
type ArmProfile struct {
	Base           InputRef `yaml:"base"`
	SpindleExtend  InputRef `yaml:"spindle_extend"`
	SpindleRetract InputRef `yaml:"spindle_retract"`
	WristPitch     InputRef `yaml:"wrist_pitch"`
	WristRoll      InputRef `yaml:"wrist_roll"`
}

// Profile is a complete set of control bindings.
type Profile struct {
	Buttons    []ButtonAction `yaml:"buttons"`
	Drivetrain DriveProfile   `yaml:"drivetrain"`
	Arm        ArmProfile     `yaml:"arm"`
}

// DefaultProfile returns the competition bindings: driver on gamepad 1,
// arm operator on gamepad 2.
func DefaultProfile() *Profile {
	return &Profile{
		Buttons: []ButtonAction{
			{InputRef{Gamepad: 1, Button: "a"}, "switch_direction"},
			{InputRef{Gamepad: 2, Button: "a"}, "open_left_claw"},
			{InputRef{Gamepad: 2, Button: "b"}, "close_left_claw"},
			{InputRef{Gamepad: 2, Button: "x"}, "open_right_claw"},
			{InputRef{Gamepad: 2, Button: "y"}, "close_right_claw"},
		},
		Drivetrain: DriveProfile{
			Strafe:      InputRef{Gamepad: 1, Axis: "right_stick_y"},
			Forward:     InputRef{Gamepad: 1, Axis: "right_stick_x"},
			RotateLeft:  InputRef{Gamepad: 1, Axis: "left_trigger"},
			RotateRight: InputRef{Gamepad: 1, Axis: "right_trigger"},
		},
		Arm: ArmProfile{
			Base:           InputRef{Gamepad: 2, Axis: "left_stick_y"},
			SpindleExtend:  InputRef{Gamepad: 2, Axis: "right_trigger"},
			SpindleRetract: InputRef{Gamepad: 2, Axis: "left_trigger"},
			WristPitch:     InputRef{Gamepad: 2, Axis: "right_stick_y"},
			WristRoll:      InputRef{Gamepad: 2, Axis: "right_stick_x"},
		},
	}
}

// LoadProfile reads a YAML profile.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile parses a YAML profile.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.UnmarshalStrict(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	return &p, nil
}

// Marshal encodes the profile as YAML.
func (p *Profile) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}

// Apply registers the profile's bindings on r. Nothing is registered unless
// the whole profile is valid.
func (p *Profile) Apply(r *Robot) error {
	type boundAction struct {
		binding gamepad.ButtonBinding
		action  func(*Robot)
	}
	var buttons []boundAction
	for i, ba := range p.Buttons {
		b, err := ba.button()
		if err != nil {
			return fmt.Errorf("buttons[%d]: %w", i, err)
		}
		action, ok := actions[ba.Action]
		if !ok {
			return fmt.Errorf("buttons[%d]: unknown action %q", i, ba.Action)
		}
		buttons = append(buttons, boundAction{b, action})
	}

	drive, err := resolveAxes([]namedRef{
		{"strafe", p.Drivetrain.Strafe},
		{"forward", p.Drivetrain.Forward},
		{"rotate_left", p.Drivetrain.RotateLeft},
		{"rotate_right", p.Drivetrain.RotateRight},
	})
	if err != nil {
		return fmt.Errorf("drivetrain.%w", err)
	}
	armAxes, err := resolveAxes([]namedRef{
		{"base", p.Arm.Base},
		{"spindle_extend", p.Arm.SpindleExtend},
		{"spindle_retract", p.Arm.SpindleRetract},
		{"wrist_pitch", p.Arm.WristPitch},
		{"wrist_roll", p.Arm.WristRoll},
	})
	if err != nil {
		return fmt.Errorf("arm.%w", err)
	}

	for _, b := range buttons {
		r.RegisterButton(b.binding, b.action)
	}
	r.RegisterDrivetrainButtons(drive[0], drive[1], drive[2], drive[3])
	r.RegisterArmButtons(armAxes[0], armAxes[1], armAxes[2], armAxes[3], armAxes[4])
	return nil
}

type namedRef struct {
	name string
	ref  InputRef
}

// resolveAxes resolves refs in order and reports the first bad one.
func resolveAxes(refs []namedRef) ([]gamepad.AxisBinding, error) {
	out := make([]gamepad.AxisBinding, len(refs))
	for i, r := range refs {
		b, err := r.ref.axis()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.name, err)
		}
		out[i] = b
	}
	return out, nil
}
