package robot

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestServoCalibration_Position(t *testing.T) {
	cal := ServoCalibration{
		RangeMin: 1000,
		RangeMax: 3000,
	}

	tests := []struct {
		raw      int
		expected float64
	}{
		{1000, 0},    // min -> 0
		{3000, 1},    // max -> 1
		{2000, 0.5},  // mid -> 0.5
		{1500, 0.25}, // quarter
		{2600, 0.8},  // claw open
	}

	for _, tt := range tests {
		got := cal.Position(tt.raw)
		if math.Abs(got-tt.expected) > 0.001 {
			t.Errorf("Position(%d) = %f, want %f", tt.raw, got, tt.expected)
		}
	}
}

func TestServoCalibration_Raw(t *testing.T) {
	cal := ServoCalibration{
		RangeMin: 1000,
		RangeMax: 3000,
	}

	tests := []struct {
		pos      float64
		expected int
	}{
		{0, 1000},
		{1, 3000},
		{0.5, 2000},
		{0.25, 1500},
		{-0.5, 1000}, // clamped
		{1.5, 3000},  // clamped
	}

	for _, tt := range tests {
		got := cal.Raw(tt.pos)
		if got != tt.expected {
			t.Errorf("Raw(%f) = %d, want %d", tt.pos, got, tt.expected)
		}
	}
}

func TestServoCalibration_ReversedRange(t *testing.T) {
	cal := ServoCalibration{RangeMin: 3000, RangeMax: 1000}
	if got := cal.Raw(0.25); got != 2500 {
		t.Errorf("Raw(0.25) = %d, want 2500", got)
	}
	if got := cal.Position(2500); math.Abs(got-0.25) > 0.001 {
		t.Errorf("Position(2500) = %f, want 0.25", got)
	}
}

func TestServoCalibration_RoundTrip(t *testing.T) {
	cal := ServoCalibration{
		RangeMin: 823,
		RangeMax: 3540,
	}

	for raw := cal.RangeMin; raw <= cal.RangeMax; raw += 100 {
		pos := cal.Position(raw)
		back := cal.Raw(pos)
		if math.Abs(float64(back-raw)) > 1 {
			t.Errorf("Round-trip failed: %d -> %f -> %d", raw, pos, back)
		}
	}
}

func TestCalibration_ServoIDs(t *testing.T) {
	cal := Calibration{
		RightClaw:  ServoCalibration{ID: 4},
		WristPitch: ServoCalibration{ID: 1},
		LeftClaw:   ServoCalibration{ID: 3},
		WristRoll:  ServoCalibration{ID: 2},
	}

	ids := cal.ServoIDs()
	expected := []int{1, 2, 3, 4}

	if len(ids) != len(expected) {
		t.Fatalf("ServoIDs returned %d IDs, want %d", len(ids), len(expected))
	}

	for i, id := range ids {
		if id != expected[i] {
			t.Errorf("ServoIDs()[%d] = %d, want %d", i, id, expected[i])
		}
	}
}

func TestCalibration_ByID(t *testing.T) {
	cal := Calibration{
		WristPitch: ServoCalibration{ID: 1, RangeMin: 100, RangeMax: 200},
		RightClaw:  ServoCalibration{ID: 4, RangeMin: 300, RangeMax: 400},
	}

	name, sc, ok := cal.ByID(1)
	if !ok {
		t.Fatal("ByID(1) returned false")
	}
	if name != WristPitch {
		t.Errorf("ByID(1) returned name %s, want verticalwrist", name)
	}
	if sc.RangeMin != 100 {
		t.Errorf("ByID(1) returned wrong calibration: %+v", sc)
	}

	_, _, ok = cal.ByID(99)
	if ok {
		t.Error("ByID(99) should return false")
	}
}

func TestLoadCalibration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.json")
	data := `{"lclawservo": {"id": 3, "range_min": 1200, "range_max": 2800}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cal, err := LoadCalibration(path)
	if err != nil {
		t.Fatalf("LoadCalibration() = %v", err)
	}
	if got := cal[LeftClaw]; got.ID != 3 || got.RangeMax != 2800 {
		t.Errorf("lclawservo = %+v", got)
	}

	if _, err := LoadCalibration(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadCalibration of a missing file should fail")
	}
}

func TestConfig_WriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)

	cfg := DefaultConfig()
	cfg.Servos.Port = "/dev/ttyACM0"
	cfg.Servos.Calibration = Calibration{
		WristPitch: {ID: 1, RangeMin: 1000, RangeMax: 3000},
	}
	if cfg.Servos.IsCalibrated() {
		t.Error("partial calibration should not count as calibrated")
	}
	if err := cfg.Write(path); err != nil {
		t.Fatalf("Write() = %v", err)
	}

	loaded, err := ReadConfig(path)
	if err != nil {
		t.Fatalf("ReadConfig() = %v", err)
	}
	if loaded.Servos.Port != "/dev/ttyACM0" {
		t.Errorf("port = %q", loaded.Servos.Port)
	}
	if loaded.Servos.Calibration[WristPitch].RangeMax != 3000 {
		t.Errorf("calibration = %+v", loaded.Servos.Calibration)
	}
	if ch := loaded.Motors.Channels[LeftFrontDrive]; !ch.Reversed || ch.Channel != 0 {
		t.Errorf("lfdrive channel = %+v", ch)
	}
	if loaded.Gamepads[1] != "/dev/input/js1" {
		t.Errorf("gamepads = %v", loaded.Gamepads)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		errMsg string
	}{
		{"default", func(c *Config) {}, ""},
		{"partial calibration", func(c *Config) {
			c.Servos.Calibration = Calibration{LeftClaw: {ID: 3, RangeMin: 2000, RangeMax: 2800}}
		}, ""},
		{"shared channel", func(c *Config) {
			c.Motors.Channels[SpindleDrive] = MotorChannel{Channel: 4}
		}, "share channel 4"},
		{"channel out of range", func(c *Config) {
			c.Motors.Channels[ArmBaseDrive] = MotorChannel{Channel: 16}
		}, "out of range"},
		{"missing motor", func(c *Config) {
			delete(c.Motors.Channels, RightBackDrive)
		}, "rbdrive has no channel"},
		{"same encoder pins", func(c *Config) {
			c.Spindle.PinB = c.Spindle.PinA
		}, "two distinct pins"},
		{"no touch pin", func(c *Config) {
			c.ArmBottom.Pin = ""
		}, "arm bottom"},
		{"empty servo range", func(c *Config) {
			c.Servos.Calibration = Calibration{WristRoll: {ID: 2, RangeMin: 2048, RangeMax: 2048}}
		}, "empty range"},
		{"duplicate servo ID", func(c *Config) {
			c.Servos.Calibration = Calibration{
				LeftClaw:  {ID: 3, RangeMin: 2000, RangeMax: 2800},
				RightClaw: {ID: 3, RangeMin: 1200, RangeMax: 2000},
			}
		}, "share ID 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() = %v, want it to mention %q", err, tt.errMsg)
			}
		})
	}
}

func TestReadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := DefaultConfig()
	bad.ArmBottom.Pin = ""
	invalid := filepath.Join(dir, "invalid.json")
	if err := bad.Write(invalid); err != nil {
		t.Fatalf("Write() = %v", err)
	}
	garbled := filepath.Join(dir, "garbled.json")
	if err := os.WriteFile(garbled, []byte("{servos"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{invalid, garbled, filepath.Join(dir, "missing.json")} {
		if _, err := ReadConfig(path); err == nil {
			t.Errorf("ReadConfig(%s) = nil, want error", filepath.Base(path))
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("%d files in config dir, want 2 (no temp files left)", len(entries))
	}
}
