package robot

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/edaniels/golog"
)

func calibratedConfig(port string) *Config {
	cfg := DefaultConfig()
	cfg.Servos.Port = port
	cfg.Servos.Calibration = make(Calibration)
	for i, name := range AllServos() {
		cfg.Servos.Calibration[name] = ServoCalibration{ID: i + 1, RangeMin: 1000, RangeMax: 3000}
	}
	return cfg
}

func TestOpen_Errors(t *testing.T) {
	missingPort := filepath.Join(t.TempDir(), "ttyUSB9")

	tests := []struct {
		name   string
		cfg    *Config
		errMsg string
	}{
		{"missing servo bus", calibratedConfig(missingPort), "open servo bus"},
		{"uncalibrated", DefaultConfig(), "not calibrated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rig, err := Open(tt.cfg, golog.NewTestLogger(t))
			if err == nil {
				rig.Close()
				t.Fatal("Open() = nil, want error")
			}
			if rig != nil {
				t.Errorf("Open() returned a rig with error %v", err)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Open() = %v, want it to mention %q", err, tt.errMsg)
			}
		})
	}
}

func TestRig_ClosePartial(t *testing.T) {
	conn := &fakeConn{}
	r := &Rig{
		motors: newMotorBoard(conn, DefaultConfig().Motors.Channels),
		logger: golog.NewTestLogger(t),
	}
	if err := r.closeDevices(); err != nil {
		t.Fatalf("closeDevices() = %v", err)
	}
	for ch := 0; ch < 6; ch++ {
		if got := conn.lastCounts(t, ch); got != 307 {
			t.Errorf("channel %d counts = %d, want 307", ch, got)
		}
	}

	if err := (&Rig{logger: golog.NewTestLogger(t)}).closeDevices(); err != nil {
		t.Errorf("closeDevices() with no devices = %v", err)
	}
}
