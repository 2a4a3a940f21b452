package robot

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// ServoCalibration holds calibration data for a single bus servo.
type ServoCalibration struct {
	ID       int `json:"id"`
	RangeMin int `json:"range_min"`
	RangeMax int `json:"range_max"`
}

// Calibration holds calibration data for all servos, keyed by servo name.
type Calibration map[ServoName]ServoCalibration

// LoadCalibration loads calibration data from a JSON file.
func LoadCalibration(path string) (Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration file: %w", err)
	}

	var raw map[string]ServoCalibration
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse calibration JSON: %w", err)
	}

	cal := make(Calibration, len(raw))
	for name, sc := range raw {
		cal[ServoName(name)] = sc
	}

	return cal, nil
}

// Position converts a raw servo position to a position in [0, 1].
func (c ServoCalibration) Position(raw int) float64 {
	rangeSize := float64(c.RangeMax - c.RangeMin)
	if rangeSize == 0 {
		return 0
	}
	return float64(raw-c.RangeMin) / rangeSize
}

// Raw converts a position in [0, 1] to a raw servo position. Positions
// outside [0, 1] are clamped to the calibrated range.
func (c ServoCalibration) Raw(pos float64) int {
	if pos < 0 {
		pos = 0
	} else if pos > 1 {
		pos = 1
	}
	rangeSize := float64(c.RangeMax - c.RangeMin)
	return int(math.Round(pos*rangeSize)) + c.RangeMin
}

// ServoIDs returns the bus IDs for all servos in the calibration.
func (c Calibration) ServoIDs() []int {
	ids := make([]int, 0, len(c))
	// AllServos() keeps the order stable
	for _, name := range AllServos() {
		if sc, ok := c[name]; ok {
			ids = append(ids, sc.ID)
		}
	}
	return ids
}

// ByID returns servo name and calibration for a given bus ID.
func (c Calibration) ByID(id int) (ServoName, ServoCalibration, bool) {
	for name, sc := range c {
		if sc.ID == id {
			return name, sc, true
		}
	}
	return "", ServoCalibration{}, false
}
