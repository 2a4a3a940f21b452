package gamepad

import (
	"errors"
	"fmt"
)

// Player identifies one of the two controllers, 1 or 2.
type Player int

// Players.
const (
	Player1 Player = 1
	Player2 Player = 2
)

// Valid reports whether p names a controller.
func (p Player) Valid() bool {
	return p == Player1 || p == Player2
}

func (p Player) String() string {
	return fmt.Sprintf("gamepad%d", int(p))
}

// Snapshot holds the current and previous sample of both controllers.
// The zero value is ready to use, with every input released and centered.
type Snapshot struct {
	current  [2]Gamepad
	previous [2]Gamepad
}

// Update advances the snapshot by one tick: previous becomes current and
// current is replaced by the raw sample, for both controllers.
//
// A nil or invalid raw sample is not copied; that controller's current sample
// is held for this tick, so it appears unchanged and no edge fires twice. The
// returned error describes every rejected sample; the snapshot is usable
// regardless.
func (s *Snapshot) Update(raw1, raw2 *Gamepad) error {
	var errs []error
	for i, raw := range [2]*Gamepad{raw1, raw2} {
		s.previous[i] = s.current[i]
		if raw == nil {
			errs = append(errs, fmt.Errorf("%s: no sample", Player(i+1)))
			continue
		}
		if err := raw.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", Player(i+1), err))
			continue
		}
		s.current[i] = *raw
	}
	return errors.Join(errs...)
}

// Current returns the sample taken this tick. Invalid players read as a
// released, centered gamepad.
func (s *Snapshot) Current(p Player) Gamepad {
	if !p.Valid() {
		return Gamepad{}
	}
	return s.current[p-1]
}

// Previous returns the sample taken on the preceding tick.
func (s *Snapshot) Previous(p Player) Gamepad {
	if !p.Valid() {
		return Gamepad{}
	}
	return s.previous[p-1]
}
