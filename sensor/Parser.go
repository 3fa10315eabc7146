package sensor

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parse parses a sensor message of the form (name v1 v2 ...)(name v...)
// into a Snapshot. Readings the Snapshot has no field for are ignored.
func Parse(msg string) (Snapshot, error) {
	var s Snapshot

	rest := strings.TrimSpace(msg)
	for len(rest) > 0 {
		start := strings.IndexByte(rest, '(')
		if start < 0 {
			break
		}
		end := strings.IndexByte(rest[start:], ')')
		if end < 0 {
			return Snapshot{}, fmt.Errorf("parse: unterminated reading in %q",
				rest[start:])
		}

		fields := strings.Fields(rest[start+1 : start+end])
		rest = rest[start+end+1:]
		if len(fields) < 2 {
			continue
		}

		values := make([]float64, len(fields)-1)
		for i, field := range fields[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return Snapshot{}, fmt.Errorf("parse: reading %v: %w",
					fields[0], err)
			}
			values[i] = v
		}

		if err := s.set(fields[0], values); err != nil {
			return Snapshot{}, fmt.Errorf("parse: %w", err)
		}
	}

	return s, nil
}

// set stores the values of a named reading in the Snapshot
func (s *Snapshot) set(name string, values []float64) error {
	scalar := values[0]

	switch name {
	case "speedX":
		s.Speed = scalar
	case "speedY":
		s.LateralSpeed = scalar
	case "speedZ":
		s.SpeedZ = scalar
	case "angle":
		s.Angle = scalar
	case "trackPos":
		s.TrackPos = scalar
	case "gear":
		s.Gear = s.integer(scalar)
	case "rpm":
		s.RPM = scalar
	case "curLapTime":
		s.CurLapTime = scalar
	case "lastLapTime":
		s.LastLapTime = scalar
	case "distRaced":
		s.DistRaced = scalar
	case "distFromStart":
		s.DistFromStart = scalar
	case "damage":
		s.Damage = scalar
	case "fuel":
		s.Fuel = scalar
	case "racePos":
		s.RacePos = s.integer(scalar)
	case "z":
		s.Z = scalar
	case "track":
		return fill(name, s.Track[:], values)
	case "wheelSpinVel":
		return fill(name, s.WheelSpinVel[:], values)
	case "focus":
		return fill(name, s.Focus[:], values)
	case "opponents":
		return fill(name, s.Opponents[:], values)
	}
	return nil
}

// integer converts an integer reading. Readings that are not finite or
// do not fit an int32 are stored as 0 and mark the Snapshot malformed.
func (s *Snapshot) integer(v float64) int {
	if math.IsNaN(v) || math.Abs(v) > math.MaxInt32 {
		s.malformed = true
		return 0
	}
	return int(v)
}

func fill(name string, dst, values []float64) error {
	if len(values) != len(dst) {
		return fmt.Errorf("reading %v has %v values, expected %v", name,
			len(values), len(dst))
	}
	copy(dst, values)
	return nil
}
