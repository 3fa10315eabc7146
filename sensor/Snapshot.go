// Package sensor implements the per-tick sensor readings sent by the
// race server
package sensor

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r1"
)

const (
	// NumTrack is the number of track edge range finders
	NumTrack = 19

	// Indices of the range finders pointing 5 degrees right, straight
	// ahead, and 5 degrees left of the car axis
	TrackRight  = 10
	TrackCenter = 9
	TrackLeft   = 8
)

// Stage is the stage of a race weekend
type Stage int

const (
	Warmup Stage = iota
	Qualifying
	Race
	Unknown
)

func (s Stage) String() string {
	switch s {
	case Warmup:
		return "warmup"
	case Qualifying:
		return "qualifying"
	case Race:
		return "race"
	default:
		return "unknown"
	}
}

// ParseStage returns the Stage named by s
func ParseStage(s string) Stage {
	for _, stage := range []Stage{Warmup, Qualifying, Race} {
		if stage.String() == s {
			return stage
		}
	}
	return Unknown
}

// Snapshot packages together the readings of a single simulation tick.
// Snapshots are values: all arrays are copied on assignment so that a
// Snapshot kept from a previous tick is never changed by a later one.
type Snapshot struct {
	Speed         float64 // km/h along the car axis
	LateralSpeed  float64 // km/h perpendicular to the car axis
	SpeedZ        float64
	Angle         float64 // radians between car and track axis
	TrackPos      float64 // 0 on the axis, |TrackPos| >= 1 off the track
	Gear          int
	RPM           float64
	CurLapTime    float64
	LastLapTime   float64
	DistRaced     float64
	DistFromStart float64
	Damage        float64
	Fuel          float64
	RacePos       int
	Z             float64

	Track        [NumTrack]float64
	WheelSpinVel [4]float64 // rad/s
	Focus        [5]float64
	Opponents    [36]float64

	// An integer reading was not a representable number
	malformed bool
}

// OffTrack returns whether the car is outside the track edges
func (s Snapshot) OffTrack() bool {
	return math.Abs(s.TrackPos) >= 1
}

// MeanWheelSpeed returns the mean linear speed of the wheels in m/s
// given the radius of each wheel
func (s Snapshot) MeanWheelSpeed(radius [4]float64) float64 {
	speeds := make([]float64, len(s.WheelSpinVel))
	floats.MulTo(speeds, s.WheelSpinVel[:], radius[:])
	return floats.Sum(speeds) / float64(len(speeds))
}

// limits are the physically plausible bounds of each reading
var limits = struct {
	speed, angle, trackPos, rpm, time, dist, track, spin, gear r1.Interval
}{
	speed:    r1.Interval{Min: -500, Max: 500},
	angle:    r1.Interval{Min: -math.Pi, Max: math.Pi},
	trackPos: r1.Interval{Min: -100, Max: 100},
	rpm:      r1.Interval{Min: 0, Max: 25000},
	time:     r1.Interval{Min: -1e6, Max: 1e6},
	dist:     r1.Interval{Min: -1e9, Max: 1e9},
	track:    r1.Interval{Min: -1, Max: 200},
	spin:     r1.Interval{Min: -1e4, Max: 1e4},
	gear:     r1.Interval{Min: -1, Max: 6},
}

// Sanitize returns a copy of the Snapshot with every NaN reading set to
// zero and every infinite or out-of-range reading clamped to its
// bounds. The returned boolean is false if any reading was changed or
// an integer reading could not be parsed, in which case the tick should
// not be used for learning.
func (s Snapshot) Sanitize() (Snapshot, bool) {
	ok := !s.malformed
	s.malformed = false
	fix := func(v *float64, in r1.Interval) {
		switch {
		case math.IsNaN(*v):
			*v = 0
		case *v < in.Min:
			*v = in.Min
		case *v > in.Max:
			*v = in.Max
		default:
			return
		}
		ok = false
	}

	fix(&s.Speed, limits.speed)
	fix(&s.LateralSpeed, limits.speed)
	fix(&s.SpeedZ, limits.speed)
	fix(&s.Angle, limits.angle)
	fix(&s.TrackPos, limits.trackPos)
	fix(&s.RPM, limits.rpm)
	fix(&s.CurLapTime, limits.time)
	fix(&s.LastLapTime, limits.time)
	fix(&s.DistRaced, limits.dist)
	fix(&s.DistFromStart, limits.dist)
	for i := range s.Track {
		fix(&s.Track[i], limits.track)
	}
	for i := range s.WheelSpinVel {
		fix(&s.WheelSpinVel[i], limits.spin)
	}

	if float64(s.Gear) < limits.gear.Min || float64(s.Gear) > limits.gear.Max {
		s.Gear = int(math.Max(limits.gear.Min, math.Min(limits.gear.Max,
			float64(s.Gear))))
		ok = false
	}

	return s, ok
}
