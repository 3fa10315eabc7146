package accel

import (
	"testing"

	"github.com/samuelfneumann/torcsrl/config"
	"github.com/samuelfneumann/torcsrl/control"
	"github.com/samuelfneumann/torcsrl/safety"
	"github.com/samuelfneumann/torcsrl/sensor"
	"github.com/samuelfneumann/torcsrl/timestep"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
)

func newAxis() Axis {
	c := config.Default()
	return New(c.Physics, safety.NewABS(c.Safety))
}

// track returns range finder readings with the argument left, center
// and right probes
func track(left, center, right float64) [sensor.NumTrack]float64 {
	var t [sensor.NumTrack]float64
	for i := range t {
		t[i] = 20
	}
	t[sensor.TrackLeft], t[sensor.TrackCenter], t[sensor.TrackRight] =
		left, center, right
	return t
}

// rolling returns wheel speeds matching speed km/h
func rolling(speed float64) [4]float64 {
	var w [4]float64
	for i, r := range config.Default().Safety.WheelRadius {
		w[i] = speed / 3.6 / r
	}
	return w
}

func TestClassifyStraight(t *testing.T) {
	axis := newAxis()

	s := sensor.Snapshot{Track: track(40, 200, 45), Speed: 100}
	assert.Equal(t, StraightLine, axis.Classify(s))
	assert.Equal(t, 150.0, axis.TargetSpeed(s))

	// Center sees less than max speed dist but further than both sides
	s.Track = track(30, 50, 40)
	assert.Equal(t, StraightLine, axis.Classify(s))
}

func TestClassifyCurve(t *testing.T) {
	axis := newAxis()

	// Slow into a gentle right hander
	s := sensor.Snapshot{Track: track(20, 60, 65), Speed: 10,
		WheelSpinVel: rolling(10)}
	assert.Equal(t, CurveNeedsAccel, axis.Classify(s))

	// Too fast, wheels rolling: brake
	s.Speed = 250
	s.WheelSpinVel = rolling(250)
	assert.Equal(t, CurveNeedsBrake, axis.Classify(s))

	// Too fast, wheels locked: let it roll
	s.WheelSpinVel = [4]float64{}
	assert.Equal(t, CurveAllowRoll, axis.Classify(s))

	s.TrackPos = -1
	assert.Equal(t, OffTrack, axis.Classify(s))
}

func TestTargetSpeedDegenerate(t *testing.T) {
	axis := newAxis()
	s := sensor.Snapshot{Track: track(0, 0, 0.0001)}
	assert.False(t, axis.Straight(s))
	assert.GreaterOrEqual(t, axis.TargetSpeed(s), 0.0)
}

func TestDecode(t *testing.T) {
	axis := newAxis()
	s := sensor.Snapshot{Track: track(20, 60, 65), Speed: 250,
		WheelSpinVel: rolling(250)}

	var out control.Action
	axis.Decode(s, ActiveLimiter, &out)
	assert.Equal(t, 0.3, out.Accelerate)
	assert.Equal(t, 0.0, out.Brake)

	axis.Decode(s, HandBrake, &out)
	assert.Equal(t, 0.0, out.Accelerate)
	assert.Equal(t, 1.0, out.Brake)

	axis.Decode(s, Brake, &out)
	assert.InDelta(t, -axis.Signal(s), out.Brake, 1e-12)

	axis.Decode(s, KeepRolling, &out)
	assert.Equal(t, control.Action{}, out)

	// Above max speed full throttle lifts off
	axis.Decode(s, FullThrottle, &out)
	assert.Equal(t, 0.0, out.Accelerate)
}

func TestTotalAndInRange(t *testing.T) {
	axis := newAxis()
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 2000; i++ {
		var s sensor.Snapshot
		for j := range s.Track {
			s.Track[j] = rng.Float64()*201 - 1
		}
		for j := range s.WheelSpinVel {
			s.WheelSpinVel[j] = rng.Float64() * 300
		}
		s.Speed = rng.Float64()*330 - 30
		s.TrackPos = rng.Float64()*3 - 1.5

		state := axis.Classify(s)
		assert.Equal(t, state, axis.Classify(s))
		assert.Contains(t, States(), state)

		for _, a := range Actions() {
			var out control.Action
			axis.Decode(s, a, &out)
			assert.Equal(t, out, out.Limit(), "action %v", a)
		}

		var out control.Action
		axis.Heuristic(s, &out)
		assert.Equal(t, out, out.Limit())
	}
}

func TestRewardStraightSpeedingUp(t *testing.T) {
	axis := newAxis()
	prev := sensor.Snapshot{Track: track(40, 200, 45), Speed: 100,
		CurLapTime: 10, DistRaced: 500}
	curr := prev
	curr.Speed = 102
	curr.CurLapTime = 10.02
	curr.DistRaced = 500.6

	tr := timestep.NewTransition(&prev, curr).
		WithCommands(control.Action{Accelerate: 0.5},
			control.Action{Accelerate: 0.5})
	assert.Equal(t, 100.0, axis.Reward(tr))

	curr.Speed = 99
	tr = timestep.NewTransition(&prev, curr)
	assert.Equal(t, -100.0, axis.Reward(tr))
}

func TestRewardSpecialCases(t *testing.T) {
	axis := newAxis()
	prev := sensor.Snapshot{Track: track(40, 200, 45), Speed: 100,
		CurLapTime: 10, DistRaced: 500}

	assert.Equal(t, 0.0, axis.Reward(timestep.NewTransition(nil, prev)))

	curr := prev
	curr.CurLapTime = 0.01
	assert.Equal(t, 0.0, axis.Reward(timestep.NewTransition(&prev, curr)))

	curr = prev
	curr.CurLapTime = 11
	curr.DistRaced = 510
	curr.TrackPos = 1.0
	assert.Equal(t, -1000.0, axis.Reward(timestep.NewTransition(&prev, curr)))

	curr = prev
	curr.CurLapTime = 11
	assert.Equal(t, -100.0, axis.Reward(timestep.NewTransition(&prev, curr)))
}

func TestRewardBrakingIntoCurve(t *testing.T) {
	axis := newAxis()
	prev := sensor.Snapshot{Track: track(40, 200, 45), Speed: 250,
		CurLapTime: 10, DistRaced: 500, WheelSpinVel: rolling(250)}
	curr := prev
	curr.Track = track(20, 60, 65)
	curr.Speed = 240
	curr.WheelSpinVel = rolling(240)
	curr.CurLapTime = 10.02
	curr.DistRaced = 501
	assert.Equal(t, CurveNeedsBrake, axis.Classify(curr))

	eased := timestep.NewTransition(&prev, curr).
		WithCommands(control.Action{Accelerate: 0.8}, control.Action{})
	assert.Equal(t, 200.0, axis.Reward(eased))

	held := eased.WithCommands(control.Action{}, control.Action{})
	assert.Equal(t, 100.0, axis.Reward(held))
}

func TestRewardTransitions(t *testing.T) {
	axis := newAxis()

	snap := func(tr [sensor.NumTrack]float64, speed float64,
		wheels [4]float64) sensor.Snapshot {
		return sensor.Snapshot{Track: tr, Speed: speed, WheelSpinVel: wheels,
			CurLapTime: 10}
	}
	curve := track(20, 60, 65)
	straight := snap(track(40, 200, 45), 50, rolling(50))
	brake := func(speed float64) sensor.Snapshot {
		return snap(curve, speed, rolling(speed))
	}
	roll := snap(curve, 250, [4]float64{})
	accel := func(speed float64) sensor.Snapshot {
		return snap(curve, speed, rolling(speed))
	}

	const (
		same = iota
		pushed
		eased
	)

	tests := []struct {
		name       string
		prev, curr sensor.Snapshot
		throttle   int
		want       float64
	}{
		{"brake/brake slower held", brake(250), brake(240), same, -100},
		{"brake/brake slower eased", brake(250), brake(240), eased, 200},
		{"brake/brake slower pushed", brake(250), brake(240), pushed, 100},
		{"brake/brake faster eased", brake(240), brake(250), eased, -100},

		{"roll/accel slower held", roll, accel(10), same, -100},
		{"roll/accel slower eased", roll, accel(10), eased, 200},
		{"roll/accel slower pushed", roll, accel(10), pushed, 100},

		{"accel/accel faster pushed", accel(10), accel(10.5), pushed, 200},
		{"accel/accel faster held", accel(10), accel(10.5), same, 100},
		{"accel/accel steady", accel(10.5), accel(10.2), same, 200},
		{"accel/accel slower", accel(10.5), accel(9), same, -100},

		{"straight/accel faster held", straight, accel(51), same, -100},
		{"straight/accel faster pushed", straight, accel(51), pushed, 100},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			prev, curr := test.prev, test.curr
			prev.DistRaced = 500
			curr.DistRaced = 501
			curr.CurLapTime = 10.02

			var before, after control.Action
			before.Accelerate, after.Accelerate = 0.5, 0.5
			switch test.throttle {
			case pushed:
				after.Accelerate = 0.8
			case eased:
				after.Accelerate = 0.2
			}

			tr := timestep.NewTransition(&prev, curr).WithCommands(before, after)
			assert.Equal(t, test.want, axis.Reward(tr))
		})
	}

	// The fixtures land in the states they are named after
	assert.Equal(t, CurveNeedsBrake, axis.Classify(brake(240)))
	assert.Equal(t, CurveAllowRoll, axis.Classify(roll))
	assert.Equal(t, CurveNeedsAccel, axis.Classify(accel(51)))
	assert.Equal(t, StraightLine, axis.Classify(straight))
}
