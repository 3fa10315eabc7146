package clutch

import (
	"testing"

	"github.com/samuelfneumann/torcsrl/config"
	"github.com/samuelfneumann/torcsrl/control"
	"github.com/samuelfneumann/torcsrl/safety"
	"github.com/samuelfneumann/torcsrl/sensor"
	"github.com/samuelfneumann/torcsrl/timestep"
	"github.com/stretchr/testify/assert"
)

func newAxis() Axis {
	c := config.Default()
	return New(c.Physics, safety.NewClutch(c.Safety, sensor.Race))
}

func TestClassify(t *testing.T) {
	axis := newAxis()
	assert.Equal(t, StartingGrid, axis.Classify(sensor.Snapshot{Gear: 0}))
	assert.Equal(t, NeedUpShift, axis.Classify(sensor.Snapshot{Gear: 1, RPM: 5500}))
	assert.Equal(t, NeedDownShift, axis.Classify(sensor.Snapshot{Gear: 5, RPM: 1000}))
	assert.Equal(t, Steady, axis.Classify(sensor.Snapshot{Gear: 5, RPM: 5000}))
}

func TestDecode(t *testing.T) {
	axis := newAxis()

	var out control.Action
	axis.Decode(sensor.Snapshot{Gear: 0, CurLapTime: 0.01}, IdleSpeed, &out)
	assert.Equal(t, 1, out.Gear)
	assert.Greater(t, out.Clutch, 0.0)
	assert.LessOrEqual(t, out.Clutch, 1.0)

	axis.Decode(sensor.Snapshot{Gear: 2, CurLapTime: 5}, UpGear, &out)
	assert.Equal(t, 3, out.Gear)
	axis.Decode(sensor.Snapshot{Gear: 2, CurLapTime: 5}, DownGear, &out)
	assert.Equal(t, 1, out.Gear)
	axis.Decode(sensor.Snapshot{Gear: 2, CurLapTime: 5}, KeepGear, &out)
	assert.Equal(t, 2, out.Gear)

	assert.Panics(t, func() { axis.Decode(sensor.Snapshot{}, Action(9), &out) })
}

func TestReward(t *testing.T) {
	axis := newAxis()

	prev := sensor.Snapshot{Gear: 1, RPM: 1000}
	assert.Equal(t, -100.0, axis.Reward(timestep.NewTransition(&prev,
		sensor.Snapshot{Gear: 0})))
	assert.Equal(t, 100.0, axis.Reward(timestep.NewTransition(&prev,
		sensor.Snapshot{Gear: 1})))

	prev = sensor.Snapshot{Gear: 3, RPM: 7000}
	assert.Equal(t, 100.0, axis.Reward(timestep.NewTransition(&prev,
		sensor.Snapshot{Gear: 4})))
	assert.Equal(t, -10.0, axis.Reward(timestep.NewTransition(&prev,
		sensor.Snapshot{Gear: 3})))

	assert.Equal(t, 0.0, axis.Reward(timestep.NewTransition(nil,
		sensor.Snapshot{})))
}
