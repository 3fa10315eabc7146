package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimit(t *testing.T) {
	a := Action{
		Accelerate: 1.5,
		Brake:      -0.2,
		Clutch:     2,
		Gear:       9,
		Steering:   -3,
		Focus:      1000,
	}.Limit()

	assert.Equal(t, 1.0, a.Accelerate)
	assert.Equal(t, 0.0, a.Brake)
	assert.Equal(t, 1.0, a.Clutch)
	assert.Equal(t, MaxGear, a.Gear)
	assert.Equal(t, -1.0, a.Steering)
	assert.Equal(t, FocusOff, a.Focus)

	a = Action{Gear: -4}.Limit()
	assert.Equal(t, MinGear, a.Gear)
}

func TestString(t *testing.T) {
	a := Action{Accelerate: 0.5, Brake: 0, Clutch: 0.25, Gear: 2,
		Steering: -0.1, Focus: FocusOff}
	assert.Equal(t, "(accel 0.5) (brake 0) (clutch 0.25) (gear 2) "+
		"(steer -0.1) (meta 0) (focus 360)", a.String())

	assert.Contains(t, Restart().String(), "(meta 1)")
}

func TestRestartDefaults(t *testing.T) {
	r := Restart()
	assert.True(t, r.Restart)
	assert.Equal(t, 0.0, r.Accelerate)
	assert.Equal(t, 0.0, r.Brake)
	assert.Equal(t, 0.0, r.Steering)
	assert.Equal(t, 0, r.Gear)
}
