package sensor

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message() string {
	track := strings.Repeat("10 ", 8) + "50 200 60 " + strings.Repeat("10 ", 8)
	return "(angle 0.1)(curLapTime 12.5)(damage 0)(distFromStart 120.4)" +
		"(distRaced 130)(fuel 94)(gear 3)(lastLapTime 0)(racePos 1)" +
		"(rpm 5432.1)(speedX 101.5)(speedY -1.2)(speedZ 0.01)" +
		"(track " + strings.TrimSpace(track) + ")(trackPos -0.25)" +
		"(wheelSpinVel 88 88.5 87 87.5)(z 0.34)(focus -1 -1 -1 -1 -1)" +
		"(unknownSensor 1 2 3)"
}

func TestParse(t *testing.T) {
	s, err := Parse(message())
	require.NoError(t, err)

	assert.Equal(t, 0.1, s.Angle)
	assert.Equal(t, 12.5, s.CurLapTime)
	assert.Equal(t, 120.4, s.DistFromStart)
	assert.Equal(t, 130.0, s.DistRaced)
	assert.Equal(t, 3, s.Gear)
	assert.Equal(t, 5432.1, s.RPM)
	assert.Equal(t, 101.5, s.Speed)
	assert.Equal(t, -1.2, s.LateralSpeed)
	assert.Equal(t, -0.25, s.TrackPos)
	assert.Equal(t, 200.0, s.Track[TrackCenter])
	assert.Equal(t, 50.0, s.Track[TrackLeft])
	assert.Equal(t, 60.0, s.Track[TrackRight])
	assert.Equal(t, [4]float64{88, 88.5, 87, 87.5}, s.WheelSpinVel)
	assert.Equal(t, -1.0, s.Focus[0])
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("(angle abc)")
	assert.Error(t, err)

	_, err = Parse("(angle 0.1")
	assert.Error(t, err)

	_, err = Parse("(wheelSpinVel 1 2)")
	assert.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	s, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, Snapshot{}, s)
}

func TestSnapshotIsValue(t *testing.T) {
	prev, err := Parse(message())
	require.NoError(t, err)

	curr := prev
	curr.Track[TrackCenter] = 1
	curr.WheelSpinVel[0] = 0

	assert.Equal(t, 200.0, prev.Track[TrackCenter])
	assert.Equal(t, 88.0, prev.WheelSpinVel[0])
}

func TestSanitize(t *testing.T) {
	s := Snapshot{Speed: 50, TrackPos: 0.2, RPM: 3000, Gear: 2}
	clean, ok := s.Sanitize()
	assert.True(t, ok)
	assert.Equal(t, s, clean)

	s.Speed = math.NaN()
	s.Angle = math.Inf(1)
	s.Track[3] = math.Inf(-1)
	s.Gear = 9
	clean, ok = s.Sanitize()
	assert.False(t, ok)
	assert.Equal(t, 0.0, clean.Speed)
	assert.Equal(t, math.Pi, clean.Angle)
	assert.Equal(t, -1.0, clean.Track[3])
	assert.Equal(t, 6, clean.Gear)
}

func TestOffTrack(t *testing.T) {
	assert.True(t, Snapshot{TrackPos: 1.0}.OffTrack())
	assert.True(t, Snapshot{TrackPos: -1.2}.OffTrack())
	assert.False(t, Snapshot{TrackPos: 0.999}.OffTrack())
}

func TestMeanWheelSpeed(t *testing.T) {
	s := Snapshot{WheelSpinVel: [4]float64{10, 10, 20, 20}}
	assert.InDelta(t, 7.5, s.MeanWheelSpeed([4]float64{0.5, 0.5, 0.25, 0.25}),
		1e-12)
}

func TestParseStage(t *testing.T) {
	assert.Equal(t, Race, ParseStage("race"))
	assert.Equal(t, Warmup, ParseStage("warmup"))
	assert.Equal(t, Unknown, ParseStage("practice"))
}

func TestParseNonFiniteGear(t *testing.T) {
	for _, reading := range []string{"NaN", "Inf", "-Inf", "1e40"} {
		s, err := Parse("(gear " + reading + ")(racePos 2)(speedX 20)")
		require.NoError(t, err, reading)
		assert.Equal(t, 0, s.Gear, reading)
		assert.Equal(t, 2, s.RacePos, reading)

		clean, ok := s.Sanitize()
		assert.False(t, ok, reading)
		assert.Equal(t, 0, clean.Gear, reading)

		// A sanitized snapshot is fit again
		_, ok = clean.Sanitize()
		assert.True(t, ok, reading)
	}

	s, err := Parse("(racePos NaN)(gear 3)")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Gear)
	_, ok := s.Sanitize()
	assert.False(t, ok)
}
