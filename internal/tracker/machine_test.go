package tracker

import (
	"testing"
	"time"

	"github.com/Speshl/gorrc_tracker/internal/config"
	"github.com/Speshl/gorrc_tracker/internal/mecanum"
	"github.com/Speshl/gorrc_tracker/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func lineConfig() config.TrackerConfig {
	return config.TrackerConfig{
		Mode:                  config.ModeLine,
		TickPeriod:            20 * time.Millisecond,
		ImageWidth:            640,
		ImageHeight:           480,
		ConsecutiveLosses:     5,
		ConsecutiveDetections: 1,
		MinConfidence:         1,
		CenterDeadZone:        10,
		SteerAxis:             config.SteerAxisYaw,
		SteerGains:            config.PIDConfig{Kp: 0.01, IntegralMin: -1000, IntegralMax: 1000},
		CruiseSpeed:           40,
		ManeuverEnabled:       true,
		ManeuverThreshold:     80,
		AdvanceSpeed:          40,
		AdvanceDuration:       time.Second,
		PivotYaw:              0.3,
		PivotDuration:         1200 * time.Millisecond,
	}
}

func faceConfig() config.TrackerConfig {
	return config.TrackerConfig{
		Mode:                  config.ModeFace,
		TickPeriod:            20 * time.Millisecond,
		ImageWidth:            640,
		ImageHeight:           480,
		ConsecutiveLosses:     5,
		ConsecutiveDetections: 1,
		MinConfidence:         1,
		SteerAxis:             config.SteerAxisStrafe,
		SteerGains:            config.PIDConfig{Kp: 0.15, IntegralMin: -2000, IntegralMax: 2000},
		DistanceEnabled:       true,
		TargetArea:            30000,
		DistanceDeadBand:      2000,
		DistanceGains:         config.PIDConfig{Kp: 0.002, IntegralMin: -20000, IntegralMax: 20000},
	}
}

func gimbalConfig() config.GimbalConfig {
	return config.GimbalConfig{
		Enabled:      true,
		PanMin:       800,
		PanMax:       2200,
		PanCenter:    1500,
		TiltMin:      1000,
		TiltMax:      1900,
		TiltCenter:   1150,
		PanDeadZone:  15,
		TiltDeadZone: 10,
		PanGains:     config.PIDConfig{Kp: 0.1, IntegralMin: -1000, IntegralMax: 1000},
		TiltGains:    config.PIDConfig{Kp: 0.1, IntegralMin: -1000, IntegralMax: 1000},
	}
}

func newMachine(t *testing.T, cfg config.TrackerConfig, gimbal *Gimbal) *Machine {
	t.Helper()
	k, err := mecanum.NewKinematics(mecanum.DefaultK, mecanum.DefaultMaxDuty)
	require.NoError(t, err)
	m, err := NewMachine(cfg, k, gimbal)
	require.NoError(t, err)
	return m
}

func lineSample(x float64) models.Measurement {
	return models.Measurement{X: x, Valid: true, Confidence: 3, Lead: x, HasLead: true}
}

func invalid() models.Measurement {
	return models.InvalidMeasurement(0, time.Time{})
}

func TestNewMachineRejectsBadGains(t *testing.T) {
	cfg := lineConfig()
	cfg.SteerGains.Kp = -1
	k, err := mecanum.NewKinematics(mecanum.DefaultK, mecanum.DefaultMaxDuty)
	require.NoError(t, err)
	_, err = NewMachine(cfg, k, nil)
	assert.Error(t, err)
}

func TestSearchingStopsUntilQualified(t *testing.T) {
	m := newMachine(t, lineConfig(), nil)
	now := time.Unix(0, 0)

	out := m.Step(invalid(), now)
	assert.Equal(t, models.StateSearching, out.State)
	assert.True(t, out.Wheels.IsStop())

	out = m.Step(models.Measurement{X: 320, Valid: true, Confidence: 0}, now)
	assert.Equal(t, models.StateSearching, out.State, "confidence below the minimum does not qualify")

	out = m.Step(lineSample(320), now)
	assert.Equal(t, models.StateTracking, out.State)
	assert.InDelta(t, 40, out.Velocity.LinearSpeed, 1e-9)
	assert.InDelta(t, 90, out.Velocity.DirectionDeg, 1e-9)
	assert.Equal(t, 0.0, out.Velocity.YawRate)
}

func TestConsecutiveDetections(t *testing.T) {
	cfg := lineConfig()
	cfg.ConsecutiveDetections = 3
	m := newMachine(t, cfg, nil)
	now := time.Unix(0, 0)

	m.Step(lineSample(320), now)
	m.Step(lineSample(320), now)
	m.Step(invalid(), now)
	m.Step(lineSample(320), now)
	m.Step(lineSample(320), now)
	assert.Equal(t, models.StateSearching, m.State())
	m.Step(lineSample(320), now)
	assert.Equal(t, models.StateTracking, m.State())
}

func TestYawSteering(t *testing.T) {
	m := newMachine(t, lineConfig(), nil)
	out := m.Step(lineSample(370), time.Unix(0, 0))

	// target right of center turns clockwise
	assert.InDelta(t, 0.5, out.Velocity.YawRate, 1e-9)
	assert.InDelta(t, 40, out.Velocity.LinearSpeed, 1e-9)
	assert.Greater(t, out.Wheels.FrontLeft, out.Wheels.FrontRight)
}

func TestYawIsClamped(t *testing.T) {
	cfg := lineConfig()
	cfg.ManeuverEnabled = false
	cfg.SteerGains.Kp = 1
	m := newMachine(t, cfg, nil)
	out := m.Step(lineSample(640), time.Unix(0, 0))
	assert.Equal(t, mecanum.MaxYawRate, out.Velocity.YawRate)
}

func TestCenterDeadZoneGivesIdenticalOutput(t *testing.T) {
	cfg := lineConfig()
	cfg.SteerGains = config.PIDConfig{Kp: 0.01, Ki: 0.001, Kd: 0.002, IntegralMin: -1000, IntegralMax: 1000}

	a := newMachine(t, cfg, nil)
	b := newMachine(t, cfg, nil)
	now := time.Unix(0, 0)
	for _, x := range []float64{325, 318, 329} {
		outA := a.Step(lineSample(x), now)
		outB := b.Step(lineSample(321), now)
		assert.Equal(t, outA.Velocity, outB.Velocity)
	}
}

func TestFiveLossesGoToLost(t *testing.T) {
	m := newMachine(t, lineConfig(), nil)
	now := time.Unix(0, 0)

	tracking := m.Step(lineSample(370), now)
	require.Equal(t, models.StateTracking, tracking.State)
	require.False(t, tracking.Wheels.IsStop())

	for i := 1; i < 5; i++ {
		out := m.Step(invalid(), now)
		assert.Equal(t, models.StateTracking, out.State, "loss %d", i)
		assert.Equal(t, tracking.Wheels, out.Wheels, "loss %d holds the last command", i)
	}

	out := m.Step(invalid(), now)
	assert.Equal(t, models.StateLost, out.State)
	assert.True(t, out.Wheels.IsStop())
}

func TestLossCounterResetsOnDetection(t *testing.T) {
	m := newMachine(t, lineConfig(), nil)
	now := time.Unix(0, 0)

	m.Step(lineSample(320), now)
	for i := 0; i < 4; i++ {
		m.Step(invalid(), now)
	}
	m.Step(lineSample(320), now)
	for i := 0; i < 4; i++ {
		m.Step(invalid(), now)
	}
	assert.Equal(t, models.StateTracking, m.State())
}

func TestLostTransitions(t *testing.T) {
	cfg := lineConfig()
	cfg.ConsecutiveLosses = 1
	now := time.Unix(0, 0)

	m := newMachine(t, cfg, nil)
	m.Step(lineSample(320), now)
	m.Step(invalid(), now)
	require.Equal(t, models.StateLost, m.State())
	out := m.Step(lineSample(320), now)
	assert.Equal(t, models.StateTracking, out.State)

	m.Step(invalid(), now)
	require.Equal(t, models.StateLost, m.State())
	out = m.Step(invalid(), now)
	assert.Equal(t, models.StateSearching, out.State)
	assert.True(t, out.Wheels.IsStop())
}

func TestPIDsClearedOnLost(t *testing.T) {
	cfg := lineConfig()
	cfg.ManeuverEnabled = false
	cfg.ConsecutiveLosses = 1
	cfg.SteerGains.Ki = 0.001
	m := newMachine(t, cfg, nil)
	now := time.Unix(0, 0)

	m.Step(lineSample(420), now)
	m.Step(lineSample(420), now)
	require.NotZero(t, m.steer.Integral())

	m.Step(invalid(), now)
	require.Equal(t, models.StateLost, m.State())
	assert.Zero(t, m.steer.Integral())
	assert.Zero(t, m.distance.Integral())
}

func TestCommittedManeuver(t *testing.T) {
	m := newMachine(t, lineConfig(), nil)
	start := time.Unix(100, 0)

	m.Step(lineSample(320), start)
	jump := models.Measurement{X: 100, Valid: true, Confidence: 2, Lead: 320, HasLead: true}
	out := m.Step(jump, start)
	require.Equal(t, models.StateCommittedManeuver, out.State)
	assert.Equal(t, mecanum.Forward(40), out.Velocity)

	// measurements are ignored until the deadline
	for _, meas := range []models.Measurement{invalid(), lineSample(320), jump} {
		out = m.Step(meas, start.Add(500*time.Millisecond))
		assert.Equal(t, models.StateCommittedManeuver, out.State)
		assert.Equal(t, mecanum.Forward(40), out.Velocity)
	}

	out = m.Step(invalid(), start.Add(1500*time.Millisecond))
	assert.Equal(t, models.StateCommittedManeuver, out.State)
	assert.Equal(t, mecanum.Pivot(0.3), out.Velocity)
	assert.True(t, cmp.Equal(models.WheelCommand{FrontLeft: 37.8, FrontRight: -37.8, RearLeft: 37.8, RearRight: -37.8}, out.Wheels, approx))

	out = m.Step(lineSample(320), start.Add(2200*time.Millisecond))
	assert.Equal(t, models.StateTracking, out.State)
	assert.InDelta(t, 40, out.Velocity.LinearSpeed, 1e-9)
}

func TestManeuverPivotsTowardReference(t *testing.T) {
	m := newMachine(t, lineConfig(), nil)
	start := time.Unix(100, 0)

	m.Step(lineSample(320), start)
	m.Step(models.Measurement{X: 600, Valid: true, Confidence: 2, Lead: 320, HasLead: true}, start)
	out := m.Step(invalid(), start.Add(1100*time.Millisecond))
	assert.Equal(t, mecanum.Pivot(-0.3), out.Velocity)
}

func TestManeuverWithoutLeadNeedsPreviousSample(t *testing.T) {
	m := newMachine(t, lineConfig(), nil)
	now := time.Unix(0, 0)

	out := m.Step(models.Measurement{X: 320, Valid: true, Confidence: 1}, now)
	assert.Equal(t, models.StateTracking, out.State)
	assert.ErrorIs(t, out.Status, ErrNoPreviousSample)

	out = m.Step(models.Measurement{X: 330, Valid: true, Confidence: 1}, now)
	assert.NoError(t, out.Status)
	assert.Equal(t, models.StateTracking, out.State)

	out = m.Step(models.Measurement{X: 500, Valid: true, Confidence: 1}, now)
	assert.Equal(t, models.StateCommittedManeuver, out.State)
}

func TestCoarseCommandBypassesPIDs(t *testing.T) {
	cfg := lineConfig()
	cfg.ManeuverEnabled = false
	m := newMachine(t, cfg, nil)

	coarse := models.BodyVelocity{LinearSpeed: 35, DirectionDeg: 90, YawRate: 0.3}
	out := m.Step(models.Measurement{X: 3, Valid: true, Confidence: 1, Coarse: &coarse}, time.Unix(0, 0))
	assert.Equal(t, coarse, out.Velocity)
	assert.Zero(t, m.steer.Output())
}

func TestReset(t *testing.T) {
	m := newMachine(t, lineConfig(), nil)
	m.Step(lineSample(370), time.Unix(0, 0))
	m.Reset()
	assert.Equal(t, models.StateSearching, m.State())
	assert.True(t, m.Step(invalid(), time.Unix(0, 0)).Wheels.IsStop())
}

func TestFaceFollowsGimbal(t *testing.T) {
	gimbal, err := NewGimbal(gimbalConfig(), 640, 480)
	require.NoError(t, err)
	m := newMachine(t, faceConfig(), gimbal)

	out := m.Step(models.Measurement{X: 620, Y: 240, Area: 30000, Valid: true, Confidence: 30000}, time.Unix(0, 0))
	require.Equal(t, models.StateTracking, out.State)
	assert.Equal(t, 1470.0, gimbal.Pan())
	assert.Equal(t, 1150.0, gimbal.Tilt())

	// camera turned right, chassis strafes right
	assert.InDelta(t, 4.5, out.Velocity.LinearSpeed, 1e-9)
	assert.InDelta(t, 0, out.Velocity.DirectionDeg, 1e-9)
	require.Len(t, out.Servos, 2)
	assert.Equal(t, "pan", out.Servos[0].Name)
	assert.Equal(t, 1470.0, out.Servos[0].Value)
}

func TestFaceDistance(t *testing.T) {
	m := newMachine(t, faceConfig(), nil)

	out := m.Step(models.Measurement{X: 320, Y: 240, Area: 20000, Valid: true, Confidence: 20000}, time.Unix(0, 0))
	assert.InDelta(t, 20, out.Velocity.LinearSpeed, 1e-9)
	assert.InDelta(t, 90, out.Velocity.DirectionDeg, 1e-9)

	m.Reset()
	out = m.Step(models.Measurement{X: 320, Y: 240, Area: 31000, Valid: true, Confidence: 31000}, time.Unix(0, 0))
	assert.True(t, out.Wheels.IsStop(), "inside the dead band")

	m.Reset()
	out = m.Step(models.Measurement{X: 320, Y: 240, Area: 40000, Valid: true, Confidence: 40000}, time.Unix(0, 0))
	assert.InDelta(t, 20, out.Velocity.LinearSpeed, 1e-9)
	assert.InDelta(t, 270, out.Velocity.DirectionDeg, 1e-9)
}

func TestFaceDistanceHeldWhileTiltedUp(t *testing.T) {
	gimbalCfg := gimbalConfig()
	gimbalCfg.DistanceTiltMin = 1100
	gimbal, err := NewGimbal(gimbalCfg, 640, 480)
	require.NoError(t, err)
	m := newMachine(t, faceConfig(), gimbal)

	out := m.Step(models.Measurement{X: 320, Y: 240, Area: 20000, Valid: true, Confidence: 20000}, time.Unix(0, 0))
	assert.InDelta(t, 20, out.Velocity.LinearSpeed, 1e-9, "tilt 1150 still chases distance")

	gimbalCfg.TiltCenter = 1050
	gimbal, err = NewGimbal(gimbalCfg, 640, 480)
	require.NoError(t, err)
	m = newMachine(t, faceConfig(), gimbal)

	out = m.Step(models.Measurement{X: 320, Y: 240, Area: 20000, Valid: true, Confidence: 20000}, time.Unix(0, 0))
	require.Equal(t, models.StateTracking, out.State)
	assert.Equal(t, 1050.0, gimbal.Tilt())
	assert.True(t, out.Wheels.IsStop())
}

func TestLostRecentersGimbal(t *testing.T) {
	gimbal, err := NewGimbal(gimbalConfig(), 640, 480)
	require.NoError(t, err)
	cfg := faceConfig()
	cfg.ConsecutiveLosses = 1
	m := newMachine(t, cfg, gimbal)

	m.Step(models.Measurement{X: 620, Y: 240, Area: 30000, Valid: true, Confidence: 30000}, time.Unix(0, 0))
	require.NotEqual(t, 1500.0, gimbal.Pan())

	out := m.Step(invalid(), time.Unix(0, 0))
	assert.Equal(t, models.StateLost, out.State)
	assert.Equal(t, 1500.0, gimbal.Pan())
	assert.Equal(t, 1500.0, out.Servos[0].Value)
}
