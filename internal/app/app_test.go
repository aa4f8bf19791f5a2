package app

import (
	"testing"

	"github.com/Speshl/gorrc_tracker/internal/config"
	"github.com/Speshl/gorrc_tracker/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(config.GetConfig(), nil)
	require.NoError(t, err)
	return app
}

func TestNewCommandDriver(t *testing.T) {
	_, err := NewCommandDriver(config.CommandConfig{CommandDriver: config.CommandDriverPCA9685})
	assert.NoError(t, err)
	_, err = NewCommandDriver(config.CommandConfig{CommandDriver: config.CommandDriverPiPWM})
	assert.NoError(t, err)
	_, err = NewCommandDriver(config.CommandConfig{CommandDriver: "serial"})
	assert.Error(t, err)
}

func TestNewAppPicksInfraredSource(t *testing.T) {
	t.Setenv(config.AppEnvBase+"TRACKER_MODE", config.ModeInfrared)
	app := newTestApp(t)
	assert.NotNil(t, app.infrared)

	t.Setenv(config.AppEnvBase+"TRACKER_MODE", config.ModeBlob)
	app = newTestApp(t)
	assert.Nil(t, app.infrared)
}

func TestOnDetection(t *testing.T) {
	app := newTestApp(t)

	err := app.onDetection(`{"bands":[{"band_index":0,"centroid_x":100},{"band_index":1,"centroid_x":null}]}`)
	require.NoError(t, err)

	frame, ok := app.feed.Latest()
	require.True(t, ok)
	require.Len(t, frame.Bands, 2)
	require.NotNil(t, frame.Bands[0].CentroidX)
	assert.Equal(t, 100.0, *frame.Bands[0].CentroidX)
	assert.Nil(t, frame.Bands[1].CentroidX)

	assert.Error(t, app.onDetection("not json"))
}

func TestOnRegisterSuccess(t *testing.T) {
	app := newTestApp(t)
	id := uuid.New()

	msg, err := encode(models.ConnectResp{Robot: models.Robot{Id: id, Name: "Tracker One", ShortName: "t1"}})
	require.NoError(t, err)
	require.NoError(t, app.onRegisterSuccess(msg))
	assert.Equal(t, id, app.RobotInfo().Id)
	assert.Equal(t, "t1", app.RobotInfo().ShortName)

	assert.Error(t, app.onRegisterSuccess("{"))
}

func TestTrackerStartStop(t *testing.T) {
	app := newTestApp(t)
	require.True(t, app.robot.Running())

	app.onTrackerStop()
	assert.False(t, app.robot.Running())

	app.onTrackerStart()
	assert.True(t, app.robot.Running())
}

func TestOnTrackerMove(t *testing.T) {
	app := newTestApp(t)

	require.NoError(t, app.onTrackerMove(`{"profile":"strafe_left","speed":40,"duration_ms":500}`))
	assert.False(t, app.robot.Running())
	assert.True(t, app.robot.Moving())

	assert.Error(t, app.onTrackerMove(`{"profile":"moonwalk"}`))
	assert.Error(t, app.onTrackerMove("{"))

	app.onTrackerStart()
	assert.True(t, app.robot.Running())
	assert.False(t, app.robot.Moving())
}

func TestTelemetry(t *testing.T) {
	app := newTestApp(t)
	app.feed.Push(models.Frame{})
	app.feed.Push(models.Frame{})

	telemetry := app.Telemetry()
	assert.Equal(t, app.sessionId, telemetry.SessionId)
	assert.Equal(t, "searching", telemetry.State)
	assert.True(t, telemetry.Running)
	assert.NotZero(t, telemetry.TimeStamp)
	assert.Equal(t, uint64(2), telemetry.FramesReceived)
	assert.Equal(t, uint64(1), telemetry.FramesDropped)

	encoded, err := encode(telemetry)
	require.NoError(t, err)
	decoded := models.Telemetry{}
	require.NoError(t, decode(encoded, &decoded))
	assert.Equal(t, telemetry.SessionId, decoded.SessionId)
	assert.Equal(t, telemetry.State, decoded.State)
}
