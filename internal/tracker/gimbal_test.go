package tracker

import (
	"testing"

	"github.com/Speshl/gorrc_tracker/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGimbalStartsCentered(t *testing.T) {
	g, err := NewGimbal(gimbalConfig(), 640, 480)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, g.Pan())
	assert.Equal(t, 1150.0, g.Tilt())
}

func TestGimbalRejectsBadGains(t *testing.T) {
	cfg := gimbalConfig()
	cfg.TiltGains.Kd = -1
	_, err := NewGimbal(cfg, 640, 480)
	assert.Error(t, err)
}

func TestGimbalDeadZones(t *testing.T) {
	g, err := NewGimbal(gimbalConfig(), 640, 480)
	require.NoError(t, err)

	g.Track(334, 249)
	assert.Equal(t, 1500.0, g.Pan())
	assert.Equal(t, 1150.0, g.Tilt())
}

func TestGimbalFollowsTarget(t *testing.T) {
	g, err := NewGimbal(gimbalConfig(), 640, 480)
	require.NoError(t, err)

	g.Track(420, 340)
	assert.Equal(t, 1490.0, g.Pan())
	assert.Equal(t, 1160.0, g.Tilt())
}

func TestGimbalClamps(t *testing.T) {
	g, err := NewGimbal(gimbalConfig(), 640, 480)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		g.Track(0, 0)
	}
	assert.Equal(t, 2200.0, g.Pan())
	assert.Equal(t, 1000.0, g.Tilt())

	for i := 0; i < 200; i++ {
		g.Track(640, 480)
	}
	assert.Equal(t, 800.0, g.Pan())
	assert.Equal(t, 1900.0, g.Tilt())

	commands := g.Commands()
	require.Len(t, commands, 2)
	assert.Equal(t, config.ServoTilt, commands[1].Name)
	assert.Equal(t, 1900.0, commands[1].Value)
	assert.Equal(t, 1000.0, commands[1].Min)
}

func TestGimbalRecenter(t *testing.T) {
	g, err := NewGimbal(gimbalConfig(), 640, 480)
	require.NoError(t, err)

	g.Track(0, 0)
	g.Recenter()
	assert.Equal(t, 1500.0, g.Pan())
	assert.Equal(t, 1150.0, g.Tilt())
}
