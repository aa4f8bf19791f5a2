package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	for _, mode := range []string{ModeLine, ModeBlob, ModeFace, ModeInfrared} {
		t.Run(mode, func(t *testing.T) {
			t.Setenv(AppEnvBase+"TRACKER_MODE", mode)
			cfg := GetConfig()
			assert.Equal(t, mode, cfg.TrackerCfg.Mode)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestModeDefaults(t *testing.T) {
	t.Setenv(AppEnvBase+"TRACKER_MODE", ModeFace)
	cfg := GetConfig()
	assert.Equal(t, SteerAxisStrafe, cfg.TrackerCfg.SteerAxis)
	assert.True(t, cfg.TrackerCfg.DistanceEnabled)
	assert.True(t, cfg.GimbalCfg.Enabled)
	assert.Equal(t, 1150.0, cfg.GimbalCfg.TiltCenter)

	t.Setenv(AppEnvBase+"TRACKER_MODE", ModeLine)
	cfg = GetConfig()
	assert.Equal(t, SteerAxisYaw, cfg.TrackerCfg.SteerAxis)
	assert.True(t, cfg.TrackerCfg.ManeuverEnabled)
	assert.Equal(t, []float64{0.1, 0.3, 0.6}, cfg.EstimatorCfg.BandWeights)
	assert.Equal(t, 80.0, cfg.TrackerCfg.ManeuverThreshold)
	assert.Equal(t, time.Second, cfg.TrackerCfg.AdvanceDuration)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(AppEnvBase+"TRACKER_TICK", "10ms")
	t.Setenv(AppEnvBase+"TRACKER_LOSSES", "3")
	t.Setenv(AppEnvBase+"TRACKER_STEER_KP", "0.5")
	t.Setenv(AppEnvBase+"ESTIMATOR_BAND_WEIGHTS", "0.5, 0.5")
	t.Setenv(AppEnvBase+"CHASSIS_K", "not-a-number")

	cfg := GetConfig()
	assert.Equal(t, 10*time.Millisecond, cfg.TrackerCfg.TickPeriod)
	assert.Equal(t, 3, cfg.TrackerCfg.ConsecutiveLosses)
	assert.Equal(t, 0.5, cfg.TrackerCfg.SteerGains.Kp)
	assert.Equal(t, []float64{0.5, 0.5}, cfg.EstimatorCfg.BandWeights)
	assert.Equal(t, DefaultChassisK, cfg.ChassisCfg.K)
}

func TestDefaultServoLayout(t *testing.T) {
	cfg := GetCommandConfig()
	require.Len(t, cfg.ServoCfgs, len(defaultServoLayout))
	assert.Equal(t, ServoFrontLeft, cfg.ServoCfgs[0].Name)
	assert.Equal(t, ServoTilt, cfg.ServoCfgs[5].Name)
	assert.Equal(t, 5, cfg.ServoCfgs[5].Channel)
}

func TestValidateRejectsInvalidSettings(t *testing.T) {
	cfg := GetConfig()
	cfg.EstimatorCfg.MinContourArea = -1
	cfg.EstimatorCfg.BandWeights = []float64{0.5, 0.2}
	cfg.TrackerCfg.ConsecutiveLosses = 0
	cfg.TrackerCfg.SteerGains.IntegralMin = 10
	cfg.TrackerCfg.SteerGains.IntegralMax = -10
	cfg.ChassisCfg.MaxDuty = 150

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "min contour area")
	assert.Contains(t, err.Error(), "band weights must sum to 1")
	assert.Contains(t, err.Error(), "consecutive losses")
	assert.Contains(t, err.Error(), "steer integral min")
	assert.Contains(t, err.Error(), "max duty")
}

func TestValidateGimbalRanges(t *testing.T) {
	t.Setenv(AppEnvBase+"TRACKER_MODE", ModeFace)
	cfg := GetConfig()
	cfg.GimbalCfg.PanCenter = 3000
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pan center")
}

func TestGimbalConfig(t *testing.T) {
	cfg := GetGimbalConfig(ModeFace)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 1150.0, cfg.TiltCenter)
	assert.Equal(t, DefaultDistanceTiltMin, cfg.DistanceTiltMin)

	t.Setenv(AppEnvBase+"GIMBAL_DISTANCE_TILT_MIN", "1050")
	assert.Equal(t, 1050.0, GetGimbalConfig(ModeFace).DistanceTiltMin)
}

func TestCalibration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servo_config.yaml")
	err := os.WriteFile(path, []byte("servo1: 1600\nservo2: 1450\ntrims:\n  front_left: 3\n"), 0o644)
	require.NoError(t, err)

	t.Setenv(AppEnvBase+"CALIBRATION", path)
	cfg := GetConfig()
	assert.Equal(t, 1250.0, cfg.GimbalCfg.TiltCenter)
	assert.Equal(t, 1450.0, cfg.GimbalCfg.PanCenter)
	assert.Equal(t, 3, cfg.CommandCfg.ServoCfgs[0].Offset)
	assert.Equal(t, 0, cfg.CommandCfg.ServoCfgs[1].Offset)
}

func TestLoadCalibrationErrors(t *testing.T) {
	_, err := LoadCalibration(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("servo1: [not, an, int"), 0o644))
	_, err = LoadCalibration(path)
	assert.Error(t, err)
}
