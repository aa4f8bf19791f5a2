package tracker

import (
	"fmt"
	"math"

	"github.com/Speshl/gorrc_tracker/internal/config"
	"github.com/Speshl/gorrc_tracker/internal/pid"
	"github.com/Speshl/gorrc_tracker/internal/vehicle"
)

// Gimbal keeps a pan/tilt camera pointed at the target. Positions are servo pulse widths.
type Gimbal struct {
	cfg config.GimbalConfig

	centerX float64
	centerY float64

	panPID  *pid.Controller
	tiltPID *pid.Controller

	pan  float64
	tilt float64
}

func NewGimbal(cfg config.GimbalConfig, imageWidth, imageHeight float64) (*Gimbal, error) {
	panPID, err := pid.New(gains(cfg.PanGains))
	if err != nil {
		return nil, fmt.Errorf("failed creating pan pid: %w", err)
	}
	tiltPID, err := pid.New(gains(cfg.TiltGains))
	if err != nil {
		return nil, fmt.Errorf("failed creating tilt pid: %w", err)
	}

	g := &Gimbal{
		cfg:     cfg,
		centerX: imageWidth / 2,
		centerY: imageHeight / 2,
		panPID:  panPID,
		tiltPID: tiltPID,
	}
	g.panPID.SetPoint = g.centerX
	g.tiltPID.SetPoint = g.centerY
	g.Recenter()
	return g, nil
}

// Track nudges both servos toward the target center at (x, y) in image pixels.
func (g *Gimbal) Track(x, y float64) {
	x = vehicle.GetValueWithMidDeadZone(x, g.centerX, g.cfg.PanDeadZone)
	g.pan += math.Trunc(g.panPID.Update(x))
	g.pan = clamp(g.pan, g.cfg.PanMin, g.cfg.PanMax)

	y = vehicle.GetValueWithMidDeadZone(y, g.centerY, g.cfg.TiltDeadZone)
	g.tilt -= math.Trunc(g.tiltPID.Update(y))
	g.tilt = clamp(g.tilt, g.cfg.TiltMin, g.cfg.TiltMax)
}

// Recenter returns both servos to the calibrated center and drops PID history.
func (g *Gimbal) Recenter() {
	g.pan = g.cfg.PanCenter
	g.tilt = g.cfg.TiltCenter
	g.panPID.Clear()
	g.tiltPID.Clear()
}

func (g *Gimbal) Pan() float64 {
	return g.pan
}

func (g *Gimbal) Tilt() float64 {
	return g.tilt
}

func (g *Gimbal) PanCenter() float64 {
	return g.cfg.PanCenter
}

func (g *Gimbal) Commands() []vehicle.DriverCommand {
	return []vehicle.DriverCommand{
		{Name: config.ServoPan, Value: g.pan, Min: g.cfg.PanMin, Max: g.cfg.PanMax, Pulse: true},
		{Name: config.ServoTilt, Value: g.tilt, Min: g.cfg.TiltMin, Max: g.cfg.TiltMax, Pulse: true},
	}
}

func gains(cfg config.PIDConfig) pid.Gains {
	return pid.Gains{
		Kp:          cfg.Kp,
		Ki:          cfg.Ki,
		Kd:          cfg.Kd,
		IntegralMin: cfg.IntegralMin,
		IntegralMax: cfg.IntegralMax,
	}
}

func clamp(value, min, max float64) float64 {
	return math.Max(min, math.Min(max, value))
}
