package config

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidConfig = errors.New("invalid config")

const weightTolerance = 1e-6

// Validate rejects settings that are not physically sensible. It is run once at startup;
// an invalid config is fatal.
func (c Config) Validate() error {
	errs := make([]error, 0)
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	switch c.CommandCfg.CommandDriver {
	case CommandDriverPCA9685, CommandDriverPiPWM:
	default:
		add("unsupported command driver %q", c.CommandCfg.CommandDriver)
	}
	for _, servo := range c.CommandCfg.ServoCfgs {
		if servo.MinPulse >= servo.MaxPulse {
			add("servo %s min pulse %.0f not below max pulse %.0f", servo.Name, servo.MinPulse, servo.MaxPulse)
		}
		if servo.Channel < 0 || servo.Channel >= MaxSupportedServos {
			add("servo %s channel %d out of range", servo.Name, servo.Channel)
		}
	}

	if c.ServerCfg.Enabled {
		if c.ServerCfg.Server == "" {
			add("remote enabled without a server address")
		}
		if c.ServerCfg.TelemetryPeriod <= 0 || c.ServerCfg.HealthPeriod <= 0 {
			add("telemetry and health periods must be positive")
		}
	}

	if c.ChassisCfg.K <= 0 {
		add("chassis k must be positive, got %.2f", c.ChassisCfg.K)
	}
	if c.ChassisCfg.MaxDuty <= 0 || c.ChassisCfg.MaxDuty > 100 {
		add("chassis max duty must be in (0,100], got %.2f", c.ChassisCfg.MaxDuty)
	}

	errs = append(errs, c.TrackerCfg.validate()...)
	errs = append(errs, c.EstimatorCfg.validate(c.TrackerCfg.Mode)...)

	if c.GimbalCfg.Enabled {
		errs = append(errs, c.GimbalCfg.validate()...)
	}

	if c.TrackerCfg.Mode == ModeInfrared && len(c.InfraredCfg.Pins) != 4 {
		add("infrared mode needs 4 pins, got %d", len(c.InfraredCfg.Pins))
	}

	return errors.Join(errs...)
}

func (t TrackerConfig) validate() []error {
	errs := make([]error, 0)
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if _, ok := defaultsByMode[t.Mode]; !ok {
		add("unsupported tracker mode %q", t.Mode)
	}
	if t.SteerAxis != SteerAxisYaw && t.SteerAxis != SteerAxisStrafe {
		add("unsupported steer axis %q", t.SteerAxis)
	}
	if t.TickPeriod <= 0 {
		add("tick period must be positive, got %s", t.TickPeriod)
	}
	if t.SensePeriod <= 0 {
		add("sense period must be positive, got %s", t.SensePeriod)
	}
	if t.MaxMeasurementAge <= 0 {
		add("max measurement age must be positive, got %s", t.MaxMeasurementAge)
	}
	if t.ImageWidth <= 0 || t.ImageHeight <= 0 {
		add("image size must be positive, got %.0fx%.0f", t.ImageWidth, t.ImageHeight)
	}
	if t.ConsecutiveLosses < 1 {
		add("consecutive losses must be at least 1, got %d", t.ConsecutiveLosses)
	}
	if t.ConsecutiveDetections < 1 {
		add("consecutive detections must be at least 1, got %d", t.ConsecutiveDetections)
	}
	if t.MinConfidence < 0 {
		add("min confidence must not be negative, got %.2f", t.MinConfidence)
	}
	if t.CenterDeadZone < 0 || t.OutputDeadZone < 0 || t.YawDeadZone < 0 || t.DistanceDeadBand < 0 {
		add("dead zones must not be negative")
	}
	if t.CruiseSpeed < 0 || t.CruiseSpeed > 100 {
		add("cruise speed must be in [0,100], got %.2f", t.CruiseSpeed)
	}
	if t.DistanceEnabled && t.TargetArea <= 0 {
		add("target area must be positive when distance control is on, got %.2f", t.TargetArea)
	}
	if t.ManeuverEnabled {
		if t.ManeuverThreshold <= 0 {
			add("maneuver threshold must be positive, got %.2f", t.ManeuverThreshold)
		}
		if t.AdvanceDuration < 0 || t.PivotDuration < 0 {
			add("maneuver durations must not be negative")
		}
		if t.AdvanceSpeed < 0 || t.AdvanceSpeed > 100 {
			add("advance speed must be in [0,100], got %.2f", t.AdvanceSpeed)
		}
		if math.Abs(t.PivotYaw) > 2 {
			add("pivot yaw must be in [-2,2], got %.2f", t.PivotYaw)
		}
	}

	errs = append(errs, t.SteerGains.validate("steer")...)
	if t.DistanceEnabled {
		errs = append(errs, t.DistanceGains.validate("distance")...)
	}
	return errs
}

func (e EstimatorConfig) validate(mode string) []error {
	errs := make([]error, 0)
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if e.MinContourArea < 0 {
		add("min contour area must not be negative, got %.2f", e.MinContourArea)
	}
	if e.JitterDeadZone < 0 {
		add("jitter dead zone must not be negative, got %.2f", e.JitterDeadZone)
	}
	if e.VoteSize < 1 {
		add("vote size must be at least 1, got %d", e.VoteSize)
	}
	if e.InfraredSpeed < 0 || e.InfraredSpeed > 100 {
		add("infrared speed must be in [0,100], got %.2f", e.InfraredSpeed)
	}

	if mode == ModeLine {
		if len(e.BandWeights) == 0 {
			add("band weights must not be empty")
		}
		sum := 0.0
		for _, w := range e.BandWeights {
			if w < 0 {
				add("band weight must not be negative, got %.3f", w)
			}
			sum += w
		}
		if len(e.BandWeights) > 0 && math.Abs(sum-1) > weightTolerance {
			add("band weights must sum to 1, got %.3f", sum)
		}
	}
	return errs
}

func (g GimbalConfig) validate() []error {
	errs := make([]error, 0)
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if g.PanMin >= g.PanMax {
		add("pan min %.0f not below pan max %.0f", g.PanMin, g.PanMax)
	} else if g.PanCenter < g.PanMin || g.PanCenter > g.PanMax {
		add("pan center %.0f outside [%.0f,%.0f]", g.PanCenter, g.PanMin, g.PanMax)
	}
	if g.TiltMin >= g.TiltMax {
		add("tilt min %.0f not below tilt max %.0f", g.TiltMin, g.TiltMax)
	} else if g.TiltCenter < g.TiltMin || g.TiltCenter > g.TiltMax {
		add("tilt center %.0f outside [%.0f,%.0f]", g.TiltCenter, g.TiltMin, g.TiltMax)
	}
	if g.PanDeadZone < 0 || g.TiltDeadZone < 0 {
		add("gimbal dead zones must not be negative")
	}
	errs = append(errs, g.PanGains.validate("pan")...)
	errs = append(errs, g.TiltGains.validate("tilt")...)
	return errs
}

func (p PIDConfig) validate(axis string) []error {
	errs := make([]error, 0)
	if p.Kp < 0 || p.Ki < 0 || p.Kd < 0 {
		errs = append(errs, fmt.Errorf("%w: %s gains must not be negative", ErrInvalidConfig, axis))
	}
	if p.IntegralMin > p.IntegralMax {
		errs = append(errs, fmt.Errorf("%w: %s integral min %.2f above max %.2f", ErrInvalidConfig, axis, p.IntegralMin, p.IntegralMax))
	}
	return errs
}
