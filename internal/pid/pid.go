// Package pid implements the discrete PID controller used for steering, distance and gimbal axes.
//
// The controller is tick based: it integrates the raw error once per Update call and
// takes the derivative as the difference from the previous error, so callers must call
// Update at most once per control tick. Inputs must be finite; NaN or Inf are not checked.
package pid

import (
	"errors"
	"fmt"
)

var ErrInvalidGains = errors.New("invalid pid gains")

type Gains struct {
	Kp          float64
	Ki          float64
	Kd          float64
	IntegralMin float64
	IntegralMax float64
}

type Controller struct {
	Kp float64
	Ki float64
	Kd float64

	SetPoint float64

	IntegralMin float64
	IntegralMax float64

	integral  float64
	prevError float64
	hasPrev   bool
	output    float64
}

func New(g Gains) (*Controller, error) {
	if g.Kp < 0 || g.Ki < 0 || g.Kd < 0 {
		return nil, fmt.Errorf("%w: gains must not be negative - kp: %.6f ki: %.6f kd: %.6f", ErrInvalidGains, g.Kp, g.Ki, g.Kd)
	}
	if g.IntegralMin > g.IntegralMax {
		return nil, fmt.Errorf("%w: integral min %.2f above max %.2f", ErrInvalidGains, g.IntegralMin, g.IntegralMax)
	}
	return &Controller{
		Kp:          g.Kp,
		Ki:          g.Ki,
		Kd:          g.Kd,
		IntegralMin: g.IntegralMin,
		IntegralMax: g.IntegralMax,
	}, nil
}

// Update advances the controller one tick and returns the correction.
func (c *Controller) Update(measurement float64) float64 {
	err := c.SetPoint - measurement

	c.integral = clamp(c.integral+err, c.IntegralMin, c.IntegralMax)

	derivative := 0.0
	if c.hasPrev {
		derivative = err - c.prevError
	}

	c.output = c.Kp*err + c.Ki*c.integral + c.Kd*derivative
	c.prevError = err
	c.hasPrev = true
	return c.output
}

// Clear drops integral and derivative history. Call it whenever the setpoint regime changes.
func (c *Controller) Clear() {
	c.integral = 0
	c.prevError = 0
	c.hasPrev = false
	c.output = 0
}

func (c *Controller) Integral() float64 {
	return c.integral
}

func (c *Controller) Output() float64 {
	return c.output
}

func clamp(value, min, max float64) float64 {
	if value > max {
		return max
	} else if value < min {
		return min
	}
	return value
}
