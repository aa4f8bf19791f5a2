package estimator

import (
	"github.com/Speshl/gorrc_tracker/internal/mecanum"
	"github.com/Speshl/gorrc_tracker/internal/models"
)

const (
	SlightYaw = 0.03
	HardYaw   = 0.3
)

// InfraredEstimator turns the four line sensor bits into a coarse body command.
// Patterns outside the table hold the last command.
type InfraredEstimator struct {
	speed float64
	last  models.BodyVelocity
}

func NewInfraredEstimator(speed float64) *InfraredEstimator {
	return &InfraredEstimator{
		speed: speed,
		last:  mecanum.Stop(),
	}
}

func (e *InfraredEstimator) Estimate(frame models.Frame, tick models.Tick) models.Measurement {
	if frame.Infrared == nil {
		return models.InvalidMeasurement(tick, frame.Captured)
	}

	command, ok := e.lookup(frame.Infrared.Sensors)
	if ok {
		e.last = command
	}
	coarse := e.last

	valid := false
	for _, bit := range frame.Infrared.Sensors {
		valid = valid || bit
	}
	if !valid {
		measurement := models.InvalidMeasurement(tick, frame.Captured)
		measurement.Coarse = &coarse
		return measurement
	}

	return models.Measurement{
		X:          infraredCenter(frame.Infrared.Sensors),
		Y:          -1,
		Confidence: 1,
		Valid:      true,
		Timestamp:  tick,
		Captured:   frame.Captured,
		Coarse:     &coarse,
	}
}

func (e *InfraredEstimator) lookup(s [4]bool) (models.BodyVelocity, bool) {
	switch s {
	case [4]bool{false, true, true, false}:
		return mecanum.Forward(e.speed), true
	case [4]bool{false, false, true, false}:
		return e.turn(SlightYaw), true
	case [4]bool{false, true, false, false}:
		return e.turn(-SlightYaw), true
	case [4]bool{false, false, false, true}:
		return e.turn(HardYaw), true
	case [4]bool{true, false, false, false}:
		return e.turn(-HardYaw), true
	case [4]bool{true, true, true, true}:
		// crossbar or lifted
		return mecanum.Stop(), true
	default:
		return models.BodyVelocity{}, false
	}
}

func (e *InfraredEstimator) turn(yaw float64) models.BodyVelocity {
	v := mecanum.Forward(e.speed)
	v.YawRate = yaw
	return v
}

func (e *InfraredEstimator) Reset() {
	e.last = mecanum.Stop()
}

// infraredCenter is the mean index of the lit sensors, scaled to 0..3.
func infraredCenter(s [4]bool) float64 {
	sum := 0.0
	count := 0.0
	for i, bit := range s {
		if bit {
			sum += float64(i)
			count++
		}
	}
	return sum / count
}
