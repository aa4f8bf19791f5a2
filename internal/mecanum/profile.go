package mecanum

import (
	"fmt"
	"time"

	"github.com/Speshl/gorrc_tracker/internal/models"
)

const (
	ProfileStop        = "stop"
	ProfileForward     = "forward"
	ProfileBackward    = "backward"
	ProfileStrafeLeft  = "strafe_left"
	ProfileStrafeRight = "strafe_right"
	ProfilePivotLeft   = "pivot_left"
	ProfilePivotRight  = "pivot_right"
	ProfileSlantFL     = "slant_front_left"
	ProfileSlantFR     = "slant_front_right"
	ProfileSlantRL     = "slant_rear_left"
	ProfileSlantRR     = "slant_rear_right"
	ProfileSlantSquare = "slant_square"

	DefaultProfileSpeed = 50.0
	DefaultPivotYaw     = 0.3
	DefaultStepDuration = time.Second
)

var profileDirections = map[string]float64{
	ProfileForward:     90,
	ProfileBackward:    270,
	ProfileStrafeLeft:  180,
	ProfileStrafeRight: 0,
	ProfileSlantFL:     135,
	ProfileSlantFR:     45,
	ProfileSlantRL:     225,
	ProfileSlantRR:     315,
}

func Stop() models.BodyVelocity {
	return models.BodyVelocity{DirectionDeg: ForwardDeg}
}

func Forward(speed float64) models.BodyVelocity {
	return models.BodyVelocity{LinearSpeed: speed, DirectionDeg: 90}
}

func Backward(speed float64) models.BodyVelocity {
	return models.BodyVelocity{LinearSpeed: speed, DirectionDeg: 270}
}

func StrafeLeft(speed float64) models.BodyVelocity {
	return models.BodyVelocity{LinearSpeed: speed, DirectionDeg: 180}
}

func StrafeRight(speed float64) models.BodyVelocity {
	return models.BodyVelocity{LinearSpeed: speed, DirectionDeg: 0}
}

// Pivot turns in place. Positive yaw is clockwise.
func Pivot(yaw float64) models.BodyVelocity {
	return models.BodyVelocity{DirectionDeg: 180, YawRate: yaw}
}

// Profile returns a canned command by name.
func Profile(name string, speed, yaw float64) (models.BodyVelocity, error) {
	switch name {
	case ProfileStop:
		return Stop(), nil
	case ProfilePivotLeft:
		return Pivot(-yaw), nil
	case ProfilePivotRight:
		return Pivot(yaw), nil
	}

	direction, ok := profileDirections[name]
	if !ok {
		return models.BodyVelocity{}, fmt.Errorf("unknown motion profile: %s", name)
	}
	return models.BodyVelocity{LinearSpeed: speed, DirectionDeg: direction}, nil
}

type Step struct {
	Name     string
	Velocity models.BodyVelocity
	Duration time.Duration
}

type Sequence []Step

func (s Sequence) Duration() time.Duration {
	total := time.Duration(0)
	for i := range s {
		total += s[i].Duration
	}
	return total
}

// At returns the step active after elapsed time; past the end it reports false.
func (s Sequence) At(elapsed time.Duration) (Step, bool) {
	if elapsed < 0 {
		elapsed = 0
	}
	end := time.Duration(0)
	for i := range s {
		end += s[i].Duration
		if elapsed < end {
			return s[i], true
		}
	}
	return Step{}, false
}

// AdvanceThenPivot is the open loop corner turn: drive forward, then spin in place.
func AdvanceThenPivot(speed float64, advance time.Duration, yaw float64, pivot time.Duration) Sequence {
	return Sequence{
		{Name: "advance", Velocity: Forward(speed), Duration: advance},
		{Name: "pivot", Velocity: Pivot(yaw), Duration: pivot},
	}
}

// Move builds the sequence for a named profile. A single profile runs for one step of the
// given duration; the slant square runs each diagonal for that long.
func Move(name string, speed, yaw float64, duration time.Duration) (Sequence, error) {
	if speed <= 0 {
		speed = DefaultProfileSpeed
	}
	if yaw == 0 {
		yaw = DefaultPivotYaw
	}
	if duration <= 0 {
		duration = DefaultStepDuration
	}

	if name == ProfileSlantSquare {
		return SlantSquare(speed, duration), nil
	}
	velocity, err := Profile(name, speed, yaw)
	if err != nil {
		return nil, err
	}
	return Sequence{{Name: name, Velocity: velocity, Duration: duration}}, nil
}

// SlantSquare drives the four diagonals in turn.
func SlantSquare(speed float64, leg time.Duration) Sequence {
	names := []string{ProfileSlantFR, ProfileSlantRR, ProfileSlantRL, ProfileSlantFL}
	seq := make(Sequence, 0, len(names))
	for _, name := range names {
		seq = append(seq, Step{
			Name:     name,
			Velocity: models.BodyVelocity{LinearSpeed: speed, DirectionDeg: profileDirections[name]},
			Duration: leg,
		})
	}
	return seq
}
