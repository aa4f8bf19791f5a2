package mecanum

import (
	"errors"
	"fmt"
	"math"

	"github.com/Speshl/gorrc_tracker/internal/models"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultK       = 126.0 //half track + half wheelbase of the reference chassis, mm
	DefaultMaxDuty = 100.0

	MaxLinearSpeed = 100.0
	MaxYawRate     = 2.0

	ForwardDeg = 90.0
)

var ErrInvalidGeometry = errors.New("invalid chassis geometry")

type Kinematics struct {
	k       float64
	maxDuty float64
}

func NewKinematics(k, maxDuty float64) (*Kinematics, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive - k: %.2f", ErrInvalidGeometry, k)
	}
	if maxDuty <= 0 {
		return nil, fmt.Errorf("%w: max duty must be positive - max duty: %.2f", ErrInvalidGeometry, maxDuty)
	}
	return &Kinematics{
		k:       k,
		maxDuty: maxDuty,
	}, nil
}

// ToWheels decomposes a body velocity into the four wheel duties. If any wheel would exceed
// the max duty all four are scaled down by the same factor so the heading is kept.
func (m *Kinematics) ToWheels(v models.BodyVelocity) models.WheelCommand {
	if v.LinearSpeed == 0 && v.YawRate == 0 {
		return models.WheelCommand{}
	}

	theta := NormalizeDirection(v.DirectionDeg) * math.Pi / 180
	vx := v.LinearSpeed * math.Cos(theta)
	vy := v.LinearSpeed * math.Sin(theta)
	vp := v.YawRate * m.k

	wheels := [models.WheelCount]float64{
		vy + vx + vp, //front left
		vy - vx - vp, //front right
		vy - vx + vp, //rear left
		vy + vx - vp, //rear right
	}

	largest := 0.0
	for _, w := range wheels {
		largest = math.Max(largest, math.Abs(w))
	}
	if largest > m.maxDuty {
		scale := m.maxDuty / largest
		for i := range wheels {
			wheels[i] *= scale
		}
	}

	return models.WheelCommand{
		FrontLeft:  wheels[0],
		FrontRight: wheels[1],
		RearLeft:   wheels[2],
		RearRight:  wheels[3],
	}
}

// FromWheels recovers the body components (vx, vy, yaw rate) from four wheel readings by
// least squares, so slightly inconsistent readings still resolve.
func (m *Kinematics) FromWheels(w models.WheelCommand) (vx, vy, yaw float64, err error) {
	a := mat.NewDense(models.WheelCount, 3, []float64{
		1, 1, m.k,
		-1, 1, -m.k,
		-1, 1, m.k,
		1, 1, -m.k,
	})
	values := w.Values()
	b := mat.NewVecDense(models.WheelCount, values[:])

	var x mat.VecDense
	err = x.SolveVec(a, b)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed solving wheel velocities: %w", err)
	}
	return x.AtVec(0), x.AtVec(1), x.AtVec(2), nil
}

// BodyFromWheels is FromWheels expressed as a BodyVelocity.
func (m *Kinematics) BodyFromWheels(w models.WheelCommand) (models.BodyVelocity, error) {
	vx, vy, yaw, err := m.FromWheels(w)
	if err != nil {
		return models.BodyVelocity{}, err
	}
	v := Translation(vx, vy)
	v.YawRate = yaw
	return v, nil
}

// Translation builds a body velocity from cartesian components, x right and y forward.
func Translation(vx, vy float64) models.BodyVelocity {
	speed := math.Hypot(vx, vy)
	if speed == 0 {
		return models.BodyVelocity{DirectionDeg: ForwardDeg}
	}
	return models.BodyVelocity{
		LinearSpeed:  speed,
		DirectionDeg: NormalizeDirection(math.Atan2(vy, vx) * 180 / math.Pi),
	}
}

func NormalizeDirection(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// Clamp limits a body velocity to the ranges the chassis accepts.
func Clamp(v models.BodyVelocity) models.BodyVelocity {
	return models.BodyVelocity{
		LinearSpeed:  math.Max(-MaxLinearSpeed, math.Min(MaxLinearSpeed, v.LinearSpeed)),
		DirectionDeg: NormalizeDirection(v.DirectionDeg),
		YawRate:      math.Max(-MaxYawRate, math.Min(MaxYawRate, v.YawRate)),
	}
}
