// Package tracker turns target measurements into chassis motion.
//
// A Machine runs one step per control tick. It searches until a target qualifies, follows it
// with the steering and distance PIDs, hands large jumps off to an open loop corner maneuver,
// and stops the robot once the target has been missing for too many ticks.
package tracker

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/Speshl/gorrc_tracker/internal/config"
	"github.com/Speshl/gorrc_tracker/internal/mecanum"
	"github.com/Speshl/gorrc_tracker/internal/models"
	"github.com/Speshl/gorrc_tracker/internal/pid"
	"github.com/Speshl/gorrc_tracker/internal/vehicle"
)

// ErrNoPreviousSample is reported when a jump check has nothing to compare against,
// which happens on the first tracking tick of a target without a lead band.
var ErrNoPreviousSample = errors.New("no previous sample")

type Output struct {
	State    models.TrackState
	Velocity models.BodyVelocity
	Wheels   models.WheelCommand
	Servos   []vehicle.DriverCommand

	// Status is informational. The tick still produced a defined command.
	Status error
}

type Machine struct {
	cfg        config.TrackerConfig
	kinematics *mecanum.Kinematics
	gimbal     *Gimbal

	steer    *pid.Controller
	distance *pid.Controller

	state      models.TrackState
	detections int
	losses     int

	prevX    float64
	hasPrevX bool

	maneuver      mecanum.Sequence
	maneuverStart time.Time
	deadline      time.Time

	last Output
}

// NewMachine builds a machine in the searching state. gimbal may be nil.
func NewMachine(cfg config.TrackerConfig, kinematics *mecanum.Kinematics, gimbal *Gimbal) (*Machine, error) {
	steer, err := pid.New(gains(cfg.SteerGains))
	if err != nil {
		return nil, fmt.Errorf("failed creating steering pid: %w", err)
	}
	distance, err := pid.New(gains(cfg.DistanceGains))
	if err != nil {
		return nil, fmt.Errorf("failed creating distance pid: %w", err)
	}

	m := &Machine{
		cfg:        cfg,
		kinematics: kinematics,
		gimbal:     gimbal,
		steer:      steer,
		distance:   distance,
	}
	m.enter(models.StateSearching)
	return m, nil
}

func (m *Machine) State() models.TrackState {
	return m.state
}

func (m *Machine) Reset() {
	m.enter(models.StateSearching)
}

// Step consumes one measurement and returns the command for this tick.
func (m *Machine) Step(meas models.Measurement, now time.Time) Output {
	qualifying := m.qualifies(meas)

	switch m.state {
	case models.StateSearching:
		if !qualifying {
			m.detections = 0
			return m.stop()
		}
		m.detections++
		if m.detections < m.cfg.ConsecutiveDetections {
			return m.stop()
		}
		m.enter(models.StateTracking)
		return m.track(meas, now)

	case models.StateLost:
		if qualifying {
			m.enter(models.StateTracking)
			return m.track(meas, now)
		}
		m.enter(models.StateSearching)
		return m.stop()

	case models.StateCommittedManeuver:
		if now.Before(m.deadline) {
			step, ok := m.maneuver.At(now.Sub(m.maneuverStart))
			if ok {
				return m.emit(step.Velocity, nil)
			}
		}
		log.Println("maneuver complete, resuming tracking")
		m.enter(models.StateTracking)
		if !qualifying {
			return m.miss()
		}
		return m.track(meas, now)

	default:
		if !qualifying {
			return m.miss()
		}
		return m.track(meas, now)
	}
}

func (m *Machine) qualifies(meas models.Measurement) bool {
	return meas.Valid && meas.Confidence >= m.cfg.MinConfidence
}

// miss counts a tracking tick without a usable target. Until the limit the last command holds.
func (m *Machine) miss() Output {
	m.losses++
	if m.losses >= m.cfg.ConsecutiveLosses {
		log.Printf("target lost after %d ticks\n", m.losses)
		m.enter(models.StateLost)
		return m.stop()
	}
	return m.last
}

func (m *Machine) track(meas models.Measurement, now time.Time) Output {
	m.losses = 0

	if meas.Coarse != nil {
		return m.emit(*meas.Coarse, nil)
	}

	center := m.cfg.ImageWidth / 2
	x := vehicle.GetValueWithMidDeadZone(meas.X, center, m.cfg.CenterDeadZone)

	var status error
	if m.cfg.ManeuverEnabled {
		reference, err := m.reference(meas)
		if err != nil {
			status = err
		} else if math.Abs(x-reference) > m.cfg.ManeuverThreshold {
			return m.startManeuver(x, reference, now)
		}
	}
	m.prevX = x
	m.hasPrevX = true

	if m.gimbal != nil {
		m.gimbal.Track(x, meas.Y)
	}

	vx, yaw := m.steering(x)
	vy := m.cfg.CruiseSpeed
	if m.cfg.DistanceEnabled {
		vy = m.forward(meas.Area)
	}

	vx = vehicle.GetValueWithMidDeadZone(vx, 0, m.cfg.OutputDeadZone)
	vy = vehicle.GetValueWithMidDeadZone(vy, 0, m.cfg.OutputDeadZone)
	yaw = vehicle.GetValueWithMidDeadZone(yaw, 0, m.cfg.YawDeadZone)

	v := mecanum.Translation(vx, vy)
	v.LinearSpeed = clamp(v.LinearSpeed, 0, mecanum.MaxLinearSpeed)
	v.YawRate = clamp(yaw, -mecanum.MaxYawRate, mecanum.MaxYawRate)
	return m.emit(v, status)
}

// steering returns the lateral speed and yaw rate for the configured steering axis.
func (m *Machine) steering(x float64) (float64, float64) {
	if m.cfg.SteerAxis == config.SteerAxisStrafe {
		if m.gimbal != nil {
			// follow the camera: strafe until the pan servo is back at its center
			pan := vehicle.GetValueWithMidDeadZone(m.gimbal.Pan(), m.gimbal.PanCenter(), m.gimbal.cfg.PanDeadZone)
			m.steer.SetPoint = m.gimbal.PanCenter()
			return m.steer.Update(pan), 0
		}
		m.steer.SetPoint = m.cfg.ImageWidth / 2
		return -m.steer.Update(x), 0
	}

	m.steer.SetPoint = m.cfg.ImageWidth / 2
	return 0, -m.steer.Update(x)
}

func (m *Machine) forward(area float64) float64 {
	m.distance.SetPoint = m.cfg.TargetArea
	if math.Abs(area-m.cfg.TargetArea) < m.cfg.DistanceDeadBand {
		area = m.cfg.TargetArea
	}
	if m.gimbal != nil && m.gimbal.Tilt() < m.gimbal.cfg.DistanceTiltMin {
		area = m.cfg.TargetArea
	}
	return m.distance.Update(area)
}

// reference is where the target is expected: the lead band if there is one, else the last x.
func (m *Machine) reference(meas models.Measurement) (float64, error) {
	if meas.HasLead {
		return meas.Lead, nil
	}
	if m.hasPrevX {
		return m.prevX, nil
	}
	return 0, ErrNoPreviousSample
}

func (m *Machine) startManeuver(x, reference float64, now time.Time) Output {
	yaw := -m.cfg.PivotYaw
	if reference > x {
		yaw = m.cfg.PivotYaw
	}

	m.maneuver = mecanum.AdvanceThenPivot(m.cfg.AdvanceSpeed, m.cfg.AdvanceDuration, yaw, m.cfg.PivotDuration)
	m.maneuverStart = now
	m.deadline = now.Add(m.maneuver.Duration())
	log.Printf("jump of %.0f px, starting maneuver with pivot yaw %.2f\n", math.Abs(x-reference), yaw)
	m.state = models.StateCommittedManeuver

	step, ok := m.maneuver.At(0)
	if !ok {
		// zero length maneuver
		m.enter(models.StateTracking)
		return m.stop()
	}
	return m.emit(step.Velocity, nil)
}

func (m *Machine) emit(v models.BodyVelocity, status error) Output {
	out := Output{
		State:    m.state,
		Velocity: v,
		Wheels:   m.kinematics.ToWheels(v),
		Status:   status,
	}
	if m.gimbal != nil {
		out.Servos = m.gimbal.Commands()
	}
	m.last = out
	return out
}

func (m *Machine) stop() Output {
	return m.emit(mecanum.Stop(), nil)
}

// enter switches state and clears controller history once.
func (m *Machine) enter(state models.TrackState) {
	if m.state != state {
		log.Printf("tracker state %s -> %s\n", m.state, state)
	}
	m.state = state
	m.detections = 0
	m.losses = 0
	m.prevX = 0
	m.hasPrevX = false
	m.steer.Clear()
	m.distance.Clear()

	if m.gimbal != nil && state != models.StateTracking {
		m.gimbal.Recenter()
	}

	m.last = Output{
		State:    state,
		Velocity: mecanum.Stop(),
	}
	if m.gimbal != nil {
		m.last.Servos = m.gimbal.Commands()
	}
}
