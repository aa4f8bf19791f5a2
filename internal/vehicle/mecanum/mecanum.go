package mecanum

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Speshl/gorrc_tracker/internal/config"
	"github.com/Speshl/gorrc_tracker/internal/estimator"
	chassis "github.com/Speshl/gorrc_tracker/internal/mecanum"
	"github.com/Speshl/gorrc_tracker/internal/models"
	"github.com/Speshl/gorrc_tracker/internal/sensor"
	"github.com/Speshl/gorrc_tracker/internal/tracker"
	"github.com/Speshl/gorrc_tracker/internal/vehicle"
	"golang.org/x/sync/errgroup"
)

func NewMecanum(cfg config.Config, commandDriver vehicle.CommandDriverIFace, source sensor.Source) (*Mecanum, error) {
	log.Printf("setting up mecanum tracker in %s mode\n", cfg.TrackerCfg.Mode)

	kinematics, err := chassis.NewKinematics(cfg.ChassisCfg.K, cfg.ChassisCfg.MaxDuty)
	if err != nil {
		return nil, err
	}

	targetEstimator, err := estimator.New(cfg.EstimatorCfg, cfg.TrackerCfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed creating estimator: %w", err)
	}

	var gimbal *tracker.Gimbal
	if cfg.GimbalCfg.Enabled {
		gimbal, err = tracker.NewGimbal(cfg.GimbalCfg, cfg.TrackerCfg.ImageWidth, cfg.TrackerCfg.ImageHeight)
		if err != nil {
			return nil, fmt.Errorf("failed creating gimbal: %w", err)
		}
	}

	machine, err := tracker.NewMachine(cfg.TrackerCfg, kinematics, gimbal)
	if err != nil {
		return nil, fmt.Errorf("failed creating tracker: %w", err)
	}

	m := &Mecanum{
		cfg:           cfg,
		commandDriver: commandDriver,
		writer:        vehicle.NewAsyncDriver(commandDriver),
		source:        source,
		estimator:     targetEstimator,
		kinematics:    kinematics,
		machine:       machine,
		slot:          vehicle.NewMeasurementSlot(),
		now:           time.Now,
	}
	m.state = MecanumState{
		Track:       models.StateSearching,
		Velocity:    chassis.Stop(),
		Measurement: models.InvalidMeasurement(0, time.Time{}),
	}
	m.running.Store(true)
	return m, nil
}

func (m *Mecanum) Init() error {
	err := m.commandDriver.Init()
	if err != nil {
		return fmt.Errorf("error: failed initializing mecanum command interface: %w", err)
	}

	// stop the wheels before anything moves
	err = m.commandDriver.SetMany(m.stopCommands())
	if err != nil {
		return fmt.Errorf("error: failed stopping wheels: %w", err)
	}
	return nil
}

func (m *Mecanum) Start(ctx context.Context) error {
	log.Println("starting mecanum tracker")
	errGroup, errGroupCtx := errgroup.WithContext(ctx)

	errGroup.Go(func() error {
		return m.writer.Start(errGroupCtx)
	})

	errGroup.Go(func() error {
		senseTicker := time.NewTicker(m.cfg.TrackerCfg.SensePeriod)
		defer senseTicker.Stop()
		for {
			select {
			case <-errGroupCtx.Done():
				log.Printf("stopping mecanum sensing: %s\n", errGroupCtx.Err().Error())
				return nil
			case <-senseTicker.C:
				m.senseTick(m.now())
			}
		}
	})

	errGroup.Go(func() error {
		controlTicker := time.NewTicker(m.cfg.TrackerCfg.TickPeriod)
		defer controlTicker.Stop()
		for {
			select {
			case <-errGroupCtx.Done():
				log.Printf("stopping mecanum control: %s\n", errGroupCtx.Err().Error())
				return nil
			case <-controlTicker.C:
				m.controlTick(m.now())
			}
		}
	})

	err := errGroup.Wait()
	stopErr := m.Stop()
	if err != nil || stopErr != nil {
		return fmt.Errorf("mecanum error group closed: %w", errors.Join(err, stopErr))
	}
	return nil
}

// Stop writes the all stop command synchronously and releases the driver.
func (m *Mecanum) Stop() error {
	log.Println("stopping mecanum tracker")
	err := m.writer.Shutdown(m.stopCommands())
	if err != nil {
		return fmt.Errorf("error: failed stopping command driver: %w", err)
	}
	return nil
}

// senseTick turns the newest detector frame into a measurement. Without a new frame the
// previous measurement stays in the slot.
func (m *Mecanum) senseTick(now time.Time) {
	if m.resetEstimator.Swap(false) {
		m.estimator.Reset()
	}

	frame, ok := m.source.Latest()
	if !ok {
		return
	}
	tick := models.Tick(m.sensed.Add(1))
	m.slot.Store(m.estimator.Estimate(frame, tick), now)
}

func (m *Mecanum) controlTick(now time.Time) {
	count := m.ticks.Add(1)
	if !m.lastTick.IsZero() {
		gap := now.Sub(m.lastTick)
		if gap > OverrunFactor*m.cfg.TrackerCfg.TickPeriod {
			overruns := m.overruns.Add(1)
			log.Printf("control tick %d late by %s (%d overruns)\n", count, gap-m.cfg.TrackerCfg.TickPeriod, overruns)
		}
	}
	m.lastTick = now

	if !m.running.Load() {
		if m.needsStop.Swap(false) {
			m.machine.Reset()
			m.writer.Submit(m.stopCommands())
			m.applyState(MecanumState{
				Track:       m.machine.State(),
				Velocity:    chassis.Stop(),
				Measurement: models.InvalidMeasurement(0, now),
			})
		}
		m.moveTick(now)
		return
	}

	// paused and resumed between two ticks
	if m.needsStop.Swap(false) {
		m.machine.Reset()
	}

	meas := m.slot.Load(now, m.cfg.TrackerCfg.MaxMeasurementAge)
	out := m.machine.Step(meas, now)
	if out.Status != nil {
		log.Printf("tracker status: %s\n", out.Status.Error())
	}

	commands := vehicle.WheelCommands(out.Wheels, m.cfg.ChassisCfg.MaxDuty)
	commands = append(commands, out.Servos...)
	m.writer.Submit(commands)

	m.applyState(MecanumState{
		Track:       out.State,
		Velocity:    out.Velocity,
		Wheels:      out.Wheels,
		Servos:      out.Servos,
		Measurement: meas,
	})
}

func (m *Mecanum) applyState(state MecanumState) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.state = state
}

func (m *Mecanum) stopCommands() []vehicle.DriverCommand {
	return vehicle.StopCommands(m.cfg.ChassisCfg.MaxDuty)
}

// moveTick drives the manual move, if any, and stops the wheels once it ends.
func (m *Mecanum) moveTick(now time.Time) {
	m.moveLock.Lock()
	defer m.moveLock.Unlock()
	if m.move == nil {
		return
	}
	if m.moveStart.IsZero() {
		m.moveStart = now
	}

	velocity := chassis.Stop()
	step, ok := m.move.At(now.Sub(m.moveStart))
	if ok {
		velocity = chassis.Clamp(step.Velocity)
	} else {
		log.Println("manual move complete")
		m.move = nil
	}

	wheels := m.kinematics.ToWheels(velocity)
	m.writer.Submit(vehicle.WheelCommands(wheels, m.cfg.ChassisCfg.MaxDuty))
	m.applyState(MecanumState{
		Track:       m.machine.State(),
		Velocity:    velocity,
		Wheels:      wheels,
		Measurement: models.InvalidMeasurement(0, now),
	})
}

// Move pauses tracking and runs seq open loop from the next control tick.
func (m *Mecanum) Move(seq chassis.Sequence) {
	m.Pause()
	m.moveLock.Lock()
	defer m.moveLock.Unlock()
	log.Printf("starting manual move of %d steps over %s\n", len(seq), seq.Duration())
	m.move = seq
	m.moveStart = time.Time{}
}

func (m *Mecanum) Moving() bool {
	m.moveLock.Lock()
	defer m.moveLock.Unlock()
	return m.move != nil
}

// cancelMove drops any manual move and reports whether one was running.
func (m *Mecanum) cancelMove() bool {
	m.moveLock.Lock()
	defer m.moveLock.Unlock()
	moving := m.move != nil
	m.move = nil
	return moving
}

// Pause stops the robot on the next control tick and holds it until Resume.
func (m *Mecanum) Pause() {
	moving := m.cancelMove()
	if m.running.Swap(false) || moving {
		log.Println("pausing tracker")
		m.needsStop.Store(true)
		m.resetEstimator.Store(true)
	}
}

func (m *Mecanum) Resume() {
	m.cancelMove()
	if !m.running.Swap(true) {
		log.Println("resuming tracker")
		m.slot.Clear()
	}
}

func (m *Mecanum) Running() bool {
	return m.running.Load()
}

func (m *Mecanum) State() MecanumState {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.state
}

// Telemetry fills the session counters. Process stats are left to the caller.
func (m *Mecanum) Telemetry() models.Telemetry {
	state := m.State()

	// what the wheels actually do after duty scaling
	body, err := m.kinematics.BodyFromWheels(state.Wheels)
	if err != nil {
		log.Printf("warning: failed resolving body velocity - error: %s\n", err.Error())
	}

	return models.Telemetry{
		State:          state.Track.String(),
		Running:        m.Running(),
		Moving:         m.Moving(),
		Wheels:         state.Wheels,
		Body:           body,
		Measurement:    state.Measurement,
		Ticks:          m.ticks.Load(),
		Overruns:       m.overruns.Load(),
		ActuatorWrites: m.writer.Writes(),
		ActuatorErrors: m.writer.Errors(),
	}
}
