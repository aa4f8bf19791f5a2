package mecanum

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Speshl/gorrc_tracker/internal/config"
	"github.com/Speshl/gorrc_tracker/internal/estimator"
	chassis "github.com/Speshl/gorrc_tracker/internal/mecanum"
	"github.com/Speshl/gorrc_tracker/internal/models"
	"github.com/Speshl/gorrc_tracker/internal/sensor"
	"github.com/Speshl/gorrc_tracker/internal/tracker"
	"github.com/Speshl/gorrc_tracker/internal/vehicle"
)

const (
	// a tick later than this many periods after the previous one is an overrun
	OverrunFactor = 2
)

// Mecanum is one robot session: the sensing task and the control task share it.
type Mecanum struct {
	cfg  config.Config
	lock sync.RWMutex

	commandDriver vehicle.CommandDriverIFace
	writer        *vehicle.AsyncDriver
	source        sensor.Source
	estimator     estimator.Estimator
	kinematics    *chassis.Kinematics
	machine       *tracker.Machine
	slot          *vehicle.MeasurementSlot

	state MecanumState

	// manual move, runs only while tracking is paused
	moveLock  sync.Mutex
	move      chassis.Sequence
	moveStart time.Time

	running        atomic.Bool
	needsStop      atomic.Bool
	resetEstimator atomic.Bool

	sensed   atomic.Uint64
	ticks    atomic.Uint64
	overruns atomic.Uint64
	lastTick time.Time

	now func() time.Time
}

// MecanumState is what the last control tick decided.
type MecanumState struct {
	Track       models.TrackState
	Velocity    models.BodyVelocity
	Wheels      models.WheelCommand
	Servos      []vehicle.DriverCommand
	Measurement models.Measurement
}
