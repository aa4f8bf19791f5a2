package models

import (
	"time"

	"github.com/google/uuid"
)

const WheelCount = 4

// Tick is the sequence number of the sensing sample a Measurement was built from.
type Tick uint64

type Measurement struct {
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Area       float64   `json:"area"`
	Confidence float64   `json:"confidence"`
	Valid      bool      `json:"valid"`
	Timestamp  Tick      `json:"tick"`
	Captured   time.Time `json:"captured"`
	Label      string    `json:"label,omitempty"`

	// Lead is the centroid of the farthest band that saw the line, used to predict corners.
	Lead    float64 `json:"lead"`
	HasLead bool    `json:"has_lead"`

	// Coarse is set by line-sensor mode, which steers from a truth table instead of a PID.
	Coarse *BodyVelocity `json:"coarse,omitempty"`
}

// InvalidMeasurement is the "no target" sample. X uses the -1 sentinel.
func InvalidMeasurement(tick Tick, captured time.Time) Measurement {
	return Measurement{
		X:         -1,
		Y:         -1,
		Valid:     false,
		Timestamp: tick,
		Captured:  captured,
	}
}

// Frame is one detector output. Which fields are filled depends on the detector.
type Frame struct {
	Bands    []Band           `json:"bands,omitempty"`
	Blobs    []Blob           `json:"blobs,omitempty"`
	Infrared *InfraredReading `json:"infrared,omitempty"`
	Captured time.Time        `json:"captured"`
}

type Band struct {
	Index     int      `json:"band_index"`
	CentroidX *float64 `json:"centroid_x"`
	CentroidY float64  `json:"centroid_y"`
}

type Blob struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Area       float64 `json:"area"`
	Label      string  `json:"label"`
	Confidence float64 `json:"label_confidence"`
}

func (b Blob) Center() (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// InfraredReading holds the four line sensors, left to right.
type InfraredReading struct {
	Sensors [4]bool `json:"sensors"`
}

type BodyVelocity struct {
	LinearSpeed  float64 `json:"linear_speed"`
	DirectionDeg float64 `json:"direction_deg"`
	YawRate      float64 `json:"yaw_rate"`
}

type WheelCommand struct {
	FrontLeft  float64 `json:"front_left"`
	FrontRight float64 `json:"front_right"`
	RearLeft   float64 `json:"rear_left"`
	RearRight  float64 `json:"rear_right"`
}

func (w WheelCommand) Values() [WheelCount]float64 {
	return [WheelCount]float64{w.FrontLeft, w.FrontRight, w.RearLeft, w.RearRight}
}

func (w WheelCommand) IsStop() bool {
	return w == WheelCommand{}
}

type TrackState int

const (
	StateSearching TrackState = iota
	StateTracking
	StateCommittedManeuver
	StateLost
)

func (s TrackState) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateTracking:
		return "tracking"
	case StateCommittedManeuver:
		return "committed_maneuver"
	case StateLost:
		return "lost"
	default:
		return "unknown"
	}
}

type ConnectReq struct {
	Key       string    `json:"key"`
	Password  string    `json:"password"`
	SessionId uuid.UUID `json:"session_id"`
}

type ConnectResp struct {
	Robot Robot `json:"robot"`
}

type Robot struct {
	Id        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	ShortName string    `json:"short_name"`
}

// MoveReq asks for a canned movement while tracking is paused. Zero values take defaults.
type MoveReq struct {
	Profile    string  `json:"profile"`
	Speed      float64 `json:"speed"`
	Yaw        float64 `json:"yaw"`
	DurationMs int64   `json:"duration_ms"`
}

type Telemetry struct {
	SessionId      uuid.UUID    `json:"session_id"`
	State          string       `json:"state"`
	Running        bool         `json:"running"`
	Moving         bool         `json:"moving"`
	Wheels         WheelCommand `json:"wheels"`
	Body           BodyVelocity `json:"body"`
	Measurement    Measurement  `json:"measurement"`
	Ticks          uint64       `json:"ticks"`
	Overruns       uint64       `json:"overruns"`
	ActuatorWrites uint64       `json:"actuator_writes"`
	ActuatorErrors uint64       `json:"actuator_errors"`
	FramesReceived uint64       `json:"frames_received"`
	FramesDropped  uint64       `json:"frames_dropped"`
	CPUSeconds     float64      `json:"cpu_seconds"`
	ResidentBytes  int          `json:"resident_bytes"`
	NetRxBytes     uint64       `json:"net_rx_bytes"`
	NetTxBytes     uint64       `json:"net_tx_bytes"`
	TimeStamp      int64        `json:"time_stamp"`
}
