package config

import "time"

const (
	MaxSupportedServos = 16
	AppEnvBase         = "GORRC_"

	DefaultServer          = "127.0.0.1:8181"
	DefaultRobotKey        = ""
	DefaultPassword        = ""
	DefaultRemoteEnabled   = false
	DefaultTelemetryPeriod = 500 * time.Millisecond
	DefaultHealthPeriod    = 30 * time.Second
	DefaultCalibrationFile = ""
	DefaultNetInterface    = "wlan0"

	DefaultMaxPulse = 2250 //2000
	DefaultMinPulse = 750  //1000
	DefaultInverted = false
	DefaultOffset   = 0

	// Default Command Options
	DefaultCommandDriver = CommandDriverPCA9685
	DefaultAddress       = 0x40
	DefaultI2CDevice     = "/dev/i2c-1"

	CommandDriverPCA9685 = "pca9685"
	CommandDriverPiPWM   = "pipwm"

	// Default Chassis Options
	DefaultChassisK       = 126.0
	DefaultChassisMaxDuty = 100.0

	// Tracker modes
	ModeLine     = "line"
	ModeBlob     = "blob"
	ModeFace     = "face"
	ModeInfrared = "infrared"

	SteerAxisYaw    = "yaw"
	SteerAxisStrafe = "strafe"

	DefaultMode              = ModeLine
	DefaultTickPeriod        = 20 * time.Millisecond
	DefaultSensePeriod       = 33 * time.Millisecond
	DefaultMaxMeasurementAge = 250 * time.Millisecond
	DefaultImageWidth        = 640.0
	DefaultImageHeight       = 480.0
	DefaultConsecutiveLosses = 5
	DefaultConsecutiveDetect = 1

	// Committed maneuver, tuned on the reference chassis
	DefaultManeuverThreshold = 80.0
	DefaultAdvanceSpeed      = 40.0
	DefaultAdvanceDuration   = 1000 * time.Millisecond
	DefaultPivotYaw          = 0.3
	DefaultPivotDuration     = 1200 * time.Millisecond

	// Default Estimator Options
	DefaultBandWeights    = "0.1,0.3,0.6"
	DefaultJitterDeadZone = 10.0
	DefaultMinContourArea = 300.0
	DefaultVoteSize       = 3
	DefaultInfraredSpeed  = 35.0

	// Default Gimbal Options
	DefaultGimbalEnabled   = false
	DefaultPanMin          = 800.0
	DefaultPanMax          = 2200.0
	DefaultTiltMin         = 1000.0
	DefaultTiltMax         = 1900.0
	DefaultServoCenter     = 1500
	DefaultTiltCenterShift = -350
	DefaultPanDeadZone     = 15.0
	DefaultTiltDeadZone    = 10.0
	DefaultDistanceTiltMin = 1100.0

	DefaultInfraredPins = "17,27,22,23"
)

type Config struct {
	ServerCfg    ServerConfig
	CommandCfg   CommandConfig
	ChassisCfg   ChassisConfig
	TrackerCfg   TrackerConfig
	EstimatorCfg EstimatorConfig
	GimbalCfg    GimbalConfig
	InfraredCfg  InfraredConfig

	CalibrationFile string
}

type ServerConfig struct {
	Enabled         bool
	Server          string
	Key             string
	Password        string
	TelemetryPeriod time.Duration
	HealthPeriod    time.Duration
	NetInterface    string
}

type CommandConfig struct {
	CommandDriver string
	Address       byte
	I2CDevice     string
	ServoCfgs     []ServoConfig
}

type ServoConfig struct {
	Name     string
	Inverted bool
	Channel  int
	MaxPulse float64
	MinPulse float64
	Offset   int
}

type ChassisConfig struct {
	K       float64
	MaxDuty float64
}

type PIDConfig struct {
	Kp          float64
	Ki          float64
	Kd          float64
	IntegralMin float64
	IntegralMax float64
}

type TrackerConfig struct {
	Mode string

	TickPeriod        time.Duration
	SensePeriod       time.Duration
	MaxMeasurementAge time.Duration

	ImageWidth  float64
	ImageHeight float64

	ConsecutiveLosses     int
	ConsecutiveDetections int
	MinConfidence         float64

	CenterDeadZone float64
	SteerAxis      string
	SteerGains     PIDConfig

	CruiseSpeed      float64
	DistanceEnabled  bool
	TargetArea       float64
	DistanceDeadBand float64
	DistanceGains    PIDConfig

	OutputDeadZone float64
	YawDeadZone    float64

	ManeuverEnabled   bool
	ManeuverThreshold float64
	AdvanceSpeed      float64
	AdvanceDuration   time.Duration
	PivotYaw          float64
	PivotDuration     time.Duration
}

type EstimatorConfig struct {
	BandWeights    []float64
	JitterDeadZone float64
	MinContourArea float64
	VoteSize       int
	InfraredSpeed  float64
}

type GimbalConfig struct {
	Enabled bool

	PanMin    float64
	PanMax    float64
	PanCenter float64

	TiltMin    float64
	TiltMax    float64
	TiltCenter float64

	PanDeadZone  float64
	TiltDeadZone float64

	// below this tilt the camera looks up past the target, so distance is not chased
	DistanceTiltMin float64

	PanGains  PIDConfig
	TiltGains PIDConfig
}

type InfraredConfig struct {
	Pins []int
}

// modeDefaults are the per detector tunings the env vars override.
type modeDefaults struct {
	minConfidence   float64
	centerDeadZone  float64
	steerAxis       string
	steerGains      PIDConfig
	cruiseSpeed     float64
	distanceEnabled bool
	targetArea      float64
	deadBand        float64
	distanceGains   PIDConfig
	outputDeadZone  float64
	yawDeadZone     float64
	maneuver        bool
	gimbal          bool
}

var defaultsByMode = map[string]modeDefaults{
	ModeLine: {
		minConfidence:  1,
		centerDeadZone: 10,
		steerAxis:      SteerAxisYaw,
		steerGains:     PIDConfig{Kp: 0.001, Ki: 0.00001, Kd: 0.000001, IntegralMin: -10000, IntegralMax: 10000},
		cruiseSpeed:    40,
		yawDeadZone:    0.005,
		maneuver:       true,
	},
	ModeBlob: {
		minConfidence:   2500,
		centerDeadZone:  15,
		steerAxis:       SteerAxisYaw,
		steerGains:      PIDConfig{Kp: 0.003, Ki: 0, Kd: 0.0005, IntegralMin: -1000, IntegralMax: 1000},
		distanceEnabled: true,
		targetArea:      30000,
		deadBand:        2000,
		distanceGains:   PIDConfig{Kp: 0.002, Ki: 0.001, Kd: 0.0001, IntegralMin: -20000, IntegralMax: 20000},
		outputDeadZone:  5,
		yawDeadZone:     0.02,
	},
	ModeFace: {
		minConfidence:   1,
		centerDeadZone:  15,
		steerAxis:       SteerAxisStrafe,
		steerGains:      PIDConfig{Kp: 0.15, Ki: 0.001, Kd: 0.0001, IntegralMin: -2000, IntegralMax: 2000},
		distanceEnabled: true,
		targetArea:      30000,
		deadBand:        2000,
		distanceGains:   PIDConfig{Kp: 0.002, Ki: 0.001, Kd: 0.0001, IntegralMin: -20000, IntegralMax: 20000},
		outputDeadZone:  20,
		gimbal:          true,
	},
	ModeInfrared: {
		minConfidence: 1,
		steerAxis:     SteerAxisYaw,
		cruiseSpeed:   DefaultInfraredSpeed,
	},
}

var defaultGimbalGains = PIDConfig{Kp: 0.1, Ki: 0, Kd: 0, IntegralMin: -1000, IntegralMax: 1000}
