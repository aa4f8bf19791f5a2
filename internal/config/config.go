package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Servo names the tracker drives. Wheels use signed duty, gimbal servos use pulse widths.
const (
	ServoFrontLeft  = "front_left"
	ServoFrontRight = "front_right"
	ServoRearLeft   = "rear_left"
	ServoRearRight  = "rear_right"
	ServoPan        = "pan"
	ServoTilt       = "tilt"
)

var defaultServoLayout = []string{ServoFrontLeft, ServoFrontRight, ServoRearLeft, ServoRearRight, ServoPan, ServoTilt}

func GetConfig() Config {
	cfg := Config{
		ServerCfg:       GetServerConfig(),
		CommandCfg:      GetCommandConfig(),
		ChassisCfg:      GetChassisConfig(),
		TrackerCfg:      GetTrackerConfig(),
		EstimatorCfg:    GetEstimatorConfig(),
		InfraredCfg:     GetInfraredConfig(),
		CalibrationFile: GetPathEnv("CALIBRATION", DefaultCalibrationFile),
	}
	cfg.GimbalCfg = GetGimbalConfig(cfg.TrackerCfg.Mode)

	if cfg.CalibrationFile != "" {
		calibration, err := LoadCalibration(cfg.CalibrationFile)
		if err != nil {
			log.Printf("warning: calibration not loaded, using defaults - error: %s\n", err)
		} else {
			calibration.Apply(&cfg)
		}
	}

	log.Printf("app Config: \n%+v\n", cfg)
	return cfg
}

func GetServerConfig() ServerConfig {
	return ServerConfig{
		Enabled:         GetBoolEnv("REMOTE", DefaultRemoteEnabled),
		Server:          GetStringEnv("SERVER", DefaultServer),
		Key:             GetStringEnv("ROBOTKEY", DefaultRobotKey),
		Password:        GetStringEnv("ROBOTPASSWORD", DefaultPassword),
		TelemetryPeriod: GetDurationEnv("TELEMETRY_PERIOD", DefaultTelemetryPeriod),
		HealthPeriod:    GetDurationEnv("HEALTH_PERIOD", DefaultHealthPeriod),
		NetInterface:    GetPathEnv("NET_INTERFACE", DefaultNetInterface),
	}
}

func GetCommandConfig() CommandConfig {
	commandCfg := CommandConfig{
		CommandDriver: GetStringEnv("SERVODRIVER", DefaultCommandDriver),
		Address:       DefaultAddress, //  GetStringEnv("ADDRESS", DefaultAddress),
		I2CDevice:     GetStringEnv("I2CDEVICE", DefaultI2CDevice),
		ServoCfgs:     make([]ServoConfig, 0, MaxSupportedServos),
	}

	for i := 0; i < MaxSupportedServos; i++ {
		envPrefix := fmt.Sprintf("SERVO%d_", i)
		defaultName := ""
		if i < len(defaultServoLayout) {
			defaultName = defaultServoLayout[i]
		}

		servoCfg := ServoConfig{
			Name:     GetStringEnv(envPrefix+"NAME", defaultName),
			Channel:  GetIntEnv(envPrefix+"CHANNEL", i),
			MaxPulse: float64(GetIntEnv(envPrefix+"MAXPULSE", DefaultMaxPulse)),
			MinPulse: float64(GetIntEnv(envPrefix+"MINPULSE", DefaultMinPulse)),
			Inverted: GetBoolEnv(envPrefix+"INVERTED", DefaultInverted),
			Offset:   GetIntEnv(envPrefix+"MIDOFFSET", DefaultOffset),
		}

		if servoCfg.Name != "" {
			log.Printf("found config for servo: %s\n", servoCfg.Name)
			commandCfg.ServoCfgs = append(commandCfg.ServoCfgs, servoCfg)
		}
	}
	return commandCfg
}

func GetChassisConfig() ChassisConfig {
	return ChassisConfig{
		K:       GetFloatEnv("CHASSIS_K", DefaultChassisK),
		MaxDuty: GetFloatEnv("CHASSIS_MAXDUTY", DefaultChassisMaxDuty),
	}
}

func GetTrackerConfig() TrackerConfig {
	envPrefix := "TRACKER_"
	mode := GetStringEnv(envPrefix+"MODE", DefaultMode)
	defaults, ok := defaultsByMode[mode]
	if !ok {
		defaults = defaultsByMode[DefaultMode]
	}

	return TrackerConfig{
		Mode: mode,

		TickPeriod:        GetDurationEnv(envPrefix+"TICK", DefaultTickPeriod),
		SensePeriod:       GetDurationEnv(envPrefix+"SENSE", DefaultSensePeriod),
		MaxMeasurementAge: GetDurationEnv(envPrefix+"MAX_AGE", DefaultMaxMeasurementAge),

		ImageWidth:  GetFloatEnv(envPrefix+"IMAGE_WIDTH", DefaultImageWidth),
		ImageHeight: GetFloatEnv(envPrefix+"IMAGE_HEIGHT", DefaultImageHeight),

		ConsecutiveLosses:     GetIntEnv(envPrefix+"LOSSES", DefaultConsecutiveLosses),
		ConsecutiveDetections: GetIntEnv(envPrefix+"DETECTIONS", DefaultConsecutiveDetect),
		MinConfidence:         GetFloatEnv(envPrefix+"MIN_CONFIDENCE", defaults.minConfidence),

		CenterDeadZone: GetFloatEnv(envPrefix+"CENTER_DEADZONE", defaults.centerDeadZone),
		SteerAxis:      GetStringEnv(envPrefix+"STEER_AXIS", defaults.steerAxis),
		SteerGains:     GetPIDConfig(envPrefix+"STEER_", defaults.steerGains),

		CruiseSpeed:      GetFloatEnv(envPrefix+"CRUISE_SPEED", defaults.cruiseSpeed),
		DistanceEnabled:  GetBoolEnv(envPrefix+"DISTANCE", defaults.distanceEnabled),
		TargetArea:       GetFloatEnv(envPrefix+"TARGET_AREA", defaults.targetArea),
		DistanceDeadBand: GetFloatEnv(envPrefix+"DISTANCE_DEADBAND", defaults.deadBand),
		DistanceGains:    GetPIDConfig(envPrefix+"DISTANCE_", defaults.distanceGains),

		OutputDeadZone: GetFloatEnv(envPrefix+"OUTPUT_DEADZONE", defaults.outputDeadZone),
		YawDeadZone:    GetFloatEnv(envPrefix+"YAW_DEADZONE", defaults.yawDeadZone),

		ManeuverEnabled:   GetBoolEnv(envPrefix+"MANEUVER", defaults.maneuver),
		ManeuverThreshold: GetFloatEnv(envPrefix+"MANEUVER_THRESHOLD", DefaultManeuverThreshold),
		AdvanceSpeed:      GetFloatEnv(envPrefix+"ADVANCE_SPEED", DefaultAdvanceSpeed),
		AdvanceDuration:   GetDurationEnv(envPrefix+"ADVANCE_DURATION", DefaultAdvanceDuration),
		PivotYaw:          GetFloatEnv(envPrefix+"PIVOT_YAW", DefaultPivotYaw),
		PivotDuration:     GetDurationEnv(envPrefix+"PIVOT_DURATION", DefaultPivotDuration),
	}
}

func GetEstimatorConfig() EstimatorConfig {
	envPrefix := "ESTIMATOR_"
	return EstimatorConfig{
		BandWeights:    GetFloatListEnv(envPrefix+"BAND_WEIGHTS", DefaultBandWeights),
		JitterDeadZone: GetFloatEnv(envPrefix+"JITTER_DEADZONE", DefaultJitterDeadZone),
		MinContourArea: GetFloatEnv(envPrefix+"MIN_AREA", DefaultMinContourArea),
		VoteSize:       GetIntEnv(envPrefix+"VOTE_SIZE", DefaultVoteSize),
		InfraredSpeed:  GetFloatEnv(envPrefix+"INFRARED_SPEED", DefaultInfraredSpeed),
	}
}

func GetGimbalConfig(mode string) GimbalConfig {
	envPrefix := "GIMBAL_"
	return GimbalConfig{
		Enabled: GetBoolEnv(envPrefix+"ENABLED", defaultsByMode[mode].gimbal),

		PanMin:    GetFloatEnv(envPrefix+"PAN_MIN", DefaultPanMin),
		PanMax:    GetFloatEnv(envPrefix+"PAN_MAX", DefaultPanMax),
		PanCenter: GetFloatEnv(envPrefix+"PAN_CENTER", DefaultServoCenter),

		TiltMin:    GetFloatEnv(envPrefix+"TILT_MIN", DefaultTiltMin),
		TiltMax:    GetFloatEnv(envPrefix+"TILT_MAX", DefaultTiltMax),
		TiltCenter: GetFloatEnv(envPrefix+"TILT_CENTER", DefaultServoCenter+DefaultTiltCenterShift),

		PanDeadZone:  GetFloatEnv(envPrefix+"PAN_DEADZONE", DefaultPanDeadZone),
		TiltDeadZone: GetFloatEnv(envPrefix+"TILT_DEADZONE", DefaultTiltDeadZone),

		DistanceTiltMin: GetFloatEnv(envPrefix+"DISTANCE_TILT_MIN", DefaultDistanceTiltMin),

		PanGains:  GetPIDConfig(envPrefix+"PAN_", defaultGimbalGains),
		TiltGains: GetPIDConfig(envPrefix+"TILT_", defaultGimbalGains),
	}
}

func GetInfraredConfig() InfraredConfig {
	pins := GetFloatListEnv("INFRARED_PINS", DefaultInfraredPins)
	cfg := InfraredConfig{
		Pins: make([]int, 0, len(pins)),
	}
	for i := range pins {
		cfg.Pins = append(cfg.Pins, int(pins[i]))
	}
	return cfg
}

func GetPIDConfig(envPrefix string, defaults PIDConfig) PIDConfig {
	return PIDConfig{
		Kp:          GetFloatEnv(envPrefix+"KP", defaults.Kp),
		Ki:          GetFloatEnv(envPrefix+"KI", defaults.Ki),
		Kd:          GetFloatEnv(envPrefix+"KD", defaults.Kd),
		IntegralMin: GetFloatEnv(envPrefix+"IMIN", defaults.IntegralMin),
		IntegralMax: GetFloatEnv(envPrefix+"IMAX", defaults.IntegralMax),
	}
}

func GetIntEnv(env string, defaultValue int) int {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	} else {
		value, err := strconv.ParseInt(strings.Trim(envValue, "\r"), 10, 32)
		if err != nil {
			log.Printf("warning:%s not parsed - error: %s\n", env, err)
			return defaultValue
		} else {
			return int(value)
		}
	}
}

func GetBoolEnv(env string, defaultValue bool) bool {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	} else {
		value, err := strconv.ParseBool(strings.Trim(envValue, "\r"))
		if err != nil {
			log.Printf("warning:%s not parsed - error: %s\n", env, err)
			return defaultValue
		} else {
			return value
		}
	}
}

func GetStringEnv(env string, defaultValue string) string {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	} else {
		return strings.ToLower(strings.Trim(envValue, "\r"))
	}
}

// GetPathEnv is GetStringEnv without lower casing.
func GetPathEnv(env string, defaultValue string) string {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	}
	return strings.TrimSpace(strings.Trim(envValue, "\r"))
}

func GetFloatEnv(env string, defaultValue float64) float64 {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	} else {
		value, err := strconv.ParseFloat(strings.Trim(envValue, "\r"), 64)
		if err != nil {
			log.Printf("warning:%s not parsed - error: %s\n", env, err)
			return defaultValue
		}
		return value
	}
}

func GetDurationEnv(env string, defaultValue time.Duration) time.Duration {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	} else {
		value, err := time.ParseDuration(strings.Trim(envValue, "\r"))
		if err != nil {
			log.Printf("warning:%s not parsed - error: %s\n", env, err)
			return defaultValue
		}
		return value
	}
}

// GetFloatListEnv reads a comma separated list. The default uses the same format.
func GetFloatListEnv(env string, defaultValue string) []float64 {
	raw := defaultValue
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if found {
		raw = strings.Trim(envValue, "\r")
	}

	values, err := parseFloatList(raw)
	if err != nil {
		log.Printf("warning:%s not parsed - error: %s\n", env, err)
		values, _ = parseFloatList(defaultValue)
	}
	return values
}

func parseFloatList(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	values := make([]float64, 0, len(parts))
	for i := range parts {
		part := strings.TrimSpace(parts[i])
		if part == "" {
			continue
		}
		value, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("failed parsing list value %q: %w", part, err)
		}
		values = append(values, value)
	}
	return values, nil
}
