package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Calibration is the per robot servo trim file written by the calibration tool.
// servo1 is the tilt servo and servo2 the pan servo.
type Calibration struct {
	Servo1 *int           `yaml:"servo1"`
	Servo2 *int           `yaml:"servo2"`
	Trims  map[string]int `yaml:"trims"`
}

func LoadCalibration(path string) (Calibration, error) {
	calibration := Calibration{}
	data, err := os.ReadFile(path)
	if err != nil {
		return calibration, fmt.Errorf("failed reading calibration file %s: %w", path, err)
	}

	err = yaml.Unmarshal(data, &calibration)
	if err != nil {
		return calibration, fmt.Errorf("failed parsing calibration file %s: %w", path, err)
	}
	return calibration, nil
}

// Apply moves gimbal centers and servo mid offsets to the calibrated values.
func (c Calibration) Apply(cfg *Config) {
	if c.Servo1 != nil {
		cfg.GimbalCfg.TiltCenter = float64(*c.Servo1 + DefaultTiltCenterShift)
		log.Printf("calibrated tilt center: %.0f\n", cfg.GimbalCfg.TiltCenter)
	}
	if c.Servo2 != nil {
		cfg.GimbalCfg.PanCenter = float64(*c.Servo2)
		log.Printf("calibrated pan center: %.0f\n", cfg.GimbalCfg.PanCenter)
	}

	for i := range cfg.CommandCfg.ServoCfgs {
		trim, ok := c.Trims[cfg.CommandCfg.ServoCfgs[i].Name]
		if ok {
			cfg.CommandCfg.ServoCfgs[i].Offset = trim
		}
	}
}
