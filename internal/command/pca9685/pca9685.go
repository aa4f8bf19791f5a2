package command

import (
	"fmt"
	"log"

	"github.com/Speshl/gorrc_tracker/internal/config"
	"github.com/Speshl/gorrc_tracker/internal/vehicle"
	"github.com/googolgl/go-i2c"
	"github.com/googolgl/go-pca9685"
)

const (
	MaxValue = 1.0
	MinValue = 0.0
	MidValue = 0.5
	AcRange  = pca9685.ServoRangeDef

	MaxSupportedServos = 16
)

// channel is one PCA9685 output. Wheel speed controllers and gimbal servos are both driven
// as a fraction of the configured pulse range, so 0.5 is stopped or centered.
type channel interface {
	Fraction(float32) error
}

type CommandDriver struct {
	cfg    config.CommandConfig
	servos map[string]Servo
	driver *pca9685.PCA9685
}

type Servo struct {
	name     string
	inverted bool
	offset   float64
	minPulse float64
	maxPulse float64
	servo    channel
}

func NewCommand(cfg config.CommandConfig) *CommandDriver {
	return &CommandDriver{
		cfg: cfg,
	}
}

func (c *CommandDriver) Init() error {
	i2c, err := i2c.New(c.cfg.Address, c.cfg.I2CDevice)
	if err != nil {
		return fmt.Errorf("error starting i2c with address - %w", err)
	}

	c.driver, err = pca9685.New(i2c, nil)
	if err != nil {
		return fmt.Errorf("error getting servo driver - %w", err)
	}

	servos := make(map[string]Servo, MaxSupportedServos)
	for i := range c.cfg.ServoCfgs {
		name := c.cfg.ServoCfgs[i].Name
		servos[name] = Servo{
			name:     name,
			inverted: c.cfg.ServoCfgs[i].Inverted,
			offset:   float64(c.cfg.ServoCfgs[i].Offset) / 100,
			minPulse: c.cfg.ServoCfgs[i].MinPulse,
			maxPulse: c.cfg.ServoCfgs[i].MaxPulse,
			servo: c.driver.ServoNew(c.cfg.ServoCfgs[i].Channel, &pca9685.ServOptions{
				AcRange:  AcRange,
				MinPulse: float32(c.cfg.ServoCfgs[i].MinPulse),
				MaxPulse: float32(c.cfg.ServoCfgs[i].MaxPulse),
			}),
		}
		log.Printf("servo added: %s channel: %d\n", name, c.cfg.ServoCfgs[i].Channel)
	}
	c.servos = servos
	return c.CenterAll()
}

// CenterAll puts every channel at mid range, which stops the wheels.
func (c *CommandDriver) CenterAll() error {
	log.Println("centering all servos")
	for name := range c.servos {
		err := c.servos[name].servo.Fraction(MidValue)
		if err != nil {
			return fmt.Errorf("failed centering servo %s: %w", name, err)
		}
	}
	return nil
}

func (c *CommandDriver) Stop() error {
	return c.CenterAll()
}

func (c *CommandDriver) SetMany(cmds []vehicle.DriverCommand) error {
	for i := range cmds {
		err := c.Set(cmds[i])
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *CommandDriver) Set(cmd vehicle.DriverCommand) error {
	val, ok := c.servos[cmd.Name]
	if !ok {
		return nil
	}

	mappedValue := Fraction(cmd, val)
	err := val.servo.Fraction(float32(mappedValue))
	if err != nil {
		return fmt.Errorf("failed setting servo value - name: %s value: %.2f - error: %w", cmd.Name, mappedValue, err)
	}
	return nil
}

// Fraction maps a command onto the 0..1 channel range. A pulse command is placed on the
// servo's own pulse range, so the channel emits exactly the requested width.
func Fraction(cmd vehicle.DriverCommand, servo Servo) float64 {
	if cmd.Pulse {
		mappedValue := vehicle.MapToRange(cmd.Value, servo.minPulse, servo.maxPulse, MinValue, MaxValue)
		if servo.inverted {
			mappedValue = MaxValue - mappedValue
		}
		return mappedValue
	}

	mappedValue := vehicle.MapToRange(cmd.Value+servo.offset, cmd.Min, cmd.Max, MinValue, MaxValue)
	if servo.inverted {
		mappedValue = MaxValue - mappedValue
	}
	return mappedValue
}
