package pipwm

import (
	"log"
	"math"

	"github.com/Speshl/gorrc_tracker/internal/config"
	"github.com/Speshl/gorrc_tracker/internal/gpio"
	"github.com/Speshl/gorrc_tracker/internal/vehicle"
	"github.com/stianeikeland/go-rpio/v4"
)

const (
	Frequency          = 100000
	CycleLength        = uint32(2000)
	PulseUnit          = 1000000 / Frequency //microseconds per duty step
	MaxSupportedServos = 2
)

var PinMap = []int{12, 13} //Servo0, Servo1

type pwmPin interface {
	Mode(rpio.Mode)
	Freq(int)
	DutyCycle(dutyLen, cycleLen uint32)
}

// CommandDriver drives the gimbal from the two hardware PWM pins. Wheels are not supported.
type CommandDriver struct {
	cfg    config.CommandConfig
	servos map[string]Servo
}

type Servo struct {
	name     string
	inverted bool
	offset   float64
	servo    pwmPin
	maxValue uint32
	minValue uint32
}

func NewCommand(cfg config.CommandConfig) *CommandDriver {
	return &CommandDriver{
		cfg: cfg,
	}
}

func (c *CommandDriver) Init() error {
	err := gpio.Open()
	if err != nil {
		return err
	}

	servos := make(map[string]Servo, MaxSupportedServos)
	for _, servoCfg := range gimbalServos(c.cfg.ServoCfgs) {
		i := len(servos)
		servos[servoCfg.Name] = Servo{
			name:     servoCfg.Name,
			inverted: servoCfg.Inverted,
			offset:   float64(servoCfg.Offset) / 100,
			servo:    rpio.Pin(PinMap[i]),
			maxValue: uint32(servoCfg.MaxPulse),
			minValue: uint32(servoCfg.MinPulse),
		}
		servos[servoCfg.Name].servo.Mode(rpio.Pwm)
		servos[servoCfg.Name].servo.Freq(Frequency)
		log.Printf("servo added: %s pin: %d\n", servoCfg.Name, PinMap[i])
	}
	c.servos = servos
	c.CenterAll()
	return nil
}

// gimbalServos picks the pan and tilt configs, in that order, up to the available pins.
func gimbalServos(cfgs []config.ServoConfig) []config.ServoConfig {
	picked := make([]config.ServoConfig, 0, MaxSupportedServos)
	for _, name := range []string{config.ServoPan, config.ServoTilt} {
		for i := range cfgs {
			if cfgs[i].Name == name && len(picked) < MaxSupportedServos {
				picked = append(picked, cfgs[i])
			}
		}
	}
	return picked
}

func (c *CommandDriver) Stop() error {
	c.CenterAll()
	return gpio.Close()
}

func (c *CommandDriver) CenterAll() {
	log.Println("centering all servos")
	for name := range c.servos {
		midValue := (c.servos[name].maxValue + c.servos[name].minValue) / 2
		c.servos[name].servo.DutyCycle(midValue/PulseUnit, CycleLength)
	}
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
	if ok {
		val.servo.DutyCycle(DutyLength(cmd, val), CycleLength)
	}
	return nil
}

// DutyLength converts a command to duty steps of PulseUnit microseconds. A pulse command
// keeps its width, clamped to the servo's pulse range.
func DutyLength(cmd vehicle.DriverCommand, servo Servo) uint32 {
	minPulse, maxPulse := float64(servo.minValue), float64(servo.maxValue)

	var pulse float64
	if cmd.Pulse {
		pulse = math.Max(minPulse, math.Min(maxPulse, cmd.Value))
	} else {
		pulse = vehicle.MapToRange(cmd.Value+servo.offset, cmd.Min, cmd.Max, minPulse, maxPulse)
	}
	if servo.inverted {
		pulse = float64(servo.maxValue+servo.minValue) - pulse
	}
	return uint32(pulse) / PulseUnit
}
